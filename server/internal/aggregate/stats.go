package aggregate

import (
	"math"
	"slices"
	"strconv"
)

// NearestRank returns the q-quantile (0 <= q <= 1) of values by truncated
// nearest rank: the element at index floor(q*n) of the ascending sort,
// clamped to the last element. values is not modified. Returns 0 for an
// empty slice.
func NearestRank(values []float64, q float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	i := int(math.Floor(q * float64(n)))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return sorted[i]
}

// Round rounds x to places decimal digits, half-to-even on the exact binary
// value. NaN and ±Inf are returned unchanged.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return v
}
