package aggregate

import (
	"github.com/obsidianstack/latency-analytics/server/internal/dataset"
)

const (
	// DefaultThresholdMs is the breach threshold used when a query omits one.
	DefaultThresholdMs = 180.0

	// NotFoundMessage is the Error of a RegionStats for an absent region.
	NotFoundMessage = "Region not found"

	latencyPlaces = 2
	uptimePlaces  = 3
	p95Rank       = 0.95
)

// Source is the read side of the dataset the aggregator needs.
// *dataset.Store satisfies it.
type Source interface {
	Region(name string) []dataset.Record
}

// Query is a validated aggregation request.
type Query struct {
	Regions     []string
	ThresholdMs float64
}

// RegionStats is the aggregate for one requested region.
type RegionStats struct {
	Region     string  `json:"region"`
	AvgLatency float64 `json:"avg_latency"`
	P95Latency float64 `json:"p95_latency"`
	AvgUptime  float64 `json:"avg_uptime"`
	Breaches   int     `json:"breaches"`
	Error      string  `json:"error,omitempty"`
}

// NotFound returns the stats reported for a region with no records.
func NotFound(region string) RegionStats {
	return RegionStats{Region: region, Error: NotFoundMessage}
}

// Found reports whether s was computed from at least one record.
func (s RegionStats) Found() bool { return s.Error == "" }

// Aggregate computes one RegionStats per requested region, in request order.
// Duplicate regions are recomputed, not deduplicated.
func Aggregate(src Source, q Query) []RegionStats {
	out := make([]RegionStats, 0, len(q.Regions))
	for _, region := range q.Regions {
		out = append(out, Compute(region, src.Region(region), q.ThresholdMs))
	}
	return out
}

// Compute derives the stats for records already filtered to region.
func Compute(region string, records []dataset.Record, thresholdMs float64) RegionStats {
	n := len(records)
	if n == 0 {
		return NotFound(region)
	}

	latencies := make([]float64, n)
	var latencySum, uptimeSum float64
	breaches := 0
	for i, r := range records {
		latencies[i] = r.LatencyMs
		latencySum += r.LatencyMs
		uptimeSum += r.UptimePct
		if r.LatencyMs > thresholdMs {
			breaches++
		}
	}

	return RegionStats{
		Region:     region,
		AvgLatency: Round(latencySum/float64(n), latencyPlaces),
		P95Latency: Round(NearestRank(latencies, p95Rank), latencyPlaces),
		AvgUptime:  Round(uptimeSum/float64(n), uptimePlaces),
		Breaches:   breaches,
	}
}
