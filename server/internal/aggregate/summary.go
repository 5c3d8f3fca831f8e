package aggregate

import (
	"fmt"

	"github.com/DataDog/sketches-go/ddsketch"
)

// sketchAccuracy is the relative accuracy of summary quantiles.
const sketchAccuracy = 0.01

// Inventory is a Source that can also enumerate its regions.
// *dataset.Store satisfies it.
type Inventory interface {
	Source
	Regions() []string
}

// RegionSummary describes the records held for one region.
// Approximate quantiles come from a DDSketch and are within 1% of the true
// value; they are for inspection only and never replace p95_latency.
type RegionSummary struct {
	Region     string  `json:"region"`
	Records    int     `json:"records"`
	MinLatency float64 `json:"min_latency"`
	MaxLatency float64 `json:"max_latency"`
	ApproxP50  float64 `json:"approx_p50_latency"`
	ApproxP99  float64 `json:"approx_p99_latency"`
	AvgUptime  float64 `json:"avg_uptime"`
}

// Summarize returns one RegionSummary per distinct region, in the order the
// regions first appear in the dataset.
func Summarize(inv Inventory) ([]RegionSummary, error) {
	regions := inv.Regions()
	out := make([]RegionSummary, 0, len(regions))
	for _, region := range regions {
		s, err := summarize(region, inv)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func summarize(region string, src Source) (RegionSummary, error) {
	records := src.Region(region)
	sum := RegionSummary{Region: region, Records: len(records)}
	if len(records) == 0 {
		return sum, nil
	}

	sketch, err := ddsketch.NewDefaultDDSketch(sketchAccuracy)
	if err != nil {
		return sum, fmt.Errorf("summary %q: new sketch: %w", region, err)
	}

	sum.MinLatency = records[0].LatencyMs
	sum.MaxLatency = records[0].LatencyMs
	var uptime float64
	for _, r := range records {
		if err := sketch.Add(r.LatencyMs); err != nil {
			return sum, fmt.Errorf("summary %q: add %v: %w", region, r.LatencyMs, err)
		}
		sum.MinLatency = min(sum.MinLatency, r.LatencyMs)
		sum.MaxLatency = max(sum.MaxLatency, r.LatencyMs)
		uptime += r.UptimePct
	}
	sum.AvgUptime = Round(uptime/float64(len(records)), uptimePlaces)

	qs, err := sketch.GetValuesAtQuantiles([]float64{0.5, 0.99})
	if err != nil {
		return sum, fmt.Errorf("summary %q: quantiles: %w", region, err)
	}
	sum.ApproxP50 = Round(qs[0], latencyPlaces)
	sum.ApproxP99 = Round(qs[1], latencyPlaces)
	return sum, nil
}
