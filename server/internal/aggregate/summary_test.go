package aggregate

import (
	"math"
	"testing"

	"github.com/obsidianstack/latency-analytics/server/internal/dataset"
)

// fakeInventory adds region enumeration to fakeSource.
type fakeInventory struct {
	fakeSource
	order []string
}

func (f fakeInventory) Regions() []string { return f.order }

func TestSummarize(t *testing.T) {
	many := make([]dataset.Record, 0, 100)
	for i := 1; i <= 100; i++ {
		many = append(many, rec("amer", float64(i), 99))
	}
	inv := fakeInventory{
		fakeSource: fakeSource{
			"amer": many,
			"apac": {rec("apac", 150, 98.5), rec("apac", 110, 99.5)},
		},
		order: []string{"apac", "amer"},
	}

	got, err := Summarize(inv)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(got) != 2 || got[0].Region != "apac" || got[1].Region != "amer" {
		t.Fatalf("regions: got %+v", got)
	}

	apac := got[0]
	if apac.Records != 2 || apac.MinLatency != 110 || apac.MaxLatency != 150 || apac.AvgUptime != 99 {
		t.Errorf("apac: got %+v", apac)
	}

	amer := got[1]
	if amer.Records != 100 || amer.MinLatency != 1 || amer.MaxLatency != 100 {
		t.Errorf("amer: got %+v", amer)
	}
	within := func(got, want float64) bool { return math.Abs(got-want) <= want*0.02 }
	if !within(amer.ApproxP50, 50) {
		t.Errorf("amer ApproxP50: got %v, want ~50", amer.ApproxP50)
	}
	if !within(amer.ApproxP99, 99) {
		t.Errorf("amer ApproxP99: got %v, want ~99", amer.ApproxP99)
	}
}

func TestSummarize_ZeroLatency(t *testing.T) {
	inv := fakeInventory{
		fakeSource: fakeSource{"edge": {rec("edge", 0, 100), rec("edge", 0, 100)}},
		order:      []string{"edge"},
	}
	got, err := Summarize(inv)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got[0].ApproxP50 != 0 || got[0].MaxLatency != 0 {
		t.Errorf("edge: got %+v", got[0])
	}
}

func TestSummarize_Empty(t *testing.T) {
	got, err := Summarize(fakeInventory{fakeSource: fakeSource{}})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}
}
