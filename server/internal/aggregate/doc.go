// Package aggregate computes per-region latency and uptime statistics over a
// dataset.Store.
//
// Aggregate(src, q) returns exactly one RegionStats per entry in q.Regions, in
// the same order and including duplicates:
//
//	avg_latency  mean latency_ms, 2 decimal places
//	p95_latency  nearest-rank p95: sorted[floor(0.95*n)], clamped to n-1, 2 dp
//	avg_uptime   mean uptime_pct, 3 decimal places
//	breaches     records with latency_ms strictly above threshold_ms
//
// A region with no records yields zeroed stats and Error "Region not found".
// It is never reported as a Go error.
//
// Rounding is half-to-even on the exact binary value of the float64, the same
// result strconv.FormatFloat produces. 2.675 therefore rounds to 2.67 (its
// binary value is just below the tie) while 0.125 rounds to 0.12.
//
// ParseQuery validates a raw request body into a Query and fails with
// *InvalidQueryError. Summarize reports per-region record counts and
// approximate quantiles from a DDSketch for dataset inspection.
package aggregate
