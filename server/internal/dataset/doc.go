// Package dataset holds the immutable telemetry dataset the latency API
// answers queries from.
//
// The dataset is a JSON array of records:
//
//	[{"region": "apac", "latency_ms": 142.3, "uptime_pct": 99.1}, ...]
//
// Load and LoadFile decode and validate a source, returning *LoadError on any
// failure. Open is the startup entry point: it never fails, logging the error
// and returning an empty Store instead so the API keeps serving (every region
// then reports "Region not found").
//
// A Store is built once and never mutated. All accessors return copies, so it
// is safe to share between any number of concurrent requests without locking.
package dataset
