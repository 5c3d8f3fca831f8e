// Package api implements the HTTP JSON API for the latency analytics server.
//
// New(store, metrics, opts) returns an http.Handler that serves:
//
//	GET  /                 service banner and record count
//	POST /api/, /api       per-region aggregates for {"regions", "threshold_ms"}
//	POST /api/v1/latency   same as POST /api/
//	GET  /api/v1/health    dataset status ("ok" or "degraded" when empty)
//	GET  /api/v1/regions   per-region dataset summary
//	GET  /metrics          Prometheus exposition (when MetricsPath is set)
//
// Rejected query bodies get 400 (413 when over MaxBodyBytes) with an
// "error" message and an empty "regions" array. Unknown paths get 404 and
// wrong methods 405, both as {"error": ...}.
//
// WithCORS, WithRequestID, WithRecovery and WithAccessLog wrap the handler
// in cmd/server.
package api
