package api

import "github.com/obsidianstack/latency-analytics/server/internal/aggregate"

// InfoResponse is the payload for GET /.
type InfoResponse struct {
	Message     string `json:"message"`
	Status      string `json:"status"`
	DataRecords int    `json:"data_records"`
}

// QueryResponse is the success payload for POST /api/ and /api/v1/latency.
type QueryResponse struct {
	Regions []aggregate.RegionStats `json:"regions"`
}

// QueryErrorResponse is returned when a query body is rejected.
// Regions is always an empty array, never null.
type QueryErrorResponse struct {
	Error   string                  `json:"error"`
	Regions []aggregate.RegionStats `json:"regions"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status      string  `json:"status"` // "ok" | "degraded"
	DataRecords int     `json:"data_records"`
	Regions     int     `json:"regions"`
	Source      string  `json:"source,omitempty"`
	LoadedAt    string  `json:"loaded_at"` // RFC3339
	Requests    float64 `json:"requests_served"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
