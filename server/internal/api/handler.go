package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/obsidianstack/latency-analytics/server/internal/aggregate"
	"github.com/obsidianstack/latency-analytics/server/internal/dataset"
	"github.com/obsidianstack/latency-analytics/server/internal/logging"
	"github.com/obsidianstack/latency-analytics/server/internal/metrics"
)

const serviceMessage = "Latency Analytics API"

// Options tunes the handler. Zero values fall back to defaults.
type Options struct {
	// DefaultThresholdMs applies when a query omits threshold_ms (default 180).
	DefaultThresholdMs float64

	// MaxBodyBytes caps query bodies (default 1 MiB).
	MaxBodyBytes int64

	// MetricsPath mounts the Prometheus handler; empty disables it.
	MetricsPath string
}

// Handler serves the latency API from an immutable dataset.
type Handler struct {
	store   *dataset.Store
	metrics *metrics.Metrics
	parser  aggregate.QueryParser
	maxBody int64
	router  *mux.Router
	log     *slog.Logger
}

// New creates a Handler wired to st and m and registers all routes.
func New(st *dataset.Store, m *metrics.Metrics, opts Options) http.Handler {
	if opts.DefaultThresholdMs == 0 {
		opts.DefaultThresholdMs = aggregate.DefaultThresholdMs
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}

	h := &Handler{
		store:   st,
		metrics: m,
		parser:  aggregate.QueryParser{DefaultThresholdMs: opts.DefaultThresholdMs},
		maxBody: opts.MaxBodyBytes,
		router:  mux.NewRouter(),
		log:     logging.Component("api"),
	}
	m.SetDatasetRecords(st.Len())

	r := h.router
	r.Handle("/", m.Middleware("info", http.HandlerFunc(h.info))).Methods(http.MethodGet)
	r.Handle("/api/", m.Middleware("query", http.HandlerFunc(h.query))).Methods(http.MethodPost)
	r.Handle("/api", m.Middleware("query", http.HandlerFunc(h.query))).Methods(http.MethodPost)
	r.Handle("/api/v1/latency", m.Middleware("query", http.HandlerFunc(h.query))).Methods(http.MethodPost)
	r.Handle("/api/v1/health", m.Middleware("health", http.HandlerFunc(h.health))).Methods(http.MethodGet)
	r.Handle("/api/v1/regions", m.Middleware("regions", http.HandlerFunc(h.regions))).Methods(http.MethodGet)
	if opts.MetricsPath != "" {
		r.Handle(opts.MetricsPath, m.Handler()).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// info returns GET /: service banner and dataset size.
func (h *Handler) info(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, InfoResponse{
		Message:     serviceMessage,
		Status:      "running",
		DataRecords: h.store.Len(),
	})
}

// query handles POST /api/: per-region aggregates for the requested regions.
func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		h.metrics.InvalidQuery()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			queryErr(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		queryErr(w, http.StatusBadRequest, "read request body: "+err.Error())
		return
	}

	q, err := h.parser.Parse(body)
	if err != nil {
		h.metrics.InvalidQuery()
		h.log.Debug("rejected query",
			"request_id", r.Header.Get(RequestIDHeader), "err", err)
		queryErr(w, http.StatusBadRequest, err.Error())
		return
	}

	stats := aggregate.Aggregate(h.store, q)
	for _, s := range stats {
		h.metrics.ObserveRegion(s.Found())
	}
	h.log.Debug("query served",
		"request_id", r.Header.Get(RequestIDHeader),
		"regions", len(q.Regions),
		"threshold_ms", q.ThresholdMs,
	)
	jsonResp(w, http.StatusOK, QueryResponse{Regions: stats})
}

// health returns GET /api/v1/health: dataset status.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		DataRecords: h.store.Len(),
		Regions:     len(h.store.Regions()),
		Source:      h.store.Source(),
		LoadedAt:    h.store.LoadedAt().UTC().Format(time.RFC3339),
	}
	if resp.DataRecords == 0 {
		resp.Status = "degraded"
	}
	if n, err := h.metrics.RequestsServed(); err == nil {
		resp.Requests = n
	}
	jsonResp(w, http.StatusOK, resp)
}

// regions returns GET /api/v1/regions: per-region dataset summary.
func (h *Handler) regions(w http.ResponseWriter, _ *http.Request) {
	out, err := aggregate.Summarize(h.store)
	if err != nil {
		h.log.Error("summarize regions", "err", err)
		jsonErr(w, http.StatusInternalServerError, "summary unavailable")
		return
	}
	jsonResp(w, http.StatusOK, out)
}

// --- helpers ----------------------------------------------------------------

// jsonResp encodes v before touching w, so a value that cannot be encoded
// (a non-finite float, for one) becomes a 500 error body instead of a
// truncated success.
func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logging.Component("api").Error("encode response", "status", code, "err", err)
		buf.Reset()
		json.NewEncoder(&buf).Encode(errorResponse{Error: "encode response: " + err.Error()}) //nolint:errcheck
		code = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(buf.Bytes()) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func queryErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, QueryErrorResponse{Error: msg, Regions: []aggregate.RegionStats{}})
}
