package api

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"

	"github.com/obsidianstack/latency-analytics/server/internal/logging"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const (
	wildcard              = "*"
	requestHeadersHeader  = "Access-Control-Request-Headers"
	internalErrorResponse = "internal error"
)

// CORSOptions is the cross-origin policy. "*" in AllowedOrigins admits any
// origin; "*" in AllowedHeaders admits whatever headers a preflight asks for.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// WithCORS applies the cross-origin policy. Preflight requests are answered
// here and never reach next.
//
// Browsers reject "Access-Control-Allow-Origin: *" on credentialed requests,
// so a wildcard origin list with credentials enabled echoes the request's
// Origin instead and adds "Vary: Origin".
func WithCORS(next http.Handler, opts CORSOptions) http.Handler {
	echoOrigin := slices.Contains(opts.AllowedOrigins, wildcard) && opts.AllowCredentials

	base := []handlers.CORSOption{
		handlers.AllowedMethods(opts.AllowedMethods),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	}
	if echoOrigin {
		base = append(base, handlers.AllowedOriginValidator(func(string) bool { return true }))
	} else {
		base = append(base, handlers.AllowedOrigins(opts.AllowedOrigins))
	}
	if opts.AllowCredentials {
		base = append(base, handlers.AllowCredentials())
	}

	var h http.Handler
	if slices.Contains(opts.AllowedHeaders, wildcard) {
		h = mirrorRequestHeaders(next, base)
	} else {
		h = handlers.CORS(append(slices.Clip(base), handlers.AllowedHeaders(opts.AllowedHeaders))...)(next)
	}

	if !echoOrigin {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		h.ServeHTTP(w, r)
	})
}

// mirrorRequestHeaders allows exactly the headers each preflight requests.
func mirrorRequestHeaders(next http.Handler, base []handlers.CORSOption) http.Handler {
	plain := handlers.CORS(base...)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested := r.Header.Get(requestHeadersHeader)
		if r.Method != http.MethodOptions || requested == "" {
			plain.ServeHTTP(w, r)
			return
		}
		opts := append(slices.Clip(base), handlers.AllowedHeaders(strings.Split(requested, ",")))
		handlers.CORS(opts...)(next).ServeHTTP(w, r)
	})
}

// WithRequestID propagates an incoming X-Request-ID or assigns a new one, and
// echoes it on the response.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// WithRecovery turns a handler panic into a 500 {"error": "internal error"}
// and logs the panic with its stack. http.ErrAbortHandler is re-raised so
// net/http can abort the connection as usual.
func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint
				panic(rec)
			}
			logging.Component("api").Error("recovered from panic",
				"request_id", r.Header.Get(RequestIDHeader),
				"method", r.Method,
				"path", r.URL.Path,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			jsonErr(w, http.StatusInternalServerError, internalErrorResponse)
		}()
		next.ServeHTTP(w, r)
	})
}

// WithAccessLog writes Apache combined-format lines to out.
func WithAccessLog(next http.Handler, out io.Writer) http.Handler {
	return handlers.CombinedLoggingHandler(out, next)
}
