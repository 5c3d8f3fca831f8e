package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/obsidianstack/latency-analytics/server/internal/config"
	"github.com/obsidianstack/latency-analytics/server/internal/dataset"
	"github.com/obsidianstack/latency-analytics/server/internal/metrics"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, watch, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if watch {
		t.Error("a missing config file should not be watched")
	}
	if cfg.Server.HTTPPort != config.DefaultHTTPPort {
		t.Errorf("HTTPPort: got %d, want %d", cfg.Server.HTTPPort, config.DefaultHTTPPort)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  http_port: 9100\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, watch, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !watch {
		t.Error("an existing config file should be watched")
	}
	if cfg.Server.HTTPPort != 9100 {
		t.Errorf("HTTPPort: got %d, want 9100", cfg.Server.HTTPPort)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  http_port: -1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := loadConfig(path); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestBuildHandler(t *testing.T) {
	cfg := config.Defaults()
	cfg.Server.AccessLog = false

	st, err := dataset.Load(strings.NewReader(`[{"region":"apac","latency_ms":190,"uptime_pct":99.9}]`))
	if err != nil {
		t.Fatal(err)
	}
	h := buildHandler(cfg, st, metrics.New())

	req := httptest.NewRequest(http.MethodPost, "/api/", strings.NewReader(`{"regions":["apac"]}`))
	req.Header.Set("Origin", "https://example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID missing")
	}
	if rr.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("CORS headers missing")
	}

	var resp struct {
		Regions []struct {
			Region   string `json:"region"`
			Breaches int    `json:"breaches"`
		} `json:"regions"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Regions) != 1 || resp.Regions[0].Breaches != 1 {
		t.Errorf("got %+v, want one apac entry with 1 breach", resp.Regions)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("/metrics: got %d, want 200", rr.Code)
	}
}
