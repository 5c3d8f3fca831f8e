package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetup_JSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup(&buf, "json", slog.LevelInfo)
	Component("dataset").Info("loaded", "data_records", 3)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "loaded" || entry["component"] != "dataset" {
		t.Errorf("entry: got %v", entry)
	}
	if entry["data_records"] != float64(3) {
		t.Errorf("data_records: got %v, want 3", entry["data_records"])
	}
}

func TestSetup_Text(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup(&buf, "TEXT", slog.LevelInfo)
	slog.Info("hello", "port", 8000)

	out := buf.String()
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "port=8000") {
		t.Errorf("text output: got %q", out)
	}
}

func TestSetup_LevelVar(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	level := Setup(&buf, "json", slog.LevelInfo)

	slog.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug logged at info level: %s", buf.String())
	}

	level.Set(slog.LevelDebug)
	slog.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug not logged after level change: %q", buf.String())
	}
}
