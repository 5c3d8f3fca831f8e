// Package logging configures the process-wide slog logger.
//
// Setup installs a JSON or text handler as the slog default and returns the
// LevelVar backing it, so the level can be changed at runtime when the config
// file is reloaded:
//
//	level := logging.Setup(os.Stdout, "json", slog.LevelInfo)
//	level.Set(slog.LevelDebug)
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Setup builds a handler writing to w in the given format ("json" or "text";
// anything else falls back to json) and makes it the slog default.
func Setup(w io.Writer, format string, level slog.Level) *slog.LevelVar {
	lv := new(slog.LevelVar)
	lv.Set(level)
	slog.SetDefault(slog.New(NewHandler(w, format, lv)))
	return lv
}

// NewHandler returns the handler Setup would install, without touching the
// default logger.
func NewHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// Component returns the default logger tagged with component=name.
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}
