package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// setupLogging installs the default slog logger on stderr; stdout carries
// command output.
func setupLogging(levelStr, format string) {
	slog.SetDefault(slog.New(newLogHandler(os.Stderr, parseLevel(levelStr), format)))

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo).Writer())
}

// newLogHandler returns a JSON handler for "json" and a tint handler otherwise.
func newLogHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: utcTimestamp,
		})
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		AddSource:  level <= slog.LevelDebug,
		TimeFormat: time.TimeOnly + ".000",
	})
}

// utcTimestamp renames the top-level time attribute to "ts" in UTC.
func utcTimestamp(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 || a.Key != slog.TimeKey {
		return a
	}
	return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
