// Package log builds the process logger for kplan binaries.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/lmittmann/tint"
	"github.com/rs/zerolog"
)

// New returns a logger writing to stderr. Inside Kubernetes it writes zerolog
// JSON lines, otherwise colored console output.
func New(level slog.Level) *slog.Logger {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return NewJSON(os.Stderr, level)
	}
	return NewConsole(os.Stderr, level)
}

// NewJSON logs through zerolog. logr has no warn level, so anything at or
// above info is always written.
func NewJSON(w io.Writer, level slog.Level) *slog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"

	zl := zerolog.New(w).Level(zerologLevel(level)).With().Timestamp().Logger()
	return slog.New(logr.ToSlogHandler(zerologr.New(&zl)))
}

func NewConsole(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
	}))
}

// zerologLevel maps a slog level to the zerolog level zerologr logs it at:
// logr verbosity V is written at zerolog level 1-V.
func zerologLevel(level slog.Level) zerolog.Level {
	if level >= slog.LevelInfo {
		return zerolog.InfoLevel
	}
	v := int(slog.LevelInfo - level)
	return zerolog.Level(1 - v)
}

// ParseLevel parses debug, info, warn or error, case insensitively.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.TrimSpace(s)))
	return level, err
}
