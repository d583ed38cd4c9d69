package kdag

import (
	"log/slog"

	"github.com/birdayz/kplan/koperator"
)

// Option configures a DAG.
type Option func(*DAG)

// WithLog sets the logger. The default discards all output.
var WithLog = func(log *slog.Logger) Option {
	return func(d *DAG) {
		d.log = log
	}
}

// WithDescriber replaces the port discovery used for operators.
var WithDescriber = func(describer koperator.Describer) Option {
	return func(d *DAG) {
		d.describer = describer
	}
}

// WithConstraintChecker replaces the per-operator constraint check run by
// Validate.
var WithConstraintChecker = func(checker koperator.ConstraintChecker) Option {
	return func(d *DAG) {
		d.constraints = checker
	}
}

// NullWriter is a writer that discards all data
type NullWriter struct{}

func (NullWriter) Write(p []byte) (int, error) { return len(p), nil }

// NullLogger creates a logger that discards all output
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(NullWriter{}, nil))
}
