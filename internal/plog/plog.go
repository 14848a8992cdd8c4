// Package plog builds the structured logger that the row and columnar
// parsers attach to their streaming worker (pipeline.Worker.Logger). The
// worker holds the logger but emits no log lines, on the hot path or
// elsewhere; a no-op logger is the default so zap is never load-bearing
// for correctness.
package plog

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// New returns a logger tagged with a fresh parser-instance correlation ID,
// or a no-op logger if base is nil.
func New(base *zap.Logger, component string) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.With(
		zap.String("component", component),
		zap.String("parser_id", uuid.NewString()),
	)
}

// Nop returns the no-op logger used when the caller supplies none.
func Nop() *zap.Logger {
	return zap.NewNop()
}
