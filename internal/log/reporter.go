package log

import (
	"log/slog"
	"sync/atomic"
)

// Reporter logs per-item failures in terse or verbose form and counts them.
// It is safe for concurrent use.
type Reporter struct {
	logger  *slog.Logger
	verbose bool
	skipped atomic.Int64
}

// NewReporter creates a Reporter. A nil logger means slog.Default().
func NewReporter(logger *slog.Logger, verbose bool) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{logger: logger, verbose: verbose}
}

// Skip records that item of the given kind was dropped because of err.
// Terse mode logs a warning with the item name only; verbose mode logs an
// error including the full cause.
func (r *Reporter) Skip(kind, item string, err error) {
	r.skipped.Add(1)
	if r.verbose {
		r.logger.Error("failed to process "+kind, kind, item, "error", err)
		return
	}
	r.logger.Warn("unable to process "+kind+", skipping it", kind, item)
}

// Skipped returns the number of Skip calls so far.
func (r *Reporter) Skipped() int64 {
	return r.skipped.Load()
}

// Verbose reports whether full error detail is logged.
func (r *Reporter) Verbose() bool {
	return r.verbose
}

// Logger returns the underlying logger.
func (r *Reporter) Logger() *slog.Logger {
	return r.logger
}
