// Package log builds the slog.Logger used across phetcrawl and provides the
// terse/verbose failure reporting shared by every stage.
//
// # Handlers
//
// On a terminal, records are rendered by tint with colors; otherwise a plain
// slog.TextHandler is used. Both are wrapped by ElidingHandler, which keeps
// log lines readable when an attribute carries document text: inline base64
// data URIs are collapsed to their MIME type and size, and any other string
// longer than MaxValueLen is truncated.
//
// # Failure reporting
//
// Reporter.Skip is the single place where a per-item failure is logged. In
// terse mode it prints one warning naming the item; in verbose mode
// (--verbose or PHET_VERBOSE_ERRORS=true) it prints the full error.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//	reporter := log.NewReporter(logger, verbose)
//	reporter.Skip("image", "foo.png", err)
package log
