package log

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
)

// MaxValueLen is the longest string attribute passed through unchanged.
const MaxValueLen = 512

// inlineDataURI matches a base64 data URI embedded anywhere in a string.
var inlineDataURI = regexp.MustCompile(`data:([A-Za-z0-9.+\-/]+);base64,[A-Za-z0-9+/=]{16,}`)

// ElidingHandler wraps an slog.Handler and shortens oversized attribute
// values before passing records on. Error values are rendered to strings
// first so wrapped errors quoting document text are shortened too.
type ElidingHandler struct {
	// handler is the underlying slog handler that receives shortened records.
	handler slog.Handler
}

// NewElidingHandler creates a new ElidingHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewElidingHandler(handler slog.Handler) *ElidingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &ElidingHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *ElidingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle shortens the record's attributes and passes it to the underlying handler.
func (h *ElidingHandler) Handle(ctx context.Context, r slog.Record) error {
	shortened := slog.NewRecord(r.Time, r.Level, Elide(r.Message), r.PC)

	r.Attrs(func(a slog.Attr) bool {
		shortened.AddAttrs(h.elideAttr(a))
		return true
	})

	return h.handler.Handle(ctx, shortened)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *ElidingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	elided := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		elided[i] = h.elideAttr(a)
	}
	return &ElidingHandler{handler: h.handler.WithAttrs(elided)}
}

// WithGroup returns a new handler with the given group name.
func (h *ElidingHandler) WithGroup(name string) slog.Handler {
	return &ElidingHandler{handler: h.handler.WithGroup(name)}
}

// elideAttr shortens a single attribute, recursively handling groups.
func (h *ElidingHandler) elideAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	switch v.Kind() {
	case slog.KindGroup:
		attrs := v.Group()
		elided := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			elided[i] = h.elideAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(elided...)}
	case slog.KindString:
		return slog.String(a.Key, Elide(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok && err != nil {
			return slog.String(a.Key, Elide(err.Error()))
		}
	}

	return slog.Attr{Key: a.Key, Value: v}
}

// Elide collapses inline data URIs and truncates s to MaxValueLen bytes.
func Elide(s string) string {
	s = inlineDataURI.ReplaceAllStringFunc(s, func(m string) string {
		sub := inlineDataURI.FindStringSubmatch(m)
		return fmt.Sprintf("data:%s;base64,<%d chars>", sub[1], len(m)-len(sub[1])-len("data:;base64,"))
	})
	if len(s) > MaxValueLen {
		return fmt.Sprintf("%s...(+%d bytes)", s[:MaxValueLen], len(s)-MaxValueLen)
	}
	return s
}
