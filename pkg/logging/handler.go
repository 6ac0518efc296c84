// Package logging sets up the process logger and keeps recent log records
// in memory so they can be listed and streamed over the API.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// BufferHandler is an slog.Handler that copies records at or above a
// level into a RecordBuffer in addition to a wrapped base handler.
type BufferHandler struct {
	base   slog.Handler
	buf    *RecordBuffer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

// NewBufferHandler wraps base, capturing records at level and above.
func NewBufferHandler(base slog.Handler, buf *RecordBuffer, level slog.Level) *BufferHandler {
	return &BufferHandler{base: base, buf: buf, level: level}
}

// Enabled implements slog.Handler.
func (h *BufferHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level) || (h.buf != nil && level >= h.level)
}

// Handle implements slog.Handler.
func (h *BufferHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.base.Enabled(ctx, r.Level) {
		err = h.base.Handle(ctx, r)
	}
	if h.buf != nil && r.Level >= h.level {
		h.buf.Add(Record{
			Time:    r.Time,
			Level:   r.Level.String(),
			Message: r.Message,
			Attrs:   formatAttrs(r, h.attrs, h.groups),
		})
	}
	return err
}

// WithAttrs implements slog.Handler.
func (h *BufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &BufferHandler{
		base:   h.base.WithAttrs(attrs),
		buf:    h.buf,
		level:  h.level,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
		groups: h.groups,
	}
}

// WithGroup implements slog.Handler.
func (h *BufferHandler) WithGroup(name string) slog.Handler {
	return &BufferHandler{
		base:   h.base.WithGroup(name),
		buf:    h.buf,
		level:  h.level,
		attrs:  h.attrs,
		groups: append(append([]string{}, h.groups...), name),
	}
}

// formatAttrs renders the attributes of a record as "key=value" pairs.
func formatAttrs(r slog.Record, preAttrs []slog.Attr, groups []string) string {
	var b strings.Builder
	sep := func() {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
	}
	for _, a := range preAttrs {
		sep()
		fmt.Fprintf(&b, "%s=%s", a.Key, a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if len(groups) > 0 {
			key = strings.Join(groups, ".") + "." + key
		}
		sep()
		fmt.Fprintf(&b, "%s=%s", key, a.Value.String())
		return true
	})
	return b.String()
}

// Options configures Setup.
type Options struct {
	Level  slog.Level
	JSON   bool
	Buffer *RecordBuffer // optional
	// BufferLevel is the lowest level copied into Buffer.
	BufferLevel slog.Level
	Sinks       []Sink
	// SinkLevel is the lowest level forwarded to Sinks.
	SinkLevel slog.Level
}

// Setup builds a logger writing to w and installs it as the slog default.
func Setup(w io.Writer, opts Options) *slog.Logger {
	ho := &slog.HandlerOptions{Level: opts.Level}
	var base slog.Handler
	if opts.JSON {
		base = slog.NewJSONHandler(w, ho)
	} else {
		base = slog.NewTextHandler(w, ho)
	}
	if len(opts.Sinks) > 0 {
		base = NewForwardHandler(base, opts.Sinks, opts.SinkLevel)
	}
	var h slog.Handler = base
	if opts.Buffer != nil {
		h = NewBufferHandler(base, opts.Buffer, opts.BufferLevel)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}
