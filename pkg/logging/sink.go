package logging

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Syslog severity levels (RFC 3164).
const (
	SyslogError   = 3
	SyslogWarning = 4
	SyslogInfo    = 6
	SyslogDebug   = 7
)

// Syslog facility: local0 (16).
const syslogFacility = 16

// Sink receives formatted log lines outside the process.
type Sink interface {
	Send(severity int, msg string) error
	Close() error
}

// SeverityOf maps an slog level to a syslog severity.
func SeverityOf(level slog.Level) int {
	switch {
	case level >= slog.LevelError:
		return SyslogError
	case level >= slog.LevelWarn:
		return SyslogWarning
	case level >= slog.LevelInfo:
		return SyslogInfo
	default:
		return SyslogDebug
	}
}

// SyslogSink sends UDP syslog messages (RFC 3164).
type SyslogSink struct {
	conn     net.Conn
	hostname string
	tag      string
}

// NewSyslogSink dials the syslog server at addr ("host:port").
func NewSyslogSink(addr, tag string) (*SyslogSink, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial syslog %s: %w", addr, err)
	}
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "foamdict"
	}
	if tag == "" {
		tag = "foamdict"
	}
	return &SyslogSink{conn: conn, hostname: hostname, tag: tag}, nil
}

// Send sends a syslog message with the given severity.
func (s *SyslogSink) Send(severity int, msg string) error {
	priority := syslogFacility*8 + severity
	ts := time.Now().Format(time.Stamp)
	line := fmt.Sprintf("<%d>%s %s %s: %s", priority, ts, s.hostname, s.tag, msg)
	_, err := s.conn.Write([]byte(line))
	return err
}

// Close closes the underlying connection.
func (s *SyslogSink) Close() error {
	return s.conn.Close()
}

// FileSink appends log lines to a file, rotating it at MaxSize.
type FileSink struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	maxSize  int64
	maxFiles int
	written  int64
}

// FileSinkConfig configures a FileSink.
type FileSinkConfig struct {
	Path     string
	MaxSize  int64 // bytes, default 10MB
	MaxFiles int   // rotated files kept, default 5
}

// NewFileSink opens (or creates) the log file.
func NewFileSink(cfg FileSinkConfig) (*FileSink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 10 * 1024 * 1024
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 5
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	fs := &FileSink{
		file:     f,
		path:     cfg.Path,
		maxSize:  cfg.MaxSize,
		maxFiles: cfg.MaxFiles,
	}
	if info, err := f.Stat(); err == nil {
		fs.written = info.Size()
	}
	return fs, nil
}

// Send writes one timestamped line.
func (fs *FileSink) Send(severity int, msg string) error {
	ts := time.Now().Format("2006-01-02T15:04:05.000")
	line := fmt.Sprintf("%s [%s] %s\n", ts, severityTag(severity), msg)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.file == nil {
		return fmt.Errorf("log file closed")
	}
	n, err := fs.file.WriteString(line)
	if err != nil {
		return err
	}
	fs.written += int64(n)
	if fs.written >= fs.maxSize {
		fs.rotate()
	}
	return nil
}

// Close closes the file. Closing twice is a no-op.
func (fs *FileSink) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.file == nil {
		return nil
	}
	err := fs.file.Close()
	fs.file = nil
	return err
}

func (fs *FileSink) rotate() {
	fs.file.Close()
	fs.file = nil

	for i := fs.maxFiles - 1; i > 0; i-- {
		os.Rename(fmt.Sprintf("%s.%d", fs.path, i), fmt.Sprintf("%s.%d", fs.path, i+1))
	}
	os.Rename(fs.path, fs.path+".1")
	os.Remove(fmt.Sprintf("%s.%d", fs.path, fs.maxFiles+1))

	f, err := os.OpenFile(fs.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		// Logging here would recurse into this sink.
		fmt.Fprintf(os.Stderr, "reopen rotated log file: %v\n", err)
		return
	}
	fs.file = f
	fs.written = 0
}

func severityTag(severity int) string {
	switch severity {
	case SyslogError:
		return "ERROR"
	case SyslogWarning:
		return "WARNING"
	case SyslogDebug:
		return "DEBUG"
	default:
		return "INFO"
	}
}

// ForwardHandler is an slog.Handler that sends records at or above a level
// to sinks in addition to a wrapped base handler.
type ForwardHandler struct {
	base   slog.Handler
	sinks  []Sink
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

// NewForwardHandler wraps base with forwarding to sinks.
func NewForwardHandler(base slog.Handler, sinks []Sink, level slog.Level) *ForwardHandler {
	return &ForwardHandler{base: base, sinks: sinks, level: level}
}

// Enabled implements slog.Handler.
func (h *ForwardHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level) || (len(h.sinks) > 0 && level >= h.level)
}

// Handle implements slog.Handler. Sink errors are dropped.
func (h *ForwardHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.base.Enabled(ctx, r.Level) {
		err = h.base.Handle(ctx, r)
	}
	if r.Level < h.level || len(h.sinks) == 0 {
		return err
	}
	msg := r.Message
	if attrs := formatAttrs(r, h.attrs, h.groups); attrs != "" {
		msg += " " + attrs
	}
	sev := SeverityOf(r.Level)
	for _, s := range h.sinks {
		s.Send(sev, msg)
	}
	return err
}

// WithAttrs implements slog.Handler.
func (h *ForwardHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ForwardHandler{
		base:   h.base.WithAttrs(attrs),
		sinks:  h.sinks,
		level:  h.level,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
		groups: h.groups,
	}
}

// WithGroup implements slog.Handler.
func (h *ForwardHandler) WithGroup(name string) slog.Handler {
	return &ForwardHandler{
		base:   h.base.WithGroup(name),
		sinks:  h.sinks,
		level:  h.level,
		attrs:  h.attrs,
		groups: append(append([]string{}, h.groups...), name),
	}
}
