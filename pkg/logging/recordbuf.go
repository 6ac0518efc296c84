package logging

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Record is a formatted log record kept in a RecordBuffer.
type Record struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Attrs   string    `json:"attrs,omitempty"` // "key=value" pairs
}

// RecordBuffer is a thread-safe circular buffer of recent log records.
type RecordBuffer struct {
	mu    sync.RWMutex
	buf   []Record
	size  int
	head  int // next write position
	count int
	total uint64

	subMu sync.RWMutex
	subs  map[*Subscription]struct{}
}

// Subscription receives new records from a RecordBuffer.
type Subscription struct {
	C  chan Record
	rb *RecordBuffer
}

// Close unsubscribes. The channel is left open for pending reads.
func (s *Subscription) Close() {
	s.rb.unsubscribe(s)
}

// NewRecordBuffer creates a buffer holding up to size records.
func NewRecordBuffer(size int) *RecordBuffer {
	if size < 1 {
		size = 1
	}
	return &RecordBuffer{
		buf:  make([]Record, size),
		size: size,
		subs: make(map[*Subscription]struct{}),
	}
}

// Add appends a record, overwriting the oldest if full. Subscribers are
// notified non-blocking.
func (rb *RecordBuffer) Add(rec Record) {
	rb.mu.Lock()
	rb.buf[rb.head] = rec
	rb.head = (rb.head + 1) % rb.size
	if rb.count < rb.size {
		rb.count++
	}
	rb.total++
	rb.mu.Unlock()

	rb.subMu.RLock()
	for sub := range rb.subs {
		select {
		case sub.C <- rec:
		default: // drop if subscriber is slow
		}
	}
	rb.subMu.RUnlock()
}

// Subscribe returns a Subscription that receives new records.
// Call Close() on the subscription when done.
func (rb *RecordBuffer) Subscribe(bufSize int) *Subscription {
	if bufSize < 1 {
		bufSize = 64
	}
	sub := &Subscription{
		C:  make(chan Record, bufSize),
		rb: rb,
	}
	rb.subMu.Lock()
	rb.subs[sub] = struct{}{}
	rb.subMu.Unlock()
	return sub
}

func (rb *RecordBuffer) unsubscribe(sub *Subscription) {
	rb.subMu.Lock()
	delete(rb.subs, sub)
	rb.subMu.Unlock()
}

// RecordFilter selects records by minimum level and message text.
type RecordFilter struct {
	MinLevel slog.Level
	Contains string // case-insensitive substring of message or attrs
}

// Match reports whether rec passes the filter.
func (f RecordFilter) Match(rec Record) bool {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(rec.Level)); err == nil && lvl < f.MinLevel {
		return false
	}
	if f.Contains != "" {
		needle := strings.ToLower(f.Contains)
		if !strings.Contains(strings.ToLower(rec.Message), needle) &&
			!strings.Contains(strings.ToLower(rec.Attrs), needle) {
			return false
		}
	}
	return true
}

// Latest returns the most recent n records matching f, newest first.
func (rb *RecordBuffer) Latest(n int, f RecordFilter) []Record {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	var result []Record
	for i := 0; i < rb.count && len(result) < n; i++ {
		idx := (rb.head - 1 - i + rb.size) % rb.size
		if f.Match(rb.buf[idx]) {
			result = append(result, rb.buf[idx])
		}
	}
	return result
}

// Len returns the number of buffered records.
func (rb *RecordBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Total returns the number of records ever added.
func (rb *RecordBuffer) Total() uint64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.total
}
