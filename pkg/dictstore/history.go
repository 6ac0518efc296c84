package dictstore

import (
	"fmt"
	"time"

	"github.com/psaab/foamdict/pkg/dictionary"
)

// HistoryEntry is a snapshot of a committed dictionary.
type HistoryEntry struct {
	Dict      *dictionary.Dictionary
	Digest    string
	Timestamp time.Time
	Comment   string
}

// History is a ring buffer of committed dictionaries for rollback.
type History struct {
	entries []*HistoryEntry
	maxSize int
}

// NewHistory creates a History keeping at most maxSize snapshots.
func NewHistory(maxSize int) *History {
	if maxSize < 1 {
		maxSize = 1
	}
	return &History{maxSize: maxSize}
}

// Push adds a snapshot, dropping the oldest when full.
func (h *History) Push(entry *HistoryEntry) {
	h.entries = append(h.entries, entry)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[1:]
	}
}

// Get returns the nth most recent snapshot (0 = most recent).
func (h *History) Get(n int) (*HistoryEntry, error) {
	if n < 0 || n >= len(h.entries) {
		return nil, fmt.Errorf("rollback %d: no such commit (have %d entries)",
			n+1, len(h.entries))
	}
	return h.entries[len(h.entries)-1-n], nil
}

// Len returns the number of snapshots.
func (h *History) Len() int { return len(h.entries) }

// MaxSize returns the capacity.
func (h *History) MaxSize() int { return h.maxSize }

// List returns all snapshots, most recent first.
func (h *History) List() []*HistoryEntry {
	result := make([]*HistoryEntry, len(h.entries))
	for i, entry := range h.entries {
		result[len(h.entries)-1-i] = entry
	}
	return result
}
