// Package dictstore keeps a case dictionary as an active/candidate pair:
// edits go to the candidate, commit promotes it, and earlier commits stay
// available for rollback.
package dictstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"

	"github.com/psaab/foamdict/pkg/dictionary"
)

// ErrNotConfiguring is returned by edits made outside configuration mode.
var ErrNotConfiguring = errors.New("not in configuration mode")

// Options configures a Store.
type Options struct {
	// Name of the top-level dictionary.
	Name string
	// Files are read in order and merged into one dictionary. An entry
	// may be a glob ("constant/**/*Properties"); its matches are read in
	// lexical order.
	Files []string
	// Policy resolves keywords defined by more than one file.
	Policy dictionary.MergePolicy
	// Parse is used for every file and loaded text.
	Parse dictionary.ParseOptions
	// HistorySize bounds the rollback history. Zero means 50.
	HistorySize int
	// SavePath, when set, receives the active dictionary after each commit.
	SavePath string
}

// Store manages the active and candidate dictionaries. The active
// dictionary is never modified after it is committed and may be shared
// with readers.
type Store struct {
	mu        sync.RWMutex
	opts      Options
	active    *dictionary.Dictionary
	candidate *dictionary.Dictionary
	history   *History
	dirty     bool
	configDir bool // true if in configuration mode

	commits    uint64
	rollbacks  uint64
	lastCommit time.Time
}

// New creates a store holding an empty dictionary.
func New(opts Options) *Store {
	if opts.Name == "" {
		opts.Name = "case"
	}
	if opts.HistorySize == 0 {
		opts.HistorySize = 50
	}
	return &Store{
		opts:    opts,
		active:  dictionary.New(opts.Name),
		history: NewHistory(opts.HistorySize),
	}
}

// Load reads the configured files and makes their merge the active
// dictionary. Missing files are skipped. Parse errors from every file are
// reported together and leave the active dictionary unchanged.
func (s *Store) Load() error {
	merged := dictionary.New(s.opts.Name)
	files, result := expandFiles(s.opts.Files)
	for _, path := range files {
		d, err := dictionary.ReadFile(path, s.opts.Parse)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Info("case file not found, skipping", "path", path)
				continue
			}
			result = multierror.Append(result, err)
			continue
		}
		merged.MergeWith(d, s.opts.Policy)
		slog.Debug("case file loaded", "path", path, "entries", d.Len())
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("load case: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = merged
	if s.configDir {
		s.candidate = merged.Clone(nil)
		s.dirty = false
	}
	return nil
}

// expandFiles replaces glob patterns with their matches. Plain paths are
// kept even when they do not exist.
func expandFiles(patterns []string) ([]string, *multierror.Error) {
	var files []string
	var result *multierror.Error
	for _, p := range patterns {
		if !strings.ContainsAny(p, "*?[{") {
			files = append(files, p)
			continue
		}
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("glob %s: %w", p, err))
			continue
		}
		if len(matches) == 0 {
			slog.Info("case glob matched no files", "pattern", p)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, result
}

// Save writes the active dictionary to path.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	data := s.active.String()
	s.mu.RUnlock()
	return os.WriteFile(path, []byte(data), 0644)
}

// EnterConfigure starts editing a copy of the active dictionary.
func (s *Store) EnterConfigure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.configDir {
		return fmt.Errorf("already in configuration mode")
	}
	s.candidate = s.active.Clone(nil)
	s.configDir = true
	s.dirty = false
	return nil
}

// ExitConfigure leaves configuration mode, discarding the candidate.
func (s *Store) ExitConfigure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidate = nil
	s.configDir = false
	s.dirty = false
}

// InConfigMode reports whether a candidate is being edited.
func (s *Store) InConfigMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configDir
}

// IsDirty reports whether the candidate has uncommitted changes.
func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Active returns the committed dictionary. It must not be modified.
func (s *Store) Active() *dictionary.Dictionary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Candidate returns a copy of the candidate, or nil outside configuration
// mode.
func (s *Store) Candidate() *dictionary.Dictionary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.candidate == nil {
		return nil
	}
	return s.candidate.Clone(nil)
}

// SplitPath splits a slash-scoped path into keywords.
func SplitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Set stores value at path in the candidate, creating intermediate
// dictionaries as needed. An empty value stores a dictionary.
func (s *Store) Set(path, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.candidate == nil {
		return ErrNotConfiguring
	}
	parts := SplitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("set: empty path")
	}
	parent, err := descend(s.candidate, parts[:len(parts)-1], true)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	last := parts[len(parts)-1]
	if strings.TrimSpace(value) == "" {
		if e := parent.Search(last, dictionary.MatchLiteral).Entry(); e != nil && e.IsDict() {
			return nil
		}
		parent.Set(dictionary.NewDictEntry(dictionary.Literal(last), nil))
	} else if _, err := parent.SetString(last, value); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	s.dirty = true
	return nil
}

// Delete removes the entry at path from the candidate.
func (s *Store) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.candidate == nil {
		return ErrNotConfiguring
	}
	parts := SplitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("delete: empty path")
	}
	parent, err := descend(s.candidate, parts[:len(parts)-1], false)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if !parent.Remove(parts[len(parts)-1]) {
		return fmt.Errorf("delete %s: %w", path, dictionary.ErrNotFound)
	}
	s.dirty = true
	return nil
}

// descend walks literal keywords from d without scope syntax, so a segment
// such as "a.b" names one keyword. With create, missing levels are
// added as empty dictionaries.
func descend(d *dictionary.Dictionary, parts []string, create bool) (*dictionary.Dictionary, error) {
	cur := d
	for _, p := range parts {
		e := cur.Search(p, dictionary.MatchLiteral).Entry()
		if e == nil {
			if !create {
				return nil, fmt.Errorf("%q: %w", p, dictionary.ErrNotFound)
			}
			e = cur.Add(dictionary.NewDictEntry(dictionary.Literal(p), nil), false)
		}
		sub, err := e.Dict()
		if err != nil {
			return nil, err
		}
		cur = sub
	}
	return cur, nil
}

// LoadMerge parses text and merges it into the candidate with the store
// policy.
func (s *Store) LoadMerge(name, text string) error {
	d, err := dictionary.Parse(name, text, s.opts.Parse)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.candidate == nil {
		return ErrNotConfiguring
	}
	if s.candidate.MergeWith(d, s.opts.Policy) {
		s.dirty = true
	}
	return nil
}

// LoadOverride parses text and makes it the whole candidate.
func (s *Store) LoadOverride(name, text string) error {
	d, err := dictionary.Parse(name, text, s.opts.Parse)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.candidate == nil {
		return ErrNotConfiguring
	}
	d.SetName(s.opts.Name)
	s.candidate = d
	s.dirty = true
	return nil
}

// Commit promotes the candidate to active and records the previous active
// dictionary in the history. It returns the new active dictionary.
func (s *Store) Commit(comment string) (*dictionary.Dictionary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.candidate == nil {
		return nil, ErrNotConfiguring
	}

	s.history.Push(&HistoryEntry{
		Dict:      s.active,
		Digest:    s.active.Digest(),
		Timestamp: time.Now(),
		Comment:   comment,
	})

	s.active = s.candidate
	s.candidate = s.active.Clone(nil)
	s.dirty = false
	s.commits++
	s.lastCommit = time.Now()

	if s.opts.SavePath != "" {
		if err := os.WriteFile(s.opts.SavePath, []byte(s.active.String()), 0644); err != nil {
			slog.Warn("failed to save committed dictionary", "path", s.opts.SavePath, "err", err)
		}
	}
	slog.Info("dictionary committed", "digest", s.active.Digest(), "comment", comment)
	return s.active, nil
}

// Rollback resets the candidate. n=0 reverts to active; n>0 reverts to the
// nth previous commit.
func (s *Store) Rollback(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.candidate == nil {
		return ErrNotConfiguring
	}
	if n == 0 {
		s.candidate = s.active.Clone(nil)
		s.dirty = false
		return nil
	}
	entry, err := s.history.Get(n - 1)
	if err != nil {
		return err
	}
	s.candidate = entry.Dict.Clone(nil)
	s.dirty = true
	s.rollbacks++
	return nil
}

// History returns the committed snapshots, most recent first.
func (s *Store) History() []*HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.List()
}

// ShowActive returns the active dictionary in dictionary syntax.
func (s *Store) ShowActive() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active.String()
}

// ShowCandidate returns the candidate in dictionary syntax.
func (s *Store) ShowCandidate() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.candidate != nil {
		return s.candidate.String()
	}
	return ""
}

// ShowCandidateFlat returns the candidate as one "path value" line per
// primitive entry.
func (s *Store) ShowCandidateFlat() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.candidate == nil {
		return ""
	}
	return formatFlat(s.candidate)
}

// ShowCompare lists the flattened lines removed ("-") and added ("+") by
// the candidate relative to the active dictionary.
func (s *Store) ShowCompare() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.candidate == nil {
		return ""
	}
	return Compare(s.active, s.candidate)
}

// Compare diffs two dictionaries by their flattened lines.
func Compare(from, to *dictionary.Dictionary) string {
	fromLines := splitLines(formatFlat(from))
	toLines := splitLines(formatFlat(to))

	fromSet := make(map[string]bool, len(fromLines))
	for _, line := range fromLines {
		fromSet[line] = true
	}
	toSet := make(map[string]bool, len(toLines))
	for _, line := range toLines {
		toSet[line] = true
	}

	var b strings.Builder
	for _, line := range fromLines {
		if !toSet[line] {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	for _, line := range toLines {
		if !fromSet[line] {
			fmt.Fprintf(&b, "+ %s\n", line)
		}
	}
	if b.Len() == 0 {
		return "[no changes]\n"
	}
	return b.String()
}

func formatFlat(d *dictionary.Dictionary) string {
	var b strings.Builder
	for _, fe := range d.Flatten() {
		b.WriteString(fe.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Stats is a point-in-time summary used for metrics.
type Stats struct {
	Entries     int
	Patterns    int
	Commits     uint64
	Rollbacks   uint64
	HistoryLen  int
	Dirty       bool
	Configuring bool
	LastCommit  time.Time
}

// Stats summarizes the store.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Commits:     s.commits,
		Rollbacks:   s.rollbacks,
		HistoryLen:  s.history.Len(),
		Dirty:       s.dirty,
		Configuring: s.configDir,
		LastCommit:  s.lastCommit,
	}
	s.active.Walk(func(_ []string, e *dictionary.Entry) bool {
		st.Entries++
		if e.Keyword().Pattern {
			st.Patterns++
		}
		return true
	})
	return st
}
