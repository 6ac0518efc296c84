package dictionary

import (
	"fmt"
	"log/slog"
)

// MergePolicy decides what happens when both dictionaries define the same
// keyword with values that cannot be merged recursively.
type MergePolicy int

const (
	// MergeWarn keeps the existing value and logs a warning.
	MergeWarn MergePolicy = iota
	// MergeKeep keeps the existing value silently.
	MergeKeep
	// MergeOverwrite replaces the existing value.
	MergeOverwrite
	// MergeAppend appends primitive tokens and replaces mixed kinds. It is
	// the policy of Add with merge enabled.
	MergeAppend
)

func (p MergePolicy) String() string {
	switch p {
	case MergeWarn:
		return "warn"
	case MergeKeep:
		return "keep"
	case MergeOverwrite:
		return "overwrite"
	case MergeAppend:
		return "append"
	default:
		return fmt.Sprintf("MergePolicy(%d)", int(p))
	}
}

// ParseMergePolicy converts a policy name.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch s {
	case "warn", "":
		return MergeWarn, nil
	case "keep":
		return MergeKeep, nil
	case "overwrite":
		return MergeOverwrite, nil
	case "append":
		return MergeAppend, nil
	}
	return 0, fmt.Errorf("unknown merge policy %q", s)
}

// conflictFunc resolves a clash between existing (stored in d) and incoming.
// incoming is owned by the caller and may be stored. It reports whether d
// changed.
type conflictFunc func(d *Dictionary, existing, incoming *Entry) bool

func (p MergePolicy) conflict() conflictFunc {
	switch p {
	case MergeKeep:
		return keepExisting
	case MergeOverwrite:
		return overwriteExisting
	case MergeAppend:
		return appendExisting
	default:
		return warnKeepExisting
	}
}

func keepExisting(*Dictionary, *Entry, *Entry) bool { return false }

func warnKeepExisting(d *Dictionary, existing, incoming *Entry) bool {
	if !existing.Equal(incoming) {
		slog.Warn("dictionary merge: keyword already defined, keeping existing value",
			"scope", d.name,
			"keyword", existing.keyword.Name,
			"line", existing.line,
			"ignored", incoming.Value())
	}
	return false
}

func overwriteExisting(d *Dictionary, existing, incoming *Entry) bool {
	if existing.Equal(incoming) {
		return false
	}
	return d.replace(existing, incoming)
}

func appendExisting(d *Dictionary, existing, incoming *Entry) bool {
	if existing.IsStream() && incoming.IsStream() {
		if len(incoming.stream) == 0 {
			return false
		}
		existing.stream = append(existing.stream, incoming.stream...)
		return true
	}
	return d.replace(existing, incoming)
}

// Merge merges other into d with the warn policy: new keywords are copied
// in, matching sub-dictionaries are merged recursively and clashing values
// are kept with a warning. It reports whether d changed.
func (d *Dictionary) Merge(other *Dictionary) bool {
	return d.MergeWith(other, MergeWarn)
}

// MergeWith merges other into d, resolving clashes with policy. other is
// left untouched.
func (d *Dictionary) MergeWith(other *Dictionary, policy MergePolicy) bool {
	if other == nil || other == d {
		return false
	}
	fn := policy.conflict()
	changed := false
	for _, e := range other.entries {
		if d.mergeEntry(e, fn, false) {
			changed = true
		}
	}
	return changed
}

// mergeEntry merges a single entry into d. With consume the entry and its
// sub-entries are moved instead of copied.
func (d *Dictionary) mergeEntry(e *Entry, fn conflictFunc, consume bool) bool {
	take := func(x *Entry) *Entry {
		if consume {
			return x
		}
		return x.Clone(d)
	}

	existing, ok := d.index[e.keyword.Name]
	if !ok {
		return d.appendEntry(take(e))
	}
	if existing.IsDict() && e.IsDict() {
		changed := false
		entries := e.dict.entries
		if consume {
			entries = append([]*Entry(nil), entries...)
		}
		for _, sub := range entries {
			if existing.dict.mergeEntry(sub, fn, consume) {
				changed = true
			}
		}
		return changed
	}
	return fn(d, existing, take(e))
}
