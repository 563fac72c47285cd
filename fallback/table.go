// Package fallback holds the synthetic data served when no provider answers.
// Every generator is total: any query, including an unknown subject, yields
// the same non-empty set each time.
package fallback

import (
	"fmt"
	"slices"
	"strings"

	"tripease/aggregator"
)

// DefaultKey names the entry served when nothing else matches.
const DefaultKey = "generic"

// KeyFunc maps a query onto a table key.
type KeyFunc func(q aggregator.Query) string

// SubjectKey is the lower-cased, trimmed subject.
func SubjectKey(q aggregator.Query) string {
	return strings.ToLower(strings.TrimSpace(q.Subject))
}

// Table is a keyed lookup with a designated default entry.
type Table[T aggregator.Record] struct {
	entries map[string][]T
	key     KeyFunc
}

// NewTable validates entries and builds a Table. The DefaultKey entry must be
// present and non-empty, and every record must be synthetic with a primary
// field set.
func NewTable[T aggregator.Record](entries map[string][]T, key KeyFunc) (*Table[T], error) {
	if len(entries[DefaultKey]) == 0 {
		return nil, fmt.Errorf("fallback table: default entry %q missing or empty", DefaultKey)
	}
	if key == nil {
		key = SubjectKey
	}
	for k, recs := range entries {
		if len(recs) == 0 {
			return nil, fmt.Errorf("fallback table: entry %q is empty", k)
		}
		for i, r := range recs {
			if strings.TrimSpace(r.Primary()) == "" {
				return nil, fmt.Errorf("fallback table: entry %q record %d has no primary field", k, i)
			}
			if r.Source() != aggregator.SourceSynthetic {
				return nil, fmt.Errorf("fallback table: entry %q record %d has source %q", k, i, r.Source())
			}
		}
	}
	return &Table[T]{entries: entries, key: key}, nil
}

// MustTable is NewTable for built-in tables; an invalid one is a programming
// error.
func MustTable[T aggregator.Record](entries map[string][]T, key KeyFunc) *Table[T] {
	t, err := NewTable(entries, key)
	if err != nil {
		panic(err)
	}
	return t
}

// Generate returns a copy of the matching entry, or of the default entry.
func (t *Table[T]) Generate(q aggregator.Query) []T {
	return slices.Clone(t.Lookup(t.key(q)))
}

// Lookup returns the entry for key without copying.
func (t *Table[T]) Lookup(key string) []T {
	if recs, ok := t.entries[key]; ok {
		return recs
	}
	return t.entries[DefaultKey]
}

// Has reports whether key has its own entry.
func (t *Table[T]) Has(key string) bool {
	_, ok := t.entries[key]
	return ok
}
