package catalog

import (
	"strings"
	"unicode"
)

// Index is an in-memory, read-only structure over the catalog supporting
// exact case-insensitive lookup and per-entry token access for fuzzy scoring.
//
// Index is immutable after construction and therefore safe for
// unsynchronized concurrent reads.
type Index struct {
	entries []Entry
	byName  map[string]int // normalized name → entries index
	tokens  [][]string     // normalized tokens per entry, same order as entries
}

// NewIndex builds an [Index] over entries. Returns [ErrEmptyCatalog] when
// entries is empty. When two entries normalize to the same name, the first
// one wins for exact lookup.
func NewIndex(entries []Entry) (*Index, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	idx := &Index{
		entries: make([]Entry, len(entries)),
		byName:  make(map[string]int, len(entries)),
		tokens:  make([][]string, len(entries)),
	}
	copy(idx.entries, entries)

	for i, e := range idx.entries {
		norm := Normalize(e.Name)
		if _, exists := idx.byName[norm]; !exists {
			idx.byName[norm] = i
		}
		idx.tokens[i] = strings.Fields(norm)
	}
	return idx, nil
}

// Lookup returns the entry whose canonical name equals name
// case-insensitively (after normalization), and whether one was found.
func (idx *Index) Lookup(name string) (Entry, bool) {
	i, ok := idx.byName[Normalize(name)]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[i], true
}

// Len returns the number of catalog entries.
func (idx *Index) Len() int { return len(idx.entries) }

// Entries returns all catalog entries in load order. The returned slice is
// shared — callers must not modify it.
func (idx *Index) Entries() []Entry { return idx.entries }

// Names returns the canonical names of all entries in load order.
func (idx *Index) Names() []string {
	names := make([]string, len(idx.entries))
	for i, e := range idx.entries {
		names[i] = e.Name
	}
	return names
}

// Tokens returns the normalized name tokens of the i-th entry. The returned
// slice is shared — callers must not modify it.
func (idx *Index) Tokens(i int) []string { return idx.tokens[i] }

// Normalize lower-cases s, converts punctuation to spaces, and collapses
// whitespace. Both catalog names and raw mention names pass through this
// before comparison.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
