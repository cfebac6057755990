package taxonomy

import (
	"strings"
	"unicode"
)

// defaultOverlapThreshold is the minimum normalized-token-overlap ratio for
// the fuzzy fallback to accept a phrase against a taxonomy entry.
const defaultOverlapThreshold = 0.75

// Option is a functional option for configuring a [Categorizer].
type Option func(*Categorizer)

// WithOverlapThreshold sets the minimum token-overlap ratio for the fuzzy
// fallback stage. Default: 0.75.
func WithOverlapThreshold(threshold float64) Option {
	return func(c *Categorizer) {
		c.overlapThreshold = threshold
	}
}

// Categorizer maps free-text modifier phrases onto the taxonomy.
//
// Matching proceeds in two stages per phrase:
//
//  1. Case-insensitive exact phrase match against every entry's canonical
//     value and alias phrases.
//  2. Normalized-token-overlap fallback: tokens are lower-cased and stripped
//     of punctuation; the phrase matches an entry when the overlap ratio
//     (shared tokens ÷ union of tokens) against any of the entry's phrases
//     meets the threshold — but only when exactly one entry qualifies.
//     A phrase matching zero or more than one entry is returned unmapped.
//
// Categorizer is read-only after construction and safe for concurrent use.
type Categorizer struct {
	entries          []Entry
	byPhrase         map[string]int // normalized phrase → entries index
	overlapThreshold float64
}

// NewCategorizer builds a [Categorizer] over entries. Passing the result of
// [DefaultEntries] yields the built-in menu vocabulary.
func NewCategorizer(entries []Entry, opts ...Option) *Categorizer {
	c := &Categorizer{
		entries:          entries,
		byPhrase:         make(map[string]int),
		overlapThreshold: defaultOverlapThreshold,
	}
	for _, o := range opts {
		o(c)
	}

	for i, e := range entries {
		c.byPhrase[normalizePhrase(e.Canonical)] = i
		for _, p := range e.Phrases {
			c.byPhrase[normalizePhrase(p)] = i
		}
	}
	return c
}

// Categorize maps each phrase in raw onto the taxonomy and returns the
// categorized modifiers plus the phrases that could not be placed into
// exactly one category. Unmapped phrases are returned verbatim, in input
// order, so the caller can surface them as special instructions.
//
// Multi-valued categories accumulate in mention order with duplicates
// removed; single-valued categories apply last-mention-wins. Categorize is
// idempotent: re-running it over the same input yields identical output.
func (c *Categorizer) Categorize(raw []string) (Modifiers, []string) {
	var (
		mods     Modifiers
		unmapped []string
	)

	for _, phrase := range raw {
		entry, ok := c.lookup(phrase)
		if !ok {
			unmapped = append(unmapped, phrase)
			continue
		}
		mods.Apply(entry.Category, entry.Canonical)
	}
	return mods, unmapped
}

// lookup resolves a single phrase to a taxonomy entry.
func (c *Categorizer) lookup(phrase string) (Entry, bool) {
	norm := normalizePhrase(phrase)
	if norm == "" {
		return Entry{}, false
	}

	// Stage 1: exact phrase match.
	if i, ok := c.byPhrase[norm]; ok {
		return c.entries[i], true
	}

	// Stage 2: token-overlap fallback. Accept only when exactly one entry
	// clears the threshold — anything ambiguous stays unmapped.
	phraseTokens := tokenSet(norm)
	matchIdx := -1
	for i, e := range c.entries {
		if c.entryOverlaps(e, phraseTokens) {
			if matchIdx >= 0 && matchIdx != i {
				return Entry{}, false
			}
			matchIdx = i
		}
	}
	if matchIdx < 0 {
		return Entry{}, false
	}
	return c.entries[matchIdx], true
}

// entryOverlaps reports whether any of the entry's phrases clears the overlap
// threshold against tokens.
func (c *Categorizer) entryOverlaps(e Entry, tokens map[string]struct{}) bool {
	if overlapRatio(tokens, tokenSet(normalizePhrase(e.Canonical))) >= c.overlapThreshold {
		return true
	}
	for _, p := range e.Phrases {
		if overlapRatio(tokens, tokenSet(normalizePhrase(p))) >= c.overlapThreshold {
			return true
		}
	}
	return false
}

// overlapRatio computes |a ∩ b| / |a ∪ b|. Empty sets yield 0.
func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}

// normalizePhrase lower-cases a phrase, strips punctuation, and collapses
// whitespace so that "Soft-Top!" and "soft top" compare equal.
func normalizePhrase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			// Punctuation and whitespace both act as token separators so
			// "oat-milk" and "oat milk" normalize identically.
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenSet splits a normalized phrase into its set of tokens.
func tokenSet(norm string) map[string]struct{} {
	fields := strings.Fields(norm)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
