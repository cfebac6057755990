// Package match resolves free-text item names against the product catalog,
// producing a catalog entry and a calibrated confidence score.
//
// Resolution proceeds through tiers of decreasing certainty:
//
//	exact        case-insensitive canonical-name equality     → confidence 1.0
//	containment  normalized token-subset overlap              → confidence in [0,1)
//	phonetic     Double Metaphone + Jaro-Winkler similarity   → confidence capped at 0.95
//	semantic     external similarity ranker over all names    → confidence from the ranker
//
// A semantic-ranker failure is never a hard failure: the matcher logs it and
// degrades to a no-match result so the item stays in the order, flagged for
// review, rather than being dropped.
package match

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/pourlane/ordercore/internal/catalog"
	"github.com/pourlane/ordercore/pkg/provider/similarity"
)

const (
	// defaultMinConfidence is the floor below which a candidate is
	// discarded and the matcher reports no match.
	defaultMinConfidence = 0.3

	// defaultPhoneticThreshold gates the phonetic tier's Jaro-Winkler score.
	defaultPhoneticThreshold = 0.70

	// phoneticCeiling caps phonetic-tier confidence so a phonetic guess can
	// never outrank an exact or near-exact containment match.
	phoneticCeiling = 0.95

	// containmentCeiling keeps token-set-equal names (same tokens, different
	// order) just below exact-match confidence.
	containmentCeiling = 0.99
)

// Tier identifies which resolution stage produced a match.
type Tier string

const (
	TierExact       Tier = "exact"
	TierContainment Tier = "containment"
	TierPhonetic    Tier = "phonetic"
	TierSemantic    Tier = "semantic"
	TierNone        Tier = "none"
)

// Hint carries structural signals already present on the mention that help
// break ties between equally-scored candidates: a size or temperature
// implies the customer is ordering a drink.
type Hint struct {
	HasSize        bool
	HasTemperature bool
}

// impliesDrink reports whether the hint suggests a drink item.
func (h Hint) impliesDrink() bool { return h.HasSize || h.HasTemperature }

// Result is the outcome of one name resolution.
type Result struct {
	// Entry is the resolved catalog entry, or nil when no candidate cleared
	// the minimum confidence.
	Entry *catalog.Entry

	// Confidence is the match confidence in [0,1]; 0.0 when Entry is nil.
	Confidence float64

	// Tier names the stage that produced the match ([TierNone] on no match).
	Tier Tier
}

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithMinConfidence sets the minimum confidence below which the matcher
// reports no match. Default: 0.3.
func WithMinConfidence(v float64) Option {
	return func(m *Matcher) {
		m.minConfidence = v
	}
}

// WithPhoneticThreshold sets the Jaro-Winkler threshold for the phonetic
// tier. A value of 0 disables the tier entirely. Default: 0.70.
func WithPhoneticThreshold(v float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = v
	}
}

// WithRanker attaches a semantic-similarity ranker as the final resolution
// tier. When nil (the default), the semantic tier is skipped entirely.
func WithRanker(r similarity.Ranker) Option {
	return func(m *Matcher) {
		m.ranker = r
	}
}

// Matcher resolves free-text item names against a [catalog.Index].
// It is read-only after construction and safe for concurrent use; callers may
// run independent Match calls concurrently within a turn.
type Matcher struct {
	idx               *catalog.Index
	ranker            similarity.Ranker
	minConfidence     float64
	phoneticThreshold float64
}

// New returns a [Matcher] over idx configured with the supplied options.
func New(idx *catalog.Index, opts ...Option) *Matcher {
	m := &Matcher{
		idx:               idx,
		minConfidence:     defaultMinConfidence,
		phoneticThreshold: defaultPhoneticThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match resolves rawName to a catalog entry and confidence score. It never
// returns an error: external-service failures degrade to a no-match result
// and are reported upward through the zero confidence, per the engine's
// "never silently drop an item" requirement.
func (m *Matcher) Match(ctx context.Context, rawName string, hint Hint) Result {
	norm := catalog.Normalize(rawName)
	if norm == "" {
		return Result{Tier: TierNone}
	}

	// Tier 1: exact canonical-name equality.
	if entry, ok := m.idx.Lookup(norm); ok {
		return Result{Entry: &entry, Confidence: 1.0, Tier: TierExact}
	}

	// Tier 2: token containment.
	if res, ok := m.containmentMatch(norm, hint); ok {
		return res
	}

	// Tier 3: phonetic similarity.
	if m.phoneticThreshold > 0 {
		if name, score, ok := phoneticMatch(rawName, m.idx.Names(), m.phoneticThreshold); ok {
			if score > phoneticCeiling {
				score = phoneticCeiling
			}
			if score >= m.minConfidence {
				if entry, found := m.idx.Lookup(name); found {
					return Result{Entry: &entry, Confidence: score, Tier: TierPhonetic}
				}
			}
		}
	}

	// Tier 4: external semantic similarity.
	if m.ranker != nil {
		if res, ok := m.semanticMatch(ctx, rawName, hint); ok {
			return res
		}
	}

	return Result{Tier: TierNone}
}

// candidate pairs a catalog entry index with a score during tie-breaking.
type candidate struct {
	entryIdx int
	score    float64
}

// containmentMatch scores every catalog entry whose normalized tokens are a
// subset of the raw name's tokens, or vice versa. The score is the token
// overlap ratio (shared ÷ union).
func (m *Matcher) containmentMatch(norm string, hint Hint) (Result, bool) {
	rawTokens := strings.Fields(norm)
	rawSet := make(map[string]struct{}, len(rawTokens))
	for _, t := range rawTokens {
		rawSet[t] = struct{}{}
	}

	var candidates []candidate
	for i := 0; i < m.idx.Len(); i++ {
		entryTokens := m.idx.Tokens(i)
		shared := 0
		for _, t := range entryTokens {
			if _, ok := rawSet[t]; ok {
				shared++
			}
		}
		// Subset in either direction.
		if shared != len(entryTokens) && shared != len(rawSet) {
			continue
		}
		if shared == 0 {
			continue
		}
		union := len(rawSet) + len(entryTokens) - shared
		score := float64(shared) / float64(union)
		if score > containmentCeiling {
			score = containmentCeiling
		}
		candidates = append(candidates, candidate{entryIdx: i, score: score})
	}

	best, ok := m.pickBest(candidates, hint)
	if !ok || best.score < m.minConfidence {
		return Result{}, false
	}
	entry := m.idx.Entries()[best.entryIdx]
	return Result{Entry: &entry, Confidence: best.score, Tier: TierContainment}, true
}

// semanticMatch queries the external similarity ranker with every catalog
// canonical name and selects the best-scoring entry. Ranker failures degrade
// to no match.
func (m *Matcher) semanticMatch(ctx context.Context, rawName string, hint Hint) (Result, bool) {
	matches, err := m.ranker.Rank(ctx, rawName, m.idx.Names())
	if err != nil {
		slog.Warn("semantic ranker failed; treating item as unmatched",
			"raw_name", rawName, "err", err)
		return Result{}, false
	}
	if len(matches) == 0 {
		return Result{}, false
	}

	// Convert to entry-indexed candidates at the top score so the shared
	// tie-break rules apply.
	topScore := matches[0].Score
	var candidates []candidate
	for _, sm := range matches {
		if sm.Score != topScore {
			break
		}
		if entry, ok := m.idx.Lookup(sm.Name); ok {
			for i, e := range m.idx.Entries() {
				if e.ProductID == entry.ProductID {
					candidates = append(candidates, candidate{entryIdx: i, score: sm.Score})
					break
				}
			}
		}
	}

	best, ok := m.pickBest(candidates, hint)
	if !ok || best.score < m.minConfidence {
		return Result{}, false
	}
	entry := m.idx.Entries()[best.entryIdx]
	return Result{Entry: &entry, Confidence: best.score, Tier: TierSemantic}, true
}

// pickBest selects the highest-scoring candidate. Ties at the top score are
// broken deterministically: prefer an entry whose category matches the hint
// (size/temperature imply drink), then the lexicographically first canonical
// name, so repeated runs over the same input reproduce the same order.
func (m *Matcher) pickBest(candidates []candidate, hint Hint) (candidate, bool) {
	if len(candidates) == 0 {
		return candidate{}, false
	}

	entries := m.idx.Entries()
	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.score != cj.score {
			return ci.score > cj.score
		}
		if hint.impliesDrink() {
			di := entries[ci.entryIdx].Category == catalog.CategoryDrink
			dj := entries[cj.entryIdx].Category == catalog.CategoryDrink
			if di != dj {
				return di
			}
		}
		return entries[ci.entryIdx].Name < entries[cj.entryIdx].Name
	})
	return candidates[0], true
}
