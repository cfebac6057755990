package conversation

import "strings"

// referenceKind distinguishes how a reference phrase selects its target.
type referenceKind int

const (
	refNone     referenceKind = iota // not a reference; the name is a new item
	refSingular                      // "that", "it", "this" → last item
	refPlural                        // "those", "them" → plural-eligible item
	refOrdinal                       // "the second one" → item by position
)

// reference is the parsed form of a reference phrase.
type reference struct {
	kind referenceKind
	// ordinal is the 1-indexed position for refOrdinal, 0 otherwise.
	ordinal int
	// quantity is a spoken quantity embedded in the phrase ("make that
	// three"), 0 when absent.
	quantity int
}

var singularPronouns = map[string]bool{
	"that": true,
	"it":   true,
	"this": true,
}

var pluralPronouns = map[string]bool{
	"those": true,
	"them":  true,
}

var ordinalWords = map[string]int{
	"first":   1,
	"second":  2,
	"third":   3,
	"fourth":  4,
	"fifth":   5,
	"sixth":   6,
	"seventh": 7,
	"eighth":  8,
	"ninth":   9,
	"tenth":   10,
}

var numberWords = map[string]int{
	"one":       1,
	"two":       2,
	"three":     3,
	"four":      4,
	"five":      5,
	"six":       6,
	"seven":     7,
	"eight":     8,
	"nine":      9,
	"ten":       10,
	"eleven":    11,
	"twelve":    12,
	"thirteen":  13,
	"fourteen":  14,
	"fifteen":   15,
	"sixteen":   16,
	"seventeen": 17,
	"eighteen":  18,
	"nineteen":  19,
	"twenty":    20,
}

// fillerWords are tokens that carry no referential meaning and are skipped
// during parsing ("make that three" → that + three).
var fillerWords = map[string]bool{
	"make":   true,
	"the":    true,
	"a":      true,
	"an":     true,
	"of":     true,
	"to":     true,
	"please": true,
	"ones":   true,
	"one":    true, // only filler next to an ordinal: "the second one"
	"change": true,
	"add":    true,
}

// parseReference classifies a mention name as a reference phrase or a new
// item name.
//
// An empty name is always a singular reference: the extraction collaborator
// emits nameless records for bare modifier phrases ("add soft top"), which
// apply to the most recent item. A non-empty name is a reference only when,
// after dropping filler words, every remaining token is a pronoun, an
// ordinal, or a spoken number — any other token means the customer named a
// product and the mention is a new item.
func parseReference(name string) reference {
	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	if len(tokens) == 0 {
		return reference{kind: refSingular}
	}

	ref := reference{kind: refNone}
	sawReferent := false
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,!?;:'\"")
		switch {
		case ordinalWords[tok] > 0:
			ref.kind = refOrdinal
			ref.ordinal = ordinalWords[tok]
			sawReferent = true
		case singularPronouns[tok]:
			if ref.kind == refNone {
				ref.kind = refSingular
			}
			sawReferent = true
		case pluralPronouns[tok]:
			if ref.kind == refNone {
				ref.kind = refPlural
			}
			sawReferent = true
		case numberWords[tok] > 0 && ref.kind != refOrdinal:
			// "make that three": the number is a quantity, not part of
			// the product name. "one" directly after an ordinal is
			// handled by the filler list via the ordinal branch above.
			if tok != "one" {
				ref.quantity = numberWords[tok]
			}
		case fillerWords[tok]:
			// skip
		default:
			// A real word: this is a product name, not a reference.
			return reference{kind: refNone}
		}
	}

	if !sawReferent && ref.quantity == 0 {
		return reference{kind: refNone}
	}
	if !sawReferent {
		// "two of those" strips to a bare number only when the pronoun was
		// dropped upstream; treat it as a singular reference carrying a
		// quantity.
		ref.kind = refSingular
	}
	return ref
}
