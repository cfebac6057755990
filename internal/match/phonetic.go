package match

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// phoneticMatch finds the catalog name most phonetically similar to rawName.
//
// The algorithm proceeds in two stages:
//
//  1. Phonetic candidate filtering: Double Metaphone codes are computed for
//     each token of the raw name and each token of every catalog name. A
//     catalog name becomes a candidate when any code overlaps.
//
//  2. Jaro-Winkler ranking: among phonetic candidates, the name with the
//     highest Jaro-Winkler similarity (case-insensitive, best of full-string,
//     concatenated, and pairwise-token comparison) is selected, provided its
//     score meets threshold.
//
// This recovers misheard product names ("golden ego" → "Golden Eagle") that
// neither exact lookup nor token containment can resolve.
func phoneticMatch(rawName string, names []string, threshold float64) (string, float64, bool) {
	rawLower := strings.ToLower(strings.TrimSpace(rawName))
	if rawLower == "" || len(names) == 0 {
		return "", 0, false
	}
	rawTokens := strings.Fields(rawLower)
	rawCodes := codesForTokens(rawTokens)

	var (
		bestName  string
		bestScore float64
	)
	for _, name := range names {
		nameLower := strings.ToLower(strings.TrimSpace(name))
		if nameLower == "" {
			continue
		}
		nameTokens := strings.Fields(nameLower)

		if !codesOverlap(rawCodes, codesForTokens(nameTokens)) {
			continue
		}

		score := bestJWScore(rawTokens, nameTokens, rawLower, nameLower)
		if score >= threshold && score > bestScore {
			bestName = name
			bestScore = score
		}
	}

	if bestName == "" {
		return "", 0, false
	}
	return bestName, bestScore, true
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens. Empty codes (produced when a token is too short or contains
// no consonants) are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap returns true if the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	// Iterate over the smaller set for efficiency.
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore computes the highest Jaro-Winkler similarity between the raw
// name and a catalog name using three strategies:
//
//  1. Full-string comparison ("golden ego" vs "golden eagle").
//  2. Space-stripped comparison ("goldenego" vs "goldeneagle").
//  3. Best pairwise token comparison — the maximum JW score between any raw
//     token and any catalog-name token.
func bestJWScore(rawTokens, nameTokens []string, rawFull, nameFull string) float64 {
	// Strategy 1: full strings.
	score := matchr.JaroWinkler(rawFull, nameFull, false)

	// Strategy 2: concatenated (no spaces).
	if len(rawTokens) > 1 || len(nameTokens) > 1 {
		concat1 := strings.Join(rawTokens, "")
		concat2 := strings.Join(nameTokens, "")
		if s := matchr.JaroWinkler(concat1, concat2, false); s > score {
			score = s
		}
	}

	// Strategy 3: best pairwise token score.
	for _, rt := range rawTokens {
		for _, nt := range nameTokens {
			if s := matchr.JaroWinkler(rt, nt, false); s > score {
				score = s
			}
		}
	}

	return score
}
