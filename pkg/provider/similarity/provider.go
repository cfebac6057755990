// Package similarity defines the Ranker interface for semantic-similarity
// backends.
//
// A similarity ranker wraps a service that, given a free-text query and a set
// of candidate strings, returns the candidates ranked by semantic closeness
// with a score in [0,1]. The catalog matcher uses it as its final tier, after
// exact and token-containment matching have failed.
//
// Implementations must be safe for concurrent use.
package similarity

import "context"

// Match is one ranked candidate returned by a [Ranker].
type Match struct {
	// Name is the candidate string, verbatim as submitted.
	Name string

	// Score is the semantic similarity in [0,1]; higher is more similar.
	Score float64
}

// Ranker is the abstraction over any semantic-similarity backend.
//
// Implementations must be safe for concurrent use — the engine issues
// independent ranking calls concurrently for items within a turn.
type Ranker interface {
	// Rank scores query against every candidate and returns all candidates
	// ordered by descending score. The returned slice has the same length
	// as candidates. Returns an error if the backend call fails or ctx is
	// cancelled; callers are expected to degrade to a no-match outcome
	// rather than retry.
	Rank(ctx context.Context, query string, candidates []string) ([]Match, error)
}
