// Package mock provides a test double for the similarity.Ranker interface.
//
// Use Ranker to return pre-canned ranked matches without a live similarity
// backend and to verify which queries and candidate sets were submitted.
package mock

import (
	"context"
	"sync"

	"github.com/pourlane/ordercore/pkg/provider/similarity"
)

// RankCall records a single invocation of Rank.
type RankCall struct {
	// Query is the query string passed to Rank.
	Query string
	// Candidates is a copy of the candidate slice passed to Rank.
	Candidates []string
}

// Ranker is a mock implementation of similarity.Ranker.
type Ranker struct {
	mu sync.Mutex

	// Matches is returned by Rank. When nil, every candidate is returned
	// with ScoreForAll in submission order.
	Matches []similarity.Match

	// ScoreForAll is the score assigned to every candidate when Matches is nil.
	ScoreForAll float64

	// Err, if non-nil, is returned as the error from Rank.
	Err error

	// Calls records every call to Rank in order.
	Calls []RankCall
}

// Ensure Ranker implements similarity.Ranker at compile time.
var _ similarity.Ranker = (*Ranker)(nil)

// Rank records the call and returns the configured matches or error.
func (r *Ranker) Rank(_ context.Context, query string, candidates []string) ([]similarity.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := make([]string, len(candidates))
	copy(cp, candidates)
	r.Calls = append(r.Calls, RankCall{Query: query, Candidates: cp})

	if r.Err != nil {
		return nil, r.Err
	}
	if r.Matches != nil {
		return r.Matches, nil
	}
	matches := make([]similarity.Match, len(candidates))
	for i, c := range candidates {
		matches[i] = similarity.Match{Name: c, Score: r.ScoreForAll}
	}
	return matches, nil
}
