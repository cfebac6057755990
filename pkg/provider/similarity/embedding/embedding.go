// Package embedding implements [similarity.Ranker] by embedding the query and
// candidates with an [embeddings.Provider] and ranking by cosine similarity.
//
// Candidate vectors are computed once per candidate string and cached, since
// the catalog's canonical names are fixed for the lifetime of the process.
// Scores are mapped from cosine similarity [-1,1] into [0,1].
package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/pourlane/ordercore/pkg/provider/embeddings"
	"github.com/pourlane/ordercore/pkg/provider/similarity"
)

// Ensure Ranker implements the similarity.Ranker interface at compile time.
var _ similarity.Ranker = (*Ranker)(nil)

// Ranker ranks candidates by cosine similarity of embedding vectors.
// All methods are safe for concurrent use.
type Ranker struct {
	provider embeddings.Provider

	mu    sync.RWMutex
	cache map[string][]float32 // candidate text → embedding
}

// New creates a [Ranker] backed by provider.
func New(provider embeddings.Provider) (*Ranker, error) {
	if provider == nil {
		return nil, fmt.Errorf("embedding: provider must not be nil")
	}
	return &Ranker{
		provider: provider,
		cache:    make(map[string][]float32),
	}, nil
}

// Warm pre-embeds candidates in a single batch call so that later Rank calls
// hit the cache. Optional — Rank embeds uncached candidates on demand.
func (r *Ranker) Warm(ctx context.Context, candidates []string) error {
	missing := r.uncached(candidates)
	if len(missing) == 0 {
		return nil
	}

	vecs, err := r.provider.EmbedBatch(ctx, missing)
	if err != nil {
		return fmt.Errorf("embedding: warm candidates: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, text := range missing {
		r.cache[text] = vecs[i]
	}
	return nil
}

// Rank implements [similarity.Ranker].
func (r *Ranker) Rank(ctx context.Context, query string, candidates []string) ([]similarity.Match, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	if err := r.Warm(ctx, candidates); err != nil {
		return nil, err
	}

	queryVec, err := r.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding: embed query: %w", err)
	}

	r.mu.RLock()
	matches := make([]similarity.Match, len(candidates))
	for i, c := range candidates {
		matches[i] = similarity.Match{
			Name:  c,
			Score: scoreFromCosine(cosine(queryVec, r.cache[c])),
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

// uncached returns the subset of candidates with no cached embedding.
func (r *Ranker) uncached(candidates []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string
	for _, c := range candidates {
		if _, ok := r.cache[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// cosine computes the cosine similarity between a and b. Mismatched or zero
// vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// scoreFromCosine maps cosine similarity [-1,1] into the [0,1] score space
// required by [similarity.Ranker].
func scoreFromCosine(c float64) float64 {
	s := (c + 1) / 2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
