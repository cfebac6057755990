package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/pourlane/ordercore/pkg/provider/embeddings/mock"
)

func TestRanker_RankOrdersByCosine(t *testing.T) {
	p := &mock.Provider{
		// Query vector.
		EmbedResult: []float32{1, 0},
		// Candidate vectors: first is aligned with the query, second orthogonal.
		EmbedBatchResult: [][]float32{{1, 0}, {0, 1}},
		DimensionsValue:  2,
	}
	r, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	matches, err := r.Rank(context.Background(), "golden eagle", []string{"Golden Eagle", "Muffin Top"})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0].Name != "Golden Eagle" {
		t.Errorf("top match = %q, want Golden Eagle", matches[0].Name)
	}
	if math.Abs(matches[0].Score-1.0) > 1e-9 {
		t.Errorf("aligned vector score = %v, want 1.0", matches[0].Score)
	}
	if math.Abs(matches[1].Score-0.5) > 1e-9 {
		t.Errorf("orthogonal vector score = %v, want 0.5", matches[1].Score)
	}
}

func TestRanker_CachesCandidates(t *testing.T) {
	p := &mock.Provider{
		EmbedResult:      []float32{1, 0},
		EmbedBatchResult: [][]float32{{1, 0}},
	}
	r, _ := New(p)

	ctx := context.Background()
	if _, err := r.Rank(ctx, "q", []string{"Golden Eagle"}); err != nil {
		t.Fatalf("first Rank: %v", err)
	}
	if _, err := r.Rank(ctx, "q", []string{"Golden Eagle"}); err != nil {
		t.Fatalf("second Rank: %v", err)
	}

	if got := len(p.EmbedBatchCalls); got != 1 {
		t.Errorf("EmbedBatch calls = %d, want 1 (candidates cached)", got)
	}
}

func TestRanker_ProviderError(t *testing.T) {
	p := &mock.Provider{EmbedBatchErr: errors.New("rate limited")}
	r, _ := New(p)

	_, err := r.Rank(context.Background(), "q", []string{"a"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestNew_NilProvider(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil provider")
	}
}
