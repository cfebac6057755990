package resilience

import (
	"context"

	"github.com/pourlane/ordercore/pkg/provider/extract"
	"github.com/pourlane/ordercore/pkg/types"
)

// ExtractFallback implements [extract.Provider] with automatic failover across
// multiple extraction backends. Each backend has its own circuit breaker; when
// the primary fails or its breaker is open, the next healthy fallback is tried.
//
// Even with no fallbacks registered the wrapper is useful: the primary's
// circuit breaker sheds load from a backend that is consistently failing
// instead of paying a full request timeout on every turn.
type ExtractFallback struct {
	group *FallbackGroup[extract.Provider]
}

// Compile-time interface assertion.
var _ extract.Provider = (*ExtractFallback)(nil)

// NewExtractFallback creates an [ExtractFallback] with primary as the
// preferred backend.
func NewExtractFallback(primary extract.Provider, primaryName string, cfg FallbackConfig) *ExtractFallback {
	return &ExtractFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional extraction provider as a fallback.
func (f *ExtractFallback) AddFallback(name string, provider extract.Provider) {
	f.group.AddFallback(name, provider)
}

// Extract sends the transcript to the first healthy provider and returns its
// mentions. If the primary fails, subsequent fallbacks are tried in order.
func (f *ExtractFallback) Extract(ctx context.Context, transcript string, turnIndex int) ([]types.RawMention, error) {
	return ExecuteWithResult(f.group, func(p extract.Provider) ([]types.RawMention, error) {
		return p.Extract(ctx, transcript, turnIndex)
	})
}
