// Package mock provides a test double for the extract.Provider interface.
package mock

import (
	"context"

	"github.com/pourlane/ordercore/pkg/provider/extract"
	"github.com/pourlane/ordercore/pkg/types"
)

// Compile-time assertion that Provider satisfies the extract.Provider interface.
var _ extract.Provider = (*Provider)(nil)

// Call records the arguments of one Extract invocation.
type Call struct {
	Transcript string
	TurnIndex  int
}

// Provider is a configurable extract.Provider double.
type Provider struct {
	// Mentions is returned by every Extract call when Err is nil.
	Mentions []types.RawMention

	// Err, when set, is returned by Extract.
	Err error

	// Calls records every invocation in order.
	Calls []Call
}

// Extract implements [extract.Provider].
func (p *Provider) Extract(ctx context.Context, transcript string, turnIndex int) ([]types.RawMention, error) {
	p.Calls = append(p.Calls, Call{Transcript: transcript, TurnIndex: turnIndex})
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Mentions, nil
}
