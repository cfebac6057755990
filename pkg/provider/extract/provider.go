// Package extract defines the Provider interface for the external
// language-understanding service that turns a conversation transcript into
// structured item mentions.
//
// The extraction model is a black box to the engine: whatever it returns is
// fed into the conversation tracker turn by turn. Implementors must be safe
// for concurrent use across conversations.
package extract

import (
	"context"

	"github.com/pourlane/ordercore/pkg/types"
)

// Provider extracts raw item mentions from one turn of conversation text.
type Provider interface {
	// Extract parses transcript (one customer turn) into zero or more raw
	// mentions tagged with turnIndex. Chitchat with no order content
	// yields an empty slice and no error.
	Extract(ctx context.Context, transcript string, turnIndex int) ([]types.RawMention, error)
}
