// Package conversation maintains per-conversation order state across a
// multi-turn exchange.
//
// A [State] ingests raw item mentions strictly in arrival order and keeps the
// ordered list of [Item] values the customer has built up so far. Each turn
// is classified as a new item, a modification of a prior item (resolved
// through pronouns or ordinals), or a quantity edit. Reference-resolution
// failures are surfaced as typed errors for that single turn; the rest of
// the state stays committed.
//
// A State is owned by exactly one conversation and must not be mutated by
// two turns concurrently. Distinct conversations are fully independent.
package conversation

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/pourlane/ordercore/internal/catalog"
	"github.com/pourlane/ordercore/internal/score"
	"github.com/pourlane/ordercore/internal/taxonomy"
	"github.com/pourlane/ordercore/pkg/types"
)

// maxQuantity is the sanity ceiling for a single line item. A spoken order
// above it is far more likely a transcription error than a real request.
const maxQuantity = 20

// Phase is the lifecycle state of a conversation.
type Phase string

const (
	// PhaseEmpty is the initial phase: no items ordered yet.
	PhaseEmpty Phase = "empty"
	// PhaseOpen means at least one item exists and turns are accepted.
	PhaseOpen Phase = "open"
	// PhaseFinalized is terminal: no further turns are accepted.
	PhaseFinalized Phase = "finalized"
)

// Item is the current best-known state of one ordered product within a
// conversation. It is mutated in place as later turns modify it and frozen
// when the conversation finalizes.
type Item struct {
	// LocalID uniquely identifies the item within its conversation.
	LocalID string

	// RawName is the name as the customer said it.
	RawName string

	// Product is the resolved catalog entry, nil while unresolved.
	Product *catalog.Entry

	Quantity    int
	Size        types.Size
	Temperature types.Temperature

	// RawModifiers accumulates every modifier phrase mentioned for this
	// item, in mention order, before categorization.
	RawModifiers []string

	// Modifiers is the categorized form of RawModifiers.
	Modifiers taxonomy.Modifiers

	// SpecialInstructions holds phrases the taxonomy could not map.
	SpecialInstructions []string

	// Turn is the turn index on which the item was first ordered.
	Turn int

	MatchConfidence     float64
	CompositeConfidence float64
	Status              score.Status
}

// State tracks one conversation's ordered items and lifecycle phase.
// The zero value is an empty, open-for-business conversation.
type State struct {
	phase     Phase
	items     []*Item
	turnCount int
}

// New returns an empty conversation [State].
func New() *State {
	return &State{phase: PhaseEmpty}
}

// Phase returns the current lifecycle phase.
func (s *State) Phase() Phase {
	if s.phase == "" {
		return PhaseEmpty
	}
	return s.phase
}

// Items returns the ordered item list. Callers may mutate the items (the
// engine fills in match and confidence fields) but must not reorder or
// remove entries.
func (s *State) Items() []*Item { return s.items }

// TurnCount returns the number of successfully ingested turns.
func (s *State) TurnCount() int { return s.turnCount }

// Ingest processes one raw mention and mutates the conversation state.
// It returns the item the turn created or modified.
//
// Failures are typed: [*ConversationClosedError] after finalization,
// [*MalformedMentionError] for invalid shapes, [*UnresolvedReferenceError]
// and [*AmbiguousReferenceError] for reference failures. A failed turn
// leaves the state exactly as it was.
func (s *State) Ingest(m types.RawMention) (*Item, error) {
	if s.Phase() == PhaseFinalized {
		return nil, &ConversationClosedError{}
	}
	if m.Quantity < 0 {
		return nil, &MalformedMentionError{Reason: fmt.Sprintf("quantity %d is negative", m.Quantity)}
	}
	if m.Quantity > maxQuantity {
		return nil, &MalformedMentionError{Reason: fmt.Sprintf("quantity %d exceeds the per-item limit of %d", m.Quantity, maxQuantity)}
	}
	if m.Size != "" && !m.Size.IsValid() {
		return nil, &MalformedMentionError{Reason: fmt.Sprintf("unknown size %q", m.Size)}
	}
	if m.Temperature != "" && !m.Temperature.IsValid() {
		return nil, &MalformedMentionError{Reason: fmt.Sprintf("unknown temperature %q", m.Temperature)}
	}

	ref := parseReference(m.Name)
	if ref.kind == refNone {
		return s.appendItem(m)
	}
	return s.applyReference(m, ref)
}

// Finalize freezes the conversation. Finalizing an already-finalized
// conversation fails with [*ConversationClosedError]; finalizing an empty
// one succeeds and yields an empty order.
func (s *State) Finalize() error {
	if s.Phase() == PhaseFinalized {
		return &ConversationClosedError{}
	}
	s.phase = PhaseFinalized
	return nil
}

// appendItem adds a new item for an explicitly named product.
func (s *State) appendItem(m types.RawMention) (*Item, error) {
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("conversation: generate item id: %w", err)
	}

	qty := m.Quantity
	if qty == 0 {
		qty = 1
	}

	item := &Item{
		LocalID:      id,
		RawName:      m.Name,
		Quantity:     qty,
		Size:         m.Size,
		Temperature:  m.Temperature,
		RawModifiers: append([]string(nil), m.Modifiers...),
		Turn:         m.TurnIndex,
	}
	s.items = append(s.items, item)
	s.phase = PhaseOpen
	s.turnCount++
	return item, nil
}

// applyReference resolves a reference turn against the existing item list
// and applies its modifiers, size, temperature, and quantity to the target.
func (s *State) applyReference(m types.RawMention, ref reference) (*Item, error) {
	if len(s.items) == 0 {
		return nil, &UnresolvedReferenceError{Reference: m.Name, Ordinal: ref.ordinal}
	}

	target, err := s.resolveTarget(m.Name, ref)
	if err != nil {
		return nil, err
	}

	qty := m.Quantity
	if qty == 0 {
		qty = ref.quantity
	}
	if qty > maxQuantity {
		return nil, &MalformedMentionError{Reason: fmt.Sprintf("quantity %d exceeds the per-item limit of %d", qty, maxQuantity)}
	}
	if len(m.Modifiers) == 0 && qty == 0 && m.Size == "" && m.Temperature == "" {
		return nil, &MalformedMentionError{Reason: fmt.Sprintf("reference %q carries no modification", m.Name)}
	}

	// All checks passed: commit the mutation.
	target.RawModifiers = append(target.RawModifiers, m.Modifiers...)
	if m.Size != "" {
		target.Size = m.Size
	}
	if m.Temperature != "" {
		target.Temperature = m.Temperature
	}
	if qty > 0 {
		target.Quantity = qty
	}
	s.turnCount++
	return target, nil
}

// resolveTarget selects the item a reference points at.
//
// Ordinals select by 1-indexed position from the start of the order.
// Singular pronouns select the most recently added item. Plural pronouns
// select the single item added on the most recent prior turn; if that turn
// added several items the reference is ambiguous and is surfaced rather
// than guessed.
func (s *State) resolveTarget(phrase string, ref reference) (*Item, error) {
	switch ref.kind {
	case refOrdinal:
		if ref.ordinal > len(s.items) {
			return nil, &UnresolvedReferenceError{Reference: phrase, Ordinal: ref.ordinal}
		}
		return s.items[ref.ordinal-1], nil

	case refPlural:
		lastTurn := s.items[len(s.items)-1].Turn
		var candidates []*Item
		for _, it := range s.items {
			if it.Turn == lastTurn {
				candidates = append(candidates, it)
			}
		}
		if len(candidates) > 1 {
			names := make([]string, len(candidates))
			for i, it := range candidates {
				names[i] = it.RawName
			}
			return nil, &AmbiguousReferenceError{Reference: phrase, Candidates: names}
		}
		return candidates[0], nil

	default:
		return s.items[len(s.items)-1], nil
	}
}

// generateID produces a random 16-byte hex string using crypto/rand.
func generateID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
