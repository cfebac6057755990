package conversation

import "fmt"

// UnresolvedReferenceError reports a pronoun or ordinal reference that has no
// resolvable target, e.g. "make that oat milk" before any item was ordered or
// "the third one" in a two-item order.
type UnresolvedReferenceError struct {
	// Reference is the phrase that failed to resolve.
	Reference string
	// Ordinal is the 1-indexed position requested, or 0 for pronoun
	// references.
	Ordinal int
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Ordinal > 0 {
		return fmt.Sprintf("conversation: reference %q resolves to position %d but the order has no such item", e.Reference, e.Ordinal)
	}
	return fmt.Sprintf("conversation: reference %q has no target item", e.Reference)
}

// AmbiguousReferenceError reports a plural reference ("those", "them") that
// matches more than one candidate item. The engine surfaces the ambiguity to
// the caller rather than guessing.
type AmbiguousReferenceError struct {
	// Reference is the ambiguous phrase.
	Reference string
	// Candidates holds the raw names of every item the reference could mean.
	Candidates []string
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("conversation: reference %q is ambiguous between %d items", e.Reference, len(e.Candidates))
}

// ConversationClosedError reports a turn that arrived after Finalize.
type ConversationClosedError struct{}

func (e *ConversationClosedError) Error() string {
	return "conversation: already finalized, no further turns accepted"
}

// MalformedMentionError reports a raw mention that violates the required
// shape, e.g. a negative quantity. The offending turn is rejected; prior
// turns remain committed.
type MalformedMentionError struct {
	Reason string
}

func (e *MalformedMentionError) Error() string {
	return fmt.Sprintf("conversation: malformed mention: %s", e.Reason)
}
