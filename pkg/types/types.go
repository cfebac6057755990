// Package types defines the shared types used across all Ordercore packages.
//
// These types form the lingua franca between the extraction collaborator, the
// conversation tracker, the catalog matcher, and the order assembler. They are
// intentionally minimal — each package defines its own domain types, but
// cross-cutting data structures live here to avoid circular imports.
package types

// Size is the drink size extracted from a mention. Food items carry no size.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
	SizeKids   Size = "kids"
)

// IsValid reports whether s is a recognised size.
func (s Size) IsValid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge, SizeKids:
		return true
	}
	return false
}

// Temperature is the drink preparation style extracted from a mention.
type Temperature string

const (
	TempHot     Temperature = "hot"
	TempIced    Temperature = "iced"
	TempBlended Temperature = "blended"
)

// IsValid reports whether t is a recognised temperature.
func (t Temperature) IsValid() bool {
	switch t {
	case TempHot, TempIced, TempBlended:
		return true
	}
	return false
}

// RawMention is one loosely-structured item mention produced by the external
// language-understanding service for a single conversation turn. It is
// immutable once received — the conversation tracker copies what it needs
// into its own state.
//
// A mention with an empty Name is never a new item; the tracker treats it as
// a modification or quantity-edit candidate against a prior item.
type RawMention struct {
	// Name is the free-text product name as the customer said it
	// (e.g., "golden eagle", "white chocolate mocha"). May be empty or a
	// pronoun phrase for modifications.
	Name string `json:"name"`

	// Modifiers holds free-text modifier phrases in mention order
	// (e.g., "soft top", "extra sweet", "oat milk").
	Modifiers []string `json:"modifiers,omitempty"`

	// Quantity is the number of units mentioned. Zero means unspecified
	// and defaults to 1 during ingestion. Negative values are malformed.
	Quantity int `json:"quantity,omitempty"`

	// Size is the extracted drink size, empty when not mentioned.
	Size Size `json:"size,omitempty"`

	// Temperature is the extracted preparation style, empty when not mentioned.
	Temperature Temperature `json:"temperature,omitempty"`

	// TurnIndex identifies the conversation turn this mention belongs to.
	// Mentions arrive in non-decreasing turn order.
	TurnIndex int `json:"turn_index"`
}
