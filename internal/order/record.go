package order

import (
	"strings"

	"github.com/pourlane/ordercore/internal/score"
	"github.com/pourlane/ordercore/internal/taxonomy"
)

// Record is the final assembled order. Immutable once assembled.
type Record struct {
	Items    []RecordItem `json:"items"`
	Subtotal float64      `json:"subtotal"`
	Total    float64      `json:"total"`
	Flags    []string     `json:"flags"`
}

// RecordItem is the display shape of one finalized order item.
type RecordItem struct {
	// ID is the item's conversation-local identifier.
	ID string `json:"id"`

	// Name is the catalog canonical name, or a title-cased rendering of
	// the raw name when the item never resolved.
	Name string `json:"name"`

	// ProductID is the resolved catalog product, null when unresolved.
	ProductID *int64 `json:"product_id"`

	Size        *string `json:"size"`
	Temperature *string `json:"temperature"`
	Quantity    int     `json:"quantity"`

	// Price is the per-unit price: base price plus modifier surcharges.
	// Zero for unresolved items.
	Price float64 `json:"price"`

	// Confidence is the composite confidence, rounded to two decimals.
	Confidence float64 `json:"confidence"`

	Status score.Status `json:"status"`

	Modifiers RecordModifiers `json:"modifiers"`

	// SpecialInstructions joins every unmapped modifier phrase.
	SpecialInstructions string `json:"special_instructions"`

	// ModifierPrices itemizes the surcharges included in Price.
	ModifierPrices []ModifierPrice `json:"modifier_prices"`
}

// RecordModifiers is the JSON form of [taxonomy.Modifiers]: nine fixed keys,
// arrays for the multi-valued categories and nullable strings for the
// single-valued ones.
type RecordModifiers struct {
	Toppings         []string `json:"toppings"`
	Drizzles         []string `json:"drizzles"`
	Sprinkles        []string `json:"sprinkles"`
	Milk             *string  `json:"milk"`
	IceLevel         *string  `json:"ice_level"`
	Sweetness        *string  `json:"sweetness"`
	LiquidSweetener  []string `json:"liquid_sweetener"`
	SweetenerPackets []string `json:"sweetener_packets"`
	Espresso         []string `json:"espresso"`
}

// ModifierPrice is one priced modifier line.
type ModifierPrice struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// recordModifiers converts categorized modifiers into their JSON shape,
// materialising empty arrays so the nine keys always serialize.
func recordModifiers(m taxonomy.Modifiers) RecordModifiers {
	return RecordModifiers{
		Toppings:         orEmpty(m.Toppings),
		Drizzles:         orEmpty(m.Drizzles),
		Sprinkles:        orEmpty(m.Sprinkles),
		Milk:             orNull(m.Milk),
		IceLevel:         orNull(m.IceLevel),
		Sweetness:        orNull(m.Sweetness),
		LiquidSweetener:  orEmpty(m.LiquidSweetener),
		SweetenerPackets: orEmpty(m.SweetenerPackets),
		Espresso:         orEmpty(m.Espresso),
	}
}

func orEmpty(vals []string) []string {
	if vals == nil {
		return []string{}
	}
	return vals
}

func orNull(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// displayName title-cases a raw name for items that never resolved to a
// catalog entry, so the register still shows something readable.
func displayName(raw string) string {
	words := strings.Fields(strings.ToLower(raw))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
