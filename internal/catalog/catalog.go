// Package catalog provides the read-only product catalog for Ordercore: the
// entry schema, an in-memory index supporting exact and token-based lookup,
// and a YAML loader for catalog files.
//
// The catalog is loaded once at startup and never mutated afterwards, so the
// [Index] is safe for unsynchronized concurrent reads across conversations.
package catalog

import "errors"

// ErrEmptyCatalog is returned by NewIndex when no entries are supplied.
var ErrEmptyCatalog = errors.New("catalog contains no entries")

// Category classifies a catalog entry as a drink or a food item. The matcher
// uses it to break ties: size or temperature hints on a mention imply a drink.
type Category string

const (
	// CategoryDrink marks espresso drinks, rebels, teas, and the like.
	CategoryDrink Category = "drink"

	// CategoryFood marks muffins, pastries, and other non-drink items.
	CategoryFood Category = "food"
)

// IsValid reports whether c is a recognised catalog category.
func (c Category) IsValid() bool {
	return c == CategoryDrink || c == CategoryFood
}

// Entry is one product in the catalog. Entries are immutable for the
// lifetime of the process.
type Entry struct {
	// ProductID is the POS product identifier.
	ProductID int64 `yaml:"product_id"`

	// Name is the canonical menu name (e.g., "Golden Eagle").
	Name string `yaml:"name"`

	// BasePrice is the unmodified unit price in the store currency.
	BasePrice float64 `yaml:"base_price"`

	// Category classifies the entry as drink or food.
	Category Category `yaml:"category"`

	// ModifierPrices maps canonical modifier values (taxonomy spelling,
	// e.g., "Oat Milk") to their surcharge. Modifiers absent from the map
	// carry no surcharge.
	ModifierPrices map[string]float64 `yaml:"modifier_prices,omitempty"`
}
