// Package taxonomy defines the fixed modifier taxonomy for Ordercore and the
// categorizer that maps free-text modifier phrases onto it.
//
// The taxonomy is a closed set of nine categories. Six categories hold a set
// of values (toppings, drizzles, sprinkles, liquid sweeteners, sweetener
// packets, espresso); three hold at most one value (milk, ice level,
// sweetness), where a later mention overwrites an earlier one.
//
// Phrases that cannot be placed into exactly one category are never dropped or
// guessed — they are returned to the caller verbatim so they can be recorded
// as special instructions on the order item.
package taxonomy

// Category identifies one of the nine modifier categories.
type Category string

const (
	CategoryToppings         Category = "toppings"
	CategoryDrizzles         Category = "drizzles"
	CategorySprinkles        Category = "sprinkles"
	CategoryMilk             Category = "milk"
	CategoryIceLevel         Category = "ice_level"
	CategorySweetness        Category = "sweetness"
	CategoryLiquidSweetener  Category = "liquid_sweetener"
	CategorySweetenerPackets Category = "sweetener_packets"
	CategoryEspresso         Category = "espresso"
)

// Categories returns all nine categories in their canonical display order.
func Categories() []Category {
	return []Category{
		CategoryToppings,
		CategoryDrizzles,
		CategorySprinkles,
		CategoryMilk,
		CategoryIceLevel,
		CategorySweetness,
		CategoryLiquidSweetener,
		CategorySweetenerPackets,
		CategoryEspresso,
	}
}

// IsValid reports whether c is a recognised category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryToppings, CategoryDrizzles, CategorySprinkles, CategoryMilk,
		CategoryIceLevel, CategorySweetness, CategoryLiquidSweetener,
		CategorySweetenerPackets, CategoryEspresso:
		return true
	}
	return false
}

// MultiValued reports whether c accumulates multiple values. The milk, ice
// level, and sweetness categories hold at most one value; a later mention of
// the same category overwrites the earlier value.
func (c Category) MultiValued() bool {
	switch c {
	case CategoryMilk, CategoryIceLevel, CategorySweetness:
		return false
	}
	return true
}

// Entry maps a canonical modifier value to the category it belongs to and the
// spoken phrases that select it.
type Entry struct {
	// Category is the taxonomy category this value belongs to.
	Category Category `yaml:"category"`

	// Canonical is the normalized display value (e.g., "Soft Top").
	// The canonical value itself always matches, case-insensitively.
	Canonical string `yaml:"canonical"`

	// Phrases lists additional spoken forms that select this value
	// (e.g., "whip" for "Whipped Cream"). May be empty.
	Phrases []string `yaml:"phrases,omitempty"`
}

// Modifiers is the categorized form of an item's modifier list. Multi-valued
// categories keep values in first-mention order with duplicates removed;
// single-valued categories hold the last value mentioned, or "" when unset.
type Modifiers struct {
	Toppings         []string
	Drizzles         []string
	Sprinkles        []string
	Milk             string
	IceLevel         string
	Sweetness        string
	LiquidSweetener  []string
	SweetenerPackets []string
	Espresso         []string
}

// Apply records value under category, honouring the category's arity:
// multi-valued categories append (skipping duplicates), single-valued
// categories overwrite.
func (m *Modifiers) Apply(category Category, value string) {
	switch category {
	case CategoryToppings:
		m.Toppings = appendUnique(m.Toppings, value)
	case CategoryDrizzles:
		m.Drizzles = appendUnique(m.Drizzles, value)
	case CategorySprinkles:
		m.Sprinkles = appendUnique(m.Sprinkles, value)
	case CategoryMilk:
		m.Milk = value
	case CategoryIceLevel:
		m.IceLevel = value
	case CategorySweetness:
		m.Sweetness = value
	case CategoryLiquidSweetener:
		m.LiquidSweetener = appendUnique(m.LiquidSweetener, value)
	case CategorySweetenerPackets:
		m.SweetenerPackets = appendUnique(m.SweetenerPackets, value)
	case CategoryEspresso:
		m.Espresso = appendUnique(m.Espresso, value)
	}
}

// Values returns every value present across all categories, multi-valued
// categories first in mention order, then the single-valued categories.
// Used by the assembler to price modifier surcharges.
func (m Modifiers) Values() []string {
	var out []string
	out = append(out, m.Toppings...)
	out = append(out, m.Drizzles...)
	out = append(out, m.Sprinkles...)
	if m.Milk != "" {
		out = append(out, m.Milk)
	}
	if m.IceLevel != "" {
		out = append(out, m.IceLevel)
	}
	if m.Sweetness != "" {
		out = append(out, m.Sweetness)
	}
	out = append(out, m.LiquidSweetener...)
	out = append(out, m.SweetenerPackets...)
	out = append(out, m.Espresso...)
	return out
}

// Equal reports whether m and other hold the same values per category,
// comparing multi-valued categories as sets (order-insensitive).
func (m Modifiers) Equal(other Modifiers) bool {
	return setEqual(m.Toppings, other.Toppings) &&
		setEqual(m.Drizzles, other.Drizzles) &&
		setEqual(m.Sprinkles, other.Sprinkles) &&
		m.Milk == other.Milk &&
		m.IceLevel == other.IceLevel &&
		m.Sweetness == other.Sweetness &&
		setEqual(m.LiquidSweetener, other.LiquidSweetener) &&
		setEqual(m.SweetenerPackets, other.SweetenerPackets) &&
		setEqual(m.Espresso, other.Espresso)
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}

func setEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := seen[v]; !ok {
			return false
		}
	}
	return true
}

// DefaultEntries returns the built-in taxonomy covering the menu's known
// modifier vocabulary. Deployments with custom modifiers can extend or
// replace this list via the catalog YAML file.
func DefaultEntries() []Entry {
	return []Entry{
		// Toppings.
		{Category: CategoryToppings, Canonical: "Soft Top", Phrases: []string{"soft top", "softtop"}},
		{Category: CategoryToppings, Canonical: "Whipped Cream", Phrases: []string{"whip", "whipped cream", "with whip"}},
		{Category: CategoryToppings, Canonical: "Sweet Cold Foam", Phrases: []string{"cold foam", "foam"}},

		// Drizzles.
		{Category: CategoryDrizzles, Canonical: "Caramel Drizzle", Phrases: []string{"caramel drizzle"}},
		{Category: CategoryDrizzles, Canonical: "Chocolate Drizzle", Phrases: []string{"chocolate drizzle"}},
		{Category: CategoryDrizzles, Canonical: "White Chocolate Drizzle", Phrases: []string{"white chocolate drizzle"}},

		// Sprinkles / add-ins.
		{Category: CategorySprinkles, Canonical: "Boba", Phrases: []string{"boba", "with boba"}},
		{Category: CategorySprinkles, Canonical: "Rainbow Sprinkles", Phrases: []string{"rainbow sprinkles", "sprinkles"}},

		// Milk (single-valued).
		{Category: CategoryMilk, Canonical: "Oat Milk", Phrases: []string{"oat milk", "oat"}},
		{Category: CategoryMilk, Canonical: "Almond Milk", Phrases: []string{"almond milk", "almond"}},
		{Category: CategoryMilk, Canonical: "Coconut Milk", Phrases: []string{"coconut milk", "coconut"}},
		{Category: CategoryMilk, Canonical: "2% Milk", Phrases: []string{"2% milk", "two percent milk"}},
		{Category: CategoryMilk, Canonical: "Nonfat Milk", Phrases: []string{"nonfat", "nonfat milk", "skim milk"}},
		{Category: CategoryMilk, Canonical: "Protein Milk", Phrases: []string{"protein milk"}},

		// Ice level (single-valued).
		{Category: CategoryIceLevel, Canonical: "No Ice", Phrases: []string{"no ice"}},
		{Category: CategoryIceLevel, Canonical: "Light Ice", Phrases: []string{"light ice", "easy ice"}},
		{Category: CategoryIceLevel, Canonical: "Extra Ice", Phrases: []string{"extra ice"}},

		// Sweetness (single-valued).
		{Category: CategorySweetness, Canonical: "Extra Sweet", Phrases: []string{"extra sweet"}},
		{Category: CategorySweetness, Canonical: "Half Sweet", Phrases: []string{"half sweet", "less sweet"}},

		// Liquid sweeteners.
		{Category: CategoryLiquidSweetener, Canonical: "Vanilla Syrup", Phrases: []string{"vanilla syrup", "vanilla"}},
		{Category: CategoryLiquidSweetener, Canonical: "Caramel Sauce", Phrases: []string{"caramel sauce"}},
		{Category: CategoryLiquidSweetener, Canonical: "Honey", Phrases: []string{"honey"}},

		// Sweetener packets.
		{Category: CategorySweetenerPackets, Canonical: "Sugar", Phrases: []string{"sugar", "sugar packet"}},
		{Category: CategorySweetenerPackets, Canonical: "Stevia", Phrases: []string{"stevia"}},
		{Category: CategorySweetenerPackets, Canonical: "Splenda", Phrases: []string{"splenda"}},

		// Espresso.
		{Category: CategoryEspresso, Canonical: "Extra Shot", Phrases: []string{"extra shot", "double shot", "add a shot"}},
		{Category: CategoryEspresso, Canonical: "Make it Decaf", Phrases: []string{"decaf", "make it decaf"}},
	}
}
