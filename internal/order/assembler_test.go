package order

import (
	"encoding/json"
	"testing"

	"github.com/pourlane/ordercore/internal/catalog"
	"github.com/pourlane/ordercore/internal/conversation"
	"github.com/pourlane/ordercore/internal/score"
	"github.com/pourlane/ordercore/internal/taxonomy"
	"github.com/pourlane/ordercore/pkg/types"
)

var oatMilkLatte = catalog.Entry{
	ProductID: 20001,
	Name:      "Oat Milk Latte",
	BasePrice: 5.25,
	Category:  catalog.CategoryDrink,
	ModifierPrices: map[string]float64{
		"Oat Milk":   0.75,
		"Extra Shot": 1.00,
	},
}

func resolvedItem(id string, entry *catalog.Entry, qty int, conf float64, status score.Status) *conversation.Item {
	return &conversation.Item{
		LocalID:             id,
		RawName:             entry.Name,
		Product:             entry,
		Quantity:            qty,
		CompositeConfidence: conf,
		Status:              status,
	}
}

func TestAssemble_PricesModifierSurcharges(t *testing.T) {
	item := resolvedItem("a1", &oatMilkLatte, 1, 1.0, score.StatusConfirmed)
	item.Modifiers.Apply(taxonomy.CategoryMilk, "Oat Milk")
	item.Modifiers.Apply(taxonomy.CategoryEspresso, "Extra Shot")
	item.Modifiers.Apply(taxonomy.CategoryToppings, "Soft Top") // no surcharge on this product

	rec := NewAssembler().Assemble([]*conversation.Item{item})

	if len(rec.Items) != 1 {
		t.Fatalf("item count = %d, want 1", len(rec.Items))
	}
	got := rec.Items[0]
	if got.Price != 7.00 {
		t.Errorf("price = %v, want 7.00 (5.25 + 0.75 + 1.00)", got.Price)
	}
	if len(got.ModifierPrices) != 2 {
		t.Errorf("modifier prices = %v, want 2 entries", got.ModifierPrices)
	}
	if rec.Subtotal != 7.00 || rec.Total != 7.00 {
		t.Errorf("subtotal/total = %v/%v, want 7.00", rec.Subtotal, rec.Total)
	}
	if len(rec.Flags) != 0 {
		t.Errorf("flags = %v, want none", rec.Flags)
	}
}

func TestAssemble_MergesDuplicates(t *testing.T) {
	first := resolvedItem("a1", &oatMilkLatte, 1, 0.92, score.StatusConfirmed)
	first.Modifiers.Apply(taxonomy.CategoryMilk, "Oat Milk")
	second := resolvedItem("a2", &oatMilkLatte, 1, 0.95, score.StatusConfirmed)
	second.Modifiers.Apply(taxonomy.CategoryMilk, "Oat Milk")

	rec := NewAssembler().Assemble([]*conversation.Item{first, second})

	if len(rec.Items) != 1 {
		t.Fatalf("item count = %d, want 1 merged item", len(rec.Items))
	}
	got := rec.Items[0]
	if got.ID != "a1" {
		t.Errorf("merged id = %s, want first item's id a1", got.ID)
	}
	if got.Quantity != 2 {
		t.Errorf("merged quantity = %d, want 2", got.Quantity)
	}
	if got.Confidence != 0.95 {
		t.Errorf("merged confidence = %v, want the max 0.95", got.Confidence)
	}
	// line_total = 2 × (5.25 + 0.75)
	if rec.Subtotal != 12.00 {
		t.Errorf("subtotal = %v, want 12.00", rec.Subtotal)
	}
	// Merging must not mutate the conversation's items.
	if first.Quantity != 1 {
		t.Errorf("source item quantity mutated to %d", first.Quantity)
	}
}

func TestAssemble_DifferentModifiersDoNotMerge(t *testing.T) {
	first := resolvedItem("a1", &oatMilkLatte, 1, 1.0, score.StatusConfirmed)
	first.Modifiers.Apply(taxonomy.CategoryMilk, "Oat Milk")
	second := resolvedItem("a2", &oatMilkLatte, 1, 1.0, score.StatusConfirmed)
	second.Modifiers.Apply(taxonomy.CategoryMilk, "Whole Milk")

	rec := NewAssembler().Assemble([]*conversation.Item{first, second})
	if len(rec.Items) != 2 {
		t.Errorf("item count = %d, want 2 distinct items", len(rec.Items))
	}
}

func TestAssemble_UnmatchedItemFlaggedAndZeroPriced(t *testing.T) {
	unmatched := &conversation.Item{
		LocalID:  "u1",
		RawName:  "unicorn frappe supreme",
		Quantity: 1,
		Status:   score.StatusUncertain,
	}
	matched := resolvedItem("a1", &oatMilkLatte, 1, 1.0, score.StatusConfirmed)

	rec := NewAssembler().Assemble([]*conversation.Item{unmatched, matched})

	if len(rec.Items) != 2 {
		t.Fatalf("item count = %d, want 2", len(rec.Items))
	}
	got := rec.Items[0]
	if got.Price != 0 {
		t.Errorf("unmatched price = %v, want 0", got.Price)
	}
	if got.ProductID != nil {
		t.Errorf("unmatched product_id = %v, want null", *got.ProductID)
	}
	if got.Name != "Unicorn Frappe Supreme" {
		t.Errorf("display name = %q", got.Name)
	}
	if len(rec.Flags) != 1 || rec.Flags[0] != "unmatched_item:u1" {
		t.Errorf("flags = %v, want [unmatched_item:u1]", rec.Flags)
	}
	if rec.Subtotal != 5.25 {
		t.Errorf("subtotal = %v, want 5.25 (unmatched item contributes nothing)", rec.Subtotal)
	}
}

func TestAssemble_JSONShape(t *testing.T) {
	item := resolvedItem("a1", &oatMilkLatte, 1, 0.873, score.StatusReview)
	item.Size = types.SizeLarge
	item.SpecialInstructions = []string{"light foam", "kids cup"}

	rec := NewAssembler().Assemble([]*conversation.Item{item})
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	items := decoded["items"].([]any)
	first := items[0].(map[string]any)

	if first["size"] != "large" {
		t.Errorf("size = %v, want large", first["size"])
	}
	if first["temperature"] != nil {
		t.Errorf("temperature = %v, want null", first["temperature"])
	}
	if first["confidence"] != 0.87 {
		t.Errorf("confidence = %v, want 0.87 (rounded)", first["confidence"])
	}
	if first["special_instructions"] != "light foam; kids cup" {
		t.Errorf("special_instructions = %v", first["special_instructions"])
	}

	mods := first["modifiers"].(map[string]any)
	for _, key := range []string{"toppings", "drizzles", "sprinkles", "milk", "ice_level", "sweetness", "liquid_sweetener", "sweetener_packets", "espresso"} {
		if _, ok := mods[key]; !ok {
			t.Errorf("modifiers missing key %q", key)
		}
	}
	if toppings, ok := mods["toppings"].([]any); !ok || toppings == nil {
		t.Errorf("toppings = %v, want empty array not null", mods["toppings"])
	}
	if mods["milk"] != nil {
		t.Errorf("milk = %v, want null", mods["milk"])
	}

	if _, ok := decoded["flags"].([]any); !ok {
		t.Errorf("flags = %v, want array", decoded["flags"])
	}
}

func TestAssemble_EmptyOrder(t *testing.T) {
	rec := NewAssembler().Assemble(nil)
	if len(rec.Items) != 0 || rec.Subtotal != 0 || rec.Total != 0 {
		t.Errorf("empty order = %+v, want zeroes", rec)
	}
}
