// Package order assembles finalized conversation items into a priced,
// deduplicated order record ready for the register.
//
// Two items are duplicates when they resolved to the same catalog product
// with an identical categorized-modifier set; duplicates merge by summing
// quantity, keeping the first item's id and the highest confidence observed.
// Items that never resolved are kept, priced at zero, and flagged — the
// customer said them, so they must appear on the order.
package order

import (
	"fmt"
	"math"
	"strings"

	"github.com/pourlane/ordercore/internal/conversation"
)

// Assembler builds [Record] values out of conversation items. It is
// stateless and safe for concurrent use.
type Assembler struct{}

// NewAssembler returns an [Assembler].
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble deduplicates, prices, and converts items into the final [Record].
// Item order follows first mention; merged duplicates occupy the position of
// their first occurrence.
func (a *Assembler) Assemble(items []*conversation.Item) Record {
	merged := mergeDuplicates(items)

	rec := Record{
		Items: make([]RecordItem, 0, len(merged)),
		Flags: []string{},
	}

	for _, it := range merged {
		ri := RecordItem{
			ID:                  it.LocalID,
			Quantity:            it.Quantity,
			Confidence:          round2(it.CompositeConfidence),
			Status:              it.Status,
			Modifiers:           recordModifiers(it.Modifiers),
			SpecialInstructions: strings.Join(it.SpecialInstructions, "; "),
			ModifierPrices:      []ModifierPrice{},
		}
		if it.Size != "" {
			ri.Size = orNull(string(it.Size))
		}
		if it.Temperature != "" {
			ri.Temperature = orNull(string(it.Temperature))
		}

		if it.Product == nil {
			ri.Name = displayName(it.RawName)
			rec.Flags = append(rec.Flags, fmt.Sprintf("unmatched_item:%s", it.LocalID))
		} else {
			ri.Name = it.Product.Name
			id := it.Product.ProductID
			ri.ProductID = &id

			price := it.Product.BasePrice
			for _, val := range it.Modifiers.Values() {
				surcharge, ok := it.Product.ModifierPrices[val]
				if !ok {
					continue
				}
				price += surcharge
				ri.ModifierPrices = append(ri.ModifierPrices, ModifierPrice{Name: val, Price: surcharge})
			}
			ri.Price = round2(price)
			rec.Subtotal += price * float64(it.Quantity)
		}

		rec.Items = append(rec.Items, ri)
	}

	rec.Subtotal = round2(rec.Subtotal)
	rec.Total = rec.Subtotal
	return rec
}

// mergeDuplicates collapses items sharing a resolved product and an
// identical modifier set. Unresolved items never merge.
func mergeDuplicates(items []*conversation.Item) []*conversation.Item {
	var out []*conversation.Item
	for _, it := range items {
		target := findDuplicate(out, it)
		if target == nil {
			// Copy so merging never mutates conversation state.
			clone := *it
			out = append(out, &clone)
			continue
		}
		target.Quantity += it.Quantity
		if it.CompositeConfidence > target.CompositeConfidence {
			target.CompositeConfidence = it.CompositeConfidence
			target.Status = it.Status
		}
	}
	return out
}

// findDuplicate returns the already-collected item it duplicates, or nil.
func findDuplicate(collected []*conversation.Item, it *conversation.Item) *conversation.Item {
	if it.Product == nil {
		return nil
	}
	for _, prev := range collected {
		if prev.Product == nil || prev.Product.ProductID != it.Product.ProductID {
			continue
		}
		if prev.Size != it.Size || prev.Temperature != it.Temperature {
			continue
		}
		if prev.Modifiers.Equal(it.Modifiers) {
			return prev
		}
	}
	return nil
}

// round2 rounds to two decimal places for money and confidence display.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
