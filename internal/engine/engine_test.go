package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/pourlane/ordercore/internal/catalog"
	"github.com/pourlane/ordercore/internal/conversation"
	"github.com/pourlane/ordercore/internal/score"
	"github.com/pourlane/ordercore/pkg/types"
)

func menuIndex(t *testing.T) *catalog.Index {
	t.Helper()
	idx, err := catalog.NewIndex([]catalog.Entry{
		{ProductID: 10001, Name: "White Chocolate Mocha", BasePrice: 7.50, Category: catalog.CategoryDrink},
		{ProductID: 10002, Name: "Rainbow Rebel", BasePrice: 6.75, Category: catalog.CategoryDrink},
		{ProductID: 10003, Name: "Not So Hot", BasePrice: 3.50, Category: catalog.CategoryDrink},
		{ProductID: 10004, Name: "Golden Eagle", BasePrice: 6.25, Category: catalog.CategoryDrink},
		{ProductID: 10005, Name: "Lemon Poppy Seed Muffin Top", BasePrice: 5.50, Category: catalog.CategoryFood},
		{ProductID: 10006, Name: "Oat Milk Latte", BasePrice: 5.25, Category: catalog.CategoryDrink,
			ModifierPrices: map[string]float64{"Oat Milk": 0.75}},
	})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return idx
}

func TestEndToEndOrder(t *testing.T) {
	ctx := context.Background()
	eng := New(menuIndex(t))
	conv := eng.NewConversation(ctx)

	turns := [][]types.RawMention{
		{{Name: "white chocolate mocha", Size: types.SizeLarge, Temperature: types.TempHot,
			Modifiers: []string{"extra sweet", "soft top"}, TurnIndex: 1}},
		{{Name: "rainbow rebel", Temperature: types.TempBlended,
			Modifiers: []string{"boba"}, TurnIndex: 2}},
		{{Name: "not so hot", Size: types.SizeKids,
			Modifiers: []string{"whip"}, TurnIndex: 3}},
		{{Name: "golden eagle", Temperature: types.TempIced,
			Modifiers: []string{"oat milk"}, TurnIndex: 4}},
		{{Name: "lemon poppy seed muffin top", TurnIndex: 5}},
	}
	for _, turn := range turns {
		if err := conv.ProcessTurn(ctx, turn); err != nil {
			t.Fatalf("ProcessTurn: %v", err)
		}
	}

	rec, err := conv.Finalize(ctx)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if len(rec.Items) != 5 {
		t.Fatalf("item count = %d, want 5", len(rec.Items))
	}
	for _, item := range rec.Items {
		if item.Status != score.StatusConfirmed {
			t.Errorf("item %q status = %s, want confirmed (confidence %v)", item.Name, item.Status, item.Confidence)
		}
	}
	if rec.Subtotal != 29.50 || rec.Total != 29.50 {
		t.Errorf("subtotal/total = %v/%v, want 29.50", rec.Subtotal, rec.Total)
	}
	if len(rec.Flags) != 0 {
		t.Errorf("flags = %v, want none", rec.Flags)
	}

	// Spot-check categorized modifiers made it through.
	mocha := rec.Items[0]
	if got := mocha.Modifiers.Sweetness; got == nil || *got != "Extra Sweet" {
		t.Errorf("mocha sweetness = %v, want Extra Sweet", got)
	}
	if got := mocha.Modifiers.Toppings; len(got) != 1 || got[0] != "Soft Top" {
		t.Errorf("mocha toppings = %v, want [Soft Top]", got)
	}
	notSoHot := rec.Items[2]
	if got := notSoHot.Modifiers.Toppings; len(got) != 1 || got[0] != "Whipped Cream" {
		t.Errorf("not so hot toppings = %v, want [Whipped Cream]", got)
	}
}

func TestDuplicateItemsMergeWithSurcharge(t *testing.T) {
	ctx := context.Background()
	eng := New(menuIndex(t))
	conv := eng.NewConversation(ctx)

	for turn := 1; turn <= 2; turn++ {
		err := conv.ProcessTurn(ctx, []types.RawMention{
			{Name: "oat milk latte", Modifiers: []string{"oat milk"}, TurnIndex: turn},
		})
		if err != nil {
			t.Fatalf("ProcessTurn: %v", err)
		}
	}

	rec, err := conv.Finalize(ctx)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(rec.Items) != 1 {
		t.Fatalf("item count = %d, want 1 merged item", len(rec.Items))
	}
	item := rec.Items[0]
	if item.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", item.Quantity)
	}
	if item.Price != 6.00 {
		t.Errorf("unit price = %v, want 6.00 (5.25 + 0.75)", item.Price)
	}
	// line_total = 2 × (base + oat milk surcharge)
	if rec.Subtotal != 12.00 {
		t.Errorf("subtotal = %v, want 12.00", rec.Subtotal)
	}
}

func TestModificationTurnRefreshesItem(t *testing.T) {
	ctx := context.Background()
	eng := New(menuIndex(t))
	conv := eng.NewConversation(ctx)

	if err := conv.ProcessTurn(ctx, []types.RawMention{{Name: "golden eagle", TurnIndex: 1}}); err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	// "add oat milk, make it iced"
	err := conv.ProcessTurn(ctx, []types.RawMention{
		{Name: "that", Modifiers: []string{"oat milk"}, Temperature: types.TempIced, TurnIndex: 2},
	})
	if err != nil {
		t.Fatalf("ProcessTurn modification: %v", err)
	}

	items := conv.State().Items()
	if len(items) != 1 {
		t.Fatalf("item count = %d, want 1", len(items))
	}
	if items[0].Modifiers.Milk != "Oat Milk" {
		t.Errorf("milk = %q, want Oat Milk", items[0].Modifiers.Milk)
	}
	if items[0].Temperature != types.TempIced {
		t.Errorf("temperature = %s, want iced", items[0].Temperature)
	}
}

func TestUnmatchedItemFlowsThroughFlagged(t *testing.T) {
	ctx := context.Background()
	eng := New(menuIndex(t), WithPhoneticThreshold(0))
	conv := eng.NewConversation(ctx)

	if err := conv.ProcessTurn(ctx, []types.RawMention{{Name: "quantum flux capacitor", TurnIndex: 1}}); err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	rec, err := conv.Finalize(ctx)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if len(rec.Items) != 1 {
		t.Fatalf("item count = %d, want 1 (never drop what the customer said)", len(rec.Items))
	}
	item := rec.Items[0]
	if item.ProductID != nil || item.Price != 0 {
		t.Errorf("unmatched item = %+v, want null product and zero price", item)
	}
	if item.Status != score.StatusUncertain {
		t.Errorf("status = %s, want uncertain", item.Status)
	}
	if len(rec.Flags) != 1 {
		t.Errorf("flags = %v, want one unmatched_item flag", rec.Flags)
	}
}

func TestTurnFailureLeavesStateCommitted(t *testing.T) {
	ctx := context.Background()
	eng := New(menuIndex(t))
	conv := eng.NewConversation(ctx)

	if err := conv.ProcessTurn(ctx, []types.RawMention{
		{Name: "golden eagle", TurnIndex: 1},
		{Name: "rainbow rebel", TurnIndex: 1},
	}); err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	err := conv.ProcessTurn(ctx, []types.RawMention{{Name: "those", Modifiers: []string{"boba"}, TurnIndex: 2}})
	var ambiguous *conversation.AmbiguousReferenceError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("err = %v, want AmbiguousReferenceError", err)
	}

	rec, err := conv.Finalize(ctx)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(rec.Items) != 2 {
		t.Errorf("item count = %d, want the 2 committed items", len(rec.Items))
	}
}

func TestFailedTurnStillMatchesCommittedMentions(t *testing.T) {
	ctx := context.Background()
	eng := New(menuIndex(t))
	conv := eng.NewConversation(ctx)

	// The first mention commits before the malformed second one aborts the
	// turn; it must still be categorized and matched before Finalize.
	err := conv.ProcessTurn(ctx, []types.RawMention{
		{Name: "white chocolate mocha", Modifiers: []string{"soft top"}, TurnIndex: 1},
		{Name: "mocha", Quantity: -1, TurnIndex: 1},
	})
	var malformed *conversation.MalformedMentionError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedMentionError", err)
	}

	rec, err := conv.Finalize(ctx)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(rec.Items) != 1 {
		t.Fatalf("item count = %d, want the 1 committed item", len(rec.Items))
	}
	item := rec.Items[0]
	if item.ProductID == nil || *item.ProductID != 10001 {
		t.Errorf("product id = %v, want 10001", item.ProductID)
	}
	if item.Status != score.StatusConfirmed {
		t.Errorf("status = %s, want confirmed (confidence %v)", item.Status, item.Confidence)
	}
	if item.Price != 7.50 {
		t.Errorf("price = %v, want 7.50", item.Price)
	}
	if got := item.Modifiers.Toppings; len(got) != 1 || got[0] != "Soft Top" {
		t.Errorf("toppings = %v, want [Soft Top]", got)
	}
	if len(rec.Flags) != 0 {
		t.Errorf("flags = %v, want none", rec.Flags)
	}
}

func TestFinalizedConversationRejectsTurns(t *testing.T) {
	ctx := context.Background()
	eng := New(menuIndex(t))
	conv := eng.NewConversation(ctx)

	if _, err := conv.Finalize(ctx); err != nil {
		t.Fatalf("Finalize empty conversation: %v", err)
	}

	err := conv.ProcessTurn(ctx, []types.RawMention{{Name: "latte", TurnIndex: 1}})
	var closed *conversation.ConversationClosedError
	if !errors.As(err, &closed) {
		t.Errorf("err = %v, want ConversationClosedError", err)
	}
}
