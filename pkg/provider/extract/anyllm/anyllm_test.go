package anyllm

import (
	"testing"

	"github.com/pourlane/ordercore/pkg/types"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New("", "gpt-4o"); err == nil {
		t.Error("expected error for empty provider name")
	}
	if _, err := New("openai", ""); err == nil {
		t.Error("expected error for empty model")
	}
	if _, err := New("not-a-provider", "some-model"); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestParseMentions(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []types.RawMention
	}{
		{
			name:     "clean array",
			response: `[{"product":"golden eagle","size":"medium","temp":"iced","mods":[],"qty":1}]`,
			want: []types.RawMention{
				{Name: "golden eagle", Size: types.SizeMedium, Temperature: types.TempIced, Quantity: 1, TurnIndex: 3},
			},
		},
		{
			name: "markdown fenced with prose",
			response: "Here is the extraction:\n```json\n" +
				`[{"product":"mocha","size":"large","temp":"hot","mods":["soft top"],"qty":1}]` +
				"\n```\nLet me know if you need anything else.",
			want: []types.RawMention{
				{Name: "mocha", Size: types.SizeLarge, Temperature: types.TempHot, Modifiers: []string{"soft top"}, Quantity: 1, TurnIndex: 3},
			},
		},
		{
			name:     "bare modification keeps empty product",
			response: `[{"product":"","size":null,"temp":null,"mods":["oat milk"],"qty":0}]`,
			want: []types.RawMention{
				{Name: "", Modifiers: []string{"oat milk"}, TurnIndex: 3},
			},
		},
		{
			name:     "chitchat entry skipped",
			response: `[{"product":"","size":null,"temp":null,"mods":[],"qty":0},{"product":"latte","qty":1}]`,
			want: []types.RawMention{
				{Name: "latte", Quantity: 1, TurnIndex: 3},
			},
		},
		{
			name:     "invalid size and temp dropped",
			response: `[{"product":"latte","size":"venti","temp":"lukewarm","qty":1}]`,
			want: []types.RawMention{
				{Name: "latte", Quantity: 1, TurnIndex: 3},
			},
		},
		{
			name:     "no array at all",
			response: "I could not find any order items in that message.",
			want:     nil,
		},
		{
			name:     "malformed json",
			response: `[{"product": "latte", "qty": }]`,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseMentions(tt.response, 3)
			if len(got) != len(tt.want) {
				t.Fatalf("mention count = %d, want %d (%+v)", len(got), len(tt.want), got)
			}
			for i := range got {
				g, w := got[i], tt.want[i]
				if g.Name != w.Name || g.Size != w.Size || g.Temperature != w.Temperature ||
					g.Quantity != w.Quantity || g.TurnIndex != w.TurnIndex {
					t.Errorf("mention[%d] = %+v, want %+v", i, g, w)
				}
				if len(g.Modifiers) != len(w.Modifiers) {
					t.Errorf("mention[%d] modifiers = %v, want %v", i, g.Modifiers, w.Modifiers)
				}
			}
		})
	}
}
