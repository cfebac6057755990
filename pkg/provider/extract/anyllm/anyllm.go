// Package anyllm implements mention extraction on top of
// github.com/mozilla-ai/any-llm-go, a unified multi-provider LLM interface
// that supports OpenAI, Anthropic, Gemini, Ollama, DeepSeek, Mistral, Groq,
// and more.
//
// Usage:
//
//	p, err := anyllm.New("openai", "gpt-4o", anyllmlib.WithAPIKey("sk-..."))
//	mentions, err := p.Extract(ctx, "large iced golden eagle please", 1)
package anyllm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/pourlane/ordercore/pkg/provider/extract"
	"github.com/pourlane/ordercore/pkg/types"
)

// Compile-time assertion that Extractor satisfies the extract.Provider interface.
var _ extract.Provider = (*Extractor)(nil)

// defaultMaxTokens caps the extraction response. An order turn rarely needs
// more than a few hundred tokens of JSON.
const defaultMaxTokens = 1000

// Extractor implements extract.Provider by prompting an LLM backend to emit
// a JSON array of order items and parsing the result tolerantly.
type Extractor struct {
	backend anyllmlib.Provider
	model   string
}

// New creates an Extractor backed by the given LLM provider name.
//
// providerName is one of: "openai", "anthropic", "gemini", "ollama",
// "deepseek", "mistral", "groq", "llamacpp", "llamafile".
//
// opts are any-llm-go configuration options (e.g., anyllmlib.WithAPIKey,
// anyllmlib.WithBaseURL). If no API key option is provided, the provider
// falls back to the relevant environment variable (OPENAI_API_KEY,
// ANTHROPIC_API_KEY, etc.).
func New(providerName, model string, opts ...anyllmlib.Option) (*Extractor, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}
	return &Extractor{backend: backend, model: model}, nil
}

// createBackend creates the underlying any-llm-go provider for the given provider name.
func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "llamacpp":
		return llamacpp.New(opts...)
	case "llamafile":
		return llamafile.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: openai, anthropic, gemini, ollama, deepseek, mistral, groq, llamacpp, llamafile", providerName)
	}
}

// Extract implements [extract.Provider].
func (e *Extractor) Extract(ctx context.Context, transcript string, turnIndex int) ([]types.RawMention, error) {
	temp := 0.0
	maxTokens := defaultMaxTokens
	params := anyllmlib.CompletionParams{
		Model: e.model,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleUser, Content: buildPrompt(transcript)},
		},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	}

	resp, err := e.backend.Completion(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anyllm: extract: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("anyllm: empty choices in response")
	}

	return parseMentions(resp.Choices[0].Message.ContentString(), turnIndex), nil
}

// buildPrompt renders the barista extraction prompt for one turn of
// conversation.
func buildPrompt(transcript string) string {
	return fmt.Sprintf(`You are an expert barista assistant. Extract order items from this conversation turn.

CONVERSATION:
%q

For each product mentioned, determine:
- product: the item name as the customer said it ("" for a bare modification like "add soft top" or "make that three")
- size: small/medium/large/kids, or null
- temp: hot/iced/blended, or null
- mods: modifier phrases (soft top, oat milk, boba, extra sweet, whip, ...)
- qty: quantity as a number (one=1, two=2, ...)

RULES:
1. IGNORE chitchat (greetings, thank you, questions)
2. "and", "also" usually mean a NEW item
3. Milk types (oat/almond/coconut) are MODIFIERS, never part of the product name
4. Food items (muffins, pastries) have size=null, temp=null
5. Pronoun edits like "make that iced" keep the pronoun in product ("that") so downstream reference resolution can run

OUTPUT FORMAT (JSON array only, no explanation):
[{"product":"...","size":"...","temp":"...","mods":[...],"qty":1}]`, transcript)
}

// wireItem is the raw JSON shape the model is prompted to produce.
type wireItem struct {
	Product string   `json:"product"`
	Size    string   `json:"size"`
	Temp    string   `json:"temp"`
	Mods    []string `json:"mods"`
	Qty     int      `json:"qty"`
}

// parseMentions tolerantly parses the model response: markdown fences are
// stripped, the first JSON array found is decoded, and entries with neither
// a product name nor modifiers are skipped (chitchat false positives).
// A response with no parseable array yields no mentions rather than an
// error, since an empty turn is a normal outcome.
func parseMentions(response string, turnIndex int) []types.RawMention {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")

	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start < 0 || end <= start {
		return nil
	}

	var items []wireItem
	if err := json.Unmarshal([]byte(response[start:end+1]), &items); err != nil {
		return nil
	}

	var mentions []types.RawMention
	for _, it := range items {
		if strings.TrimSpace(it.Product) == "" && len(it.Mods) == 0 && it.Qty == 0 {
			continue
		}
		m := types.RawMention{
			Name:      strings.TrimSpace(it.Product),
			Modifiers: it.Mods,
			Quantity:  it.Qty,
			TurnIndex: turnIndex,
		}
		if s := types.Size(strings.ToLower(it.Size)); s.IsValid() {
			m.Size = s
		}
		if t := types.Temperature(strings.ToLower(it.Temp)); t.IsValid() {
			m.Temperature = t
		}
		mentions = append(mentions, m)
	}
	return mentions
}
