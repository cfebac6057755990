// Package engine wires the full ordering pipeline: conversation tracking,
// modifier categorization, catalog matching, confidence scoring, and final
// order assembly.
//
// An [Engine] is built once per process around a read-only catalog index and
// shared by every conversation. Each [Conversation] owns its own state and is
// driven strictly sequentially by turn; distinct conversations may run in
// parallel. Within a turn, items are categorized and matched concurrently
// since matching depends only on the raw name.
package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pourlane/ordercore/internal/catalog"
	"github.com/pourlane/ordercore/internal/conversation"
	"github.com/pourlane/ordercore/internal/match"
	"github.com/pourlane/ordercore/internal/observe"
	"github.com/pourlane/ordercore/internal/order"
	"github.com/pourlane/ordercore/internal/score"
	"github.com/pourlane/ordercore/internal/taxonomy"
	"github.com/pourlane/ordercore/pkg/provider/similarity"
	"github.com/pourlane/ordercore/pkg/types"
)

// Option is a functional option for configuring an [Engine].
type Option func(*Engine)

// WithRanker attaches a semantic-similarity ranker to the catalog matcher.
func WithRanker(r similarity.Ranker) Option {
	return func(e *Engine) { e.matcherOpts = append(e.matcherOpts, match.WithRanker(r)) }
}

// WithMinConfidence sets the catalog matcher's minimum confidence.
func WithMinConfidence(v float64) Option {
	return func(e *Engine) { e.matcherOpts = append(e.matcherOpts, match.WithMinConfidence(v)) }
}

// WithPhoneticThreshold sets the catalog matcher's phonetic-tier threshold.
func WithPhoneticThreshold(v float64) Option {
	return func(e *Engine) { e.matcherOpts = append(e.matcherOpts, match.WithPhoneticThreshold(v)) }
}

// WithOverlapThreshold sets the taxonomy categorizer's token-overlap
// threshold.
func WithOverlapThreshold(v float64) Option {
	return func(e *Engine) { e.categorizerOpts = append(e.categorizerOpts, taxonomy.WithOverlapThreshold(v)) }
}

// WithConfidenceThresholds sets the confirmed and review status boundaries.
func WithConfidenceThresholds(confirm, review float64) Option {
	return func(e *Engine) { e.scorerOpts = append(e.scorerOpts, score.WithThresholds(confirm, review)) }
}

// WithConfidenceBonuses sets the composite-confidence bonuses awarded for an
// explicit size and preparation style.
func WithConfidenceBonuses(size, temperature float64) Option {
	return func(e *Engine) { e.scorerOpts = append(e.scorerOpts, score.WithBonuses(size, temperature)) }
}

// WithTaxonomy replaces the default modifier taxonomy entries.
func WithTaxonomy(entries []taxonomy.Entry) Option {
	return func(e *Engine) { e.taxonomyEntries = entries }
}

// WithMetrics attaches a metrics instance. When unset, metrics are not
// recorded (tests stay quiet without a meter provider).
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine is the shared, read-only pipeline core. Safe for concurrent use
// across conversations.
type Engine struct {
	categorizer *taxonomy.Categorizer
	matcher     *match.Matcher
	scorer      *score.Scorer
	assembler   *order.Assembler
	metrics     *observe.Metrics

	taxonomyEntries []taxonomy.Entry
	categorizerOpts []taxonomy.Option
	matcherOpts     []match.Option
	scorerOpts      []score.Option
}

// New builds an [Engine] over the given catalog index.
func New(idx *catalog.Index, opts ...Option) *Engine {
	e := &Engine{
		taxonomyEntries: taxonomy.DefaultEntries(),
		assembler:       order.NewAssembler(),
	}
	for _, o := range opts {
		o(e)
	}

	e.categorizer = taxonomy.NewCategorizer(e.taxonomyEntries, e.categorizerOpts...)
	e.matcher = match.New(idx, e.matcherOpts...)
	e.scorer = score.New(e.scorerOpts...)
	return e
}

// Conversation binds one customer conversation to the shared engine.
// Not safe for concurrent turns: drive it from a single goroutine.
type Conversation struct {
	engine *Engine
	state  *conversation.State
}

// NewConversation opens a fresh conversation.
func (e *Engine) NewConversation(ctx context.Context) *Conversation {
	if e.metrics != nil {
		e.metrics.ActiveConversations.Add(ctx, 1)
	}
	return &Conversation{engine: e, state: conversation.New()}
}

// State exposes the underlying conversation state for inspection.
func (c *Conversation) State() *conversation.State { return c.state }

// ProcessTurn ingests one turn's mentions in order, then re-categorizes and
// re-matches every item the turn touched, concurrently.
//
// Reference and validation failures abort the turn's remaining mentions and
// are returned to the caller typed; mentions already ingested in this turn
// stay committed, matching the strictly sequential turn model. Committed
// items are still refreshed on a failed turn so they never reach Finalize
// unmatched.
func (c *Conversation) ProcessTurn(ctx context.Context, mentions []types.RawMention) error {
	ctx, span := observe.StartSpan(ctx, "engine.process_turn")
	defer span.End()

	start := time.Now()
	eng := c.engine

	touched := make(map[*conversation.Item]struct{})
	var turnErr error
	for _, m := range mentions {
		item, err := c.state.Ingest(m)
		if err != nil {
			if eng.metrics != nil {
				eng.metrics.RecordTurnError(ctx, errorReason(err))
			}
			turnErr = err
			break
		}
		touched[item] = struct{}{}
	}

	g, gctx := errgroup.WithContext(ctx)
	for item := range touched {
		g.Go(func() error {
			eng.refreshItem(gctx, item)
			return nil
		})
	}
	// refreshItem never fails; Wait only propagates context cancellation.
	if err := g.Wait(); err != nil {
		return err
	}
	if turnErr != nil {
		return turnErr
	}

	if eng.metrics != nil {
		eng.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())
		eng.metrics.RecordTurn(ctx, turnKind(mentions), "ok")
	}
	return nil
}

// Finalize freezes the conversation, scores every item, and assembles the
// priced order record.
func (c *Conversation) Finalize(ctx context.Context) (order.Record, error) {
	ctx, span := observe.StartSpan(ctx, "engine.finalize")
	defer span.End()

	eng := c.engine
	if err := c.state.Finalize(); err != nil {
		return order.Record{}, err
	}

	for _, item := range c.state.Items() {
		item.CompositeConfidence, item.Status = eng.scorer.Score(
			item.MatchConfidence, item.Size != "", item.Temperature != "")
	}

	rec := eng.assembler.Assemble(c.state.Items())

	if eng.metrics != nil {
		eng.metrics.OrderSubtotal.Record(ctx, rec.Subtotal)
		eng.metrics.ActiveConversations.Add(ctx, -1)
		for _, item := range c.state.Items() {
			if item.Product == nil {
				eng.metrics.UnmatchedItems.Add(ctx, 1)
			}
		}
	}
	return rec, nil
}

// refreshItem recomputes an item's categorized modifiers and catalog match
// from its accumulated raw state. Idempotent: rebuilding from RawModifiers
// keeps repeated modifications from double-applying.
func (e *Engine) refreshItem(ctx context.Context, item *conversation.Item) {
	mods, unmapped := e.categorizer.Categorize(item.RawModifiers)
	item.Modifiers = mods
	item.SpecialInstructions = unmapped

	start := time.Now()
	res := e.matcher.Match(ctx, item.RawName, match.Hint{
		HasSize:        item.Size != "",
		HasTemperature: item.Temperature != "",
	})
	item.Product = res.Entry
	item.MatchConfidence = res.Confidence

	if e.metrics != nil {
		e.metrics.MatchDuration.Record(ctx, time.Since(start).Seconds())
		e.metrics.RecordMatch(ctx, string(res.Tier))
	}
}

// turnKind labels a turn for metrics by its first mention's shape.
func turnKind(mentions []types.RawMention) string {
	if len(mentions) == 0 {
		return "empty"
	}
	if mentions[0].Name == "" {
		return "modification"
	}
	return "new_item"
}

// errorReason maps a turn failure to a low-cardinality metrics label.
func errorReason(err error) string {
	switch err.(type) {
	case *conversation.UnresolvedReferenceError:
		return "unresolved_reference"
	case *conversation.AmbiguousReferenceError:
		return "ambiguous_reference"
	case *conversation.ConversationClosedError:
		return "conversation_closed"
	case *conversation.MalformedMentionError:
		return "malformed_mention"
	default:
		return "other"
	}
}
