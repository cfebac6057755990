// Package observe provides application-wide observability primitives for
// Ordercore: OpenTelemetry metrics, distributed tracing, and structured
// logging helpers.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Ordercore metrics.
const meterName = "github.com/pourlane/ordercore"

// Metrics holds all OpenTelemetry metric instruments for the engine.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// ExtractionDuration tracks language-model mention extraction latency.
	ExtractionDuration metric.Float64Histogram

	// TurnDuration tracks end-to-end turn processing latency (ingest,
	// categorize, match).
	TurnDuration metric.Float64Histogram

	// MatchDuration tracks catalog-match latency per item, including any
	// semantic-ranker round trip.
	MatchDuration metric.Float64Histogram

	// --- Counters ---

	// Turns counts processed turns. Use with attributes:
	//   attribute.String("kind", ...), attribute.String("status", ...)
	Turns metric.Int64Counter

	// Matches counts catalog-match outcomes. Use with attribute:
	//   attribute.String("tier", ...)
	Matches metric.Int64Counter

	// UnmatchedItems counts items that never resolved to a catalog entry.
	UnmatchedItems metric.Int64Counter

	// --- Error counters ---

	// TurnErrors counts rejected turns. Use with attribute:
	//   attribute.String("reason", ...)
	TurnErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveConversations tracks the number of conversations currently open.
	ActiveConversations metric.Int64UpDownCounter

	// --- Order outcomes ---

	// OrderSubtotal records the subtotal of each finalized order.
	OrderSubtotal metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for a drive-thru ordering pipeline: sub-second for local matching, up to a
// few seconds when remote model calls are involved.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// subtotalBuckets covers typical drive-thru order values in dollars.
var subtotalBuckets = []float64{
	5, 10, 15, 20, 30, 50, 75, 100,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ExtractionDuration, err = m.Float64Histogram("ordercore.extraction.duration",
		metric.WithDescription("Latency of language-model mention extraction."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TurnDuration, err = m.Float64Histogram("ordercore.turn.duration",
		metric.WithDescription("End-to-end turn processing latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.MatchDuration, err = m.Float64Histogram("ordercore.match.duration",
		metric.WithDescription("Catalog-match latency per item."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Turns, err = m.Int64Counter("ordercore.turns",
		metric.WithDescription("Total processed turns by kind and status."),
	); err != nil {
		return nil, err
	}
	if met.Matches, err = m.Int64Counter("ordercore.matches",
		metric.WithDescription("Total catalog-match outcomes by tier."),
	); err != nil {
		return nil, err
	}
	if met.UnmatchedItems, err = m.Int64Counter("ordercore.unmatched_items",
		metric.WithDescription("Total items that never resolved to a catalog entry."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.TurnErrors, err = m.Int64Counter("ordercore.turn.errors",
		metric.WithDescription("Total rejected turns by reason."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveConversations, err = m.Int64UpDownCounter("ordercore.active_conversations",
		metric.WithDescription("Number of conversations currently open."),
	); err != nil {
		return nil, err
	}

	// Order outcomes.
	if met.OrderSubtotal, err = m.Float64Histogram("ordercore.order.subtotal",
		metric.WithDescription("Subtotal of each finalized order."),
		metric.WithUnit("USD"),
		metric.WithExplicitBucketBoundaries(subtotalBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordTurn records one processed turn with the standard attribute set.
func (m *Metrics) RecordTurn(ctx context.Context, kind, status string) {
	m.Turns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordMatch records one catalog-match outcome by tier.
func (m *Metrics) RecordMatch(ctx context.Context, tier string) {
	m.Matches.Add(ctx, 1,
		metric.WithAttributes(attribute.String("tier", tier)),
	)
}

// RecordTurnError records one rejected turn by reason.
func (m *Metrics) RecordTurnError(ctx context.Context, reason string) {
	m.TurnErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}
