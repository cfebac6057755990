// Package score turns a raw match confidence into a composite confidence and
// a review status for an order item.
//
// Structural signals on the mention (an explicit size, an explicit
// temperature) each add a small bonus on top of the name-match confidence:
// a customer who says "large iced golden eagle" is more likely to mean a real
// menu item than one whose utterance carried a bare name. The composite is
// clamped to 1.0 and then bucketed into a [Status].
package score

import "math"

// Default thresholds and bonuses.
const (
	DefaultConfirmThreshold = 0.90
	DefaultReviewThreshold  = 0.75
	DefaultSizeBonus        = 0.05
	DefaultTemperatureBonus = 0.05
)

// Status classifies how much human attention an item needs before the order
// is handed to the register.
type Status string

const (
	// StatusConfirmed items can be charged without a second look.
	StatusConfirmed Status = "confirmed"

	// StatusReview items are probably right but worth reading back to the
	// customer.
	StatusReview Status = "review"

	// StatusUncertain items need explicit confirmation, including every item
	// that failed catalog resolution entirely.
	StatusUncertain Status = "uncertain"
)

// Option is a functional option for configuring a [Scorer].
type Option func(*Scorer)

// WithThresholds overrides the confirmed and review status boundaries.
func WithThresholds(confirm, review float64) Option {
	return func(s *Scorer) {
		s.confirmThreshold = confirm
		s.reviewThreshold = review
	}
}

// WithBonuses overrides the per-signal confidence bonuses.
func WithBonuses(size, temperature float64) Option {
	return func(s *Scorer) {
		s.sizeBonus = size
		s.temperatureBonus = temperature
	}
}

// Scorer computes composite confidences. It is stateless after construction
// and safe for concurrent use.
type Scorer struct {
	confirmThreshold float64
	reviewThreshold  float64
	sizeBonus        float64
	temperatureBonus float64
}

// New returns a [Scorer] with the default thresholds and bonuses applied.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		confirmThreshold: DefaultConfirmThreshold,
		reviewThreshold:  DefaultReviewThreshold,
		sizeBonus:        DefaultSizeBonus,
		temperatureBonus: DefaultTemperatureBonus,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score combines the name-match confidence with the structural bonuses and
// returns the composite confidence alongside its status bucket.
//
// An item with zero match confidence (no catalog resolution) keeps a zero
// composite and is always [StatusUncertain]: the bonuses reward completeness
// of a resolved match, not of an unmatched one.
func (s *Scorer) Score(matchConfidence float64, hasSize, hasTemperature bool) (float64, Status) {
	if matchConfidence <= 0 {
		return 0, StatusUncertain
	}

	composite := matchConfidence
	if hasSize {
		composite += s.sizeBonus
	}
	if hasTemperature {
		composite += s.temperatureBonus
	}
	composite = math.Min(composite, 1.0)

	switch {
	case composite >= s.confirmThreshold:
		return composite, StatusConfirmed
	case composite >= s.reviewThreshold:
		return composite, StatusReview
	default:
		return composite, StatusUncertain
	}
}
