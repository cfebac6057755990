package score

import (
	"math"
	"testing"
)

func TestScore(t *testing.T) {
	s := New()

	tests := []struct {
		name          string
		matchConf     float64
		hasSize       bool
		hasTemp       bool
		wantComposite float64
		wantStatus    Status
	}{
		{
			name:          "exact match no signals",
			matchConf:     1.0,
			wantComposite: 1.0,
			wantStatus:    StatusConfirmed,
		},
		{
			name:          "bonuses clamp at one",
			matchConf:     0.98,
			hasSize:       true,
			hasTemp:       true,
			wantComposite: 1.0,
			wantStatus:    StatusConfirmed,
		},
		{
			name:          "size bonus crosses confirm boundary",
			matchConf:     0.86,
			hasSize:       true,
			wantComposite: 0.91,
			wantStatus:    StatusConfirmed,
		},
		{
			name:          "review band",
			matchConf:     0.80,
			wantComposite: 0.80,
			wantStatus:    StatusReview,
		},
		{
			name:          "both bonuses lift into review",
			matchConf:     0.66,
			hasSize:       true,
			hasTemp:       true,
			wantComposite: 0.76,
			wantStatus:    StatusReview,
		},
		{
			name:          "low confidence is uncertain",
			matchConf:     0.5,
			wantComposite: 0.5,
			wantStatus:    StatusUncertain,
		},
		{
			name:          "exact review boundary",
			matchConf:     0.75,
			wantComposite: 0.75,
			wantStatus:    StatusReview,
		},
		{
			name:          "exact confirm boundary",
			matchConf:     0.90,
			wantComposite: 0.90,
			wantStatus:    StatusConfirmed,
		},
		{
			name:       "unmatched stays uncertain despite bonuses",
			matchConf:  0,
			hasSize:    true,
			hasTemp:    true,
			wantStatus: StatusUncertain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composite, status := s.Score(tt.matchConf, tt.hasSize, tt.hasTemp)
			if math.Abs(composite-tt.wantComposite) > 1e-9 {
				t.Errorf("composite = %v, want %v", composite, tt.wantComposite)
			}
			if status != tt.wantStatus {
				t.Errorf("status = %s, want %s", status, tt.wantStatus)
			}
		})
	}
}

func TestScoreCustomThresholds(t *testing.T) {
	s := New(WithThresholds(0.95, 0.5), WithBonuses(0.1, 0.1))

	composite, status := s.Score(0.6, true, false)
	if math.Abs(composite-0.7) > 1e-9 {
		t.Errorf("composite = %v, want 0.7", composite)
	}
	if status != StatusReview {
		t.Errorf("status = %s, want review", status)
	}

	if _, status := s.Score(0.4, false, false); status != StatusUncertain {
		t.Errorf("status = %s, want uncertain", status)
	}
}
