package services

import (
	"math"
	"testing"
	"time"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEffectivenessScore(t *testing.T) {
	tests := []struct {
		name       string
		acceptRate float64
		avgRating  float64
		thumbs     float64
		want       float64
	}{
		{"all neutral priors", 0.5, 3.0, 0.5, 0.4*0.5 + 0.5*0.5 + 0.1*0.5},
		{"strong signal", 0.8, 4.0, 0.5, 0.745},
		{"everything rejected", 0.0, 1.0, 0.0, 0.0},
		{"everything perfect", 1.0, 5.0, 1.0, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := effectivenessScore(tt.acceptRate, tt.avgRating, tt.thumbs)
			if !almostEqual(got, tt.want) {
				t.Fatalf("effectivenessScore(%v, %v, %v) = %v, want %v",
					tt.acceptRate, tt.avgRating, tt.thumbs, got, tt.want)
			}
		})
	}
}

func TestAcceptRateDefaults(t *testing.T) {
	if got := acceptRate(0, 0); got != defaultAcceptRate {
		t.Fatalf("acceptRate(0, 0) = %v, want neutral prior %v", got, defaultAcceptRate)
	}
	if got := acceptRate(4, 1); !almostEqual(got, 0.8) {
		t.Fatalf("acceptRate(4, 1) = %v, want 0.8", got)
	}
}

func TestAverageRatingDefaults(t *testing.T) {
	if got := averageRating(0, 0); got != defaultAverageRating {
		t.Fatalf("averageRating with no ratings = %v, want %v", got, defaultAverageRating)
	}
	if got := averageRating(12, 3); !almostEqual(got, 4.0) {
		t.Fatalf("averageRating(12, 3) = %v, want 4.0", got)
	}
}

func TestSampleConfidence(t *testing.T) {
	if got := sampleConfidence(0); got != 0 {
		t.Fatalf("sampleConfidence(0) = %v, want 0", got)
	}
	if got := sampleConfidence(confidenceSaturationCount * 10); got != 1 {
		t.Fatalf("sampleConfidence above saturation = %v, want 1", got)
	}
	// Monotonically non-decreasing in sample size.
	prev := 0.0
	for n := 1; n <= 200; n *= 2 {
		c := sampleConfidence(n)
		if c < prev {
			t.Fatalf("sampleConfidence(%d) = %v decreased from %v", n, c, prev)
		}
		if c < 0 || c > 1 {
			t.Fatalf("sampleConfidence(%d) = %v out of [0, 1]", n, c)
		}
		prev = c
	}
}

func TestRecencyFactor(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	halfLife := 90.0

	if got := recencyFactor(nil, halfLife, now); got != 1.0 {
		t.Fatalf("empty history = %v, want 1.0", got)
	}

	fresh := []time.Time{now, now.Add(-time.Hour)}
	if got := recencyFactor(fresh, halfLife, now); got < 0.99 {
		t.Fatalf("fresh feedback = %v, want close to 1.0", got)
	}

	// One half-life old decays to roughly 0.5.
	aged := []time.Time{now.AddDate(0, 0, -90)}
	if got := recencyFactor(aged, halfLife, now); !almostEqual(got, 0.5) {
		t.Fatalf("one half-life old = %v, want 0.5", got)
	}

	// Older history always scores lower than newer history.
	older := []time.Time{now.AddDate(0, 0, -180)}
	if recencyFactor(older, halfLife, now) >= recencyFactor(aged, halfLife, now) {
		t.Fatal("older feedback should score below newer feedback")
	}
}

func TestBoundedAdjustment(t *testing.T) {
	tests := []struct {
		name          string
		current       float64
		effectiveness float64
		maxChange     float64
		wantWeight    float64
	}{
		// target = 0.2 + 0.8*eff
		{"step capped upward", 0.5, 1.0, 0.1, 0.6},
		{"step capped downward", 0.5, 0.0, 0.1, 0.4},
		{"small move lands on target", 0.5, 0.4, 0.1, 0.52},
		{"rises toward target floor", 0.15, 0.0, 0.1, 0.2},
		{"never above ceiling", 0.95, 1.0, 0.1, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, delta := boundedAdjustment(tt.current, tt.effectiveness, tt.maxChange)
			if !almostEqual(got, tt.wantWeight) {
				t.Fatalf("boundedAdjustment(%v, %v, %v) = %v, want %v",
					tt.current, tt.effectiveness, tt.maxChange, got, tt.wantWeight)
			}
			if !almostEqual(delta, got-tt.current) {
				t.Fatalf("delta %v does not match weight movement %v", delta, got-tt.current)
			}
			if math.Abs(delta) > tt.maxChange+1e-9 {
				t.Fatalf("delta %v exceeds max change %v", delta, tt.maxChange)
			}
		})
	}

	// A weight seeded below the floor is pulled up to it even when the step
	// cap alone would leave it short.
	if got, _ := boundedAdjustment(0.05, 0, 0.02); !almostEqual(got, minImpactWeight) {
		t.Fatalf("boundedAdjustment(0.05, 0, 0.02) = %v, want floor %v", got, minImpactWeight)
	}
}

func TestSignificantChange(t *testing.T) {
	if significantChange(0.5, 0.5005) {
		t.Fatal("sub-threshold change reported as significant")
	}
	if !significantChange(0.5, 0.51) {
		t.Fatal("real change not reported as significant")
	}
}

func TestRecalculateEffectiveness(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	row := &types.MappingEffectiveness{
		AcceptCount:    8,
		DismissCount:   2,
		RatingCount:    4,
		TotalRatingSum: 16,
	}
	times := []time.Time{now, now.Add(-time.Hour)}

	recalculateEffectiveness(row, times, 90, now)

	if !almostEqual(row.AcceptRate, 0.8) {
		t.Fatalf("AcceptRate = %v, want 0.8", row.AcceptRate)
	}
	if !almostEqual(row.AverageRating, 4.0) {
		t.Fatalf("AverageRating = %v, want 4.0", row.AverageRating)
	}
	if !almostEqual(row.EffectivenessScore, 0.745) {
		t.Fatalf("EffectivenessScore = %v, want 0.745", row.EffectivenessScore)
	}
	if row.ConfidenceLevel <= 0 || row.ConfidenceLevel > 1 {
		t.Fatalf("ConfidenceLevel = %v out of (0, 1]", row.ConfidenceLevel)
	}
}

func TestTargetWeightRange(t *testing.T) {
	if got := targetWeight(0); !almostEqual(got, targetWeightFloor) {
		t.Fatalf("targetWeight(0) = %v, want %v", got, targetWeightFloor)
	}
	if got := targetWeight(1); !almostEqual(got, 1.0) {
		t.Fatalf("targetWeight(1) = %v, want 1.0", got)
	}
	if got := targetWeight(2); !almostEqual(got, 1.0) {
		t.Fatalf("targetWeight clamps effectiveness above 1, got %v", got)
	}
}
