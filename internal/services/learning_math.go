package services

import (
	"math"
	"time"

	types "github.com/brightpathcs/brightpath-backend/internal/domain"
)

// Effectiveness blend weights. Explicit human ratings dominate, the binary
// accept/dismiss signal is secondary, thumbs feedback is a tiebreak.
const (
	acceptRateWeight    = 0.4
	averageRatingWeight = 0.5
	thumbsRatioWeight   = 0.1

	// Neutral priors used before any feedback of a kind arrives.
	defaultAcceptRate    = 0.5
	defaultAverageRating = 3.0
	defaultThumbsRatio   = 0.5

	// sampleConfidence saturates once this many feedback events exist.
	confidenceSaturationCount = 100
	// recencyFactor looks at most this many recent feedback events.
	recencyWindowSize = 50

	// Weight adjustment bounds.
	minImpactWeight = 0.1
	maxImpactWeight = 1.0
	// targetWeight maps effectiveness 0-1 onto the usable range 0.2-1.0.
	targetWeightFloor = 0.2
	targetWeightSpan  = 0.8
	// Changes at or below this are not worth reporting or applying.
	weightChangeSignificance = 0.001
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeRating maps the 1-5 rating scale onto 0-1.
func normalizeRating(r float64) float64 {
	return clamp((r-1)/4, 0, 1)
}

func acceptRate(acceptCount, dismissCount int) float64 {
	total := acceptCount + dismissCount
	if total == 0 {
		return defaultAcceptRate
	}
	return float64(acceptCount) / float64(total)
}

func averageRating(totalRatingSum float64, ratingCount int) float64 {
	if ratingCount == 0 {
		return defaultAverageRating
	}
	return totalRatingSum / float64(ratingCount)
}

func thumbsRatio(up, down int) float64 {
	total := up + down
	if total == 0 {
		return defaultThumbsRatio
	}
	return float64(up) / float64(total)
}

func effectivenessScore(acceptRate, avgRating, thumbsRatio float64) float64 {
	return acceptRateWeight*acceptRate +
		averageRatingWeight*normalizeRating(avgRating) +
		thumbsRatioWeight*thumbsRatio
}

// sampleConfidence grows logarithmically with feedback volume and saturates
// at confidenceSaturationCount events.
func sampleConfidence(feedbackCount int) float64 {
	if feedbackCount <= 0 {
		return 0
	}
	c := math.Log10(float64(feedbackCount)+1) / math.Log10(confidenceSaturationCount)
	return clamp(c, 0, 1)
}

// recencyFactor is the mean exponential decay over the observed feedback
// timestamps: each event contributes 0.5^(age_days / half_life_days). An
// empty history yields 1.0 so a brand-new mapping is not penalized twice.
func recencyFactor(feedbackTimes []time.Time, halfLifeDays float64, now time.Time) float64 {
	if len(feedbackTimes) == 0 {
		return 1.0
	}
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultLearningConfig().RecencyDecayHalfLifeDays
	}
	times := feedbackTimes
	if len(times) > recencyWindowSize {
		times = times[:recencyWindowSize]
	}
	var sum float64
	for _, t := range times {
		ageDays := now.Sub(t).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		sum += math.Pow(0.5, ageDays/halfLifeDays)
	}
	return sum / float64(len(times))
}

func confidenceLevel(feedbackCount int, feedbackTimes []time.Time, halfLifeDays float64, now time.Time) float64 {
	return sampleConfidence(feedbackCount) * recencyFactor(feedbackTimes, halfLifeDays, now)
}

// recalculateEffectiveness refreshes every derived field on the row from its
// counters and the recent feedback history. Pure: same counters and history
// always produce the same derived values.
func recalculateEffectiveness(row *types.MappingEffectiveness, feedbackTimes []time.Time, halfLifeDays float64, now time.Time) {
	if row == nil {
		return
	}
	row.AcceptRate = acceptRate(row.AcceptCount, row.DismissCount)
	row.AverageRating = averageRating(row.TotalRatingSum, row.RatingCount)
	row.EffectivenessScore = effectivenessScore(
		row.AcceptRate,
		row.AverageRating,
		thumbsRatio(row.ThumbsUpCount, row.ThumbsDownCount),
	)
	row.ConfidenceLevel = confidenceLevel(row.FeedbackCount(), feedbackTimes, halfLifeDays, now)
}

// targetWeight maps an effectiveness score onto the usable weight range.
func targetWeight(effectiveness float64) float64 {
	return targetWeightFloor + clamp(effectiveness, 0, 1)*targetWeightSpan
}

// boundedAdjustment computes the weight a cycle may move a mapping to: the
// step toward target is capped per cycle and the result clamped to the
// invariant range [0.1, 1.0].
func boundedAdjustment(currentWeight, effectiveness, maxChangePerCycle float64) (newWeight, delta float64) {
	target := targetWeight(effectiveness)
	delta = clamp(target-currentWeight, -maxChangePerCycle, maxChangePerCycle)
	newWeight = clamp(currentWeight+delta, minImpactWeight, maxImpactWeight)
	return newWeight, newWeight - currentWeight
}

func significantChange(oldWeight, newWeight float64) bool {
	return math.Abs(newWeight-oldWeight) > weightChangeSignificance
}
