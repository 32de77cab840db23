package domain

import "math"

// PerformanceScore is the additive 0-100 score shared by ads and ad-set
// aggregates. Each threshold is independent; the raw sum can exceed 100 and
// is clamped.
func PerformanceScore(roas float64, cpa *float64, purchases int) int {
	score := 0

	if purchases > 0 {
		score += 40
	}
	if purchases >= 3 {
		score += 10
	}
	if purchases >= 5 {
		score += 10
	}

	if roas >= 1 {
		score += 10
	}
	if roas >= 2 {
		score += 10
	}
	if roas >= 3 {
		score += 10
	}

	if purchases > 0 && cpa != nil && *cpa > 0 {
		if *cpa <= 300 {
			score += 20
		} else if *cpa <= 600 {
			score += 10
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// BucketFromScore maps a score to its absolute bucket. Thresholds are
// evaluated high to low; a score of 0 is Poor.
func BucketFromScore(score int) PerformanceBucket {
	switch {
	case score >= 70:
		return BucketWinner
	case score >= 55:
		return BucketAboveAverage
	case score >= 40:
		return BucketAverage
	case score >= 25:
		return BucketBelowAverage
	default:
		return BucketPoor
	}
}

// MetaRatingFromROAS maps ROAS to the benchmark rating shown next to the
// score. Independent scale from the performance score.
func MetaRatingFromROAS(roas float64) MetaRating {
	switch {
	case roas >= 3:
		return RatingExcellent
	case roas >= 2:
		return RatingGood
	case roas >= 1:
		return RatingOK
	case roas > 0:
		return RatingWeak
	default:
		return RatingNoPurchases
	}
}

// PercentChange returns the percentage change from previous to current, or
// nil when the baseline is zero or the result is not finite.
func PercentChange(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	change := (current - previous) / previous * 100
	if math.IsNaN(change) || math.IsInf(change, 0) {
		return nil
	}
	return &change
}
