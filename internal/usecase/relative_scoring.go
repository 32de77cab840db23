package usecase

import (
	"math"
	"sort"

	"adscope/internal/domain"
)

// Combined-score weights for the relative classification: ROAS dominates,
// purchase volume breaks up ads that only look good on thin data.
const (
	relativeRoasWeight     = 0.7
	relativePurchaseWeight = 0.3
)

// RelativeBuckets classifies a dataset on a curve, independent of the
// absolute score buckets: ROAS and purchase count are min-max normalized
// over the whole input, combined, and ranked. The top ~15% (1 to 3 ads)
// become Winners, the bottom ~35% Needs-care, the rest Steady. Winners are
// resolved first; an ad never appears in both slices.
//
// The result is positional, aligned with the input order, so it stays a
// separate lens from AdMetric.FilePerformanceBucket.
func RelativeBuckets(metrics []domain.AdMetric) []domain.RelativeBucket {
	n := len(metrics)
	if n == 0 {
		return nil
	}

	minRoas, maxRoas := metrics[0].ROAS, metrics[0].ROAS
	minPurch, maxPurch := float64(metrics[0].Purchases), float64(metrics[0].Purchases)
	for _, m := range metrics[1:] {
		minRoas = math.Min(minRoas, m.ROAS)
		maxRoas = math.Max(maxRoas, m.ROAS)
		minPurch = math.Min(minPurch, float64(m.Purchases))
		maxPurch = math.Max(maxPurch, float64(m.Purchases))
	}

	normalize := func(v, min, max float64) float64 {
		if max == min {
			return 0.5
		}
		return (v - min) / (max - min)
	}

	order := make([]int, n)
	combined := make([]float64, n)
	for i, m := range metrics {
		order[i] = i
		combined[i] = relativeRoasWeight*normalize(m.ROAS, minRoas, maxRoas) +
			relativePurchaseWeight*normalize(float64(m.Purchases), minPurch, maxPurch)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return combined[order[a]] > combined[order[b]]
	})

	winnerCount := int(math.Ceil(0.15 * float64(n)))
	if winnerCount < 1 {
		winnerCount = 1
	}
	if winnerCount > 3 {
		winnerCount = 3
	}
	poorCount := int(math.Ceil(0.35 * float64(n)))

	buckets := make([]domain.RelativeBucket, n)
	for i := range buckets {
		buckets[i] = domain.RelativeSteady
	}

	isWinner := make(map[int]bool, winnerCount)
	for _, idx := range order[:winnerCount] {
		buckets[idx] = domain.RelativeWinner
		isWinner[idx] = true
	}
	// On small datasets the bottom slice can reach into the winner slice;
	// winner membership takes precedence.
	for _, idx := range order[n-poorCount:] {
		if !isWinner[idx] {
			buckets[idx] = domain.RelativeNeedsCare
		}
	}

	return buckets
}
