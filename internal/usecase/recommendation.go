package usecase

import (
	"strings"

	"adscope/internal/domain"

	"github.com/shopspring/decimal"
)

// RecommendAction maps one classified ad (or ad-set aggregate) to its
// action. The rules are evaluated in order and the first match wins; the
// hard-pause override outranks everything, including scenario goals.
func RecommendAction(
	bucket domain.PerformanceBucket,
	amountSpent float64,
	purchases int,
	roas float64,
	cpa *float64,
	roasGoal, cpaGoal *float64,
) domain.Action {
	if bucket == domain.BucketPoor && amountSpent > 2000 && purchases == 0 {
		return domain.ActionPause
	}

	switch bucket {
	case domain.BucketWinner:
		roasOk := roasGoal == nil || roas >= *roasGoal
		// An ad without a valid CPA can never pass a CPA goal.
		cpaOk := cpaGoal == nil || (purchases > 0 && cpa != nil && *cpa > 0 && *cpa <= *cpaGoal)
		if roasOk && cpaOk {
			return domain.ActionScale
		}
		return domain.ActionLightScale

	case domain.BucketAboveAverage:
		if amountSpent < 2000 {
			return domain.ActionFeedMoreData
		}
		return domain.ActionOptimize

	case domain.BucketAverage:
		if amountSpent < 1500 && purchases > 0 {
			return domain.ActionFeedMoreData
		}
		return domain.ActionOptimize

	case domain.BucketBelowAverage:
		if amountSpent > 2000 {
			return domain.ActionScaleDown
		}
		return domain.ActionOptimize

	case domain.BucketPoor:
		if amountSpent < 1000 {
			return domain.ActionTestNew
		}
		return domain.ActionConsiderPausing
	}

	return domain.ActionReview
}

// ParseGoal parses a free-text scenario goal. Comma decimals are accepted;
// non-numeric, zero or negative input means "goal not set", never an error.
func ParseGoal(raw string) *float64 {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil
	}
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	v, _ := d.Float64()
	if v <= 0 {
		return nil
	}
	return &v
}

// EvaluateScenario splits the filtered dataset into four disjoint partitions
// against the target ROAS and max CPA goals and totals spend per side. With
// neither goal set the feature is disabled.
func EvaluateScenario(metrics []domain.AdMetric, roasGoal, cpaGoal *float64) domain.ScenarioReport {
	if len(metrics) == 0 || (roasGoal == nil && cpaGoal == nil) {
		return domain.ScenarioReport{}
	}

	report := domain.ScenarioReport{Enabled: true}

	for _, m := range metrics {
		report.TotalSpend += m.AmountSpent

		roasOk := roasGoal == nil || m.ROAS >= *roasGoal
		hasValidCpa := m.Purchases > 0 && m.CPA != nil && *m.CPA > 0
		cpaOk := cpaGoal == nil || (hasValidCpa && *m.CPA <= *cpaGoal)

		switch {
		case roasOk && cpaOk:
			report.MeetsBoth = append(report.MeetsBoth, m)
			report.TotalSpendMeetsGoals += m.AmountSpent
		case roasOk:
			report.MeetsRoasOnly = append(report.MeetsRoasOnly, m)
		case cpaOk:
			report.MeetsCpaOnly = append(report.MeetsCpaOnly, m)
		default:
			report.MissesBoth = append(report.MissesBoth, m)
		}
	}

	report.TotalSpendMissesGoals = report.TotalSpend - report.TotalSpendMeetsGoals
	return report
}
