package usecase

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"adscope/internal/domain"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"
)

// UnknownAdSet labels ads whose export row carried no ad-set name.
const UnknownAdSet = "Unknown ad set"

// MetricFilter holds the table filter thresholds. Nil means "not set".
type MetricFilter struct {
	MinROAS      *float64
	MaxCPA       *float64
	MinPurchases *int
	Bucket       domain.PerformanceBucket
	Campaign     string
}

// AnalysisService computes every derived view over the enriched datasets:
// filtering, sorting, ad-set aggregation, period comparison, summaries and
// insight sentences. All methods are pure over their inputs and safe to
// re-run per request.
type AnalysisService struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewAnalysisService(logger *logger.Logger, metrics *metrics.Metrics) *AnalysisService {
	return &AnalysisService{
		logger:  logger,
		metrics: metrics,
	}
}

// FilterMetrics applies the threshold filters. An ad with no CPA is never
// excluded by a max-CPA filter; "no data" is not "too expensive".
func (s *AnalysisService) FilterMetrics(list []domain.AdMetric, filter MetricFilter) []domain.AdMetric {
	filtered := make([]domain.AdMetric, 0, len(list))
	for _, m := range list {
		if filter.MinROAS != nil && m.ROAS < *filter.MinROAS {
			continue
		}
		if filter.MaxCPA != nil && m.CPA != nil && *m.CPA > *filter.MaxCPA {
			continue
		}
		if filter.MinPurchases != nil && m.Purchases < *filter.MinPurchases {
			continue
		}
		if filter.Bucket != "" && m.FilePerformanceBucket != filter.Bucket {
			continue
		}
		if filter.Campaign != "" && m.CampaignName != filter.Campaign {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered
}

// Sort fields accepted by SortMetrics.
const (
	SortByROAS      = "roas"
	SortByCPA       = "cpa"
	SortByPurchases = "purchases"
	SortByScore     = "performance_score"
)

// SortMetrics returns a sorted copy. Ads without a CPA always sort as the
// most expensive so they land last when sorting CPA ascending. Unknown sort
// fields leave the input order untouched.
func (s *AnalysisService) SortMetrics(list []domain.AdMetric, field, direction string) []domain.AdMetric {
	accessor := sortAccessor(field)
	if accessor == nil {
		return list
	}

	sorted := make([]domain.AdMetric, len(list))
	copy(sorted, list)

	asc := direction == "asc"
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := accessor(sorted[i]), accessor(sorted[j])
		if asc {
			return a < b
		}
		return a > b
	})
	return sorted
}

func sortAccessor(field string) func(domain.AdMetric) float64 {
	switch field {
	case SortByROAS:
		return func(m domain.AdMetric) float64 { return m.ROAS }
	case SortByCPA:
		return func(m domain.AdMetric) float64 {
			if m.CPA == nil {
				return math.MaxFloat64
			}
			return *m.CPA
		}
	case SortByPurchases:
		return func(m domain.AdMetric) float64 { return float64(m.Purchases) }
	case SortByScore:
		return func(m domain.AdMetric) float64 { return float64(m.PerformanceScore) }
	default:
		return nil
	}
}

// BuildComparison joins the current period against the previous one by
// metric key. Ads without a key, and ads without a match, produce no entry;
// consumers must treat absence as "no prior data", not as zero change.
func (s *AnalysisService) BuildComparison(current, previous []domain.AdMetric) map[string]domain.ComparisonEntry {
	if len(previous) == 0 {
		return map[string]domain.ComparisonEntry{}
	}

	previousByKey := make(map[string]domain.AdMetric, len(previous))
	for _, m := range previous {
		if key := m.MetricKey(); key != "" {
			previousByKey[key] = m
		}
	}

	comparison := make(map[string]domain.ComparisonEntry)
	for _, m := range current {
		key := m.MetricKey()
		if key == "" {
			continue
		}
		prev, ok := previousByKey[key]
		if !ok {
			continue
		}
		comparison[key] = domain.ComparisonEntry{
			RoasChangePct:   domain.PercentChange(m.ROAS, prev.ROAS),
			PurchasesChange: m.Purchases - prev.Purchases,
		}
	}

	s.metrics.RecordAnalysisQuery("comparison")
	s.logger.WithFields(map[string]any{
		"current_ads":  len(current),
		"previous_ads": len(previous),
		"matched":      len(comparison),
	}).Debug("Built period comparison")

	return comparison
}

// Summarize rolls one period up to its headline numbers. Average ROAS only
// counts ads that measured any return; average CPA only counts ads that have
// one.
func (s *AnalysisService) Summarize(list []domain.AdMetric) domain.PeriodSummary {
	summary := domain.PeriodSummary{AdCount: len(list)}

	var roasSum, cpaSum float64
	var roasCount, cpaCount int

	for _, m := range list {
		summary.TotalSpend += m.AmountSpent
		summary.TotalPurchases += m.Purchases
		if m.ROAS > 0 {
			roasSum += m.ROAS
			roasCount++
		}
		if m.CPA != nil {
			cpaSum += *m.CPA
			cpaCount++
		}
	}

	if roasCount > 0 {
		avg := roasSum / float64(roasCount)
		summary.AvgROAS = &avg
	}
	if cpaCount > 0 {
		avg := cpaSum / float64(cpaCount)
		summary.AvgCPA = &avg
	}
	return summary
}

// AggregateAdSets groups the (already filtered) ads by ad-set name and
// re-scores each group with the same formulas used per ad. Groups keep
// first-appearance order so output is stable for equal input.
func (s *AnalysisService) AggregateAdSets(list []domain.AdMetric) []domain.AdSetAggregate {
	type accumulator struct {
		adCount   int
		spend     float64
		purchases int
		roasSum   float64
		roasCount int
		cpaSum    float64
		cpaCount  int
	}

	var order []string
	groups := make(map[string]*accumulator)

	for _, m := range list {
		name := m.AdSetName
		if name == "" {
			name = UnknownAdSet
		}
		acc, ok := groups[name]
		if !ok {
			acc = &accumulator{}
			groups[name] = acc
			order = append(order, name)
		}

		acc.adCount++
		acc.spend += m.AmountSpent
		acc.purchases += m.Purchases
		if m.ROAS > 0 {
			acc.roasSum += m.ROAS
			acc.roasCount++
		}
		if m.CPA != nil && *m.CPA > 0 {
			acc.cpaSum += *m.CPA
			acc.cpaCount++
		}
	}

	aggregates := make([]domain.AdSetAggregate, 0, len(order))
	for _, name := range order {
		acc := groups[name]

		avgRoas := 0.0
		if acc.roasCount > 0 {
			avgRoas = acc.roasSum / float64(acc.roasCount)
		}

		// The true rate spend/purchases beats averaging already-averaged
		// per-ad CPAs whenever purchase data exists.
		aggregateCpa := 0.0
		if acc.purchases > 0 {
			aggregateCpa = acc.spend / float64(acc.purchases)
		} else if acc.cpaCount > 0 {
			aggregateCpa = acc.cpaSum / float64(acc.cpaCount)
		}

		var cpaForScore *float64
		if aggregateCpa > 0 {
			cpaForScore = &aggregateCpa
		}
		score := domain.PerformanceScore(avgRoas, cpaForScore, acc.purchases)

		aggregates = append(aggregates, domain.AdSetAggregate{
			AdSetName:             name,
			AdCount:               acc.adCount,
			AmountSpent:           acc.spend,
			Purchases:             acc.purchases,
			AvgROAS:               avgRoas,
			AggregateCPA:          aggregateCpa,
			PerformanceScore:      score,
			FilePerformanceBucket: domain.BucketFromScore(score),
			MetaRating:            domain.MetaRatingFromROAS(avgRoas),
		})
	}

	s.metrics.RecordAnalysisQuery("ad_set_aggregation")
	return aggregates
}

// CampaignNames lists the distinct campaign names in a dataset, sorted.
func (s *AnalysisService) CampaignNames(list []domain.AdMetric) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range list {
		if m.CampaignName != "" && !seen[m.CampaignName] {
			seen[m.CampaignName] = true
			names = append(names, m.CampaignName)
		}
	}
	sort.Strings(names)
	return names
}

// GroupStats rolls a bucket of ads up for the insight sentences.
func (s *AnalysisService) GroupStats(items []domain.AdMetric) domain.GroupStats {
	stats := domain.GroupStats{Count: len(items)}
	if len(items) == 0 {
		return stats
	}

	var roasSum, cpaSum float64
	for _, m := range items {
		stats.TotalSpend += m.AmountSpent
		roasSum += m.ROAS
		if m.CPA != nil {
			cpaSum += *m.CPA
		}
	}
	if roasSum > 0 {
		avg := roasSum / float64(len(items))
		stats.AvgROAS = &avg
	}
	if cpaSum > 0 {
		avg := cpaSum / float64(len(items))
		stats.AvgCPA = &avg
	}
	return stats
}

// Insights turns the filtered dataset and the period comparison into the
// short observations shown above the table.
func (s *AnalysisService) Insights(filtered []domain.AdMetric, current, previous domain.PeriodSummary, hasPrevious bool) []string {
	if len(filtered) == 0 {
		return nil
	}

	var insights []string

	var winners, strong, poor, wasted []domain.AdMetric
	for _, m := range filtered {
		switch m.FilePerformanceBucket {
		case domain.BucketWinner:
			winners = append(winners, m)
		case domain.BucketAboveAverage:
			strong = append(strong, m)
		case domain.BucketPoor:
			poor = append(poor, m)
		}
		if m.AmountSpent > 0 && m.Purchases == 0 {
			wasted = append(wasted, m)
		}
	}

	if stats := s.GroupStats(winners); stats.Count > 0 {
		avgRoas := "N/A"
		if stats.AvgROAS != nil {
			avgRoas = fmt.Sprintf("%.2f", *stats.AvgROAS)
		}
		insights = append(insights, fmt.Sprintf(
			"You have %d clear winner(s) with total spend of %.2f and average ROAS of %s. Consider scaling budget on these carefully.",
			stats.Count, stats.TotalSpend, avgRoas))
	}
	if len(strong) > 0 {
		insights = append(insights, fmt.Sprintf(
			"%d ad(s) are above average. Test more variants based on these, or move budget here from weaker ads.",
			len(strong)))
	}
	if stats := s.GroupStats(wasted); stats.TotalSpend > 0 {
		insights = append(insights, fmt.Sprintf(
			"About %.2f is spent on ads without purchases this period. Consider pausing or changing these.",
			stats.TotalSpend))
	}
	if len(poor) > 0 {
		insights = append(insights, fmt.Sprintf(
			"%d ad(s) fall in the Poor category. They drag the total result down and should be improved or phased out.",
			len(poor)))
	}

	if hasPrevious {
		insights = append(insights, periodChangeInsight("Spend", domain.PercentChange(current.TotalSpend, previous.TotalSpend))...)
		insights = append(insights, periodChangeInsight("Purchases", domain.PercentChange(float64(current.TotalPurchases), float64(previous.TotalPurchases)))...)
		if current.AvgROAS != nil && previous.AvgROAS != nil {
			insights = append(insights, periodChangeInsight("ROAS", domain.PercentChange(*current.AvgROAS, *previous.AvgROAS))...)
		}
	}

	return insights
}

func periodChangeInsight(label string, change *float64) []string {
	if change == nil {
		return nil
	}
	direction := "up"
	if *change < 0 {
		direction = "down"
	}
	return []string{fmt.Sprintf("%s is %s %.1f%% versus the previous period.", label, direction, math.Abs(*change))}
}

// ParseBucket validates a bucket filter value coming from the query string.
// Unknown values mean "no bucket filter".
func ParseBucket(raw string) domain.PerformanceBucket {
	switch domain.PerformanceBucket(strings.TrimSpace(raw)) {
	case domain.BucketWinner:
		return domain.BucketWinner
	case domain.BucketAboveAverage:
		return domain.BucketAboveAverage
	case domain.BucketAverage:
		return domain.BucketAverage
	case domain.BucketBelowAverage:
		return domain.BucketBelowAverage
	case domain.BucketPoor:
		return domain.BucketPoor
	default:
		return ""
	}
}
