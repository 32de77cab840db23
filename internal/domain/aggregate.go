package domain

// AdSetAggregate is the ad-set level rollup of a filtered dataset. Its
// score, bucket and rating are recomputed from the aggregate values with the
// same formulas used for individual ads, so ad sets sort and display next to
// ads without special cases.
type AdSetAggregate struct {
	AdSetName   string  `json:"ad_set_name"`
	AdCount     int     `json:"ad_count"`
	AmountSpent float64 `json:"amount_spent"`
	Purchases   int     `json:"purchases"`

	// AvgROAS is the arithmetic mean over member ads with roas > 0.
	AvgROAS float64 `json:"avg_roas"`

	// AggregateCPA prefers the true rate spend/purchases; it falls back to
	// the mean of per-ad CPAs only when the group has no purchases.
	AggregateCPA float64 `json:"aggregate_cpa"`

	PerformanceScore      int               `json:"performance_score"`
	FilePerformanceBucket PerformanceBucket `json:"file_performance_bucket"`
	MetaRating            MetaRating        `json:"meta_rating"`
}

// ComparisonEntry holds the period-over-period deltas for one ad, keyed by
// its metric key. Absence of an entry means "no prior data", which consumers
// must keep distinct from a zero delta.
type ComparisonEntry struct {
	RoasChangePct   *float64 `json:"roas_change_pct"` // nil when previous ROAS was 0
	PurchasesChange int      `json:"purchases_change"`
}

// PeriodSummary is the dataset-level rollup shown for each uploaded period.
type PeriodSummary struct {
	AdCount        int      `json:"ad_count"`
	TotalSpend     float64  `json:"total_spend"`
	TotalPurchases int      `json:"total_purchases"`
	AvgROAS        *float64 `json:"avg_roas"` // nil when no ad had roas > 0
	AvgCPA         *float64 `json:"avg_cpa"`  // nil when no ad had a CPA
}

// GroupStats backs the insight sentences for a bucket of ads.
type GroupStats struct {
	Count      int
	TotalSpend float64
	AvgROAS    *float64
	AvgCPA     *float64
}
