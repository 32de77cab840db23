package domain

// ScenarioReport partitions a filtered dataset against the user's target
// ROAS and max CPA goals. The four slices are disjoint and together cover
// the whole input. Strictly a reporting aid; it never removes ads from the
// displayed table.
type ScenarioReport struct {
	Enabled bool `json:"enabled"`

	MeetsBoth     []AdMetric `json:"meets_both,omitempty"`
	MeetsRoasOnly []AdMetric `json:"meets_roas_only,omitempty"`
	MeetsCpaOnly  []AdMetric `json:"meets_cpa_only,omitempty"`
	MissesBoth    []AdMetric `json:"misses_both,omitempty"`

	TotalSpend            float64 `json:"total_spend"`
	TotalSpendMeetsGoals  float64 `json:"total_spend_meets_goals"`
	TotalSpendMissesGoals float64 `json:"total_spend_misses_goals"`
}
