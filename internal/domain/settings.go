package domain

// AnalysisSettings is the flat settings blob the dashboard persists between
// sessions: view mode, scenario goals and filter thresholds. Goal and filter
// values stay free-text strings; they are parsed tolerantly at use time so a
// stored "1,5" keeps working.
type AnalysisSettings struct {
	ViewMode          string `json:"view_mode"`
	GoalROAS          string `json:"goal_roas"`
	MaxCPAScenario    string `json:"max_cpa_scenario"`
	MinROAS           string `json:"min_roas"`
	MinPurchases      string `json:"min_purchases"`
	PerformanceFilter string `json:"performance_filter"`
}

// DefaultAnalysisSettings is what a missing or corrupt settings blob falls
// back to.
func DefaultAnalysisSettings() AnalysisSettings {
	return AnalysisSettings{ViewMode: "ads"}
}
