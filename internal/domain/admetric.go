package domain

import "strings"

// RawRow is one uploaded CSV row as delivered by the upload boundary:
// original column header mapped to the raw string value, no type coercion.
type RawRow map[string]string

type MetaRating string

const (
	RatingExcellent   MetaRating = "Excellent vs Meta"
	RatingGood        MetaRating = "Good vs Meta"
	RatingOK          MetaRating = "OK vs Meta"
	RatingWeak        MetaRating = "Weak vs Meta"
	RatingNoPurchases MetaRating = "No purchases"
)

// PerformanceBucket is the absolute classification computed from the
// performance score. It is scoped to one uploaded file; the winner fallback
// means the same score can land in different buckets across uploads.
type PerformanceBucket string

const (
	BucketWinner       PerformanceBucket = "Winner"
	BucketAboveAverage PerformanceBucket = "Above average"
	BucketAverage      PerformanceBucket = "Average"
	BucketBelowAverage PerformanceBucket = "Below average"
	BucketPoor         PerformanceBucket = "Poor"
)

// RelativeBucket is the dataset-relative classification lens. It coexists
// with PerformanceBucket and the two must never be merged.
type RelativeBucket string

const (
	RelativeWinner    RelativeBucket = "Winner"
	RelativeSteady    RelativeBucket = "Steady"
	RelativeNeedsCare RelativeBucket = "Needs care"
)

// AdMetric is the canonical record for one retained ad row.
type AdMetric struct {
	AdName       string `json:"ad_name"`
	AdSetName    string `json:"ad_set_name"`
	CampaignName string `json:"campaign_name"`

	AmountSpent float64  `json:"amount_spent"`
	Purchases   int      `json:"purchases"`
	ROAS        float64  `json:"roas"`
	CPA         *float64 `json:"cpa"` // nil when purchases == 0

	Reach         int     `json:"reach"`
	Impressions   int     `json:"impressions"`
	Frequency     float64 `json:"frequency"`
	CPM           float64 `json:"cpm"`
	CostPerResult float64 `json:"cost_per_result"`

	QualityRanking        string `json:"quality_ranking,omitempty"`
	EngagementRateRanking string `json:"engagement_rate_ranking,omitempty"`
	ConversionRateRanking string `json:"conversion_rate_ranking,omitempty"`

	PerformanceScore      int               `json:"performance_score"`
	MetaRating            MetaRating        `json:"meta_rating"`
	FilePerformanceBucket PerformanceBucket `json:"file_performance_bucket"`

	// WinnerByFallback marks ads promoted to Winner because the file had
	// none; the only post-enrichment mutation an AdMetric receives.
	WinnerByFallback bool `json:"winner_by_fallback,omitempty"`
}

// MetricKey derives the natural key used to match an ad across two uploaded
// periods. Returns "" when both name fields are empty, in which case the
// record cannot participate in comparison. The join strategy lives only here
// so it can move to an explicit ad ID without touching the comparator.
func (m AdMetric) MetricKey() string {
	adName := strings.ToLower(strings.TrimSpace(m.AdName))
	adSet := strings.ToLower(strings.TrimSpace(m.AdSetName))
	if adName == "" && adSet == "" {
		return ""
	}
	return adName + "|||" + adSet
}
