package usecase

import (
	"testing"

	"adscope/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendAction(t *testing.T) {
	cases := []struct {
		name      string
		bucket    domain.PerformanceBucket
		spend     float64
		purchases int
		roas      float64
		cpa       *float64
		roasGoal  *float64
		cpaGoal   *float64
		want      domain.Action
	}{
		{
			name:   "hard pause overrides poor rules",
			bucket: domain.BucketPoor, spend: 2500, purchases: 0,
			want: domain.ActionPause,
		},
		{
			name:   "hard pause needs zero purchases",
			bucket: domain.BucketPoor, spend: 2500, purchases: 1,
			want: domain.ActionConsiderPausing,
		},
		{
			name:   "winner without goals scales",
			bucket: domain.BucketWinner, spend: 3000, purchases: 8, roas: 3.2, cpa: floatPtr(250),
			want: domain.ActionScale,
		},
		{
			name:   "winner meeting both goals scales",
			bucket: domain.BucketWinner, spend: 3000, purchases: 8, roas: 3.2, cpa: floatPtr(250),
			roasGoal: floatPtr(3), cpaGoal: floatPtr(300),
			want: domain.ActionScale,
		},
		{
			name:   "winner missing roas goal scales lightly",
			bucket: domain.BucketWinner, spend: 3000, purchases: 8, roas: 2.5, cpa: floatPtr(250),
			roasGoal: floatPtr(3),
			want: domain.ActionLightScale,
		},
		{
			name:   "winner without cpa fails a cpa goal",
			bucket: domain.BucketWinner, spend: 3000, purchases: 0, roas: 3.2,
			cpaGoal: floatPtr(300),
			want: domain.ActionLightScale,
		},
		{
			name:   "above average under spend threshold",
			bucket: domain.BucketAboveAverage, spend: 1500, purchases: 3, roas: 1.8, cpa: floatPtr(500),
			want: domain.ActionFeedMoreData,
		},
		{
			name:   "above average over spend threshold",
			bucket: domain.BucketAboveAverage, spend: 2500, purchases: 3, roas: 1.8, cpa: floatPtr(800),
			want: domain.ActionOptimize,
		},
		{
			name:   "average low spend with purchases",
			bucket: domain.BucketAverage, spend: 1000, purchases: 2, roas: 1.2, cpa: floatPtr(500),
			want: domain.ActionFeedMoreData,
		},
		{
			name:   "average low spend without purchases",
			bucket: domain.BucketAverage, spend: 1000, purchases: 0, roas: 0,
			want: domain.ActionOptimize,
		},
		{
			name:   "below average high spend",
			bucket: domain.BucketBelowAverage, spend: 2500, purchases: 1, roas: 0.8, cpa: floatPtr(2500),
			want: domain.ActionScaleDown,
		},
		{
			name:   "below average low spend",
			bucket: domain.BucketBelowAverage, spend: 800, purchases: 1, roas: 0.8, cpa: floatPtr(800),
			want: domain.ActionOptimize,
		},
		{
			name:   "poor low spend",
			bucket: domain.BucketPoor, spend: 400, purchases: 0,
			want: domain.ActionTestNew,
		},
		{
			name:   "poor mid spend",
			bucket: domain.BucketPoor, spend: 1500, purchases: 1, roas: 0.2, cpa: floatPtr(1500),
			want: domain.ActionConsiderPausing,
		},
		{
			name:   "unknown bucket falls back to review",
			bucket: domain.PerformanceBucket("Mystery"), spend: 100,
			want: domain.ActionReview,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RecommendAction(tc.bucket, tc.spend, tc.purchases, tc.roas, tc.cpa, tc.roasGoal, tc.cpaGoal)
			assert.Equal(t, tc.want, got)
			// Same input, same action, every time.
			assert.Equal(t, got, RecommendAction(tc.bucket, tc.spend, tc.purchases, tc.roas, tc.cpa, tc.roasGoal, tc.cpaGoal))
		})
	}
}

func TestActionRationale(t *testing.T) {
	for _, action := range []domain.Action{
		domain.ActionPause, domain.ActionScale, domain.ActionLightScale,
		domain.ActionFeedMoreData, domain.ActionOptimize, domain.ActionScaleDown,
		domain.ActionTestNew, domain.ActionConsiderPausing, domain.ActionReview,
	} {
		assert.NotEmpty(t, action.Rationale(), "missing rationale for %q", action)
	}
}

func TestParseGoal(t *testing.T) {
	cases := []struct {
		raw  string
		want *float64
	}{
		{"3", floatPtr(3)},
		{" 2.5 ", floatPtr(2.5)},
		{"2,5", floatPtr(2.5)},
		{"", nil},
		{"abc", nil},
		{"0", nil},
		{"-1", nil},
	}
	for _, tc := range cases {
		got := ParseGoal(tc.raw)
		if tc.want == nil {
			assert.Nil(t, got, "input %q", tc.raw)
			continue
		}
		require.NotNil(t, got, "input %q", tc.raw)
		assert.InDelta(t, *tc.want, *got, 1e-9)
	}
}

func TestEvaluateScenario(t *testing.T) {
	metrics := []domain.AdMetric{
		ad("both", "s", 1000, 5, 3.5),      // cpa 200
		ad("roas only", "s", 500, 1, 4.0),  // cpa 500
		ad("cpa only", "s", 200, 1, 1.0),   // cpa 200
		ad("neither", "s", 800, 1, 0.5),    // cpa 800
		ad("no purchases", "s", 300, 0, 9), // roas ok, no valid cpa
	}

	report := EvaluateScenario(metrics, floatPtr(3), floatPtr(300))
	require.True(t, report.Enabled)

	names := func(list []domain.AdMetric) []string {
		var out []string
		for _, m := range list {
			out = append(out, m.AdName)
		}
		return out
	}
	assert.Equal(t, []string{"both"}, names(report.MeetsBoth))
	assert.Equal(t, []string{"roas only", "no purchases"}, names(report.MeetsRoasOnly))
	assert.Equal(t, []string{"cpa only"}, names(report.MeetsCpaOnly))
	assert.Equal(t, []string{"neither"}, names(report.MissesBoth))

	// Every ad lands in exactly one partition.
	total := len(report.MeetsBoth) + len(report.MeetsRoasOnly) + len(report.MeetsCpaOnly) + len(report.MissesBoth)
	assert.Equal(t, len(metrics), total)

	assert.InDelta(t, 2800, report.TotalSpend, 1e-9)
	assert.InDelta(t, 1000, report.TotalSpendMeetsGoals, 1e-9)
	assert.InDelta(t, 1800, report.TotalSpendMissesGoals, 1e-9)
}

func TestEvaluateScenarioSingleGoal(t *testing.T) {
	metrics := []domain.AdMetric{
		ad("hit", "s", 100, 2, 3.0),
		ad("miss", "s", 100, 2, 1.0),
	}

	report := EvaluateScenario(metrics, floatPtr(2), nil)
	require.True(t, report.Enabled)
	assert.Len(t, report.MeetsBoth, 1)
	// An unset CPA goal counts as met, so a ROAS miss lands in cpa-only.
	assert.Empty(t, report.MeetsRoasOnly)
	assert.Len(t, report.MeetsCpaOnly, 1)
	assert.Empty(t, report.MissesBoth)
}

func TestEvaluateScenarioDisabled(t *testing.T) {
	metrics := []domain.AdMetric{ad("a", "s", 100, 1, 1)}

	assert.False(t, EvaluateScenario(metrics, nil, nil).Enabled)
	assert.False(t, EvaluateScenario(nil, floatPtr(2), nil).Enabled)
}
