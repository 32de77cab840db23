package delivery

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"adscope/internal/domain"
	"adscope/internal/infrastructure"
	"adscope/internal/usecase"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Prometheus collectors register against the default registry, so the whole
// test binary shares one Metrics instance.
var (
	testLogger  = logger.New("error")
	testMetrics = metrics.New()
)

const currentCSV = "Ad name,Ad set name,Campaign name,Amount spent (NOK),Purchases,Purchase ROAS (return on ad spend)\n" +
	"Winner Ad,Alpha,Spring,1000,5,3.5\n" +
	"Zero Ad,Beta,Spring,500,0,0\n"

const previousCSV = "Ad name,Ad set name,Campaign name,Amount spent (NOK),Purchases,Purchase ROAS (return on ad spend)\n" +
	"Winner Ad,Alpha,Spring,800,2,2.0\n"

func newTestEngine(t *testing.T, maxUploadBytes int64) *gin.Engine {
	t.Helper()

	datasets := infrastructure.NewDatasetRepository(testLogger)
	settings := infrastructure.NewSettingsRepository(
		filepath.Join(t.TempDir(), "settings.json"), testLogger)
	enricher := usecase.NewEnrichService(testLogger, testMetrics)
	uploads := usecase.NewUploadService(datasets, enricher, infrastructure.ReadRows, testLogger, testMetrics)
	analysis := usecase.NewAnalysisService(testLogger, testMetrics)

	handlers := NewHTTPHandlers(uploads, analysis, datasets, settings, testLogger, testMetrics, maxUploadBytes)
	router := NewHTTPRouter(handlers, RouterConfig{
		RequestTimeout:   10 * time.Second,
		UploadRatePerSec: 1000,
		UploadRateBurst:  1000,
	}, testLogger, testMetrics)
	return router.SetupRoutes()
}

func uploadCSV(t *testing.T, engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "export.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, engine *gin.Engine, path string, out any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestUploadAndGetAds(t *testing.T) {
	engine := newTestEngine(t, 1<<20)

	rec := uploadCSV(t, engine, "/api/v1/upload/current", currentCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = uploadCSV(t, engine, "/api/v1/upload/previous", previousCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data []struct {
			AdName            string                  `json:"ad_name"`
			PerformanceScore  int                     `json:"performance_score"`
			Bucket            string                  `json:"file_performance_bucket"`
			CPA               *float64                `json:"cpa"`
			RecommendedAction string                  `json:"recommended_action"`
			ActionRationale   string                  `json:"action_rationale"`
			RelativeBucket    string                  `json:"relative_bucket"`
			Comparison        *domain.ComparisonEntry `json:"comparison"`
		} `json:"data"`
		Total     int      `json:"total"`
		Campaigns []string `json:"campaigns"`
	}
	getJSON(t, engine, "/api/v1/ads", &resp)

	require.Equal(t, 2, resp.Total)
	assert.Equal(t, []string{"Spring"}, resp.Campaigns)

	byName := map[string]int{}
	for i, row := range resp.Data {
		byName[row.AdName] = i
	}

	winner := resp.Data[byName["Winner Ad"]]
	assert.Equal(t, 100, winner.PerformanceScore)
	assert.Equal(t, "Winner", winner.Bucket)
	require.NotNil(t, winner.CPA)
	assert.InDelta(t, 200, *winner.CPA, 1e-9)
	assert.Equal(t, "Scale", winner.RecommendedAction)
	assert.NotEmpty(t, winner.ActionRationale)
	assert.Equal(t, "Winner", winner.RelativeBucket)
	require.NotNil(t, winner.Comparison)
	require.NotNil(t, winner.Comparison.RoasChangePct)
	assert.InDelta(t, 75, *winner.Comparison.RoasChangePct, 1e-9)
	assert.Equal(t, 3, winner.Comparison.PurchasesChange)

	zero := resp.Data[byName["Zero Ad"]]
	assert.Equal(t, "Poor", zero.Bucket)
	assert.Nil(t, zero.CPA)
	assert.Equal(t, "Test new", zero.RecommendedAction)
	assert.Equal(t, "Needs care", zero.RelativeBucket)
	assert.Nil(t, zero.Comparison)
}

func TestGetAdsFiltersAndSorting(t *testing.T) {
	engine := newTestEngine(t, 1<<20)
	uploadCSV(t, engine, "/api/v1/upload/current", currentCSV)

	var resp struct {
		Data []struct {
			AdName string `json:"ad_name"`
		} `json:"data"`
		Total int `json:"total"`
	}

	getJSON(t, engine, "/api/v1/ads?min_roas=1", &resp)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Winner Ad", resp.Data[0].AdName)

	getJSON(t, engine, "/api/v1/ads?sort=roas&direction=asc", &resp)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "Zero Ad", resp.Data[0].AdName)
}

func TestGetAdsWithoutDataset(t *testing.T) {
	engine := newTestEngine(t, 1<<20)

	var resp struct {
		Data  []json.RawMessage `json:"data"`
		Total int               `json:"total"`
	}
	getJSON(t, engine, "/api/v1/ads", &resp)
	assert.Zero(t, resp.Total)
	assert.Empty(t, resp.Data)
}

func TestGetAdSets(t *testing.T) {
	engine := newTestEngine(t, 1<<20)
	uploadCSV(t, engine, "/api/v1/upload/current", currentCSV)

	var resp struct {
		Data []struct {
			AdSetName         string  `json:"ad_set_name"`
			AdCount           int     `json:"ad_count"`
			AmountSpent       float64 `json:"amount_spent"`
			AggregateCPA      float64 `json:"aggregate_cpa"`
			RecommendedAction string  `json:"recommended_action"`
		} `json:"data"`
		Total int `json:"total"`
	}
	getJSON(t, engine, "/api/v1/adsets", &resp)

	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "Alpha", resp.Data[0].AdSetName)
	assert.Equal(t, 1, resp.Data[0].AdCount)
	assert.InDelta(t, 200, resp.Data[0].AggregateCPA, 1e-9)
	assert.Equal(t, "Scale", resp.Data[0].RecommendedAction)
	assert.Equal(t, "Beta", resp.Data[1].AdSetName)
}

func TestGetSummary(t *testing.T) {
	engine := newTestEngine(t, 1<<20)
	uploadCSV(t, engine, "/api/v1/upload/current", currentCSV)
	uploadCSV(t, engine, "/api/v1/upload/previous", previousCSV)

	var resp struct {
		HasCurrent  bool                 `json:"has_current"`
		HasPrevious bool                 `json:"has_previous"`
		Current     domain.PeriodSummary `json:"current"`
		Previous    domain.PeriodSummary `json:"previous"`
		SpendChange *float64             `json:"spend_change_pct"`
	}
	getJSON(t, engine, "/api/v1/summary", &resp)

	assert.True(t, resp.HasCurrent)
	assert.True(t, resp.HasPrevious)
	assert.Equal(t, 2, resp.Current.AdCount)
	assert.InDelta(t, 1500, resp.Current.TotalSpend, 1e-9)
	assert.Equal(t, 1, resp.Previous.AdCount)
	require.NotNil(t, resp.SpendChange)
	assert.InDelta(t, 87.5, *resp.SpendChange, 1e-9)
}

func TestGetScenario(t *testing.T) {
	engine := newTestEngine(t, 1<<20)
	uploadCSV(t, engine, "/api/v1/upload/current", currentCSV)

	var resp struct {
		Scenario domain.ScenarioReport `json:"scenario"`
	}
	getJSON(t, engine, "/api/v1/scenario?roas_goal=3&cpa_goal=300", &resp)

	require.True(t, resp.Scenario.Enabled)
	require.Len(t, resp.Scenario.MeetsBoth, 1)
	assert.Equal(t, "Winner Ad", resp.Scenario.MeetsBoth[0].AdName)
	require.Len(t, resp.Scenario.MissesBoth, 1)
	assert.InDelta(t, 1500, resp.Scenario.TotalSpend, 1e-9)
	assert.InDelta(t, 1000, resp.Scenario.TotalSpendMeetsGoals, 1e-9)
	assert.InDelta(t, 500, resp.Scenario.TotalSpendMissesGoals, 1e-9)

	// Without goals the feature stays off.
	getJSON(t, engine, "/api/v1/scenario", &resp)
	assert.False(t, resp.Scenario.Enabled)
}

func TestGetInsights(t *testing.T) {
	engine := newTestEngine(t, 1<<20)
	uploadCSV(t, engine, "/api/v1/upload/current", currentCSV)
	uploadCSV(t, engine, "/api/v1/upload/previous", previousCSV)

	var resp struct {
		Insights []string `json:"insights"`
	}
	getJSON(t, engine, "/api/v1/insights", &resp)

	require.NotEmpty(t, resp.Insights)
	joined := strings.Join(resp.Insights, "\n")
	assert.Contains(t, joined, "winner(s)")
	assert.Contains(t, joined, "versus the previous period")
}

func TestSettingsEndpoints(t *testing.T) {
	engine := newTestEngine(t, 1<<20)

	var resp struct {
		Settings domain.AnalysisSettings `json:"settings"`
	}
	getJSON(t, engine, "/api/v1/settings", &resp)
	assert.Equal(t, domain.DefaultAnalysisSettings(), resp.Settings)

	payload := `{"view_mode":"adsets","goal_roas":"2,5","max_cpa_scenario":"300"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	getJSON(t, engine, "/api/v1/settings", &resp)
	assert.Equal(t, "adsets", resp.Settings.ViewMode)
	assert.Equal(t, "2,5", resp.Settings.GoalROAS)
	assert.Equal(t, "300", resp.Settings.MaxCPAScenario)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	engine := newTestEngine(t, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/current", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	engine := newTestEngine(t, 16)

	rec := uploadCSV(t, engine, "/api/v1/upload/current", currentCSV)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestFailedUploadKeepsPriorDataset(t *testing.T) {
	engine := newTestEngine(t, 1<<20)
	uploadCSV(t, engine, "/api/v1/upload/current", currentCSV)

	rec := uploadCSV(t, engine, "/api/v1/upload/current", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Total int `json:"total"`
	}
	getJSON(t, engine, "/api/v1/ads", &resp)
	assert.Equal(t, 2, resp.Total)
}

func TestHealthCheck(t *testing.T) {
	engine := newTestEngine(t, 1<<20)

	var resp struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	getJSON(t, engine, "/health", &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "adscope", resp.Service)
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	engine := newTestEngine(t, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}
