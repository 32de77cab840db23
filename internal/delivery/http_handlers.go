package delivery

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"adscope/internal/domain"
	"adscope/internal/usecase"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// handles HTTP requests
type HTTPHandlers struct {
	uploads        *usecase.UploadService
	analysis       *usecase.AnalysisService
	datasets       domain.DatasetRepository
	settings       domain.SettingsRepository
	logger         *logger.Logger
	metrics        *metrics.Metrics
	maxUploadBytes int64
}

// creates new HTTP handlers
func NewHTTPHandlers(
	uploads *usecase.UploadService,
	analysis *usecase.AnalysisService,
	datasets domain.DatasetRepository,
	settings domain.SettingsRepository,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	maxUploadBytes int64,
) *HTTPHandlers {
	return &HTTPHandlers{
		uploads:        uploads,
		analysis:       analysis,
		datasets:       datasets,
		settings:       settings,
		logger:         logger,
		metrics:        metrics,
		maxUploadBytes: maxUploadBytes,
	}
}

// adView is one table row: the enriched ad plus every derived annotation the
// dashboard shows next to it.
type adView struct {
	domain.AdMetric
	RecommendedAction domain.Action            `json:"recommended_action"`
	ActionRationale   string                   `json:"action_rationale"`
	RelativeBucket    domain.RelativeBucket    `json:"relative_bucket,omitempty"`
	Comparison        *domain.ComparisonEntry  `json:"comparison,omitempty"`
}

// adSetView is one aggregate row with its recommendation.
type adSetView struct {
	domain.AdSetAggregate
	RecommendedAction domain.Action `json:"recommended_action"`
	ActionRationale   string        `json:"action_rationale"`
}

// UploadCurrent ingests the current period's CSV export.
func (h *HTTPHandlers) UploadCurrent(c *gin.Context) {
	h.handleUpload(c, domain.PeriodCurrent)
}

// UploadPrevious ingests the optional previous period's CSV export.
func (h *HTTPHandlers) UploadPrevious(c *gin.Context) {
	h.handleUpload(c, domain.PeriodPrevious)
}

func (h *HTTPHandlers) handleUpload(c *gin.Context, slot domain.PeriodSlot) {
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "No file uploaded",
			"message":    "Attach a CSV export as the 'file' form field",
			"request_id": requestID,
		})
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":      "File too large",
			"request_id": requestID,
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to read uploaded file",
			"request_id": requestID,
		})
		return
	}
	defer file.Close()

	dataset, err := h.uploads.IngestPeriod(ctx, slot, fileHeader.Filename, file)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Upload failed",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Upload completed successfully",
		"slot":       slot,
		"file_name":  dataset.FileName,
		"row_count":  len(dataset.Metrics),
		"metrics":    dataset.Metrics,
		"request_id": requestID,
	})
}

// GetAds returns the filtered, sorted, annotated ad table.
func (h *HTTPHandlers) GetAds(c *gin.Context) {
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	current, ok, err := h.datasets.Get(ctx, domain.PeriodCurrent)
	if err != nil || !ok {
		c.JSON(http.StatusOK, gin.H{
			"data":       []adView{},
			"total":      0,
			"request_id": requestID,
		})
		return
	}

	filter := parseMetricFilter(c)
	roasGoal := usecase.ParseGoal(c.Query("roas_goal"))
	cpaGoal := usecase.ParseGoal(c.Query("cpa_goal"))

	filtered := h.analysis.FilterMetrics(current.Metrics, filter)
	sorted := h.analysis.SortMetrics(filtered, c.Query("sort"), c.DefaultQuery("direction", "desc"))

	comparison := h.comparisonForCurrent(c, current.Metrics)
	relative := relativeByKey(current.Metrics)

	views := make([]adView, 0, len(sorted))
	for _, m := range sorted {
		action := usecase.RecommendAction(
			m.FilePerformanceBucket, m.AmountSpent, m.Purchases, m.ROAS, m.CPA, roasGoal, cpaGoal)

		view := adView{
			AdMetric:          m,
			RecommendedAction: action,
			ActionRationale:   action.Rationale(),
		}
		if key := m.MetricKey(); key != "" {
			view.RelativeBucket = relative[key]
			if entry, found := comparison[key]; found {
				view.Comparison = &entry
			}
		}
		views = append(views, view)
	}

	h.metrics.RecordAnalysisQuery("ads_table")

	c.JSON(http.StatusOK, gin.H{
		"data":       views,
		"total":      len(views),
		"campaigns":  h.analysis.CampaignNames(current.Metrics),
		"request_id": requestID,
	})
}

// GetAdSets returns the ad-set aggregate table over the filtered ads.
func (h *HTTPHandlers) GetAdSets(c *gin.Context) {
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	current, ok, err := h.datasets.Get(ctx, domain.PeriodCurrent)
	if err != nil || !ok {
		c.JSON(http.StatusOK, gin.H{
			"data":       []adSetView{},
			"total":      0,
			"request_id": requestID,
		})
		return
	}

	roasGoal := usecase.ParseGoal(c.Query("roas_goal"))
	cpaGoal := usecase.ParseGoal(c.Query("cpa_goal"))

	filtered := h.analysis.FilterMetrics(current.Metrics, parseMetricFilter(c))
	aggregates := h.analysis.AggregateAdSets(filtered)

	views := make([]adSetView, 0, len(aggregates))
	for _, agg := range aggregates {
		var cpa *float64
		if agg.AggregateCPA > 0 {
			v := agg.AggregateCPA
			cpa = &v
		}
		action := usecase.RecommendAction(
			agg.FilePerformanceBucket, agg.AmountSpent, agg.Purchases, agg.AvgROAS, cpa, roasGoal, cpaGoal)

		views = append(views, adSetView{
			AdSetAggregate:    agg,
			RecommendedAction: action,
			ActionRationale:   action.Rationale(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       views,
		"total":      len(views),
		"request_id": requestID,
	})
}

// GetSummary returns both period summaries and the headline changes.
func (h *HTTPHandlers) GetSummary(c *gin.Context) {
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	current, hasCurrent, _ := h.datasets.Get(ctx, domain.PeriodCurrent)
	previous, hasPrevious, _ := h.datasets.Get(ctx, domain.PeriodPrevious)

	currentSummary := h.analysis.Summarize(current.Metrics)
	previousSummary := h.analysis.Summarize(previous.Metrics)

	response := gin.H{
		"has_current":  hasCurrent,
		"has_previous": hasPrevious,
		"current":      currentSummary,
		"request_id":   requestID,
	}

	if hasPrevious {
		response["previous"] = previousSummary
		response["spend_change_pct"] = domain.PercentChange(currentSummary.TotalSpend, previousSummary.TotalSpend)
		response["purchases_change_pct"] = domain.PercentChange(
			float64(currentSummary.TotalPurchases), float64(previousSummary.TotalPurchases))
		if currentSummary.AvgROAS != nil && previousSummary.AvgROAS != nil {
			response["roas_change_pct"] = domain.PercentChange(*currentSummary.AvgROAS, *previousSummary.AvgROAS)
		} else {
			response["roas_change_pct"] = nil
		}
	}

	h.metrics.RecordAnalysisQuery("summary")
	c.JSON(http.StatusOK, response)
}

// GetScenario returns the goal partition report for the filtered ads.
func (h *HTTPHandlers) GetScenario(c *gin.Context) {
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	current, ok, err := h.datasets.Get(ctx, domain.PeriodCurrent)
	if err != nil || !ok {
		c.JSON(http.StatusOK, gin.H{
			"scenario":   domain.ScenarioReport{},
			"request_id": requestID,
		})
		return
	}

	roasGoal := usecase.ParseGoal(c.Query("roas_goal"))
	cpaGoal := usecase.ParseGoal(c.Query("cpa_goal"))

	filtered := h.analysis.FilterMetrics(current.Metrics, parseMetricFilter(c))
	report := usecase.EvaluateScenario(filtered, roasGoal, cpaGoal)

	h.metrics.RecordAnalysisQuery("scenario")
	c.JSON(http.StatusOK, gin.H{
		"scenario":   report,
		"request_id": requestID,
	})
}

// GetInsights returns the generated insight sentences.
func (h *HTTPHandlers) GetInsights(c *gin.Context) {
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	current, hasCurrent, _ := h.datasets.Get(ctx, domain.PeriodCurrent)
	previous, hasPrevious, _ := h.datasets.Get(ctx, domain.PeriodPrevious)

	var insights []string
	if hasCurrent {
		filtered := h.analysis.FilterMetrics(current.Metrics, parseMetricFilter(c))
		insights = h.analysis.Insights(
			filtered,
			h.analysis.Summarize(current.Metrics),
			h.analysis.Summarize(previous.Metrics),
			hasPrevious,
		)
	}

	h.metrics.RecordAnalysisQuery("insights")
	c.JSON(http.StatusOK, gin.H{
		"insights":   insights,
		"request_id": requestID,
	})
}

// GetSettings returns the persisted analysis settings.
func (h *HTTPHandlers) GetSettings(c *gin.Context) {
	settings, err := h.settings.Load(c.Request.Context())
	if err != nil {
		settings = domain.DefaultAnalysisSettings()
	}
	c.JSON(http.StatusOK, gin.H{
		"settings":   settings,
		"request_id": c.GetString("request_id"),
	})
}

// PutSettings replaces the persisted analysis settings.
func (h *HTTPHandlers) PutSettings(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	var settings domain.AnalysisSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid settings payload",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	if err := h.settings.Save(ctx, settings); err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to save settings")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to save settings",
			"request_id": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"settings":   settings,
		"request_id": requestID,
	})
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "adscope",
		"version":    "1.0.0",
		"request_id": c.GetString("request_id"),
	})
}

// comparisonForCurrent builds the period comparison when a previous dataset
// exists; otherwise the table simply carries no comparison pills.
func (h *HTTPHandlers) comparisonForCurrent(c *gin.Context, current []domain.AdMetric) map[string]domain.ComparisonEntry {
	previous, ok, err := h.datasets.Get(c.Request.Context(), domain.PeriodPrevious)
	if err != nil || !ok {
		return map[string]domain.ComparisonEntry{}
	}
	return h.analysis.BuildComparison(current, previous.Metrics)
}

// relativeByKey pairs the positional relative buckets back with metric keys
// so filtered views can look them up.
func relativeByKey(metrics []domain.AdMetric) map[string]domain.RelativeBucket {
	buckets := usecase.RelativeBuckets(metrics)
	byKey := make(map[string]domain.RelativeBucket, len(buckets))
	for i, bucket := range buckets {
		if key := metrics[i].MetricKey(); key != "" {
			byKey[key] = bucket
		}
	}
	return byKey
}

// parseMetricFilter reads the table filter thresholds from the query string.
// Blank or malformed values mean "filter not set", never an error.
func parseMetricFilter(c *gin.Context) usecase.MetricFilter {
	filter := usecase.MetricFilter{
		Bucket:   usecase.ParseBucket(c.Query("bucket")),
		Campaign: strings.TrimSpace(c.Query("campaign")),
	}
	if v, err := strconv.ParseFloat(strings.ReplaceAll(c.Query("min_roas"), ",", "."), 64); err == nil {
		filter.MinROAS = &v
	}
	if v, err := strconv.ParseFloat(strings.ReplaceAll(c.Query("max_cpa"), ",", "."), 64); err == nil {
		filter.MaxCPA = &v
	}
	if v, err := strconv.Atoi(c.Query("min_purchases")); err == nil {
		filter.MinPurchases = &v
	}
	return filter
}
