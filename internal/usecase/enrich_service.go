package usecase

import (
	"context"
	"strconv"
	"strings"

	"adscope/internal/domain"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"

	"github.com/shopspring/decimal"
)

// Header synonyms per canonical field. Meta exports rename columns between
// account locales and export versions, so each field accepts every spelling
// seen in real files. Matching is case and punctuation insensitive.
var (
	adNameHeaders    = []string{"Ad name", "adName"}
	adSetHeaders     = []string{"Ad set name", "Ad set", "adSetName", "adSet"}
	campaignHeaders  = []string{"Campaign name", "Kampanjenavn", "Campaign", "campaignName"}
	spendHeaders     = []string{"Amount spent (NOK)", "Amount spent", "amountSpent"}
	purchasesHeaders = []string{"Purchases", "purchases"}
	roasHeaders      = []string{"Purchase ROAS (return on ad spend)", "Purchase ROAS", "ROAS", "roas"}

	reachHeaders         = []string{"Reach", "reach"}
	impressionsHeaders   = []string{"Impressions", "impressions"}
	frequencyHeaders     = []string{"Frequency", "frequency"}
	cpmHeaders           = []string{"CPM (cost per 1,000 impressions) (NOK)", "CPM (cost per 1,000 impressions)", "CPM", "cpm"}
	costPerResultHeaders = []string{"Cost per results", "Cost per result", "costPerResult"}
	qualityHeaders       = []string{"Quality ranking", "qualityRanking"}
	engagementHeaders    = []string{"Engagement rate ranking", "engagementRateRanking"}
	conversionHeaders    = []string{"Conversion rate ranking", "conversionRateRanking"}
)

// EnrichService turns raw uploaded rows into enriched, classified AdMetric
// records. The pipeline is total: malformed input degrades to zero/nil
// fields, it never returns an error.
type EnrichService struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewEnrichService(logger *logger.Logger, metrics *metrics.Metrics) *EnrichService {
	return &EnrichService{
		logger:  logger,
		metrics: metrics,
	}
}

// Transform runs the full enrichment pipeline for one uploaded period:
// normalize each row, drop non-ad rows, compute derived metrics and buckets,
// then apply the winner fallback.
func (s *EnrichService) Transform(ctx context.Context, slot domain.PeriodSlot, rows []domain.RawRow) []domain.AdMetric {
	log := s.logger.WithContext(ctx)

	enriched := make([]domain.AdMetric, 0, len(rows))
	discarded := 0

	for _, row := range rows {
		metric, reason := s.normalizeRow(row)
		if reason != "" {
			discarded++
			s.metrics.RecordRowDiscarded(string(slot), reason)
			continue
		}
		enriched = append(enriched, metric)
	}

	applyWinnerFallback(enriched)

	s.metrics.RecordRowsProcessed(string(slot), len(enriched))

	log.WithFields(map[string]any{
		"slot":      slot,
		"raw_rows":  len(rows),
		"retained":  len(enriched),
		"discarded": discarded,
	}).Info("Enriched uploaded rows")

	return enriched
}

// normalizeRow maps one raw row to an AdMetric. A non-empty reason means the
// row is not a real ad row and must be dropped.
func (s *EnrichService) normalizeRow(row domain.RawRow) (domain.AdMetric, string) {
	index := buildHeaderIndex(row)

	adName := strings.TrimSpace(index.lookup(adNameHeaders))
	adSet := strings.TrimSpace(index.lookup(adSetHeaders))
	amountSpent := parseNumber(index.lookup(spendHeaders))
	purchases := parseInt(index.lookup(purchasesHeaders))
	roas := parseNumber(index.lookup(roasHeaders))

	if reason := realAdRowViolation(adName, adSet, amountSpent, purchases, roas); reason != "" {
		return domain.AdMetric{}, reason
	}

	var cpa *float64
	if purchases > 0 {
		v := amountSpent / float64(purchases)
		cpa = &v
	}

	score := domain.PerformanceScore(roas, cpa, purchases)

	return domain.AdMetric{
		AdName:       adName,
		AdSetName:    adSet,
		CampaignName: strings.TrimSpace(index.lookup(campaignHeaders)),

		AmountSpent: amountSpent,
		Purchases:   purchases,
		ROAS:        roas,
		CPA:         cpa,

		Reach:         parseInt(index.lookup(reachHeaders)),
		Impressions:   parseInt(index.lookup(impressionsHeaders)),
		Frequency:     parseNumber(index.lookup(frequencyHeaders)),
		CPM:           parseNumber(index.lookup(cpmHeaders)),
		CostPerResult: parseNumber(index.lookup(costPerResultHeaders)),

		QualityRanking:        strings.TrimSpace(index.lookup(qualityHeaders)),
		EngagementRateRanking: strings.TrimSpace(index.lookup(engagementHeaders)),
		ConversionRateRanking: strings.TrimSpace(index.lookup(conversionHeaders)),

		PerformanceScore:      score,
		MetaRating:            domain.MetaRatingFromROAS(roas),
		FilePerformanceBucket: domain.BucketFromScore(score),
	}, ""
}

// realAdRowViolation returns why a row is not a real ad row, or "" if it is.
// Exports append summary rows ("total" lines, placeholder ad sets, account
// totals with huge spend and no results) that must not be scored as ads.
func realAdRowViolation(adName, adSet string, amountSpent float64, purchases int, roas float64) string {
	if adName == "" {
		return "empty_ad_name"
	}
	if strings.Contains(strings.ToLower(adName), "total") {
		return "total_row"
	}
	if adSet == "-" || adSet == "—" {
		return "placeholder_ad_set"
	}
	if purchases == 0 && roas == 0 && amountSpent > 100000 {
		return "account_total_row"
	}
	return ""
}

// applyWinnerFallback promotes the top-scoring ads to Winner when the file
// produced none, so every non-trivial upload highlights something. Ties all
// win; all-zero files keep zero Winners. The trade-off is that bucket labels
// are only comparable within one file, never across uploads.
func applyWinnerFallback(metrics []domain.AdMetric) {
	maxScore := 0
	for _, m := range metrics {
		if m.FilePerformanceBucket == domain.BucketWinner {
			return
		}
		if m.PerformanceScore > maxScore {
			maxScore = m.PerformanceScore
		}
	}
	if maxScore == 0 {
		return
	}
	for i := range metrics {
		if metrics[i].PerformanceScore == maxScore {
			metrics[i].FilePerformanceBucket = domain.BucketWinner
			metrics[i].WinnerByFallback = true
		}
	}
}

// headerIndex maps canonicalized headers to values for one row. When two
// headers canonicalize to the same key the first non-empty value wins.
type headerIndex map[string]string

func buildHeaderIndex(row domain.RawRow) headerIndex {
	index := make(headerIndex, len(row))
	for header, value := range row {
		key := canonicalHeader(header)
		if key == "" {
			continue
		}
		if existing, ok := index[key]; !ok || existing == "" {
			index[key] = value
		}
	}
	return index
}

// lookup returns the first non-empty value among the synonym headers.
func (idx headerIndex) lookup(synonyms []string) string {
	for _, header := range synonyms {
		if value := idx[canonicalHeader(header)]; strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// canonicalHeader strips everything non-alphanumeric and lowercases, for
// matching only; values are never rewritten.
func canonicalHeader(header string) string {
	var b strings.Builder
	for _, r := range header {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

var numberCleaner = strings.NewReplacer(
	"kr", "", "NOK", "", "nok", "",
	"$", "", "€", "", "£", "",
	"%", "",
	" ", "", " ", "", " ", "",
	"\t", "",
)

// parseNumber is the tolerant numeric parser for uploaded values: strips
// currency symbols, whitespace and percent signs, accepts comma as decimal
// separator, and resolves anything unparseable to 0.
func parseNumber(raw string) float64 {
	cleaned := numberCleaner.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0
	}
	commas := strings.Count(cleaned, ",")
	dots := strings.Count(cleaned, ".")
	switch {
	case commas > 0 && dots > 0:
		// Mixed separators: the rightmost one is the decimal point.
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case commas > 1:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case commas == 1:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	if f < 0 {
		return 0
	}
	return f
}

func parseInt(raw string) int {
	cleaned := numberCleaner.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0
	}
	if n, err := strconv.Atoi(cleaned); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	// Some exports write counts as decimals ("3.0").
	return int(parseNumber(raw))
}
