package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"adscope/internal/domain"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"
)

// RowReader converts an uploaded file into ordered raw rows. The CSV
// mechanics live behind this boundary; the pipeline only ever sees RawRow.
type RowReader func(r io.Reader) ([]domain.RawRow, error)

// UploadService ingests one period's CSV export: read rows, enrich, store in
// the period slot. A failed upload leaves whatever was previously stored in
// either slot untouched.
type UploadService struct {
	datasets domain.DatasetRepository
	enricher *EnrichService
	readRows RowReader
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewUploadService(
	datasets domain.DatasetRepository,
	enricher *EnrichService,
	readRows RowReader,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *UploadService {
	return &UploadService{
		datasets: datasets,
		enricher: enricher,
		readRows: readRows,
		logger:   logger,
		metrics:  metrics,
	}
}

// IngestPeriod processes one uploaded file into the given slot and returns
// the stored dataset.
func (s *UploadService) IngestPeriod(ctx context.Context, slot domain.PeriodSlot, fileName string, file io.Reader) (domain.Dataset, error) {
	start := time.Now()
	s.metrics.IncUploadsInProgress()
	defer s.metrics.DecUploadsInProgress()

	log := s.logger.WithContext(ctx)

	rows, err := s.readRows(file)
	if err != nil {
		s.metrics.RecordUpload(string(slot), "failed", time.Since(start))
		return domain.Dataset{}, fmt.Errorf("failed to parse uploaded file: %w", err)
	}

	dataset := domain.Dataset{
		FileName:   fileName,
		UploadedAt: time.Now(),
		Metrics:    s.enricher.Transform(ctx, slot, rows),
	}

	if err := s.datasets.Store(ctx, slot, dataset); err != nil {
		s.metrics.RecordUpload(string(slot), "failed", time.Since(start))
		return domain.Dataset{}, fmt.Errorf("failed to store dataset: %w", err)
	}

	s.metrics.RecordUpload(string(slot), "success", time.Since(start))

	log.WithFields(map[string]any{
		"slot":     slot,
		"file":     fileName,
		"raw_rows": len(rows),
		"retained": len(dataset.Metrics),
		"duration": time.Since(start),
	}).Info("Period upload completed")

	return dataset, nil
}
