package domain

import (
	"context"
	"time"
)

// PeriodSlot names one of the two dataset slots held per session.
type PeriodSlot string

const (
	PeriodCurrent  PeriodSlot = "current"
	PeriodPrevious PeriodSlot = "previous"
)

// Dataset is one uploaded period after enrichment.
type Dataset struct {
	FileName   string     `json:"file_name"`
	UploadedAt time.Time  `json:"uploaded_at"`
	Metrics    []AdMetric `json:"metrics"`
}

// interface for storing the two period datasets
type DatasetRepository interface {
	Store(ctx context.Context, slot PeriodSlot, dataset Dataset) error
	Get(ctx context.Context, slot PeriodSlot) (Dataset, bool, error)
	Clear(ctx context.Context, slot PeriodSlot) error
}

// interface for the persisted settings blob
type SettingsRepository interface {
	Load(ctx context.Context) (AnalysisSettings, error)
	Save(ctx context.Context, settings AnalysisSettings) error
}
