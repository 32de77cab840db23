package infrastructure

import (
	"context"
	"sync"

	"adscope/internal/domain"
	"adscope/pkg/logger"
)

// DatasetRepository holds the two period datasets in memory. Nothing is
// persisted; state lives for the lifetime of the process, mirroring one
// analysis session. The two slots are written independently so concurrent
// current/previous uploads never race on shared data.
type DatasetRepository struct {
	slots  map[domain.PeriodSlot]domain.Dataset
	mutex  sync.RWMutex
	logger *logger.Logger
}

func NewDatasetRepository(logger *logger.Logger) *DatasetRepository {
	return &DatasetRepository{
		slots:  make(map[domain.PeriodSlot]domain.Dataset),
		logger: logger,
	}
}

func (r *DatasetRepository) Store(ctx context.Context, slot domain.PeriodSlot, dataset domain.Dataset) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.slots[slot] = dataset

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"slot":  slot,
		"file":  dataset.FileName,
		"count": len(dataset.Metrics),
	}).Info("Stored period dataset in memory")
	return nil
}

func (r *DatasetRepository) Get(ctx context.Context, slot domain.PeriodSlot) (domain.Dataset, bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	dataset, ok := r.slots[slot]
	if !ok {
		return domain.Dataset{}, false, nil
	}

	// Callers run derived computations over the slice; hand out a copy so a
	// concurrent re-upload cannot mutate under them.
	copied := dataset
	copied.Metrics = make([]domain.AdMetric, len(dataset.Metrics))
	copy(copied.Metrics, dataset.Metrics)
	return copied, true, nil
}

func (r *DatasetRepository) Clear(ctx context.Context, slot domain.PeriodSlot) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.slots, slot)
	r.logger.WithContext(ctx).WithField("slot", slot).Info("Cleared period dataset")
	return nil
}
