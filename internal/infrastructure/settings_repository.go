package infrastructure

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"adscope/internal/domain"
	"adscope/pkg/logger"
)

// SettingsRepository persists the flat analysis-settings blob as one JSON
// file. Missing or corrupt data silently falls back to defaults; settings
// are a convenience, never worth failing a request over.
type SettingsRepository struct {
	path   string
	mutex  sync.Mutex
	logger *logger.Logger
}

func NewSettingsRepository(path string, logger *logger.Logger) *SettingsRepository {
	return &SettingsRepository{
		path:   path,
		logger: logger,
	}
}

func (r *SettingsRepository) Load(ctx context.Context) (domain.AnalysisSettings, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		return domain.DefaultAnalysisSettings(), nil
	}

	var settings domain.AnalysisSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		r.logger.WithContext(ctx).WithError(err).Warn("Settings file corrupt, using defaults")
		return domain.DefaultAnalysisSettings(), nil
	}
	if settings.ViewMode == "" {
		settings.ViewMode = domain.DefaultAnalysisSettings().ViewMode
	}
	return settings, nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings domain.AnalysisSettings) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return err
	}

	r.logger.WithContext(ctx).WithField("path", r.path).Debug("Saved analysis settings")
	return nil
}
