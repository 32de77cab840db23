package main

import (
	"fmt"
	"os"

	"adscope/internal/delivery"
	"adscope/internal/infrastructure"
	"adscope/internal/usecase"
	"adscope/pkg/config"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	m := metrics.New()

	datasetRepo := infrastructure.NewDatasetRepository(log)
	settingsRepo := infrastructure.NewSettingsRepository(cfg.Settings.FilePath, log)

	enricher := usecase.NewEnrichService(log, m)
	uploads := usecase.NewUploadService(datasetRepo, enricher, infrastructure.ReadRows, log, m)
	analysis := usecase.NewAnalysisService(log, m)

	handlers := delivery.NewHTTPHandlers(uploads, analysis, datasetRepo, settingsRepo, log, m, cfg.Upload.MaxFileBytes)
	router := delivery.NewHTTPRouter(handlers, delivery.RouterConfig{
		RequestTimeout:   cfg.Server.RequestTimeout,
		UploadRatePerSec: cfg.Upload.RatePerSecond,
		UploadRateBurst:  cfg.Upload.RateBurst,
	}, log, m)

	engine := router.SetupRoutes()

	log.WithField("port", cfg.Server.Port).Info("Starting server")
	if err := engine.Run(":" + cfg.Server.Port); err != nil {
		log.WithError(err).Error("Server stopped")
		os.Exit(1)
	}
}
