package delivery

import (
	"time"

	"adscope/internal/delivery/middleware"
	"adscope/pkg/logger"
	"adscope/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	RequestTimeout    time.Duration
	UploadRatePerSec  float64
	UploadRateBurst   int
}

type HTTPRouter struct {
	handlers *HTTPHandlers
	config   RouterConfig
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewHTTPRouter(handlers *HTTPHandlers, config RouterConfig, logger *logger.Logger, metrics *metrics.Metrics) *HTTPRouter {
	return &HTTPRouter{
		handlers: handlers,
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.Timeout(r.config.RequestTimeout))

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Content-Type", "X-Request-ID"}
	config.ExposeHeaders = []string{"X-Request-ID"}

	router.Use(cors.New(config))

	// Health endpoint
	router.GET("/health", r.handlers.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Upload endpoints
		upload := v1.Group("/upload")
		upload.Use(middleware.UploadRateLimit(r.config.UploadRatePerSec, r.config.UploadRateBurst))
		{
			upload.POST("/current", r.handlers.UploadCurrent)
			upload.POST("/previous", r.handlers.UploadPrevious)
		}

		// Analysis endpoints
		v1.GET("/ads", r.handlers.GetAds)
		v1.GET("/adsets", r.handlers.GetAdSets)
		v1.GET("/summary", r.handlers.GetSummary)
		v1.GET("/scenario", r.handlers.GetScenario)
		v1.GET("/insights", r.handlers.GetInsights)

		// Settings endpoints
		v1.GET("/settings", r.handlers.GetSettings)
		v1.PUT("/settings", r.handlers.PutSettings)
	}

	// Prometheus metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler())

	return router
}
