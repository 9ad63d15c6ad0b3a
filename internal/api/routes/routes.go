package routes

import (
	"net/http"

	"mtaanifix-api/internal/api/handlers"
	"mtaanifix-api/internal/api/middleware"
	"mtaanifix-api/internal/config"
	"mtaanifix-api/internal/store"
	"mtaanifix-api/internal/workers"
	"mtaanifix-api/pkg/utils"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, matcher handlers.Matcher, poolManager *workers.PoolManager, db *store.Client, cache *utils.RedisClient) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	e.Use(middleware.TimeoutConfig(cfg.Server.ReadTimeout))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(db, cache))
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/workers", handlers.WorkerHealthHandler(poolManager))
	}

	// Status route
	e.GET("/status", handlers.StatusHandler)

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		v1.POST("/match", handlers.MatchHandler(cfg, matcher))

		// Worker monitoring routes
		workerRoutes := v1.Group("/workers")
		{
			workerRoutes.GET("/stats", handlers.WorkerStatsHandler(poolManager))
			workerRoutes.GET("/status", handlers.DetailedWorkerStatusHandler(poolManager))
		}

		// Sender-specific rate limiting stats
		senders := v1.Group("/senders")
		{
			senders.GET("/:sender/stats", handlers.SenderStatsHandler(poolManager))
		}
	}

	// WhatsApp webhook routes
	webhooks := e.Group("/webhooks")
	{
		webhooks.GET("/whatsapp", handlers.VerifyWebhookHandler(cfg))
		webhooks.POST("/whatsapp", handlers.ReceiveWebhookHandler(poolManager))
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "MtaaniFix API",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
