package handlers

import (
	"context"
	"net/http"
	"time"

	"mtaanifix-api/internal/logging"
	"mtaanifix-api/pkg/models"
	"mtaanifix-api/pkg/utils"

	"github.com/labstack/echo/v4"
)

var startTime = time.Now()

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	requestID := utils.GenerateRequestID()
	logger := logging.GetGlobalLogger()

	logger.Debug("Health check requested", map[string]interface{}{"request_id": requestID})

	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api": "ok",
		},
	}

	return c.JSON(http.StatusOK, response)
}

// ReadinessHandler handles readiness probe requests by pinging the backing
// store and session cache. A degraded dependency makes the probe fail so the
// instance is pulled from rotation before it drops matches.
func ReadinessHandler(db Pinger, cache Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger()

		logger.Debug("Readiness check requested", map[string]interface{}{"request_id": requestID})

		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{
			"api":      "ok",
			"database": "ok",
			"redis":    "ok",
		}
		status := "ready"
		httpStatus := http.StatusOK

		if err := db.Ping(ctx); err != nil {
			checks["database"] = err.Error()
			status = "not ready"
			httpStatus = http.StatusServiceUnavailable
		}
		if err := cache.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			status = "not ready"
			httpStatus = http.StatusServiceUnavailable
		}

		response := models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Uptime:    time.Since(startTime),
			Checks:    checks,
		}

		return c.JSON(httpStatus, response)
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	requestID := utils.GenerateRequestID()
	logger := logging.GetGlobalLogger()

	logger.Debug("Liveness check requested", map[string]interface{}{"request_id": requestID})

	response := models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(startTime),
	}

	return c.JSON(http.StatusOK, response)
}

// StatusHandler provides detailed service status
func StatusHandler(c echo.Context) error {
	requestID := utils.GenerateRequestID()
	logger := logging.GetGlobalLogger()

	logger.Debug("Status check requested", map[string]interface{}{"request_id": requestID})

	response := models.HealthResponse{
		Status:    "operational",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api":           "operational",
			"workers":       "operational",
			"request_queue": "normal",
		},
	}

	return c.JSON(http.StatusOK, response)
}
