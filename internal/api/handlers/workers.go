package handlers

import (
	"net/http"
	"time"

	"mtaanifix-api/internal/logging"
	"mtaanifix-api/internal/workers"
	"mtaanifix-api/pkg/models"
	"mtaanifix-api/pkg/utils"

	"github.com/labstack/echo/v4"
)

// WorkerStatsHandler returns worker pool statistics
func WorkerStatsHandler(poolManager *workers.PoolManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		logger.Info("Worker stats request received")

		stats, err := poolManager.GetStats()
		if err != nil {
			logger.Error("Failed to get worker stats", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "stats_unavailable",
				Message:   "Worker pool statistics are not available",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		response := map[string]interface{}{
			"success":    true,
			"stats":      stats,
			"request_id": requestID,
			"timestamp":  time.Now(),
		}

		return c.JSON(http.StatusOK, response)
	}
}

// WorkerHealthHandler returns worker pool health status
func WorkerHealthHandler(poolManager *workers.PoolManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()

		healthy := poolManager.IsHealthy()
		status := "healthy"
		httpStatus := http.StatusOK

		if !healthy {
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		}

		response := map[string]interface{}{
			"success":    healthy,
			"status":     status,
			"request_id": requestID,
			"timestamp":  time.Now(),
		}

		return c.JSON(httpStatus, response)
	}
}

// SenderStatsHandler returns rate limiting statistics for a sender phone number
func SenderStatsHandler(poolManager *workers.PoolManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		sender := c.Param("sender")
		if sender == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "missing_sender",
				Message:   "Sender parameter is required",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		stats, err := poolManager.GetSenderStats(sender)
		if err != nil {
			logger.Error("Failed to get sender stats", map[string]interface{}{
				"sender": sender,
				"error":  err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "stats_unavailable",
				Message:   "Sender statistics are not available",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		response := map[string]interface{}{
			"success":    true,
			"sender":     sender,
			"stats":      stats,
			"request_id": requestID,
			"timestamp":  time.Now(),
		}

		return c.JSON(http.StatusOK, response)
	}
}

// WorkerStatusResponse represents the status of the worker pool
type WorkerStatusResponse struct {
	Success        bool                   `json:"success"`
	Status         string                 `json:"status"`
	WorkerCount    int                    `json:"worker_count"`
	QueueSize      int                    `json:"queue_size"`
	JobsProcessed  int64                  `json:"jobs_processed"`
	JobsQueued     int64                  `json:"jobs_queued"`
	JobsSuccessful int64                  `json:"jobs_successful"`
	JobsFailed     int64                  `json:"jobs_failed"`
	Details        map[string]interface{} `json:"details,omitempty"`
	RequestID      string                 `json:"request_id"`
	Timestamp      time.Time              `json:"timestamp"`
}

// DetailedWorkerStatusHandler returns detailed worker pool status
func DetailedWorkerStatusHandler(poolManager *workers.PoolManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		stats, err := poolManager.GetStats()
		if err != nil {
			logger.Error("Failed to get detailed worker stats", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "stats_unavailable",
				Message:   "Detailed worker statistics are not available",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		healthy := poolManager.IsHealthy()
		status := "healthy"
		if !healthy {
			status = "unhealthy"
		}

		response := WorkerStatusResponse{
			Success:        healthy,
			Status:         status,
			WorkerCount:    stats.WorkerCount,
			QueueSize:      stats.QueueCapacity,
			JobsProcessed:  stats.PoolStats.JobsProcessed,
			JobsQueued:     stats.PoolStats.JobsQueued,
			JobsSuccessful: stats.PoolStats.JobsSuccessful,
			JobsFailed:     stats.PoolStats.JobsFailed,
			Details: map[string]interface{}{
				"rate_limiter_stats":      stats.RateLimiterStats,
				"average_processing_time": stats.PoolStats.AverageProcessingTime,
				"total_processing_time":   stats.PoolStats.TotalProcessingTime,
			},
			RequestID: requestID,
			Timestamp: time.Now(),
		}

		return c.JSON(http.StatusOK, response)
	}
}
