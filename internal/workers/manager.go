package workers

import (
	"context"
	"fmt"
	"sync"

	"mtaanifix-api/internal/config"
	"mtaanifix-api/internal/logging"
	"mtaanifix-api/pkg/models"
)

// PoolManager manages the worker pool lifecycle
type PoolManager struct {
	config      *config.Config
	pool        *WorkerPool
	processor   MessageProcessor
	logger      logging.Logger
	mu          sync.RWMutex
	initialized bool
}

// NewPoolManager creates a new worker pool manager
func NewPoolManager(cfg *config.Config, processor MessageProcessor) *PoolManager {
	return &PoolManager{
		config:    cfg,
		processor: processor,
		logger:    logging.GetGlobalLogger().WithField("component", "pool_manager"),
	}
}

// Initialize creates and starts the worker pool
func (pm *PoolManager) Initialize() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.initialized {
		return fmt.Errorf("worker pool already initialized")
	}

	pm.logger.Info("Initializing worker pool")

	pm.pool = NewWorkerPool(pm.config, pm.processor)

	if err := pm.pool.Start(); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	pm.initialized = true
	pm.logger.Info("Worker pool initialized successfully")
	return nil
}

// Shutdown gracefully shuts down the worker pool
func (pm *PoolManager) Shutdown() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if !pm.initialized || pm.pool == nil {
		return nil
	}

	pm.logger.Info("Shutting down worker pool")

	if err := pm.pool.Stop(); err != nil {
		pm.logger.Error("Error stopping worker pool", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	pm.pool.rateLimiter.Stop()

	pm.initialized = false
	pm.logger.Info("Worker pool shutdown complete")
	return nil
}

// SubmitMessage submits an inbound message to the worker pool
func (pm *PoolManager) SubmitMessage(ctx context.Context, msg models.WhatsAppMessage) (*JobResult, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if !pm.initialized || pm.pool == nil {
		return nil, fmt.Errorf("worker pool not initialized")
	}

	return pm.pool.SubmitMessage(ctx, msg)
}

// IsHealthy returns true if the worker pool is healthy
func (pm *PoolManager) IsHealthy() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return pm.initialized && pm.pool != nil && pm.pool.IsRunning()
}

// GetSenderStats returns rate limiting statistics for a specific sender
func (pm *PoolManager) GetSenderStats(sender string) (map[string]interface{}, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if !pm.initialized || pm.pool == nil {
		return nil, fmt.Errorf("worker pool not initialized")
	}

	return pm.pool.rateLimiter.GetSenderStats(sender), nil
}

// PoolManagerStats represents comprehensive statistics for the pool manager
type PoolManagerStats struct {
	Initialized      bool                              `json:"initialized"`
	PoolStats        *PoolStatsData                    `json:"pool_stats"`
	RateLimiterStats map[string]map[string]interface{} `json:"rate_limiter_stats"`
	WorkerCount      int                               `json:"worker_count"`
	QueueCapacity    int                               `json:"queue_capacity"`
}

// GetStats returns worker pool statistics
func (pm *PoolManager) GetStats() (*PoolManagerStats, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if !pm.initialized || pm.pool == nil {
		return nil, fmt.Errorf("worker pool not initialized")
	}

	poolStats := pm.pool.GetStats()
	rateLimiterStats := pm.pool.rateLimiter.GetAllStats()

	return &PoolManagerStats{
		Initialized:      pm.initialized,
		PoolStats:        &poolStats,
		RateLimiterStats: rateLimiterStats,
		WorkerCount:      len(pm.pool.workers),
		QueueCapacity:    pm.config.Workers.QueueSize,
	}, nil
}
