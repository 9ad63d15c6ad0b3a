package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mtaanifix-api/internal/config"
	"mtaanifix-api/internal/logging"
	"mtaanifix-api/pkg/models"
	"mtaanifix-api/pkg/utils"
)

// MessageProcessor handles one inbound message and returns the reply that was
// delivered for it.
type MessageProcessor interface {
	Process(ctx context.Context, msg models.WhatsAppMessage) (string, error)
}

// JobResult represents the outcome of a message job
type JobResult struct {
	Reply     string
	Error     error
	RequestID string
	Duration  time.Duration
}

// MessageJob represents an inbound message to be processed by workers
type MessageJob struct {
	ID         string
	Message    models.WhatsAppMessage
	ResultChan chan JobResult
	Context    context.Context
	CreatedAt  time.Time
}

// Worker represents a single worker goroutine
type Worker struct {
	ID       int
	JobChan  chan MessageJob
	QuitChan chan bool
	Pool     *WorkerPool
	logger   logging.Logger
}

// WorkerPool manages multiple worker goroutines and the message queue
type WorkerPool struct {
	config      *config.Config
	workers     []*Worker
	jobQueue    chan MessageJob
	dispatcher  *Dispatcher
	rateLimiter *RateLimiter
	processor   MessageProcessor
	logger      logging.Logger
	mu          sync.RWMutex
	running     bool
	stats       *PoolStats
}

// PoolStats tracks worker pool statistics
type PoolStats struct {
	mu                    sync.RWMutex
	JobsQueued            int64
	JobsProcessed         int64
	JobsSuccessful        int64
	JobsFailed            int64
	TotalProcessingTime   time.Duration
	AverageProcessingTime time.Duration
}

// PoolStatsData is a copyable snapshot of pool statistics
type PoolStatsData struct {
	JobsQueued            int64         `json:"jobs_queued"`
	JobsProcessed         int64         `json:"jobs_processed"`
	JobsSuccessful        int64         `json:"jobs_successful"`
	JobsFailed            int64         `json:"jobs_failed"`
	TotalProcessingTime   time.Duration `json:"total_processing_time"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
}

// NewWorkerPool creates a new worker pool instance
func NewWorkerPool(cfg *config.Config, processor MessageProcessor) *WorkerPool {
	logger := logging.GetGlobalLogger()

	pool := &WorkerPool{
		config:      cfg,
		jobQueue:    make(chan MessageJob, cfg.Workers.QueueSize),
		rateLimiter: NewRateLimiter(cfg),
		processor:   processor,
		logger:      logger,
		stats:       &PoolStats{},
	}

	pool.workers = make([]*Worker, cfg.Workers.PoolSize)
	for i := 0; i < cfg.Workers.PoolSize; i++ {
		worker := &Worker{
			ID:       i + 1,
			JobChan:  make(chan MessageJob),
			QuitChan: make(chan bool),
			Pool:     pool,
			logger:   logger.WithField("worker_id", i+1),
		}
		pool.workers[i] = worker
	}

	pool.dispatcher = NewDispatcher(pool.jobQueue, pool.workers)

	logger.Info("Worker pool initialized", map[string]interface{}{
		"pool_size": cfg.Workers.PoolSize,
	})
	return pool
}

// Start starts the worker pool
func (wp *WorkerPool) Start() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return fmt.Errorf("worker pool is already running")
	}

	wp.logger.Info("Starting worker pool")

	wp.dispatcher.Start()

	for _, worker := range wp.workers {
		go worker.Start()
	}

	wp.running = true
	wp.logger.Info("Worker pool started successfully", map[string]interface{}{
		"workers": len(wp.workers),
	})
	return nil
}

// Stop stops the worker pool gracefully
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.running {
		return nil
	}

	wp.logger.Info("Stopping worker pool")

	// Stop dispatcher first so no jobs are assigned to stopping workers
	wp.dispatcher.Stop()

	for _, worker := range wp.workers {
		worker.Stop()
	}

	close(wp.jobQueue)

	wp.running = false
	wp.logger.Info("Worker pool stopped successfully")
	return nil
}

// SubmitMessage submits an inbound message to the pool and blocks until the
// reply has been processed or the configured timeout elapses. Rate limiting is
// keyed by the sender's phone number.
func (wp *WorkerPool) SubmitMessage(ctx context.Context, msg models.WhatsAppMessage) (*JobResult, error) {
	if !wp.IsRunning() {
		return nil, fmt.Errorf("worker pool is not running")
	}

	if !wp.rateLimiter.Allow(msg.From) {
		return nil, fmt.Errorf("rate limit exceeded for sender: %s", msg.From)
	}

	job := MessageJob{
		ID:         utils.GenerateRequestID(),
		Message:    msg,
		ResultChan: make(chan JobResult, 1),
		Context:    ctx,
		CreatedAt:  time.Now(),
	}

	wp.stats.mu.Lock()
	wp.stats.JobsQueued++
	wp.stats.mu.Unlock()

	select {
	case wp.jobQueue <- job:
		wp.logger.Info("Message job submitted to queue", map[string]interface{}{
			"job_id":     job.ID,
			"message_id": msg.ID,
			"from":       msg.From,
		})
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("job queue is full, request timed out")
	}

	select {
	case result := <-job.ResultChan:
		return &result, nil
	case <-time.After(wp.config.Workers.Timeout):
		return nil, fmt.Errorf("message processing timed out after %v", wp.config.Workers.Timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsRunning returns true if the worker pool is running
func (wp *WorkerPool) IsRunning() bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	return wp.running
}

// GetStats returns a snapshot of the current pool statistics
func (wp *WorkerPool) GetStats() PoolStatsData {
	wp.stats.mu.RLock()
	defer wp.stats.mu.RUnlock()

	stats := PoolStatsData{
		JobsQueued:          wp.stats.JobsQueued,
		JobsProcessed:       wp.stats.JobsProcessed,
		JobsSuccessful:      wp.stats.JobsSuccessful,
		JobsFailed:          wp.stats.JobsFailed,
		TotalProcessingTime: wp.stats.TotalProcessingTime,
	}
	if stats.JobsProcessed > 0 {
		stats.AverageProcessingTime = stats.TotalProcessingTime / time.Duration(stats.JobsProcessed)
	}

	return stats
}

// Start starts the worker goroutine
func (w *Worker) Start() {
	w.logger.Info("Worker started")

	for {
		select {
		case job := <-w.JobChan:
			w.processJob(job)
		case <-w.QuitChan:
			w.logger.Info("Worker stopping")
			return
		}
	}
}

// Stop stops the worker
func (w *Worker) Stop() {
	w.QuitChan <- true
}

// processJob processes a single message job
func (w *Worker) processJob(job MessageJob) {
	startTime := time.Now()

	w.logger.Debug("Processing message job", map[string]interface{}{
		"job_id":     job.ID,
		"worker_id":  w.ID,
		"message_id": job.Message.ID,
	})

	w.Pool.stats.mu.Lock()
	w.Pool.stats.JobsProcessed++
	w.Pool.stats.mu.Unlock()

	result := w.handleMessage(job)

	processingTime := time.Since(startTime)
	result.Duration = processingTime

	w.Pool.stats.mu.Lock()
	w.Pool.stats.TotalProcessingTime += processingTime
	if result.Error != nil {
		w.Pool.stats.JobsFailed++
	} else {
		w.Pool.stats.JobsSuccessful++
	}
	w.Pool.stats.mu.Unlock()

	// Send result back (non-blocking)
	select {
	case job.ResultChan <- result:
		w.logger.Info("Message job completed", map[string]interface{}{
			"job_id":          job.ID,
			"worker_id":       w.ID,
			"processing_time": processingTime.String(),
			"success":         result.Error == nil,
		})
	case <-time.After(100 * time.Millisecond):
		w.logger.Debug("Result channel timeout - client may have disconnected", map[string]interface{}{
			"job_id":    job.ID,
			"worker_id": w.ID,
		})
	}
}

// handleMessage runs the processor and records the outcome with the
// per-sender circuit breaker
func (w *Worker) handleMessage(job MessageJob) JobResult {
	result := JobResult{
		RequestID: job.ID,
	}

	reply, err := w.Pool.processor.Process(job.Context, job.Message)
	if err != nil {
		w.logger.Debug("Message processing failed", map[string]interface{}{
			"job_id":     job.ID,
			"worker_id":  w.ID,
			"message_id": job.Message.ID,
			"error":      err.Error(),
		})
		w.Pool.rateLimiter.RecordFailure(job.Message.From, err)
		result.Error = err
		return result
	}

	w.Pool.rateLimiter.RecordSuccess(job.Message.From)
	result.Reply = reply
	return result
}
