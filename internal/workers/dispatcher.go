package workers

import (
	"sync"

	"mtaanifix-api/internal/logging"
)

// Dispatcher manages job distribution to workers
type Dispatcher struct {
	jobQueue    chan MessageJob
	workers     []*Worker
	workerQueue chan chan MessageJob
	quit        chan bool
	logger      logging.Logger
	mu          sync.RWMutex
	running     bool
}

// NewDispatcher creates a new job dispatcher
func NewDispatcher(jobQueue chan MessageJob, workers []*Worker) *Dispatcher {
	workerQueue := make(chan chan MessageJob, len(workers))

	return &Dispatcher{
		jobQueue:    jobQueue,
		workers:     workers,
		workerQueue: workerQueue,
		quit:        make(chan bool),
		logger:      logging.GetGlobalLogger().WithField("component", "dispatcher"),
	}
}

// Start starts the dispatcher
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}

	d.logger.Info("Starting job dispatcher")

	go d.dispatch()

	d.running = true
	d.logger.Info("Job dispatcher started", map[string]interface{}{
		"workers": len(d.workers),
	})
}

// Stop stops the dispatcher
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	d.logger.Info("Stopping job dispatcher")

	d.quit <- true

	d.running = false
	d.logger.Info("Job dispatcher stopped")
}

// dispatch handles the main job dispatching logic
func (d *Dispatcher) dispatch() {
	workerIndex := 0

	for {
		select {
		case job := <-d.jobQueue:
			// Round-robin assignment so each job lands on exactly one worker
		assignLoop:
			for {
				worker := d.workers[workerIndex]
				workerIndex = (workerIndex + 1) % len(d.workers)
				select {
				case worker.JobChan <- job:
					break assignLoop
				default:
					// Worker is busy, try next one
					continue
				}
			}

		case <-d.quit:
			return
		}
	}
}

// IsRunning returns true if dispatcher is running
func (d *Dispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}
