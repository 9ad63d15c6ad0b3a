package workers

import (
	"strings"
	"sync"
	"time"

	"mtaanifix-api/internal/config"
	"mtaanifix-api/internal/logging"

	"golang.org/x/time/rate"
)

// SenderLimiter represents rate limiting for a single sender phone number
type SenderLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	requests int64
	failures int64
	mu       sync.RWMutex
}

// CircuitBreaker represents a circuit breaker for a sender
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	failureCount int
	lastFailTime time.Time
	state        CircuitState
	mu           sync.RWMutex
}

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// RateLimiter manages rate limiting and circuit breaking per sender. It keeps
// a chatty or failing conversation from starving the rest of the queue.
type RateLimiter struct {
	config          *config.Config
	senderLimiters  map[string]*SenderLimiter
	circuitBreakers map[string]*CircuitBreaker
	mu              sync.RWMutex
	logger          logging.Logger
	cleanupTicker   *time.Ticker
	stopCleanup     chan bool
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(cfg *config.Config) *RateLimiter {
	rl := &RateLimiter{
		config:          cfg,
		senderLimiters:  make(map[string]*SenderLimiter),
		circuitBreakers: make(map[string]*CircuitBreaker),
		logger:          logging.GetGlobalLogger().WithField("component", "rate_limiter"),
		cleanupTicker:   time.NewTicker(5 * time.Minute),
		stopCleanup:     make(chan bool),
	}

	go rl.cleanupRoutine()

	return rl
}

// Allow checks if a message from the given sender is allowed
func (rl *RateLimiter) Allow(sender string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	sender = strings.ToLower(sender)

	if !rl.isCircuitClosed(sender) {
		rl.logger.Debug("Message rejected by circuit breaker", map[string]interface{}{
			"sender": sender,
		})
		return false
	}

	limiter := rl.getSenderLimiter(sender)

	allowed := limiter.limiter.Allow()
	if allowed {
		limiter.mu.Lock()
		limiter.requests++
		limiter.lastSeen = time.Now()
		limiter.mu.Unlock()

		rl.logger.Debug("Message allowed", map[string]interface{}{
			"sender":   sender,
			"requests": limiter.requests,
		})
	} else {
		rl.logger.Debug("Message rejected by rate limiter", map[string]interface{}{
			"sender": sender,
		})
	}

	return allowed
}

// RecordSuccess records a successfully processed message for the sender
func (rl *RateLimiter) RecordSuccess(sender string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	sender = strings.ToLower(sender)

	if cb, exists := rl.circuitBreakers[sender]; exists {
		cb.mu.Lock()
		if cb.state == CircuitHalfOpen {
			cb.state = CircuitClosed
			cb.failureCount = 0
			rl.logger.Info("Circuit breaker closed after successful message", map[string]interface{}{
				"sender": sender,
			})
		}
		cb.mu.Unlock()
	}
}

// RecordFailure records a failed message for the sender
func (rl *RateLimiter) RecordFailure(sender string, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	sender = strings.ToLower(sender)

	if limiter, exists := rl.senderLimiters[sender]; exists {
		limiter.mu.Lock()
		limiter.failures++
		limiter.mu.Unlock()
	}

	cb := rl.getCircuitBreaker(sender)
	cb.mu.Lock()
	cb.failureCount++
	cb.lastFailTime = time.Now()

	if cb.failureCount >= cb.maxFailures && cb.state == CircuitClosed {
		cb.state = CircuitOpen
		rl.logger.Warn("Circuit breaker opened due to failures", map[string]interface{}{
			"sender":   sender,
			"failures": cb.failureCount,
			"error":    err.Error(),
		})
	}
	cb.mu.Unlock()
}

// getSenderLimiter gets or creates a rate limiter for a sender
func (rl *RateLimiter) getSenderLimiter(sender string) *SenderLimiter {
	if limiter, exists := rl.senderLimiters[sender]; exists {
		return limiter
	}

	// Rate limit is configured as messages per minute
	rps := rate.Limit(float64(rl.config.Workers.RateLimit) / 60.0)
	burst := 5

	limiter := &SenderLimiter{
		limiter:  rate.NewLimiter(rps, burst),
		lastSeen: time.Now(),
	}

	rl.senderLimiters[sender] = limiter

	rl.logger.Info("Created new sender rate limiter", map[string]interface{}{
		"sender": sender,
		"rate":   float64(rps),
		"burst":  burst,
	})

	return limiter
}

// getCircuitBreaker gets or creates a circuit breaker for a sender
func (rl *RateLimiter) getCircuitBreaker(sender string) *CircuitBreaker {
	if cb, exists := rl.circuitBreakers[sender]; exists {
		return cb
	}

	cb := &CircuitBreaker{
		maxFailures:  5,
		resetTimeout: 30 * time.Second,
		state:        CircuitClosed,
	}

	rl.circuitBreakers[sender] = cb

	rl.logger.Info("Created new circuit breaker", map[string]interface{}{
		"sender": sender,
	})

	return cb
}

// isCircuitClosed checks if the circuit breaker allows messages
func (rl *RateLimiter) isCircuitClosed(sender string) bool {
	cb := rl.getCircuitBreaker(sender)

	cb.mu.RLock()
	defer cb.mu.RUnlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		// Check if we should transition to half-open
		if time.Since(cb.lastFailTime) > cb.resetTimeout {
			cb.mu.RUnlock()
			cb.mu.Lock()
			if cb.state == CircuitOpen && time.Since(cb.lastFailTime) > cb.resetTimeout {
				cb.state = CircuitHalfOpen
				rl.logger.Info("Circuit breaker transitioned to half-open", map[string]interface{}{
					"sender": sender,
				})
			}
			cb.mu.Unlock()
			cb.mu.RLock()
			return cb.state == CircuitHalfOpen
		}
		return false
	case CircuitHalfOpen:
		return true
	default:
		return false
	}
}

// GetSenderStats returns statistics for a specific sender
func (rl *RateLimiter) GetSenderStats(sender string) map[string]interface{} {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	sender = strings.ToLower(sender)
	stats := make(map[string]interface{})

	if limiter, exists := rl.senderLimiters[sender]; exists {
		limiter.mu.RLock()
		stats["requests"] = limiter.requests
		stats["failures"] = limiter.failures
		stats["last_seen"] = limiter.lastSeen
		stats["limit"] = limiter.limiter.Limit()
		stats["burst"] = limiter.limiter.Burst()
		limiter.mu.RUnlock()
	}

	if cb, exists := rl.circuitBreakers[sender]; exists {
		cb.mu.RLock()
		stats["circuit_state"] = cb.state.String()
		stats["failure_count"] = cb.failureCount
		stats["max_failures"] = cb.maxFailures
		stats["last_fail_time"] = cb.lastFailTime
		cb.mu.RUnlock()
	}

	return stats
}

// GetAllStats returns statistics for all senders seen so far
func (rl *RateLimiter) GetAllStats() map[string]map[string]interface{} {
	rl.mu.RLock()
	senders := make(map[string]bool)
	for sender := range rl.senderLimiters {
		senders[sender] = true
	}
	for sender := range rl.circuitBreakers {
		senders[sender] = true
	}
	rl.mu.RUnlock()

	allStats := make(map[string]map[string]interface{})
	for sender := range senders {
		allStats[sender] = rl.GetSenderStats(sender)
	}

	return allStats
}

// cleanupRoutine periodically cleans up old unused limiters
func (rl *RateLimiter) cleanupRoutine() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			rl.cleanupTicker.Stop()
			return
		}
	}
}

// cleanup removes limiters and circuit breakers for conversations that have
// gone quiet
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	removedCount := 0

	for sender, limiter := range rl.senderLimiters {
		limiter.mu.RLock()
		lastSeen := limiter.lastSeen
		limiter.mu.RUnlock()

		if lastSeen.Before(cutoff) {
			delete(rl.senderLimiters, sender)
			removedCount++
		}
	}

	for sender, cb := range rl.circuitBreakers {
		cb.mu.RLock()
		lastFail := cb.lastFailTime
		state := cb.state
		cb.mu.RUnlock()

		if state == CircuitClosed && (lastFail.IsZero() || lastFail.Before(cutoff)) {
			delete(rl.circuitBreakers, sender)
			removedCount++
		}
	}

	if removedCount > 0 {
		rl.logger.Debug("Cleaned up stale rate limiter entries", map[string]interface{}{
			"removed": removedCount,
		})
	}
}

// Stop stops the rate limiter cleanup goroutine
func (rl *RateLimiter) Stop() {
	close(rl.stopCleanup)
}
