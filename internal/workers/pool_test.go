package workers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtaanifix-api/internal/config"
	"mtaanifix-api/pkg/models"
)

type stubProcessor struct {
	reply string
	err   error
	delay time.Duration
}

func (p *stubProcessor) Process(ctx context.Context, msg models.WhatsAppMessage) (string, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return p.reply, p.err
}

func poolConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Workers.PoolSize = 2
	cfg.Workers.QueueSize = 10
	cfg.Workers.RateLimit = 600
	cfg.Workers.Timeout = 5 * time.Second
	cfg.Workers.MaxRetries = 1
	return cfg
}

func inboundMessage(from string) models.WhatsAppMessage {
	return models.WhatsAppMessage{
		From: from,
		ID:   "wamid.pool",
		Type: "text",
		Text: &models.WhatsAppText{Body: "hi"},
	}
}

func TestPoolProcessesMessage(t *testing.T) {
	pool := NewWorkerPool(poolConfig(), &stubProcessor{reply: "hello back"})
	require.NoError(t, pool.Start())
	defer pool.Stop()

	result, err := pool.SubmitMessage(context.Background(), inboundMessage("+254711000001"))

	require.NoError(t, err)
	require.NotNil(t, result)
	require.NoError(t, result.Error)
	assert.Equal(t, "hello back", result.Reply)
	assert.NotEmpty(t, result.RequestID)

	stats := pool.GetStats()
	assert.Equal(t, int64(1), stats.JobsQueued)
	assert.Equal(t, int64(1), stats.JobsProcessed)
	assert.Equal(t, int64(1), stats.JobsSuccessful)
	assert.Zero(t, stats.JobsFailed)
}

func TestPoolReportsProcessingFailure(t *testing.T) {
	pool := NewWorkerPool(poolConfig(), &stubProcessor{err: errors.New("delivery failed")})
	require.NoError(t, pool.Start())
	defer pool.Stop()

	result, err := pool.SubmitMessage(context.Background(), inboundMessage("+254711000002"))

	require.NoError(t, err)
	require.NotNil(t, result)
	require.Error(t, result.Error)

	stats := pool.GetStats()
	assert.Equal(t, int64(1), stats.JobsFailed)
}

func TestPoolRejectsWhenNotRunning(t *testing.T) {
	pool := NewWorkerPool(poolConfig(), &stubProcessor{reply: "hi"})

	_, err := pool.SubmitMessage(context.Background(), inboundMessage("+254711000003"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestPoolDoubleStart(t *testing.T) {
	pool := NewWorkerPool(poolConfig(), &stubProcessor{reply: "hi"})
	require.NoError(t, pool.Start())
	defer pool.Stop()

	assert.Error(t, pool.Start())
}

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	cfg := poolConfig()
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	// Burst of 5 is always available to a fresh sender
	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("+254711000004"), "request %d within burst", i+1)
	}
}

func TestRateLimiterRejectsFlood(t *testing.T) {
	cfg := poolConfig()
	cfg.Workers.RateLimit = 1 // one message per minute after the burst
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	allowed := 0
	for i := 0; i < 20; i++ {
		if rl.Allow("+254711000005") {
			allowed++
		}
	}

	assert.Equal(t, 5, allowed, "only the burst passes")
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	rl := NewRateLimiter(poolConfig())
	defer rl.Stop()

	sender := "+254711000006"
	require.True(t, rl.Allow(sender))

	for i := 0; i < 5; i++ {
		rl.RecordFailure(sender, fmt.Errorf("failure %d", i+1))
	}

	assert.False(t, rl.Allow(sender), "open circuit rejects the sender")

	stats := rl.GetSenderStats(sender)
	assert.Equal(t, "open", stats["circuit_state"])
	assert.Equal(t, 5, stats["failure_count"])
}

func TestRateLimiterIsolatesSenders(t *testing.T) {
	rl := NewRateLimiter(poolConfig())
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		rl.RecordFailure("+254711000007", errors.New("broken"))
	}

	assert.False(t, rl.Allow("+254711000007"))
	assert.True(t, rl.Allow("+254711000008"), "other senders are unaffected")
}

func TestPoolManagerLifecycle(t *testing.T) {
	manager := NewPoolManager(poolConfig(), &stubProcessor{reply: "ok"})

	assert.False(t, manager.IsHealthy())
	_, err := manager.GetStats()
	assert.Error(t, err)

	require.NoError(t, manager.Initialize())
	defer manager.Shutdown()

	assert.True(t, manager.IsHealthy())
	assert.Error(t, manager.Initialize(), "double initialization is rejected")

	result, err := manager.SubmitMessage(context.Background(), inboundMessage("+254711000009"))
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Reply)

	stats, err := manager.GetStats()
	require.NoError(t, err)
	assert.True(t, stats.Initialized)
	assert.Equal(t, 2, stats.WorkerCount)
	assert.Equal(t, 10, stats.QueueCapacity)
	assert.Equal(t, int64(1), stats.PoolStats.JobsSuccessful)

	require.NoError(t, manager.Shutdown())
	assert.False(t, manager.IsHealthy())
}
