package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, 10, cfg.Workers.PoolSize)
	assert.Equal(t, 100, cfg.Workers.QueueSize)
	assert.Equal(t, 60, cfg.Workers.RateLimit)
	assert.Equal(t, 3, cfg.Workers.MaxRetries)

	assert.Equal(t, 10, cfg.Matching.MaxCandidates)
	assert.Equal(t, 3, cfg.Matching.BotListSize)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "mtaanifix", cfg.Database.Name)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "https://graph.facebook.com/v18.0", cfg.WhatsApp.APIBaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "token-123")
	t.Setenv("WHATSAPP_VERIFY_TOKEN", "verify-456")
	t.Setenv("MATCHING_MAX_CANDIDATES", "25")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "token-123", cfg.WhatsApp.AccessToken)
	assert.Equal(t, "verify-456", cfg.WhatsApp.VerifyToken)
	assert.Equal(t, 25, cfg.Matching.MaxCandidates)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigYAMLFile(t *testing.T) {
	t.Setenv("TEST_WA_TOKEN", "expanded-token")

	yamlContent := `
server:
  port: 7070
workers:
  pool_size: 4
  rate_limit: 120
whatsapp:
  access_token: "${TEST_WA_TOKEN}"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Workers.PoolSize)
	assert.Equal(t, 120, cfg.Workers.RateLimit)
	assert.Equal(t, "expanded-token", cfg.WhatsApp.AccessToken)

	// Untouched sections keep their defaults
	assert.Equal(t, 100, cfg.Workers.QueueSize)
	assert.Equal(t, 10, cfg.Matching.MaxCandidates)
}

func TestDSN(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	cfg.Database.Host = "db.internal"
	cfg.Database.User = "app"
	cfg.Database.Password = "secret"
	cfg.Database.Name = "mtaanifix"

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "user=app")
	assert.Contains(t, dsn, "password=secret")
	assert.Contains(t, dsn, "dbname=mtaanifix")
	assert.Contains(t, dsn, "sslmode=disable")
}
