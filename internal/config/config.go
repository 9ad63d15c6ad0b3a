package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
	} `yaml:"server"`

	Workers struct {
		PoolSize   int           `yaml:"pool_size" default:"10"`
		QueueSize  int           `yaml:"queue_size" default:"100"`
		RateLimit  int           `yaml:"rate_limit" default:"60"` // messages per minute per sender
		Timeout    time.Duration `yaml:"timeout" default:"30s"`
		MaxRetries int           `yaml:"max_retries" default:"3"`
	} `yaml:"workers"`

	Matching struct {
		MaxCandidates int `yaml:"max_candidates" default:"10"`
		BotListSize   int `yaml:"bot_list_size" default:"3"`
	} `yaml:"matching"`

	Database struct {
		Host         string `yaml:"host" default:"localhost"`
		Port         int    `yaml:"port" default:"5432"`
		User         string `yaml:"user" default:"postgres"`
		Password     string `yaml:"password"`
		Name         string `yaml:"name" default:"mtaanifix"`
		SSLMode      string `yaml:"ssl_mode" default:"disable"`
		MaxOpenConns int    `yaml:"max_open_conns" default:"10"`
		MaxIdleConns int    `yaml:"max_idle_conns" default:"5"`
	} `yaml:"database"`

	Redis struct {
		URL      string        `yaml:"url" default:"redis://localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" default:"0"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"redis"`

	WhatsApp struct {
		APIBaseURL    string        `yaml:"api_base_url" default:"https://graph.facebook.com/v18.0"`
		AccessToken   string        `yaml:"access_token"`
		PhoneNumberID string        `yaml:"phone_number_id"`
		VerifyToken   string        `yaml:"verify_token"`
		Timeout       time.Duration `yaml:"timeout" default:"15s"`
	} `yaml:"whatsapp"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`
}

// DSN builds the Postgres connection string for the worker-pool store.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.Name, c.Database.SSLMode,
	)
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	// Expand ${VAR} syntax
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if env var not found
	})

	// Expand $VAR syntax (but avoid replacing ${VAR} that was already processed)
	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if env var not found
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.Workers.PoolSize = 10
	config.Workers.QueueSize = 100
	config.Workers.RateLimit = 60
	config.Workers.Timeout = 30 * time.Second
	config.Workers.MaxRetries = 3

	config.Matching.MaxCandidates = 10
	config.Matching.BotListSize = 3

	config.Database.Host = "localhost"
	config.Database.Port = 5432
	config.Database.User = "postgres"
	config.Database.Name = "mtaanifix"
	config.Database.SSLMode = "disable"
	config.Database.MaxOpenConns = 10
	config.Database.MaxIdleConns = 5

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second

	config.WhatsApp.APIBaseURL = "https://graph.facebook.com/v18.0"
	config.WhatsApp.Timeout = 15 * time.Second

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			// Expand environment variables in the YAML content
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		c.Database.Host = dbHost
	}

	if dbPort := os.Getenv("DATABASE_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			c.Database.Port = p
		}
	}

	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		c.Database.User = dbUser
	}

	if dbPassword := os.Getenv("DATABASE_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}

	if dbName := os.Getenv("DATABASE_NAME"); dbName != "" {
		c.Database.Name = dbName
	}

	if sslMode := os.Getenv("DATABASE_SSL_MODE"); sslMode != "" {
		c.Database.SSLMode = sslMode
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if accessToken := os.Getenv("WHATSAPP_ACCESS_TOKEN"); accessToken != "" {
		c.WhatsApp.AccessToken = accessToken
	}

	if phoneNumberID := os.Getenv("WHATSAPP_PHONE_NUMBER_ID"); phoneNumberID != "" {
		c.WhatsApp.PhoneNumberID = phoneNumberID
	}

	if verifyToken := os.Getenv("WHATSAPP_VERIFY_TOKEN"); verifyToken != "" {
		c.WhatsApp.VerifyToken = verifyToken
	}

	if apiBaseURL := os.Getenv("WHATSAPP_API_BASE_URL"); apiBaseURL != "" {
		c.WhatsApp.APIBaseURL = apiBaseURL
	}

	if maxCandidates := os.Getenv("MATCHING_MAX_CANDIDATES"); maxCandidates != "" {
		if n, err := strconv.Atoi(maxCandidates); err == nil {
			c.Matching.MaxCandidates = n
		}
	}
}
