package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage drivers aceitos em STORAGE_DRIVER.
const (
	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
)

// Config holds all application configuration
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
	Port     string `env:"PORT" envDefault:"3002"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Storage
	StorageDriver          string `env:"STORAGE_DRIVER" envDefault:"postgrest"`
	SupabaseURL            string `env:"SUPABASE_URL"`
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	DatabaseURL            string `env:"DATABASE_URL"`
	SQLitePath             string `env:"SQLITE_PATH" envDefault:"lgpd-site.db"`
	StorageTimeoutSeconds  int    `env:"STORAGE_TIMEOUT_SECONDS" envDefault:"10"`

	// Redis (opcional, habilita rate limiting)
	RedisURL             string `env:"REDIS_URL"`
	RateLimitPerIPPerMin int    `env:"RATE_LIMIT_PER_IP_PER_MIN" envDefault:"20"`

	// Kafka (opcional, habilita eventos de submissão)
	KafkaBrokers string `env:"KAFKA_BROKERS"` // CSV, ex: "kafka-1:9092,kafka-2:9092"
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"lead-events"`

	// Prometheus
	MetricsToken string `env:"METRICS_TOKEN"`

	// OpenTelemetry
	OTELEnabled          bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELExporterEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELServiceName      string  `env:"OTEL_SERVICE_NAME" envDefault:"lgpd-site-api"`
	OTELSamplingRatio    float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"0.1"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration
func (c *Config) Validate() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))

	switch c.StorageDriver {
	case DriverPostgREST:
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required for storage driver %q", c.StorageDriver)
		}
		if c.SupabaseServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required for storage driver %q", c.StorageDriver)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for storage driver %q", c.StorageDriver)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for storage driver %q", c.StorageDriver)
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of %s, %s, %s (got %q)",
			DriverPostgREST, DriverPostgres, DriverSQLite, c.StorageDriver)
	}

	if c.StorageTimeoutSeconds <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT_SECONDS must be positive")
	}

	if c.RateLimitPerIPPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_IP_PER_MIN must be positive")
	}

	if c.OTELSamplingRatio < 0 || c.OTELSamplingRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATIO must be between 0 and 1")
	}

	return nil
}

// GetKafkaBrokers returns the list of Kafka brokers from the CSV variable
func (c *Config) GetKafkaBrokers() []string {
	brokers := strings.Split(c.KafkaBrokers, ",")
	result := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		trimmed := strings.TrimSpace(broker)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// TelemetryEnabled reports whether OTLP export is configured (opt-in).
func (c *Config) TelemetryEnabled() bool {
	return c.OTELEnabled && c.OTELExporterEndpoint != ""
}

// RateLimitEnabled reports whether a Redis URL was supplied.
func (c *Config) RateLimitEnabled() bool {
	return c.RedisURL != ""
}

// EventsEnabled reports whether submission events should be published to Kafka.
func (c *Config) EventsEnabled() bool {
	return len(c.GetKafkaBrokers()) > 0 && c.KafkaTopic != ""
}

// StorageTimeout is the single deadline applied to each submission.
func (c *Config) StorageTimeout() time.Duration {
	return time.Duration(c.StorageTimeoutSeconds) * time.Second
}

// IsDev reports whether the service runs in a development environment.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}
