package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		StorageDriver:          DriverPostgREST,
		SupabaseURL:            "https://example.supabase.co",
		SupabaseServiceRoleKey: "service-role",
		SQLitePath:             "lgpd-site.db",
		StorageTimeoutSeconds:  10,
		RateLimitPerIPPerMin:   20,
		KafkaTopic:             "lead-events",
		OTELSamplingRatio:      0.1,
	}
}

func TestConfig_GetKafkaBrokers(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want []string
	}{
		{"single broker", "kafka:9092", []string{"kafka:9092"}},
		{"multiple brokers", "k1:9092,k2:9092,k3:9092", []string{"k1:9092", "k2:9092", "k3:9092"}},
		{"whitespace", "  k1:9092 , k2:9092  ", []string{"k1:9092", "k2:9092"}},
		{"empty entries", "k1:9092,,  ,k2:9092", []string{"k1:9092", "k2:9092"}},
		{"empty string", "", []string{}},
		{"only whitespace", "  ,  , ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{KafkaBrokers: tt.csv}
			assert.Equal(t, tt.want, cfg.GetKafkaBrokers())
		})
	}
}

func TestConfig_Validate_PostgREST(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cfg.SupabaseServiceRoleKey = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_SERVICE_ROLE_KEY")

	cfg = validConfig()
	cfg.SupabaseURL = ""
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL")
}

func TestConfig_Validate_Postgres(t *testing.T) {
	cfg := validConfig()
	cfg.StorageDriver = "Postgres"
	cfg.SupabaseURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	cfg.DatabaseURL = "postgres://localhost:5432/lgpd"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverPostgres, cfg.StorageDriver, "driver should be normalized")
}

func TestConfig_Validate_SQLite(t *testing.T) {
	cfg := validConfig()
	cfg.StorageDriver = DriverSQLite
	cfg.SupabaseURL = ""
	cfg.SupabaseServiceRoleKey = ""
	require.NoError(t, cfg.Validate())

	cfg.SQLitePath = ""
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.StorageDriver = "mongodb"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}

func TestConfig_Validate_Bounds(t *testing.T) {
	cfg := validConfig()
	cfg.StorageTimeoutSeconds = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.RateLimitPerIPPerMin = -1
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.OTELSamplingRatio = 1.5
	assert.Error(t, cfg.Validate())
}

func TestConfig_Helpers(t *testing.T) {
	cfg := validConfig()

	assert.False(t, cfg.TelemetryEnabled())
	cfg.OTELEnabled = true
	assert.False(t, cfg.TelemetryEnabled(), "endpoint is required")
	cfg.OTELExporterEndpoint = "otel-collector:4317"
	assert.True(t, cfg.TelemetryEnabled())

	assert.False(t, cfg.RateLimitEnabled())
	cfg.RedisURL = "redis://localhost:6379/0"
	assert.True(t, cfg.RateLimitEnabled())

	assert.False(t, cfg.EventsEnabled())
	cfg.KafkaBrokers = "kafka:9092"
	assert.True(t, cfg.EventsEnabled())

	assert.Equal(t, 10*time.Second, cfg.StorageTimeout())

	assert.False(t, cfg.IsDev())
	cfg.AppEnv = "dev"
	assert.True(t, cfg.IsDev())
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("STORAGE_TIMEOUT_SECONDS", "5")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, ":memory:", cfg.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.StorageTimeout())
	assert.Equal(t, "3002", cfg.Port)
	assert.Equal(t, "lead-events", cfg.KafkaTopic)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.GetKafkaBrokers())
	assert.Equal(t, 20, cfg.RateLimitPerIPPerMin)
}

func TestLoadConfig_InvalidTimeout(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("STORAGE_TIMEOUT_SECONDS", "not-a-number")

	_, err := LoadConfig()
	assert.Error(t, err)
}
