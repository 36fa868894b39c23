package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("FIRMS_API_KEY", "firms-key")
	t.Setenv("OPENWEATHER_API_KEY", "owm-key")
	t.Setenv("DATABASE_URL", "postgres://localhost/smog")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "firms-key", cfg.FIRMSAPIKey)
	assert.Equal(t, "owm-key", cfg.OpenWeatherAPIKey)
	assert.Equal(t, "postgres://localhost/smog", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.RunOnce)
	assert.Equal(t, time.Hour, cfg.CycleInterval)
	assert.Equal(t, time.Second, cfg.DistrictDelay)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 20*time.Second, cfg.WindTimeout)
	assert.Equal(t, 3, cfg.WindRetries)
	assert.Equal(t, 2*time.Second, cfg.WindRetryBackoff)
	assert.Equal(t, 5*time.Second, cfg.WindRateWait)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "district-readings", cfg.KafkaSinkTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("RUN_ONCE", "true")
	t.Setenv("CYCLE_INTERVAL", "30m")
	t.Setenv("DISTRICT_DELAY", "250ms")
	t.Setenv("WIND_RETRIES", "5")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "readings-v2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.RunOnce)
	assert.Equal(t, 30*time.Minute, cfg.CycleInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.DistrictDelay)
	assert.Equal(t, 5, cfg.WindRetries)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "readings-v2", cfg.KafkaSinkTopic)
}

func TestLoad_MissingCredentials(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		want  string
	}{
		{"firms key", "FIRMS_API_KEY", "FIRMS_API_KEY is required"},
		{"openweather key", "OPENWEATHER_API_KEY", "OPENWEATHER_API_KEY is required"},
		{"database url", "DATABASE_URL", "DATABASE_URL is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			require.Error(t, err)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("CYCLE_INTERVAL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CYCLE_INTERVAL")
}

func TestLoad_InvalidWindRetries(t *testing.T) {
	setRequired(t)
	t.Setenv("WIND_RETRIES", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WIND_RETRIES")
}
