package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Required upstream credentials. Missing values are the only fatal
	// precondition: the process must exit before any network activity.
	FIRMSAPIKey       string
	OpenWeatherAPIKey string
	DatabaseURL       string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Cycle scheduling.
	RunOnce       bool          // one cycle then exit (cron-style invocation)
	CycleInterval time.Duration // cadence in service mode
	DistrictDelay time.Duration // courtesy pause between per-district provider calls

	// Provider call policy.
	ProviderTimeout  time.Duration // FIRMS and OpenWeather per-call timeout
	WindTimeout      time.Duration // Open-Meteo per-call timeout
	WindRetries      int           // attempts against the primary wind provider
	WindRetryBackoff time.Duration // base backoff between wind attempts
	WindRateWait     time.Duration // extra wait after a 429 from the wind provider

	// Optional Kafka publishing of merged cycles.
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cycleInterval, err := parseDuration("CYCLE_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}
	districtDelay, err := parseDuration("DISTRICT_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	providerTimeout, err := parseDuration("PROVIDER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	windTimeout, err := parseDuration("WIND_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	windBackoff, err := parseDuration("WIND_RETRY_BACKOFF", "2s")
	if err != nil {
		return nil, err
	}
	windRateWait, err := parseDuration("WIND_RATE_WAIT", "5s")
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))

	cfg := &Config{
		FIRMSAPIKey:       os.Getenv("FIRMS_API_KEY"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		RunOnce:       os.Getenv("RUN_ONCE") == "true",
		CycleInterval: cycleInterval,
		DistrictDelay: districtDelay,

		ProviderTimeout:  providerTimeout,
		WindTimeout:      windTimeout,
		WindRetries:      parseIntOrDefault("WIND_RETRIES", 3),
		WindRetryBackoff: windBackoff,
		WindRateWait:     windRateWait,

		KafkaBrokers:   brokers,
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "district-readings"),
		KafkaEnabled:   len(brokers) > 0,
	}

	if cfg.FIRMSAPIKey == "" {
		return nil, errors.New("FIRMS_API_KEY is required")
	}
	if cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_API_KEY is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.WindRetries < 1 {
		return nil, errors.New("WIND_RETRIES must be at least 1")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parseIntOrDefault(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func parseBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
