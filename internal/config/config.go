package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// NASA DONKI access. The API key is never compiled in.
	DonkiBaseURL   string
	DonkiAPIKey    string
	DonkiTimeout   time.Duration
	DonkiRetries   int
	DonkiRetryWait time.Duration

	Range domain.DateRange

	CacheEnabled       bool
	CacheDir           string
	CacheMemoryEntries int

	ExportPath  string
	RunInterval time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	DatabaseURL string
}

// Load reads configuration from environment variables, applying defaults where unset.
// Variables in ENV_FILE (default .env) are applied first without overriding the
// process environment; a missing file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	donkiTimeout, err := parsePositiveDuration("DONKI_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	retryWait, err := parsePositiveDuration("DONKI_RETRY_WAIT", "2s")
	if err != nil {
		return nil, err
	}

	retries, err := strconv.Atoi(sharedcfg.EnvOrDefault("DONKI_RETRIES", "3"))
	if err != nil || retries < 0 {
		return nil, errors.New("invalid DONKI_RETRIES")
	}

	runInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("RUN_INTERVAL", "0s"))
	if err != nil || runInterval < 0 {
		return nil, errors.New("invalid RUN_INTERVAL")
	}

	rng, err := domain.ParseDateRange(
		sharedcfg.EnvOrDefault("START_DATE", "2013-05-01"),
		sharedcfg.EnvOrDefault("END_DATE", "2024-05-01"),
	)
	if err != nil {
		return nil, fmt.Errorf("START_DATE/END_DATE: %w", err)
	}

	cfg := &Config{
		DonkiBaseURL:   sharedcfg.EnvOrDefault("DONKI_BASE_URL", "https://api.nasa.gov/DONKI"),
		DonkiAPIKey:    sharedcfg.EnvOrDefault("DONKI_API_KEY", "DEMO_KEY"),
		DonkiTimeout:   donkiTimeout,
		DonkiRetries:   retries,
		DonkiRetryWait: retryWait,

		Range: rng,

		CacheEnabled:       os.Getenv("CACHE_ENABLED") != "false",
		CacheDir:           sharedcfg.EnvOrDefault("CACHE_DIR", ".cache/donki"),
		CacheMemoryEntries: parsePositiveInt("CACHE_MEMORY_ENTRIES", 16),

		ExportPath:  sharedcfg.EnvOrDefault("EXPORT_PATH", "merged_cme_gst_data.csv"),
		RunInterval: runInterval,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "cme-gst-pairs"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	if cfg.DonkiAPIKey == "" {
		return nil, errors.New("DONKI_API_KEY is required")
	}
	if cfg.ExportPath == "" {
		return nil, errors.New("EXPORT_PATH is required")
	}
	if cfg.CacheEnabled && cfg.CacheDir == "" {
		return nil, errors.New("CACHE_ENABLED is true but CACHE_DIR is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
