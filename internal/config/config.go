package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataPath        string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dashboard view settings.
	TopN          int
	TimelineDays  int
	ViewCacheSize int

	// Kafka publishing of daily summaries.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
	BatchSize      int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	topN, err := parsePositiveInt("TOP_N", 10)
	if err != nil {
		return nil, err
	}
	if topN > 100 {
		return nil, errors.New("invalid TOP_N: must be between 1 and 100")
	}

	timelineDays, err := parsePositiveInt("TIMELINE_DAYS", 365)
	if err != nil {
		return nil, err
	}

	viewCacheSize, err := parsePositiveInt("VIEW_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataPath:        sharedcfg.EnvOrDefault("DATA_PATH", "data/covid_19_data.csv"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		TopN:          topN,
		TimelineDays:  timelineDays,
		ViewCacheSize: viewCacheSize,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "covid-daily-summaries"),
		BatchSize:      batchSize,
	}

	if cfg.DataPath == "" {
		return nil, errors.New("DATA_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key + ": must be a positive integer")
	}
	return n, nil
}
