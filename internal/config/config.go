package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/world-risk-etl/internal/domain"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileEnv names the environment variable holding an optional YAML config file.
// File keys are the lower-cased environment variable names, e.g. "http_addr".
const FileEnv = "RISK_ETL_CONFIG"

// Config holds all service settings, populated from an optional YAML file
// and environment variables, the environment taking precedence.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Source: exactly one of SourcePath and SourceURL is set.
	SourcePath      string
	SourceURL       string
	SourceTimeout   time.Duration
	SourceRetries   int
	RefreshInterval time.Duration

	// Ingestion.
	Schema        domain.Schema
	Binding       domain.Binding
	Delimiter     string
	FailurePolicy domain.FailurePolicy

	// API.
	CacheTTL     time.Duration
	CacheSize    int
	RateLimitRPS int

	// Snapshot archive; empty disables it. SQLiteKeep bounds retained snapshots.
	SQLitePath string
	SQLiteKeep int

	// Kafka sink.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration, applying defaults where unset.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	get := func(key, fallback string) string {
		if v := strings.TrimSpace(k.String(key)); v != "" {
			return v
		}
		return fallback
	}

	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", get("shutdown_timeout", "10s"))
	if err != nil {
		return nil, err
	}
	sourceTimeout, err := parsePositiveDuration("SOURCE_TIMEOUT", get("source_timeout", "10s"))
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parsePositiveDuration("REFRESH_INTERVAL", get("refresh_interval", "15m"))
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("CACHE_TTL", get("cache_ttl", "5m"))
	if err != nil {
		return nil, err
	}

	sourceRetries, err := parseIntRange("SOURCE_RETRIES", get("source_retries", "3"), 1, 10)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseIntRange("CACHE_SIZE", get("cache_size", "64"), 1, 10000)
	if err != nil {
		return nil, err
	}
	rateLimit, err := parseIntRange("RATE_LIMIT_RPS", get("rate_limit_rps", "20"), 1, 100000)
	if err != nil {
		return nil, err
	}
	sqliteKeep, err := parseIntRange("SQLITE_KEEP", get("sqlite_keep", "30"), 0, 100000)
	if err != nil {
		return nil, err
	}

	schema, err := domain.SchemaByName(get("ingest_schema", "wri"))
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_SCHEMA: %w", err)
	}
	binding, err := domain.ParseBinding(get("ingest_binding", "position"))
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_BINDING: %w", err)
	}
	policy, err := domain.ParseFailurePolicy(get("failure_policy", "partial"))
	if err != nil {
		return nil, fmt.Errorf("invalid FAILURE_POLICY: %w", err)
	}

	kafkaEnabled, err := strconv.ParseBool(get("kafka_enabled", "false"))
	if err != nil {
		return nil, errors.New("invalid KAFKA_ENABLED")
	}

	cfg := &Config{
		HTTPAddr:        get("http_addr", ":8080"),
		LogLevel:        strings.ToLower(get("log_level", "info")),
		LogFormat:       strings.ToLower(get("log_format", "json")),
		ShutdownTimeout: shutdownTimeout,

		SourcePath:      get("source_path", ""),
		SourceURL:       get("source_url", ""),
		SourceTimeout:   sourceTimeout,
		SourceRetries:   sourceRetries,
		RefreshInterval: refreshInterval,

		Schema:        schema,
		Binding:       binding,
		Delimiter:     parseDelimiter(k.String("ingest_delimiter")),
		FailurePolicy: policy,

		CacheTTL:     cacheTTL,
		CacheSize:    cacheSize,
		RateLimitRPS: rateLimit,

		SQLitePath: get("sqlite_path", ""),
		SQLiteKeep: sqliteKeep,

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   parseBrokers(get("kafka_brokers", "localhost:9092")),
		KafkaSinkTopic: get("kafka_sink_topic", "world-risk-records"),
	}

	if cfg.SourcePath == "" && cfg.SourceURL == "" {
		cfg.SourcePath = "data/world_risk_index.csv"
	}
	if cfg.SourcePath != "" && cfg.SourceURL != "" {
		return nil, errors.New("SOURCE_PATH and SOURCE_URL are mutually exclusive")
	}
	if cfg.SourceURL != "" && !strings.HasPrefix(cfg.SourceURL, "http://") && !strings.HasPrefix(cfg.SourceURL, "https://") {
		return nil, errors.New("invalid SOURCE_URL: must be an http or https URL")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL: %s", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT: %s", cfg.LogFormat)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, value)
	}
	return d, nil
}

func parseIntRange(name, value string, low, high int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < low || n > high {
		return 0, fmt.Errorf("invalid %s: must be between %d and %d", name, low, high)
	}
	return n, nil
}

// parseDelimiter accepts a literal delimiter or the names "tab", "comma" and "semicolon".
// The value is not trimmed so a literal tab survives.
func parseDelimiter(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		if value == "" {
			return ","
		}
		return value
	case "tab", `\t`:
		return "\t"
	case "comma":
		return ","
	case "semicolon":
		return ";"
	default:
		return value
	}
}

func parseBrokers(value string) []string {
	var brokers []string
	for _, b := range strings.Split(value, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
