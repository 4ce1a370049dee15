package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
)

// Config holds all application configuration
type Config struct {
	ServiceName string           `yaml:"service_name"`
	LogLevel    string           `yaml:"log_level"`
	HTTP        HTTPConfig       `yaml:"http"`
	Database    DatabaseConfig   `yaml:"database"`
	Storage     StorageConfig    `yaml:"storage"`
	Redis       RedisConfig      `yaml:"redis"`
	RabbitMQ    RabbitMQConfig   `yaml:"rabbitmq"`
	Validation  ValidationConfig `yaml:"validation"`
	Analytics   AnalyticsConfig  `yaml:"analytics"`
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL        string `yaml:"url"`
	AutoSchema bool   `yaml:"auto_schema"`
}

// StorageConfig selects the storage backend and bounds each call
type StorageConfig struct {
	Driver     string        `yaml:"driver"`
	DuckDBPath string        `yaml:"duckdb_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// RedisConfig holds the optional status cache settings
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	StatusTTL time.Duration `yaml:"status_ttl"`
}

// Enabled reports whether the status cache is configured
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// RabbitMQConfig holds RabbitMQ connection and queue settings
type RabbitMQConfig struct {
	URL              string `yaml:"url"`
	IngestExchange   string `yaml:"ingest_exchange"`
	IngestQueue      string `yaml:"ingest_queue"`
	IngestRoutingKey string `yaml:"ingest_routing_key"`
	WorkerExchange   string `yaml:"worker_exchange"`
	DLQQueue         string `yaml:"dlq_queue"`
	PrefetchCount    int    `yaml:"prefetch"`
}

// Enabled reports whether the AMQP adapter is configured
func (c RabbitMQConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

// ValidationConfig holds validation settings
type ValidationConfig struct {
	MaxClockSkew time.Duration `yaml:"max_clock_skew"`
}

// AnalyticsConfig holds analytics settings
type AnalyticsConfig struct {
	Window time.Duration `yaml:"window"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		ServiceName: "charging-telemetry-service",
		LogLevel:    "info",
		HTTP:        HTTPConfig{Port: 8080},
		Database:    DatabaseConfig{AutoSchema: true},
		Storage: StorageConfig{
			Driver:  DriverPostgres,
			Timeout: 5 * time.Second,
		},
		Redis: RedisConfig{StatusTTL: 5 * time.Minute},
		RabbitMQ: RabbitMQConfig{
			IngestExchange:   "charging-telemetry.ingest.exchange",
			IngestQueue:      "charging-telemetry.ingest.queue",
			IngestRoutingKey: "telemetry.*",
			WorkerExchange:   "charging-telemetry.events.exchange",
			DLQQueue:         "charging-telemetry.ingest.dlq",
			PrefetchCount:    10,
		},
		Analytics: AnalyticsConfig{Window: 24 * time.Hour},
	}
}

// Load loads configuration from the optional CONFIG_FILE YAML document and
// then from environment variables, which take precedence
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ServiceName = getEnv("SERVICE_NAME", cfg.ServiceName)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.HTTP.Port = getEnvAsInt("HTTP_PORT", cfg.HTTP.Port)

	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.AutoSchema = getEnvAsBool("DATABASE_AUTO_SCHEMA", cfg.Database.AutoSchema)

	cfg.Storage.Driver = strings.ToLower(getEnv("STORAGE_DRIVER", cfg.Storage.Driver))
	cfg.Storage.DuckDBPath = getEnv("DUCKDB_PATH", cfg.Storage.DuckDBPath)
	cfg.Storage.Timeout = getEnvAsDuration("STORAGE_TIMEOUT", cfg.Storage.Timeout)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.StatusTTL = getEnvAsDuration("REDIS_STATUS_TTL", cfg.Redis.StatusTTL)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.IngestExchange = getEnv("RABBITMQ_INGEST_EXCHANGE", cfg.RabbitMQ.IngestExchange)
	cfg.RabbitMQ.IngestQueue = getEnv("RABBITMQ_INGEST_QUEUE", cfg.RabbitMQ.IngestQueue)
	cfg.RabbitMQ.IngestRoutingKey = getEnv("RABBITMQ_INGEST_ROUTING_KEY", cfg.RabbitMQ.IngestRoutingKey)
	cfg.RabbitMQ.WorkerExchange = getEnv("RABBITMQ_WORKER_EXCHANGE", cfg.RabbitMQ.WorkerExchange)
	cfg.RabbitMQ.DLQQueue = getEnv("RABBITMQ_DLQ_QUEUE", cfg.RabbitMQ.DLQQueue)
	cfg.RabbitMQ.PrefetchCount = getEnvAsInt("RABBITMQ_PREFETCH", cfg.RabbitMQ.PrefetchCount)

	cfg.Validation.MaxClockSkew = getEnvAsDuration("VALIDATION_MAX_CLOCK_SKEW", cfg.Validation.MaxClockSkew)
	cfg.Analytics.Window = getEnvAsDuration("ANALYTICS_WINDOW", cfg.Analytics.Window)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required but not set in environment variables")
		}
	case DriverDuckDB:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverDuckDB, c.Storage.Driver)
	}
	if c.Storage.Timeout <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT must be positive")
	}
	if c.Analytics.Window <= 0 {
		return fmt.Errorf("ANALYTICS_WINDOW must be positive")
	}
	if c.Validation.MaxClockSkew < 0 {
		return fmt.Errorf("VALIDATION_MAX_CLOCK_SKEW must not be negative")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
