// Package config defines the configuration structures for the SIMPLE scoring
// platform. Loading lives in loader.go, defaults in defaults.go.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host               string          `mapstructure:"host"`
	Port               int             `mapstructure:"port"`
	ReadTimeout        time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration   `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration   `mapstructure:"idle_timeout"`
	ShutdownTimeout    time.Duration   `mapstructure:"shutdown_timeout"`
	MaxBodyBytes       int64           `mapstructure:"max_body_bytes"`
	CORSAllowedOrigins []string        `mapstructure:"cors_allowed_origins"`
	RateLimit          RateLimitConfig `mapstructure:"rate_limit"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RateLimitConfig controls the per-client token bucket in front of the API.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN renders the connection string understood by pgx.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

// DatabaseConfig groups database backends.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// CacheConfig groups cache backends.
type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	ConsumerGroup   string        `mapstructure:"consumer_group"`
	ClientID        string        `mapstructure:"client_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	MaxRetries      int           `mapstructure:"max_retries"`
	BatchSize       int           `mapstructure:"batch_size"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	RequiredAcks    int           `mapstructure:"required_acks"`
}

// MessagingConfig groups message brokers.
type MessagingConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
	EnableCaller     bool     `mapstructure:"enable_caller"`
	EnableStacktrace bool     `mapstructure:"enable_stacktrace"`
}

// PrometheusConfig controls the metrics endpoint.
type PrometheusConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// MonitoringConfig groups observability backends.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// ScoringConfig carries the per-type maximum totals and how many weak
// categories are reported.
type ScoringConfig struct {
	InitialMaxScore  int `mapstructure:"initial_max_score"`
	AdvancedMaxScore int `mapstructure:"advanced_max_score"`
	WeakestCount     int `mapstructure:"weakest_count"`
}

// QuizConfig points the catalog at an optional override directory.
type QuizConfig struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

// WorkerConfig holds event-consumer parameters.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	MatchLimit     int           `mapstructure:"match_limit"`
	SpecialistTTL  time.Duration `mapstructure:"specialist_ttl"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure. Every infrastructure component
// and application service reads its settings from the relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Messaging  MessagingConfig  `mapstructure:"messaging"`
	Logging    LogConfig        `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Quiz       QuizConfig       `mapstructure:"quiz"`
	Worker     WorkerConfig     `mapstructure:"worker"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must be ≥ 0, got %d", c.Server.MaxBodyBytes)
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RequestsPerSecond <= 0 || c.Server.RateLimit.Burst < 1) {
		return fmt.Errorf("server.rate_limit requires requests_per_second > 0 and burst ≥ 1")
	}

	pg := c.Database.Postgres
	if pg.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if pg.Port < 1 || pg.Port > 65535 {
		return fmt.Errorf("database.postgres.port %d is out of range [1, 65535]", pg.Port)
	}
	if pg.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if pg.DBName == "" {
		return fmt.Errorf("database.postgres.dbname is required")
	}
	if pg.MaxOpenConns < 1 {
		return fmt.Errorf("database.postgres.max_open_conns must be ≥ 1, got %d", pg.MaxOpenConns)
	}

	if c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required")
	}
	if c.Cache.Redis.DB < 0 {
		return fmt.Errorf("cache.redis.db must be ≥ 0, got %d", c.Cache.Redis.DB)
	}

	if len(c.Messaging.Kafka.Brokers) == 0 {
		return fmt.Errorf("messaging.kafka.brokers must contain at least one broker address")
	}
	if c.Messaging.Kafka.ConsumerGroup == "" {
		return fmt.Errorf("messaging.kafka.consumer_group is required")
	}
	switch c.Messaging.Kafka.AutoOffsetReset {
	case "earliest", "latest":
	default:
		return fmt.Errorf("messaging.kafka.auto_offset_reset %q is invalid; expected earliest|latest", c.Messaging.Kafka.AutoOffsetReset)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is invalid; expected debug|info|warn|error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q is invalid; expected json|console", c.Logging.Format)
	}

	if c.Scoring.InitialMaxScore < 1 || c.Scoring.AdvancedMaxScore < 1 {
		return fmt.Errorf("scoring max scores must be ≥ 1, got initial=%d advanced=%d",
			c.Scoring.InitialMaxScore, c.Scoring.AdvancedMaxScore)
	}
	if c.Scoring.WeakestCount < 1 {
		return fmt.Errorf("scoring.weakest_count must be ≥ 1, got %d", c.Scoring.WeakestCount)
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	return nil
}
