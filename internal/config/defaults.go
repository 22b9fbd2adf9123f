package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/turtacn/SIMPLE/internal/domain/maturity"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 20 * time.Second
	DefaultMaxBodyBytes    = 1 << 20

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "simple"
	DefaultDBUser     = "simple"
	DefaultDBSSLMode  = "disable"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisTTL  = 10 * time.Minute
	DefaultKeyPrefix = "simple:"

	DefaultKafkaBroker        = "localhost:9092"
	DefaultKafkaConsumerGroup = "simple-worker"
	DefaultKafkaClientID      = "simple"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "simple"

	DefaultWorkerConcurrency = 4
	DefaultMatchLimit        = 5
	DefaultHandlerTimeout    = 30 * time.Second
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Values already set by the caller are left unchanged.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.RateLimit.RequestsPerSecond == 0 {
		cfg.Server.RateLimit.RequestsPerSecond = 10
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = 20
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	pg := &cfg.Database.Postgres
	if pg.Host == "" {
		pg.Host = DefaultDBHost
	}
	if pg.Port == 0 {
		pg.Port = DefaultDBPort
	}
	if pg.User == "" {
		pg.User = DefaultDBUser
	}
	if pg.DBName == "" {
		pg.DBName = DefaultDBName
	}
	if pg.SSLMode == "" {
		pg.SSLMode = DefaultDBSSLMode
	}
	if pg.MaxOpenConns == 0 {
		pg.MaxOpenConns = DefaultDBMaxConns
	}
	if pg.MaxIdleConns == 0 {
		pg.MaxIdleConns = pg.MaxOpenConns / 2
	}
	if pg.ConnMaxLifetime == 0 {
		pg.ConnMaxLifetime = time.Hour
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	rd := &cfg.Cache.Redis
	if rd.Addr == "" {
		rd.Addr = DefaultRedisAddr
	}
	if rd.DefaultTTL == 0 {
		rd.DefaultTTL = DefaultRedisTTL
	}
	if rd.KeyPrefix == "" {
		rd.KeyPrefix = DefaultKeyPrefix
	}
	// DB 0 is both the default and a valid explicit value.

	// ── Kafka ─────────────────────────────────────────────────────────────────
	kf := &cfg.Messaging.Kafka
	if len(kf.Brokers) == 0 {
		kf.Brokers = []string{DefaultKafkaBroker}
	}
	if kf.ConsumerGroup == "" {
		kf.ConsumerGroup = DefaultKafkaConsumerGroup
	}
	if kf.ClientID == "" {
		kf.ClientID = DefaultKafkaClientID
	}
	if kf.AutoOffsetReset == "" {
		kf.AutoOffsetReset = "earliest"
	}
	if kf.MaxRetries == 0 {
		kf.MaxRetries = 3
	}
	if kf.BatchSize == 0 {
		kf.BatchSize = 100
	}
	if kf.BatchTimeout == 0 {
		kf.BatchTimeout = 10 * time.Millisecond
	}

	// ── Logging ───────────────────────────────────────────────────────────────
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if len(cfg.Logging.OutputPaths) == 0 {
		cfg.Logging.OutputPaths = []string{"stdout"}
	}
	if len(cfg.Logging.ErrorOutputPaths) == 0 {
		cfg.Logging.ErrorOutputPaths = []string{"stderr"}
	}

	// ── Prometheus ────────────────────────────────────────────────────────────
	if cfg.Monitoring.Prometheus.Path == "" {
		cfg.Monitoring.Prometheus.Path = DefaultMetricsPath
	}
	if cfg.Monitoring.Prometheus.Namespace == "" {
		cfg.Monitoring.Prometheus.Namespace = DefaultMetricsNamespace
	}

	// ── Scoring ───────────────────────────────────────────────────────────────
	if cfg.Scoring.InitialMaxScore == 0 {
		cfg.Scoring.InitialMaxScore = maturity.DefaultInitialMaxScore
	}
	if cfg.Scoring.AdvancedMaxScore == 0 {
		cfg.Scoring.AdvancedMaxScore = maturity.DefaultAdvancedMaxScore
	}
	if cfg.Scoring.WeakestCount == 0 {
		cfg.Scoring.WeakestCount = maturity.DefaultWeakestCount
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MatchLimit == 0 {
		cfg.Worker.MatchLimit = DefaultMatchLimit
	}
	if cfg.Worker.SpecialistTTL == 0 {
		cfg.Worker.SpecialistTTL = DefaultRedisTTL
	}
	if cfg.Worker.HandlerTimeout == 0 {
		cfg.Worker.HandlerTimeout = DefaultHandlerTimeout
	}
}

// registerKeys makes every known key visible to viper so that SIMPLE_*
// environment variables resolve even when no config file mentions the key.
func registerKeys(v *viper.Viper) {
	d := &Config{}
	ApplyDefaults(d)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
	v.SetDefault("server.cors_allowed_origins", []string{})
	v.SetDefault("server.rate_limit.enabled", false)
	v.SetDefault("server.rate_limit.requests_per_second", d.Server.RateLimit.RequestsPerSecond)
	v.SetDefault("server.rate_limit.burst", d.Server.RateLimit.Burst)

	v.SetDefault("database.postgres.host", d.Database.Postgres.Host)
	v.SetDefault("database.postgres.port", d.Database.Postgres.Port)
	v.SetDefault("database.postgres.user", d.Database.Postgres.User)
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", d.Database.Postgres.DBName)
	v.SetDefault("database.postgres.sslmode", d.Database.Postgres.SSLMode)
	v.SetDefault("database.postgres.max_open_conns", d.Database.Postgres.MaxOpenConns)
	v.SetDefault("database.postgres.max_idle_conns", d.Database.Postgres.MaxIdleConns)
	v.SetDefault("database.postgres.conn_max_lifetime", d.Database.Postgres.ConnMaxLifetime)
	v.SetDefault("database.postgres.auto_migrate", false)

	v.SetDefault("cache.redis.addr", d.Cache.Redis.Addr)
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.default_ttl", d.Cache.Redis.DefaultTTL)
	v.SetDefault("cache.redis.key_prefix", d.Cache.Redis.KeyPrefix)

	v.SetDefault("messaging.kafka.brokers", d.Messaging.Kafka.Brokers)
	v.SetDefault("messaging.kafka.consumer_group", d.Messaging.Kafka.ConsumerGroup)
	v.SetDefault("messaging.kafka.client_id", d.Messaging.Kafka.ClientID)
	v.SetDefault("messaging.kafka.auto_offset_reset", d.Messaging.Kafka.AutoOffsetReset)
	v.SetDefault("messaging.kafka.max_retries", d.Messaging.Kafka.MaxRetries)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.path", d.Monitoring.Prometheus.Path)
	v.SetDefault("monitoring.prometheus.namespace", d.Monitoring.Prometheus.Namespace)

	v.SetDefault("scoring.initial_max_score", d.Scoring.InitialMaxScore)
	v.SetDefault("scoring.advanced_max_score", d.Scoring.AdvancedMaxScore)
	v.SetDefault("scoring.weakest_count", d.Scoring.WeakestCount)

	v.SetDefault("quiz.dir", "")
	v.SetDefault("quiz.watch", false)

	v.SetDefault("worker.concurrency", d.Worker.Concurrency)
	v.SetDefault("worker.match_limit", d.Worker.MatchLimit)
	v.SetDefault("worker.specialist_ttl", d.Worker.SpecialistTTL)
	v.SetDefault("worker.handler_timeout", d.Worker.HandlerTimeout)
}

// ScoringEngineConfig converts the scoring section to the engine's config.
func (c *Config) ScoringEngineConfig() maturity.ScoringConfig {
	return maturity.ScoringConfig{
		InitialMaxScore:  c.Scoring.InitialMaxScore,
		AdvancedMaxScore: c.Scoring.AdvancedMaxScore,
		WeakestCount:     c.Scoring.WeakestCount,
	}
}
