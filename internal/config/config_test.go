package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SIMPLE/internal/config"
)

// validConfig returns a Config that passes Validate().
func validConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Database.Postgres.Password = "secret"
	return cfg
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_Failures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"port zero", func(c *config.Config) { c.Server.Port = 0 }, "server.port"},
		{"port too high", func(c *config.Config) { c.Server.Port = 65536 }, "server.port"},
		{"negative body limit", func(c *config.Config) { c.Server.MaxBodyBytes = -1 }, "server.max_body_bytes"},
		{"rate limit without rate", func(c *config.Config) {
			c.Server.RateLimit.Enabled = true
			c.Server.RateLimit.RequestsPerSecond = 0
		}, "server.rate_limit"},
		{"missing db host", func(c *config.Config) { c.Database.Postgres.Host = "" }, "database.postgres.host"},
		{"missing db user", func(c *config.Config) { c.Database.Postgres.User = "" }, "database.postgres.user"},
		{"missing db name", func(c *config.Config) { c.Database.Postgres.DBName = "" }, "database.postgres.dbname"},
		{"no db conns", func(c *config.Config) { c.Database.Postgres.MaxOpenConns = 0 }, "max_open_conns"},
		{"missing redis", func(c *config.Config) { c.Cache.Redis.Addr = "" }, "cache.redis.addr"},
		{"negative redis db", func(c *config.Config) { c.Cache.Redis.DB = -1 }, "cache.redis.db"},
		{"no brokers", func(c *config.Config) { c.Messaging.Kafka.Brokers = nil }, "brokers"},
		{"no group", func(c *config.Config) { c.Messaging.Kafka.ConsumerGroup = "" }, "consumer_group"},
		{"bad offset reset", func(c *config.Config) { c.Messaging.Kafka.AutoOffsetReset = "newest" }, "auto_offset_reset"},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "text" }, "logging.format"},
		{"zero advanced max", func(c *config.Config) { c.Scoring.AdvancedMaxScore = 0 }, "scoring max"},
		{"zero weakest", func(c *config.Config) { c.Scoring.WeakestCount = 0 }, "weakest_count"},
		{"zero workers", func(c *config.Config) { c.Worker.Concurrency = 0 }, "worker.concurrency"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestServerConfig_Addr(t *testing.T) {
	t.Parallel()
	s := config.ServerConfig{Host: "127.0.0.1", Port: 9090}
	assert.Equal(t, "127.0.0.1:9090", s.Addr())
}

func TestPostgresConfig_DSN(t *testing.T) {
	t.Parallel()
	p := config.PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "simple", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/simple?sslmode=disable", p.DSN())
}

func TestConfig_ScoringEngineConfig(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Scoring.AdvancedMaxScore = 75

	sc := cfg.ScoringEngineConfig()
	assert.Equal(t, 45, sc.InitialMaxScore)
	assert.Equal(t, 75, sc.AdvancedMaxScore)
	assert.Equal(t, 2, sc.WeakestCount)
	assert.NoError(t, sc.Validate())
}
