package main

import (
	"github.com/turtacn/SIMPLE/internal/config"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/postgres"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/redis"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/internal/interfaces/http/handlers"
	"github.com/turtacn/SIMPLE/internal/interfaces/http/middleware"
)

// healthCheckers exposes the backing stores to the readiness probe.
func healthCheckers(conn *postgres.Connection, rdb *redis.Client) []handlers.HealthChecker {
	return []handlers.HealthChecker{
		handlers.CheckFunc{Component: "postgres", Fn: conn.HealthCheck},
		handlers.CheckFunc{Component: "redis", Fn: rdb.HealthCheck},
	}
}

func corsConfig(cfg config.ServerConfig) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	c.AllowedOrigins = cfg.CORSAllowedOrigins
	return c
}

// rateLimit returns a nil limiter when rate limiting is disabled.
func rateLimit(cfg config.RateLimitConfig) (*middleware.KeyedLimiter, middleware.RateLimitConfig) {
	rl := middleware.DefaultRateLimitConfig()
	if !cfg.Enabled {
		return nil, rl
	}
	rl.RequestsPerSecond = cfg.RequestsPerSecond
	rl.Burst = cfg.Burst
	return middleware.NewKeyedLimiter(rl.RequestsPerSecond, rl.Burst, rl.IdleTTL), rl
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg config.LogConfig) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:            cfg.Level,
		Format:           cfg.Format,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: cfg.ErrorOutputPaths,
		EnableCaller:     cfg.EnableCaller,
		EnableStacktrace: cfg.EnableStacktrace,
	})
}

// reloadLogLevel applies the log level of a reloaded config; the other
// settings need a restart.
func reloadLogLevel(logger logging.Logger) func(*config.Config) {
	return func(c *config.Config) {
		ls, ok := logger.(logging.LevelSetter)
		if !ok {
			return
		}
		if err := ls.SetLevel(c.Logging.Level); err != nil {
			logger.Warn("ignoring reloaded log level", logging.Err(err))
			return
		}
		logger.Info("log level reloaded", logging.String("level", c.Logging.Level))
	}
}
