// Command apiserver serves the SIMPLE scoring API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/SIMPLE/internal/application/assessment"
	"github.com/turtacn/SIMPLE/internal/application/matching"
	"github.com/turtacn/SIMPLE/internal/application/quiz"
	"github.com/turtacn/SIMPLE/internal/application/reporting"
	"github.com/turtacn/SIMPLE/internal/config"
	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/postgres"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/redis"
	"github.com/turtacn/SIMPLE/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/prometheus"
	httpapi "github.com/turtacn/SIMPLE/internal/interfaces/http"
	"github.com/turtacn/SIMPLE/internal/interfaces/http/handlers"
)

// version is injected via ldflags.
var version = "dev"

const eventSource = "simple-apiserver"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: SIMPLE_* environment only)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logging.SetDefault(logger)
	logger.Info("starting SIMPLE API server", logging.String("version", version), logging.String("addr", cfg.Server.Addr()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Monitoring.Prometheus.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	// ── Infrastructure ───────────────────────────────────────────────────────
	pg := cfg.Database.Postgres
	if pg.AutoMigrate {
		if err := postgres.RunMigrations(pg.DSN(), logger.Named("migrate")); err != nil {
			return err
		}
	}
	conn, err := postgres.NewConnection(pg, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	rdb, err := redis.NewClient(cfg.Cache.Redis, logger)
	if err != nil {
		return err
	}
	defer rdb.Close()
	cache := redis.NewRedisCache(rdb, logger,
		redis.WithPrefix(cfg.Cache.Redis.KeyPrefix),
		redis.WithDefaultTTL(cfg.Cache.Redis.DefaultTTL),
		redis.WithMetrics(metrics, "specialists"),
	)

	producer, err := kafka.NewProducer(cfg.Messaging.Kafka, logger, metrics)
	if err != nil {
		return err
	}
	defer producer.Close()

	// ── Application ──────────────────────────────────────────────────────────
	engine, err := maturity.NewEngine(cfg.ScoringEngineConfig())
	if err != nil {
		return err
	}
	catalog, err := quiz.NewCatalog(quiz.Options{Dir: cfg.Quiz.Dir, Scoring: engine.Config()}, logger, metrics)
	if err != nil {
		return err
	}
	renderer, err := reporting.NewRenderer()
	if err != nil {
		return err
	}

	assess := assessment.NewService(
		repositories.NewPostgresEvaluationRepo(conn, logger, metrics),
		catalog, engine,
		kafka.NewEvaluationPublisher(producer, eventSource),
		logger, metrics,
	)
	reports := reporting.NewService(assess, repositories.NewPostgresReportStore(conn, metrics), renderer, logger, metrics)
	matcher := matching.NewService(assess, repositories.NewPostgresSpecialistRepo(conn, logger, metrics), cache,
		matching.Options{CacheTTL: cfg.Worker.SpecialistTTL, WarmLimit: cfg.Worker.MatchLimit}, logger)

	// ── HTTP ─────────────────────────────────────────────────────────────────
	limiter, limitCfg := rateLimit(cfg.Server.RateLimit)
	routerCfg := httpapi.RouterConfig{
		HealthHandler:     handlers.NewHealthHandler(version, healthCheckers(conn, rdb)...),
		QuizHandler:       handlers.NewQuizHandler(catalog, logger),
		EvaluationHandler: handlers.NewEvaluationHandler(assess, logger),
		ReportHandler:     handlers.NewReportHandler(reports, logger),
		SpecialistHandler: handlers.NewSpecialistHandler(matcher, logger),
		CORS:              corsConfig(cfg.Server),
		RateLimiter:       limiter,
		RateLimit:         limitCfg,
		Logger:            logger,
		Metrics:           metrics,
	}
	if cfg.Monitoring.Prometheus.Enabled {
		routerCfg.MetricsHandler = collector.Handler()
		routerCfg.MetricsPath = cfg.Monitoring.Prometheus.Path
	}
	srv := httpapi.NewServer(cfg.Server, httpapi.NewRouter(routerCfg), logger)

	if configPath != "" {
		if err := config.Watch(configPath, reloadLogLevel(logger), func(err error) {
			logger.Warn("config reload rejected", logging.Err(err))
		}); err != nil {
			logger.Warn("config watch disabled", logging.Err(err))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if cfg.Quiz.Watch {
		g.Go(func() error { return catalog.Watch(gctx) })
	}
	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	logger.Info("API server stopped")
	return nil
}
