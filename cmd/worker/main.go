// Command worker consumes evaluation events: it warms the specialist cache
// and archives rendered reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	"github.com/turtacn/SIMPLE/internal/interfaces/worker"
)

var version = "dev"

const lockPrefix = "simple:lock:"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: SIMPLE_* environment only)")
	concurrency := flag.Int("concurrency", 0, "number of consumers (default: worker.concurrency)")
	metricsPort := flag.Int("metrics-port", 9100, "port for /healthz, /readyz and /metrics")
	flag.Parse()

	if err := run(*configPath, *concurrency, *metricsPort); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, concurrency, metricsPort int) error {
	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = cfg.Worker.Concurrency
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      cfg.Logging.OutputPaths,
		ErrorOutputPaths: cfg.Logging.ErrorOutputPaths,
		EnableCaller:     cfg.Logging.EnableCaller,
		EnableStacktrace: cfg.Logging.EnableStacktrace,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger = logger.Named("worker")
	logging.SetDefault(logger)
	logger.Info("starting SIMPLE worker",
		logging.String("version", version),
		logging.Int("concurrency", concurrency),
		logging.Strings("brokers", cfg.Messaging.Kafka.Brokers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Monitoring.Prometheus.Namespace,
		Subsystem:            "worker",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	topics, err := kafka.NewTopicManager(cfg.Messaging.Kafka.Brokers, logger)
	if err != nil {
		return err
	}
	if err := topics.EnsureDefaultTopics(ctx); err != nil {
		logger.Warn("topic provisioning failed, relying on broker auto-creation", logging.Err(err))
	}
	topics.Close()

	conn, err := postgres.NewConnection(cfg.Database.Postgres, logger)
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

	// The worker never creates evaluations, so it publishes nothing.
	assess := assessment.NewService(repositories.NewPostgresEvaluationRepo(conn, logger, metrics), catalog, engine, nil, logger, metrics)
	reports := reporting.NewService(assess, repositories.NewPostgresReportStore(conn, metrics), renderer, logger, metrics)
	matcher := matching.NewService(assess, repositories.NewPostgresSpecialistRepo(conn, logger, metrics), cache,
		matching.Options{CacheTTL: cfg.Worker.SpecialistTTL, WarmLimit: cfg.Worker.MatchLimit}, logger)

	handler := worker.NewHandler(matcher, reports, redis.NewLocker(rdb, lockPrefix), worker.Options{
		Timeout: cfg.Worker.HandlerTimeout,
		LockTTL: lockTTL(cfg.Worker.HandlerTimeout),
	}, logger)

	opsCfg := cfg.Server
	opsCfg.Port = metricsPort
	ops := httpapi.NewServer(opsCfg, httpapi.NewRouter(httpapi.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(version,
			handlers.CheckFunc{Component: "postgres", Fn: conn.HealthCheck},
			handlers.CheckFunc{Component: "redis", Fn: rdb.HealthCheck},
		),
		Logger:         logger,
		Metrics:        metrics,
		MetricsHandler: collector.Handler(),
		MetricsPath:    cfg.Monitoring.Prometheus.Path,
	}), logger)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		consumer, err := kafka.NewConsumer(cfg.Messaging.Kafka, []string{kafka.TopicEvaluationCompleted}, logger.With(logging.Int("consumer", i)), metrics)
		if err != nil {
			return err
		}
		defer consumer.Close()
		handler.Register(consumer)
		g.Go(func() error { return consumer.Run(gctx) })
	}
	g.Go(func() error { return ops.Run(gctx) })
	if cfg.Quiz.Watch {
		g.Go(func() error { return catalog.Watch(gctx) })
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	logger.Info("worker stopped")
	return nil
}

// lockTTL outlives one handler run so a slow message is not processed twice.
func lockTTL(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return time.Minute
	}
	return 2 * timeout
}
