package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"eventsPipeline/internal/config"
	"eventsPipeline/internal/graceful"
	"eventsPipeline/internal/intake"
	"eventsPipeline/internal/metrics"
	"eventsPipeline/internal/migration"
	"eventsPipeline/internal/orchestrator"
	"eventsPipeline/internal/repositories"
	"eventsPipeline/internal/resolver"
	"eventsPipeline/internal/scraper"
	"eventsPipeline/internal/storage"
	telegramBot "eventsPipeline/internal/telegram"
	"eventsPipeline/internal/transport/httpServer"
	"eventsPipeline/internal/transport/httpServer/handlers"
	"eventsPipeline/internal/transport/httpServer/routers"
	"eventsPipeline/internal/urlclassifier"
	"eventsPipeline/internal/utils/logger/handlers/slogpretty"
	"eventsPipeline/internal/utils/logger/sl"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

var Version = "0.2"

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info(
		"starting events pipeline",
		slog.String("env", cfg.Env),
		slog.String("version", Version),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipelineMetrics := metrics.New(registry)

	repositoryService := repositories.New(log, cfg)
	entityResolver := resolver.New(log, repositoryService, cfg.IntakeConfig.SimilarityThreshold, pipelineMetrics)
	intakeZone, err := cfg.IntakeConfig.Location()
	if err != nil {
		log.Error("invalid intake timezone", sl.Err(err))
		os.Exit(1)
	}
	intakeService := intake.NewService(log, repositoryService, entityResolver, cfg.IntakeConfig.DefaultPriceType, pipelineMetrics).
		WithTimezone(intakeZone)

	bucket := storage.NewLocalBucket(cfg.StorageConfig)
	classifier := urlclassifier.New(bucket.Namespace())
	if err := bucket.Ready(context.Background()); err != nil {
		log.Warn("owned storage is not ready, media migrations will be refused", sl.Err(err))
	}
	migrationWorker := migration.NewWorker(
		log,
		repositoryService,
		bucket,
		migration.NewHTTPFetcher(cfg.MigrationConfig),
		classifier,
		cfg.MigrationConfig,
		pipelineMetrics,
	)

	if cfg.NotifierConfig.Enabled() {
		tgBot, err := telegramBot.New(log, cfg.NotifierConfig)
		if err != nil {
			log.Error("telegram notifier disabled", sl.Err(err))
		} else {
			intakeService.WithNotifier(tgBot)
			migrationWorker.WithNotifier(tgBot)
		}
	}

	scraperService := scraper.New(log, cfg.ScraperConfig, intakeService)
	orchestratorService := orchestrator.New(log, cfg.ScraperConfig, scraperService)

	// HTTP Server
	intakeHandler := handlers.NewIntakeHandler(log, intakeService, cfg.IntakeConfig.MaxBodyBytes)
	migrationHandler := handlers.NewMigrationHandler(log, migrationWorker)
	collectorHandler := handlers.NewCollectorHandler(log, orchestratorService, classifier)
	router := routers.NewRouter(
		log,
		cfg.HttpServer.CollectorSecret,
		registry,
		routers.Storage{Bucket: cfg.StorageConfig.Bucket, Dir: bucket.Dir()},
		intakeHandler,
		migrationHandler,
		collectorHandler,
	)
	httpSrv := httpServer.NewHttpServer(log, router, cfg)

	maxSecond := 15 * time.Second
	waitShutdown := graceful.GracefulShutdown(
		context.Background(),
		maxSecond,
		map[string]graceful.Operation{
			"Scraper service": func(ctx context.Context) error {
				return scraperService.Shutdown(ctx)
			},
			"Repository service": func(ctx context.Context) error {
				return repositoryService.Shutdown(ctx)
			},
			"HTTP server": func(ctx context.Context) error {
				return httpSrv.Shutdown(ctx)
			},
		},
		log,
	)

	go scraperService.Start()
	go httpSrv.Listen()

	<-waitShutdown
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog(slog.LevelDebug)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = setupPrettySlog(slog.LevelInfo)
	default: // If env config is invalid, set prod settings by default due to security
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog(level slog.Level) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: level,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
