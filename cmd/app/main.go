package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/skill-swap/pkg/auth"
	"github.com/chris/skill-swap/pkg/config"
	"github.com/chris/skill-swap/pkg/core"
	"github.com/chris/skill-swap/pkg/events"
	"github.com/chris/skill-swap/pkg/handlers"
	"github.com/chris/skill-swap/pkg/scheduler"
	"github.com/chris/skill-swap/pkg/storage"
	dydbstore "github.com/chris/skill-swap/pkg/storage/dynamodb"
	"github.com/chris/skill-swap/pkg/storage/memory"
	"github.com/chris/skill-swap/pkg/telemetry"
)

const tokenTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "skill-swap", cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	store, sched, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to build store", "error", err)
		os.Exit(1)
	}

	engine, err := core.New(core.Options{
		Store:         store,
		Scheduler:     sched,
		Publisher:     events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange),
		Logger:        logger,
		SweepInterval: cfg.ExpirySweepInterval,
		SeedSkills:    cfg.SeedSkills,
	})
	if err != nil {
		logger.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	if err := engine.Start(ctx); err != nil {
		logger.Error("failed to start engine", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handlers.NewRouter(engine, auth.NewJWTService(cfg.JWTSecret, tokenTTL), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.HTTPPort, "store", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	if err := engine.Shutdown(shutdownCtx); err != nil {
		logger.Error("engine shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", "error", err)
	}
}

// buildStore returns the configured storage backend and the expiry
// scheduler. The SQS scheduler is only used when a queue is configured.
func buildStore(ctx context.Context, cfg *config.Config) (storage.Storage, scheduler.Scheduler, error) {
	if cfg.StoreBackend == config.BackendMemory {
		return memory.New(), scheduler.NoOpScheduler{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	store := dydbstore.New(dynamodb.NewFromConfig(awsCfg), cfg.Tables())

	var sched scheduler.Scheduler = scheduler.NoOpScheduler{}
	if cfg.SQSQueueURL != "" {
		sched = scheduler.NewSQSScheduler(sqs.NewFromConfig(awsCfg), cfg.SQSQueueURL)
	}
	return store, sched, nil
}
