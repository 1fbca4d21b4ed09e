package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/adapter/notifier"
	"github.com/iho/gowallet/internal/adapter/ops"
	postgresRepo "github.com/iho/gowallet/internal/adapter/repository/postgres"
	"github.com/iho/gowallet/internal/fraud"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/fraudscan"
	"github.com/iho/gowallet/internal/infrastructure/logger"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
	"github.com/iho/gowallet/internal/infrastructure/redis"
	"github.com/iho/gowallet/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	fraudCfg, err := fraudConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid fraud configuration")
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Repositories and stores
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)

	// Fraud pipeline over the transaction history
	pipeline := fraud.NewDefaultPipeline(transactionRepo, fraudCfg)

	alertNotifier := notifier.NewLogNotifier(log.Logger)
	scanUC := usecase.NewFraudScanUseCase(transactionRepo, accountRepo, pipeline, alertNotifier, nil)

	m := metrics.New()

	// Fraud re-scan worker
	worker := fraudscan.NewWorker(fraudscan.Config{
		Scanner:  scanUC,
		Metrics:  m,
		Interval: cfg.ScanInterval,
		Lookback: cfg.ScanLookback,
	})

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go func() {
		if err := worker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			log.Error().Err(err).Msg("fraud scan worker stopped")
		}
	}()

	// Operational HTTP server
	router := ops.NewRouter(ops.RouterConfig{
		Pool:        pool,
		RedisClient: redisClient,
		Metrics:     m,
		Logger:      log.Logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.OpsPort),
		Handler:      router,
		ReadTimeout:  cfg.OpsReadTimeout,
		WriteTimeout: cfg.OpsWriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.OpsPort).Msg("starting ops server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ops server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.OpsShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("ops server forced to shutdown")
	}

	log.Info().Msg("stopped")
}

// fraudConfig builds the pipeline thresholds from the environment.
func fraudConfig(cfg *config.Config) (fraud.Config, error) {
	threshold, err := decimal.NewFromString(cfg.FraudLargeAmountThreshold)
	if err != nil {
		return fraud.Config{}, fmt.Errorf("parse large amount threshold: %w", err)
	}

	margin, err := decimal.NewFromString(cfg.FraudDeviationMargin)
	if err != nil {
		return fraud.Config{}, fmt.Errorf("parse deviation margin: %w", err)
	}

	return fraud.Config{
		LargeAmountThreshold: threshold,
		VelocityLimit:        cfg.FraudVelocityLimit,
		VelocityWindow:       cfg.FraudVelocityWindow,
		DeviationWindow:      cfg.FraudDeviationWindow,
		DeviationMargin:      margin,
	}, nil
}
