package main

import (
	"context"
	"energycast/internal/analysis"
	"energycast/internal/config"
	"energycast/internal/forecast"
	"energycast/internal/logging"
	"energycast/internal/mlclient"
	"energycast/internal/server"
	"energycast/internal/telemetry"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()
	logger := logging.FromEnv()

	cfg, err := config.Load(getEnv("CONFIG_PATH", "./config.yaml"))
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.InitTracer(ctx, telemetry.ConfigFromEnv("energycast-server", version))
	if err != nil {
		logger.WithError(err).Warn("Tracing disabled")
	}
	defer telemetry.Shutdown(context.Background(), tp)

	opts := []forecast.Option{forecast.WithLogger(logger)}

	if cfg.Learned.Enabled {
		redisCfg := config.GetRedisConfig().WithFile(cfg)
		redisClient := redis.NewClient(redisCfg.Options())
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable, learned models will decline")
		}
		opts = append(opts, forecast.WithModelClient(mlclient.NewRedisModelClient(
			redisClient, redisCfg.ModelInputStream, redisCfg.ModelOutputStream, mlclient.WithLogger(logger))))
	}

	forecastCfg := cfg.ForecastConfig()
	analyzer := analysis.NewAnalyzer(cfg.AnalysisConfig())
	orchestrator := forecast.NewOrchestrator(forecastCfg, analyzer, opts...)

	srv, err := server.NewServer(orchestrator, analyzer, server.Options{
		CacheSize:      cfg.Server.CacheSize,
		RateLimit:      cfg.Server.RateLimit,
		Burst:          cfg.Server.Burst,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SampleSeed:     cfg.Server.SampleSeed,
		LearnedEnabled: cfg.Learned.Enabled,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create server")
	}

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8000"
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":           addr,
			"min_window":     forecastCfg.MinWindow,
			"learned_models": cfg.Learned.Enabled,
		}).Info("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
	logger.Info("Server stopped")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
