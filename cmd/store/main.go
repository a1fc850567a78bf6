package main

import (
	"context"
	"encoding/json"
	"energycast/internal/config"
	"energycast/internal/database"
	"energycast/internal/logging"
	"energycast/internal/models"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	consumerGroup = "covariate_consumers"
	consumerName  = "consumer-1"
)

type covariateStore interface {
	UpdateCovariates(region string, samples []models.WeatherSample) (int64, error)
}

func main() {
	_ = godotenv.Load()
	logger := logging.FromEnv()

	cfg, err := config.Load(getEnv("CONFIG_PATH", "./config.yaml"))
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}

	redisCfg := config.GetRedisConfig().WithFile(cfg)
	redisClient := redis.NewClient(redisCfg.Options())
	defer redisClient.Close()

	db, err := database.NewDB(config.GetDatabaseDSN(), config.GetPoolConfig())
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ensureGroup(ctx, redisClient, redisCfg.Stream); err != nil {
		logger.WithError(err).Fatal("Failed to create consumer group")
	}

	logger.WithField("stream", redisCfg.Stream).Info("Store started, reading covariates from Redis stream")
	consume(ctx, redisClient, redisCfg.Stream, db, logger)
	logger.Info("Store service stopped")
}

func ensureGroup(ctx context.Context, redisClient *redis.Client, stream string) error {
	err := redisClient.XGroupCreateMkStream(ctx, stream, consumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// consume reads covariate payloads until ctx is canceled
func consume(ctx context.Context, redisClient *redis.Client, stream string, db covariateStore, logger logrus.FieldLogger) {
	for ctx.Err() == nil {
		streams, err := redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: consumerName,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				logger.WithError(err).Warn("Error reading from Redis")
			}
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				if handle(db, msg, logger) {
					redisClient.XAck(context.Background(), stream, consumerGroup, msg.ID)
				}
			}
		}
	}
}

// handle stores one message and reports whether it should be acknowledged.
// Malformed payloads are acknowledged so they are not redelivered forever.
func handle(db covariateStore, msg redis.XMessage, logger logrus.FieldLogger) bool {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		logger.WithField("id", msg.ID).Warn("Message has no data field")
		return true
	}

	var payload struct {
		Region  config.Region          `json:"region"`
		Samples []models.WeatherSample `json:"samples"`
		Type    string                 `json:"type"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		logger.WithError(err).WithField("id", msg.ID).Warn("Failed to unmarshal message")
		return true
	}

	log := logger.WithFields(logrus.Fields{"region": payload.Region.Name, "type": payload.Type})
	updated, err := db.UpdateCovariates(payload.Region.Name, payload.Samples)
	if err != nil {
		log.WithError(err).Warn("Failed to store covariates")
		return false
	}
	log.WithFields(logrus.Fields{"samples": len(payload.Samples), "updated": updated}).Info("Stored covariates")
	return true
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
