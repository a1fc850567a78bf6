package main

import (
	"context"
	"encoding/json"
	"energycast/internal/api"
	"energycast/internal/config"
	"energycast/internal/database"
	"energycast/internal/logging"
	"energycast/internal/models"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	historicalDays = 7
	recentDays     = 1
)

// CovariatePayload is one region's weather published to the covariate stream
type CovariatePayload struct {
	Region  config.Region          `json:"region"`
	Samples []models.WeatherSample `json:"samples"`
	Type    string                 `json:"type"` // "historical" or "recent"
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

	client := api.NewOpenMeteoClient(os.Getenv("OPEN_METEO_URL"))

	// Regions without stored observations get a full week of history
	regionsWithData, err := db.GetRegionsWithData()
	if err != nil {
		logger.WithError(err).Fatal("Failed to get regions with data")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, region := range cfg.Regions {
		g.Go(func() error {
			log := logger.WithField("region", region.Name)

			dataType, pastDays := "recent", recentDays
			if !regionsWithData[region.Name] {
				dataType, pastDays = "historical", historicalDays
				log.Info("New region detected, fetching historical covariates")
			}

			samples, err := client.GetHourlyCovariates(gctx, region.Latitude, region.Longitude, cfg.Weather.MonitoredFields, pastDays)
			if err != nil {
				log.WithError(err).Warn("Failed to fetch covariates")
				return nil
			}

			payload := CovariatePayload{Region: region, Samples: pastOnly(samples, time.Now()), Type: dataType}
			if err := publish(gctx, redisClient, redisCfg.Stream, payload); err != nil {
				log.WithError(err).Warn("Failed to publish covariates")
				return nil
			}
			log.WithFields(logrus.Fields{"type": dataType, "samples": len(payload.Samples)}).Info("Published covariates")
			return nil
		})
	}

	g.Wait()
	logger.Info("Data collection completed. Exiting")
}

// pastOnly drops forecast hours later than now
func pastOnly(samples []models.WeatherSample, now time.Time) []models.WeatherSample {
	out := samples[:0:0]
	for _, s := range samples {
		if !s.Timestamp.After(now) {
			out = append(out, s)
		}
	}
	return out
}

// publish serializes the payload and appends it to a Redis stream
func publish(ctx context.Context, redisClient *redis.Client, stream string, payload CovariatePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"data": string(data)},
	}).Err()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
