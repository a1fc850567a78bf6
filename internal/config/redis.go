package config

import (
	"os"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// RedisConfig locates the Redis instance and the streams the pipeline uses
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string // weather covariates published by cmd/collect

	ModelInputStream  string // forecast jobs for the learned-model worker
	ModelOutputStream string // learned-model results
}

func GetRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:              getEnv("REDIS_ADDR", "localhost:6379"),
		Password:          os.Getenv("REDIS_PASSWORD"),
		DB:                getEnvInt("REDIS_DB", 0),
		Stream:            getEnv("REDIS_STREAM", "weather_covariates"),
		ModelInputStream:  getEnv("MODEL_INPUT_STREAM", "forecast_jobs"),
		ModelOutputStream: getEnv("MODEL_OUTPUT_STREAM", "forecast_results"),
	}
}

// Options builds go-redis client options
func (c RedisConfig) Options() *redis.Options {
	return &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	}
}

// WithFile overlays non-empty values from the YAML redis and learned sections
func (c RedisConfig) WithFile(cfg *Config) RedisConfig {
	if cfg == nil {
		return c
	}
	if cfg.Redis.Addr != "" && os.Getenv("REDIS_ADDR") == "" {
		c.Addr = cfg.Redis.Addr
	}
	if cfg.Redis.Stream != "" && os.Getenv("REDIS_STREAM") == "" {
		c.Stream = cfg.Redis.Stream
	}
	if cfg.Learned.InputStream != "" && os.Getenv("MODEL_INPUT_STREAM") == "" {
		c.ModelInputStream = cfg.Learned.InputStream
	}
	if cfg.Learned.OutputStream != "" && os.Getenv("MODEL_OUTPUT_STREAM") == "" {
		c.ModelOutputStream = cfg.Learned.OutputStream
	}
	return c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
