// Package mlclient runs learned sequence models out of process. Jobs are
// published to a Redis stream and a model worker answers on another stream.
package mlclient

import (
	"context"
	"encoding/json"
	"energycast/internal/models"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	defaultMaxLen       = 500
)

// Job is the payload a model worker receives
type Job struct {
	JobID        string        `json:"job_id"`
	Model        string        `json:"model"`
	Observations models.Window `json:"observations"`
	RequestedAt  time.Time     `json:"requested_at"`
}

// Result is the payload a model worker answers with
type Result struct {
	JobID      string  `json:"job_id"`
	Model      string  `json:"model"`
	Prediction float64 `json:"prediction"`
	Error      string  `json:"error,omitempty"`
}

// RedisModelClient publishes prediction jobs and waits for the matching result
type RedisModelClient struct {
	rdb          *redis.Client
	inputStream  string
	outputStream string
	pollInterval time.Duration
	maxLen       int64
	logger       logrus.FieldLogger
}

// Option configures a RedisModelClient
type Option func(*RedisModelClient)

// WithPollInterval sets how long each read blocks on the output stream
func WithPollInterval(d time.Duration) Option {
	return func(c *RedisModelClient) { c.pollInterval = d }
}

// WithLogger sets the client logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *RedisModelClient) { c.logger = logger }
}

// NewRedisModelClient creates a client on the given job and result streams
func NewRedisModelClient(rdb *redis.Client, inputStream, outputStream string, opts ...Option) *RedisModelClient {
	c := &RedisModelClient{
		rdb:          rdb,
		inputStream:  inputStream,
		outputStream: outputStream,
		pollInterval: defaultPollInterval,
		maxLen:       defaultMaxLen,
		logger:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Predict publishes window as a job for model and blocks until the worker
// answers or ctx is done.
func (c *RedisModelClient) Predict(ctx context.Context, model string, window models.Window) (float64, error) {
	job := Job{
		JobID:        uuid.NewString(),
		Model:        model,
		Observations: window,
		RequestedAt:  time.Now().UTC(),
	}

	// Only results published after the job are of interest
	lastID := "0-0"
	lastMessages, err := c.rdb.XRevRangeN(ctx, c.outputStream, "+", "-", 1).Result()
	if err == nil && len(lastMessages) > 0 {
		lastID = lastMessages[0].ID
	}

	data, err := json.Marshal(job)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal job: %w", err)
	}

	err = c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: c.inputStream,
		Values: map[string]interface{}{"data": string(data)},
	}).Err()
	if err != nil {
		return 0, fmt.Errorf("failed to publish job to %s: %w", c.inputStream, err)
	}

	log := c.logger.WithFields(logrus.Fields{"job_id": job.JobID, "model": model})
	log.WithField("observations", len(window)).Debug("Published model job")

	for {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("waiting for %s result: %w", model, err)
		}

		streams, err := c.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{c.outputStream, lastID},
			Count:   10,
			Block:   c.pollInterval,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return 0, fmt.Errorf("waiting for %s result: %w", model, ctx.Err())
			}
			return 0, fmt.Errorf("failed to read %s: %w", c.outputStream, err)
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID

				result, ok := c.parseResult(msg)
				if !ok || result.JobID != job.JobID {
					continue
				}

				c.trim(ctx)
				if result.Error != "" {
					return 0, fmt.Errorf("%s worker: %s", model, result.Error)
				}
				log.WithField("prediction", result.Prediction).Debug("Received model result")
				return result.Prediction, nil
			}
		}
	}
}

func (c *RedisModelClient) parseResult(msg redis.XMessage) (Result, bool) {
	var result Result
	dataStr, ok := msg.Values["data"].(string)
	if !ok {
		c.logger.WithField("message_id", msg.ID).Warn("Result message has no data field")
		return result, false
	}
	if err := json.Unmarshal([]byte(dataStr), &result); err != nil {
		c.logger.WithError(err).WithField("message_id", msg.ID).Warn("Failed to parse model result")
		return result, false
	}
	return result, true
}

// trim keeps both streams bounded
func (c *RedisModelClient) trim(ctx context.Context) {
	for _, stream := range []string{c.inputStream, c.outputStream} {
		if err := c.rdb.XTrimMaxLen(ctx, stream, c.maxLen).Err(); err != nil {
			c.logger.WithError(err).WithField("stream", stream).Debug("Failed to trim stream")
		}
	}
}
