package main

import (
	"context"
	"energycast/internal/models"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	region  string
	samples []models.WeatherSample
	err     error
}

func (f *fakeStore) UpdateCovariates(region string, samples []models.WeatherSample) (int64, error) {
	f.region, f.samples = region, samples
	return int64(len(samples)), f.err
}

func TestHandle(t *testing.T) {
	logger, _ := test.NewNullLogger()
	valid := `{"region":{"name":"north"},"samples":[{"timestamp":"2024-06-03T00:00:00Z","temperature":14.5}],"type":"recent"}`

	tests := []struct {
		name      string
		values    map[string]interface{}
		storeErr  error
		wantAck   bool
		wantCalls bool
	}{
		{"valid payload", map[string]interface{}{"data": valid}, nil, true, true},
		{"store failure is retried", map[string]interface{}{"data": valid}, errors.New("db down"), false, true},
		{"malformed json", map[string]interface{}{"data": "{"}, nil, true, false},
		{"missing data field", map[string]interface{}{"other": "x"}, nil, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{err: tt.storeErr}
			got := handle(store, redis.XMessage{ID: "1-0", Values: tt.values}, logger)
			if got != tt.wantAck {
				t.Errorf("handle() = %v, want %v", got, tt.wantAck)
			}
			if tt.wantCalls {
				assert.Equal(t, "north", store.region)
				require.Len(t, store.samples, 1)
				assert.Equal(t, 14.5, store.samples[0].Temperature)
			} else {
				assert.Empty(t, store.region)
			}
		})
	}
}

func TestEnsureGroup_Idempotent(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	ctx := context.Background()
	require.NoError(t, ensureGroup(ctx, redisClient, "weather_covariates"))
	require.NoError(t, ensureGroup(ctx, redisClient, "weather_covariates"))
}
