package main

import (
	"context"
	"encoding/json"
	"energycast/internal/config"
	"energycast/internal/models"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestPublish(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	humidity := 65.0
	payload := CovariatePayload{
		Region:  config.Region{Name: "north", Latitude: 59.91, Longitude: 10.75},
		Samples: []models.WeatherSample{{Timestamp: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Temperature: 14.5, Humidity: &humidity}},
		Type:    "historical",
	}

	if err := publish(context.Background(), redisClient, "weather_covariates", payload); err != nil {
		t.Fatalf("publish() error = %v", err)
	}

	msgs, err := redisClient.XRange(context.Background(), "weather_covariates", "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(msgs))
	}

	var decoded CovariatePayload
	if err := json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &decoded); err != nil {
		t.Fatalf("Failed to unmarshal payload: %v", err)
	}

	if decoded.Type != "historical" {
		t.Errorf("Expected type 'historical', got '%v'", decoded.Type)
	}
	if decoded.Region.Name != "north" {
		t.Errorf("Expected region 'north', got '%v'", decoded.Region.Name)
	}
	if len(decoded.Samples) != 1 || *decoded.Samples[0].Humidity != 65.0 {
		t.Errorf("Unexpected samples %+v", decoded.Samples)
	}
}

func TestPastOnly(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	samples := []models.WeatherSample{
		{Timestamp: now.Add(-time.Hour)},
		{Timestamp: now},
		{Timestamp: now.Add(time.Hour)},
	}

	got := pastOnly(samples, now)
	if len(got) != 2 {
		t.Errorf("pastOnly() kept %d samples, want 2", len(got))
	}
	if len(samples) != 3 {
		t.Error("pastOnly() modified its input")
	}
}

func TestHistoricalDaysConstant(t *testing.T) {
	if historicalDays != 7 {
		t.Errorf("Expected historicalDays to be 7, got %d", historicalDays)
	}
}
