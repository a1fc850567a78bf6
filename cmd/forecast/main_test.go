package main

import (
	"context"
	"energycast/internal/analysis"
	"energycast/internal/forecast"
	"energycast/internal/models"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	windows     map[string]models.Window
	forecasts   []models.ForecastRecord
	anomalies   map[string][]models.Anomaly
	suggestions []models.AlertSuggestion
}

func (f *fakeStore) GetRecentObservations(region string, limit int) (models.Window, error) {
	w, ok := f.windows[region]
	if !ok {
		return nil, errors.New("region not found")
	}
	if len(w) > limit {
		w = w[len(w)-limit:]
	}
	return append(models.Window{}, w...), nil
}

func (f *fakeStore) StoreForecast(rec *models.ForecastRecord) error {
	f.forecasts = append(f.forecasts, *rec)
	return nil
}

func (f *fakeStore) StoreAnomalies(region string, anomalies []models.Anomaly) error {
	if f.anomalies == nil {
		f.anomalies = map[string][]models.Anomaly{}
	}
	f.anomalies[region] = anomalies
	return nil
}

func (f *fakeStore) StoreAlertSuggestion(suggestion *models.AlertSuggestion) error {
	f.suggestions = append(f.suggestions, *suggestion)
	return nil
}

var start = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func constantWindow(n int, value float64) models.Window {
	w := make(models.Window, n)
	for i := range w {
		w[i] = models.NewObservation(start.Add(time.Duration(i)*time.Hour), value, 20, nil)
	}
	return w
}

func TestForecastRegion_Constant(t *testing.T) {
	store := &fakeStore{windows: map[string]models.Window{"north": constantWindow(200, 100)}}
	orchestrator := forecast.NewOrchestrator(forecast.DefaultConfig(), nil)

	result := forecastRegion(context.Background(), store, "north", orchestrator, analysis.NewAlertSuggester())

	require.NoError(t, result.Error)
	require.NotNil(t, result.Record)
	assert.InDelta(t, 100, result.Record.EnsembleValue, 0.01)
	assert.Equal(t, "ensemble", result.Record.ModelType)
	assert.Equal(t, start.Add(200*time.Hour), result.Record.TargetTime)
	assert.NotEmpty(t, result.Record.Contributors)
	assert.Empty(t, result.Anomalies)
	assert.Empty(t, result.Suggestions)
}

func TestForecastRegion_Errors(t *testing.T) {
	store := &fakeStore{windows: map[string]models.Window{"short": constantWindow(10, 100)}}
	orchestrator := forecast.NewOrchestrator(forecast.DefaultConfig(), nil)

	tests := []struct {
		name   string
		region string
	}{
		{"lookup failure", "missing"},
		{"insufficient history", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := forecastRegion(context.Background(), store, tt.region, orchestrator, analysis.NewAlertSuggester())
			if result.Error == nil {
				t.Errorf("forecastRegion(%q) error = nil, want error", tt.region)
			}
			assert.Nil(t, result.Record)
		})
	}
}

func TestRunForAllRegions(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := &fakeStore{windows: map[string]models.Window{
		"north": constantWindow(168, 100),
		"south": constantWindow(168, 250),
		"short": constantWindow(5, 100),
	}}
	orchestrator := forecast.NewOrchestrator(forecast.DefaultConfig(), nil)

	summary := runForAllRegions(context.Background(), store, []string{"north", "south", "short"},
		orchestrator, analysis.NewAlertSuggester(), logger)

	assert.Equal(t, 3, summary.Regions)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 2, summary.Forecasts)
	require.Len(t, store.forecasts, 2)

	byRegion := map[string]float64{}
	for _, rec := range store.forecasts {
		byRegion[rec.Region] = rec.EnsembleValue
	}
	assert.InDelta(t, 100, byRegion["north"], 0.01)
	assert.InDelta(t, 250, byRegion["south"], 0.01)
}
