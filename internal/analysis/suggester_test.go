package analysis

import (
	"energycast/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSuggester() *AlertSuggester {
	s := NewAlertSuggester()
	s.now = func() time.Time { return start }
	return s
}

func TestSuggestAlerts_Empty(t *testing.T) {
	s := fixedSuggester()
	assert.Nil(t, s.SuggestAlerts(nil, "north"))
}

func TestSuggestAlerts_BelowMinimum(t *testing.T) {
	s := fixedSuggester()
	anomalies := []models.Anomaly{
		{Value: 300, ZScore: 3},
		{Value: 310, ZScore: 3.1},
	}
	assert.Empty(t, s.SuggestAlerts(anomalies, "north"))
}

func TestSuggestAlerts_Surges(t *testing.T) {
	s := fixedSuggester()
	anomalies := []models.Anomaly{
		{Value: 300, ZScore: 3.0},
		{Value: 320, ZScore: 3.4},
		{Value: 340, ZScore: 3.8},
		{Value: 20, ZScore: -2.9},
	}

	suggestions := s.SuggestAlerts(anomalies, "north")

	require.Len(t, suggestions, 1)
	got := suggestions[0]
	assert.Equal(t, "north", got.Region)
	assert.Equal(t, ">", got.Operator)
	assert.Equal(t, "consumption", got.MetricType)
	assert.Equal(t, 3, got.AnomalyCount)
	assert.InDelta(t, 300.0, got.Threshold, 1e-9) // mean 320, std 20
	assert.InDelta(t, 2.0/3.0, got.Confidence, 1e-9)
	assert.Equal(t, start, got.SuggestedAt)
}

func TestSuggestAlerts_Drops(t *testing.T) {
	s := fixedSuggester()
	anomalies := []models.Anomaly{
		{Value: 10, ZScore: -3.0},
		{Value: 20, ZScore: -2.8},
		{Value: 30, ZScore: -2.6},
	}

	suggestions := s.SuggestAlerts(anomalies, "south")

	require.Len(t, suggestions, 1)
	assert.Equal(t, "<", suggestions[0].Operator)
	assert.InDelta(t, 30.0, suggestions[0].Threshold, 1e-9)
}

func TestCalculateConfidence(t *testing.T) {
	s := fixedSuggester()

	tests := []struct {
		name      string
		values    []float64
		threshold float64
		operator  string
		want      float64
	}{
		{name: "all above", values: []float64{5, 6, 7}, threshold: 1, operator: ">", want: 1},
		{name: "half below", values: []float64{1, 9}, threshold: 5, operator: "<", want: 0.5},
		{name: "empty", values: nil, threshold: 5, operator: ">", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.calculateConfidence(tt.values, tt.threshold, tt.operator)
			if got != tt.want {
				t.Errorf("calculateConfidence() = %v, want %v", got, tt.want)
			}
		})
	}
}
