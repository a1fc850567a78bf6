package analysis

import (
	"energycast/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

func hourlyWindow(n int, from time.Time, consumption func(i int) float64) models.Window {
	w := make(models.Window, n)
	for i := 0; i < n; i++ {
		w[i] = models.NewObservation(from.Add(time.Duration(i)*time.Hour), consumption(i), 20, nil)
	}
	return w
}

func TestStatistics_ConstantWindow(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	w := hourlyWindow(168, start, func(int) float64 { return 100 })

	stats := a.Statistics(w)

	assert.Equal(t, 168, stats.Count)
	assert.Equal(t, 100.0, stats.Mean)
	assert.Equal(t, 0.0, stats.Std)
	assert.Equal(t, 100.0, stats.Min)
	assert.Equal(t, 100.0, stats.Max)
	assert.Empty(t, stats.PeakHours)
	assert.Empty(t, stats.Anomalies)
	assert.Equal(t, map[models.Season]float64{models.Summer: 100}, stats.SeasonalAverages)
}

func TestStatistics_EmptyWindow(t *testing.T) {
	a := NewAnalyzer(Config{})
	stats := a.Statistics(nil)

	assert.Equal(t, 0, stats.Count)
	assert.Empty(t, stats.SeasonalAverages)
	assert.NotNil(t, stats.PeakHours)
}

func TestStatistics_SeasonalAveragesOmitEmptySeasons(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	// 2024-02-28 00:00 through 2024-03-02 23:00: winter then spring
	from := time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)
	w := hourlyWindow(96, from, func(i int) float64 {
		if from.Add(time.Duration(i)*time.Hour).Month() == time.February {
			return 80
		}
		return 60
	})

	stats := a.Statistics(w)

	require.Len(t, stats.SeasonalAverages, 2)
	assert.Equal(t, 80.0, stats.SeasonalAverages[models.Winter])
	assert.Equal(t, 60.0, stats.SeasonalAverages[models.Spring])
	_, hasSummer := stats.SeasonalAverages[models.Summer]
	assert.False(t, hasSummer)
}

func TestStatistics_SeasonalAveragesSkipMissingMonth(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	w := models.Window{
		{Consumption: 500, Hour: 1},
		{Consumption: 700, Hour: 2, Month: 13},
		{Consumption: 90, Hour: 3, Month: 7},
		{Consumption: 110, Hour: 4, Month: 7},
	}

	stats := a.Statistics(w)

	assert.Equal(t, map[models.Season]float64{models.Summer: 100}, stats.SeasonalAverages)
	assert.Equal(t, 4, stats.Count)
}

func TestStatistics_PeakHoursIncludeTies(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	w := hourlyWindow(96, start, func(i int) float64 {
		if h := i % 24; h == 18 || h == 19 {
			return 300
		}
		return 100
	})

	stats := a.Statistics(w)

	assert.Equal(t, []int{18, 19}, stats.PeakHours)
	assert.Equal(t, 100.0, stats.Min)
	assert.Equal(t, 300.0, stats.Max)
}

func TestStatistics_Anomalies(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	w := hourlyWindow(100, start, func(i int) float64 {
		if i == 50 {
			return 1000
		}
		return 100 + float64(i%2)
	})

	stats := a.Statistics(w)

	require.Len(t, stats.Anomalies, 1)
	assert.Equal(t, 50, stats.Anomalies[0].Index)
	assert.Equal(t, "high", stats.Anomalies[0].Severity)
	assert.Greater(t, stats.Anomalies[0].ZScore, 0.0)
}

func TestCorrelations(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	tests := []struct {
		name        string
		temperature func(i int) float64
		want        float64
		strength    string
	}{
		{
			name:        "perfect positive",
			temperature: func(i int) float64 { return float64(i) * 0.5 },
			want:        1,
			strength:    "strong",
		},
		{
			name:        "perfect negative",
			temperature: func(i int) float64 { return 40 - float64(i) },
			want:        -1,
			strength:    "strong",
		},
		{
			name:        "zero variance covariate",
			temperature: func(int) float64 { return 21.5 },
			want:        0,
			strength:    "weak",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := hourlyWindow(120, start, func(i int) float64 { return 50 + 2*float64(i) })
			for i := range w {
				w[i].Temperature = tt.temperature(i)
			}

			corr := a.Correlations(w)

			assert.InDelta(t, tt.want, corr.TemperatureCorrelation, 1e-9)
			assert.GreaterOrEqual(t, corr.TemperatureCorrelation, -1.0)
			assert.LessOrEqual(t, corr.TemperatureCorrelation, 1.0)
			assert.Equal(t, tt.strength, corr.TemperatureStrength)
			// no humidity readings at all
			assert.Equal(t, 0.0, corr.HumidityCorrelation)
		})
	}
}

func TestCorrelations_ZeroVarianceIsExactlyZero(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	h := 60.0
	w := hourlyWindow(90, start, func(i int) float64 { return float64(i % 7) })
	for i := range w {
		w[i].Humidity = &h
	}

	corr := a.Correlations(w)

	assert.Equal(t, 0.0, corr.TemperatureCorrelation)
	assert.Equal(t, 0.0, corr.HumidityCorrelation)
}

func TestPearson_Guards(t *testing.T) {
	assert.Equal(t, 0.0, Pearson([]float64{1}, []float64{2}))
	assert.Equal(t, 0.0, Pearson([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, Pearson(nil, nil))
}

func TestStrength(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	tests := []struct {
		r    float64
		want string
	}{
		{0.9, "strong"},
		{-0.5, "strong"},
		{0.35, "moderate"},
		{-0.1, "weak"},
		{0, "weak"},
	}

	for _, tt := range tests {
		if got := a.Strength(tt.r); got != tt.want {
			t.Errorf("Strength(%v) = %v, want %v", tt.r, got, tt.want)
		}
	}
}
