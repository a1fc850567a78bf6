package forecast

import (
	"context"
	"energycast/internal/models"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// seasonalStrategy decomposes the series into a centred moving-average trend
// and a period-averaged seasonal profile.
type seasonalStrategy struct {
	period int
}

func (s seasonalStrategy) Name() string { return SeasonalDecomposition }

func (s seasonalStrategy) Predict(_ context.Context, fv *FeatureVector, _ models.Window) models.StrategyPrediction {
	data := fv.Series
	if v, ok := flatValue(data); ok {
		return accept(SeasonalDecomposition, v, map[string]float64{"trend": v, "seasonal": 0, "trend_direction": 0})
	}

	n := len(data)
	if n < 3*s.period {
		return decline(SeasonalDecomposition, fmt.Sprintf("need %d observations for three seasonal cycles, got %d", 3*s.period, n))
	}

	trend := centredMovingAverage(data, s.period)

	detrended := make([]float64, n)
	for i := range data {
		detrended[i] = data[i] - trend[i]
	}

	seasonal := make([]float64, s.period)
	for p := 0; p < s.period; p++ {
		var sum float64
		var count int
		for i := p; i < n; i += s.period {
			sum += detrended[i]
			count++
		}
		seasonal[p] = sum / float64(count)
	}

	slope := trend[n-1] - trend[n-2]
	nextTrend := trend[n-1] + slope
	nextSeasonal := seasonal[n%s.period]

	direction := -1.0
	if slope > 0 {
		direction = 1
	}

	return accept(SeasonalDecomposition, nextTrend+nextSeasonal, map[string]float64{
		"trend":           nextTrend,
		"seasonal":        nextSeasonal,
		"trend_direction": direction,
	})
}

// centredMovingAverage averages data[i-period/2 : i+period/2] around each
// point; windows are truncated at the series edges.
func centredMovingAverage(data []float64, period int) []float64 {
	half := period / 2
	trend := make([]float64, len(data))
	for i := range data {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > len(data) {
			hi = len(data)
		}
		trend[i] = stat.Mean(data[lo:hi], nil)
	}
	return trend
}
