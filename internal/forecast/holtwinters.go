package forecast

import (
	"context"
	"energycast/internal/models"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// holtWintersStrategy is additive triple exponential smoothing
type holtWintersStrategy struct {
	period             int
	alpha, beta, gamma float64
}

func (s holtWintersStrategy) Name() string { return HoltWinters }

func (s holtWintersStrategy) Predict(_ context.Context, fv *FeatureVector, _ models.Window) models.StrategyPrediction {
	data := fv.Series
	if v, ok := flatValue(data); ok {
		return accept(HoltWinters, v, map[string]float64{"level": v, "trend": 0, "seasonal": 0})
	}

	L := s.period
	n := len(data)
	if n < 2*L {
		return decline(HoltWinters, fmt.Sprintf("need %d observations for two seasonal cycles, got %d", 2*L, n))
	}

	level := stat.Mean(data[:L], nil)
	trend := (stat.Mean(data[L:2*L], nil) - level) / float64(L)
	seasonal := make([]float64, L)
	for i := 0; i < L; i++ {
		seasonal[i] = data[i] - level
	}

	for i := L; i < n; i++ {
		prevLevel := level
		idx := i % L
		level = s.alpha*(data[i]-seasonal[idx]) + (1-s.alpha)*(level+trend)
		trend = s.beta*(level-prevLevel) + (1-s.beta)*trend
		seasonal[idx] = s.gamma*(data[i]-level) + (1-s.gamma)*seasonal[idx]
	}

	next := seasonal[n%L]
	return accept(HoltWinters, level+trend+next, map[string]float64{
		"level":    level,
		"trend":    trend,
		"seasonal": next,
	})
}
