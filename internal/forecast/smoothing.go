package forecast

import (
	"context"
	"energycast/internal/models"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
)

type movingAverageStrategy struct {
	span int
}

func (s movingAverageStrategy) Name() string { return MovingAverage }

// Predict returns the simple moving average of the trailing span
func (s movingAverageStrategy) Predict(_ context.Context, fv *FeatureVector, _ models.Window) models.StrategyPrediction {
	data := fv.Series
	if v, ok := flatValue(data); ok {
		return accept(MovingAverage, v, nil)
	}

	span := s.span
	if span > len(data) {
		span = len(data)
	}

	sma := trend.NewSmaWithPeriod[float64](span)
	values := helper.ChanToSlice(sma.Compute(helper.SliceToChan(data[len(data)-span:])))
	if len(values) == 0 {
		return decline(MovingAverage, "moving average produced no value")
	}
	return accept(MovingAverage, values[len(values)-1], map[string]float64{"span": float64(span)})
}

type exponentialSmoothingStrategy struct {
	alpha float64
}

func (s exponentialSmoothingStrategy) Name() string { return ExponentialSmoothing }

// Predict runs simple exponential smoothing seeded with the first observation
func (s exponentialSmoothingStrategy) Predict(_ context.Context, fv *FeatureVector, _ models.Window) models.StrategyPrediction {
	data := fv.Series
	if v, ok := flatValue(data); ok {
		return accept(ExponentialSmoothing, v, nil)
	}

	level := data[0]
	for _, v := range data[1:] {
		level = s.alpha*v + (1-s.alpha)*level
	}
	return accept(ExponentialSmoothing, level, map[string]float64{"alpha": s.alpha})
}
