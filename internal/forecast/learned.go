package forecast

import (
	"context"
	"energycast/internal/models"
	"time"
)

// ModelClient runs a pretrained sequence model out of process. Predict
// returns the model's next-hour estimate for window.
type ModelClient interface {
	Predict(ctx context.Context, model string, window models.Window) (float64, error)
}

// learnedStrategy delegates to a ModelClient. Without a client it always
// declines, so requesting lstm or gru never fails a forecast.
type learnedStrategy struct {
	name    string
	client  ModelClient
	timeout time.Duration
}

func (s learnedStrategy) Name() string { return s.name }

func (s learnedStrategy) Predict(ctx context.Context, _ *FeatureVector, window models.Window) models.StrategyPrediction {
	if s.client == nil {
		return decline(s.name, "model unavailable")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	value, err := s.client.Predict(ctx, s.name, window)
	if err != nil {
		return declineErr(s.name, &StrategyDeclinedError{Strategy: s.name, Reason: "model unavailable", Err: err})
	}
	return accept(s.name, value, nil)
}
