package forecast

import (
	"fmt"
	"time"
)

// Config holds the engine hyperparameters. It is passed to NewOrchestrator
// and never mutated afterwards.
type Config struct {
	MinWindow    int   // minimum observations per request
	SeasonPeriod int   // hours per seasonal cycle
	LagCount     int   // consumption lags kept in the feature vector
	RollingSpans []int // trailing spans for rolling mean/std

	ZMultiplier    float64 // interval half-width in sample std devs
	FallbackMargin float64 // interval half-width when only one strategy contributes
	CVPenalty      float64 // confidence lost per unit of coefficient of variation
	MinConfidence  float64
	MaxConfidence  float64

	HoltWintersAlpha float64
	HoltWintersBeta  float64
	HoltWintersGamma float64

	AROrder           int     // autoregressive order on first differences
	SmoothingAlpha    float64 // simple exponential smoothing factor
	MovingAverageSpan int

	LearnedTimeout time.Duration // per-call budget for learned-model strategies
}

// DefaultConfig returns the hyperparameters the dashboard was tuned with
func DefaultConfig() Config {
	return Config{
		MinWindow:         90,
		SeasonPeriod:      24,
		LagCount:          90,
		RollingSpans:      []int{6, 24, 168},
		ZMultiplier:       1.0,
		FallbackMargin:    10.0,
		CVPenalty:         1.0,
		MinConfidence:     0.5,
		MaxConfidence:     0.99,
		HoltWintersAlpha:  0.3,
		HoltWintersBeta:   0.1,
		HoltWintersGamma:  0.1,
		AROrder:           2,
		SmoothingAlpha:    0.3,
		MovingAverageSpan: 24,
		LearnedTimeout:    2 * time.Second,
	}
}

// WithDefaults fills every zero field from DefaultConfig
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.MinWindow <= 0 {
		c.MinWindow = def.MinWindow
	}
	if c.SeasonPeriod <= 0 {
		c.SeasonPeriod = def.SeasonPeriod
	}
	if c.LagCount <= 0 {
		c.LagCount = def.LagCount
	}
	if len(c.RollingSpans) == 0 {
		c.RollingSpans = def.RollingSpans
	}
	if c.ZMultiplier <= 0 {
		c.ZMultiplier = def.ZMultiplier
	}
	if c.FallbackMargin <= 0 {
		c.FallbackMargin = def.FallbackMargin
	}
	if c.CVPenalty <= 0 {
		c.CVPenalty = def.CVPenalty
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = def.MinConfidence
	}
	if c.MaxConfidence <= 0 {
		c.MaxConfidence = def.MaxConfidence
	}
	if c.HoltWintersAlpha <= 0 {
		c.HoltWintersAlpha = def.HoltWintersAlpha
	}
	if c.HoltWintersBeta <= 0 {
		c.HoltWintersBeta = def.HoltWintersBeta
	}
	if c.HoltWintersGamma <= 0 {
		c.HoltWintersGamma = def.HoltWintersGamma
	}
	if c.AROrder <= 0 {
		c.AROrder = def.AROrder
	}
	if c.SmoothingAlpha <= 0 {
		c.SmoothingAlpha = def.SmoothingAlpha
	}
	if c.MovingAverageSpan <= 0 {
		c.MovingAverageSpan = def.MovingAverageSpan
	}
	if c.LearnedTimeout <= 0 {
		c.LearnedTimeout = def.LearnedTimeout
	}
	return c
}

// Validate rejects hyperparameters the strategies cannot work with
func (c Config) Validate() error {
	if c.LagCount > c.MinWindow {
		return fmt.Errorf("lag_count %d exceeds min_window %d", c.LagCount, c.MinWindow)
	}
	if c.MinConfidence > c.MaxConfidence || c.MaxConfidence >= 1 {
		return fmt.Errorf("confidence bounds [%v, %v] must satisfy min <= max < 1", c.MinConfidence, c.MaxConfidence)
	}
	for name, v := range map[string]float64{
		"holt_winters.alpha": c.HoltWintersAlpha,
		"holt_winters.beta":  c.HoltWintersBeta,
		"holt_winters.gamma": c.HoltWintersGamma,
		"smoothing_alpha":    c.SmoothingAlpha,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, v)
		}
	}
	if c.AROrder > 2 {
		return fmt.Errorf("arima_order %d not supported, max 2", c.AROrder)
	}
	for _, span := range c.RollingSpans {
		if span <= 0 {
			return fmt.Errorf("rolling span must be positive, got %d", span)
		}
	}
	return nil
}
