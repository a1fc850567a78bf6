package forecast

import (
	"energycast/internal/models"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Combiner merges strategy predictions into one equally weighted estimate
type Combiner struct {
	cfg Config
}

// NewCombiner creates a combiner
func NewCombiner(cfg Config) *Combiner {
	return &Combiner{cfg: cfg.WithDefaults()}
}

// Combine averages the valid predictions. Confidence falls with the
// coefficient of variation between them and the interval widens with their
// sample spread. Invalid predictions are ignored; if none are valid
// ErrNoValidPredictions is returned.
func (c *Combiner) Combine(predictions []models.StrategyPrediction) (*models.EnsembleResult, error) {
	var values []float64
	var contributors []string
	for _, p := range predictions {
		if !p.Valid {
			continue
		}
		values = append(values, p.Value)
		contributors = append(contributors, p.Strategy)
	}

	if len(values) == 0 {
		return nil, ErrNoValidPredictions
	}

	lo, hi := floats.Min(values), floats.Max(values)
	result := &models.EnsembleResult{Contributors: contributors}

	switch {
	case len(values) == 1:
		v := values[0]
		result.Value = v
		result.Interval = models.ConfidenceInterval{Lower: v - c.cfg.FallbackMargin, Upper: v + c.cfg.FallbackMargin}
		result.Confidence = c.cfg.MinConfidence

	case lo == hi:
		// unanimous: no spread, but never full certainty
		result.Value = lo
		result.Interval = models.ConfidenceInterval{Lower: lo, Upper: lo}
		result.Confidence = c.cfg.MaxConfidence

	default:
		mean, std := stat.MeanStdDev(values, nil)
		value := math.Min(hi, math.Max(lo, mean))
		half := c.cfg.ZMultiplier * std

		result.Value = value
		result.Spread = std
		result.Interval = models.ConfidenceInterval{Lower: value - half, Upper: value + half}
		result.Confidence = c.confidence(mean, std)
	}

	return result, nil
}

func (c *Combiner) confidence(mean, std float64) float64 {
	if std == 0 {
		return c.cfg.MaxConfidence
	}
	if mean == 0 {
		return c.cfg.MinConfidence
	}
	cv := std / math.Abs(mean)
	conf := 1 - c.cfg.CVPenalty*cv
	return math.Max(c.cfg.MinConfidence, math.Min(c.cfg.MaxConfidence, conf))
}
