package forecast

import (
	"context"
	"energycast/internal/models"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// arimaStrategy fits ARIMA(p,1,0): an autoregression with intercept on first
// differences. The intercept carries the series drift.
type arimaStrategy struct {
	order int
}

func (s arimaStrategy) Name() string { return ARIMA }

func (s arimaStrategy) Predict(_ context.Context, fv *FeatureVector, _ models.Window) models.StrategyPrediction {
	data := fv.Series
	last := data[len(data)-1]
	if v, ok := flatValue(data); ok {
		return accept(ARIMA, v, map[string]float64{"order": 0, "drift": 0})
	}

	diffs := make([]float64, len(data)-1)
	for i := range diffs {
		diffs[i] = data[i+1] - data[i]
	}

	// constant step: the AR system is singular, the drift alone is the answer
	if step, ok := flatValue(diffs); ok {
		return accept(ARIMA, last+step, map[string]float64{"order": 0, "drift": step})
	}

	drift := stat.Mean(diffs, nil)
	direction := trendDirection(diffs)

	for p := s.order; p >= 1; p-- {
		coefs, err := fitAR(diffs, p)
		if err != nil || !stationary(coefs[1:]) {
			continue
		}

		nextDiff := coefs[0]
		for k := 1; k <= p; k++ {
			nextDiff += coefs[k] * diffs[len(diffs)-k]
		}
		// a monotone series keeps its direction
		if direction != 0 && !moves(last, last+nextDiff, direction) {
			break
		}

		details := map[string]float64{
			"order":     float64(p),
			"intercept": coefs[0],
			"drift":     drift,
		}
		for k := 1; k <= p; k++ {
			details[fmt.Sprintf("phi_%d", k)] = coefs[k]
		}
		return accept(ARIMA, last+nextDiff, details)
	}

	// ARIMA(0,1,0) with drift
	return accept(ARIMA, last+drift, map[string]float64{"order": 0, "drift": drift})
}

// trendDirection is 1 when every difference is positive, -1 when every one
// is negative and 0 otherwise
func trendDirection(diffs []float64) int {
	up, down := true, true
	for _, d := range diffs {
		up = up && d > 0
		down = down && d < 0
	}
	switch {
	case up:
		return 1
	case down:
		return -1
	}
	return 0
}

func moves(from, to float64, direction int) bool {
	if direction > 0 {
		return to > from
	}
	return to < from
}

// fitAR regresses d[t] on [1, d[t-1], ..., d[t-p]] and returns
// [intercept, phi_1, ..., phi_p].
func fitAR(d []float64, p int) ([]float64, error) {
	rows := len(d) - p
	if rows <= p+1 {
		return nil, &NumericInstabilityError{Op: "arima", Detail: "too few differences for AR fit"}
	}

	x := mat.NewDense(rows, p+1, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := r + p
		x.Set(r, 0, 1)
		for k := 1; k <= p; k++ {
			x.Set(r, k, d[t-k])
		}
		y.SetVec(r, d[t])
	}

	beta, err := solveOLS("arima", x, y)
	if err != nil {
		return nil, err
	}
	return mat.Col(nil, 0, beta), nil
}

// stationary checks the AR(1)/AR(2) stationarity triangle
func stationary(phi []float64) bool {
	for _, v := range phi {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	switch len(phi) {
	case 0:
		return true
	case 1:
		return math.Abs(phi[0]) < 1
	case 2:
		return math.Abs(phi[1]) < 1 && phi[0]+phi[1] < 1 && phi[1]-phi[0] < 1
	default:
		return false
	}
}
