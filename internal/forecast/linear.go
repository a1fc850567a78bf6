package forecast

import (
	"context"
	"energycast/internal/models"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type linearStrategy struct {
	period int
}

func (s linearStrategy) Name() string { return LinearRegression }

type column struct {
	name   string
	values []float64
	next   float64
}

// Predict fits ordinary least squares on lagged consumption, target-hour
// encodings, weekday and weather, then evaluates the fit at the next hour.
func (s linearStrategy) Predict(_ context.Context, fv *FeatureVector, window models.Window) models.StrategyPrediction {
	series := fv.Series
	if v, ok := flatValue(series); ok {
		return accept(LinearRegression, v, map[string]float64{"r_squared": 1})
	}

	n := len(series)
	lagSeason := s.period
	rows := n - lagSeason
	if rows <= 0 {
		return decline(LinearRegression, "window shorter than one season")
	}

	cols := s.columns(fv, window)
	if rows <= len(cols)+1 {
		return decline(LinearRegression, "fewer rows than regressors")
	}

	x := mat.NewDense(rows, len(cols)+1, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		x.Set(r, 0, 1)
		for c, col := range cols {
			x.Set(r, c+1, col.values[r])
		}
		y.SetVec(r, series[r+lagSeason])
	}

	beta, err := solveOLS("linear regression", x, y)
	if err != nil {
		return declineErr(LinearRegression, err)
	}

	prediction := beta.AtVec(0)
	details := map[string]float64{"intercept": beta.AtVec(0)}
	for c, col := range cols {
		coef := beta.AtVec(c + 1)
		prediction += coef * col.next
		details["coef_"+col.name] = coef
	}
	details["r_squared"] = rSquared(x, beta, y)

	return accept(LinearRegression, prediction, details)
}

// columns builds the regressors for rows t = period..n-1, dropping any that
// carry no variance over the fit range.
func (s linearStrategy) columns(fv *FeatureVector, window models.Window) []column {
	series := fv.Series
	n := len(series)
	lagSeason := s.period
	rows := n - lagSeason

	lag1 := make([]float64, rows)
	lagS := make([]float64, rows)
	hourSin := make([]float64, rows)
	hourCos := make([]float64, rows)
	dow := make([]float64, rows)
	temp := make([]float64, rows)
	for r := 0; r < rows; r++ {
		t := r + lagSeason
		lag1[r] = series[t-1]
		lagS[r] = series[t-lagSeason]
		cal := calendarOf(window[t])
		hourSin[r] = cal.HourSin
		hourCos[r] = cal.HourCos
		dow[r] = float64(window[t].DayOfWeek)
		temp[r] = window[t].Temperature
	}

	last := window.Last()
	candidates := []column{
		{name: "lag_1", values: lag1, next: series[n-1]},
		{name: "lag_season", values: lagS, next: series[n-lagSeason]},
		{name: "hour_sin", values: hourSin, next: fv.Target.HourSin},
		{name: "hour_cos", values: hourCos, next: fv.Target.HourCos},
		{name: "dayofweek", values: dow, next: float64(fv.Target.DayOfWeek)},
		{name: "temperature", values: temp, next: last.Temperature},
	}

	if window.HasHumidity() {
		humidity := make([]float64, rows)
		complete := true
		for r := 0; r < rows; r++ {
			h := window[r+lagSeason].Humidity
			if h == nil {
				complete = false
				break
			}
			humidity[r] = *h
		}
		if complete && last.Humidity != nil {
			candidates = append(candidates, column{name: "humidity", values: humidity, next: *last.Humidity})
		}
	}

	cols := candidates[:0]
	for _, c := range candidates {
		if floats.Min(c.values) == floats.Max(c.values) {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

func rSquared(x *mat.Dense, beta, y *mat.VecDense) float64 {
	var fitted mat.VecDense
	fitted.MulVec(x, beta)

	mean := mat.Sum(y) / float64(y.Len())
	var ssRes, ssTot float64
	for i := 0; i < y.Len(); i++ {
		d := y.AtVec(i) - fitted.AtVec(i)
		ssRes += d * d
		m := y.AtVec(i) - mean
		ssTot += m * m
	}
	if ssTot == 0 {
		return 1
	}
	return math.Max(0, 1-ssRes/ssTot)
}
