package forecast

import (
	"energycast/internal/models"
	"math"
	"math/rand/v2"
	"time"
)

// Monday 2024-01-01 00:00 UTC
var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func windowOf(values []float64) models.Window {
	w := make(models.Window, len(values))
	for i, v := range values {
		w[i] = models.NewObservation(epoch.Add(time.Duration(i)*time.Hour), v, 10, nil)
	}
	return w
}

func constantWindow(n int, value float64) models.Window {
	values := make([]float64, n)
	for i := range values {
		values[i] = value
	}
	return windowOf(values)
}

// increasingWindow is 100 + 2i plus a little bounded noise; every step is positive
func increasingWindow(n int, seed uint64) models.Window {
	r := rand.New(rand.NewPCG(seed, seed+1))
	values := make([]float64, n)
	for i := range values {
		values[i] = 100 + 2*float64(i) + 0.2*r.Float64()
	}
	return windowOf(values)
}

// dailyWindow has a daily cycle, a weekend dip, weather covariates and noise
func dailyWindow(n int, seed uint64) models.Window {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	w := make(models.Window, n)
	for i := range w {
		ts := epoch.Add(time.Duration(i) * time.Hour)
		angle := 2 * math.Pi * float64(ts.Hour()) / 24
		temp := 12 + 6*math.Sin(angle-math.Pi/2) + r.NormFloat64()
		humidity := 60 + 15*math.Cos(angle) + 3*r.NormFloat64()
		consumption := 1000 + 200*math.Sin(angle-math.Pi/2) + 4*temp + 20*r.NormFloat64()
		if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
			consumption *= 0.85
		}
		w[i] = models.NewObservation(ts, consumption, temp, &humidity)
	}
	return w
}

func mustBuild(cfg Config, window models.Window) *FeatureVector {
	fv, err := NewFeatureBuilder(cfg).Build(window)
	if err != nil {
		panic(err)
	}
	return fv
}
