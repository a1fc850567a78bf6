package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithDefaults(t *testing.T) {
	got := Config{ZMultiplier: 1.96, MinWindow: 120}.WithDefaults()

	assert.Equal(t, 1.96, got.ZMultiplier)
	assert.Equal(t, 120, got.MinWindow)
	assert.Equal(t, 24, got.SeasonPeriod)
	assert.Equal(t, 10.0, got.FallbackMargin)
	assert.Equal(t, 2*time.Second, got.LearnedTimeout)
	assert.Equal(t, []int{6, 24, 168}, got.RollingSpans)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}, wantErr: false},
		{name: "lags beyond window", mutate: func(c *Config) { c.LagCount = 200 }, wantErr: true},
		{name: "inverted confidence", mutate: func(c *Config) { c.MinConfidence = 0.95; c.MaxConfidence = 0.9 }, wantErr: true},
		{name: "full certainty", mutate: func(c *Config) { c.MaxConfidence = 1 }, wantErr: true},
		{name: "alpha above one", mutate: func(c *Config) { c.HoltWintersAlpha = 1.5 }, wantErr: true},
		{name: "ar order three", mutate: func(c *Config) { c.AROrder = 3 }, wantErr: true},
		{name: "zero span", mutate: func(c *Config) { c.RollingSpans = []int{0} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
