package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "")

	cfg := ConfigFromEnv("energycast-server", "1.0.0")
	assert.Equal(t, "collector:4317", cfg.Endpoint)
	assert.Equal(t, 0.25, cfg.SamplingRate)
	assert.True(t, cfg.Insecure)
	assert.True(t, cfg.Enabled())
}

func TestConfigFromEnv_InvalidSampler(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "7")

	cfg := ConfigFromEnv("energycast-server", "1.0.0")
	assert.Equal(t, 1.0, cfg.SamplingRate)
	assert.False(t, cfg.Enabled())
}

func TestInitTracer_Disabled(t *testing.T) {
	tp, err := InitTracer(context.Background(), Config{ServiceName: "energycast"})
	require.NoError(t, err)
	assert.Nil(t, tp)
	assert.NoError(t, Shutdown(context.Background(), tp))
}

func TestInitTracer_Enabled(t *testing.T) {
	// the gRPC exporter connects lazily, so no collector is needed
	tp, err := InitTracer(context.Background(), Config{
		ServiceName:  "energycast",
		Endpoint:     "127.0.0.1:4317",
		Insecure:     true,
		SamplingRate: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, tp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// shutdown with nothing buffered returns promptly even without a collector
	_ = Shutdown(ctx, tp)
}
