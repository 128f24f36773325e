package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:4317",
		SamplingRatio:     1.0,
		ServiceName:       "orderprint-test",
	}

	tp, err := NewTracerProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewTracerProvider_NilLogger(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{}, nil)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		ratio    float64
		contains string
	}{
		{1.0, "AlwaysOnSampler"},
		{1.5, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		desc := samplerFor(tt.ratio).Description()
		assert.Contains(t, desc, "ParentBased")
		assert.Contains(t, desc, tt.contains)
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("orderprint-test")
	require.NoError(t, err)

	var found bool
	for _, kv := range res.Attributes() {
		if string(kv.Key) == "service.name" {
			found = true
			assert.Equal(t, "orderprint-test", kv.Value.AsString())
		}
	}
	assert.True(t, found)

	// The resource is usable by an SDK provider
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestTracerProvider_EnableSpanProfiles(t *testing.T) {
	disabled, err := NewTracerProvider(context.Background(), Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	disabled.EnableSpanProfiles()
	assert.False(t, disabled.SpanProfilesEnabled())

	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	sdk := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = sdk.Shutdown(context.Background()) })

	tp := &TracerProvider{provider: sdk, logger: zaptest.NewLogger(t), config: Config{Enabled: true}}
	tp.EnableSpanProfiles()
	tp.EnableSpanProfiles()

	assert.True(t, tp.SpanProfilesEnabled())
	assert.NotSame(t, sdk, otel.GetTracerProvider())
}
