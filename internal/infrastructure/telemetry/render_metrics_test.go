package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/orderprint/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewRenderMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewRenderMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestRenderMetrics(t *testing.T) {
	reader, provider := newTestMeter(t)
	ctx := context.Background()

	m, err := telemetry.NewRenderMetrics(provider.Meter("test"))
	require.NoError(t, err)

	m.RenderStarted(ctx)
	m.RenderStarted(ctx)
	m.RenderStarted(ctx)
	m.RenderFinished(ctx, "success", "done", 1500*time.Millisecond)
	m.RenderFinished(ctx, "failure", "convert", 30*time.Second)

	metrics := collect(t, reader)

	inFlight, ok := metrics["order_print_render_in_flight"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, inFlight.DataPoints, 1)
	assert.Equal(t, int64(1), inFlight.DataPoints[0].Value)

	total, ok := metrics["order_print_render_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, total.DataPoints, 2)
	byStage := map[string]int64{}
	for _, dp := range total.DataPoints {
		stage, _ := dp.Attributes.Value(attribute.Key("stage"))
		outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
		byStage[outcome.AsString()+"/"+stage.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"success/done": 1, "failure/convert": 1}, byStage)

	hist, ok := metrics["order_print_render_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)
}
