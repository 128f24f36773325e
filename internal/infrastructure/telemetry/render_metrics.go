package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor receives no meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// RenderMetrics records order print pipeline outcomes:
//
//	order_print_render_total{outcome,stage}
//	order_print_render_duration_seconds{outcome}
//	order_print_render_in_flight
type RenderMetrics struct {
	total    *Counter
	duration *Histogram
	inFlight *UpDownCounter
}

// NewRenderMetrics creates the render instruments on meter.
func NewRenderMetrics(meter metric.Meter) (*RenderMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	total, err := NewCounter(meter,
		"order_print_render_total",
		"Completed order renders by outcome and last stage reached",
		"{renders}",
	)
	if err != nil {
		return nil, err
	}

	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "order_print_render_duration_seconds",
		Description: "Order render duration from identity check to stored file",
		Unit:        "s",
		Boundaries:  RenderDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	inFlight, err := NewUpDownCounter(meter,
		"order_print_render_in_flight",
		"Order renders currently running",
		"{renders}",
	)
	if err != nil {
		return nil, err
	}

	return &RenderMetrics{total: total, duration: duration, inFlight: inFlight}, nil
}

// RenderStarted marks a render as in flight.
func (m *RenderMetrics) RenderStarted(ctx context.Context) {
	m.inFlight.Add(ctx, 1)
}

// RenderFinished records the outcome of a render started with RenderStarted.
func (m *RenderMetrics) RenderFinished(ctx context.Context, outcome, stage string, d time.Duration) {
	m.inFlight.Add(ctx, -1)
	m.total.Inc(ctx, AttrOutcome.String(outcome), AttrStage.String(stage))
	m.duration.RecordDuration(ctx, d, AttrOutcome.String(outcome))
}
