package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "orderprint"}, nil)
	assert.ErrorContains(t, err, "server address")

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, nil)
	assert.ErrorContains(t, err, "application name")
}

func TestWithProfilingLabels(t *testing.T) {
	var stage, engine string
	var ok bool
	WithProfilingLabels(context.Background(), map[string]string{
		ProfilingLabelStage:  "convert",
		ProfilingLabelEngine: "chromedp",
		"empty":              "",
	}, func(ctx context.Context) {
		stage, ok = pprof.Label(ctx, ProfilingLabelStage)
		engine, _ = pprof.Label(ctx, ProfilingLabelEngine)
		_, hasEmpty := pprof.Label(ctx, "empty")
		assert.False(t, hasEmpty)
	})

	assert.True(t, ok)
	assert.Equal(t, "convert", stage)
	assert.Equal(t, "chromedp", engine)
}

func TestWithProfilingLabels_NoLabels(t *testing.T) {
	called := false
	WithProfilingLabels(context.Background(), nil, func(ctx context.Context) {
		called = true
		_, ok := pprof.Label(ctx, ProfilingLabelStage)
		assert.False(t, ok)
	})
	assert.True(t, called)
}

func TestLabelPairs(t *testing.T) {
	pairs := labelPairs(map[string]string{
		"b": "2",
		"a": "1",
		"":  "x",
		"c": strings.Repeat("v", 100),
	})
	require.Len(t, pairs, 6)
	assert.Equal(t, []string{"a", "1", "b", "2", "c"}, pairs[:5])
	assert.Len(t, pairs[5], 64)
}
