package profiler

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTickReportsAtInterval(t *testing.T) {
	clock := time.Unix(0, 0)
	p := NewProfiler(WithInterval(time.Second))
	p.now = func() time.Time { return clock }
	p.start = clock

	for range 29 {
		clock = clock.Add(20 * time.Millisecond)
		p.ObserveAdvance(2 * time.Millisecond)
		_, reported := p.Tick()
		assert.False(t, reported)
	}
	clock = clock.Add(420 * time.Millisecond)
	p.ObserveAdvance(32 * time.Millisecond)
	stats, reported := p.Tick()
	require.True(t, reported)

	assert.InDelta(t, 30, stats.FPS, 1e-9)
	assert.Equal(t, 3*time.Millisecond, stats.AdvanceMean)
	assert.Equal(t, 32*time.Millisecond, stats.AdvanceMax)
	assert.Greater(t, stats.HeapBytes, uint64(0))
	assert.InDelta(t, 30, testutil.ToFloat64(framesPerSecond), 1e-9)
	assert.Equal(t, float64(stats.HeapBytes), testutil.ToFloat64(heapBytes))

	// The next interval starts empty.
	assert.Zero(t, p.frames)
	assert.Zero(t, p.advanceMax)
	assert.Equal(t, clock, p.start)
	clock = clock.Add(time.Second)
	stats, reported = p.Tick()
	require.True(t, reported)
	assert.InDelta(t, 1, stats.FPS, 1e-9)
	assert.Zero(t, stats.AdvanceMean)
}

func TestTickLogsStats(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	clock := time.Unix(0, 0)
	p := NewProfiler(WithLogger(zap.New(core)), WithInterval(time.Millisecond))
	p.now = func() time.Time { return clock }
	p.start = clock

	clock = clock.Add(2 * time.Millisecond)
	_, reported := p.Tick()
	require.True(t, reported)

	entries := logs.FilterMessage("frame stats").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "profiler", entries[0].LoggerName)
	assert.Contains(t, entries[0].ContextMap(), "advance_mean")
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0), WithLogger(nil))
	assert.Equal(t, time.Second, p.interval)
	assert.NotNil(t, p.logger)
}

func TestServeStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", nil) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}
