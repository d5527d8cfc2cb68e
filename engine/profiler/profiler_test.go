package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func frame(draws int) backend.Stats {
	return backend.Stats{
		Calls:    map[backend.Verb]int{backend.VerbDraw: draws, backend.VerbBindProgram: 1},
		Draws:    draws,
		Elements: uint64(draws * 36),
	}
}

func TestTickReportsOncePerInterval(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(
		WithClock(clock.now),
		WithInterval(time.Second),
		WithLogger(zap.New(core)),
		WithMemoryStats(false),
	)

	for range 3 {
		clock.t = clock.t.Add(250 * time.Millisecond)
		assert.False(t, p.Tick(frame(2)))
	}
	clock.t = clock.t.Add(250 * time.Millisecond)
	require.True(t, p.Tick(frame(2)))

	r := p.Last()
	assert.Equal(t, 4, r.Frames)
	assert.InDelta(t, 4.0, r.FPS, 1e-9)
	assert.Equal(t, 8, r.Draws)
	assert.Equal(t, 4, r.StateChanges)
	assert.Equal(t, uint64(288), r.Elements)
	assert.InDelta(t, 2.0, r.DrawsPerFrame(), 1e-9)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "frame stats", logs.All()[0].Message)
}

func TestTickRestartsCounters(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithMemoryStats(false))

	clock.t = clock.t.Add(time.Second)
	require.True(t, p.Tick(frame(5)))
	clock.t = clock.t.Add(2 * time.Second)
	require.True(t, p.Tick(frame(1)))

	r := p.Last()
	assert.Equal(t, 1, r.Frames)
	assert.Equal(t, 1, r.Draws)
	assert.InDelta(t, 0.5, r.FPS, 1e-9)
}

func TestEmptyReport(t *testing.T) {
	assert.Zero(t, Report{}.DrawsPerFrame())
}
