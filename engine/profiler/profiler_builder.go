package profiler

import (
	"time"

	"go.uber.org/zap"
)

// ProfilerBuilderOption is a function that configures a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often a report is logged. Non-positive values are ignored.
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithLogger sets the logger reports are written to.
func WithLogger(l *zap.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.log = l
	}
}

// WithMemoryStats enables or disables heap and GC sampling.
func WithMemoryStats(enabled bool) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.readMem = enabled
	}
}
