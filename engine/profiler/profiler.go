package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
)

// Report is one interval of frame and memory statistics.
type Report struct {
	Frames       int
	FPS          float64
	Draws        int
	Skipped      int
	StateChanges int
	Elements     uint64
	HeapMB       float64
	AllocRateMB  float64
	GCCount      uint32
	MaxPauseUs   uint64
}

// DrawsPerFrame returns the mean draw count of the interval.
func (r Report) DrawsPerFrame() float64 {
	if r.Frames == 0 {
		return 0
	}
	return float64(r.Draws) / float64(r.Frames)
}

// Profiler accumulates per-frame renderer statistics and logs a Report once per interval.
type Profiler struct {
	log            *zap.Logger
	now            func() time.Time
	updateInterval time.Duration
	readMem        bool

	frameCount     int
	lastTime       time.Time
	stats          backend.Stats
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Report
}

// NewProfiler creates a Profiler. The update interval defaults to one second.
//
// Parameters:
//   - opts: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(opts ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		log:            common.Logger().Named("profiler"),
		now:            time.Now,
		updateInterval: time.Second,
		readMem:        true,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick records one rendered frame. When the update interval has elapsed the interval's
// statistics are logged at info and the counters restart.
//
// Parameters:
//   - frame: the statistics of the frame just rendered
//
// Returns:
//   - bool: true if a report was produced this tick
func (p *Profiler) Tick(frame backend.Stats) bool {
	p.frameCount++
	p.stats.Add(frame)

	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	r := Report{
		Frames:       p.frameCount,
		FPS:          float64(p.frameCount) / elapsed.Seconds(),
		Draws:        p.stats.Draws,
		Skipped:      p.stats.Skipped,
		StateChanges: p.stats.StateChanges(),
		Elements:     p.stats.Elements,
	}
	if p.readMem {
		p.sampleMemory(&r, elapsed)
	}
	p.log.Info("frame stats",
		zap.Float64("fps", r.FPS),
		zap.Float64("draws_per_frame", r.DrawsPerFrame()),
		zap.Int("state_changes", r.StateChanges),
		zap.Int("skipped", r.Skipped),
		zap.Uint64("elements", r.Elements),
		zap.Float64("heap_mb", r.HeapMB),
		zap.Float64("alloc_rate_mb", r.AllocRateMB),
		zap.Uint32("gc", r.GCCount),
		zap.Uint64("max_pause_us", r.MaxPauseUs),
	)

	p.last = r
	p.frameCount = 0
	p.stats = backend.Stats{}
	p.lastTime = current
	return true
}

// Last returns the most recent report.
func (p *Profiler) Last() Report {
	return p.last
}

func (p *Profiler) sampleMemory(r *Report, elapsed time.Duration) {
	runtime.ReadMemStats(&p.memStats)
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	r.GCCount = gcCount
	// PauseNs is a circular buffer of the last 256 pauses
	start := p.lastGCCount
	if gcCount-start > 256 {
		start = gcCount - 256
	}
	for i := start; i < gcCount; i++ {
		r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}
