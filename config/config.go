// Package config loads renderer and viewer settings from TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine"
	"github.com/Carmen-Shannon/oxy-frame/engine/frame"
	"github.com/Carmen-Shannon/oxy-frame/engine/light"
	"github.com/Carmen-Shannon/oxy-frame/engine/profiler"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/scene"
	"github.com/Carmen-Shannon/oxy-frame/engine/window"
)

// BackendKind names a hardware backend.
type BackendKind string

const (
	BackendGL     BackendKind = "gl"
	BackendWebGPU BackendKind = "wgpu"
)

// Stage names accepted in [renderer].stages.
const (
	StageCluster  = "cluster"
	StagePrePass  = "depth-prepass"
	StageGeometry = "geometry"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the file-level configuration of a viewer: window, renderer pipeline, clustered
// lighting, scene and frame loop settings.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Cluster  ClusterConfig  `toml:"cluster"`
	Scene    SceneConfig    `toml:"scene"`
	Engine   EngineConfig   `toml:"engine"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	VSync  bool   `toml:"vsync"`
}

type RendererConfig struct {
	Backend    BackendKind `toml:"backend"`
	ClearColor [4]float32  `toml:"clear_color"`
	// Stages lists the stages to run. Their order is fixed: cluster, depth-prepass, geometry.
	// Geometry is required.
	Stages []string `toml:"stages"`
	// SampleCount is the MSAA sample count of the WebGPU surface.
	SampleCount uint32 `toml:"sample_count"`
	// UniformRingKB sizes the WebGPU per-frame uniform ring.
	UniformRingKB int `toml:"uniform_ring_kb"`
}

type ClusterConfig struct {
	TileSize            int `toml:"tile_size"`
	DepthSlices         int `toml:"depth_slices"`
	MaxLightsPerCluster int `toml:"max_lights_per_cluster"`
	IndexCapacity       int `toml:"index_capacity"`
	LightSlots          int `toml:"light_slots"`
}

type SceneConfig struct {
	LightCapacity  int        `toml:"light_capacity"`
	ComputeWorkers int        `toml:"compute_workers"`
	Ambient        [3]float32 `toml:"ambient"`
}

type EngineConfig struct {
	TickRate         float64 `toml:"tick_rate"`
	FrameLimit       float64 `toml:"frame_limit"`
	Profiler         bool    `toml:"profiler"`
	ProfilerInterval string  `toml:"profiler_interval"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "oxy-frame",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Renderer: RendererConfig{
			Backend:       BackendGL,
			ClearColor:    [4]float32{0.1, 0.1, 0.1, 1},
			Stages:        []string{StagePrePass, StageGeometry},
			SampleCount:   1,
			UniformRingKB: 4096,
		},
		Cluster: ClusterConfig{
			TileSize:            light.TileSize,
			DepthSlices:         light.DepthSlices,
			MaxLightsPerCluster: light.MaxLightsPerTile,
			IndexCapacity:       1 << 16,
			LightSlots:          light.MaxLights,
		},
		Scene: SceneConfig{
			LightCapacity:  light.MaxLights,
			ComputeWorkers: 4,
			Ambient:        [3]float32{0.1, 0.1, 0.1},
		},
		Engine: EngineConfig{
			TickRate:         60,
			ProfilerInterval: "1s",
		},
	}
}

// Load reads a TOML file over the defaults. Keys absent from the file keep their default;
// unknown keys are an error.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the merged and validated configuration
//   - error: if the file cannot be read, decoded or validated
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	c, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Decode reads TOML from r over the defaults and validates the result.
func Decode(r io.Reader) (Config, error) {
	c := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	c.fill()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// fill restores defaults for numeric settings a file set to zero.
func (c *Config) fill() {
	d := Default()
	c.Window.Width = common.Coalesce(c.Window.Width, d.Window.Width)
	c.Window.Height = common.Coalesce(c.Window.Height, d.Window.Height)
	c.Renderer.Backend = common.Coalesce(c.Renderer.Backend, d.Renderer.Backend)
	c.Renderer.SampleCount = common.Coalesce(c.Renderer.SampleCount, d.Renderer.SampleCount)
	c.Renderer.UniformRingKB = common.Coalesce(c.Renderer.UniformRingKB, d.Renderer.UniformRingKB)
	c.Cluster.TileSize = common.Coalesce(c.Cluster.TileSize, d.Cluster.TileSize)
	c.Cluster.DepthSlices = common.Coalesce(c.Cluster.DepthSlices, d.Cluster.DepthSlices)
	c.Cluster.MaxLightsPerCluster = common.Coalesce(c.Cluster.MaxLightsPerCluster, d.Cluster.MaxLightsPerCluster)
	c.Cluster.IndexCapacity = common.Coalesce(c.Cluster.IndexCapacity, d.Cluster.IndexCapacity)
	c.Cluster.LightSlots = common.Coalesce(c.Cluster.LightSlots, d.Cluster.LightSlots)
	c.Scene.LightCapacity = common.Coalesce(c.Scene.LightCapacity, d.Scene.LightCapacity)
	c.Scene.ComputeWorkers = common.Coalesce(c.Scene.ComputeWorkers, d.Scene.ComputeWorkers)
	c.Engine.TickRate = common.Coalesce(c.Engine.TickRate, d.Engine.TickRate)
	c.Engine.ProfilerInterval = common.Coalesce(c.Engine.ProfilerInterval, d.Engine.ProfilerInterval)
}

// Validate reports the first setting that cannot be honoured.
func (c Config) Validate() error {
	switch c.Renderer.Backend {
	case BackendGL, BackendWebGPU:
	default:
		return fmt.Errorf("%w: renderer.backend %q, want %q or %q", ErrInvalid, c.Renderer.Backend, BackendGL, BackendWebGPU)
	}
	known := []string{StageCluster, StagePrePass, StageGeometry}
	for _, s := range c.Renderer.Stages {
		if !slices.Contains(known, s) {
			return fmt.Errorf("%w: renderer.stages: unknown stage %q", ErrInvalid, s)
		}
	}
	if !c.HasStage(StageGeometry) {
		return fmt.Errorf("%w: renderer.stages must include %q", ErrInvalid, StageGeometry)
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Cluster.TileSize < 0 || c.Cluster.DepthSlices < 0 || c.Cluster.LightSlots < 0 || c.Scene.LightCapacity < 0 {
		return fmt.Errorf("%w: cluster and light capacities must not be negative", ErrInvalid)
	}
	if _, err := time.ParseDuration(c.Engine.ProfilerInterval); err != nil {
		return fmt.Errorf("%w: engine.profiler_interval: %v", ErrInvalid, err)
	}
	return nil
}

// HasStage reports whether the named stage is enabled.
func (c Config) HasStage(name string) bool {
	return slices.Contains(c.Renderer.Stages, name)
}

// ProfilerInterval returns the parsed profiler interval, or one second if it does not parse.
func (c Config) ProfilerInterval() time.Duration {
	d, err := time.ParseDuration(c.Engine.ProfilerInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// RendererOptions maps the renderer and cluster settings onto renderer builder options.
//
// Parameters:
//   - prepass: the depth-only program for the depth pre-pass; the stage is skipped when nil
//
// Returns:
//   - []renderer.RendererBuilderOption: the options to pass to renderer.NewRenderer
func (c Config) RendererOptions(prepass program.Program) []renderer.RendererBuilderOption {
	cc := c.Renderer.ClearColor
	opts := []renderer.RendererBuilderOption{
		renderer.WithClearColor(mgl32.Vec4{cc[0], cc[1], cc[2], cc[3]}),
		renderer.WithViewport(common.Rect{Width: int32(c.Window.Width), Height: int32(c.Window.Height)}),
	}
	if c.HasStage(StageCluster) {
		opts = append(opts, renderer.WithClustering(
			frame.WithTileSize(c.Cluster.TileSize),
			frame.WithDepthSlices(c.Cluster.DepthSlices),
			frame.WithMaxLightsPerCluster(c.Cluster.MaxLightsPerCluster),
			frame.WithIndexCapacity(c.Cluster.IndexCapacity),
			frame.WithLightSlots(c.Cluster.LightSlots),
		))
	}
	if c.HasStage(StagePrePass) && prepass != nil {
		opts = append(opts, renderer.WithDepthPrePass(prepass))
	}
	return append(opts, renderer.WithStages(frame.NewGeometryStage()))
}

// SceneOptions maps the scene settings onto scene builder options.
func (c Config) SceneOptions() []scene.SceneBuilderOption {
	a := c.Scene.Ambient
	return []scene.SceneBuilderOption{
		scene.WithLightCapacity(c.Scene.LightCapacity),
		scene.WithComputeWorkers(c.Scene.ComputeWorkers),
		scene.WithAmbientColor(mgl32.Vec3{a[0], a[1], a[2]}),
	}
}

// WindowOptions maps the window settings onto window builder options.
func (c Config) WindowOptions() []window.WindowBuilderOption {
	api := window.APIOpenGL
	if c.Renderer.Backend == BackendWebGPU {
		api = window.APIWebGPU
	}
	return []window.WindowBuilderOption{
		window.WithTitle(c.Window.Title),
		window.WithSize(c.Window.Width, c.Window.Height),
		window.WithVSync(c.Window.VSync),
		window.WithGraphicsAPI(api),
	}
}

// EngineOptions maps the frame loop settings onto engine builder options.
func (c Config) EngineOptions() []engine.EngineBuilderOption {
	return []engine.EngineBuilderOption{
		engine.WithTickRate(c.Engine.TickRate),
		engine.WithRenderFrameLimit(c.Engine.FrameLimit),
		engine.WithProfiling(c.Engine.Profiler),
		engine.WithProfiler(profiler.NewProfiler(profiler.WithInterval(c.ProfilerInterval()))),
	}
}
