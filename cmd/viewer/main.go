// Command viewer opens a window and renders the demo scene through the OpenGL or WebGPU
// backend. Middle-drag orbits, the wheel zooms and a left click picks an object.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/config"
	"github.com/Carmen-Shannon/oxy-frame/engine"
	"github.com/Carmen-Shannon/oxy-frame/engine/game_object"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/glbackend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/wgpubackend"
	"github.com/Carmen-Shannon/oxy-frame/engine/window"
	"github.com/Carmen-Shannon/oxy-frame/internal/demo"
)

type options struct {
	configPath string
	backend    string
	width      int
	height     int
	shaderDir  string
	grid       int
	lights     int
	profile    bool
	verbose    bool
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "viewer",
		Short: "Render the demo scene in a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, o)
			if err != nil {
				return err
			}
			return run(cfg, o)
		},
		SilenceUsage: true,
	}
	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "TOML configuration file")
	f.StringVarP(&o.backend, "backend", "b", "", "graphics backend, gl or wgpu")
	f.IntVar(&o.width, "width", 0, "window width in pixels")
	f.IntVar(&o.height, "height", 0, "window height in pixels")
	f.StringVar(&o.shaderDir, "shaders", "", "load shaders from this directory and reload them on change")
	f.IntVar(&o.grid, "grid", 8, "cubes along each side of the grid")
	f.IntVar(&o.lights, "lights", 16, "number of point lights")
	f.BoolVar(&o.profile, "profile", false, "log frame statistics")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log at debug level")
	return cmd
}

// resolveConfig loads the configuration file and applies the flags the user set over it.
func resolveConfig(cmd *cobra.Command, o options) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Renderer.Backend = config.BackendKind(o.backend)
	}
	if flags.Changed("width") {
		cfg.Window.Width = o.width
	}
	if flags.Changed("height") {
		cfg.Window.Height = o.height
	}
	if flags.Changed("profile") {
		cfg.Engine.Profiler = o.profile
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config.Config, o options) error {
	log, err := newLogger(o.verbose)
	if err != nil {
		return err
	}
	common.SetLogger(log)
	defer func() {
		_ = log.Sync()
		common.SetLogger(nil)
	}()

	win, err := window.NewWindow(cfg.WindowOptions()...)
	if err != nil {
		return err
	}

	lang := program.LanguageGLSL
	if cfg.Renderer.Backend == config.BackendWebGPU {
		lang = program.LanguageWGSL
	}
	b, err := newBackend(cfg, win)
	if err != nil {
		_ = win.Close()
		return err
	}

	progs := demo.BuiltinPrograms(lang)
	if o.shaderDir != "" {
		if progs, err = demo.LoadPrograms(os.DirFS(o.shaderDir), lang); err != nil {
			_ = win.Close()
			return err
		}
	}

	r := renderer.NewRenderer(b, cfg.RendererOptions(progs.Depth)...)
	r.Resize(win.Width(), win.Height())

	if o.shaderDir != "" {
		stop, err := watchShaders(r, progs, o.shaderDir, lang)
		if err != nil {
			_ = win.Close()
			return err
		}
		defer stop()
	}

	sc := demo.NewScene(progs, float32(win.Width())/float32(max(win.Height(), 1)),
		demo.WithGrid(o.grid),
		demo.WithPointLights(o.lights),
		demo.WithSceneOptions(cfg.SceneOptions()...),
	)
	eng := engine.NewEngine(r, append(cfg.EngineOptions(),
		engine.WithWindow(win),
		engine.WithScene(0, sc),
	)...)
	eng.SetPickCallback(func(obj game_object.GameObject, dist float32) {
		name := ""
		if m := obj.Model(); m != nil {
			name = m.Name()
		}
		log.Info("picked", zap.Uint64("id", obj.ID()), zap.String("model", name), zap.Float32("distance", dist))
	})

	log.Info("viewer started",
		zap.String("backend", string(cfg.Renderer.Backend)),
		zap.Int("width", win.Width()), zap.Int("height", win.Height()),
		zap.Int("objects", sc.Count()), zap.Int("lights", len(sc.Lights())))
	return eng.Run()
}

func newBackend(cfg config.Config, win window.Window) (backend.Backend, error) {
	switch cfg.Renderer.Backend {
	case config.BackendWebGPU:
		mode := wgpubackend.PresentModeUncapped
		if cfg.Window.VSync {
			mode = wgpubackend.PresentModeVSync
		}
		return wgpubackend.New(win.SurfaceDescriptor(),
			wgpubackend.WithSurfaceSize(win.Width(), win.Height()),
			wgpubackend.WithPresentMode(mode),
			wgpubackend.WithSampleCount(cfg.Renderer.SampleCount),
			wgpubackend.WithUniformCapacity(uint64(cfg.Renderer.UniformRingKB)*1024),
		)
	case config.BackendGL:
		return glbackend.New(glbackend.WithSurfaceSize(win.Width(), win.Height()))
	}
	return nil, fmt.Errorf("viewer: unsupported backend %q", cfg.Renderer.Backend)
}

// watchShaders reloads the demo programs when their files under dir change. The returned
// function stops the watcher.
func watchShaders(r renderer.Renderer, progs demo.Programs, dir string, lang program.Language) (func(), error) {
	w, err := program.NewWatcher(r.Enqueue)
	if err != nil {
		return nil, err
	}
	for name, p := range map[string]program.Program{"lit": progs.Lit, "depth": progs.Depth} {
		paths := demo.ShaderFiles(name, lang)
		for stage, file := range paths {
			paths[stage] = filepath.Join(dir, file)
		}
		if err := w.Watch(p, paths); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	return func() {
		cancel()
		_ = w.Close()
	}, nil
}
