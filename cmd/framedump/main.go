// Command framedump compiles frames of the demo scene against a recording backend and prints
// the command tree, the verb stream and the per-frame statistics.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/config"
	"github.com/Carmen-Shannon/oxy-frame/engine/frame"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/internal/demo"
)

type options struct {
	configPath string
	frames     int
	grid       int
	lights     int
	panes      int
	seed       uint64
	tree       bool
	calls      bool
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
		Use:   "framedump",
		Short: "Print the command tree and backend verbs of the demo scene",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, o)
		},
		SilenceUsage: true,
	}
	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "TOML configuration file")
	f.IntVarP(&o.frames, "frames", "n", 1, "number of frames to compile")
	f.IntVar(&o.grid, "grid", 4, "cubes along each side of the grid")
	f.IntVar(&o.lights, "lights", 4, "number of point lights")
	f.IntVar(&o.panes, "panes", 2, "number of translucent panes")
	f.Uint64Var(&o.seed, "seed", 1, "seed for colours and light placement")
	f.BoolVar(&o.tree, "tree", true, "print the command tree of the last frame")
	f.BoolVar(&o.calls, "calls", false, "print every backend verb of the last frame")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log at debug level")
	return cmd
}

func run(cmd *cobra.Command, o options) error {
	if o.verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		common.SetLogger(log)
		defer func() {
			_ = log.Sync()
			common.SetLogger(nil)
		}()
	}

	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return err
		}
	}
	lang := program.LanguageGLSL
	if cfg.Renderer.Backend == config.BackendWebGPU {
		lang = program.LanguageWGSL
	}

	progs := demo.BuiltinPrograms(lang)
	aspect := float32(cfg.Window.Width) / float32(max(cfg.Window.Height, 1))
	sc := demo.NewScene(progs, aspect,
		demo.WithGrid(o.grid),
		demo.WithPointLights(o.lights),
		demo.WithPanes(o.panes),
		demo.WithSeed(o.seed),
		demo.WithSceneOptions(cfg.SceneOptions()...),
	)

	rec := backend.NewRecorder()
	r := renderer.NewRenderer(rec, append(cfg.RendererOptions(progs.Depth), renderer.WithKeepTree(true))...)

	out := cmd.OutOrStdout()
	for i := range max(o.frames, 1) {
		rec.Reset()
		sc.Prepare(1.0 / 60)
		stats, err := r.RenderFrame(sc.BuildFrameList(r.Viewport()))
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		fmt.Fprintf(out, "frame %d: draws=%d skipped=%d state_changes=%d elements=%d\n",
			i, stats.Draws, stats.Skipped, stats.StateChanges(), stats.Elements)
		if cs := r.ClusterStage(); cs != nil {
			printClusters(out, cs)
		}
	}

	if o.tree {
		if tree := r.LastTree(); tree != nil {
			fmt.Fprintln(out)
			fmt.Fprint(out, tree.Dump())
		}
	}
	if o.calls {
		fmt.Fprintln(out)
		if _, err := rec.WriteTo(out); err != nil {
			return err
		}
	}
	return nil
}

// printClusters writes the cluster grid and light table summary of the latest frame.
func printClusters(w io.Writer, cs *frame.ClusterStage) {
	x, y, z := cs.Grid()
	t := cs.Table()
	fmt.Fprintf(w, "  clusters: grid=%dx%dx%d rebuilds=%d occupied=%d assigned=%d refused=%d\n",
		x, y, z, cs.Rebuilds(), t.Occupied(), t.Assigned(), t.Refused)
}
