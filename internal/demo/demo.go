// Package demo builds the lit cube field rendered by the viewer and dumped by framedump.
package demo

import (
	"embed"
	"fmt"
	"io/fs"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-frame/engine/camera"
	"github.com/Carmen-Shannon/oxy-frame/engine/game_object"
	"github.com/Carmen-Shannon/oxy-frame/engine/light"
	"github.com/Carmen-Shannon/oxy-frame/engine/model"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/scene"
)

// Shaders holds the built-in shader sources under shaders/.
//
//go:embed shaders
var Shaders embed.FS

// Programs is the program pair the demo draws with.
type Programs struct {
	// Lit shades the base ambient pass and every additive light pass.
	Lit program.Program
	// Depth is the depth-only program for the pre-pass.
	Depth program.Program
}

// ShaderFiles returns the source file of each stage of the named program, relative to the
// shader root.
//
// Parameters:
//   - name: "lit" or "depth"
//   - lang: the shading language
//
// Returns:
//   - map[program.Stage]string: the source path per stage
func ShaderFiles(name string, lang program.Language) map[program.Stage]string {
	if lang == program.LanguageGLSL {
		return map[program.Stage]string{
			program.StageVertex:   name + ".vert",
			program.StageFragment: name + ".frag",
		}
	}
	return map[program.Stage]string{program.StageVertex: name + ".wgsl"}
}

// LoadPrograms reads the demo programs for lang from fsys. Pass Shaders rooted at "shaders"
// for the built-in sources, or os.DirFS to load editable copies.
//
// Parameters:
//   - fsys: the file system holding the shader files
//   - lang: the shading language the backend consumes
//
// Returns:
//   - Programs: the lit and depth programs
//   - error: if a source file cannot be read
func LoadPrograms(fsys fs.FS, lang program.Language) (Programs, error) {
	lit, err := loadProgram(fsys, "lit", lang)
	if err != nil {
		return Programs{}, err
	}
	depth, err := loadProgram(fsys, "depth", lang)
	if err != nil {
		return Programs{}, err
	}
	return Programs{Lit: lit, Depth: depth}, nil
}

// BuiltinPrograms loads the embedded programs for lang.
func BuiltinPrograms(lang program.Language) Programs {
	sub, err := fs.Sub(Shaders, "shaders")
	if err != nil {
		panic(fmt.Sprintf("demo: %v", err))
	}
	p, err := LoadPrograms(sub, lang)
	if err != nil {
		panic(fmt.Sprintf("demo: %v", err))
	}
	return p
}

func loadProgram(fsys fs.FS, name string, lang program.Language) (program.Program, error) {
	files := ShaderFiles(name, lang)
	sources := make(map[program.Stage]string, len(files))
	for stage, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("demo: load %s: %w", name, err)
		}
		sources[stage] = string(data)
	}
	if lang == program.LanguageGLSL {
		return program.NewProgram(name, program.WithGLSL(sources[program.StageVertex], sources[program.StageFragment])), nil
	}
	return program.NewProgram(name, program.WithWGSL(sources[program.StageVertex])), nil
}

// NewScene builds a grid of spinning cubes on a ground plane, lit by a sun and coloured point
// lights, with a row of translucent panes in front.
//
// Parameters:
//   - progs: the programs to draw with
//   - aspect: the initial camera aspect ratio
//   - opts: variadic list of DemoBuilderOption functions
//
// Returns:
//   - scene.Scene: the populated scene
func NewScene(progs Programs, aspect float32, opts ...DemoBuilderOption) scene.Scene {
	d := &demo{
		grid:        8,
		spacing:     3,
		pointLights: 16,
		panes:       3,
		seed:        1,
	}
	for _, opt := range opts {
		opt(d)
	}
	rng := rand.New(rand.NewPCG(d.seed, d.seed^0x9e3779b97f4a7c15))

	cam := camera.NewCamera(
		camera.WithFov(float32(45*math.Pi/180)),
		camera.WithAspect(aspect),
		camera.WithClip(0.1, 500),
		camera.WithController(camera.NewOrbitController(
			camera.WithRadius(float32(d.grid)*d.spacing*1.5),
			camera.WithElevation(0.5),
			camera.WithAzimuth(0.6),
			camera.WithRadiusBounds(2, 400),
			camera.WithZoomSpeed(2),
		)),
	)
	s := scene.NewScene("demo", cam, d.sceneOpts...)

	// base passes shade ambient only; light passes override the type
	base := material.WithUniform("u_light_type", int32(-1))

	half := float32(d.grid) * d.spacing / 2
	ground := material.NewMaterial(
		material.WithName("ground"),
		material.WithProgram(progs.Lit),
		material.WithBaseColor(mgl32.Vec4{0.35, 0.35, 0.38, 1}),
		base,
	)
	s.Add(game_object.NewGameObject(
		game_object.WithModel(model.NewModel(model.Plane(half*2+d.spacing), model.WithName("ground"), model.WithMaterial(ground))),
		game_object.WithPosition(mgl32.Vec3{0, -0.5, 0}),
	))

	cube := model.Cube(1)
	for x := range d.grid {
		for z := range d.grid {
			mat := material.NewMaterial(
				material.WithName(fmt.Sprintf("cube-%d-%d", x, z)),
				material.WithProgram(progs.Lit),
				material.WithBaseColor(mgl32.Vec4{0.4 + 0.6*rng.Float32(), 0.4 + 0.6*rng.Float32(), 0.4 + 0.6*rng.Float32(), 1}),
				base,
			)
			s.Add(game_object.NewGameObject(
				game_object.WithModel(model.NewModel(cube, model.WithName("cube"), model.WithMaterial(mat))),
				game_object.WithPosition(mgl32.Vec3{float32(x)*d.spacing - half + d.spacing/2, 0.5, float32(z)*d.spacing - half + d.spacing/2}),
				game_object.WithRotationSpeed(mgl32.Vec3{0, 0.2 + rng.Float32(), 0}),
			))
		}
	}

	pane := model.Cube(1)
	for i := range d.panes {
		mat := material.NewMaterial(
			material.WithName(fmt.Sprintf("pane-%d", i)),
			material.WithProgram(progs.Lit),
			material.WithLayer(material.LayerTransparent),
			material.WithBlend(state.BlendAlpha),
			material.WithDepth(true, false),
			material.WithBaseColor(mgl32.Vec4{0.3, 0.6, 1, 0.35}),
			base,
		)
		s.Add(game_object.NewGameObject(
			game_object.WithModel(model.NewModel(pane, model.WithName("pane"), model.WithMaterial(mat))),
			game_object.WithPosition(mgl32.Vec3{float32(i)*3 - float32(d.panes-1)*1.5, 1.5, half + 2}),
			game_object.WithScale(mgl32.Vec3{2, 2, 0.1}),
		))
	}

	s.AddLight(light.NewLight(light.LightTypeDirectional,
		light.WithDirection(mgl32.Vec3{-0.4, -1, -0.3}),
		light.WithColor(mgl32.Vec3{1, 0.95, 0.85}),
		light.WithIntensity(0.8),
	))
	for range d.pointLights {
		s.AddLight(light.NewLight(light.LightTypePoint,
			light.WithPosition(mgl32.Vec3{(rng.Float32()*2 - 1) * half, 1 + rng.Float32()*2, (rng.Float32()*2 - 1) * half}),
			light.WithColor(mgl32.Vec3{rng.Float32(), rng.Float32(), rng.Float32()}),
			light.WithIntensity(2),
			light.WithRange(d.spacing*2),
		))
	}
	return s
}

// demo holds the layout parameters of NewScene.
type demo struct {
	grid        int
	spacing     float32
	pointLights int
	panes       int
	seed        uint64
	sceneOpts   []scene.SceneBuilderOption
}
