package program

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// nextID hands out creation-ordered program identities.
var nextID atomic.Uint64

// program is the implementation of the Program interface.
type program struct {
	id       uint64
	name     string
	language Language
	sources  map[Stage]string
	extra    []string
	refl     Reflection
	revision atomic.Uint64

	mu *sync.RWMutex
}

// Program is a shader program descriptor: its per-stage sources and the resource interface
// reflected from them. Backends compile it lazily on first bind and recompile when Revision
// changes. Programs are shared across materials; the renderer core only borrows them.
type Program interface {
	// ID returns the creation-ordered identity of the program. Command trees order program
	// nodes by this value.
	//
	// Returns:
	//   - uint64: the program identity, never zero
	ID() uint64

	// Name returns a debug name.
	Name() string

	// Language returns the shading language of the sources.
	Language() Language

	// Source returns the source for one stage. WGSL programs return the same module for
	// every stage.
	//
	// Parameters:
	//   - stage: the pipeline stage
	//
	// Returns:
	//   - string: the stage source, or empty if the stage is absent
	Source(stage Stage) string

	// EntryPoint returns the entry function name for a stage.
	EntryPoint(stage Stage) string

	// Uniforms returns the names of the active non-sampler uniforms.
	Uniforms() []string

	// HasUniform reports whether name is an active uniform.
	HasUniform(name string) bool

	// Samplers returns the texture bindings in unit order.
	Samplers() []Binding

	// StorageBuffers returns the storage buffer bindings.
	StorageBuffers() []Binding

	// Outputs returns the fragment colour outputs in location order.
	Outputs() []Output

	// Bindings returns every reflected resource binding.
	Bindings() []Binding

	// UniformBlock returns the first uniform buffer binding, which backends fill from pushed
	// uniforms by matching field names.
	//
	// Returns:
	//   - Binding: the uniform block binding
	//   - bool: false if the program has no uniform buffer
	UniformBlock() (Binding, bool)

	// Revision increments each time the sources are replaced.
	Revision() uint64

	// Reload replaces the sources and re-runs reflection. Must only be called on the
	// graphics thread, typically from a queued renderer operation.
	//
	// Parameters:
	//   - sources: the new per-stage sources in the program's language
	//
	// Returns:
	//   - error: if the new sources are empty
	Reload(sources map[Stage]string) error
}

var _ Program = &program{}

// NewProgram creates a Program from sources supplied through options. At least one of WithWGSL
// or WithGLSL must be given.
//
// Parameters:
//   - name: a debug name
//   - opts: variadic list of ProgramBuilderOption functions
//
// Returns:
//   - Program: the new program
func NewProgram(name string, opts ...ProgramBuilderOption) Program {
	p := &program{
		id:      nextID.Add(1),
		name:    name,
		sources: make(map[Stage]string),
		mu:      &sync.RWMutex{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if len(p.sources) == 0 {
		panic("program: no source provided")
	}
	p.reflect()
	return p
}

// reflect rebuilds the reflection from the current sources and merges declared extras.
func (p *program) reflect() {
	switch p.language {
	case LanguageGLSL:
		p.refl = ReflectGLSL(p.sources[StageVertex], p.sources[StageFragment])
	default:
		src := p.sources[StageVertex]
		if src == "" {
			src = p.sources[StageCompute]
		}
		p.refl = ReflectWGSL(src)
	}
	for _, u := range p.extra {
		if !slices.Contains(p.refl.Uniforms, u) {
			p.refl.Uniforms = append(p.refl.Uniforms, u)
		}
	}
}

func (p *program) ID() uint64 {
	return p.id
}

func (p *program) Name() string {
	return p.name
}

func (p *program) Language() Language {
	return p.language
}

func (p *program) Source(stage Stage) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sources[stage]
}

func (p *program) EntryPoint(stage Stage) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refl.EntryPoints[stage]
}

func (p *program) Uniforms() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refl.Uniforms
}

func (p *program) HasUniform(name string) bool {
	return slices.Contains(p.Uniforms(), name)
}

func (p *program) Samplers() []Binding {
	return p.filter(BindingTexture, BindingDepthTexture)
}

func (p *program) StorageBuffers() []Binding {
	return p.filter(BindingStorage, BindingReadOnlyStorage)
}

func (p *program) Outputs() []Output {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refl.Outputs
}

func (p *program) Bindings() []Binding {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refl.Bindings
}

func (p *program) UniformBlock() (Binding, bool) {
	for _, b := range p.Bindings() {
		if b.Kind == BindingUniform {
			return b, true
		}
	}
	return Binding{}, false
}

func (p *program) Revision() uint64 {
	return p.revision.Load()
}

func (p *program) Reload(sources map[Stage]string) error {
	if len(sources) == 0 {
		return fmt.Errorf("program %q: reload with no sources", p.name)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sources = sources
	p.reflect()
	p.revision.Add(1)
	return nil
}

// filter returns the bindings of the given kinds.
func (p *program) filter(kinds ...BindingKind) []Binding {
	var out []Binding
	for _, b := range p.Bindings() {
		if slices.Contains(kinds, b.Kind) {
			out = append(out, b)
		}
	}
	return out
}
