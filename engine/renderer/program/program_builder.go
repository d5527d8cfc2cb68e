package program

// ProgramBuilderOption is a function that configures a Program during construction.
type ProgramBuilderOption func(*program)

// WithWGSL sets a single WGSL module containing the vertex and fragment (or compute) entry points.
//
// Parameters:
//   - source: the WGSL module source
//
// Returns:
//   - ProgramBuilderOption: a function that applies the source to a program
func WithWGSL(source string) ProgramBuilderOption {
	return func(p *program) {
		p.language = LanguageWGSL
		p.sources = map[Stage]string{StageVertex: source, StageFragment: source}
	}
}

// WithGLSL sets separate GLSL vertex and fragment sources.
//
// Parameters:
//   - vertex: the vertex stage source
//   - fragment: the fragment stage source
//
// Returns:
//   - ProgramBuilderOption: a function that applies the sources to a program
func WithGLSL(vertex, fragment string) ProgramBuilderOption {
	return func(p *program) {
		p.language = LanguageGLSL
		p.sources = map[Stage]string{StageVertex: vertex, StageFragment: fragment}
	}
}

// WithUniforms declares uniforms the reflector cannot see, such as values in an included file.
func WithUniforms(names ...string) ProgramBuilderOption {
	return func(p *program) {
		p.extra = append(p.extra, names...)
	}
}
