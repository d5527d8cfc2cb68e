package program

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// glslUniformRegex matches loose uniform declarations: uniform mat4 u_model;
	glslUniformRegex = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?uniform\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*(?:\[\s*\d+\s*\])?\s*;`)

	// glslOutputRegex matches fragment outputs with an optional explicit location
	glslOutputRegex = regexp.MustCompile(`(?m)^\s*(?:layout\s*\(\s*location\s*=\s*(\d+)\s*\)\s*)?out\s+(\w+)\s+(\w+)\s*;`)

	// glslBufferRegex matches shader storage blocks: layout(std430, binding = 3) buffer Lights
	glslBufferRegex = regexp.MustCompile(`layout\s*\(([^)]*)\)\s*(readonly\s+)?buffer\s+(\w+)`)

	// glslBindingRegex extracts binding = N from a layout qualifier list
	glslBindingRegex = regexp.MustCompile(`binding\s*=\s*(\d+)`)
)

// ReflectGLSL extracts uniforms, samplers, storage blocks and fragment outputs from GLSL
// vertex and fragment sources. Sampler uniforms are assigned texture units in declaration
// order, matching the glUniform1i assignment the GL backend performs after linking.
//
// Parameters:
//   - vertex: the vertex stage source
//   - fragment: the fragment stage source
//
// Returns:
//   - Reflection: the discovered resource interface
func ReflectGLSL(vertex, fragment string) Reflection {
	r := Reflection{EntryPoints: map[Stage]string{StageVertex: "main", StageFragment: "main"}}
	seen := make(map[string]bool)
	unit := uint32(0)

	for _, src := range []string{stripComments(vertex), stripComments(fragment)} {
		for _, m := range glslUniformRegex.FindAllStringSubmatch(src, -1) {
			typ, name := m[1], m[2]
			if seen[name] {
				continue
			}
			seen[name] = true
			if strings.HasPrefix(typ, "sampler") {
				kind := BindingTexture
				if strings.HasSuffix(typ, "Shadow") {
					kind = BindingDepthTexture
				}
				r.Bindings = append(r.Bindings, Binding{Binding: unit, Name: name, Kind: kind, TypeName: typ})
				unit++
				continue
			}
			r.Uniforms = append(r.Uniforms, name)
		}
		for _, m := range glslBufferRegex.FindAllStringSubmatch(src, -1) {
			if seen[m[3]] {
				continue
			}
			seen[m[3]] = true
			b := Binding{Name: m[3], Kind: BindingStorage, TypeName: m[3]}
			if m[2] != "" {
				b.Kind = BindingReadOnlyStorage
			}
			if bm := glslBindingRegex.FindStringSubmatch(m[1]); bm != nil {
				n, _ := strconv.Atoi(bm[1])
				b.Binding = uint32(n)
			}
			r.Bindings = append(r.Bindings, b)
		}
	}

	next := uint32(0)
	for _, m := range glslOutputRegex.FindAllStringSubmatch(stripComments(fragment), -1) {
		loc := next
		if m[1] != "" {
			n, _ := strconv.Atoi(m[1])
			loc = uint32(n)
		}
		r.Outputs = append(r.Outputs, Output{Location: loc, Name: m[3], Type: m[2]})
		next = loc + 1
	}

	return r
}
