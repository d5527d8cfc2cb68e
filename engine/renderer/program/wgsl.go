package program

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	// The type capture (.+) is greedy to handle parameterized types like array<T, N>.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	// and the signature up to the opening brace
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)([^{]*)\{`)

	// computeEntryRegex matches @compute functions and captures the entry point name
	computeEntryRegex = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> camera: CameraUniform;
	// or handle types: @group(2) @binding(0) var diffuseTexture: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// primitiveLayouts maps WGSL primitive, vector, matrix, and atomic type names
// to their byte size and alignment under WGSL layout rules.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var primitiveLayouts = map[string]typeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"f16":  {2, 2},
	"bool": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},

	"vec2<i32>": {8, 8},
	"vec2i":     {8, 8},
	"vec3<i32>": {12, 16},
	"vec3i":     {12, 16},
	"vec4<i32>": {16, 16},
	"vec4i":     {16, 16},

	"vec2<u32>": {8, 8},
	"vec2u":     {8, 8},
	"vec3<u32>": {12, 16},
	"vec3u":     {12, 16},
	"vec4<u32>": {16, 16},
	"vec4u":     {16, 16},

	// matCxR<f32>: C columns of vecR<f32>, stride = roundUp(align(vecR), size(vecR))
	"mat2x2<f32>": {16, 8},
	"mat3x3<f32>": {48, 16},
	"mat3x3f":     {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},

	"atomic<u32>": {4, 4},
	"atomic<i32>": {4, 4},
}

// ReflectWGSL extracts resource bindings, uniform names, fragment outputs and entry points
// from WGSL source. Unknown types are kept with a zero size rather than rejected so that a
// program using features the reflector does not understand still loads.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - Reflection: the discovered resource interface
func ReflectWGSL(source string) Reflection {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)
	layouts := computeStructSizes(structs)
	byName := make(map[string]parsedStruct, len(structs))
	for _, ps := range structs {
		byName[ps.name] = ps
	}

	r := Reflection{EntryPoints: make(map[Stage]string)}

	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		b := Binding{
			Group:    uint32(group),
			Binding:  uint32(binding),
			Name:     strings.TrimSpace(match[4]),
			TypeName: strings.TrimSpace(match[5]),
			Kind:     classifyResource(strings.TrimSpace(match[3]), strings.TrimSpace(match[5])),
		}
		if b.Kind == BindingUniform || b.Kind == BindingStorage || b.Kind == BindingReadOnlyStorage {
			if layout, ok := resolveTypeLayout(b.TypeName, layouts); ok {
				b.Size = layout.size
			}
			if ps, ok := byName[b.TypeName]; ok {
				b.Fields = structFields(ps, layouts)
			}
		}
		if b.Kind == BindingUniform {
			if len(b.Fields) > 0 {
				for _, f := range b.Fields {
					r.Uniforms = append(r.Uniforms, f.Name)
				}
			} else {
				r.Uniforms = append(r.Uniforms, b.Name)
			}
		}
		r.Bindings = append(r.Bindings, b)
	}

	sort.SliceStable(r.Bindings, func(i, j int) bool {
		if r.Bindings[i].Group != r.Bindings[j].Group {
			return r.Bindings[i].Group < r.Bindings[j].Group
		}
		return r.Bindings[i].Binding < r.Bindings[j].Binding
	})

	if m := vertexEntryRegex.FindStringSubmatch(cleaned); m != nil {
		r.EntryPoints[StageVertex] = m[1]
	}
	if m := computeEntryRegex.FindStringSubmatch(cleaned); m != nil {
		r.EntryPoints[StageCompute] = m[1]
	}
	if m := fragmentEntryRegex.FindStringSubmatch(cleaned); m != nil {
		r.EntryPoints[StageFragment] = m[1]
		if _, ret, ok := strings.Cut(m[2], "->"); ok {
			r.Outputs = fragmentOutputs(strings.TrimSpace(ret), byName)
		}
	}

	return r
}

// fragmentOutputs resolves the colour outputs of a fragment entry point from its return type,
// which is either a single @location attribute or a struct of @location fields.
func fragmentOutputs(ret string, structs map[string]parsedStruct) []Output {
	if ret == "" {
		return nil
	}
	if loc := locationRegex.FindStringSubmatch(ret); loc != nil {
		n, _ := strconv.Atoi(loc[1])
		typ := strings.TrimSpace(locationRegex.ReplaceAllString(ret, ""))
		return []Output{{Location: uint32(n), Type: typ}}
	}
	ps, ok := structs[ret]
	if !ok {
		return nil
	}
	var outs []Output
	for _, f := range ps.fields {
		if f.location < 0 || f.isBuiltin {
			continue
		}
		outs = append(outs, Output{Location: uint32(f.location), Name: f.name, Type: f.typeName})
	}
	sort.Slice(outs, func(i, j int) bool { return outs[i].Location < outs[j].Location })
	return outs
}

// structFields lays out the members of a struct using WGSL alignment rules.
func structFields(ps parsedStruct, known map[string]typeLayout) []Field {
	fields := make([]Field, 0, len(ps.fields))
	offset := uint64(0)
	for _, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		layout, ok := resolveTypeLayout(f.typeName, known)
		if !ok {
			fields = append(fields, Field{Name: f.name, Type: f.typeName, Offset: offset})
			continue
		}
		offset = roundUpAlign(layout.align, offset)
		fields = append(fields, Field{Name: f.name, Type: f.typeName, Offset: offset, Size: layout.size})
		offset += layout.size
	}
	return fields
}

// classifyResource determines the binding kind from the address space qualifier and type name.
//
// Parameters:
//   - addressSpace: the address space qualifier (e.g. "uniform", "storage, read_write"), empty for handle types
//   - typeName: the WGSL type string (e.g. "CameraUniform", "texture_2d<f32>", "sampler")
//
// Returns:
//   - BindingKind: the resource category
func classifyResource(addressSpace, typeName string) BindingKind {
	if addressSpace != "" {
		switch {
		case addressSpace == "uniform":
			return BindingUniform
		case strings.HasPrefix(addressSpace, "storage") && strings.Contains(addressSpace, "read_write"):
			return BindingStorage
		default:
			return BindingReadOnlyStorage
		}
	}

	switch {
	case typeName == "sampler":
		return BindingSampler
	case typeName == "sampler_comparison":
		return BindingComparisonSampler
	case strings.HasPrefix(typeName, "texture_storage_"):
		return BindingStorageTexture
	case strings.HasPrefix(typeName, "texture_depth_"):
		return BindingDepthTexture
	default:
		return BindingTexture
	}
}

// roundUpAlign rounds value up to the next multiple of alignment.
// Alignment must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves a WGSL type name to its size and alignment using primitives
// and previously-computed struct layouts. Handles fixed-size arrays (array<T, N>); a
// runtime-sized array resolves to its element stride.
//
// Parameters:
//   - typeName: the WGSL type name to resolve, e.g. "f32", "CameraUniform", "array<Light, 6>"
//   - known: a map of already-resolved type names to their layouts
//
// Returns:
//   - typeLayout: the resolved layout
//   - bool: true if the type could be resolved
func resolveTypeLayout(typeName string, known map[string]typeLayout) (typeLayout, bool) {
	if layout, ok := primitiveLayouts[typeName]; ok {
		return layout, true
	}
	if layout, ok := known[typeName]; ok {
		return layout, true
	}

	if strings.HasPrefix(typeName, "array<") && strings.HasSuffix(typeName, ">") {
		inner := typeName[6 : len(typeName)-1]
		parts := strings.SplitN(inner, ",", 2)
		elem, ok := resolveTypeLayout(strings.TrimSpace(parts[0]), known)
		if !ok {
			return typeLayout{}, false
		}
		stride := roundUpAlign(elem.align, elem.size)
		if len(parts) == 2 {
			count, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
			if err != nil {
				return typeLayout{}, false
			}
			return typeLayout{count * stride, elem.align}, true
		}
		return typeLayout{stride, elem.align}, true
	}

	return typeLayout{}, false
}

// computeStructLayout computes the byte size and alignment of a single WGSL struct using
// WGSL struct layout rules: each field is placed at the next aligned offset, and the total
// size is rounded up to the struct's alignment.
func computeStructLayout(ps parsedStruct, known map[string]typeLayout) (typeLayout, bool) {
	offset := uint64(0)
	maxAlign := uint64(1)

	for _, field := range ps.fields {
		if field.isBuiltin {
			continue
		}
		fl, ok := resolveTypeLayout(field.typeName, known)
		if !ok {
			return typeLayout{}, false
		}
		offset = roundUpAlign(fl.align, offset) + fl.size
		maxAlign = max(maxAlign, fl.align)
	}

	return typeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

// computeStructSizes resolves every struct layout, iterating until structs that embed other
// structs have their dependencies resolved.
func computeStructSizes(structs []parsedStruct) map[string]typeLayout {
	resolved := make(map[string]typeLayout, len(structs))
	remaining := append([]parsedStruct(nil), structs...)

	for len(remaining) > 0 {
		progress := false
		next := remaining[:0]
		for _, ps := range remaining {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
				progress = true
			} else {
				next = append(next, ps)
			}
		}
		remaining = next
		if !progress {
			break
		}
	}

	return resolved
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}
	return structs
}

// parseStructFields parses the body of a struct block into individual fields
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		field.isBuiltin = builtinRegex.MatchString(line)
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}

	return fields
}

// splitAtTopLevelCommas splits a string at commas that are not nested inside angle brackets,
// so array<Light, 6> stays one field.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// stripComments removes both single-line (//) and nested block (/* */) comments.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i++
				continue
			}
			if source[i] == '*' && source[i+1] == '/' {
				if depth > 0 {
					depth--
				}
				i++
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
