package program

// Stage identifies a programmable pipeline stage.
type Stage int

const (
	// StageVertex processes vertices.
	StageVertex Stage = iota

	// StageFragment shades fragments.
	StageFragment

	// StageCompute runs a compute entry point.
	StageCompute
)

// Language identifies the shading language of a program's sources.
type Language int

const (
	LanguageWGSL Language = iota
	LanguageGLSL
)

// BindingKind classifies a resource binding.
type BindingKind int

const (
	BindingUniform BindingKind = iota
	BindingStorage
	BindingReadOnlyStorage
	BindingTexture
	BindingDepthTexture
	BindingStorageTexture
	BindingSampler
	BindingComparisonSampler
)

// Field is one member of a reflected uniform or storage struct.
type Field struct {
	Name   string
	Type   string
	Offset uint64
	Size   uint64
}

// Binding is one reflected resource slot.
type Binding struct {
	Group    uint32
	Binding  uint32
	Name     string
	Kind     BindingKind
	TypeName string
	// Size is the minimum binding size in bytes for buffer kinds.
	Size uint64
	// Fields lists the struct members of a buffer binding in declaration order.
	Fields []Field
}

// Output is a fragment shader colour output.
type Output struct {
	Location uint32
	Name     string
	Type     string
}

// Reflection is the resource interface discovered from a program's sources.
type Reflection struct {
	Bindings    []Binding
	Uniforms    []string
	Outputs     []Output
	EntryPoints map[Stage]string
}

// typeLayout holds the byte size and alignment of a WGSL type.
type typeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}
