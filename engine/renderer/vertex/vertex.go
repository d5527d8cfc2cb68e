package vertex

import (
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// nextID hands out creation-ordered vertex source identities.
var nextID atomic.Uint64

// AttributeFormat is the component layout of one vertex attribute.
type AttributeFormat uint8

const (
	Float32x2 AttributeFormat = iota + 2
	Float32x3
	Float32x4
)

// Components returns the number of float32 components in the format.
func (f AttributeFormat) Components() int {
	return int(f)
}

// Attribute describes one interleaved vertex attribute.
type Attribute struct {
	Location uint32
	Format   AttributeFormat
	Offset   uint32
}

// source is the implementation of the Source interface.
type source struct {
	id          uint64
	label       string
	vertices    []byte
	indices     []byte
	indexFormat gputypes.IndexFormat
	stride      uint32
	layout      []Attribute
	vertexCount uint32
	indexCount  uint32
}

// Source is a borrowed reference to interleaved vertex data plus an optional index buffer.
// Backends upload it lazily on first bind and key the device buffers by ID.
type Source interface {
	// ID returns the creation-ordered identity of the source. Never zero.
	//
	// Returns:
	//   - uint64: the source identity
	ID() uint64

	// Label returns a debug name.
	Label() string

	// Vertices returns the interleaved vertex bytes.
	Vertices() []byte

	// Indices returns the index bytes, or nil for a non-indexed source.
	Indices() []byte

	// IndexFormat returns the element type of Indices.
	IndexFormat() gputypes.IndexFormat

	// Indexed reports whether draws from this source use the index buffer.
	Indexed() bool

	// Stride returns the byte distance between consecutive vertices.
	Stride() uint32

	// Layout returns the attribute layout within one vertex.
	Layout() []Attribute

	// VertexCount returns the number of vertices.
	VertexCount() uint32

	// IndexCount returns the number of indices, zero when not indexed.
	IndexCount() uint32
}

var _ Source = &source{}

// NewSource creates a vertex source over interleaved vertex data.
//
// Parameters:
//   - vertices: interleaved vertex bytes (len must be a multiple of stride)
//   - stride: bytes per vertex (must be > 0)
//   - layout: the attribute layout
//   - opts: variadic list of SourceBuilderOption functions
//
// Returns:
//   - Source: the new vertex source
func NewSource(vertices []byte, stride uint32, layout []Attribute, opts ...SourceBuilderOption) Source {
	if stride == 0 {
		panic("vertex: stride must be positive")
	}
	if uint32(len(vertices))%stride != 0 {
		panic("vertex: vertex data is not a multiple of stride")
	}
	s := &source{
		id:          nextID.Add(1),
		vertices:    vertices,
		stride:      stride,
		layout:      layout,
		vertexCount: uint32(len(vertices)) / stride,
		indexFormat: gputypes.IndexFormatUint32,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *source) ID() uint64 {
	return s.id
}

func (s *source) Label() string {
	return s.label
}

func (s *source) Vertices() []byte {
	return s.vertices
}

func (s *source) Indices() []byte {
	return s.indices
}

func (s *source) IndexFormat() gputypes.IndexFormat {
	return s.indexFormat
}

func (s *source) Indexed() bool {
	return len(s.indices) > 0
}

func (s *source) Stride() uint32 {
	return s.stride
}

func (s *source) Layout() []Attribute {
	return s.layout
}

func (s *source) VertexCount() uint32 {
	return s.vertexCount
}

func (s *source) IndexCount() uint32 {
	return s.indexCount
}
