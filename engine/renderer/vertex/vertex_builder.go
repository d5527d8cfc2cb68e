package vertex

import (
	"encoding/binary"

	"github.com/gogpu/gputypes"
)

// SourceBuilderOption is a function that configures a Source during construction.
type SourceBuilderOption func(*source)

// WithLabel sets the debug name of the source.
func WithLabel(label string) SourceBuilderOption {
	return func(s *source) {
		s.label = label
	}
}

// WithIndices32 attaches a 32-bit index buffer.
//
// Parameters:
//   - indices: triangle or line indices into the vertex data
//
// Returns:
//   - SourceBuilderOption: a function that applies the index option to a source
func WithIndices32(indices []uint32) SourceBuilderOption {
	return func(s *source) {
		buf := make([]byte, 4*len(indices))
		for i, idx := range indices {
			binary.LittleEndian.PutUint32(buf[i*4:], idx)
		}
		s.indices = buf
		s.indexCount = uint32(len(indices))
		s.indexFormat = gputypes.IndexFormatUint32
	}
}

// WithIndices16 attaches a 16-bit index buffer.
func WithIndices16(indices []uint16) SourceBuilderOption {
	return func(s *source) {
		buf := make([]byte, 2*len(indices))
		for i, idx := range indices {
			binary.LittleEndian.PutUint16(buf[i*2:], idx)
		}
		s.indices = buf
		s.indexCount = uint32(len(indices))
		s.indexFormat = gputypes.IndexFormatUint16
	}
}
