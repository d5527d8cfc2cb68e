package wgpubackend

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/vertex"
)

func TestCompareFunction(t *testing.T) {
	tests := []struct {
		in   gputypes.CompareFunction
		want wgpu.CompareFunction
	}{
		{gputypes.CompareFunctionLess, wgpu.CompareFunctionLess},
		{gputypes.CompareFunctionEqual, wgpu.CompareFunctionEqual},
		{gputypes.CompareFunctionLessEqual, wgpu.CompareFunctionLessEqual},
		{gputypes.CompareFunctionAlways, wgpu.CompareFunctionAlways},
		{gputypes.CompareFunctionNever, wgpu.CompareFunctionNever},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compareFunction(tt.in))
	}
}

func TestBlendState(t *testing.T) {
	assert.Nil(t, blendState(state.Blend{}))

	bs := blendState(state.Blend{
		Enabled:  true,
		SrcRGB:   gputypes.BlendFactorOne,
		DstRGB:   gputypes.BlendFactorOne,
		SrcAlpha: gputypes.BlendFactorOne,
		DstAlpha: gputypes.BlendFactorOne,
		OpRGB:    gputypes.BlendOperationAdd,
		OpAlpha:  gputypes.BlendOperationAdd,
	})
	require.NotNil(t, bs)
	assert.Equal(t, wgpu.BlendFactorOne, bs.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOne, bs.Color.DstFactor)
	assert.Equal(t, wgpu.BlendOperationAdd, bs.Alpha.Operation)
}

func TestCullAndTopology(t *testing.T) {
	assert.Equal(t, wgpu.CullModeNone, cullMode(gputypes.CullModeNone))
	assert.Equal(t, wgpu.CullModeBack, cullMode(gputypes.CullModeBack))
	assert.Equal(t, wgpu.CullModeFront, cullMode(gputypes.CullModeFront))

	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, topology(gputypes.PrimitiveTopologyTriangleList))
	assert.Equal(t, wgpu.PrimitiveTopologyLineStrip, topology(gputypes.PrimitiveTopologyLineStrip))
	assert.True(t, isStrip(gputypes.PrimitiveTopologyTriangleStrip))
	assert.False(t, isStrip(gputypes.PrimitiveTopologyTriangleList))
}

func TestFormats(t *testing.T) {
	assert.Equal(t, wgpu.IndexFormatUint16, indexFormat(gputypes.IndexFormatUint16))
	assert.Equal(t, wgpu.IndexFormatUint32, indexFormat(gputypes.IndexFormatUint32))
	assert.Equal(t, wgpu.VertexFormatFloat32x2, vertexFormat(vertex.Float32x2))
	assert.Equal(t, wgpu.VertexFormatFloat32x3, vertexFormat(vertex.Float32x3))
	assert.Equal(t, wgpu.VertexFormatFloat32x4, vertexFormat(vertex.Float32x4))
}

func TestClampRect(t *testing.T) {
	tests := []struct {
		name string
		in   common.Rect
		want common.Rect
	}{
		{"empty covers target", common.Rect{}, common.Rect{Width: 800, Height: 600}},
		{"inside", common.Rect{X: 10, Y: 20, Width: 100, Height: 50}, common.Rect{X: 10, Y: 20, Width: 100, Height: 50}},
		{"overhang", common.Rect{X: 700, Y: -10, Width: 200, Height: 100}, common.Rect{X: 700, Y: 0, Width: 100, Height: 90}},
		{"outside", common.Rect{X: 900, Y: 0, Width: 10, Height: 10}, common.Rect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampRect(tt.in, 800, 600))
		})
	}
}
