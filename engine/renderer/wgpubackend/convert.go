package wgpubackend

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/vertex"
)

func compareFunction(f gputypes.CompareFunction) wgpu.CompareFunction {
	switch f {
	case gputypes.CompareFunctionNever:
		return wgpu.CompareFunctionNever
	case gputypes.CompareFunctionEqual:
		return wgpu.CompareFunctionEqual
	case gputypes.CompareFunctionLessEqual:
		return wgpu.CompareFunctionLessEqual
	case gputypes.CompareFunctionGreater:
		return wgpu.CompareFunctionGreater
	case gputypes.CompareFunctionNotEqual:
		return wgpu.CompareFunctionNotEqual
	case gputypes.CompareFunctionGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual
	case gputypes.CompareFunctionAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionLess
	}
}

func blendFactor(f gputypes.BlendFactor) wgpu.BlendFactor {
	switch f {
	case gputypes.BlendFactorZero:
		return wgpu.BlendFactorZero
	case gputypes.BlendFactorSrc:
		return wgpu.BlendFactorSrc
	case gputypes.BlendFactorOneMinusSrc:
		return wgpu.BlendFactorOneMinusSrc
	case gputypes.BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	case gputypes.BlendFactorDst:
		return wgpu.BlendFactorDst
	case gputypes.BlendFactorOneMinusDst:
		return wgpu.BlendFactorOneMinusDst
	case gputypes.BlendFactorDstAlpha:
		return wgpu.BlendFactorDstAlpha
	case gputypes.BlendFactorOneMinusDstAlpha:
		return wgpu.BlendFactorOneMinusDstAlpha
	default:
		return wgpu.BlendFactorOne
	}
}

func blendOperation(op gputypes.BlendOperation) wgpu.BlendOperation {
	switch op {
	case gputypes.BlendOperationSubtract:
		return wgpu.BlendOperationSubtract
	case gputypes.BlendOperationReverseSubtract:
		return wgpu.BlendOperationReverseSubtract
	case gputypes.BlendOperationMin:
		return wgpu.BlendOperationMin
	case gputypes.BlendOperationMax:
		return wgpu.BlendOperationMax
	default:
		return wgpu.BlendOperationAdd
	}
}

// blendState returns nil for a disabled blend so the target writes straight through.
func blendState(b state.Blend) *wgpu.BlendState {
	if !b.Enabled {
		return nil
	}
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: blendFactor(b.SrcRGB),
			DstFactor: blendFactor(b.DstRGB),
			Operation: blendOperation(b.OpRGB),
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: blendFactor(b.SrcAlpha),
			DstFactor: blendFactor(b.DstAlpha),
			Operation: blendOperation(b.OpAlpha),
		},
	}
}

func cullMode(m gputypes.CullMode) wgpu.CullMode {
	switch m {
	case gputypes.CullModeFront:
		return wgpu.CullModeFront
	case gputypes.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func topology(t gputypes.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	case gputypes.PrimitiveTopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case gputypes.PrimitiveTopologyLineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case gputypes.PrimitiveTopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func isStrip(t gputypes.PrimitiveTopology) bool {
	return t == gputypes.PrimitiveTopologyLineStrip || t == gputypes.PrimitiveTopologyTriangleStrip
}

func indexFormat(f gputypes.IndexFormat) wgpu.IndexFormat {
	if f == gputypes.IndexFormatUint16 {
		return wgpu.IndexFormatUint16
	}
	return wgpu.IndexFormatUint32
}

func vertexFormat(f vertex.AttributeFormat) wgpu.VertexFormat {
	switch f {
	case vertex.Float32x2:
		return wgpu.VertexFormatFloat32x2
	case vertex.Float32x4:
		return wgpu.VertexFormatFloat32x4
	default:
		return wgpu.VertexFormatFloat32x3
	}
}
