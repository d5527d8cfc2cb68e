package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

func TestOrbitControllerPosition(t *testing.T) {
	cc := NewOrbitController(WithRadius(5), WithElevation(0), WithTarget(mgl32.Vec3{1, 0, 0}))
	assert.True(t, cc.Position().ApproxEqual(mgl32.Vec3{1, 0, 5}))

	cc.Orbit(mgl32.DegToRad(90), 0)
	assert.True(t, cc.Position().ApproxEqualThreshold(mgl32.Vec3{6, 0, 0}, 1e-5))

	cc.Orbit(0, 10)
	assert.Less(t, cc.Elevation(), float32(1.6))

	cc.Zoom(100)
	assert.Equal(t, float32(0.5), cc.Radius())
}

func TestCameraMatrices(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(5), WithElevation(0))
	cam := NewCamera(WithController(ctrl), WithClip(1, 50))

	assert.True(t, cam.Eye().ApproxEqual(mgl32.Vec3{0, 0, 5}))
	assert.True(t, cam.ViewProjection().ApproxEqual(cam.Projection().Mul4(cam.View())))

	f := cam.Frustum()
	assert.True(t, f.ContainsPoint(mgl32.Vec3{}))
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, 10}))
	assert.False(t, f.IntersectsAABB(common.NewAABB(mgl32.Vec3{-1, -1, -100}, mgl32.Vec3{1, 1, -60})))
}

func TestCameraRayThroughCentre(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(5), WithElevation(0))
	cam := NewCamera(WithController(ctrl))

	ray := cam.Ray(0, 0)
	assert.True(t, ray.Dir.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-4))

	d, hit := common.NewAABB(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}).IntersectRay(ray)
	require.True(t, hit)
	assert.InDelta(t, 3.9, d, 1e-2)
}

func TestCameraWithoutController(t *testing.T) {
	cam := NewCamera(WithAspect(2))
	assert.Equal(t, mgl32.Ident4(), cam.View())
	cam.Update()
	cam.SetFov(mgl32.DegToRad(90))
	assert.InDelta(t, 0.5, cam.Projection().At(0, 0), 1e-5)
}

func TestOrthographicCamera(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(5), WithElevation(0))
	cam := NewCamera(WithController(ctrl), WithAspect(2), WithOrthographic(4), WithClip(1, 20))
	require.True(t, cam.Orthographic())

	p := cam.Projection()
	assert.InDelta(t, 0.25, p.At(0, 0), 1e-6)
	assert.InDelta(t, 0.5, p.At(1, 1), 1e-6)
	assert.InDelta(t, 1, p.At(3, 3), 1e-6)

	// rays through different pixels stay parallel
	a, b := cam.Ray(-0.5, 0.2), cam.Ray(0.7, -0.9)
	assert.True(t, a.Dir.ApproxEqualThreshold(b.Dir, 1e-4))
	assert.False(t, a.Origin.ApproxEqualThreshold(b.Origin, 1e-4))

	cam.SetOrthographic(0)
	assert.False(t, cam.Orthographic())
	assert.InDelta(t, 0, cam.Projection().At(3, 3), 1e-6)
}

func TestBuilderOptionsRejectInvalidRanges(t *testing.T) {
	assert.PanicsWithValue(t, "camera: invalid clip range [0, 10]", func() { WithClip(0, 10) })
	assert.PanicsWithValue(t, "camera: invalid clip range [5, 1]", func() { WithClip(5, 1) })
	assert.PanicsWithValue(t, "camera: invalid radius bounds [2, 1]", func() { WithRadiusBounds(2, 1) })
	assert.PanicsWithValue(t, "camera: invalid elevation bounds [1, 0]", func() { WithElevationBounds(1, 0) })

	cc := NewOrbitController(WithZoomSpeed(-1), WithRadius(5))
	cc.Zoom(1)
	assert.Equal(t, float32(4), cc.Radius())
}
