package renderer

import (
	"testing"

	"github.com/stretchr/testify/require"

	pmath "github.com/halcyon-games/prism/engine/math"
)

func project(mt pmath.Mat4, x, y float32) (float32, float32) {
	px := mt.Data[0]*x + mt.Data[4]*y + mt.Data[12]
	py := mt.Data[1]*x + mt.Data[5]*y + mt.Data[13]
	return px, py
}

func TestDefaultCameraMapsCorners(t *testing.T) {
	cam := DefaultCamera(800, 600)
	vp := cam.ViewProjection()

	x, y := project(vp, 0, 0)
	require.InDelta(t, -1, x, 1e-5)
	require.InDelta(t, -1, y, 1e-5)

	x, y = project(vp, 800, 600)
	require.InDelta(t, 1, x, 1e-5)
	require.InDelta(t, 1, y, 1e-5)

	x, y = project(vp, 400, 300)
	require.InDelta(t, 0, x, 1e-5)
	require.InDelta(t, 0, y, 1e-5)
}

func TestCameraPositionShiftsView(t *testing.T) {
	cam := DefaultCamera(800, 600)
	cam.X = 100
	cam.Y = 50
	vp := cam.ViewProjection()

	// The world point at the camera corner lands at the clip corner.
	x, y := project(vp, 100, 50)
	require.InDelta(t, -1, x, 1e-5)
	require.InDelta(t, -1, y, 1e-5)
}

func TestCameraZoomScalesAboutCentre(t *testing.T) {
	cam := DefaultCamera(800, 600)
	cam.Zoom = 2
	vp := cam.ViewProjection()

	// The centre is fixed; a point halfway to the edge reaches it at 2x.
	x, y := project(vp, 400, 300)
	require.InDelta(t, 0, x, 1e-5)
	require.InDelta(t, 0, y, 1e-5)

	x, _ = project(vp, 600, 300)
	require.InDelta(t, 1, x, 1e-5)
}

func TestCameraZeroZoomTreatedAsOne(t *testing.T) {
	cam := DefaultCamera(800, 600)
	cam.Zoom = 0

	require.Equal(t, DefaultCamera(800, 600).ViewProjection(), cam.ViewProjection())
}
