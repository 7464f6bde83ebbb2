package renderer

import (
	pmath "github.com/halcyon-games/prism/engine/math"
)

// Camera is the 2D view: a world-space window of W by H centred logic with
// optional zoom and rotation. The camera active when a frame starts stays
// locked for that whole frame; SetCamera mid-frame affects the next one.
type Camera struct {
	// World coordinates of the top-left corner.
	X float32
	Y float32
	// Virtual width and height of the view.
	W float32
	H float32
	Zoom float32
	// Rotation around the view centre, radians.
	Rotation float32
}

// DefaultCamera views the given size one-to-one from the origin.
func DefaultCamera(width, height float32) Camera {
	return Camera{
		X:    0,
		Y:    0,
		W:    width,
		H:    height,
		Zoom: 1,
	}
}

// ViewProjection builds the matrix uploaded to the per-frame uniform.
// Y grows downward, matching screen coordinates.
func (c Camera) ViewProjection() pmath.Mat4 {
	zoom := c.Zoom
	if zoom == 0 {
		zoom = 1
	}

	projection := pmath.NewMat4Orthographic(0, c.W, 0, c.H, -1, 1)

	// View: translate to centre, rotate and zoom about it, translate into
	// camera space.
	cx := c.W / 2
	cy := c.H / 2
	view := pmath.NewMat4Translation(pmath.Vec3{X: cx, Y: cy}).
		Mul(pmath.NewMat4EulerZ(c.Rotation)).
		Mul(pmath.NewMat4Scale(pmath.Vec3{X: zoom, Y: zoom, Z: 1})).
		Mul(pmath.NewMat4Translation(pmath.Vec3{X: -cx - c.X, Y: -cy - c.Y}))

	return projection.Mul(view)
}
