package math

import (
	m "math"
	"testing"

	"github.com/stretchr/testify/require"
)

const epsilon = 1e-5

func requireVec4Near(t *testing.T, want, got Vec4) {
	t.Helper()
	require.InDelta(t, want.X, got.X, epsilon)
	require.InDelta(t, want.Y, got.Y, epsilon)
	require.InDelta(t, want.Z, got.Z, epsilon)
	require.InDelta(t, want.W, got.W, epsilon)
}

// transform applies a column-major matrix to a point.
func transform(mt Mat4, v Vec4) Vec4 {
	var out Vec4
	out.X = mt.Data[0]*v.X + mt.Data[4]*v.Y + mt.Data[8]*v.Z + mt.Data[12]*v.W
	out.Y = mt.Data[1]*v.X + mt.Data[5]*v.Y + mt.Data[9]*v.Z + mt.Data[13]*v.W
	out.Z = mt.Data[2]*v.X + mt.Data[6]*v.Y + mt.Data[10]*v.Z + mt.Data[14]*v.W
	out.W = mt.Data[3]*v.X + mt.Data[7]*v.Y + mt.Data[11]*v.Z + mt.Data[15]*v.W
	return out
}

func TestMat4IdentityMul(t *testing.T) {
	id := NewMat4Identity()
	translation := NewMat4Translation(Vec3{X: 3, Y: -2, Z: 1})

	require.Equal(t, translation, id.Mul(translation))
	require.Equal(t, translation, translation.Mul(id))
}

func TestMat4MulOrder(t *testing.T) {
	// Translate then scale is not scale then translate.
	translate := NewMat4Translation(Vec3{X: 10})
	scale := NewMat4Scale(Vec3{X: 2, Y: 2, Z: 1})

	p := Vec4{X: 1, W: 1}
	requireVec4Near(t, Vec4{X: 12, W: 1}, transform(translate.Mul(scale), p))
	requireVec4Near(t, Vec4{X: 22, W: 1}, transform(scale.Mul(translate), p))
}

func TestMat4Orthographic(t *testing.T) {
	// Top-left origin: (0,0) maps to clip (-1,-1), (w,h) to (1,1).
	proj := NewMat4Orthographic(0, 800, 0, 600, -1, 1)

	requireVec4Near(t, Vec4{X: -1, Y: -1, W: 1}, transform(proj, Vec4{W: 1}))
	requireVec4Near(t, Vec4{X: 1, Y: 1, W: 1}, transform(proj, Vec4{X: 800, Y: 600, W: 1}))
	requireVec4Near(t, Vec4{W: 1}, transform(proj, Vec4{X: 400, Y: 300, W: 1}))
}

func TestMat4EulerZ(t *testing.T) {
	quarter := NewMat4EulerZ(float32(m.Pi / 2))
	requireVec4Near(t, Vec4{Y: 1, W: 1}, transform(quarter, Vec4{X: 1, W: 1}))
}

func TestMat4Model2D(t *testing.T) {
	// No rotation: scale happens around the position, origin offsets cancel.
	model := NewMat4Model2D(100, 50, 2, 2, 0, 0, 0)
	requireVec4Near(t, Vec4{X: 100, Y: 50, W: 1}, transform(model, Vec4{W: 1}))
	requireVec4Near(t, Vec4{X: 102, Y: 52, W: 1}, transform(model, Vec4{X: 1, Y: 1, W: 1}))

	// A half turn around the centre of a unit quad scaled to 10x10.
	spun := NewMat4Model2D(0, 0, 10, 10, float32(m.Pi), 5, 5)
	requireVec4Near(t, Vec4{X: 10, Y: 10, W: 1}, transform(spun, Vec4{W: 1}))
	requireVec4Near(t, Vec4{W: 1}, transform(spun, Vec4{X: 1, Y: 1, W: 1}))
}

func TestMat4Inverse(t *testing.T) {
	// A representative view-projection: ortho times a translate and scale.
	mt := NewMat4Orthographic(0, 800, 0, 600, -1, 1).
		Mul(NewMat4Translation(Vec3{X: 30, Y: -12})).
		Mul(NewMat4Scale(Vec3{X: 2, Y: 0.5, Z: 1}))

	round := mt.Mul(mt.Inverse())
	id := NewMat4Identity()
	for i := range round.Data {
		require.InDelta(t, id.Data[i], round.Data[i], 1e-4, "element %d", i)
	}
}

func TestVecConstructors(t *testing.T) {
	require.Equal(t, Vec4{}, NewVec4Zero())
	require.Equal(t, Vec4{X: 1, Y: 1, Z: 1, W: 1}, NewVec4One())
}

func TestClamp(t *testing.T) {
	require.Equal(t, 5, Clamp(3, 5, 10))
	require.Equal(t, 10, Clamp(12, 5, 10))
	require.Equal(t, 7, Clamp(7, 5, 10))
	require.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
}
