package math

import (
	m "math"
)

func NewVec4Zero() Vec4 {
	return Vec4{}
}

func NewVec4One() Vec4 {
	return Vec4{X: 1, Y: 1, Z: 1, W: 1}
}

func NewMat4Identity() Mat4 {
	out_matrix := Mat4{}
	out_matrix.Data[0] = 1.0
	out_matrix.Data[5] = 1.0
	out_matrix.Data[10] = 1.0
	out_matrix.Data[15] = 1.0
	return out_matrix
}

func (mt Mat4) Mul(other Mat4) Mat4 {
	out_matrix := NewMat4Identity()
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += mt.Data[k*4+row] * other.Data[col*4+k]
			}
			out_matrix.Data[col*4+row] = sum
		}
	}
	return out_matrix
}

// NewMat4Orthographic builds an orthographic projection. The renderer uses
// top-left origin screen coordinates, so callers typically pass
// (0, w, 0, h, -1, 1).
func NewMat4Orthographic(left, right, bottom, top, near_clip, far_clip float32) Mat4 {
	out_matrix := NewMat4Identity()

	lr := 1.0 / (left - right)
	bt := 1.0 / (bottom - top)
	nf := 1.0 / (near_clip - far_clip)

	out_matrix.Data[0] = -2.0 * lr
	out_matrix.Data[5] = -2.0 * bt
	out_matrix.Data[10] = 2.0 * nf

	out_matrix.Data[12] = (left + right) * lr
	out_matrix.Data[13] = (top + bottom) * bt
	out_matrix.Data[14] = (far_clip + near_clip) * nf
	return out_matrix
}

// Inverse returns the inverse of the matrix. The matrix must be invertible;
// every view-projection this renderer builds is.
func (mt Mat4) Inverse() Mat4 {
	mx := mt.Data

	t0 := mx[10] * mx[15]
	t1 := mx[14] * mx[11]
	t2 := mx[6] * mx[15]
	t3 := mx[14] * mx[7]
	t4 := mx[6] * mx[11]
	t5 := mx[10] * mx[7]
	t6 := mx[2] * mx[15]
	t7 := mx[14] * mx[3]
	t8 := mx[2] * mx[11]
	t9 := mx[10] * mx[3]
	t10 := mx[2] * mx[7]
	t11 := mx[6] * mx[3]
	t12 := mx[8] * mx[13]
	t13 := mx[12] * mx[9]
	t14 := mx[4] * mx[13]
	t15 := mx[12] * mx[5]
	t16 := mx[4] * mx[9]
	t17 := mx[8] * mx[5]
	t18 := mx[0] * mx[13]
	t19 := mx[12] * mx[1]
	t20 := mx[0] * mx[9]
	t21 := mx[8] * mx[1]
	t22 := mx[0] * mx[5]
	t23 := mx[4] * mx[1]

	out_matrix := Mat4{}
	o := &out_matrix.Data

	o[0] = (t0*mx[5] + t3*mx[9] + t4*mx[13]) - (t1*mx[5] + t2*mx[9] + t5*mx[13])
	o[1] = (t1*mx[1] + t6*mx[9] + t9*mx[13]) - (t0*mx[1] + t7*mx[9] + t8*mx[13])
	o[2] = (t2*mx[1] + t7*mx[5] + t10*mx[13]) - (t3*mx[1] + t6*mx[5] + t11*mx[13])
	o[3] = (t5*mx[1] + t8*mx[5] + t11*mx[9]) - (t4*mx[1] + t9*mx[5] + t10*mx[9])

	d := 1.0 / (mx[0]*o[0] + mx[4]*o[1] + mx[8]*o[2] + mx[12]*o[3])

	o[0] = d * o[0]
	o[1] = d * o[1]
	o[2] = d * o[2]
	o[3] = d * o[3]
	o[4] = d * ((t1*mx[4] + t2*mx[8] + t5*mx[12]) - (t0*mx[4] + t3*mx[8] + t4*mx[12]))
	o[5] = d * ((t0*mx[0] + t7*mx[8] + t8*mx[12]) - (t1*mx[0] + t6*mx[8] + t9*mx[12]))
	o[6] = d * ((t3*mx[0] + t6*mx[4] + t11*mx[12]) - (t2*mx[0] + t7*mx[4] + t10*mx[12]))
	o[7] = d * ((t4*mx[0] + t9*mx[4] + t10*mx[8]) - (t5*mx[0] + t8*mx[4] + t11*mx[8]))
	o[8] = d * ((t12*mx[7] + t15*mx[11] + t16*mx[15]) - (t13*mx[7] + t14*mx[11] + t17*mx[15]))
	o[9] = d * ((t13*mx[3] + t18*mx[11] + t21*mx[15]) - (t12*mx[3] + t19*mx[11] + t20*mx[15]))
	o[10] = d * ((t14*mx[3] + t19*mx[7] + t22*mx[15]) - (t15*mx[3] + t18*mx[7] + t23*mx[15]))
	o[11] = d * ((t17*mx[3] + t20*mx[7] + t23*mx[11]) - (t16*mx[3] + t21*mx[7] + t22*mx[11]))
	o[12] = d * ((t14*mx[10] + t17*mx[14] + t13*mx[6]) - (t16*mx[14] + t12*mx[6] + t15*mx[10]))
	o[13] = d * ((t20*mx[14] + t12*mx[2] + t19*mx[10]) - (t18*mx[10] + t21*mx[14] + t13*mx[2]))
	o[14] = d * ((t18*mx[6] + t23*mx[14] + t15*mx[2]) - (t22*mx[14] + t14*mx[2] + t19*mx[6]))
	o[15] = d * ((t22*mx[10] + t16*mx[2] + t21*mx[6]) - (t20*mx[6] + t23*mx[10] + t17*mx[2]))

	return out_matrix
}

func NewMat4Translation(position Vec3) Mat4 {
	out_matrix := NewMat4Identity()
	out_matrix.Data[12] = position.X
	out_matrix.Data[13] = position.Y
	out_matrix.Data[14] = position.Z
	return out_matrix
}

func NewMat4Scale(scale Vec3) Mat4 {
	out_matrix := NewMat4Identity()
	out_matrix.Data[0] = scale.X
	out_matrix.Data[5] = scale.Y
	out_matrix.Data[10] = scale.Z
	return out_matrix
}

func NewMat4EulerZ(angle_radians float32) Mat4 {
	out_matrix := NewMat4Identity()
	c := float32(m.Cos(float64(angle_radians)))
	s := float32(m.Sin(float64(angle_radians)))
	out_matrix.Data[0] = c
	out_matrix.Data[1] = s
	out_matrix.Data[4] = -s
	out_matrix.Data[5] = c
	return out_matrix
}

// NewMat4Model2D builds the destination transform for a 2D draw: translate to
// (x, y), rotate around the rotation origin (ox, oy) given in destination
// pixels, and scale by (xscale, yscale). Negative scales flip.
func NewMat4Model2D(x, y, xscale, yscale, rotation, ox, oy float32) Mat4 {
	model := NewMat4Translation(Vec3{X: x + ox, Y: y + oy})
	if rotation != 0 {
		model = model.Mul(NewMat4EulerZ(rotation))
	}
	model = model.Mul(NewMat4Translation(Vec3{X: -ox, Y: -oy}))
	return model.Mul(NewMat4Scale(Vec3{X: xscale, Y: yscale, Z: 1}))
}
