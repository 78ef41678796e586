// Package spatial provides the small 3-D algebra the mechanics code
// computes with, generic over the scalar element type so dual numbers
// pass through unchanged.
package spatial

import "mechdiff/internal/scalar"

// Vec3 is a 3-vector of generic elements.
type Vec3[T scalar.Scalar[T]] struct {
	X, Y, Z T
}

// LiftVec3 builds a constant vector with the derivative shape of the
// witness element.
func LiftVec3[T scalar.Scalar[T]](like T, x, y, z float64) Vec3[T] {
	return Vec3[T]{X: like.Lift(x), Y: like.Lift(y), Z: like.Lift(z)}
}

func (v Vec3[T]) Add(w Vec3[T]) Vec3[T] {
	return Vec3[T]{v.X.Add(w.X), v.Y.Add(w.Y), v.Z.Add(w.Z)}
}

func (v Vec3[T]) Sub(w Vec3[T]) Vec3[T] {
	return Vec3[T]{v.X.Sub(w.X), v.Y.Sub(w.Y), v.Z.Sub(w.Z)}
}

func (v Vec3[T]) Scale(s T) Vec3[T] {
	return Vec3[T]{v.X.Mul(s), v.Y.Mul(s), v.Z.Mul(s)}
}

func (v Vec3[T]) ScaleFloat(c float64) Vec3[T] {
	return Vec3[T]{v.X.Scale(c), v.Y.Scale(c), v.Z.Scale(c)}
}

func (v Vec3[T]) Dot(w Vec3[T]) T {
	return v.X.Mul(w.X).Add(v.Y.Mul(w.Y)).Add(v.Z.Mul(w.Z))
}

func (v Vec3[T]) Cross(w Vec3[T]) Vec3[T] {
	return Vec3[T]{
		X: v.Y.Mul(w.Z).Sub(v.Z.Mul(w.Y)),
		Y: v.Z.Mul(w.X).Sub(v.X.Mul(w.Z)),
		Z: v.X.Mul(w.Y).Sub(v.Y.Mul(w.X)),
	}
}

// Mat3 is a 3x3 matrix of generic elements, row major.
type Mat3[T scalar.Scalar[T]] [3][3]T

func (m Mat3[T]) MulVec(v Vec3[T]) Vec3[T] {
	return Vec3[T]{
		X: m[0][0].Mul(v.X).Add(m[0][1].Mul(v.Y)).Add(m[0][2].Mul(v.Z)),
		Y: m[1][0].Mul(v.X).Add(m[1][1].Mul(v.Y)).Add(m[1][2].Mul(v.Z)),
		Z: m[2][0].Mul(v.X).Add(m[2][1].Mul(v.Y)).Add(m[2][2].Mul(v.Z)),
	}
}

// TransposeMulVec computes m^T v without materializing the transpose.
func (m Mat3[T]) TransposeMulVec(v Vec3[T]) Vec3[T] {
	return Vec3[T]{
		X: m[0][0].Mul(v.X).Add(m[1][0].Mul(v.Y)).Add(m[2][0].Mul(v.Z)),
		Y: m[0][1].Mul(v.X).Add(m[1][1].Mul(v.Y)).Add(m[2][1].Mul(v.Z)),
		Z: m[0][2].Mul(v.X).Add(m[1][2].Mul(v.Y)).Add(m[2][2].Mul(v.Z)),
	}
}

func (m Mat3[T]) Mul(o Mat3[T]) Mat3[T] {
	var out Mat3[T]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][0].Mul(o[0][j]).
				Add(m[i][1].Mul(o[1][j])).
				Add(m[i][2].Mul(o[2][j]))
		}
	}
	return out
}

// Identity builds the identity matrix with the derivative shape of the
// witness element.
func Identity[T scalar.Scalar[T]](like T) Mat3[T] {
	zero, one := like.Zero(), like.Lift(1)
	return Mat3[T]{
		{one, zero, zero},
		{zero, one, zero},
		{zero, zero, one},
	}
}

// AxisAngle is the rotation by angle about the fixed unit axis
// (Rodrigues): R = I cos + [a]x sin + (1-cos) a a^T. The axis is a
// mechanism constant; only the angle carries derivatives.
func AxisAngle[T scalar.Scalar[T]](axis [3]float64, angle T) Mat3[T] {
	s := angle.Sin()
	c := angle.Cos()
	vc := angle.Lift(1).Sub(c)
	skew := [3][3]float64{
		{0, -axis[2], axis[1]},
		{axis[2], 0, -axis[0]},
		{-axis[1], axis[0], 0},
	}
	var out Mat3[T]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			e := s.Scale(skew[i][j]).Add(vc.Scale(axis[i] * axis[j]))
			if i == j {
				e = e.Add(c)
			}
			out[i][j] = e
		}
	}
	return out
}

// MulVecConst applies a constant float64 matrix to a generic vector.
func MulVecConst[T scalar.Scalar[T]](m [3][3]float64, v Vec3[T]) Vec3[T] {
	return Vec3[T]{
		X: v.X.Scale(m[0][0]).Add(v.Y.Scale(m[0][1])).Add(v.Z.Scale(m[0][2])),
		Y: v.X.Scale(m[1][0]).Add(v.Y.Scale(m[1][1])).Add(v.Z.Scale(m[1][2])),
		Z: v.X.Scale(m[2][0]).Add(v.Y.Scale(m[2][1])).Add(v.Z.Scale(m[2][2])),
	}
}

// Transform is a rigid transform: rotation followed by translation.
type Transform[T scalar.Scalar[T]] struct {
	Rot   Mat3[T]
	Trans Vec3[T]
}

// Compose returns the transform equivalent to applying o first, then t.
func (t Transform[T]) Compose(o Transform[T]) Transform[T] {
	return Transform[T]{
		Rot:   t.Rot.Mul(o.Rot),
		Trans: t.Trans.Add(t.Rot.MulVec(o.Trans)),
	}
}

// Apply maps a point through the transform.
func (t Transform[T]) Apply(p Vec3[T]) Vec3[T] {
	return t.Trans.Add(t.Rot.MulVec(p))
}

// Momentum is a world-frame spatial momentum: angular momentum about
// the world origin paired with linear momentum.
type Momentum[T scalar.Scalar[T]] struct {
	Angular Vec3[T]
	Linear  Vec3[T]
}

func (m Momentum[T]) Add(o Momentum[T]) Momentum[T] {
	return Momentum[T]{
		Angular: m.Angular.Add(o.Angular),
		Linear:  m.Linear.Add(o.Linear),
	}
}
