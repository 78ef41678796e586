package scalar

import "math"

// Scalar is the arithmetic capability set the mechanics code is written
// against. Any element type providing these operations can flow through
// kinematics and energy computations unchanged: plain floats for
// evaluation, dual numbers for forward-mode differentiation.
//
// Lift produces a constant with the same derivative shape as the
// receiver; Zero is shorthand for Lift(0).
type Scalar[T any] interface {
	Add(T) T
	Sub(T) T
	Mul(T) T
	Neg() T
	Scale(c float64) T
	Sin() T
	Cos() T
	Lift(c float64) T
	Zero() T
	Float() float64
}

// Real is a plain float64 element type.
type Real float64

func (r Real) Add(o Real) Real      { return r + o }
func (r Real) Sub(o Real) Real      { return r - o }
func (r Real) Mul(o Real) Real      { return r * o }
func (r Real) Neg() Real            { return -r }
func (r Real) Scale(c float64) Real { return r * Real(c) }
func (r Real) Sin() Real            { return Real(math.Sin(float64(r))) }
func (r Real) Cos() Real            { return Real(math.Cos(float64(r))) }
func (r Real) Lift(c float64) Real  { return Real(c) }
func (r Real) Zero() Real           { return 0 }
func (r Real) Float() float64       { return float64(r) }

// Reals converts a float64 slice to Real elements.
func Reals(xs []float64) []Real {
	out := make([]Real, len(xs))
	for i, x := range xs {
		out[i] = Real(x)
	}
	return out
}

// Floats converts a Real slice back to float64.
func Floats(xs []Real) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
