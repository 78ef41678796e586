// Package dual implements vector-mode forward differentiation numbers:
// a value paired with a slice of partial derivatives. Propagating them
// through arithmetic written against [scalar.Scalar] yields all columns
// of a Jacobian in a single sweep.
package dual

import "math"

// Number is a dual number carrying one value and zero or more partial
// derivative components. A Number with no partials behaves as a
// constant of any width; binary operations merge partial slices of
// different lengths by treating missing components as zero.
type Number struct {
	re  float64
	eps []float64
}

// Variable returns the i-th of n independent variables with value v:
// its partial slice is the i-th unit vector.
func Variable(v float64, i, n int) Number {
	eps := make([]float64, n)
	eps[i] = 1
	return Number{re: v, eps: eps}
}

// Constant returns a dual with value v and no partials.
func Constant(v float64) Number {
	return Number{re: v}
}

// Seed returns a dual with value v and the given partial components.
// The slice is used directly, not copied.
func Seed(v float64, eps []float64) Number {
	return Number{re: v, eps: eps}
}

// Value returns the real part.
func (a Number) Value() float64 { return a.re }

// Partials returns the partial derivative components. The slice may be
// shorter than the sweep width; missing components are zero.
func (a Number) Partials() []float64 { return a.eps }

// Partial returns the i-th partial, or zero if i is beyond the stored
// components.
func (a Number) Partial(i int) float64 {
	if i < len(a.eps) {
		return a.eps[i]
	}
	return 0
}

func (a Number) at(i int) float64 {
	if i < len(a.eps) {
		return a.eps[i]
	}
	return 0
}

func width(a, b Number) int {
	if len(a.eps) > len(b.eps) {
		return len(a.eps)
	}
	return len(b.eps)
}

func (a Number) Add(b Number) Number {
	n := width(a, b)
	if n == 0 {
		return Number{re: a.re + b.re}
	}
	eps := make([]float64, n)
	for i := range eps {
		eps[i] = a.at(i) + b.at(i)
	}
	return Number{re: a.re + b.re, eps: eps}
}

func (a Number) Sub(b Number) Number {
	n := width(a, b)
	if n == 0 {
		return Number{re: a.re - b.re}
	}
	eps := make([]float64, n)
	for i := range eps {
		eps[i] = a.at(i) - b.at(i)
	}
	return Number{re: a.re - b.re, eps: eps}
}

func (a Number) Mul(b Number) Number {
	n := width(a, b)
	if n == 0 {
		return Number{re: a.re * b.re}
	}
	eps := make([]float64, n)
	for i := range eps {
		eps[i] = a.re*b.at(i) + b.re*a.at(i)
	}
	return Number{re: a.re * b.re, eps: eps}
}

func (a Number) Neg() Number {
	if len(a.eps) == 0 {
		return Number{re: -a.re}
	}
	eps := make([]float64, len(a.eps))
	for i, e := range a.eps {
		eps[i] = -e
	}
	return Number{re: -a.re, eps: eps}
}

func (a Number) Scale(c float64) Number {
	if len(a.eps) == 0 {
		return Number{re: c * a.re}
	}
	eps := make([]float64, len(a.eps))
	for i, e := range a.eps {
		eps[i] = c * e
	}
	return Number{re: c * a.re, eps: eps}
}

func (a Number) Sin() Number {
	s, c := math.Sincos(a.re)
	if len(a.eps) == 0 {
		return Number{re: s}
	}
	eps := make([]float64, len(a.eps))
	for i, e := range a.eps {
		eps[i] = c * e
	}
	return Number{re: s, eps: eps}
}

func (a Number) Cos() Number {
	s, c := math.Sincos(a.re)
	if len(a.eps) == 0 {
		return Number{re: c}
	}
	eps := make([]float64, len(a.eps))
	for i, e := range a.eps {
		eps[i] = -s * e
	}
	return Number{re: c, eps: eps}
}

func (a Number) Lift(c float64) Number { return Number{re: c} }

func (a Number) Zero() Number { return Number{} }

func (a Number) Float() float64 { return a.re }
