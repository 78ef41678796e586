// Package fwd drives forward-mode differentiation of vector functions
// written over dual numbers: seed the inputs, evaluate once, read the
// Jacobian out of the output partials.
package fwd

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"mechdiff/internal/dual"
)

// ErrDimension indicates a mismatch between a function's dimensions and
// the buffers provided for its Jacobian.
var ErrDimension = errors.New("fwd: dimension mismatch")

// VectorFunc evaluates a vector function over dual numbers, writing the
// outputs into dst. Implementations report their own failures; the
// driver propagates them unchanged.
type VectorFunc func(dst, x []dual.Number) error

// Config carries the reusable seed and output buffers for repeated
// Jacobian evaluations of one function shape.
type Config struct {
	in  []dual.Number
	out []dual.Number
}

// NewConfig allocates scratch for a function with m outputs and n
// inputs.
func NewConfig(m, n int) *Config {
	return &Config{
		in:  make([]dual.Number, n),
		out: make([]dual.Number, m),
	}
}

// Jacobian evaluates f at x and returns its m x len(x) Jacobian in a
// freshly allocated matrix.
func Jacobian(f VectorFunc, m int, x []float64) (*mat.Dense, error) {
	dst := mat.NewDense(m, len(x), nil)
	if err := JacobianTo(dst, NewConfig(m, len(x)), f, x); err != nil {
		return nil, err
	}
	return dst, nil
}

// JacobianTo evaluates f at x and writes its Jacobian into dst, using
// cfg's buffers for the dual sweep. dst and cfg must match the
// function's dimensions.
func JacobianTo(dst *mat.Dense, cfg *Config, f VectorFunc, x []float64) error {
	m, n := dst.Dims()
	if n != len(x) {
		return fmt.Errorf("%w: jacobian has %d columns, input has %d elements", ErrDimension, n, len(x))
	}
	if len(cfg.in) != n || len(cfg.out) != m {
		return fmt.Errorf("%w: config is %dx%d, jacobian is %dx%d", ErrDimension, len(cfg.out), len(cfg.in), m, n)
	}

	for j := range x {
		cfg.in[j] = dual.Variable(x[j], j, n)
	}
	if err := f(cfg.out, cfg.in); err != nil {
		return err
	}
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			dst.Set(i, j, cfg.out[i].Partial(j))
		}
	}
	return nil
}

// Gradient computes the gradient of a scalar function at x.
func Gradient(f func(x []dual.Number) (dual.Number, error), x []float64) ([]float64, error) {
	in := make([]dual.Number, len(x))
	for j := range x {
		in[j] = dual.Variable(x[j], j, len(x))
	}
	out, err := f(in)
	if err != nil {
		return nil, err
	}
	grad := make([]float64, len(x))
	for j := range grad {
		grad[j] = out.Partial(j)
	}
	return grad, nil
}

// Directional computes the derivative of f at x along dx in a single
// width-one dual sweep; propagating a time derivative through a
// quantity is the dx = dx/dt case.
func Directional(f func(x []dual.Number) (dual.Number, error), x, dx []float64) (float64, error) {
	if len(dx) != len(x) {
		return 0, fmt.Errorf("%w: point has %d elements, direction has %d", ErrDimension, len(x), len(dx))
	}
	in := make([]dual.Number, len(x))
	for j := range x {
		in[j] = dual.Seed(x[j], []float64{dx[j]})
	}
	out, err := f(in)
	if err != nil {
		return 0, err
	}
	return out.Partial(0), nil
}
