// Package observe provides differentiable physical observables over a
// typed-state cache: each function fetches the cached state for its
// element type, writes the input into it, and reads a derived quantity
// back out. The same generic body serves plain evaluation and
// dual-number differentiation.
package observe

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"mechdiff/internal/dual"
	"mechdiff/internal/fwd"
	"mechdiff/internal/scalar"
	"mechdiff/internal/statecache"
)

// ErrDimension indicates an input or output buffer that does not match
// the cache's mechanism.
var ErrDimension = errors.New("observe: dimension mismatch")

// MomentumDim is the length of a spatial momentum vector: three
// angular components followed by three linear ones.
const MomentumDim = 6

// Momentum writes the mechanism's world-frame spatial momentum at
// configuration q and velocity v into dst. The configuration is held
// fixed as derivative-free constants; only v carries the element type.
func Momentum[T scalar.Scalar[T]](c *statecache.Cache, q []float64, v, dst []T) error {
	if len(q) != c.Mechanism().NumPositions() {
		return fmt.Errorf("%w: configuration has %d elements, mechanism wants %d", ErrDimension, len(q), c.Mechanism().NumPositions())
	}
	if len(v) != c.Mechanism().NumVelocities() {
		return fmt.Errorf("%w: velocity has %d elements, mechanism wants %d", ErrDimension, len(v), c.Mechanism().NumVelocities())
	}
	if len(dst) != MomentumDim {
		return fmt.Errorf("%w: momentum output has %d elements, want %d", ErrDimension, len(dst), MomentumDim)
	}

	st := statecache.For[T](c)
	st.SetConfigurationFloats(q)
	st.SetVelocity(v)

	h := st.Momentum()
	dst[0], dst[1], dst[2] = h.Angular.X, h.Angular.Y, h.Angular.Z
	dst[3], dst[4], dst[5] = h.Linear.X, h.Linear.Y, h.Linear.Z
	return nil
}

// TotalEnergy returns the mechanism's total mechanical energy at
// (q, v), generic in both arguments.
func TotalEnergy[T scalar.Scalar[T]](c *statecache.Cache, q, v []T) (T, error) {
	var zero T
	if len(q) != c.Mechanism().NumPositions() || len(v) != c.Mechanism().NumVelocities() {
		return zero, fmt.Errorf("%w: got q=%d v=%d, mechanism wants q=%d v=%d",
			ErrDimension, len(q), len(v), c.Mechanism().NumPositions(), c.Mechanism().NumVelocities())
	}

	st := statecache.For[T](c)
	st.SetConfiguration(q)
	st.SetVelocity(v)
	return st.TotalEnergy(), nil
}

// MomentumFloats evaluates the momentum observable at float64 inputs.
func MomentumFloats(c *statecache.Cache, q, v []float64) ([]float64, error) {
	dst := make([]scalar.Real, MomentumDim)
	if err := Momentum(c, q, scalar.Reals(v), dst); err != nil {
		return nil, err
	}
	return scalar.Floats(dst), nil
}

// TotalEnergyFloat evaluates the energy observable at float64 inputs.
func TotalEnergyFloat(c *statecache.Cache, q, v []float64) (float64, error) {
	e, err := TotalEnergy(c, scalar.Reals(q), scalar.Reals(v))
	if err != nil {
		return 0, err
	}
	return e.Float(), nil
}

// MomentumJacobian differentiates the momentum observable with respect
// to velocity at fixed configuration. For a mechanism this equals the
// momentum map A(q): momentum is linear in velocity.
func MomentumJacobian(c *statecache.Cache, q, v []float64) (*mat.Dense, error) {
	f := func(dst, x []dual.Number) error {
		return Momentum(c, q, x, dst)
	}
	return fwd.Jacobian(f, MomentumDim, v)
}

// MomentumJacobianTo is the buffer-reusing form of MomentumJacobian.
func MomentumJacobianTo(dst *mat.Dense, cfg *fwd.Config, c *statecache.Cache, q, v []float64) error {
	f := func(out, x []dual.Number) error {
		return Momentum(c, q, x, out)
	}
	return fwd.JacobianTo(dst, cfg, f, v)
}

// EnergyGradient differentiates total energy with respect to the
// stacked state [q; v].
func EnergyGradient(c *statecache.Cache, q, v []float64) ([]float64, error) {
	nq := len(q)
	f := func(x []dual.Number) (dual.Number, error) {
		return TotalEnergy(c, x[:nq], x[nq:])
	}
	return fwd.Gradient(f, stack(q, v))
}

// EnergyRate computes dE/dt along the mechanism's passive flow by
// propagating dual numbers seeded with (qdot, vdot) through the energy
// observable. For non-dissipative dynamics this is zero up to
// numerical error.
func EnergyRate(c *statecache.Cache, q, v []float64) (float64, error) {
	vdot, err := c.Mechanism().PassiveAccelerations(q, v)
	if err != nil {
		return 0, err
	}
	nq := len(q)
	f := func(x []dual.Number) (dual.Number, error) {
		return TotalEnergy(c, x[:nq], x[nq:])
	}
	return fwd.Directional(f, stack(q, v), stack(v, vdot))
}

func stack(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
