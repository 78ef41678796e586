// Package mech implements serial-chain rigid-body mechanisms and their
// simulation state. All kinematic and energetic quantities are written
// against the scalar capability set, so a state can be instantiated
// with plain floats or with dual numbers and the same code computes
// values or derivatives.
package mech

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSingularMass indicates the joint-space mass matrix could not
	// be factorized.
	ErrSingularMass = errors.New("mech: mass matrix is singular")
)

// Inertia describes a body's mass distribution in its own frame.
type Inertia struct {
	Mass   float64
	COM    [3]float64    // center of mass, body frame
	Moment [3][3]float64 // rotational inertia about the COM, body frame
}

// Joint is a revolute joint connecting a body to its parent. Offset is
// the fixed translation from the parent joint frame to this joint
// frame, expressed in the parent body frame. Axis is the unit rotation
// axis in the body frame.
type Joint struct {
	Axis   [3]float64
	Offset [3]float64
}

// Body pairs a joint with the inertia of the link it carries.
type Body struct {
	Name    string
	Joint   Joint
	Inertia Inertia
}

// Mechanism is an immutable serial chain of bodies hanging from the
// world frame. Body i's parent is body i-1; body 0 attaches to the
// world.
type Mechanism struct {
	bodies  []Body
	gravity [3]float64 // gravitational acceleration, world frame
}

// NewChain builds a serial-chain mechanism. Joint axes are normalized;
// a body with a zero axis or non-positive mass is rejected.
func NewChain(gravity [3]float64, bodies ...Body) (*Mechanism, error) {
	if len(bodies) == 0 {
		return nil, errors.New("mech: chain needs at least one body")
	}
	own := make([]Body, len(bodies))
	copy(own, bodies)
	for i := range own {
		a := own[i].Joint.Axis
		norm := math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
		if norm == 0 {
			return nil, fmt.Errorf("mech: body %d has zero joint axis", i)
		}
		for k := range a {
			own[i].Joint.Axis[k] = a[k] / norm
		}
		if own[i].Inertia.Mass <= 0 {
			return nil, fmt.Errorf("mech: body %d has non-positive mass", i)
		}
	}
	return &Mechanism{bodies: own, gravity: gravity}, nil
}

// NumBodies returns the number of links in the chain.
func (m *Mechanism) NumBodies() int { return len(m.bodies) }

// NumPositions returns the configuration dimension (one per revolute
// joint).
func (m *Mechanism) NumPositions() int { return len(m.bodies) }

// NumVelocities returns the velocity dimension.
func (m *Mechanism) NumVelocities() int { return len(m.bodies) }

// Gravity returns the gravitational acceleration vector.
func (m *Mechanism) Gravity() [3]float64 { return m.gravity }

// Bodies returns the chain's bodies, root first.
func (m *Mechanism) Bodies() []Body { return m.bodies }

// DoublePendulumParams holds the physical parameters of a planar
// two-link pendulum rotating about the +Y axis, links hanging along -Z
// at zero configuration. The second joint coordinate is relative to
// the first link.
type DoublePendulumParams struct {
	M1, M2   float64 // link masses
	L1, L2   float64 // link lengths
	LC1, LC2 float64 // distance from joint to link COM
	I1, I2   float64 // rotational inertia about the COM, joint axis
	Gravity  float64
}

// DefaultDoublePendulumParams returns unit rods with distributed mass.
func DefaultDoublePendulumParams() DoublePendulumParams {
	return DoublePendulumParams{
		M1: 1.0, M2: 1.0,
		L1: 1.0, L2: 1.0,
		LC1: 0.5, LC2: 0.5,
		I1: 1.0 / 12.0, I2: 1.0 / 12.0,
		Gravity: 9.81,
	}
}

// PointMassDoublePendulumParams concentrates each link's mass at its
// tip, the textbook idealization with closed-form energies.
func PointMassDoublePendulumParams() DoublePendulumParams {
	return DoublePendulumParams{
		M1: 1.0, M2: 1.0,
		L1: 1.0, L2: 1.0,
		LC1: 1.0, LC2: 1.0,
		I1: 0, I2: 0,
		Gravity: 9.81,
	}
}

// DoublePendulum builds the two-link mechanism for the given
// parameters.
func DoublePendulum(p DoublePendulumParams) *Mechanism {
	axis := [3]float64{0, 1, 0}
	m, err := NewChain(
		[3]float64{0, 0, -p.Gravity},
		Body{
			Name:  "upper_link",
			Joint: Joint{Axis: axis},
			Inertia: Inertia{
				Mass:   p.M1,
				COM:    [3]float64{0, 0, -p.LC1},
				Moment: diagMoment(p.I1),
			},
		},
		Body{
			Name:  "lower_link",
			Joint: Joint{Axis: axis, Offset: [3]float64{0, 0, -p.L1}},
			Inertia: Inertia{
				Mass:   p.M2,
				COM:    [3]float64{0, 0, -p.LC2},
				Moment: diagMoment(p.I2),
			},
		},
	)
	if err != nil {
		// The builder only rejects degenerate parameters; the fixed
		// topology above cannot trigger it.
		panic(err)
	}
	return m
}

func diagMoment(iy float64) [3][3]float64 {
	// A slender link along -Z: the moment about the rotation axis
	// carries the physics, the perpendicular in-plane moment matches
	// it, the axial moment is negligible.
	return [3][3]float64{
		{iy, 0, 0},
		{0, iy, 0},
		{0, 0, 0},
	}
}
