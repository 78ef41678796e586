package mech

import (
	"fmt"

	"mechdiff/internal/scalar"
	"mechdiff/internal/spatial"
)

// State is the mutable simulation state of one mechanism, parameterized
// by the scalar element type. Construction allocates the per-body
// kinematic caches; writing the configuration or velocity is cheap and
// invalidates them. Derived quantities recompute the caches on demand.
//
// A State is not safe for concurrent use.
type State[T scalar.Scalar[T]] struct {
	mech *Mechanism

	q []T
	v []T

	// world-frame kinematics, valid when dirty is false
	rot    []spatial.Mat3[T] // body orientation
	origin []spatial.Vec3[T] // joint origin position
	axis   []spatial.Vec3[T] // joint axis
	omega  []spatial.Vec3[T] // body angular velocity
	vel    []spatial.Vec3[T] // joint origin velocity
	com    []spatial.Vec3[T] // body COM position
	comVel []spatial.Vec3[T] // body COM velocity

	dirty bool
}

// NewState allocates a zero-configuration state for the mechanism.
func NewState[T scalar.Scalar[T]](m *Mechanism) *State[T] {
	n := m.NumBodies()
	s := &State[T]{
		mech:   m,
		q:      make([]T, n),
		v:      make([]T, n),
		rot:    make([]spatial.Mat3[T], n),
		origin: make([]spatial.Vec3[T], n),
		axis:   make([]spatial.Vec3[T], n),
		omega:  make([]spatial.Vec3[T], n),
		vel:    make([]spatial.Vec3[T], n),
		com:    make([]spatial.Vec3[T], n),
		comVel: make([]spatial.Vec3[T], n),
		dirty:  true,
	}
	return s
}

// Mechanism returns the mechanism this state belongs to.
func (s *State[T]) Mechanism() *Mechanism { return s.mech }

// SetConfiguration copies q into the state. It panics if the length
// does not match the mechanism's configuration dimension.
func (s *State[T]) SetConfiguration(q []T) {
	if len(q) != len(s.q) {
		panic(fmt.Sprintf("mech: configuration length %d, mechanism has %d", len(q), len(s.q)))
	}
	copy(s.q, q)
	s.dirty = true
}

// SetVelocity copies v into the state. It panics if the length does
// not match the mechanism's velocity dimension.
func (s *State[T]) SetVelocity(v []T) {
	if len(v) != len(s.v) {
		panic(fmt.Sprintf("mech: velocity length %d, mechanism has %d", len(v), len(s.v)))
	}
	copy(s.v, v)
	s.dirty = true
}

// SetConfigurationFloats lifts a float64 configuration into the state's
// element type as derivative-free constants.
func (s *State[T]) SetConfigurationFloats(q []float64) {
	if len(q) != len(s.q) {
		panic(fmt.Sprintf("mech: configuration length %d, mechanism has %d", len(q), len(s.q)))
	}
	for i, x := range q {
		s.q[i] = s.q[i].Lift(x)
	}
	s.dirty = true
}

// SetVelocityFloats lifts a float64 velocity into the state's element
// type as derivative-free constants.
func (s *State[T]) SetVelocityFloats(v []float64) {
	if len(v) != len(s.v) {
		panic(fmt.Sprintf("mech: velocity length %d, mechanism has %d", len(v), len(s.v)))
	}
	for i, x := range v {
		s.v[i] = s.v[i].Lift(x)
	}
	s.dirty = true
}

// Configuration returns the backing configuration slice. Mutating it
// without a subsequent Set call leaves the caches stale.
func (s *State[T]) Configuration() []T { return s.q }

// Velocity returns the backing velocity slice.
func (s *State[T]) Velocity() []T { return s.v }

// updateKinematics runs the outward recursion over the chain, filling
// the world-frame pose and twist caches.
func (s *State[T]) updateKinematics() {
	if !s.dirty {
		return
	}
	bodies := s.mech.bodies
	for i := range bodies {
		b := &bodies[i]
		joint := spatial.AxisAngle(b.Joint.Axis, s.q[i])

		var (
			parentRot   spatial.Mat3[T]
			parentPos   spatial.Vec3[T]
			parentOmega spatial.Vec3[T]
			parentVel   spatial.Vec3[T]
		)
		if i == 0 {
			parentRot = spatial.Identity(s.q[0])
			parentPos = spatial.LiftVec3(s.q[0], 0, 0, 0)
			parentOmega = parentPos
			parentVel = parentPos
		} else {
			parentRot = s.rot[i-1]
			parentPos = s.origin[i-1]
			parentOmega = s.omega[i-1]
			parentVel = s.vel[i-1]
		}

		offset := spatial.LiftVec3(s.q[i], b.Joint.Offset[0], b.Joint.Offset[1], b.Joint.Offset[2])
		d := parentRot.MulVec(offset)

		s.rot[i] = parentRot.Mul(joint)
		s.origin[i] = parentPos.Add(d)
		s.axis[i] = s.rot[i].MulVec(spatial.LiftVec3(s.q[i], b.Joint.Axis[0], b.Joint.Axis[1], b.Joint.Axis[2]))
		s.omega[i] = parentOmega.Add(s.axis[i].Scale(s.v[i]))
		s.vel[i] = parentVel.Add(parentOmega.Cross(d))

		r := s.rot[i].MulVec(spatial.LiftVec3(s.q[i], b.Inertia.COM[0], b.Inertia.COM[1], b.Inertia.COM[2]))
		s.com[i] = s.origin[i].Add(r)
		s.comVel[i] = s.vel[i].Add(s.omega[i].Cross(r))
	}
	s.dirty = false
}

// Momentum returns the total world-frame spatial momentum of the
// mechanism about the world origin: angular momentum first, linear
// momentum second.
func (s *State[T]) Momentum() spatial.Momentum[T] {
	s.updateKinematics()
	zero := spatial.LiftVec3(s.q[0], 0, 0, 0)
	total := spatial.Momentum[T]{Angular: zero, Linear: zero}
	for i := range s.mech.bodies {
		b := &s.mech.bodies[i]
		lin := s.comVel[i].ScaleFloat(b.Inertia.Mass)
		ang := s.rotInertiaMul(i, s.omega[i]).Add(s.com[i].Cross(lin))
		total.Angular = total.Angular.Add(ang)
		total.Linear = total.Linear.Add(lin)
	}
	return total
}

// rotInertiaMul computes R I R^T w for body i without materializing the
// rotated inertia.
func (s *State[T]) rotInertiaMul(i int, w spatial.Vec3[T]) spatial.Vec3[T] {
	local := s.rot[i].TransposeMulVec(w)
	scaled := spatial.MulVecConst(s.mech.bodies[i].Inertia.Moment, local)
	return s.rot[i].MulVec(scaled)
}

// KineticEnergy returns the total kinetic energy.
func (s *State[T]) KineticEnergy() T {
	s.updateKinematics()
	ke := s.q[0].Zero()
	for i := range s.mech.bodies {
		b := &s.mech.bodies[i]
		rotational := s.omega[i].Dot(s.rotInertiaMul(i, s.omega[i]))
		translational := s.comVel[i].Dot(s.comVel[i]).Scale(b.Inertia.Mass)
		ke = ke.Add(rotational.Add(translational).Scale(0.5))
	}
	return ke
}

// PotentialEnergy returns the gravitational potential energy, zero at
// the world origin.
func (s *State[T]) PotentialEnergy() T {
	s.updateKinematics()
	g := s.mech.gravity
	pe := s.q[0].Zero()
	for i := range s.mech.bodies {
		b := &s.mech.bodies[i]
		gdotc := s.com[i].Dot(spatial.LiftVec3(s.q[0], g[0], g[1], g[2]))
		pe = pe.Sub(gdotc.Scale(b.Inertia.Mass))
	}
	return pe
}

// TotalEnergy returns kinetic plus potential energy.
func (s *State[T]) TotalEnergy() T {
	return s.KineticEnergy().Add(s.PotentialEnergy())
}
