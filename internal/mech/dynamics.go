package mech

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"mechdiff/internal/scalar"
	"mechdiff/internal/spatial"
)

// InverseDynamics computes the joint torques that realize the given
// joint accelerations at the given configuration and velocity,
// gravity included (recursive Newton-Euler over the chain).
func (m *Mechanism) InverseDynamics(q, v, a []float64) ([]float64, error) {
	n := len(m.bodies)
	if len(q) != n || len(v) != n || len(a) != n {
		return nil, fmt.Errorf("mech: inverse dynamics wants %d coordinates, got q=%d v=%d a=%d", n, len(q), len(v), len(a))
	}

	var w scalar.Real
	zero := spatial.LiftVec3(w, 0, 0, 0)
	g := m.gravity

	rot := make([]spatial.Mat3[scalar.Real], n)
	pos := make([]spatial.Vec3[scalar.Real], n)
	axis := make([]spatial.Vec3[scalar.Real], n)
	omega := make([]spatial.Vec3[scalar.Real], n)
	alpha := make([]spatial.Vec3[scalar.Real], n)
	comR := make([]spatial.Vec3[scalar.Real], n)
	comAcc := make([]spatial.Vec3[scalar.Real], n)
	jointAcc := make([]spatial.Vec3[scalar.Real], n)

	// Outward pass. Accelerating the base by -g folds gravity into the
	// inertial forces.
	for i := range m.bodies {
		b := &m.bodies[i]

		parentRot := spatial.Identity(w)
		parentPos := zero
		parentOmega := zero
		parentAlpha := zero
		parentAcc := spatial.LiftVec3(w, -g[0], -g[1], -g[2])
		if i > 0 {
			parentRot = rot[i-1]
			parentPos = pos[i-1]
			parentOmega = omega[i-1]
			parentAlpha = alpha[i-1]
			parentAcc = jointAcc[i-1]
		}

		d := parentRot.MulVec(spatial.LiftVec3(w, b.Joint.Offset[0], b.Joint.Offset[1], b.Joint.Offset[2]))

		rot[i] = parentRot.Mul(spatial.AxisAngle(b.Joint.Axis, scalar.Real(q[i])))
		pos[i] = parentPos.Add(d)
		axis[i] = rot[i].MulVec(spatial.LiftVec3(w, b.Joint.Axis[0], b.Joint.Axis[1], b.Joint.Axis[2]))
		omega[i] = parentOmega.Add(axis[i].Scale(scalar.Real(v[i])))
		alpha[i] = parentAlpha.
			Add(axis[i].Scale(scalar.Real(a[i]))).
			Add(parentOmega.Cross(axis[i]).Scale(scalar.Real(v[i])))
		jointAcc[i] = parentAcc.
			Add(parentAlpha.Cross(d)).
			Add(parentOmega.Cross(parentOmega.Cross(d)))

		r := rot[i].MulVec(spatial.LiftVec3(w, b.Inertia.COM[0], b.Inertia.COM[1], b.Inertia.COM[2]))
		comR[i] = r
		comAcc[i] = jointAcc[i].
			Add(alpha[i].Cross(r)).
			Add(omega[i].Cross(omega[i].Cross(r)))
	}

	// Inward pass: accumulate forces and torques toward the base.
	tau := make([]float64, n)
	childForce := zero
	childTorque := zero
	for i := n - 1; i >= 0; i-- {
		b := &m.bodies[i]

		force := comAcc[i].ScaleFloat(b.Inertia.Mass)
		iw := rotatedInertiaMul(rot[i], b.Inertia.Moment, omega[i])
		torque := rotatedInertiaMul(rot[i], b.Inertia.Moment, alpha[i]).
			Add(omega[i].Cross(iw))

		// Torque about this joint's origin: own inertial wrench plus
		// the child's, shifted from the child joint.
		about := torque.Add(comR[i].Cross(force)).Add(childTorque)
		if i < n-1 {
			about = about.Add(pos[i+1].Sub(pos[i]).Cross(childForce))
		}
		total := force.Add(childForce)

		tau[i] = axis[i].Dot(about).Float()
		childForce = total
		childTorque = about
	}
	return tau, nil
}

// rotatedInertiaMul computes R I R^T w without materializing the
// rotated inertia tensor.
func rotatedInertiaMul[T scalar.Scalar[T]](rot spatial.Mat3[T], moment [3][3]float64, w spatial.Vec3[T]) spatial.Vec3[T] {
	local := rot.TransposeMulVec(w)
	return rot.MulVec(spatial.MulVecConst(moment, local))
}

// MassMatrix computes the joint-space mass matrix at q by unit
// acceleration columns of the inverse dynamics.
func (m *Mechanism) MassMatrix(q []float64) (*mat.SymDense, error) {
	n := len(m.bodies)
	zero := make([]float64, n)

	base, err := m.InverseDynamics(q, zero, zero)
	if err != nil {
		return nil, err
	}

	full := mat.NewDense(n, n, nil)
	unit := make([]float64, n)
	for j := 0; j < n; j++ {
		unit[j] = 1
		col, err := m.InverseDynamics(q, zero, unit)
		if err != nil {
			return nil, err
		}
		unit[j] = 0
		for i := 0; i < n; i++ {
			full.Set(i, j, col[i]-base[i])
		}
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, 0.5*(full.At(i, j)+full.At(j, i)))
		}
	}
	return sym, nil
}

// BiasForces computes the velocity-dependent and gravitational joint
// torques at (q, v).
func (m *Mechanism) BiasForces(q, v []float64) ([]float64, error) {
	return m.InverseDynamics(q, v, make([]float64, len(m.bodies)))
}

// PassiveAccelerations solves the passive equations of motion
// M(q) a = -c(q, v) for the joint accelerations.
func (m *Mechanism) PassiveAccelerations(q, v []float64) ([]float64, error) {
	n := len(m.bodies)
	massMat, err := m.MassMatrix(q)
	if err != nil {
		return nil, err
	}
	bias, err := m.BiasForces(q, v)
	if err != nil {
		return nil, err
	}

	var chol mat.Cholesky
	if !chol.Factorize(massMat) {
		return nil, ErrSingularMass
	}

	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, -bias[i])
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, rhs); err != nil {
		return nil, fmt.Errorf("mech: solving passive dynamics: %w", err)
	}

	acc := make([]float64, n)
	copy(acc, sol.RawVector().Data)
	return acc, nil
}

// MomentumMatrix computes the momentum map A(q): the 6 x nv matrix
// mapping joint velocity to world-frame spatial momentum (angular rows
// first). Momentum is linear in velocity, so the columns are exact
// unit-velocity evaluations.
func MomentumMatrix(m *Mechanism, q []float64) *mat.Dense {
	n := m.NumVelocities()
	st := NewState[scalar.Real](m)
	st.SetConfigurationFloats(q)

	a := mat.NewDense(6, n, nil)
	unit := make([]float64, n)
	for j := 0; j < n; j++ {
		unit[j] = 1
		st.SetVelocityFloats(unit)
		unit[j] = 0

		h := st.Momentum()
		a.Set(0, j, h.Angular.X.Float())
		a.Set(1, j, h.Angular.Y.Float())
		a.Set(2, j, h.Angular.Z.Float())
		a.Set(3, j, h.Linear.X.Float())
		a.Set(4, j, h.Linear.Y.Float())
		a.Set(5, j, h.Linear.Z.Float())
	}
	return a
}
