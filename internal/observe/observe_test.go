package observe

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"mechdiff/internal/fwd"
	"mechdiff/internal/mech"
	"mechdiff/internal/scalar"
	"mechdiff/internal/statecache"
)

func newCache() *statecache.Cache {
	return statecache.New(mech.DoublePendulum(mech.DefaultDoublePendulumParams()))
}

func TestCachedMomentumMatchesDirect(t *testing.T) {
	c := newCache()
	q := []float64{0.9, -0.3}
	v := []float64{1.1, 0.7}

	viaCache, err := MomentumFloats(c, q, v)
	if err != nil {
		t.Fatalf("momentum failed: %v", err)
	}

	// Direct evaluation on a freshly constructed state, no cache.
	st := mech.NewState[scalar.Real](c.Mechanism())
	st.SetConfigurationFloats(q)
	st.SetVelocityFloats(v)
	h := st.Momentum()
	direct := []float64{
		h.Angular.X.Float(), h.Angular.Y.Float(), h.Angular.Z.Float(),
		h.Linear.X.Float(), h.Linear.Y.Float(), h.Linear.Z.Float(),
	}

	for i := range direct {
		if math.Abs(viaCache[i]-direct[i]) > 1e-12 {
			t.Errorf("component %d: cached %.15f, direct %.15f", i, viaCache[i], direct[i])
		}
	}
}

func TestMomentumJacobianMatchesMomentumMap(t *testing.T) {
	c := newCache()
	cases := []struct {
		q, v []float64
	}{
		{[]float64{0, 0}, []float64{0, 0}},
		{[]float64{0.5, 1.2}, []float64{0.3, -0.8}},
		{[]float64{-1.7, 0.4}, []float64{5.0, 2.5}},
		{[]float64{math.Pi / 3, -math.Pi / 5}, []float64{-0.1, 0.9}},
	}

	for _, tc := range cases {
		j, err := MomentumJacobian(c, tc.q, tc.v)
		if err != nil {
			t.Fatalf("jacobian at %v failed: %v", tc.q, err)
		}
		a := mech.MomentumMatrix(c.Mechanism(), tc.q)

		r, cols := j.Dims()
		if r != 6 || cols != 2 {
			t.Fatalf("expected 6x2 jacobian, got %dx%d", r, cols)
		}
		for i := 0; i < r; i++ {
			for k := 0; k < cols; k++ {
				if math.Abs(j.At(i, k)-a.At(i, k)) > 1e-12 {
					t.Errorf("q=%v: J[%d][%d] = %.15f, momentum map %.15f",
						tc.q, i, k, j.At(i, k), a.At(i, k))
				}
			}
		}
	}
}

func TestMomentumJacobianIndependentOfVelocity(t *testing.T) {
	c := newCache()
	q := []float64{0.8, -0.2}

	j1, err := MomentumJacobian(c, q, []float64{0, 0})
	if err != nil {
		t.Fatalf("jacobian failed: %v", err)
	}
	j2, err := MomentumJacobian(c, q, []float64{4.2, -3.1})
	if err != nil {
		t.Fatalf("jacobian failed: %v", err)
	}

	for i := 0; i < 6; i++ {
		for k := 0; k < 2; k++ {
			if math.Abs(j1.At(i, k)-j2.At(i, k)) > 1e-12 {
				t.Errorf("J[%d][%d] depends on velocity: %.15f vs %.15f",
					i, k, j1.At(i, k), j2.At(i, k))
			}
		}
	}
}

func TestMomentumJacobianToReusesBuffers(t *testing.T) {
	c := newCache()
	dst := mat.NewDense(6, 2, nil)
	cfg := fwd.NewConfig(6, 2)

	for _, q := range [][]float64{{0.1, 0.2}, {1.0, -1.0}, {2.2, 0.6}} {
		if err := MomentumJacobianTo(dst, cfg, c, q, []float64{0.5, 0.5}); err != nil {
			t.Fatalf("jacobian at %v failed: %v", q, err)
		}
		a := mech.MomentumMatrix(c.Mechanism(), q)
		for i := 0; i < 6; i++ {
			for k := 0; k < 2; k++ {
				if math.Abs(dst.At(i, k)-a.At(i, k)) > 1e-12 {
					t.Errorf("q=%v: J[%d][%d] = %.15f, want %.15f", q, i, k, dst.At(i, k), a.At(i, k))
				}
			}
		}

		// A plain evaluation between dual sweeps must coexist with the
		// dual state without disturbing it.
		if _, err := MomentumFloats(c, q, []float64{0.5, 0.5}); err != nil {
			t.Fatalf("momentum at %v failed: %v", q, err)
		}
	}

	if c.Len() != 2 {
		t.Errorf("expected cache to hold 2 element types, got %d", c.Len())
	}
}

func TestEnergyRateZeroForPassiveDynamics(t *testing.T) {
	c := newCache()
	states := []struct {
		q, v []float64
	}{
		{[]float64{0.1, 0.1}, []float64{0, 0}},
		{[]float64{0.7, -0.5}, []float64{0.2, 0.4}},
		{[]float64{2.5, 1.0}, []float64{-0.6, 0.3}},
		{[]float64{-1.2, 2.1}, []float64{1.0, -1.0}},
	}

	for _, s := range states {
		rate, err := EnergyRate(c, s.q, s.v)
		if err != nil {
			t.Fatalf("energy rate at %v failed: %v", s.q, err)
		}
		if math.Abs(rate) > 1e-12 {
			t.Errorf("q=%v v=%v: dE/dt = %g, want 0", s.q, s.v, rate)
		}
	}

	// Near the hanging equilibrium the roundoff floor is far below the
	// general bound, so assert the cancellation much more tightly.
	rate, err := EnergyRate(c, []float64{1e-3, -2e-3}, []float64{5e-4, 1e-3})
	if err != nil {
		t.Fatalf("energy rate near equilibrium failed: %v", err)
	}
	if math.Abs(rate) > 1e-14 {
		t.Errorf("near equilibrium: dE/dt = %g, want 0 within 1e-14", rate)
	}
}

func TestEnergyGradientMatchesStaticTorque(t *testing.T) {
	// At zero velocity the configuration gradient of the energy is the
	// gravity holding torque.
	c := newCache()
	q := []float64{0.6, -0.4}
	v := []float64{0, 0}

	grad, err := EnergyGradient(c, q, v)
	if err != nil {
		t.Fatalf("gradient failed: %v", err)
	}
	tau, err := c.Mechanism().InverseDynamics(q, v, []float64{0, 0})
	if err != nil {
		t.Fatalf("inverse dynamics failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if math.Abs(grad[i]-tau[i]) > 1e-12 {
			t.Errorf("dE/dq[%d] = %.15f, holding torque %.15f", i, grad[i], tau[i])
		}
	}
	// Velocity gradient vanishes at v = 0.
	for i := 2; i < 4; i++ {
		if math.Abs(grad[i]) > 1e-12 {
			t.Errorf("dE/dv[%d] = %g, want 0 at rest", i, grad[i])
		}
	}
}

func TestDimensionErrors(t *testing.T) {
	c := newCache()

	if _, err := MomentumFloats(c, []float64{0}, []float64{0, 0}); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension for short configuration, got %v", err)
	}
	if _, err := MomentumFloats(c, []float64{0, 0}, []float64{0}); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension for short velocity, got %v", err)
	}

	dst := make([]scalar.Real, 3)
	err := Momentum(c, []float64{0, 0}, scalar.Reals([]float64{0, 0}), dst)
	if !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension for short output, got %v", err)
	}
}
