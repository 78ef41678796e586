package metrics

import (
	"math"
	"testing"

	"mechdiff/internal/mech"
	"mechdiff/internal/sim"
	"mechdiff/internal/statecache"
)

func TestEnergyDriftTracksDeviation(t *testing.T) {
	c := statecache.New(mech.DoublePendulum(mech.DefaultDoublePendulumParams()))
	dyn := sim.NewMechanismSystem(c)

	m := NewEnergyDrift(dyn)

	x := sim.State{0.5, 0.5, 0, 0}
	m.Observe(x, 0)
	if m.Value() != 0 {
		t.Errorf("expected zero drift after first sample, got %g", m.Value())
	}

	// Same state again: no drift.
	m.Observe(x, 0.01)
	if m.Value() > 1e-15 {
		t.Errorf("expected no drift for identical state, got %g", m.Value())
	}

	// A faster state has more energy.
	m.Observe(sim.State{0.5, 0.5, 2.0, 0}, 0.02)
	if m.Value() == 0 {
		t.Error("expected drift for perturbed state")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected zero after reset, got %g", m.Value())
	}
}

func TestEnergyRateSmallAlongPassiveStates(t *testing.T) {
	c := statecache.New(mech.DoublePendulum(mech.DefaultDoublePendulumParams()))
	m := NewEnergyRate(c)

	for _, x := range []sim.State{
		{0.1, 0.1, 0, 0},
		{0.9, -0.4, 0.5, 0.2},
		{2.0, 1.0, -0.3, 0.8},
	} {
		m.Observe(x, 0)
	}

	if math.IsNaN(m.Value()) {
		t.Fatal("energy rate metric failed")
	}
	if m.Value() > 1e-12 {
		t.Errorf("expected near-zero passive energy rate, got %g", m.Value())
	}
}
