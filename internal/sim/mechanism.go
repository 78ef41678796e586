package sim

import (
	"math"

	"mechdiff/internal/observe"
	"mechdiff/internal/statecache"
)

// MechanismSystem adapts a mechanism behind a typed-state cache to the
// System interface. The packed state is [q; v]; the dynamics are
// passive (no applied torques).
//
// The adapter borrows the cache's states during Derive and Energy, so
// it inherits the cache's single-goroutine contract.
type MechanismSystem struct {
	cache *statecache.Cache
}

func NewMechanismSystem(c *statecache.Cache) *MechanismSystem {
	return &MechanismSystem{cache: c}
}

func (m *MechanismSystem) Dim() int {
	return m.cache.Mechanism().NumPositions() + m.cache.Mechanism().NumVelocities()
}

func (m *MechanismSystem) Derive(x State, t float64) State {
	n := m.cache.Mechanism().NumPositions()
	q, v := x[:n], x[n:]

	acc, err := m.cache.Mechanism().PassiveAccelerations(q, v)
	if err != nil {
		// Poison the state; the simulator's validity check stops the run.
		bad := make(State, len(x))
		for i := range bad {
			bad[i] = math.NaN()
		}
		return bad
	}

	dx := make(State, len(x))
	copy(dx[:n], v)
	copy(dx[n:], acc)
	return dx
}

func (m *MechanismSystem) Energy(x State) float64 {
	n := m.cache.Mechanism().NumPositions()
	e, err := observe.TotalEnergyFloat(m.cache, x[:n], x[n:])
	if err != nil {
		return math.NaN()
	}
	return e
}
