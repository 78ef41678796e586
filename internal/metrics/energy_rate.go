package metrics

import (
	"math"

	"mechdiff/internal/observe"
	"mechdiff/internal/sim"
	"mechdiff/internal/statecache"
)

// EnergyRate tracks the worst |dE/dt| seen along a trajectory, with
// the rate obtained by dual-number propagation through the energy
// observable. For passive dynamics this measures how far the computed
// flow is from exactly conservative.
type EnergyRate struct {
	name    string
	cache   *statecache.Cache
	maxRate float64
	failed  bool
}

func NewEnergyRate(c *statecache.Cache) *EnergyRate {
	return &EnergyRate{
		name:  "energy_rate",
		cache: c,
	}
}

func (e *EnergyRate) Name() string { return e.name }

func (e *EnergyRate) Observe(x sim.State, t float64) {
	n := e.cache.Mechanism().NumPositions()
	rate, err := observe.EnergyRate(e.cache, x[:n], x[n:])
	if err != nil {
		e.failed = true
		return
	}
	e.maxRate = math.Max(e.maxRate, math.Abs(rate))
}

func (e *EnergyRate) Value() float64 {
	if e.failed {
		return math.NaN()
	}
	return e.maxRate
}

func (e *EnergyRate) Reset() {
	e.maxRate = 0
	e.failed = false
}
