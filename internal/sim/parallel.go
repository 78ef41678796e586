package sim

import (
	"context"
	"sync"
)

// Ensemble runs a batch of simulations from different initial states
// in parallel. Because simulators and the mechanism states behind them
// are single-goroutine resources, the ensemble builds a fresh
// simulator per run through the factory instead of sharing one.
type Ensemble struct {
	factory func() *Simulator
}

func NewEnsemble(factory func() *Simulator) *Ensemble {
	return &Ensemble{factory: factory}
}

func (e *Ensemble) Run(ctx context.Context, inits []State, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(inits))
	errs := make([]error, len(inits))

	var wg sync.WaitGroup
	for i := range inits {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sim := e.factory()
			results[idx], errs[idx] = sim.Run(ctx, inits[idx], cfg)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
