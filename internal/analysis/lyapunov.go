package analysis

import (
	"math"

	"mechdiff/internal/sim"
)

// LyapunovExponent estimates the largest Lyapunov exponent by tracking
// the separation of two nearby trajectories, renormalizing the
// perturbed one back to the initial offset after every step. A positive
// value indicates chaos.
func LyapunovExponent(
	dyn sim.System,
	integ sim.Integrator,
	x0 sim.State,
	dt, duration float64,
	perturbation float64,
) float64 {
	if len(x0) == 0 {
		return 0
	}

	x0p := x0.Clone()
	x0p[0] += perturbation

	return lyapunovForPerturbation(dyn, integ, x0, x0p, dt, duration, perturbation)
}

// LyapunovSpectrum perturbs each state dimension independently and
// reports the resulting divergence rates.
func LyapunovSpectrum(
	dyn sim.System,
	integ sim.Integrator,
	x0 sim.State,
	dt, duration float64,
	perturbation float64,
) []float64 {
	spectrum := make([]float64, len(x0))
	for i := range x0 {
		xp := x0.Clone()
		xp[i] += perturbation
		spectrum[i] = lyapunovForPerturbation(dyn, integ, x0, xp, dt, duration, perturbation)
	}
	return spectrum
}

func lyapunovForPerturbation(
	dyn sim.System,
	integ sim.Integrator,
	x0, x0p sim.State,
	dt, duration, d0 float64,
) float64 {
	x := x0.Clone()
	xp := x0p.Clone()
	t := 0.0

	sumLog := 0.0
	count := 0

	for t < duration {
		x = integ.Step(dyn, x, t, dt)
		xp = integ.Step(dyn, xp, t, dt)
		t += dt

		sep := xp.Sub(x).Norm()
		if sep <= 0 || d0 <= 0 {
			continue
		}

		// Accumulate the growth over this step, then pull the perturbed
		// trajectory back to the reference offset so each step measures
		// the local stretching rate rather than the accumulated drift.
		sumLog += math.Log(sep / d0)
		count++

		scale := d0 / sep
		for i := range xp {
			xp[i] = x[i] + (xp[i]-x[i])*scale
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * dt)
}
