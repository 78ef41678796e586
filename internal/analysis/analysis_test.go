package analysis

import (
	"math"
	"testing"

	"mechdiff/internal/integrators"
	"mechdiff/internal/sim"
)

func TestPowerSpectrumFindsDominantFrequency(t *testing.T) {
	n := 256
	data := make([]float64, n)
	for i := range data {
		// 8 full cycles over the window.
		data[i] = math.Sin(2 * math.Pi * 8 * float64(i) / float64(n))
	}

	ps := PowerSpectrum(data)

	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > ps[maxIdx] {
			maxIdx = i
		}
	}
	if maxIdx != 8 {
		t.Errorf("expected peak at bin 8, got %d", maxIdx)
	}
}

func TestFFTPanicsOnOddLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for odd length")
		}
	}()
	FFT(make([]float64, 3))
}

type expanding struct{}

func (expanding) Derive(x sim.State, t float64) sim.State { return sim.State{x[0]} }
func (expanding) Dim() int                                { return 1 }

type circular struct{}

func (circular) Derive(x sim.State, t float64) sim.State { return sim.State{x[1], -x[0]} }
func (circular) Dim() int                                { return 2 }

func TestLyapunovExponentOfLinearGrowth(t *testing.T) {
	// dx/dt = x separates neighbors at exactly rate 1.
	lam := LyapunovExponent(expanding{}, integrators.NewRK4(), sim.State{1}, 0.01, 5.0, 1e-9)
	if math.Abs(lam-1.0) > 0.05 {
		t.Errorf("expected exponent near 1, got %f", lam)
	}
}

func TestLyapunovExponentIndependentOfHorizon(t *testing.T) {
	// The per-step renormalization keeps the estimate a local stretching
	// rate; averaging the accumulated drift instead would make it grow
	// with the integration horizon.
	short := LyapunovExponent(expanding{}, integrators.NewRK4(), sim.State{1}, 0.01, 2.0, 1e-9)
	long := LyapunovExponent(expanding{}, integrators.NewRK4(), sim.State{1}, 0.01, 8.0, 1e-9)
	if math.Abs(short-long) > 0.05 {
		t.Errorf("estimate depends on horizon: %f over 2s vs %f over 8s", short, long)
	}
	if long > 2 {
		t.Errorf("estimate inflated to %f for unit growth rate", long)
	}
}

func TestLyapunovExponentOfRotation(t *testing.T) {
	// Pure rotation neither stretches nor shrinks separations.
	lam := LyapunovExponent(circular{}, integrators.NewRK4(), sim.State{1, 0}, 0.01, 10.0, 1e-9)
	if math.Abs(lam) > 0.05 {
		t.Errorf("expected exponent near 0, got %f", lam)
	}
}

func TestLyapunovSpectrumDimensions(t *testing.T) {
	exps := LyapunovSpectrum(circular{}, integrators.NewRK4(), sim.State{1, 0}, 0.01, 1.0, 1e-9)
	if len(exps) != 2 {
		t.Errorf("expected 2 exponents, got %d", len(exps))
	}
}
