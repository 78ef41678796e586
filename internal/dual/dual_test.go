package dual

import (
	"math"
	"testing"

	gdual "gonum.org/v1/gonum/num/dual"
)

func TestVariablePartials(t *testing.T) {
	x := Variable(2.0, 0, 3)
	y := Variable(3.0, 2, 3)

	if x.Value() != 2.0 {
		t.Errorf("expected value 2.0, got %f", x.Value())
	}
	if x.Partial(0) != 1 || x.Partial(1) != 0 || x.Partial(2) != 0 {
		t.Errorf("unexpected seed for x: %v", x.Partials())
	}
	if y.Partial(2) != 1 {
		t.Errorf("unexpected seed for y: %v", y.Partials())
	}
}

func TestProductRule(t *testing.T) {
	x := Variable(2.0, 0, 2)
	y := Variable(3.0, 1, 2)

	// f = x*y: df/dx = y, df/dy = x
	f := x.Mul(y)
	if f.Value() != 6.0 {
		t.Errorf("expected 6.0, got %f", f.Value())
	}
	if math.Abs(f.Partial(0)-3.0) > 1e-15 {
		t.Errorf("expected df/dx = 3, got %f", f.Partial(0))
	}
	if math.Abs(f.Partial(1)-2.0) > 1e-15 {
		t.Errorf("expected df/dy = 2, got %f", f.Partial(1))
	}
}

func TestChainRuleTrig(t *testing.T) {
	// f = sin(x)*cos(x): f' = cos^2 - sin^2 = cos(2x)
	x0 := 0.7
	x := Variable(x0, 0, 1)
	f := x.Sin().Mul(x.Cos())

	want := math.Cos(2 * x0)
	if math.Abs(f.Partial(0)-want) > 1e-14 {
		t.Errorf("expected f' = %f, got %f", want, f.Partial(0))
	}
}

func TestConstantsMergeWidths(t *testing.T) {
	x := Variable(1.5, 0, 2)
	c := Constant(4.0)

	f := x.Mul(c).Add(c)
	if math.Abs(f.Value()-10.0) > 1e-15 {
		t.Errorf("expected 10.0, got %f", f.Value())
	}
	if math.Abs(f.Partial(0)-4.0) > 1e-15 {
		t.Errorf("expected partial 4.0, got %f", f.Partial(0))
	}
	if f.Partial(1) != 0 {
		t.Errorf("expected zero partial, got %f", f.Partial(1))
	}
}

func TestScaleNeg(t *testing.T) {
	x := Variable(2.0, 0, 1)
	f := x.Scale(3.0).Neg()
	if f.Value() != -6.0 {
		t.Errorf("expected -6.0, got %f", f.Value())
	}
	if f.Partial(0) != -3.0 {
		t.Errorf("expected partial -3.0, got %f", f.Partial(0))
	}
}

// Cross-check single-variable propagation against gonum's dual numbers.
func TestAgainstGonumDual(t *testing.T) {
	x0 := 1.1

	x := Variable(x0, 0, 1)
	f := x.Sin().Mul(x).Add(x.Cos())

	gx := gdual.Number{Real: x0, Emag: 1}
	gf := gdual.Add(gdual.Mul(gdual.Sin(gx), gx), gdual.Cos(gx))

	if math.Abs(f.Value()-gf.Real) > 1e-15 {
		t.Errorf("value mismatch: %g vs gonum %g", f.Value(), gf.Real)
	}
	if math.Abs(f.Partial(0)-gf.Emag) > 1e-15 {
		t.Errorf("derivative mismatch: %g vs gonum %g", f.Partial(0), gf.Emag)
	}
}
