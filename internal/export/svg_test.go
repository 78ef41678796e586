package export

import (
	"math"
	"strings"
	"testing"

	"mechdiff/internal/mech"
	"mechdiff/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(3, 5)

	svg := CanvasToSVG(c, 4.0)
	if !strings.HasPrefix(svg, `<?xml version="1.0"`) {
		t.Error("expected XML header")
	}
	if strings.Count(svg, "<circle") != 2 {
		t.Errorf("expected 2 dots, got %d", strings.Count(svg, "<circle"))
	}

	if CanvasToSVG(nil, 4.0) != "" {
		t.Error("expected empty output for nil canvas")
	}
}

func TestTipPathGeometry(t *testing.T) {
	p := mech.DefaultDoublePendulumParams()

	// Hanging straight down the tip sits at depth -(L1+L2).
	pts := TipPath(p, [][]float64{{0, 0, 0, 0}})
	if len(pts) != 1 {
		t.Fatalf("expected 1 point, got %d", len(pts))
	}
	if math.Abs(pts[0].X) > 1e-12 || math.Abs(pts[0].Y+p.L1+p.L2) > 1e-12 {
		t.Errorf("unexpected tip at (%f, %f)", pts[0].X, pts[0].Y)
	}

	// Both joints at 90 degrees fold the second link back up.
	pts = TipPath(p, [][]float64{{math.Pi / 2, math.Pi / 2, 0, 0}})
	if math.Abs(pts[0].X+p.L1) > 1e-9 || math.Abs(pts[0].Y-p.L2) > 1e-9 {
		t.Errorf("unexpected folded tip at (%f, %f)", pts[0].X, pts[0].Y)
	}
}

func TestTrajectoryToSVG(t *testing.T) {
	points := []struct{ X, Y float64 }{{0, 0}, {1, 1}, {2, 0}}
	svg := TrajectoryToSVG(points, 400, 300, "#4df3ff")
	if !strings.Contains(svg, `stroke="#4df3ff"`) {
		t.Error("expected stroke color in output")
	}
	if !strings.Contains(svg, "<path") {
		t.Error("expected path element")
	}

	if TrajectoryToSVG(points[:1], 400, 300, "#fff") != "" {
		t.Error("expected empty output for degenerate path")
	}
}
