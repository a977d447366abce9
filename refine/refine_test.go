package refine

import "testing"

func TestQuadPeakOffsetSymmetric(t *testing.T) {
	dx, ok := QuadPeakOffset1D(0.9, 1.0, 0.9)
	if !ok {
		t.Fatalf("expected a fit")
	}
	if dx < -1e-6 || dx > 1e-6 {
		t.Fatalf("dx = %v, want ~0", dx)
	}
}

func TestQuadPeakOffsetShifted(t *testing.T) {
	f := func(x float64) float64 { return 1.0 - (x-0.25)*(x-0.25) }
	dx, ok := QuadPeakOffset1D(f(-1), f(0), f(1))
	if !ok {
		t.Fatalf("expected a fit")
	}
	if dx < 0.25-1e-5 || dx > 0.25+1e-5 {
		t.Fatalf("dx = %v, want ~0.25", dx)
	}
}

func TestQuadPeakOffsetRejectsNonConcave(t *testing.T) {
	if _, ok := QuadPeakOffset1D(1.0, 0.5, 1.0); ok {
		t.Fatalf("expected no fit for a convex sample set")
	}
}

func TestRefineSubpixel2DSeparableParaboloid(t *testing.T) {
	coords := [3]float64{-1, 0, 1}
	var s [3][3]float64
	for yi, y := range coords {
		for xi, x := range coords {
			s[yi][xi] = 1.0 - (x-0.3)*(x-0.3) - (y+0.2)*(y+0.2)
		}
	}
	xRef, yRef := RefineSubpixel2D(0, 0, s)
	if xRef < 0.3-1e-3 || xRef > 0.3+1e-3 {
		t.Fatalf("xRef = %v, want ~0.3", xRef)
	}
	if yRef < -0.2-1e-3 || yRef > -0.2+1e-3 {
		t.Fatalf("yRef = %v, want ~-0.2", yRef)
	}
}

func TestRefineSubangleFallsBackWhenIllConditioned(t *testing.T) {
	got := RefineSubangle(30, 10, 1.0, 0.5, 1.0)
	if got != 30 {
		t.Fatalf("RefineSubangle = %v, want 30 (unrefined)", got)
	}
}
