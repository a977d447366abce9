package bank

import (
	"math"
	"testing"

	"github.com/soocke/corrmatch/template"
)

func syntheticTemplate(t *testing.T, width, height int) template.Template {
	t.Helper()
	pix := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix[y*width+x] = byte((x*31 + y*17 + (x^y)*3) % 256)
		}
	}
	tpl, err := template.New(pix, width, height)
	if err != nil {
		t.Fatalf("template.New: %v", err)
	}
	return tpl
}

func TestStepForLevelSchedule(t *testing.T) {
	// max_levels=3, coarse_step=20deg, min_step=1deg: coarsest=20, mid=10, finest=5.
	const coarsestIndex = 2
	cases := []struct {
		level int
		want  float64
	}{
		{2, 20.0},
		{1, 10.0},
		{0, 5.0},
	}
	for _, c := range cases {
		got := stepForLevel(c.level, coarsestIndex, 20.0, 1.0)
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("stepForLevel(level=%d) = %v, want %v", c.level, got, c.want)
		}
	}
}

func TestStepForLevelClampsToMinStep(t *testing.T) {
	got := stepForLevel(0, 5, 20.0, 2.0)
	if got != 2.0 {
		t.Fatalf("stepForLevel clamped = %v, want 2.0 (min_step floor)", got)
	}
}

func TestCompileRotatedBuildsStepSchedulePerLevel(t *testing.T) {
	tpl := syntheticTemplate(t, 32, 32)
	compiled, err := CompileRotated(tpl, CompileConfig{
		MaxLevels:     3,
		CoarseStepDeg: 20.0,
		MinStepDeg:    1.0,
		FillValue:     0,
	})
	if err != nil {
		t.Fatalf("CompileRotated: %v", err)
	}
	numLevels := compiled.NumLevels()
	coarsestIndex := numLevels - 1

	coarseGrid, err := compiled.AngleGridAt(coarsestIndex)
	if err != nil {
		t.Fatalf("AngleGridAt(coarsest): %v", err)
	}
	if math.Abs(coarseGrid.StepDeg()-20.0) > 1e-9 {
		t.Fatalf("coarsest step = %v, want 20.0", coarseGrid.StepDeg())
	}

	finestGrid, err := compiled.AngleGridAt(0)
	if err != nil {
		t.Fatalf("AngleGridAt(0): %v", err)
	}
	wantFinest := stepForLevel(0, coarsestIndex, 20.0, 1.0)
	if math.Abs(finestGrid.StepDeg()-wantFinest) > 1e-9 {
		t.Fatalf("finest step = %v, want %v", finestGrid.StepDeg(), wantFinest)
	}
}

func TestAngleGridAtRejectsUnrotatedTemplate(t *testing.T) {
	tpl := syntheticTemplate(t, 16, 16)
	compiled, err := CompileUnrotated(tpl, CompileUnrotatedConfig{MaxLevels: 1})
	if err != nil {
		t.Fatalf("CompileUnrotated: %v", err)
	}
	if _, err := compiled.AngleGridAt(0); err == nil {
		t.Fatalf("expected ErrRotationUnavailable for an unrotated template")
	}
}

func TestRotatedZNCCPlanRejectsOutOfRangeIndices(t *testing.T) {
	tpl := syntheticTemplate(t, 16, 16)
	compiled, err := CompileRotated(tpl, CompileConfig{
		MaxLevels:     1,
		CoarseStepDeg: 10,
		MinStepDeg:    10,
	})
	if err != nil {
		t.Fatalf("CompileRotated: %v", err)
	}
	if _, err := compiled.RotatedZNCCPlan(5, 0); err == nil {
		t.Fatalf("expected error for out-of-range level")
	}
	if _, err := compiled.RotatedZNCCPlan(0, 10_000); err == nil {
		t.Fatalf("expected error for out-of-range angle index")
	}
}

func TestRotatedPlanIsMaterializedOnceAndCached(t *testing.T) {
	tpl := syntheticTemplate(t, 24, 24)
	compiled, err := CompileRotated(tpl, CompileConfig{
		MaxLevels:     1,
		CoarseStepDeg: 15,
		MinStepDeg:    15,
	})
	if err != nil {
		t.Fatalf("CompileRotated: %v", err)
	}

	first, err := compiled.RotatedView(0, 1)
	if err != nil {
		t.Fatalf("RotatedView (first): %v", err)
	}
	second, err := compiled.RotatedView(0, 1)
	if err != nil {
		t.Fatalf("RotatedView (second): %v", err)
	}
	if first.Width() != second.Width() || first.Height() != second.Height() {
		t.Fatalf("repeated RotatedView calls returned differently shaped images")
	}
	if &first.Data()[0] != &second.Data()[0] {
		t.Fatalf("repeated RotatedView calls returned different buffers, want the cached slot's image")
	}
	for y := 0; y < first.Height(); y++ {
		for x := 0; x < first.Width(); x++ {
			if first.At(x, y) != second.At(x, y) {
				t.Fatalf("repeated RotatedView calls returned different pixel data at (%d,%d)", x, y)
			}
		}
	}
}

func TestCompileConfigRejectsNonPositiveMinStep(t *testing.T) {
	cfg := CompileConfig{MaxLevels: 1, CoarseStepDeg: 10, MinStepDeg: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected InvalidConfig for min_step_deg == 0")
	}
}
