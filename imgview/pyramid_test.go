package imgview

import "testing"

func TestBuildPyramidDownsampleFormula(t *testing.T) {
	// 4x4 base; level 1 should be 2x2 using (a+b+c+d+2)>>2.
	base := []byte{
		10, 20, 30, 40,
		50, 60, 70, 80,
		90, 100, 110, 120,
		130, 140, 150, 160,
	}
	view, err := New(base, 4, 4, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p := BuildPyramid(view, 2)
	if p.NumLevels() != 2 {
		t.Fatalf("NumLevels = %d, want 2", p.NumLevels())
	}

	lvl1, ok := p.Level(1)
	if !ok {
		t.Fatalf("level 1 missing")
	}
	if lvl1.Width() != 2 || lvl1.Height() != 2 {
		t.Fatalf("level1 dims = %dx%d", lvl1.Width(), lvl1.Height())
	}

	want00 := byte((10 + 20 + 50 + 60 + 2) >> 2)
	got00 := lvl1.View().At(0, 0)
	if got00 != want00 {
		t.Fatalf("level1[0][0] = %d, want %d", got00, want00)
	}

	want11 := byte((110 + 120 + 150 + 160 + 2) >> 2)
	got11 := lvl1.View().At(1, 1)
	if got11 != want11 {
		t.Fatalf("level1[1][1] = %d, want %d", got11, want11)
	}
}

func TestBuildPyramidStopsBelowMinSize(t *testing.T) {
	base := make([]byte, 3*3)
	view, err := New(base, 3, 3, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := BuildPyramid(view, 10)
	// 3x3 -> 1x1; the 1x1 top is below 2, so no third level is built.
	if p.NumLevels() != 2 {
		t.Fatalf("NumLevels = %d, want 2", p.NumLevels())
	}
}

func TestBuildPyramidClampsMaxLevels(t *testing.T) {
	base := make([]byte, 64*64)
	view, err := New(base, 64, 64, 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := BuildPyramid(view, 0)
	if p.NumLevels() < 1 {
		t.Fatalf("NumLevels = %d, want >= 1", p.NumLevels())
	}
}
