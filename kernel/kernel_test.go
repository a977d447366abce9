package kernel

import (
	"math"
	"testing"

	"github.com/soocke/corrmatch/imgview"
	"github.com/soocke/corrmatch/template"
)

func texturedPix(width, height int) []byte {
	pix := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix[y*width+x] = byte((x*29 + y*41 + (x^y)*5) % 256)
		}
	}
	return pix
}

func mustView(t *testing.T, pix []byte, w, h int) imgview.View {
	t.Helper()
	v, err := imgview.New(pix, w, h, w)
	if err != nil {
		t.Fatalf("imgview.New: %v", err)
	}
	return v
}

func TestZNCCUnmaskedFullFindsExactPlacement(t *testing.T) {
	const imgW, imgH = 40, 40
	const tplW, tplH = 9, 7
	const tplX, tplY = 12, 15

	imgPix := texturedPix(imgW, imgH)
	tplPix := make([]byte, tplW*tplH)
	for y := 0; y < tplH; y++ {
		copy(tplPix[y*tplW:(y+1)*tplW], imgPix[(tplY+y)*imgW+tplX:(tplY+y)*imgW+tplX+tplW])
	}

	tplView := mustView(t, tplPix, tplW, tplH)
	plan, err := template.BuildUnmaskedZNCCPlan(tplView)
	if err != nil {
		t.Fatalf("BuildUnmaskedZNCCPlan: %v", err)
	}

	searchView := mustView(t, imgPix, imgW, imgH)
	candidates := ZNCCUnmaskedFull(searchView, &plan, ScanParams{MinVarI: 1e-9, MinScore: math.Inf(-1)})

	var best Candidate
	for _, c := range candidates {
		if c.Score > best.Score {
			best = c
		}
	}
	if best.X != tplX || best.Y != tplY {
		t.Fatalf("best placement = (%d,%d), want (%d,%d)", best.X, best.Y, tplX, tplY)
	}
	if best.Score < 0.999 {
		t.Fatalf("best.Score = %v, want ~1.0 for an exact self-match", best.Score)
	}
}

func TestZNCCUnmaskedFullRejectsFlatWindows(t *testing.T) {
	const imgW, imgH = 20, 20
	imgPix := make([]byte, imgW*imgH) // all zero: every window is flat
	tplPix := texturedPix(5, 5)

	tplView := mustView(t, tplPix, 5, 5)
	plan, err := template.BuildUnmaskedZNCCPlan(tplView)
	if err != nil {
		t.Fatalf("BuildUnmaskedZNCCPlan: %v", err)
	}

	searchView := mustView(t, imgPix, imgW, imgH)
	candidates := ZNCCUnmaskedFull(searchView, &plan, ScanParams{MinVarI: 1e-9, MinScore: math.Inf(-1)})
	if len(candidates) != 0 {
		t.Fatalf("len(candidates) = %d, want 0 (all windows flat)", len(candidates))
	}
}

func TestSSDUnmaskedFullScoresZeroAtExactMatch(t *testing.T) {
	const imgW, imgH = 24, 24
	const tplW, tplH = 6, 6
	const tplX, tplY = 4, 4

	imgPix := texturedPix(imgW, imgH)
	tplPix := make([]byte, tplW*tplH)
	for y := 0; y < tplH; y++ {
		copy(tplPix[y*tplW:(y+1)*tplW], imgPix[(tplY+y)*imgW+tplX:(tplY+y)*imgW+tplX+tplW])
	}

	tplView := mustView(t, tplPix, tplW, tplH)
	plan := template.BuildUnmaskedSSDPlan(tplView)

	searchView := mustView(t, imgPix, imgW, imgH)
	score, ok := SSDUnmaskedAt(searchView, &plan, tplX, tplY)
	if !ok {
		t.Fatalf("expected ok=true at a valid placement")
	}
	if math.Abs(score) > 1e-6 {
		t.Fatalf("score = %v, want ~0 for an exact SSD self-match", score)
	}
}

func TestScoreAtRejectsOutOfBoundsPlacement(t *testing.T) {
	tplView := mustView(t, texturedPix(4, 4), 4, 4)
	plan, err := template.BuildUnmaskedZNCCPlan(tplView)
	if err != nil {
		t.Fatalf("BuildUnmaskedZNCCPlan: %v", err)
	}
	searchView := mustView(t, texturedPix(10, 10), 10, 10)

	if _, ok := ZNCCUnmaskedAt(searchView, &plan, -1, 0, 0); ok {
		t.Fatalf("expected ok=false for a negative x")
	}
	if _, ok := ZNCCUnmaskedAt(searchView, &plan, 7, 7, 0); ok {
		t.Fatalf("expected ok=false for a placement that overruns the search image")
	}
	if _, ok := ZNCCUnmaskedAt(searchView, &plan, 6, 6, 0); !ok {
		t.Fatalf("expected ok=true for a placement that exactly fits")
	}
}

func TestROIClampRestrictsCandidatesToRoi(t *testing.T) {
	const imgW, imgH = 30, 30
	const tplW, tplH = 4, 4
	imgPix := texturedPix(imgW, imgH)
	tplPix := make([]byte, tplW*tplH)
	for y := 0; y < tplH; y++ {
		copy(tplPix[y*tplW:(y+1)*tplW], imgPix[y*imgW:y*imgW+tplW])
	}
	tplView := mustView(t, tplPix, tplW, tplH)
	plan, err := template.BuildUnmaskedZNCCPlan(tplView)
	if err != nil {
		t.Fatalf("BuildUnmaskedZNCCPlan: %v", err)
	}
	searchView := mustView(t, imgPix, imgW, imgH)

	roi := Roi{X: 10, Y: 10, Width: 5, Height: 5}
	candidates := ZNCCUnmaskedROI(searchView, &plan, roi, ScanParams{MinVarI: 1e-9, MinScore: math.Inf(-1)})
	for _, c := range candidates {
		if c.X < 10 || c.X > 14 || c.Y < 10 || c.Y > 14 {
			t.Fatalf("candidate %+v escaped the requested ROI", c)
		}
	}
}

func TestParallelAndSequentialScansAgree(t *testing.T) {
	const imgW, imgH = 50, 45
	const tplW, tplH = 7, 6
	imgPix := texturedPix(imgW, imgH)
	tplPix := make([]byte, tplW*tplH)
	for y := 0; y < tplH; y++ {
		copy(tplPix[y*tplW:(y+1)*tplW], imgPix[(3+y)*imgW+5:(3+y)*imgW+5+tplW])
	}
	tplView := mustView(t, tplPix, tplW, tplH)
	plan, err := template.BuildUnmaskedZNCCPlan(tplView)
	if err != nil {
		t.Fatalf("BuildUnmaskedZNCCPlan: %v", err)
	}
	searchView := mustView(t, imgPix, imgW, imgH)

	params := ScanParams{MinVarI: 1e-9, MinScore: math.Inf(-1)}
	seq := ZNCCUnmaskedFull(searchView, &plan, params)
	par := ZNCCUnmaskedFullParallel(searchView, &plan, params)

	if len(seq) != len(par) {
		t.Fatalf("len(seq)=%d len(par)=%d, want equal", len(seq), len(par))
	}
	for i := range seq {
		if seq[i] != par[i] {
			t.Fatalf("candidate %d differs: seq=%+v par=%+v", i, seq[i], par[i])
		}
	}
}
