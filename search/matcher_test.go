package search

import (
	"math"
	"testing"

	"github.com/soocke/corrmatch/bank"
	"github.com/soocke/corrmatch/imgview"
	"github.com/soocke/corrmatch/template"
)

func syntheticTexture(width, height int) []byte {
	pix := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix[y*width+x] = byte((x*37 + y*53 + (x*y)%23 + (x^y)*7) % 256)
		}
	}
	return pix
}

func extractPatch(pix []byte, imgWidth, x0, y0, w, h int) []byte {
	out := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(out[y*w:(y+1)*w], pix[(y0+y)*imgWidth+x0:(y0+y)*imgWidth+x0+w])
	}
	return out
}

func TestSequentialAndParallelMatchAgree(t *testing.T) {
	const imgW, imgH = 96, 96
	const tplW, tplH = 20, 16
	const tplX, tplY = 30, 40

	imgPix := syntheticTexture(imgW, imgH)
	tplPix := extractPatch(imgPix, imgW, tplX, tplY, tplW, tplH)

	tpl, err := template.New(tplPix, tplW, tplH)
	if err != nil {
		t.Fatalf("template.New: %v", err)
	}
	compiled, err := bank.CompileUnrotated(tpl, bank.CompileUnrotatedConfig{MaxLevels: 3})
	if err != nil {
		t.Fatalf("CompileUnrotated: %v", err)
	}

	searchView, err := imgview.New(imgPix, imgW, imgH, imgW)
	if err != nil {
		t.Fatalf("imgview.New: %v", err)
	}

	base := DefaultMatchConfig()
	base.MaxImageLevels = 3

	seqMatcher, err := NewMatcher(compiled).WithConfig(base)
	if err != nil {
		t.Fatalf("WithConfig: %v", err)
	}
	seq, err := seqMatcher.MatchImage(searchView)
	if err != nil {
		t.Fatalf("MatchImage (sequential): %v", err)
	}

	parCfg := base
	parCfg.Parallel = true
	parMatcher, err := NewMatcher(compiled).WithConfig(parCfg)
	if err != nil {
		t.Fatalf("WithConfig (parallel): %v", err)
	}
	par, err := parMatcher.MatchImage(searchView)
	if err != nil {
		t.Fatalf("MatchImage (parallel): %v", err)
	}

	if math.Abs(seq.X-par.X) > 1e-9 || math.Abs(seq.Y-par.Y) > 1e-9 {
		t.Fatalf("sequential and parallel positions differ: seq=(%v,%v) par=(%v,%v)", seq.X, seq.Y, par.X, par.Y)
	}
	if math.Abs(seq.Score-par.Score) > 1e-12 {
		t.Fatalf("sequential and parallel scores differ: seq=%v par=%v", seq.Score, par.Score)
	}
}

func TestWithConfigRejectsRotationOnUnrotatedTemplate(t *testing.T) {
	pix := syntheticTexture(16, 16)
	tpl, err := template.New(pix, 16, 16)
	if err != nil {
		t.Fatalf("template.New: %v", err)
	}
	compiled, err := bank.CompileUnrotated(tpl, bank.CompileUnrotatedConfig{MaxLevels: 1})
	if err != nil {
		t.Fatalf("CompileUnrotated: %v", err)
	}

	cfg := DefaultMatchConfig()
	cfg.Rotation = RotationEnabled
	if _, err := NewMatcher(compiled).WithConfig(cfg); err == nil {
		t.Fatalf("expected RotationUnavailable error")
	}
}
