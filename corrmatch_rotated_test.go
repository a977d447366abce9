package corrmatch

import (
	"math"
	"testing"

	"github.com/soocke/corrmatch/rotate"
)

func TestRotatedSyntheticMatch(t *testing.T) {
	const imgW, imgH = 220, 180
	const tplW, tplH = 64, 48
	const stampX, stampY = 70, 50
	const stampAngle = 30.0

	tplPix := syntheticTexture(tplW, tplH)
	tpl, err := NewTemplate(tplPix, tplW, tplH)
	if err != nil {
		t.Fatalf("NewTemplate: %v", err)
	}

	tplView, err := NewView(tplPix, tplW, tplH, tplW)
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}
	rotated, mask := rotate.Bilinear(tplView, stampAngle, 0)

	imgPix := make([]byte, imgW*imgH)
	for y := 0; y < tplH; y++ {
		for x := 0; x < tplW; x++ {
			if mask[y*tplW+x] == 0 {
				continue
			}
			imgPix[(stampY+y)*imgW+(stampX+x)] = rotated.View().At(x, y)
		}
	}

	compiled, err := CompileRotated(tpl, CompileConfig{
		MaxLevels:          1,
		CoarseStepDeg:      30,
		MinStepDeg:         30,
		FillValue:          0,
		PrecomputeCoarsest: true,
	})
	if err != nil {
		t.Fatalf("CompileRotated: %v", err)
	}

	matcher, err := NewMatcher(compiled).WithConfig(MatchConfig{
		Metric:              MetricZNCC,
		Rotation:            RotationEnabled,
		MaxImageLevels:      1,
		BeamWidth:           8,
		PerAngleTopK:        3,
		NMSRadius:           2,
		ROIRadius:           6,
		AngleHalfRangeSteps: 1,
		MinVarI:             1e-6,
		MinScore:            math.Inf(-1),
	})
	if err != nil {
		t.Fatalf("WithConfig: %v", err)
	}

	searchView, err := NewView(imgPix, imgW, imgH, imgW)
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}

	match, err := matcher.MatchImage(searchView)
	if err != nil {
		t.Fatalf("MatchImage: %v", err)
	}

	if math.Abs(match.X-stampX) > 4 {
		t.Fatalf("X = %v, want %d +/- 4", match.X, stampX)
	}
	if math.Abs(match.Y-stampY) > 4 {
		t.Fatalf("Y = %v, want %d +/- 4", match.Y, stampY)
	}
	angleDiff := math.Mod(match.AngleDeg-stampAngle+540, 360) - 180
	if math.Abs(angleDiff) > 30 {
		t.Fatalf("AngleDeg = %v, want within one coarse step of %v", match.AngleDeg, stampAngle)
	}
	if match.Score <= 0.9 {
		t.Fatalf("Score = %v, want > 0.9", match.Score)
	}
}
