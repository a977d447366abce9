package search

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/soocke/corrmatch/bank"
	"github.com/soocke/corrmatch/candidate"
	"github.com/soocke/corrmatch/imgview"
	"github.com/soocke/corrmatch/internal/cmerr"
	"github.com/soocke/corrmatch/kernel"
	"github.com/soocke/corrmatch/refine"
)

// Match is a located template: subpixel position, resolved rotation angle
// in degrees (0 if rotation was disabled), and a similarity score.
type Match struct {
	X, Y     float64
	AngleDeg float64
	Score    float64
}

// Matcher runs the coarse-to-fine search of a CompiledTemplate against a
// search image. A Matcher is immutable; WithConfig and WithLogger return a
// copy carrying the new setting, so a base Matcher can be shared and
// specialized per call site without races.
type Matcher struct {
	compiled *bank.CompiledTemplate
	cfg      MatchConfig
	logger   *slog.Logger
}

// NewMatcher builds a Matcher over compiled with the default MatchConfig.
func NewMatcher(compiled *bank.CompiledTemplate) *Matcher {
	return &Matcher{compiled: compiled, cfg: DefaultMatchConfig()}
}

// WithConfig validates cfg and returns a Matcher using it. Fails with
// RotationUnavailable if cfg requests rotation search over a template
// compiled without rotation support.
func (m *Matcher) WithConfig(cfg MatchConfig) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Rotation == RotationEnabled && !m.compiled.Rotated() {
		return nil, fmt.Errorf("%w: config requests rotation but template was compiled unrotated", cmerr.ErrRotationUnavailable)
	}
	clone := *m
	clone.cfg = cfg
	return &clone, nil
}

// WithLogger returns a Matcher that logs refinement-loop diagnostics
// (candidates dropped at the border) to logger instead of the package
// default.
func (m *Matcher) WithLogger(logger *slog.Logger) *Matcher {
	clone := *m
	clone.logger = logger
	return &clone
}

func (m *Matcher) log() *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return slog.Default()
}

// trackCandidate is a beam member at some pyramid level: an integer
// placement, its resolved angle (degrees and grid index), and its score.
type trackCandidate struct {
	X, Y     int
	AngleDeg float64
	AngleIdx int
	Score    float64
}

// MatchImage runs the coarse-to-fine search and returns the single best
// match, refined to subpixel/subangle precision.
func (m *Matcher) MatchImage(search imgview.View) (Match, error) {
	final, pyramid, err := m.runBeam(search)
	if err != nil {
		return Match{}, err
	}
	return m.refineFinal(pyramid, final[0]), nil
}

// MatchTopK runs the coarse-to-fine search and returns up to k refined
// matches in descending score order. Each seed is refined independently and
// no deduplication is done: seeds that converge to the same subpixel
// location are all returned.
func (m *Matcher) MatchTopK(search imgview.View, k int) ([]Match, error) {
	final, pyramid, err := m.runBeam(search)
	if err != nil {
		return nil, err
	}
	if k > len(final) {
		k = len(final)
	}
	out := make([]Match, k)
	for i := 0; i < k; i++ {
		out[i] = m.refineFinal(pyramid, final[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// runBeam builds the search image pyramid and runs the coarse pass plus
// the refinement loop, returning the final level-0 beam sorted best first.
func (m *Matcher) runBeam(search imgview.View) ([]trackCandidate, imgview.Pyramid, error) {
	if err := m.cfg.Validate(); err != nil {
		return nil, imgview.Pyramid{}, err
	}

	maxLevels := m.cfg.MaxImageLevels
	if m.compiled.NumLevels() < maxLevels {
		maxLevels = m.compiled.NumLevels()
	}
	pyramid := imgview.BuildPyramid(search, maxLevels)
	numLevels := pyramid.NumLevels()
	if numLevels > m.compiled.NumLevels() {
		numLevels = m.compiled.NumLevels()
	}
	if numLevels <= 0 {
		return nil, imgview.Pyramid{}, fmt.Errorf("%w: no usable pyramid levels", cmerr.ErrInvalidDimensions)
	}
	coarsest := numLevels - 1

	beam, err := m.coarseLevel(pyramid, coarsest)
	if err != nil {
		return nil, imgview.Pyramid{}, err
	}

	for level := coarsest - 1; level >= 0; level-- {
		beam, err = m.refineLevel(pyramid, level, beam)
		if err != nil {
			return nil, imgview.Pyramid{}, err
		}
	}

	return beam, pyramid, nil
}

func (m *Matcher) scanParams() kernel.ScanParams {
	return kernel.ScanParams{MinVarI: m.cfg.MinVarI, MinScore: m.cfg.MinScore}
}

// coarseLevel runs the full scan at the coarsest pyramid level.
func (m *Matcher) coarseLevel(pyramid imgview.Pyramid, level int) ([]trackCandidate, error) {
	levelImg, ok := pyramid.Level(level)
	if !ok {
		return nil, fmt.Errorf("%w: level=%d", cmerr.ErrIndexOutOfBounds, level)
	}
	view := levelImg.View()

	var peaks []candidate.Peak
	if m.cfg.Rotation == RotationEnabled {
		grid, err := m.compiled.AngleGridAt(level)
		if err != nil {
			return nil, err
		}
		scanAngle := func(angleIdx int) []candidate.Peak {
			raw, err := m.scanFullMasked(level, angleIdx, view)
			if err != nil {
				return nil
			}
			return toTopKPeaks(raw, angleIdx, m.cfg.PerAngleTopK)
		}
		peaks = m.fanOutAngles(grid.Len(), scanAngle)
	} else {
		raw, err := m.scanFullUnmasked(level, view)
		if err != nil {
			return nil, err
		}
		peaks = peaksFromKernel(raw, 0)
	}

	return m.collapseBeam(peaks, level)
}

// refineLevel runs ROI-restricted scans around each upscaled prior
// candidate, then collapses the accumulated peaks into the next beam.
func (m *Matcher) refineLevel(pyramid imgview.Pyramid, level int, prev []trackCandidate) ([]trackCandidate, error) {
	levelImg, ok := pyramid.Level(level)
	if !ok {
		return nil, fmt.Errorf("%w: level=%d", cmerr.ErrIndexOutOfBounds, level)
	}
	view := levelImg.View()
	tplW, tplH, ok := m.compiled.LevelSize(level)
	if !ok {
		return nil, fmt.Errorf("%w: level=%d", cmerr.ErrIndexOutOfBounds, level)
	}
	maxX := view.Width() - tplW
	maxY := view.Height() - tplH

	var grid bank.AngleGrid
	var stepL float64
	if m.cfg.Rotation == RotationEnabled {
		var err error
		grid, err = m.compiled.AngleGridAt(level)
		if err != nil {
			return nil, err
		}
		stepL = grid.StepDeg()
	}

	var peaks []candidate.Peak
	for _, c := range prev {
		x, y := 2*c.X, 2*c.Y
		x0, x1 := x-m.cfg.ROIRadius, x+m.cfg.ROIRadius
		y0, y1 := y-m.cfg.ROIRadius, y+m.cfg.ROIRadius
		if x0 < 0 {
			x0 = 0
		}
		if y0 < 0 {
			y0 = 0
		}
		if x1 > maxX {
			x1 = maxX
		}
		if y1 > maxY {
			y1 = maxY
		}
		if x0 > x1 || y0 > y1 || maxX < 0 || maxY < 0 {
			m.log().Debug("corrmatch: candidate dropped at border during refinement",
				"level", level, "x", c.X, "y", c.Y, "angle_deg", c.AngleDeg)
			continue
		}
		roi := kernel.Roi{X: x0, Y: y0, Width: x1 - x0 + 1, Height: y1 - y0 + 1}

		if m.cfg.Rotation == RotationEnabled {
			halfRange := float64(m.cfg.AngleHalfRangeSteps) * stepL
			for _, angleIdx := range grid.IndicesWithin(c.AngleDeg, halfRange) {
				raw, err := m.scanROIMasked(level, angleIdx, view, roi)
				if err != nil {
					continue
				}
				peaks = append(peaks, toTopKPeaks(raw, angleIdx, m.cfg.PerAngleTopK)...)
			}
		} else {
			raw, err := m.scanROIUnmasked(level, view, roi)
			if err != nil {
				return nil, err
			}
			peaks = append(peaks, peaksFromKernel(raw, 0)...)
		}
	}

	return m.collapseBeam(peaks, level)
}

// collapseBeam applies NMS and beam-width truncation, failing NoCandidates
// if nothing survives.
func (m *Matcher) collapseBeam(peaks []candidate.Peak, level int) ([]trackCandidate, error) {
	nmsed := candidate.NMS2D(peaks, m.cfg.NMSRadius)
	if len(nmsed) > m.cfg.BeamWidth {
		nmsed = nmsed[:m.cfg.BeamWidth]
	}
	if len(nmsed) == 0 {
		return nil, fmt.Errorf("%w: beam empty at level %d", cmerr.ErrNoCandidates, level)
	}

	var grid *bank.AngleGrid
	if m.cfg.Rotation == RotationEnabled {
		g, err := m.compiled.AngleGridAt(level)
		if err != nil {
			return nil, err
		}
		grid = &g
	}

	out := make([]trackCandidate, len(nmsed))
	for i, p := range nmsed {
		angleDeg := 0.0
		if grid != nil {
			angleDeg = grid.AngleAt(p.AngleIdx)
		}
		out[i] = trackCandidate{X: p.X, Y: p.Y, AngleDeg: angleDeg, AngleIdx: p.AngleIdx, Score: p.Score}
	}
	return out, nil
}

// fanOutAngles runs fn for every angle index, optionally in parallel, and
// merges results in angle order for determinism.
func (m *Matcher) fanOutAngles(count int, fn func(angleIdx int) []candidate.Peak) []candidate.Peak {
	if !m.cfg.Parallel {
		var out []candidate.Peak
		for a := 0; a < count; a++ {
			out = append(out, fn(a)...)
		}
		return out
	}

	results := make([][]candidate.Peak, count)
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for a := 0; a < count; a++ {
		a := a
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[a] = fn(a)
		}()
	}
	wg.Wait()

	var out []candidate.Peak
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func (m *Matcher) scanFullMasked(level, angleIdx int, view imgview.View) ([]kernel.Candidate, error) {
	switch m.cfg.Metric {
	case MetricSSD:
		plan, err := m.compiled.RotatedSSDPlan(level, angleIdx)
		if err != nil {
			return nil, err
		}
		return kernel.SSDMaskedFull(view, plan, m.scanParams()), nil
	default:
		plan, err := m.compiled.RotatedZNCCPlan(level, angleIdx)
		if err != nil {
			return nil, err
		}
		return kernel.ZNCCMaskedFull(view, plan, m.scanParams()), nil
	}
}

func (m *Matcher) scanROIMasked(level, angleIdx int, view imgview.View, roi kernel.Roi) ([]kernel.Candidate, error) {
	switch m.cfg.Metric {
	case MetricSSD:
		plan, err := m.compiled.RotatedSSDPlan(level, angleIdx)
		if err != nil {
			return nil, err
		}
		return kernel.SSDMaskedROI(view, plan, roi, m.scanParams()), nil
	default:
		plan, err := m.compiled.RotatedZNCCPlan(level, angleIdx)
		if err != nil {
			return nil, err
		}
		return kernel.ZNCCMaskedROI(view, plan, roi, m.scanParams()), nil
	}
}

func (m *Matcher) scanFullUnmasked(level int, view imgview.View) ([]kernel.Candidate, error) {
	switch m.cfg.Metric {
	case MetricSSD:
		plan, err := m.compiled.UnmaskedSSDPlan(level)
		if err != nil {
			return nil, err
		}
		if m.cfg.Parallel {
			return kernel.SSDUnmaskedFullParallel(view, plan, m.scanParams()), nil
		}
		return kernel.SSDUnmaskedFull(view, plan, m.scanParams()), nil
	default:
		plan, err := m.compiled.UnmaskedZNCCPlan(level)
		if err != nil {
			return nil, err
		}
		if m.cfg.Parallel {
			return kernel.ZNCCUnmaskedFullParallel(view, plan, m.scanParams()), nil
		}
		return kernel.ZNCCUnmaskedFull(view, plan, m.scanParams()), nil
	}
}

func (m *Matcher) scanROIUnmasked(level int, view imgview.View, roi kernel.Roi) ([]kernel.Candidate, error) {
	switch m.cfg.Metric {
	case MetricSSD:
		plan, err := m.compiled.UnmaskedSSDPlan(level)
		if err != nil {
			return nil, err
		}
		return kernel.SSDUnmaskedROI(view, plan, roi, m.scanParams()), nil
	default:
		plan, err := m.compiled.UnmaskedZNCCPlan(level)
		if err != nil {
			return nil, err
		}
		return kernel.ZNCCUnmaskedROI(view, plan, roi, m.scanParams()), nil
	}
}

func peaksFromKernel(raw []kernel.Candidate, angleIdx int) []candidate.Peak {
	out := make([]candidate.Peak, len(raw))
	for i, c := range raw {
		out[i] = candidate.Peak{X: c.X, Y: c.Y, AngleIdx: angleIdx, Score: c.Score}
	}
	return out
}

func toTopKPeaks(raw []kernel.Candidate, angleIdx, k int) []candidate.Peak {
	topK := candidate.NewTopK(k)
	topK.OfferAll(peaksFromKernel(raw, angleIdx))
	return topK.Peaks()
}

// refineFinal applies subpixel/subangle refinement (§4.8) to one beam
// member, falling back to its integer coordinates and beam score if the
// center score is non-finite.
func (m *Matcher) refineFinal(pyramid imgview.Pyramid, c trackCandidate) Match {
	level0, ok := pyramid.Level(0)
	if !ok {
		return Match{X: float64(c.X), Y: float64(c.Y), AngleDeg: c.AngleDeg, Score: c.Score}
	}
	view := level0.View()

	scoreAt := func(x, y, angleIdx int) (float64, bool) {
		switch {
		case m.cfg.Rotation == RotationEnabled && m.cfg.Metric == MetricSSD:
			plan, err := m.compiled.RotatedSSDPlan(0, angleIdx)
			if err != nil {
				return math.Inf(-1), false
			}
			return kernel.SSDMaskedAt(view, plan, x, y)
		case m.cfg.Rotation == RotationEnabled:
			plan, err := m.compiled.RotatedZNCCPlan(0, angleIdx)
			if err != nil {
				return math.Inf(-1), false
			}
			return kernel.ZNCCMaskedAt(view, plan, x, y, m.cfg.MinVarI)
		case m.cfg.Metric == MetricSSD:
			plan, err := m.compiled.UnmaskedSSDPlan(0)
			if err != nil {
				return math.Inf(-1), false
			}
			return kernel.SSDUnmaskedAt(view, plan, x, y)
		default:
			plan, err := m.compiled.UnmaskedZNCCPlan(0)
			if err != nil {
				return math.Inf(-1), false
			}
			return kernel.ZNCCUnmaskedAt(view, plan, x, y, m.cfg.MinVarI)
		}
	}

	fallback := Match{X: float64(c.X), Y: float64(c.Y), AngleDeg: c.AngleDeg, Score: c.Score}

	s0, ok := scoreAt(c.X, c.Y, c.AngleIdx)
	if !ok || math.IsInf(s0, 0) || math.IsNaN(s0) {
		return fallback
	}

	var neighborhood [3][3]float64
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			sc, ok := scoreAt(c.X+dx, c.Y+dy, c.AngleIdx)
			if !ok {
				sc = math.Inf(-1)
			}
			neighborhood[dy+1][dx+1] = sc
		}
	}
	xf, yf := refine.RefineSubpixel2D(c.X, c.Y, neighborhood)

	angleDeg := c.AngleDeg
	if m.cfg.Rotation == RotationEnabled {
		grid, err := m.compiled.AngleGridAt(0)
		if err == nil && grid.Len() > 0 {
			n := grid.Len()
			prevIdx := ((c.AngleIdx-1)%n + n) % n
			nextIdx := (c.AngleIdx + 1) % n
			fm, okm := scoreAt(c.X, c.Y, prevIdx)
			fp, okp := scoreAt(c.X, c.Y, nextIdx)
			if !okm {
				fm = math.Inf(-1)
			}
			if !okp {
				fp = math.Inf(-1)
			}
			angleDeg = refine.RefineSubangle(grid.AngleAt(c.AngleIdx), grid.StepDeg(), fm, s0, fp)
		}
	}

	return Match{X: xf, Y: yf, AngleDeg: angleDeg, Score: s0}
}
