package bank

import (
	"fmt"
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/soocke/corrmatch/imgview"
	"github.com/soocke/corrmatch/internal/cmerr"
	"github.com/soocke/corrmatch/rotate"
	"github.com/soocke/corrmatch/template"
)

// CompileUnrotatedConfig configures compile_unrotated (no rotation search).
type CompileUnrotatedConfig struct {
	// MaxLevels caps the template pyramid depth; clamped to >= 1.
	MaxLevels int
}

// Validate checks MaxLevels is usable, clamping it if necessary.
func (c *CompileUnrotatedConfig) Validate() error {
	if c.MaxLevels < 1 {
		c.MaxLevels = 1
	}
	return nil
}

// CompileConfig configures compile_rotated (rotation search enabled).
type CompileConfig struct {
	// MaxLevels caps the template pyramid depth; must be >= 1.
	MaxLevels int
	// CoarseStepDeg is the angle grid step, in degrees, at the coarsest
	// pyramid level.
	CoarseStepDeg float64
	// MinStepDeg is the minimum angle step across all levels; finer levels
	// halve CoarseStepDeg per level but never go below this floor.
	MinStepDeg float64
	// FillValue is used for rotated pixels that sample outside the source.
	FillValue byte
	// PrecomputeCoarsest, if set, materializes every angle slot of the
	// coarsest level eagerly instead of lazily on first access.
	PrecomputeCoarsest bool
}

// DefaultCompileConfig returns reasonable defaults for rotation-enabled
// compilation.
func DefaultCompileConfig() CompileConfig {
	return CompileConfig{
		MaxLevels:          6,
		CoarseStepDeg:      10.0,
		MinStepDeg:         0.5,
		FillValue:          0,
		PrecomputeCoarsest: true,
	}
}

// Validate checks that MaxLevels >= 1 and that 0 < MinStepDeg <= CoarseStepDeg,
// both finite.
func (c *CompileConfig) Validate() error {
	if c.MaxLevels < 1 {
		return fmt.Errorf("%w: max_levels must be >= 1, got %d", cmerr.ErrInvalidConfig, c.MaxLevels)
	}
	if math.IsNaN(c.CoarseStepDeg) || math.IsInf(c.CoarseStepDeg, 0) ||
		math.IsNaN(c.MinStepDeg) || math.IsInf(c.MinStepDeg, 0) {
		return fmt.Errorf("%w: step degrees must be finite", cmerr.ErrInvalidConfig)
	}
	if c.MinStepDeg <= 0 {
		return fmt.Errorf("%w: min_step_deg must be > 0, got %g", cmerr.ErrInvalidConfig, c.MinStepDeg)
	}
	if c.MinStepDeg > c.CoarseStepDeg {
		return fmt.Errorf("%w: min_step_deg must be <= coarse_step_deg", cmerr.ErrInvalidConfig)
	}
	return nil
}

// rotatedResult is what a LevelBank slot resolves to: either a materialized
// rotated plan, or the error encountered building it.
type rotatedResult struct {
	plan *rotatedPlan
	err  error
}

// rotatedPlan bundles a rotated template image with its masked ZNCC/SSD
// plans for one (level, angle) pair.
type rotatedPlan struct {
	angleDeg float64
	img      imgview.Owned
	zncc     template.MaskedZNCCPlan
	ssd      template.MaskedSSDPlan
}

// LevelBank holds the angle grid for one pyramid level and the lazily
// materialized rotated plan for each angle in that grid. Each slot is
// computed at most once under concurrent access: a sync.Once per slot lets
// the first caller build the plan and publish it into the shared cache,
// while concurrent callers for the same slot wait for that build and then
// read the published result.
type LevelBank struct {
	grid  AngleGrid
	onces []sync.Once
	cache *lru.Cache[int, *rotatedResult]
}

func newLevelBank(grid AngleGrid) *LevelBank {
	// Sized to the grid length so no entry is ever evicted: the cache here
	// exists for its concurrent-safe Get/Add, not for LRU eviction.
	cache, _ := lru.New[int, *rotatedResult](grid.Len())
	return &LevelBank{
		grid:  grid,
		onces: make([]sync.Once, grid.Len()),
		cache: cache,
	}
}

// getOrBuild returns the materialized rotated plan for angleIdx, building it
// on first access.
func (b *LevelBank) getOrBuild(angleIdx int, levelImg imgview.View, fillValue byte) (*rotatedPlan, error) {
	if angleIdx < 0 || angleIdx >= len(b.onces) {
		return nil, fmt.Errorf("%w: angle_idx=%d len=%d", cmerr.ErrIndexOutOfBounds, angleIdx, len(b.onces))
	}

	b.onces[angleIdx].Do(func() {
		angle := b.grid.AngleAt(angleIdx)
		rotatedImg, mask := rotate.Bilinear(levelImg, angle, fillValue)
		znccPlan, err := template.BuildMaskedZNCCPlan(rotatedImg.View(), mask)
		if err != nil {
			b.cache.Add(angleIdx, &rotatedResult{err: err})
			return
		}
		ssdPlan := template.BuildMaskedSSDPlan(rotatedImg.View(), mask)
		b.cache.Add(angleIdx, &rotatedResult{
			plan: &rotatedPlan{angleDeg: angle, img: rotatedImg, zncc: znccPlan, ssd: ssdPlan},
		})
	})

	res, ok := b.cache.Get(angleIdx)
	if !ok {
		// Unreachable in practice: Do() only returns after cache.Add ran.
		return nil, fmt.Errorf("%w: angle slot %d never published", cmerr.ErrIndexOutOfBounds, angleIdx)
	}
	return res.plan, res.err
}

// CompiledTemplate is either the Unrotated variant (pyramid + unmasked
// plans per level) or the Rotated variant (pyramid + unmasked plans +
// LevelBank per level). Use Rotated() to tell them apart.
type CompiledTemplate struct {
	pyramid      imgview.Pyramid
	unmaskedZncc []template.UnmaskedZNCCPlan
	unmaskedSsd  []template.UnmaskedSSDPlan
	banks        []*LevelBank // nil unless rotation is enabled
	fillValue    byte
}

// Rotated reports whether this CompiledTemplate supports rotation search.
func (c *CompiledTemplate) Rotated() bool { return c.banks != nil }

// NumLevels returns the number of pyramid levels.
func (c *CompiledTemplate) NumLevels() int { return c.pyramid.NumLevels() }

// LevelSize returns the width and height of a pyramid level.
func (c *CompiledTemplate) LevelSize(level int) (width, height int, ok bool) {
	img, ok := c.pyramid.Level(level)
	if !ok {
		return 0, 0, false
	}
	return img.Width(), img.Height(), true
}

// LevelView returns a view over a pyramid level's image.
func (c *CompiledTemplate) LevelView(level int) (imgview.View, error) {
	img, ok := c.pyramid.Level(level)
	if !ok {
		return imgview.View{}, fmt.Errorf("%w: level=%d len=%d", cmerr.ErrIndexOutOfBounds, level, c.pyramid.NumLevels())
	}
	return img.View(), nil
}

// UnmaskedZNCCPlan returns the precomputed unmasked ZNCC plan for a level.
func (c *CompiledTemplate) UnmaskedZNCCPlan(level int) (*template.UnmaskedZNCCPlan, error) {
	if level < 0 || level >= len(c.unmaskedZncc) {
		return nil, fmt.Errorf("%w: level=%d len=%d", cmerr.ErrIndexOutOfBounds, level, len(c.unmaskedZncc))
	}
	return &c.unmaskedZncc[level], nil
}

// UnmaskedSSDPlan returns the precomputed unmasked SSD plan for a level.
func (c *CompiledTemplate) UnmaskedSSDPlan(level int) (*template.UnmaskedSSDPlan, error) {
	if level < 0 || level >= len(c.unmaskedSsd) {
		return nil, fmt.Errorf("%w: level=%d len=%d", cmerr.ErrIndexOutOfBounds, level, len(c.unmaskedSsd))
	}
	return &c.unmaskedSsd[level], nil
}

// AngleGridAt returns the angle grid for a level. Fails with
// ErrRotationUnavailable if this CompiledTemplate was compiled unrotated.
func (c *CompiledTemplate) AngleGridAt(level int) (AngleGrid, error) {
	if c.banks == nil {
		return AngleGrid{}, fmt.Errorf("%w: template compiled without rotation", cmerr.ErrRotationUnavailable)
	}
	if level < 0 || level >= len(c.banks) {
		return AngleGrid{}, fmt.Errorf("%w: level=%d len=%d", cmerr.ErrIndexOutOfBounds, level, len(c.banks))
	}
	return c.banks[level].grid, nil
}

func (c *CompiledTemplate) rotated(level, angleIdx int) (*rotatedPlan, error) {
	if c.banks == nil {
		return nil, fmt.Errorf("%w: template compiled without rotation", cmerr.ErrRotationUnavailable)
	}
	if level < 0 || level >= len(c.banks) {
		return nil, fmt.Errorf("%w: level=%d len=%d", cmerr.ErrIndexOutOfBounds, level, len(c.banks))
	}
	levelImg, err := c.LevelView(level)
	if err != nil {
		return nil, err
	}
	return c.banks[level].getOrBuild(angleIdx, levelImg, c.fillValue)
}

// RotatedZNCCPlan returns the masked ZNCC plan for (level, angleIdx),
// materializing it lazily if necessary.
func (c *CompiledTemplate) RotatedZNCCPlan(level, angleIdx int) (*template.MaskedZNCCPlan, error) {
	r, err := c.rotated(level, angleIdx)
	if err != nil {
		return nil, err
	}
	return &r.zncc, nil
}

// RotatedSSDPlan returns the masked SSD plan for (level, angleIdx),
// materializing it lazily if necessary.
func (c *CompiledTemplate) RotatedSSDPlan(level, angleIdx int) (*template.MaskedSSDPlan, error) {
	r, err := c.rotated(level, angleIdx)
	if err != nil {
		return nil, err
	}
	return &r.ssd, nil
}

// RotatedView returns the materialized rotated template image for
// (level, angleIdx), useful for debugging/visualization.
func (c *CompiledTemplate) RotatedView(level, angleIdx int) (imgview.View, error) {
	r, err := c.rotated(level, angleIdx)
	if err != nil {
		return imgview.View{}, err
	}
	return r.img.View(), nil
}

// stepForLevel computes the angle grid step for pyramid level L given the
// coarsest level index: the grid coarsens geometrically toward the coarsest
// level and is clamped to never go finer than minStep.
// step_L = max(coarse_step / 2^(coarsest_index - L), min_step).
func stepForLevel(level, coarsestIndex int, coarseStep, minStep float64) float64 {
	exp := coarsestIndex - level
	step := coarseStep / math.Pow(2, float64(exp))
	if step < minStep {
		step = minStep
	}
	return step
}

// CompileUnrotated builds a CompiledTemplate with only the unmasked plans
// per pyramid level (no rotation search support).
func CompileUnrotated(tpl template.Template, cfg CompileUnrotatedConfig) (*CompiledTemplate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pyramid := imgview.BuildPyramid(tpl.View(), cfg.MaxLevels)
	return buildUnmaskedPlans(pyramid, nil, 0)
}

// CompileRotated builds a CompiledTemplate with unmasked plans per level and
// a LevelBank of lazily materialized masked plans per (level, angle).
func CompileRotated(tpl template.Template, cfg CompileConfig) (*CompiledTemplate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pyramid := imgview.BuildPyramid(tpl.View(), cfg.MaxLevels)
	numLevels := pyramid.NumLevels()
	coarsestIndex := numLevels - 1

	banks := make([]*LevelBank, numLevels)
	for level := 0; level < numLevels; level++ {
		step := stepForLevel(level, coarsestIndex, cfg.CoarseStepDeg, cfg.MinStepDeg)
		grid, err := FullCircle(step)
		if err != nil {
			return nil, err
		}
		banks[level] = newLevelBank(grid)
	}

	compiled, err := buildUnmaskedPlans(pyramid, banks, cfg.FillValue)
	if err != nil {
		return nil, err
	}

	if cfg.PrecomputeCoarsest && coarsestIndex >= 0 {
		coarseLevelImg, ok := pyramid.Level(coarsestIndex)
		if !ok {
			return nil, fmt.Errorf("%w: level=%d len=%d", cmerr.ErrIndexOutOfBounds, coarsestIndex, numLevels)
		}
		bank := banks[coarsestIndex]
		for angleIdx := 0; angleIdx < bank.grid.Len(); angleIdx++ {
			if _, err := bank.getOrBuild(angleIdx, coarseLevelImg.View(), cfg.FillValue); err != nil {
				return nil, err
			}
		}
	}

	return compiled, nil
}

func buildUnmaskedPlans(pyramid imgview.Pyramid, banks []*LevelBank, fillValue byte) (*CompiledTemplate, error) {
	numLevels := pyramid.NumLevels()
	znccPlans := make([]template.UnmaskedZNCCPlan, numLevels)
	ssdPlans := make([]template.UnmaskedSSDPlan, numLevels)

	for level := 0; level < numLevels; level++ {
		img, ok := pyramid.Level(level)
		if !ok {
			return nil, fmt.Errorf("%w: level=%d len=%d", cmerr.ErrIndexOutOfBounds, level, numLevels)
		}
		znccPlan, err := template.BuildUnmaskedZNCCPlan(img.View())
		if err != nil {
			return nil, err
		}
		znccPlans[level] = znccPlan
		ssdPlans[level] = template.BuildUnmaskedSSDPlan(img.View())
	}

	return &CompiledTemplate{
		pyramid:      pyramid,
		unmaskedZncc: znccPlans,
		unmaskedSsd:  ssdPlans,
		banks:        banks,
		fillValue:    fillValue,
	}, nil
}
