// Package search implements the coarse-to-fine beam search (Matcher) that
// walks a search image's pyramid from coarsest to finest level, carrying a
// bounded beam of candidates refined by ROI-restricted kernel scans and
// pruned by non-maximum suppression, before handing the best candidate(s)
// to subpixel/subangle refinement.
package search

import (
	"fmt"
	"math"

	"github.com/soocke/corrmatch/internal/cmerr"
)

// Metric selects the correlation metric used by a Matcher.
type Metric int

const (
	MetricZNCC Metric = iota
	MetricSSD
)

// RotationMode selects whether a Matcher searches over the angle grid.
type RotationMode int

const (
	RotationDisabled RotationMode = iota
	RotationEnabled
)

// MatchConfig configures a Matcher. See Validate for the recognized
// invariants.
type MatchConfig struct {
	Metric   Metric
	Rotation RotationMode
	// Parallel opts into data-parallel execution of per-angle or per-row
	// scans; results are bit-identical to the sequential path either way.
	Parallel bool
	// MaxImageLevels caps the search image's pyramid depth.
	MaxImageLevels int
	// BeamWidth bounds the number of candidates carried between levels.
	BeamWidth int
	// PerAngleTopK bounds how many peaks each angle's scan contributes
	// before NMS and beam truncation.
	PerAngleTopK int
	// NMSRadius is the Chebyshev-distance suppression radius.
	NMSRadius int
	// ROIRadius bounds the refinement search window around an upscaled
	// candidate.
	ROIRadius int
	// AngleHalfRangeSteps bounds, in grid-step units, which neighboring
	// angles are searched during refinement.
	AngleHalfRangeSteps int
	// MinVarI rejects placements with near-flat search windows (ZNCC only).
	MinVarI float64
	// MinScore discards placements scoring below this threshold.
	MinScore float64
}

// DefaultMatchConfig returns a reasonable starting configuration: unmasked
// ZNCC, rotation disabled, sequential execution.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Metric:              MetricZNCC,
		Rotation:            RotationDisabled,
		Parallel:            false,
		MaxImageLevels:      6,
		BeamWidth:           5,
		PerAngleTopK:        3,
		NMSRadius:           2,
		ROIRadius:           6,
		AngleHalfRangeSteps: 1,
		MinVarI:             1e-6,
		MinScore:            math.Inf(-1),
	}
}

// Validate checks the match config invariants: all counters and radii must
// be non-negative, widths/steps must be strictly positive, and thresholds
// must not be NaN.
func (c *MatchConfig) Validate() error {
	if c.MaxImageLevels < 1 {
		return fmt.Errorf("%w: max_image_levels must be >= 1, got %d", cmerr.ErrInvalidConfig, c.MaxImageLevels)
	}
	if c.BeamWidth < 1 {
		return fmt.Errorf("%w: beam_width must be >= 1, got %d", cmerr.ErrInvalidConfig, c.BeamWidth)
	}
	if c.PerAngleTopK < 1 {
		return fmt.Errorf("%w: per_angle_topk must be >= 1, got %d", cmerr.ErrInvalidConfig, c.PerAngleTopK)
	}
	if c.NMSRadius < 0 {
		return fmt.Errorf("%w: nms_radius must be >= 0, got %d", cmerr.ErrInvalidConfig, c.NMSRadius)
	}
	if c.ROIRadius < 0 {
		return fmt.Errorf("%w: roi_radius must be >= 0, got %d", cmerr.ErrInvalidConfig, c.ROIRadius)
	}
	if c.AngleHalfRangeSteps < 0 {
		return fmt.Errorf("%w: angle_half_range_steps must be >= 0, got %d", cmerr.ErrInvalidConfig, c.AngleHalfRangeSteps)
	}
	if math.IsNaN(c.MinVarI) || math.IsInf(c.MinVarI, 0) || c.MinVarI < 0 {
		return fmt.Errorf("%w: min_var_i must be finite and >= 0", cmerr.ErrInvalidConfig)
	}
	if math.IsNaN(c.MinScore) {
		return fmt.Errorf("%w: min_score must not be NaN", cmerr.ErrInvalidConfig)
	}
	return nil
}
