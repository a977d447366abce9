// Package lowlevel re-exports the building blocks used internally by
// corrmatch (image views and pyramids, the plan cache, and the correlation
// kernels) for embedders who want to drive the pipeline themselves: e.g. to
// score a single custom placement, inspect a rotated template's coverage
// mask, or build a matcher variant with a different beam strategy.
//
// Most callers should use the root corrmatch package instead; this package
// exists for the minority who need the pieces, not the assembled Matcher.
package lowlevel

import (
	"github.com/soocke/corrmatch/bank"
	"github.com/soocke/corrmatch/imgview"
	"github.com/soocke/corrmatch/kernel"
)

// View is a borrowed 2D grayscale view; see imgview.View.
type View = imgview.View

// Owned is a contiguous grayscale image; see imgview.Owned.
type Owned = imgview.Owned

// Pyramid is an ordered sequence of successively halved images; see
// imgview.Pyramid.
type Pyramid = imgview.Pyramid

// NewView builds a borrowed view over contiguous or strided grayscale
// bytes.
func NewView(data []byte, width, height, stride int) (View, error) {
	return imgview.New(data, width, height, stride)
}

// BuildPyramid builds an image pyramid from a base view.
func BuildPyramid(base View, maxLevels int) Pyramid {
	return imgview.BuildPyramid(base, maxLevels)
}

// AngleGrid is the circular discrete set of angles searched at a pyramid
// level; see bank.AngleGrid.
type AngleGrid = bank.AngleGrid

// FullCircle builds an angle grid covering [-180, 180) with the given step.
func FullCircle(stepDeg float64) (AngleGrid, error) { return bank.FullCircle(stepDeg) }

// CompiledTemplate is a Template's precomputed pyramid and plan cache; see
// bank.CompiledTemplate.
type CompiledTemplate = bank.CompiledTemplate

// Candidate is a single scored placement produced by a kernel scan.
type Candidate = kernel.Candidate

// ScanParams bounds which placements a kernel scan reports.
type ScanParams = kernel.ScanParams

// Roi restricts a kernel scan to a sub-rectangle of the search image.
type Roi = kernel.Roi

// ZNCCUnmaskedFull runs an unmasked ZNCC scan over the full search image
// using a CompiledTemplate's precomputed plan for one pyramid level.
func ZNCCUnmaskedFull(search View, compiled *CompiledTemplate, level int, params ScanParams) ([]Candidate, error) {
	plan, err := compiled.UnmaskedZNCCPlan(level)
	if err != nil {
		return nil, err
	}
	return kernel.ZNCCUnmaskedFull(search, plan, params), nil
}

// RotatedView returns the materialized rotated template image for
// (level, angleIdx), useful for debugging or visualizing the coverage mask
// a rotation produces.
func RotatedView(compiled *CompiledTemplate, level, angleIdx int) (View, error) {
	return compiled.RotatedView(level, angleIdx)
}
