// Package bank implements the per-level, per-angle plan cache
// (CompiledTemplate): a template pyramid plus, when rotation search is
// enabled, a lazily materialized grid of rotated plans per pyramid level.
package bank

import (
	"fmt"
	"math"

	"github.com/soocke/corrmatch/internal/cmerr"
)

// AngleGrid is a circular, discrete set of angles in degrees covering a
// half-open interval [minDeg, maxDeg) with a positive step. All angles are
// normalized to [-180, 180) when read back via AngleAt.
type AngleGrid struct {
	minDeg, maxDeg, stepDeg float64
	length                  int
}

// FullCircle builds a grid covering [-180, 180) with the given step.
func FullCircle(stepDeg float64) (AngleGrid, error) {
	return NewAngleGrid(-180, 180, stepDeg)
}

// NewAngleGrid builds a grid over [minDeg, maxDeg) with a positive step.
func NewAngleGrid(minDeg, maxDeg, stepDeg float64) (AngleGrid, error) {
	if math.IsNaN(minDeg) || math.IsInf(minDeg, 0) ||
		math.IsNaN(maxDeg) || math.IsInf(maxDeg, 0) ||
		math.IsNaN(stepDeg) || math.IsInf(stepDeg, 0) {
		return AngleGrid{}, fmt.Errorf("%w: non-finite angle grid parameters", cmerr.ErrInvalidAngleGrid)
	}
	if stepDeg <= 0 {
		return AngleGrid{}, fmt.Errorf("%w: step_deg must be > 0", cmerr.ErrInvalidAngleGrid)
	}
	if maxDeg <= minDeg {
		return AngleGrid{}, fmt.Errorf("%w: max_deg must be greater than min_deg", cmerr.ErrInvalidAngleGrid)
	}

	length := 0
	for {
		angle := minDeg + float64(length)*stepDeg
		if angle >= maxDeg {
			break
		}
		length++
	}
	if length == 0 {
		return AngleGrid{}, fmt.Errorf("%w: angle grid produced no samples", cmerr.ErrInvalidAngleGrid)
	}

	return AngleGrid{minDeg: minDeg, maxDeg: maxDeg, stepDeg: stepDeg, length: length}, nil
}

// Len returns the number of discrete angles in the grid.
func (g AngleGrid) Len() int { return g.length }

// StepDeg returns the grid step in degrees.
func (g AngleGrid) StepDeg() float64 { return g.stepDeg }

// wrapDeg normalizes an angle to [-180, 180).
func wrapDeg(deg float64) float64 {
	wrapped := math.Mod(deg+180, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	return wrapped - 180
}

// AngleAt returns the normalized angle, in degrees, at idx.
func (g AngleGrid) AngleAt(idx int) float64 {
	return wrapDeg(g.minDeg + float64(idx)*g.stepDeg)
}

// circularDist returns the absolute circular distance in degrees between two
// angles.
func circularDist(a, b float64) float64 {
	return math.Abs(wrapDeg(a - b))
}

// NearestIndex returns the index of the grid angle closest to angleDeg by
// circular distance.
func (g AngleGrid) NearestIndex(angleDeg float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i := 0; i < g.length; i++ {
		d := circularDist(angleDeg, g.AngleAt(i))
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// IndicesWithin returns the indices whose grid angle lies within
// halfRangeDeg of centerDeg by circular distance. Returns nil if
// halfRangeDeg is negative.
func (g AngleGrid) IndicesWithin(centerDeg, halfRangeDeg float64) []int {
	if halfRangeDeg < 0 {
		return nil
	}
	var indices []int
	for i := 0; i < g.length; i++ {
		if circularDist(g.AngleAt(i), centerDeg) <= halfRangeDeg {
			indices = append(indices, i)
		}
	}
	return indices
}
