// Package kernel evaluates a correlation metric (ZNCC or SSD) of a compiled
// template plan against every valid placement in a search image, returning
// scored candidates. Kernels never know about pyramids, rotation, or
// non-maximum suppression; they are the innermost scoring loop.
package kernel

import "math"

// Candidate is a single scored placement: the template's top-left corner
// lands at (X, Y) in search-image coordinates.
type Candidate struct {
	X, Y  int
	Score float64
}

// ScanParams bounds which placements a scan reports.
type ScanParams struct {
	// MinVarI rejects placements whose search-window variance is at or
	// below this threshold: a flat window can't be meaningfully correlated
	// and would otherwise produce a noisy or undefined score.
	MinVarI float64
	// MinScore discards placements scoring below this threshold. Use
	// math.Inf(-1) to disable filtering.
	MinScore float64
}

// Roi restricts a scan to a sub-rectangle of the search image, given in
// search-image coordinates. The Roi bounds the template's top-left corner:
// a position is tried if it lies inside the Roi and the template's full
// footprint stays within the search image (the footprint may extend past
// the Roi).
type Roi struct {
	X, Y, Width, Height int
}

// sanitizeScore maps a non-finite score to negative infinity so it never
// wins a comparison against a real score.
func sanitizeScore(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return math.Inf(-1)
	}
	return score
}

// clampRoi intersects a requested Roi with the valid placement range
// [0, searchW-tplW] x [0, searchH-tplH], returning ok=false if the ranges
// don't overlap at all.
func clampRoi(roi *Roi, searchW, searchH, tplW, tplH int) (x0, y0, x1, y1 int, ok bool) {
	maxX := searchW - tplW
	maxY := searchH - tplH
	if maxX < 0 || maxY < 0 {
		return 0, 0, 0, 0, false
	}
	x0, y0, x1, y1 = 0, 0, maxX, maxY
	if roi != nil {
		if roi.X > x0 {
			x0 = roi.X
		}
		if roi.Y > y0 {
			y0 = roi.Y
		}
		roiX1 := roi.X + roi.Width - 1
		roiY1 := roi.Y + roi.Height - 1
		if roiX1 < x1 {
			x1 = roiX1
		}
		if roiY1 < y1 {
			y1 = roiY1
		}
	}
	if x0 > x1 || y0 > y1 {
		return 0, 0, 0, 0, false
	}
	return x0, y0, x1, y1, true
}
