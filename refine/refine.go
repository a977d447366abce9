// Package refine estimates subpixel (x, y) position and subangle rotation
// from a local neighborhood of scores using separable 1D quadratic fits.
package refine

import "math"

// quadEps guards the curvature denominator against division by a
// near-zero or convex (non-peak) fit.
const quadEps = 1e-6

// QuadPeakOffset1D estimates the sub-sample peak offset, in [-1, 1], of a
// parabola fit through three equally spaced samples at x = -1, 0, +1 (fm,
// f0, fp). Returns ok=false if any sample is non-finite, the fit is convex
// or ill-conditioned (denom near zero or non-negative), or the resulting
// offset falls outside [-1, 1].
func QuadPeakOffset1D(fm, f0, fp float64) (offset float64, ok bool) {
	if math.IsNaN(fm) || math.IsInf(fm, 0) ||
		math.IsNaN(f0) || math.IsInf(f0, 0) ||
		math.IsNaN(fp) || math.IsInf(fp, 0) {
		return 0, false
	}

	denom := fm - 2*f0 + fp
	if math.Abs(denom) < quadEps || denom >= 0 {
		return 0, false
	}

	dx := 0.5 * (fm - fp) / denom
	if math.IsNaN(dx) || math.IsInf(dx, 0) || math.Abs(dx) > 1 {
		return 0, false
	}
	return dx, true
}

// RefineSubpixel2D refines an integer peak at (centerX, centerY) using
// separable 1D quadratic fits over a 3x3 neighborhood of scores s, indexed
// s[row][col] with the center at s[1][1]. Falls back to offset 0 on either
// axis when that axis's fit is ill-conditioned.
func RefineSubpixel2D(centerX, centerY int, s [3][3]float64) (x, y float64) {
	dx, _ := QuadPeakOffset1D(s[1][0], s[1][1], s[1][2])
	dy, _ := QuadPeakOffset1D(s[0][1], s[1][1], s[2][1])
	return float64(centerX) + dx, float64(centerY) + dy
}

// RefineSubangle estimates the refined angle, in degrees, given the scores
// at the angle index immediately below (fm), at (f0), and immediately
// above (fp) a peak angle index, and that angle grid's step. Falls back to
// the unrefined angle when the fit is ill-conditioned.
func RefineSubangle(angleDeg, stepDeg, fm, f0, fp float64) float64 {
	offset, ok := QuadPeakOffset1D(fm, f0, fp)
	if !ok {
		return angleDeg
	}
	return angleDeg + offset*stepDeg
}
