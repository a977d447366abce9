package kernel

import (
	"math"

	"github.com/soocke/corrmatch/imgview"
	"github.com/soocke/corrmatch/template"
)

// ZNCCUnmaskedFull scans every placement of an unmasked ZNCC plan over the
// full search image.
func ZNCCUnmaskedFull(search imgview.View, plan *template.UnmaskedZNCCPlan, params ScanParams) []Candidate {
	return znccUnmasked(search, plan, nil, params)
}

// ZNCCUnmaskedROI scans an unmasked ZNCC plan restricted to roi.
func ZNCCUnmaskedROI(search imgview.View, plan *template.UnmaskedZNCCPlan, roi Roi, params ScanParams) []Candidate {
	return znccUnmasked(search, plan, &roi, params)
}

func znccUnmasked(search imgview.View, plan *template.UnmaskedZNCCPlan, roi *Roi, params ScanParams) []Candidate {
	x0, y0, x1, y1, ok := clampRoi(roi, search.Width(), search.Height(), plan.Width, plan.Height)
	if !ok {
		return nil
	}
	n := float64(plan.Width * plan.Height)

	var out []Candidate
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			var sumI, sumI2, dot float64
			for ty := 0; ty < plan.Height; ty++ {
				row := search.Row(y + ty)[x : x+plan.Width]
				zm := plan.ZeroMean[ty*plan.Width : (ty+1)*plan.Width]
				for tx, v := range row {
					f := float64(v)
					sumI += f
					sumI2 += f * f
					dot += f * zm[tx]
				}
			}
			// Sum-form variance (unnormalized): matches the original
			// kernel's var_i = sum_i2 - sum_i^2/n convention, so min_var_i
			// gates on the same quantity regardless of window size.
			varSum := sumI2 - sumI*sumI/n
			if varSum <= params.MinVarI {
				continue
			}
			varI := varSum / n
			score := sanitizeScore(dot / (n * math.Sqrt(varI*plan.VarT)))
			if score < params.MinScore {
				continue
			}
			out = append(out, Candidate{X: x, Y: y, Score: score})
		}
	}
	return out
}

// ZNCCMaskedFull scans every placement of a masked ZNCC plan over the full
// search image.
func ZNCCMaskedFull(search imgview.View, plan *template.MaskedZNCCPlan, params ScanParams) []Candidate {
	return znccMasked(search, plan, nil, params)
}

// ZNCCMaskedROI scans a masked ZNCC plan restricted to roi.
func ZNCCMaskedROI(search imgview.View, plan *template.MaskedZNCCPlan, roi Roi, params ScanParams) []Candidate {
	return znccMasked(search, plan, &roi, params)
}

func znccMasked(search imgview.View, plan *template.MaskedZNCCPlan, roi *Roi, params ScanParams) []Candidate {
	x0, y0, x1, y1, ok := clampRoi(roi, search.Width(), search.Height(), plan.Width, plan.Height)
	if !ok {
		return nil
	}
	n := plan.SumW

	var out []Candidate
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			var sumI, sumI2, dot float64
			for ty := 0; ty < plan.Height; ty++ {
				row := search.Row(y + ty)[x : x+plan.Width]
				maskRow := plan.Mask[ty*plan.Width : (ty+1)*plan.Width]
				zm := plan.TPrime[ty*plan.Width : (ty+1)*plan.Width]
				for tx, v := range row {
					if maskRow[tx] == 0 {
						continue
					}
					f := float64(v)
					sumI += f
					sumI2 += f * f
					dot += f * zm[tx]
				}
			}
			varSum := sumI2 - sumI*sumI/n
			if varSum <= params.MinVarI {
				continue
			}
			varI := varSum / n
			score := sanitizeScore(dot / (n * math.Sqrt(varI*plan.VarT)))
			if score < params.MinScore {
				continue
			}
			out = append(out, Candidate{X: x, Y: y, Score: score})
		}
	}
	return out
}

// SSDUnmaskedFull scans every placement of an unmasked SSD plan over the
// full search image, scoring with negative sum-of-squared-differences
// (higher is better, matching the ZNCC convention).
func SSDUnmaskedFull(search imgview.View, plan *template.UnmaskedSSDPlan, params ScanParams) []Candidate {
	return ssdUnmasked(search, plan, nil, params)
}

// SSDUnmaskedROI scans an unmasked SSD plan restricted to roi.
func SSDUnmaskedROI(search imgview.View, plan *template.UnmaskedSSDPlan, roi Roi, params ScanParams) []Candidate {
	return ssdUnmasked(search, plan, &roi, params)
}

func ssdUnmasked(search imgview.View, plan *template.UnmaskedSSDPlan, roi *Roi, params ScanParams) []Candidate {
	x0, y0, x1, y1, ok := clampRoi(roi, search.Width(), search.Height(), plan.Width, plan.Height)
	if !ok {
		return nil
	}

	var sumT2 float64
	for _, t := range plan.Values {
		sumT2 += t * t
	}

	var out []Candidate
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			var sumI2, dot float64
			for ty := 0; ty < plan.Height; ty++ {
				row := search.Row(y + ty)[x : x+plan.Width]
				tRow := plan.Values[ty*plan.Width : (ty+1)*plan.Width]
				for tx, v := range row {
					f := float64(v)
					sumI2 += f * f
					dot += f * tRow[tx]
				}
			}
			// SSD has no variance gate: min_var_i is a ZNCC-only concept.
			score := sanitizeScore(-(sumI2 - 2*dot + sumT2))
			if score < params.MinScore {
				continue
			}
			out = append(out, Candidate{X: x, Y: y, Score: score})
		}
	}
	return out
}

// SSDMaskedFull scans every placement of a masked SSD plan over the full
// search image.
func SSDMaskedFull(search imgview.View, plan *template.MaskedSSDPlan, params ScanParams) []Candidate {
	return ssdMasked(search, plan, nil, params)
}

// SSDMaskedROI scans a masked SSD plan restricted to roi.
func SSDMaskedROI(search imgview.View, plan *template.MaskedSSDPlan, roi Roi, params ScanParams) []Candidate {
	return ssdMasked(search, plan, &roi, params)
}

func ssdMasked(search imgview.View, plan *template.MaskedSSDPlan, roi *Roi, params ScanParams) []Candidate {
	x0, y0, x1, y1, ok := clampRoi(roi, search.Width(), search.Height(), plan.Width, plan.Height)
	if !ok {
		return nil
	}

	var n, sumT2 float64
	for i, t := range plan.Values {
		if plan.Mask[i] == 0 {
			continue
		}
		n++
		sumT2 += t * t
	}
	if n < 1 {
		return nil
	}

	var out []Candidate
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			var sumI2, dot float64
			for ty := 0; ty < plan.Height; ty++ {
				row := search.Row(y + ty)[x : x+plan.Width]
				maskRow := plan.Mask[ty*plan.Width : (ty+1)*plan.Width]
				tRow := plan.Values[ty*plan.Width : (ty+1)*plan.Width]
				for tx, v := range row {
					if maskRow[tx] == 0 {
						continue
					}
					f := float64(v)
					sumI2 += f * f
					dot += f * tRow[tx]
				}
			}
			// SSD has no variance gate: min_var_i is a ZNCC-only concept.
			score := sanitizeScore(-(sumI2 - 2*dot + sumT2))
			if score < params.MinScore {
				continue
			}
			out = append(out, Candidate{X: x, Y: y, Score: score})
		}
	}
	return out
}
