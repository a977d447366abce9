package kernel

import (
	"math"

	"github.com/soocke/corrmatch/imgview"
	"github.com/soocke/corrmatch/template"
)

// ZNCCUnmaskedAt scores a single placement, returning ok=false if (x,y) is
// out of the valid placement range.
func ZNCCUnmaskedAt(search imgview.View, plan *template.UnmaskedZNCCPlan, x, y int, minVarI float64) (score float64, ok bool) {
	if !inRange(x, y, search.Width(), search.Height(), plan.Width, plan.Height) {
		return math.Inf(-1), false
	}
	n := float64(plan.Width * plan.Height)
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
	varSum := sumI2 - sumI*sumI/n
	if varSum <= minVarI {
		return math.Inf(-1), true
	}
	varI := varSum / n
	return sanitizeScore(dot / (n * math.Sqrt(varI*plan.VarT))), true
}

// ZNCCMaskedAt is ZNCCUnmaskedAt for a masked plan.
func ZNCCMaskedAt(search imgview.View, plan *template.MaskedZNCCPlan, x, y int, minVarI float64) (score float64, ok bool) {
	if !inRange(x, y, search.Width(), search.Height(), plan.Width, plan.Height) {
		return math.Inf(-1), false
	}
	n := plan.SumW
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
	if varSum <= minVarI {
		return math.Inf(-1), true
	}
	varI := varSum / n
	return sanitizeScore(dot / (n * math.Sqrt(varI*plan.VarT))), true
}

// SSDUnmaskedAt scores a single placement with negative SSD.
func SSDUnmaskedAt(search imgview.View, plan *template.UnmaskedSSDPlan, x, y int) (score float64, ok bool) {
	if !inRange(x, y, search.Width(), search.Height(), plan.Width, plan.Height) {
		return math.Inf(-1), false
	}
	var sumI2, dot, sumT2 float64
	for ty := 0; ty < plan.Height; ty++ {
		row := search.Row(y + ty)[x : x+plan.Width]
		tRow := plan.Values[ty*plan.Width : (ty+1)*plan.Width]
		for tx, v := range row {
			f := float64(v)
			sumI2 += f * f
			dot += f * tRow[tx]
			sumT2 += tRow[tx] * tRow[tx]
		}
	}
	return sanitizeScore(-(sumI2 - 2*dot + sumT2)), true
}

// SSDMaskedAt is SSDUnmaskedAt for a masked plan.
func SSDMaskedAt(search imgview.View, plan *template.MaskedSSDPlan, x, y int) (score float64, ok bool) {
	if !inRange(x, y, search.Width(), search.Height(), plan.Width, plan.Height) {
		return math.Inf(-1), false
	}
	var sumI2, dot, sumT2 float64
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
			sumT2 += tRow[tx] * tRow[tx]
		}
	}
	return sanitizeScore(-(sumI2 - 2*dot + sumT2)), true
}

func inRange(x, y, searchW, searchH, tplW, tplH int) bool {
	return x >= 0 && y >= 0 && x+tplW <= searchW && y+tplH <= searchH
}
