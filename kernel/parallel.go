package kernel

import (
	"math"
	"runtime"
	"sync"

	"github.com/soocke/corrmatch/imgview"
	"github.com/soocke/corrmatch/template"
)

// ZNCCUnmaskedFullParallel is ZNCCUnmaskedFull with rows sharded across
// goroutines, bounded by GOMAXPROCS. Each row's candidates are accumulated
// into a slot indexed by row so the merged result is byte-identical to the
// sequential scan regardless of goroutine scheduling.
func ZNCCUnmaskedFullParallel(search imgview.View, plan *template.UnmaskedZNCCPlan, params ScanParams) []Candidate {
	x0, y0, x1, y1, ok := clampRoi(nil, search.Width(), search.Height(), plan.Width, plan.Height)
	if !ok {
		return nil
	}
	n := float64(plan.Width * plan.Height)

	rows := make([][]Candidate, y1-y0+1)
	runRowsParallel(y0, y1, func(y int) {
		var rowOut []Candidate
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
			varSum := sumI2 - sumI*sumI/n
			if varSum <= params.MinVarI {
				continue
			}
			varI := varSum / n
			score := sanitizeScore(dot / (n * math.Sqrt(varI*plan.VarT)))
			if score < params.MinScore {
				continue
			}
			rowOut = append(rowOut, Candidate{X: x, Y: y, Score: score})
		}
		rows[y-y0] = rowOut
	})

	return flattenRows(rows)
}

// SSDUnmaskedFullParallel is SSDUnmaskedFull with rows sharded across
// goroutines; see ZNCCUnmaskedFullParallel for the determinism guarantee.
func SSDUnmaskedFullParallel(search imgview.View, plan *template.UnmaskedSSDPlan, params ScanParams) []Candidate {
	x0, y0, x1, y1, ok := clampRoi(nil, search.Width(), search.Height(), plan.Width, plan.Height)
	if !ok {
		return nil
	}

	var sumT2 float64
	for _, t := range plan.Values {
		sumT2 += t * t
	}

	rows := make([][]Candidate, y1-y0+1)
	runRowsParallel(y0, y1, func(y int) {
		var rowOut []Candidate
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
			rowOut = append(rowOut, Candidate{X: x, Y: y, Score: score})
		}
		rows[y-y0] = rowOut
	})

	return flattenRows(rows)
}

// runRowsParallel runs work(y) for every row y in [y0, y1], bounding
// concurrency to GOMAXPROCS with a semaphore channel.
func runRowsParallel(y0, y1 int, work func(y int)) {
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for y := y0; y <= y1; y++ {
		y := y
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			work(y)
		}()
	}
	wg.Wait()
}

// flattenRows concatenates per-row candidate slices in row order.
func flattenRows(rows [][]Candidate) []Candidate {
	total := 0
	for _, r := range rows {
		total += len(r)
	}
	if total == 0 {
		return nil
	}
	out := make([]Candidate, 0, total)
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}
