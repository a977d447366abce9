// Package template holds the grayscale Template type and the precomputed
// plans (moment buffers) that let the kernel package evaluate a score at a
// placement in O(n) instead of recomputing template statistics each time.
package template

import (
	"fmt"

	"github.com/soocke/corrmatch/imgview"
	"github.com/soocke/corrmatch/internal/cmerr"
)

// degenerateVarianceEps is the minimum accepted template variance; templates
// at or below this are rejected as degenerate (e.g. constant gray).
const degenerateVarianceEps = 1e-8

// Template is an owned grayscale patch to search for.
type Template struct {
	img imgview.Owned
}

// New builds a Template from width*height contiguous grayscale bytes.
func New(pix []byte, width, height int) (Template, error) {
	img, err := imgview.NewOwned(pix, width, height)
	if err != nil {
		return Template{}, err
	}
	return Template{img: img}, nil
}

// Width returns the template width in pixels.
func (t Template) Width() int { return t.img.Width() }

// Height returns the template height in pixels.
func (t Template) Height() int { return t.img.Height() }

// View returns a contiguous view over the template pixels.
func (t Template) View() imgview.View { return t.img.View() }

// Owned returns the underlying owned image.
func (t Template) Owned() imgview.Owned { return t.img }

// UnmaskedZNCCPlan holds the zero-mean template and variance needed for
// unmasked ZNCC scoring at a given pyramid level.
type UnmaskedZNCCPlan struct {
	Width, Height int
	ZeroMean      []float64 // t'[i] = t[i] - mean
	VarT          float64
}

// BuildUnmaskedZNCCPlan computes the zero-mean buffer and variance for a
// template view. Moments are accumulated in double precision; rejects with
// ErrDegenerateTemplate if the variance is at or below degenerateVarianceEps.
func BuildUnmaskedZNCCPlan(tpl imgview.View) (UnmaskedZNCCPlan, error) {
	width, height := tpl.Width(), tpl.Height()
	n := float64(width * height)

	var sum, sumSq float64
	for y := 0; y < height; y++ {
		row := tpl.Row(y)
		for _, v := range row {
			f := float64(v)
			sum += f
			sumSq += f * f
		}
	}
	mean := sum / n
	varT := sumSq/n - mean*mean
	if varT <= degenerateVarianceEps {
		return UnmaskedZNCCPlan{}, fmt.Errorf("%w: zero variance", cmerr.ErrDegenerateTemplate)
	}

	zeroMean := make([]float64, 0, width*height)
	for y := 0; y < height; y++ {
		for _, v := range tpl.Row(y) {
			zeroMean = append(zeroMean, float64(v)-mean)
		}
	}

	return UnmaskedZNCCPlan{Width: width, Height: height, ZeroMean: zeroMean, VarT: varT}, nil
}

// UnmaskedSSDPlan holds the template pixels as floats for unmasked SSD
// scoring.
type UnmaskedSSDPlan struct {
	Width, Height int
	Values        []float64
}

// BuildUnmaskedSSDPlan copies the template pixels into a float buffer.
func BuildUnmaskedSSDPlan(tpl imgview.View) UnmaskedSSDPlan {
	width, height := tpl.Width(), tpl.Height()
	values := make([]float64, 0, width*height)
	for y := 0; y < height; y++ {
		for _, v := range tpl.Row(y) {
			values = append(values, float64(v))
		}
	}
	return UnmaskedSSDPlan{Width: width, Height: height, Values: values}
}

// MaskedZNCCPlan holds a rotated template's masked zero-mean buffer and
// coverage mask for masked ZNCC scoring.
type MaskedZNCCPlan struct {
	Width, Height int
	TPrime        []float64 // m[i] * (t[i] - muT), 0 where mask is 0
	Mask          []byte    // 1 where valid, 0 where rotated-out
	SumW          float64   // number of valid (mask==1) pixels
	VarT          float64
}

// BuildMaskedZNCCPlan computes weighted mean/variance over mask==1 pixels of
// a rotated template. Rejects with ErrDegenerateTemplate if fewer than one
// valid pixel remains or the resulting variance is at or below
// degenerateVarianceEps.
func BuildMaskedZNCCPlan(rotated imgview.View, mask []byte) (MaskedZNCCPlan, error) {
	width, height := rotated.Width(), rotated.Height()

	var sumW, sumWT float64
	for y := 0; y < height; y++ {
		row := rotated.Row(y)
		base := y * width
		for x, v := range row {
			if mask[base+x] == 0 {
				continue
			}
			sumW++
			sumWT += float64(v)
		}
	}
	if sumW < 1 {
		return MaskedZNCCPlan{}, fmt.Errorf("%w: sum_w < 1", cmerr.ErrDegenerateTemplate)
	}
	muT := sumWT / sumW

	tPrime := make([]float64, width*height)
	var varT float64
	for y := 0; y < height; y++ {
		row := rotated.Row(y)
		base := y * width
		for x, v := range row {
			idx := base + x
			if mask[idx] == 0 {
				continue
			}
			d := float64(v) - muT
			tPrime[idx] = d
			varT += d * d
		}
	}
	// Normalize to a per-pixel variance so VarT is on the same footing as
	// UnmaskedZNCCPlan.VarT: the kernels' score formula divides by
	// n*sqrt(varI*VarT) with both varI and VarT per-pixel, and the n only
	// cancels out algebraically when VarT is per-pixel rather than summed.
	varT /= sumW
	if varT <= degenerateVarianceEps {
		return MaskedZNCCPlan{}, fmt.Errorf("%w: zero masked variance", cmerr.ErrDegenerateTemplate)
	}

	return MaskedZNCCPlan{
		Width: width, Height: height,
		TPrime: tPrime, Mask: mask,
		SumW: sumW, VarT: varT,
	}, nil
}

// MaskedSSDPlan holds a rotated template's pixels as floats plus its
// coverage mask for masked SSD scoring.
type MaskedSSDPlan struct {
	Width, Height int
	Values        []float64
	Mask          []byte
}

// BuildMaskedSSDPlan copies a rotated template's pixels into a float buffer
// alongside its coverage mask.
func BuildMaskedSSDPlan(rotated imgview.View, mask []byte) MaskedSSDPlan {
	width, height := rotated.Width(), rotated.Height()
	values := make([]float64, 0, width*height)
	for y := 0; y < height; y++ {
		for _, v := range rotated.Row(y) {
			values = append(values, float64(v))
		}
	}
	return MaskedSSDPlan{Width: width, Height: height, Values: values, Mask: mask}
}
