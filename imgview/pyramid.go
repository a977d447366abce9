package imgview

import (
	"modernc.org/mathutil"
)

// Pyramid is an ordered sequence of Owned images: level 0 is the base
// resolution, and each subsequent level is the floor(prev/2) box-filter
// downsample of the previous one. The coarsest level is the last element.
type Pyramid struct {
	levels []Owned
}

// BuildPyramid constructs a pyramid from a base view. maxLevels is clamped
// to at least 1 so the base level is always present. Construction stops
// once the most recently built level's width or height is smaller than 2,
// or once maxLevels levels have been produced, whichever comes first.
func BuildPyramid(base View, maxLevels int) Pyramid {
	maxLevels = mathutil.Max(maxLevels, 1)

	levels := make([]Owned, 0, maxLevels)
	levels = append(levels, FromView(base))

	for len(levels) < maxLevels {
		prev := levels[len(levels)-1]
		if prev.Width() < 2 || prev.Height() < 2 {
			break
		}
		levels = append(levels, downsampleBoxFilter(prev))
	}

	return Pyramid{levels: levels}
}

// downsampleBoxFilter halves an image's dimensions using a 2x2 box filter
// with rounding: dst = (a+b+c+d+2) >> 2. Odd trailing rows/columns are
// discarded (floor division on both dimensions).
func downsampleBoxFilter(src Owned) Owned {
	srcView := src.View()
	dstWidth := src.Width() / 2
	dstHeight := src.Height() / 2
	dst := make([]byte, dstWidth*dstHeight)

	for y := 0; y < dstHeight; y++ {
		row0 := srcView.Row(2 * y)
		row1 := srcView.Row(2*y + 1)
		dstRow := dst[y*dstWidth : (y+1)*dstWidth]
		for x := 0; x < dstWidth; x++ {
			a := uint16(row0[2*x])
			b := uint16(row0[2*x+1])
			c := uint16(row1[2*x])
			d := uint16(row1[2*x+1])
			dstRow[x] = byte((a + b + c + d + 2) >> 2)
		}
	}

	out, _ := NewOwned(dst, dstWidth, dstHeight)
	return out
}

// NumLevels returns the number of levels in the pyramid.
func (p Pyramid) NumLevels() int { return len(p.levels) }

// Level returns the image at the given level index, or false if out of
// range.
func (p Pyramid) Level(index int) (Owned, bool) {
	if index < 0 || index >= len(p.levels) {
		return Owned{}, false
	}
	return p.levels[index], true
}

// Levels returns all pyramid levels, level 0 first (finest), last element
// coarsest.
func (p Pyramid) Levels() []Owned { return p.levels }
