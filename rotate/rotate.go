// Package rotate implements bilinear inverse-rotation of a grayscale
// template image, producing both the rotated pixels and a coverage mask
// marking which destination pixels sampled valid source data.
package rotate

import (
	"math"

	"github.com/soocke/corrmatch/imgview"
)

// boundsEpsilon guards the in-bounds test against floating point rounding at
// the exact edge of the source image.
const boundsEpsilon = 1e-6

// Bilinear rotates src by angleDeg about its center using the inverse
// rotation, sampling with bilinear interpolation. The output has the same
// dimensions as src. Destination pixels whose source coordinate falls
// outside [0, W-1] x [0, H-1] (within boundsEpsilon) are set to fill with a
// mask bit of 0; all other pixels get mask bit 1.
func Bilinear(src imgview.View, angleDeg float64, fill byte) (imgview.Owned, []byte) {
	width := src.Width()
	height := src.Height()
	out := make([]byte, width*height)
	mask := make([]byte, width*height)
	for i := range out {
		out[i] = fill
	}

	rad := angleDeg * math.Pi / 180.0
	sinA, cosA := math.Sincos(rad)
	cx := (float64(width) - 1) * 0.5
	cy := (float64(height) - 1) * 0.5
	maxX := float64(width) - 1.0
	maxY := float64(height) - 1.0

	for y := 0; y < height; y++ {
		dy := float64(y) - cy
		for x := 0; x < width; x++ {
			dx := float64(x) - cx
			srcX := cosA*dx + sinA*dy + cx
			srcY := -sinA*dx + cosA*dy + cy

			idx := y*width + x
			if !inBounds(srcX, srcY, maxX, maxY) {
				out[idx] = fill
				mask[idx] = 0
				continue
			}

			if srcX < 0 {
				srcX = 0
			} else if srcX > maxX {
				srcX = maxX
			}
			if srcY < 0 {
				srcY = 0
			} else if srcY > maxY {
				srcY = maxY
			}

			x0 := int(math.Floor(srcX))
			y0 := int(math.Floor(srcY))
			x1 := x0 + 1
			if x1 > width-1 {
				x1 = width - 1
			}
			y1 := y0 + 1
			if y1 > height-1 {
				y1 = height - 1
			}
			fx := srcX - float64(x0)
			fy := srcY - float64(y0)

			row0 := src.Row(y0)
			row1 := src.Row(y1)
			a := float64(row0[x0])
			b := float64(row0[x1])
			c := float64(row1[x0])
			d := float64(row1[x1])

			w00 := (1 - fx) * (1 - fy)
			w10 := fx * (1 - fy)
			w01 := (1 - fx) * fy
			w11 := fx * fy
			value := a*w00 + b*w10 + c*w01 + d*w11

			rounded := math.Round(value)
			if rounded < 0 {
				rounded = 0
			} else if rounded > 255 {
				rounded = 255
			}
			out[idx] = byte(rounded)
			mask[idx] = 1
		}
	}

	owned, _ := imgview.NewOwned(out, width, height)
	return owned, mask
}

func inBounds(srcX, srcY, maxX, maxY float64) bool {
	if math.IsNaN(srcX) || math.IsNaN(srcY) {
		return false
	}
	return srcX >= -boundsEpsilon && srcY >= -boundsEpsilon &&
		srcX <= maxX+boundsEpsilon && srcY <= maxY+boundsEpsilon
}
