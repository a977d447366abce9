// Package imgview provides borrowed, strided 2D views over grayscale pixel
// buffers and a contiguous owned image type built on top of them. A View
// never copies its backing data; FromView copies into a new Owned, while
// NewOwned wraps the given buffer as is.
package imgview

import (
	"fmt"

	"github.com/soocke/corrmatch/internal/cmerr"
)

// View is a borrowed 2D view over a 1D byte buffer. Stride counts elements
// between the starts of consecutive rows, so Stride > Width represents a
// view into padded or larger storage (e.g. an ROI of a bigger image). View
// never allocates and never outlives the slice it was built from.
type View struct {
	data   []byte
	width  int
	height int
	stride int
}

// requiredLen returns the minimum buffer length needed for width, height and
// stride, guarding against overflow.
func requiredLen(width, height, stride int) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("%w: width=%d height=%d", cmerr.ErrInvalidDimensions, width, height)
	}
	if stride < width {
		return 0, fmt.Errorf("%w: stride=%d width=%d", cmerr.ErrInvalidStride, stride, width)
	}
	// (height-1)*stride + width, checked against overflow.
	rows := height - 1
	if rows > 0 && stride > (1<<62)/rows {
		return 0, fmt.Errorf("%w: width=%d height=%d", cmerr.ErrInvalidDimensions, width, height)
	}
	needed := rows*stride + width
	return needed, nil
}

// NewContiguous builds a View with Stride == Width.
func NewContiguous(data []byte, width, height int) (View, error) {
	return New(data, width, height, width)
}

// New builds a View with an explicit stride, failing if the buffer is too
// small or the dimensions/stride are invalid.
func New(data []byte, width, height, stride int) (View, error) {
	needed, err := requiredLen(width, height, stride)
	if err != nil {
		return View{}, err
	}
	if len(data) < needed {
		return View{}, fmt.Errorf("%w: needed=%d got=%d", cmerr.ErrBufferTooSmall, needed, len(data))
	}
	return View{data: data, width: width, height: height, stride: stride}, nil
}

// Width returns the view width in pixels.
func (v View) Width() int { return v.width }

// Height returns the view height in pixels.
func (v View) Height() int { return v.height }

// Stride returns the number of elements between the start of consecutive
// rows.
func (v View) Stride() int { return v.stride }

// Data returns the backing slice, including any row padding beyond Width.
func (v View) Data() []byte { return v.data }

// At returns the pixel value at (x, y). It does not check x against Width or
// y against Height: an x past Width reads row padding or the next row, and
// only an index past the backing slice panics. Callers on a hot path should
// already know they are in bounds (this mirrors Row, which is the primary
// accessor used by kernels).
func (v View) At(x, y int) byte {
	return v.data[y*v.stride+x]
}

// Row returns a contiguous slice of length Width for row y.
func (v View) Row(y int) []byte {
	start := y * v.stride
	return v.data[start : start+v.width]
}

// ROI returns a zero-copy view into the same backing buffer, sharing the
// parent's stride. It fails with ErrRoiOutOfBounds if the requested
// rectangle does not fit within the parent.
func (v View) ROI(x, y, width, height int) (View, error) {
	if width <= 0 || height <= 0 {
		return View{}, fmt.Errorf("%w: width=%d height=%d", cmerr.ErrInvalidDimensions, width, height)
	}
	if x < 0 || y < 0 || x+width > v.width || y+height > v.height {
		return View{}, fmt.Errorf("%w: x=%d y=%d w=%d h=%d parent=%dx%d",
			cmerr.ErrRoiOutOfBounds, x, y, width, height, v.width, v.height)
	}
	start := y*v.stride + x
	// The ROI's last row starts at (height-1)*stride from `start` and needs
	// `width` elements; slice through that point, not through the parent's
	// remaining buffer, so future ROI calls on the child still see the full
	// parent stride.
	end := start + (height-1)*v.stride + width
	return View{data: v.data[start:end], width: width, height: height, stride: v.stride}, nil
}

// Owned is a contiguous grayscale image (Stride == Width).
type Owned struct {
	pix    []byte
	width  int
	height int
}

// NewOwned wraps pix as a contiguous width x height grayscale image. pix is
// taken by reference, not copied.
func NewOwned(pix []byte, width, height int) (Owned, error) {
	if width <= 0 || height <= 0 {
		return Owned{}, fmt.Errorf("%w: width=%d height=%d", cmerr.ErrInvalidDimensions, width, height)
	}
	needed := width * height
	if len(pix) < needed {
		return Owned{}, fmt.Errorf("%w: needed=%d got=%d", cmerr.ErrBufferTooSmall, needed, len(pix))
	}
	return Owned{pix: pix[:needed], width: width, height: height}, nil
}

// FromView copies a View into a new contiguous Owned image.
func FromView(v View) Owned {
	pix := make([]byte, v.width*v.height)
	for y := 0; y < v.height; y++ {
		copy(pix[y*v.width:(y+1)*v.width], v.Row(y))
	}
	o, _ := NewOwned(pix, v.width, v.height)
	return o
}

// Width returns the image width in pixels.
func (o Owned) Width() int { return o.width }

// Height returns the image height in pixels.
func (o Owned) Height() int { return o.height }

// Pix returns the backing contiguous pixel buffer.
func (o Owned) Pix() []byte { return o.pix }

// View returns a contiguous View into the owned buffer.
func (o Owned) View() View {
	v, _ := NewContiguous(o.pix, o.width, o.height)
	return v
}
