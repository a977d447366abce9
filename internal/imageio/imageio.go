// Package imageio decodes common image file formats to the grayscale byte
// buffers corrmatch operates on. File decoding is explicitly out of scope
// for the matching library itself; this package is the external
// collaborator the CLI front-end uses to bridge the gap.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/soocke/corrmatch/imgview"
)

// DecodeGray reads an image file and converts it to a contiguous grayscale
// Owned image. The format is sniffed from the file content, not the
// extension, so PNG, JPEG, GIF, BMP, TIFF, and WebP all work regardless of
// the path's suffix.
func DecodeGray(path string) (imgview.Owned, error) {
	f, err := os.Open(path)
	if err != nil {
		return imgview.Owned{}, fmt.Errorf("imageio: open %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return imgview.Owned{}, fmt.Errorf("imageio: decode %s: %w", path, err)
	}

	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	pix := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := gray.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			pix[y*width+x] = byte(r >> 8)
		}
	}

	owned, err := imgview.NewOwned(pix, width, height)
	if err != nil {
		return imgview.Owned{}, fmt.Errorf("imageio: %s decoded as %s produced unusable dimensions: %w", path, format, err)
	}
	return owned, nil
}
