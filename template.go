package corrmatch

import (
	"github.com/soocke/corrmatch/imgview"
	"github.com/soocke/corrmatch/template"
)

// Template is a grayscale patch to search for.
type Template = template.Template

// View is a borrowed 2D grayscale view over a byte buffer.
type View = imgview.View

// NewTemplate builds a Template from width*height contiguous grayscale
// bytes.
func NewTemplate(pix []byte, width, height int) (Template, error) {
	return template.New(pix, width, height)
}

// NewView builds a borrowed view over contiguous or strided grayscale
// bytes: width W, height H, row stride S >= W.
func NewView(data []byte, width, height, stride int) (View, error) {
	return imgview.New(data, width, height, stride)
}
