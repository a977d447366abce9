package imgview

import (
	"errors"
	"testing"

	"github.com/soocke/corrmatch/internal/cmerr"
)

func TestNewContiguousRejectsZeroDimensions(t *testing.T) {
	if _, err := NewContiguous(make([]byte, 4), 0, 2); !errors.Is(err, cmerr.ErrInvalidDimensions) {
		t.Fatalf("want ErrInvalidDimensions, got %v", err)
	}
}

func TestNewRejectsShortStride(t *testing.T) {
	if _, err := New(make([]byte, 16), 4, 4, 2); !errors.Is(err, cmerr.ErrInvalidStride) {
		t.Fatalf("want ErrInvalidStride, got %v", err)
	}
}

func TestNewRejectsBufferTooSmall(t *testing.T) {
	if _, err := New(make([]byte, 10), 4, 4, 4); !errors.Is(err, cmerr.ErrBufferTooSmall) {
		t.Fatalf("want ErrBufferTooSmall, got %v", err)
	}
}

func TestRowIsContiguousSlice(t *testing.T) {
	data := []byte{1, 2, 0, 0, 3, 4, 0, 0}
	v, err := New(data, 2, 2, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	row0 := v.Row(0)
	if len(row0) != 2 || row0[0] != 1 || row0[1] != 2 {
		t.Fatalf("row0 = %v", row0)
	}
	row1 := v.Row(1)
	if row1[0] != 3 || row1[1] != 4 {
		t.Fatalf("row1 = %v", row1)
	}
}

func TestROIOutOfBounds(t *testing.T) {
	v, err := NewContiguous(make([]byte, 16), 4, 4)
	if err != nil {
		t.Fatalf("NewContiguous: %v", err)
	}
	if _, err := v.ROI(2, 2, 3, 3); !errors.Is(err, cmerr.ErrRoiOutOfBounds) {
		t.Fatalf("want ErrRoiOutOfBounds, got %v", err)
	}
}

func TestROISharesParentStride(t *testing.T) {
	data := make([]byte, 6*6)
	for i := range data {
		data[i] = byte(i)
	}
	v, err := NewContiguous(data, 6, 6)
	if err != nil {
		t.Fatalf("NewContiguous: %v", err)
	}
	roi, err := v.ROI(1, 1, 2, 2)
	if err != nil {
		t.Fatalf("ROI: %v", err)
	}
	if roi.Width() != 2 || roi.Height() != 2 {
		t.Fatalf("roi dims = %dx%d", roi.Width(), roi.Height())
	}
	if roi.At(0, 0) != v.At(1, 1) || roi.At(1, 1) != v.At(2, 2) {
		t.Fatalf("roi does not alias parent data")
	}
}
