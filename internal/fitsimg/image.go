package fitsimg

import (
	"errors"
	"fmt"
)

var ErrShapeMismatch = errors.New("image shapes differ")

// Image is one FITS image HDU held as float64 physical values. Data is row
// major: the pixel at (x, y) is Data[y*Width()+x].
type Image struct {
	Header *Header
	Naxis  []int // NAXIS1 first
	Data   []float64

	// Bitpix is the BITPIX used when the image is written.
	Bitpix int
	// Unsigned writes BITPIX 16 data as unsigned with BZERO=32768.
	Unsigned bool
}

// New returns a zero-filled width x height float32 image with an empty header.
func New(width, height int) *Image {
	return &Image{
		Header: NewHeader(),
		Naxis:  []int{width, height},
		Data:   make([]float64, width*height),
		Bitpix: -32,
	}
}

// New1D returns a zero-filled one-dimensional image of n pixels.
func New1D(n int) *Image {
	return &Image{
		Header: NewHeader(),
		Naxis:  []int{n},
		Data:   make([]float64, n),
		Bitpix: -64,
	}
}

// NewEmpty returns a header-only image, as used for the primary HDU of a
// multi-extension file.
func NewEmpty(h *Header) *Image {
	if h == nil {
		h = NewHeader()
	}
	return &Image{Header: h, Bitpix: 8}
}

func (img *Image) Width() int {
	if len(img.Naxis) == 0 {
		return 0
	}
	return img.Naxis[0]
}

func (img *Image) Height() int {
	switch len(img.Naxis) {
	case 0:
		return 0
	case 1:
		return 1
	}
	return img.Naxis[1]
}

func (img *Image) Empty() bool { return len(img.Data) == 0 }

func (img *Image) At(x, y int) float64 { return img.Data[y*img.Width()+x] }

func (img *Image) Set(x, y int, v float64) { img.Data[y*img.Width()+x] = v }

// Row returns row y as a slice sharing the image storage.
func (img *Image) Row(y int) []float64 {
	w := img.Width()
	return img.Data[y*w : (y+1)*w]
}

// SameShape reports an ErrShapeMismatch when the two images differ in size.
func (img *Image) SameShape(other *Image) error {
	if img.Width() != other.Width() || img.Height() != other.Height() {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch,
			img.Width(), img.Height(), other.Width(), other.Height())
	}
	return nil
}

// Clone returns a deep copy of the image.
func (img *Image) Clone() *Image {
	out := &Image{
		Header:   img.Header.Clone(),
		Naxis:    append([]int(nil), img.Naxis...),
		Data:     append([]float64(nil), img.Data...),
		Bitpix:   img.Bitpix,
		Unsigned: img.Unsigned,
	}
	return out
}

// Crop copies the rectangle [x0,x1) x [y0,y1). The header is cloned.
func (img *Image) Crop(x0, y0, x1, y1 int) (*Image, error) {
	if x0 < 0 || y0 < 0 || x1 > img.Width() || y1 > img.Height() || x0 >= x1 || y0 >= y1 {
		return nil, fmt.Errorf("crop [%d:%d, %d:%d] outside %dx%d image",
			x0, x1, y0, y1, img.Width(), img.Height())
	}
	out := New(x1-x0, y1-y0)
	out.Header = img.Header.Clone()
	out.Bitpix = img.Bitpix
	for y := y0; y < y1; y++ {
		copy(out.Row(y-y0), img.Row(y)[x0:x1])
	}
	return out, nil
}
