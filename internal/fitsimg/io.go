package fitsimg

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/astrogo/fitsio"
)

var (
	ErrNoImage = errors.New("no image data")
	ErrExists  = errors.New("file exists")
)

// Load returns the first HDU of path that carries image data.
func Load(path string) (*Image, error) {
	imgs, err := LoadAll(path)
	if err != nil {
		return nil, err
	}
	for _, img := range imgs {
		if !img.Empty() {
			return img, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNoImage)
}

// LoadAll returns every image HDU of path in file order, including
// header-only ones. Table HDUs are skipped.
func LoadAll(path string) ([]*Image, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", path, err)
	}
	defer f.Close()

	var out []*Image
	for i, hdu := range f.HDUs() {
		fimg, ok := hdu.(fitsio.Image)
		if !ok {
			continue
		}
		img, err := fromHDU(fimg)
		if err != nil {
			return nil, fmt.Errorf("%s: HDU %d: %w", path, i, err)
		}
		out = append(out, img)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoImage)
	}
	return out, nil
}

func fromHDU(hdu fitsio.Image) (*Image, error) {
	fh := hdu.Header()
	axes := fh.Axes()
	if len(axes) > 2 {
		return nil, fmt.Errorf("NAXIS=%d not supported", len(axes))
	}

	var cards []fitsio.Card
	for i := 0; i < len(fh.Keys()); i++ {
		cards = append(cards, *fh.Card(i))
	}
	h := NewHeader(cards...)

	bzero, bscale := 0.0, 1.0
	if h.Has("BZERO") {
		v, err := h.Float("BZERO")
		if err != nil {
			return nil, err
		}
		bzero = v
	}
	if h.Has("BSCALE") {
		v, err := h.Float("BSCALE")
		if err != nil {
			return nil, err
		}
		bscale = v
	}
	blank, hasBlank := 0, false
	if h.Has("BLANK") && fh.Bitpix() > 0 {
		v, err := h.Int("BLANK")
		if err != nil {
			return nil, err
		}
		blank, hasBlank = v, true
	}

	n := 0
	if len(axes) > 0 {
		n = 1
		for _, a := range axes {
			n *= a
		}
	}

	img := &Image{
		Header: h,
		Naxis:  append([]int(nil), axes...),
		Bitpix: fh.Bitpix(),
	}
	if bzero == 32768 && bscale == 1 && fh.Bitpix() == 16 {
		img.Unsigned = true
	}
	h.Remove("BZERO", "BSCALE", "BLANK")
	if n == 0 {
		return img, nil
	}

	raw, err := readPixels(hdu, fh.Bitpix(), n)
	if err != nil {
		return nil, err
	}
	for i, v := range raw {
		if hasBlank && v == float64(blank) {
			raw[i] = math.NaN()
			continue
		}
		raw[i] = bzero + bscale*v
	}
	img.Data = raw
	return img, nil
}

type pixel interface {
	~uint8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

func widen[T pixel](src []T) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}

func readInto[T pixel](hdu fitsio.Image, n int) ([]float64, error) {
	buf := make([]T, n)
	if err := hdu.Read(&buf); err != nil {
		return nil, fmt.Errorf("could not read pixels: %w", err)
	}
	return widen(buf), nil
}

func readPixels(hdu fitsio.Image, bitpix, n int) ([]float64, error) {
	switch bitpix {
	case 8:
		return readInto[uint8](hdu, n)
	case 16:
		return readInto[int16](hdu, n)
	case 32:
		return readInto[int32](hdu, n)
	case 64:
		return readInto[int64](hdu, n)
	case -32:
		return readInto[float32](hdu, n)
	case -64:
		return readInto[float64](hdu, n)
	}
	return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
}

// Save writes the images to path. The first image becomes the primary HDU,
// the rest are written as IMAGE extensions. An existing file is only
// replaced when overwrite is set.
func Save(path string, overwrite bool, images ...*Image) error {
	if len(images) == 0 {
		return fmt.Errorf("%s: %w", path, ErrNoImage)
	}
	if !overwrite && PathExists(path) {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}

	w, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeFile(w, images); err != nil {
		_ = w.Close()
		_ = os.Remove(path)
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

func writeFile(w io.Writer, images []*Image) error {
	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("could not create FITS stream: %w", err)
	}
	for i, img := range images {
		if err := writeHDU(f, img, i); err != nil {
			_ = f.Close()
			return fmt.Errorf("HDU %d: %w", i, err)
		}
	}
	return f.Close()
}

func writeHDU(f *fitsio.File, img *Image, index int) error {
	bitpix := img.Bitpix
	switch bitpix {
	case 0:
		bitpix = -32
	case 8, 16, 32, -32, -64:
	default:
		return fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
	var axes []int
	if !img.Empty() {
		axes = img.Naxis
	}
	hdu := fitsio.NewImage(bitpix, axes)
	defer hdu.Close()

	var cards []fitsio.Card
	if img.Unsigned && bitpix == 16 && !img.Empty() {
		cards = append(cards,
			fitsio.Card{Name: "BZERO", Value: 32768, Comment: "offset data range to that of unsigned short"},
			fitsio.Card{Name: "BSCALE", Value: 1, Comment: "default scaling factor"},
		)
	}
	h := img.Header
	if h == nil {
		h = NewHeader()
	}
	for _, card := range h.Cards() {
		switch card.Name {
		case "BZERO", "BSCALE", "BLANK":
			continue
		case "EXTNAME":
			if index == 0 {
				continue
			}
		}
		cards = append(cards, card)
	}
	if index > 0 && !h.Has("EXTNAME") {
		cards = append(cards, fitsio.Card{Name: "EXTNAME", Value: fmt.Sprintf("IMAGE%d", index)})
	}
	if err := hdu.Header().Append(cards...); err != nil {
		return err
	}

	if !img.Empty() {
		if err := encodePixels(hdu, img, bitpix); err != nil {
			return err
		}
	}
	return f.Write(hdu)
}

func clampTrunc(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Trunc(math.Max(lo, math.Min(hi, v)))
}

func encodePixels(hdu fitsio.Image, img *Image, bitpix int) error {
	switch bitpix {
	case 8:
		buf := make([]uint8, len(img.Data))
		for i, v := range img.Data {
			buf[i] = uint8(clampTrunc(v, 0, math.MaxUint8))
		}
		return hdu.Write(buf)
	case 16:
		buf := make([]int16, len(img.Data))
		for i, v := range img.Data {
			if img.Unsigned {
				buf[i] = int16(clampTrunc(v, 0, math.MaxUint16) - 32768)
			} else {
				buf[i] = int16(clampTrunc(v, math.MinInt16, math.MaxInt16))
			}
		}
		return hdu.Write(buf)
	case 32:
		buf := make([]int32, len(img.Data))
		for i, v := range img.Data {
			buf[i] = int32(clampTrunc(v, math.MinInt32, math.MaxInt32))
		}
		return hdu.Write(buf)
	case -32:
		buf := make([]float32, len(img.Data))
		for i, v := range img.Data {
			buf[i] = float32(v)
		}
		return hdu.Write(buf)
	case -64:
		buf := append([]float64(nil), img.Data...)
		return hdu.Write(buf)
	}
	return fmt.Errorf("unsupported BITPIX %d", bitpix)
}
