package main

import (
	"fmt"
	"image"
	"math"

	"naojutils/internal/display"
	"naojutils/internal/fitsimg"
)

// hdu is one displayable image of a file.
type hdu struct {
	index int
	label string
	img   *fitsimg.Image
}

// imageHDUs returns the HDUs of a file that carry pixels. The label names
// the HDU by EXTNAME or DET-ID when present.
func imageHDUs(images []*fitsimg.Image) []hdu {
	var out []hdu
	for i, img := range images {
		if img.Empty() {
			continue
		}
		label := fmt.Sprintf("HDU %d", i)
		if name, err := img.Header.String("EXTNAME"); err == nil && name != "" {
			label += " " + name
		} else if det, err := img.Header.Int("DET-ID"); err == nil {
			label += fmt.Sprintf(" DET-ID %d", det)
		}
		out = append(out, hdu{index: i, label: label, img: img})
	}
	return out
}

func labels(hdus []hdu) []string {
	out := make([]string, len(hdus))
	for i, h := range hdus {
		out[i] = h.label
	}
	return out
}

// render stretches img between black and white. With crop set only the
// region of interest is drawn; with outline set the full frame is drawn
// with the region marked.
func render(img *fitsimg.Image, roi *display.ROI, crop, outline bool, black, white float64) (*image.Gray, error) {
	if crop {
		sub, err := roi.Crop(img)
		if err != nil {
			return nil, err
		}
		img = sub
	}
	pic := display.Stretch(img.Data, img.Width(), img.Height(), black, white)
	if outline && !crop {
		roi.Outline(pic)
	}
	return pic, nil
}

// dataRange returns the finite minimum and maximum of data, used as the
// slider limits.
func dataRange(data []float64) (lo, hi float64) {
	first := true
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}
