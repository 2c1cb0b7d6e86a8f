// Package display turns reduced frames into 8-bit grayscale pictures and
// keeps the viewer state that does not depend on a window toolkit: region
// of interest, folder history and the file cursor.
package display

import (
	"image"
	"math"

	"github.com/montanaflynn/stats"
)

// finite returns the samples that are neither NaN nor infinite.
func finite(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// AutoLevels picks black and white levels of median-3σ and median+5σ,
// clamped to the data range.
func AutoLevels(data []float64) (black, white float64, err error) {
	good := finite(data)
	median, err := stats.Median(good)
	if err != nil {
		return 0, 0, err
	}
	std, err := stats.StandardDeviation(good)
	if err != nil {
		return 0, 0, err
	}
	lo, _ := stats.Min(good)
	hi, _ := stats.Max(good)

	black = math.Max(lo, median-3*std)
	white = math.Min(hi, median+5*std)
	return black, white, nil
}

// Stretch maps data linearly from [black, white] onto 0..255. Values at or
// below black are 0, values above white are 255 and NaN is 0. With black
// greater than white the picture is inverted.
func Stretch(data []float64, width, height int, black, white float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))

	invert := black > white
	if invert {
		black, white = white, black
	}
	scale := 0.0
	if white > black {
		scale = 255 / (white - black)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if i >= len(data) {
				break
			}
			v := data[i]
			var b byte
			switch {
			case math.IsNaN(v) || v <= black:
				b = 0
			case v > white:
				b = 255
			default:
				b = byte(math.Round(scale * (v - black)))
			}
			if invert {
				b = ^b
			}
			// FITS rows run bottom to top
			img.Pix[(height-1-y)*img.Stride+x] = b
		}
	}
	return img
}
