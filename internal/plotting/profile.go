// Package plotting writes quick-look PNG plots of reduction products.
package plotting

import (
	"errors"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var ErrNoData = errors.New("nothing to plot")

func init() {
	plot.DefaultFont = font.Font{Typeface: "Liberation", Variant: "Sans", Style: 0, Weight: 3, Size: font.Points(14)}
}

// Profile writes a line plot of ys against their index to path. NaN
// samples are left out. Each extra series in more is drawn in its own
// colour.
func Profile(path, title, xlabel, ylabel string, ys []float64, more ...[]float64) error {

	series := append([][]float64{ys}, more...)
	var vs []interface{}
	xmax := 0.0
	for _, s := range series {
		pts := make(plotter.XYs, 0, len(s))
		for i, y := range s {
			if math.IsNaN(y) || math.IsInf(y, 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(i), Y: y})
		}
		if len(pts) == 0 {
			continue
		}
		xmax = math.Max(xmax, float64(len(s)-1))
		vs = append(vs, pts)
	}
	if len(vs) == 0 {
		return ErrNoData
	}

	plt := plot.New()
	plt.X.Min = 0
	plt.X.Max = xmax
	plt.Title.Text = title
	plt.X.Label.Text = xlabel
	plt.Y.Label.Text = ylabel

	if err := plotutil.AddLines(plt, vs...); err != nil {
		return err
	}
	return plt.Save(14*vg.Inch, 5*vg.Inch, path)
}

// Rows writes one profile per image row, as used for the integrated
// spectra of the pseudo slits.
func Rows(path, title string, width int, data []float64) error {
	if width <= 0 || len(data) < width {
		return ErrNoData
	}
	var rows [][]float64
	for y := 0; y+width <= len(data); y += width {
		rows = append(rows, data[y:y+width])
	}
	return Profile(path, title, "pixel", "counts", rows[0], rows[1:]...)
}
