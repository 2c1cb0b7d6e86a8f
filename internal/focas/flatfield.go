package focas

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"naojutils/internal/fitsimg"
)

// FlexureShift predicts the x offset (binned pixels) of the pseudo slits
// caused by instrument flexure at the telescope elevation and instrument
// rotator angle of the exposure.
func (p *Processor) FlexureShift(h *fitsimg.Header) (float64, error) {
	bin, err := h.Int("BIN-FCT1")
	if err != nil {
		return 0, err
	}
	alt, err := h.Float("ALTITUDE")
	if err != nil {
		return 0, err
	}
	rot, err := h.Float("INSROT")
	if err != nil {
		return 0, err
	}
	el := alt * math.Pi / 180
	insrot := rot * math.Pi / 180
	a, b := p.cfg.Flexure.A, p.cfg.Flexure.B
	return a * math.Cos(el) * math.Cos(insrot+b) / float64(bin), nil
}

// ShiftRows moves every row of img by -dx pixels along x using a natural
// cubic spline. Samples falling outside a row take the nearest edge value.
func ShiftRows(img *fitsimg.Image, dx float64) (*fitsimg.Image, error) {
	out := img.Clone()
	if dx == 0 {
		return out, nil
	}
	w := img.Width()
	xs := make([]float64, w)
	for i := range xs {
		xs[i] = float64(i)
	}
	for y := 0; y < img.Height(); y++ {
		row := img.Row(y)
		pred, err := fitRow(xs, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", y, err)
		}
		dst := out.Row(y)
		for i := range dst {
			x := math.Max(0, math.Min(float64(w-1), float64(i)+dx))
			dst[i] = pred.Predict(x)
		}
	}
	return out, nil
}

func fitRow(xs, ys []float64) (interp.Predictor, error) {
	switch len(xs) {
	case 1:
		return constant(ys[0]), nil
	case 2:
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return nil, err
		}
		return &pl, nil
	}
	var nc interp.NaturalCubic
	if err := nc.Fit(xs, ys); err != nil {
		return nil, err
	}
	return &nc, nil
}

type constant float64

func (c constant) Predict(float64) float64 { return float64(c) }

// FlatField shifts the integrated science data by the flexure offset and
// divides it by the flat, scaled back to the mean level of the flat.
func FlatField(data, flat *fitsimg.Image, dx float64) (*fitsimg.Image, error) {
	if err := data.SameShape(flat); err != nil {
		return nil, fmt.Errorf("integrated data and flat: %w", err)
	}
	shifted, err := ShiftRows(data, dx)
	if err != nil {
		return nil, err
	}
	level := floats.Sum(flat.Data) / float64(len(flat.Data))
	for i, f := range flat.Data {
		shifted.Data[i] = shifted.Data[i] / f * level
	}
	return shifted, nil
}
