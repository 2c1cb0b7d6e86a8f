package focas

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"naojutils/internal/fitsimg"
)

// Options control ReconstructExposure.
type Options struct {
	TemplatePrefix string
	RegionFile     string // empty: configured file for the binning
	FlatFile       string // empty: no flat fielding
	Shift          bool   // apply the flexure shift before flat fielding
	Smooth         bool   // blend neighbouring slices instead of repeating them
}

// Reconstruct lays the integrated pseudo slits out as a 2-D image. Each
// slice is repeated 4/bin times so that rows approximate square pixels on
// the sky. Slices run from the last row of data (first slice) towards row 1;
// row 0 is the sky slice and is placed after a NaN border row.
func Reconstruct(data *fitsimg.Image, bin int, smooth bool) (*fitsimg.Image, error) {
	switch bin {
	case 1, 2, 4:
	default:
		return nil, fmt.Errorf("%w: BIN-FCT1=%d", ErrBinning, bin)
	}
	n := data.Height()
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 slices, got %d", n)
	}
	itnum := 4 / bin
	ymax := n - 1
	out := fitsimg.New(data.Width(), n*itnum+1)

	for i := 0; i < itnum; i++ {
		copy(out.Row(i), data.Row(ymax))
	}
	for j := 1; j < n-1; j++ {
		for i := 0; i < itnum; i++ {
			dst := out.Row(j*itnum + i)
			if !smooth {
				copy(dst, data.Row(ymax-j))
				continue
			}
			a, b := data.Row(ymax-j), data.Row(ymax-j-1)
			for x := range dst {
				dst[x] = (float64(itnum-i)*a[x] + float64(i)*b[x]) / float64(itnum)
			}
		}
	}
	border := out.Row(ymax * itnum)
	for x := range border {
		border[x] = math.NaN()
	}
	for i := 0; i < itnum; i++ {
		copy(out.Row(ymax*itnum+i+1), data.Row(0))
	}
	return out, nil
}

// ReconstructExposure reduces both chips of an IFU exposure and returns the
// reconstructed image.
func (p *Processor) ReconstructExposure(pair Pair, opts Options) (*fitsimg.Image, error) {
	stacked, err := p.BiasSubtract(pair, opts.TemplatePrefix)
	if err != nil {
		return nil, err
	}
	bin, err := stacked.Header.Int("BIN-FCT1")
	if err != nil {
		return nil, err
	}
	boxes, err := p.RegionsFor(opts.RegionFile, bin)
	if err != nil {
		return nil, err
	}
	integrated, err := Integrate(stacked, boxes)
	if err != nil {
		return nil, err
	}

	data := integrated
	flatted := false
	dx := 0.0
	if opts.FlatFile != "" {
		flat, err := fitsimg.Load(opts.FlatFile)
		if err != nil {
			return nil, err
		}
		if opts.Shift {
			if dx, err = p.FlexureShift(stacked.Header); err != nil {
				return nil, err
			}
		}
		if data, err = FlatField(integrated, flat, dx); err != nil {
			return nil, err
		}
		flatted = true
		p.log.Debug("flat fielded", zap.String("flat", opts.FlatFile), zap.Float64("xshift", dx))
	}

	out, err := Reconstruct(data, bin, opts.Smooth)
	if err != nil {
		return nil, err
	}
	if flatted {
		out.Header.Set("XSHFT", dx, "Xshift value of flat image (pix)")
	}
	out.Header.Set("ISFLATED", flatted, "True: Flat fielding is applied")
	if err := p.ReconHeader(stacked.Header, out.Header); err != nil {
		return nil, err
	}
	return out, nil
}

// ReconstructName is the default output name of a reconstructed exposure.
func ReconstructName(h *fitsimg.Header) (string, error) {
	id, err := h.String("FRAMEID")
	if err != nil {
		return "", err
	}
	return id + ".rcn.fits", nil
}
