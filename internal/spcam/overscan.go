package spcam

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"naojutils/internal/fitsimg"
)

// SubtractOverscan subtracts, row by row, the median of each channel's
// overscan strip from its effective pixels and packs the effective regions
// side by side. The effective region keywords of the result describe the
// new layout.
func (r *Reducer) SubtractOverscan(img *fitsimg.Image, regs *Regions) (*fitsimg.Image, error) {
	w, h := img.Width(), img.Height()
	out := fitsimg.New(regs.Width, regs.Height)
	out.Header = img.Header.Clone()
	out.Header.Remove("BZERO", "BSCALE", "BLANK")

	r.log.Debug("effective pixel size", zap.Int("width", regs.Width), zap.Int("height", regs.Height))

	strip := make([]float64, 0, 64)
	for i, ch := range regs.Channels {
		if ch.EfMaxX >= w || ch.OsMaxX >= w || ch.EfMaxY >= h || ch.EfMinX < 0 || ch.OsMinX < 0 || ch.EfMinY < 0 {
			return nil, fmt.Errorf("%w: channel %d outside %dx%d frame", ErrRegions, i+1, w, h)
		}
		efwd := ch.effectiveWidth()
		for y := 0; y < ch.effectiveHeight(); y++ {
			row := img.Row(ch.EfMinY + y)
			strip = append(strip[:0], row[ch.OsMinX:ch.OsMaxX+1]...)
			median, err := stats.Median(strip)
			if err != nil {
				return nil, err
			}
			dst := out.Row(y)[ch.StartX : ch.StartX+efwd]
			for x, v := range row[ch.EfMinX : ch.EfMaxX+1] {
				dst[x] = v - median
			}
		}

		n := i + 1
		out.Header.Set(r.key("EFMN", n, 1), ch.StartX+1, "")
		out.Header.Set(r.key("EFMX", n, 1), ch.StartX+efwd+1, "")
		out.Header.Set(r.key("EFMN", n, 2), 1, "")
		out.Header.Set(r.key("EFMX", n, 2), ch.effectiveHeight()+1, "")
	}
	return out, nil
}

// RemoveOverscan reads the regions of img and subtracts its overscan.
func (r *Reducer) RemoveOverscan(img *fitsimg.Image) (*fitsimg.Image, error) {
	regs, err := r.Regions(img.Header)
	if err != nil {
		return nil, err
	}
	return r.SubtractOverscan(img, regs)
}
