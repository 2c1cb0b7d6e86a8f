package spcam

import (
	"fmt"
	"sort"

	"naojutils/internal/fitsimg"
)

// NumChannels is the number of readout amplifiers per CCD.
const NumChannels = 4

// Channel is the readout geometry of one amplifier. Bounds are 0-based and
// inclusive, as read from the header minus one.
type Channel struct {
	EfMinX, EfMaxX, EfMinY, EfMaxY int
	OsMinX, OsMaxX, OsMinY, OsMaxY int
	Gain                           float64

	// StartX is the first output column of the channel once the overscan
	// strips are cut out.
	StartX int
}

func (c Channel) effectiveWidth() int  { return c.EfMaxX + 1 - c.EfMinX }
func (c Channel) effectiveHeight() int { return c.EfMaxY + 1 - c.EfMinY }

// Regions describes the layout of one raw CCD frame.
type Regions struct {
	Channels [NumChannels]Channel

	// XCut and YCut are the overscan pixels removed along each axis.
	XCut, YCut int
	// Width and Height are the size of the trimmed image.
	Width, Height int
}

func (r *Reducer) key(kind string, channel, axis int) string {
	return fmt.Sprintf("%s_%s%d%d", r.cfg.Prefix, kind, channel, axis)
}

// Regions reads the effective and overscan regions of the four channels
// from h.
func (r *Reducer) Regions(h *fitsimg.Header) (*Regions, error) {
	var regs Regions
	order := make([]*Channel, 0, NumChannels)
	for i := range regs.Channels {
		n := i + 1
		ch := &regs.Channels[i]
		bounds := []struct {
			dst  *int
			name string
		}{
			{&ch.EfMinX, r.key("EFMN", n, 1)},
			{&ch.EfMaxX, r.key("EFMX", n, 1)},
			{&ch.EfMinY, r.key("EFMN", n, 2)},
			{&ch.EfMaxY, r.key("EFMX", n, 2)},
			{&ch.OsMinX, r.key("OSMN", n, 1)},
			{&ch.OsMaxX, r.key("OSMX", n, 1)},
			{&ch.OsMinY, r.key("OSMN", n, 2)},
			{&ch.OsMaxY, r.key("OSMX", n, 2)},
		}
		for _, b := range bounds {
			v, err := h.Int(b.name)
			if err != nil {
				return nil, err
			}
			*b.dst = v - 1
		}
		gain, err := h.Float(fmt.Sprintf("%s_GAIN%d", r.cfg.Prefix, n))
		if err != nil {
			return nil, err
		}
		ch.Gain = gain

		if ch.EfMaxX < ch.EfMinX || ch.EfMaxY < ch.EfMinY || ch.OsMaxX < ch.OsMinX {
			return nil, fmt.Errorf("%w: channel %d bounds out of order", ErrRegions, n)
		}
		regs.XCut += ch.OsMaxX - ch.OsMinX + 1
		regs.Width += ch.effectiveWidth()
		order = append(order, ch)
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].EfMaxX < order[j].EfMaxX })
	startX := 0
	for _, ch := range order {
		ch.StartX = startX
		startX += ch.effectiveWidth()
	}

	last := regs.Channels[NumChannels-1]
	regs.YCut = last.OsMaxY - last.OsMinY + 1
	regs.Height = last.effectiveHeight()
	for i, ch := range regs.Channels {
		if ch.effectiveHeight() != regs.Height {
			return nil, fmt.Errorf("%w: channel %d has %d effective rows, expected %d",
				ErrRegions, i+1, ch.effectiveHeight(), regs.Height)
		}
	}
	return &regs, nil
}
