// Package spcamtest writes synthetic Suprime-Cam raw frames for tests.
package spcamtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"naojutils/internal/fitsimg"
)

// 20x6 raw frames. Each channel has three effective and two overscan
// columns; the top two rows are overscan. Channel 1 is read out on the
// right edge, channel 4 on the left.
const (
	RawWidth  = 20
	RawHeight = 6
)

// 1-based inclusive x bounds: effective min/max, overscan min/max.
var channelColumns = [4][4]int{
	{16, 18, 19, 20},
	{6, 8, 9, 10},
	{13, 15, 11, 12},
	{3, 5, 1, 2},
}

// RawFrame builds a frame whose channel n has bias 100*n+y in every pixel
// of row y, with signal(x, y) added to the effective pixels. x is the
// 0-based column of the trimmed output.
func RawFrame(detID int, frameID string, signal func(x, y int) float64) *fitsimg.Image {
	img := fitsimg.New(RawWidth, RawHeight)
	h := img.Header
	h.Set("FRAMEID", frameID, "")
	h.Set("DET-ID", detID, "")
	h.Set("OBJECT", "DOMEFLAT", "")
	h.Set("EXPTIME", 5.0, "")
	h.Set("FILTER01", "W-C-RC", "")

	startX := map[int]int{4: 0, 2: 3, 3: 6, 1: 9}
	for i, c := range channelColumns {
		n := i + 1
		h.Set(fmt.Sprintf("S_EFMN%d1", n), c[0], "")
		h.Set(fmt.Sprintf("S_EFMX%d1", n), c[1], "")
		h.Set(fmt.Sprintf("S_EFMN%d2", n), 1, "")
		h.Set(fmt.Sprintf("S_EFMX%d2", n), 4, "")
		h.Set(fmt.Sprintf("S_OSMN%d1", n), c[2], "")
		h.Set(fmt.Sprintf("S_OSMX%d1", n), c[3], "")
		h.Set(fmt.Sprintf("S_OSMN%d2", n), 5, "")
		h.Set(fmt.Sprintf("S_OSMX%d2", n), 6, "")
		h.Set(fmt.Sprintf("S_GAIN%d", n), float64(n)+0.5, "")

		for y := 0; y < RawHeight; y++ {
			bias := float64(100*n + y)
			for x := c[2] - 1; x < c[3]; x++ {
				img.Set(x, y, bias)
			}
			for x := c[0] - 1; x < c[1]; x++ {
				v := bias
				if y < 4 {
					v += signal(startX[n]+x-(c[0]-1), y)
				}
				img.Set(x, y, v)
			}
		}
	}
	return img
}

// WriteFrame saves img as <FRAMEID>.fits in dir.
func WriteFrame(t testing.TB, dir string, img *fitsimg.Image) string {
	t.Helper()
	id, err := img.Header.String("FRAMEID")
	require.NoError(t, err)
	path := filepath.Join(dir, id+".fits")
	require.NoError(t, fitsimg.Save(path, false, img))
	return path
}

// WriteExposure writes the three CCD frames of the exposure starting at
// frame number first. Frame i has DET-ID 2-i and signal scale*(i+1).
func WriteExposure(t testing.TB, dir string, first int, scale float64) []string {
	t.Helper()
	var paths []string
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("SUPA%08d", first+i)
		level := scale * float64(i+1)
		paths = append(paths, WriteFrame(t, dir, RawFrame(2-i, id, func(x, y int) float64 {
			return level
		})))
	}
	return paths
}
