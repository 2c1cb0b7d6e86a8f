package spcam

import (
	"testing"

	"go.uber.org/zap"

	"naojutils/internal/config"
	"naojutils/internal/fitsimg"
	"naojutils/internal/spcam/spcamtest"
)

const (
	rawWidth  = spcamtest.RawWidth
	rawHeight = spcamtest.RawHeight
)

func testConfig() *config.SPCAM {
	return &config.SPCAM{
		Prefix:          "S",
		NumCCDs:         3,
		FrameOffsets:    []int{0, 1, 2},
		Workers:         2,
		PrimaryKeywords: []string{"OBJECT", "EXPTIME", "COMMENT"},
		ImageKeywords:   []string{"FRAMEID", "DET-ID", "S_GAIN1"},
	}
}

func newTestReducer() *Reducer {
	return New(testConfig(), zap.NewNop())
}

func rawFrame(detID int, frameID string, signal func(x, y int) float64) *fitsimg.Image {
	return spcamtest.RawFrame(detID, frameID, signal)
}

func writeFrame(t *testing.T, dir string, img *fitsimg.Image) string {
	return spcamtest.WriteFrame(t, dir, img)
}

func writeExposure(t *testing.T, dir string, first int, scale float64) []string {
	return spcamtest.WriteExposure(t, dir, first, scale)
}
