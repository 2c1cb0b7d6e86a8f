// Package focastest writes synthetic FOCAS raw frames for tests.
package focastest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/require"

	"naojutils/internal/fitsimg"
)

// Size of a raw chip binned 4x4.
const (
	Bin4Width  = 584
	Bin4Height = 1060
)

// Regions are three pseudo slits over the lit part of a Bin4 exposure.
const Regions = "box(50,150,20,10,0)\nbox(300,150,20,10,0)\nbox(600,150,20,10,0)\n"

// ChipHeader returns the header of a raw chip.
func ChipHeader(detID, bin int, frameID string) *fitsimg.Header {
	return fitsimg.NewHeader(
		fitsio.Card{Name: "FRAMEID", Value: frameID},
		fitsio.Card{Name: "DET-ID", Value: detID},
		fitsio.Card{Name: "BIN-FCT1", Value: bin},
		fitsio.Card{Name: "BIN-FCT2", Value: bin},
		fitsio.Card{Name: "OBJECT", Value: "NGC 1068"},
		fitsio.Card{Name: "EXPTIME", Value: 600.0},
		fitsio.Card{Name: "FILTER01", Value: "SCFCFLBI01"},
		fitsio.Card{Name: "FILTER02", Value: "NONE"},
		fitsio.Card{Name: "FILTER03", Value: "NONE"},
		fitsio.Card{Name: "ALTITUDE", Value: 60.0},
		fitsio.Card{Name: "INSROT", Value: 30.0},
		fitsio.Card{Name: "CRVAL1", Value: 40.67},
		fitsio.Card{Name: "CRVAL2", Value: -0.013},
		fitsio.Card{Name: "CRPIX1", Value: 100.0},
		fitsio.Card{Name: "CRPIX2", Value: 200.0},
		fitsio.Card{Name: "CTYPE1", Value: "RA---TAN"},
		fitsio.Card{Name: "CTYPE2", Value: "DEC--TAN"},
		fitsio.Card{Name: "CD1_1", Value: 1.0},
		fitsio.Card{Name: "CD1_2", Value: 0.0},
		fitsio.Card{Name: "CD2_1", Value: 0.0},
		fitsio.Card{Name: "CD2_2", Value: 1.0},
	)
}

// RawChip fills a w x h unsigned 16-bit chip with fill(x, y).
func RawChip(detID, bin, w, h int, frameID string, fill func(x, y int) float64) *fitsimg.Image {
	img := fitsimg.New(w, h)
	img.Header = ChipHeader(detID, bin, frameID)
	img.Bitpix = 16
	img.Unsigned = true
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	return img
}

// SlitFill is a 1000 ADU bias with 100 ADU of light in the image columns
// of the first and third amplifier, rows 100 to 199.
func SlitFill(x, y int) float64 {
	inImage := (x >= 2 && x < 130) || (x >= 294 && x < 422)
	if inImage && y >= 100 && y < 200 {
		return 1100
	}
	return 1000
}

// WriteExposure writes a 4x4 binned exposure as frames number (chip 1) and
// number+1 (chip 2) into dir and returns both paths.
func WriteExposure(t testing.TB, dir string, number int) (string, string) {
	t.Helper()
	var paths []string
	for i, det := range []int{1, 2} {
		id := fmt.Sprintf("FCSA%08d", number+i)
		path := filepath.Join(dir, id+".fits")
		require.NoError(t, fitsimg.Save(path, false, RawChip(det, 4, Bin4Width, Bin4Height, id, SlitFill)))
		paths = append(paths, path)
	}
	return paths[0], paths[1]
}

// WriteRegions writes Regions to dir/name.
func WriteRegions(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(Regions), 0o644))
	return path
}
