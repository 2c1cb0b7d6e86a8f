package focas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"naojutils/internal/config"
	"naojutils/internal/fitsimg"
)

// Small chips: four amplifiers of eight columns each, two overscan columns
// on either side of four image columns.
const (
	testWidth  = 32
	testHeight = 20
)

func testConfig() *config.FOCAS {
	var amps []config.Amp
	for k := 0; k < 8; k++ {
		base := 8 * (k % 4)
		amps = append(amps, config.Amp{base + 1, base + 2, base + 3, base + 6, base + 7, base + 8})
	}
	return &config.FOCAS{
		SoftwareKeyword:  "IFU_SOFT",
		SoftwareVersion:  20190130,
		Overscan:         map[int][]config.Amp{1: amps},
		Gains:            []float64{1, 1, 1, 1, 2, 2, 2, 2},
		TrimY:            map[int][2]int{1: {2, 18}},
		BadPixels:        map[int][][4]int{1: {{5, 5, 1, 100}}},
		TemplateRows:     3,
		SigmaClip:        4,
		TemplatePrefix:   "bias_template",
		CCDGapArcsec:     1.0,
		PixelScale:       0.25,
		SlicePitch:       0.43,
		IFURotation:      -21.38,
		Flexure:          config.Flexure{A: -6.98763, B: -0.299919},
		FilterCodes:      map[string]string{"SCFCFLBI01": "I", "SCFCFLBR01": "R"},
		TransferKeywords: []string{"OBJECT", "EXPTIME", "FRAMEID", "FILTER01", "FILTER02", "FILTER03"},
	}
}

func newTestProcessor(cfg *config.FOCAS) *Processor {
	return New(cfg, zap.NewNop())
}

func chipHeader(detID, bin int, frameID string) *fitsimg.Header {
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
		fitsio.Card{Name: "BZERO", Value: 32768},
	)
}

// rawChip fills a w x h chip with fill(x, y).
func rawChip(detID, bin, w, h int, frameID string, fill func(x, y int) float64) *fitsimg.Image {
	img := fitsimg.New(w, h)
	img.Header = chipHeader(detID, bin, frameID)
	img.Bitpix = 16
	img.Unsigned = true
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	return img
}

func constant100(int, int) float64 { return 100 }

func writeFITS(t *testing.T, dir, name string, img *fitsimg.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, fitsimg.Save(path, false, img))
	return path
}

func writeRegions(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
