// Package focas implements the FOCAS IFU reduction steps: bias and overscan
// handling, bias templates, pseudo-slit integration, flat fielding and
// image reconstruction.
package focas

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"naojutils/internal/config"
	"naojutils/internal/fitsimg"
	"naojutils/internal/logging"
)

var (
	ErrAlreadyProcessed = errors.New("already processed by another pipeline version")
	ErrNotProcessed     = errors.New("not processed by this pipeline version")
	ErrBinning          = errors.New("unsupported binning")
)

// Processor runs the reduction steps with one set of instrument tables.
type Processor struct {
	cfg *config.FOCAS
	log *zap.Logger
}

// New returns a Processor for the given instrument tables. A nil log
// discards messages.
func New(cfg *config.FOCAS, log *zap.Logger) *Processor {
	return &Processor{cfg: cfg, log: logging.OrNop(log)}
}

// StampVersion records the pipeline version in h. A header already stamped
// by another version is rejected.
func (p *Processor) StampVersion(h *fitsimg.Header) error {
	key := p.cfg.SoftwareKeyword
	card, ok := h.Get(key)
	if !ok {
		h.Set(key, p.cfg.SoftwareVersion, "IFU pipeline version")
		return nil
	}
	if v, err := h.Int(key); err != nil || v != p.cfg.SoftwareVersion {
		return fmt.Errorf("%w: %s=%v", ErrAlreadyProcessed, key, card.Value)
	}
	return nil
}

// CheckVersion reports whether h was stamped by this pipeline version.
func (p *Processor) CheckVersion(h *fitsimg.Header) error {
	key := p.cfg.SoftwareKeyword
	v, err := h.Int(key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotProcessed, err)
	}
	if v != p.cfg.SoftwareVersion {
		return fmt.Errorf("%w: %s=%d, expected %d", ErrNotProcessed, key, v, p.cfg.SoftwareVersion)
	}
	return nil
}

type chipInfo struct {
	bin1, bin2 int
	detID      int
}

func readChipInfo(h *fitsimg.Header) (chipInfo, error) {
	var c chipInfo
	var err error
	if c.bin1, err = h.Int("BIN-FCT1"); err != nil {
		return c, err
	}
	if c.bin2, err = h.Int("BIN-FCT2"); err != nil {
		return c, err
	}
	if c.detID, err = h.Int("DET-ID"); err != nil {
		return c, err
	}
	return c, nil
}

func mean(xs []float64) float64 {
	m, _ := stats.Mean(xs) // ranges come from validated tables and are never empty
	return m
}

// windowMean averages rows [y0,y1) of columns [x0,x1).
func windowMean(img *fitsimg.Image, y0, y1, x0, x1 int) float64 {
	buf := make([]float64, 0, (y1-y0)*(x1-x0))
	for y := y0; y < y1; y++ {
		buf = append(buf, img.Row(y)[x0:x1]...)
	}
	return mean(buf)
}
