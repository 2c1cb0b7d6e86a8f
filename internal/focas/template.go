package focas

import (
	"fmt"
	"path/filepath"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"naojutils/internal/fitsimg"
	"naojutils/internal/frame"
)

// SigmaClip repeatedly drops values outside mean-low*std .. mean+high*std
// until nothing more is removed, and returns the survivors. The standard
// deviation is the population one.
func SigmaClip(data []float64, low, high float64) []float64 {
	c := append([]float64(nil), data...)
	for len(c) > 0 {
		m, _ := stats.Mean(c)
		sd, _ := stats.StandardDeviationPopulation(c)
		lo, hi := m-sd*low, m+sd*high
		kept := c[:0]
		for _, v := range c {
			if v >= lo && v <= hi {
				kept = append(kept, v)
			}
		}
		if len(kept) == len(c) {
			break
		}
		c = kept
	}
	return c
}

// MakeBiasTemplate collapses a raw bias frame into its clipped column mean
// profile.
func (p *Processor) MakeBiasTemplate(raw *fitsimg.Image) (*fitsimg.Image, error) {
	chip, err := readChipInfo(raw.Header)
	if err != nil {
		return nil, err
	}
	w, h := raw.Width(), raw.Height()
	out := fitsimg.New1D(w)
	column := make([]float64, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			column[y] = raw.Data[y*w+x]
		}
		clipped := SigmaClip(column, p.cfg.SigmaClip, p.cfg.SigmaClip)
		if len(clipped) == 0 {
			return nil, fmt.Errorf("column %d has no values left after clipping", x+1)
		}
		out.Data[x] = mean(clipped)
	}
	out.Header.Set("BIN-FCT1", chip.bin1, "Binning factor of X axis")
	out.Header.Set("DET-ID", chip.detID, "ID of the detector used for this data")
	if err := p.StampVersion(out.Header); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteBiasTemplate builds the template of the raw bias at path and writes
// it into outDir. An existing template is kept unless overwrite is set; the
// returned flag reports whether a file was written.
func (p *Processor) WriteBiasTemplate(path, outDir string, overwrite bool) (string, bool, error) {
	raw, err := fitsimg.Load(path)
	if err != nil {
		return "", false, err
	}
	chip, err := readChipInfo(raw.Header)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", path, err)
	}
	name := filepath.Join(outDir, TemplateName(p.cfg.TemplatePrefix, chip.bin1, chip.detID))
	if IsOutputPresent(name, overwrite) {
		p.log.Info("File exists.", zap.String("file", name))
		return name, false, nil
	}
	tmpl, err := p.MakeBiasTemplate(raw)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", path, err)
	}
	if err := fitsimg.Save(name, overwrite, tmpl); err != nil {
		return "", false, err
	}
	p.log.Info("Bias template file was created.", zap.String("file", name))
	return name, true, nil
}

// SecondChipPath is the path of the other chip of the exposure whose first
// chip is at path: the frame with the next frame id, in the same directory.
func SecondChipPath(path string) (string, error) {
	raw, err := fitsimg.Load(path)
	if err != nil {
		return "", err
	}
	id, err := raw.Header.String("FRAMEID")
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	f, err := frame.Parse(id)
	if err != nil {
		return "", err
	}
	next, err := f.Next()
	if err != nil {
		return "", err
	}
	return frame.Sibling(path, next), nil
}

// WriteBiasTemplates makes the templates of both chips of a bias exposure.
func (p *Processor) WriteBiasTemplates(path, outDir string, overwrite bool) ([]string, error) {
	second, err := SecondChipPath(path)
	if err != nil {
		return nil, err
	}
	var written []string
	for _, in := range []string{path, second} {
		name, _, err := p.WriteBiasTemplate(in, outDir, overwrite)
		if err != nil {
			return written, err
		}
		written = append(written, name)
	}
	return written, nil
}
