package focas

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"naojutils/internal/config"
	"naojutils/internal/fitsimg"
)

// TemplateName is the file name of the bias template for one chip.
func TemplateName(prefix string, bin, detID int) string {
	return fmt.Sprintf("%s%d%d.fits", prefix, bin, detID)
}

// LoadTemplate reads the bias template for a chip. A missing template, or
// one made by another pipeline version, yields nil so that the caller falls
// back to the frame's own top rows.
func (p *Processor) LoadTemplate(prefix string, bin, detID int) ([]float64, error) {
	name := TemplateName(prefix, bin, detID)
	if !fitsimg.PathExists(name) {
		p.log.Info("bias template not found, using top rows of the frame", zap.String("template", name))
		return nil, nil
	}
	tmpl, err := fitsimg.Load(name)
	if err != nil {
		return nil, fmt.Errorf("could not read bias template: %w", err)
	}
	if err := p.CheckVersion(tmpl.Header); err != nil {
		p.log.Warn("ignoring bias template", zap.String("template", name), zap.Error(err))
		return nil, nil
	}
	p.log.Debug("using bias template", zap.String("template", name))
	return tmpl.Row(0), nil
}

// columnMean averages each column over rows [y0,y1).
func columnMean(img *fitsimg.Image, y0, y1 int) []float64 {
	out := make([]float64, img.Width())
	for y := y0; y < y1; y++ {
		for x, v := range img.Row(y) {
			out[x] += v
		}
	}
	for x := range out {
		out[x] /= float64(y1 - y0)
	}
	return out
}

// SubtractBias removes the bias from one raw chip. The template column
// profile is scaled, amplifier by amplifier and row by row, so that its
// overscan level matches the overscan level of a five row window of the
// frame. A nil template is replaced by the column mean of the topmost rows.
// Rows too close to the frame edge for a full window stay zero.
func (p *Processor) SubtractBias(raw *fitsimg.Image, template []float64) (*fitsimg.Image, error) {
	chip, err := readChipInfo(raw.Header)
	if err != nil {
		return nil, err
	}
	amps, _, err := p.cfg.Amps(chip.bin1, chip.detID)
	if err != nil {
		return nil, err
	}
	nx, ny := raw.Width(), raw.Height()
	if err := checkWidth(amps, nx); err != nil {
		return nil, err
	}
	if ny < p.cfg.TemplateRows || ny < 5 {
		return nil, fmt.Errorf("%w: frame has only %d rows", fitsimg.ErrShapeMismatch, ny)
	}
	if template == nil {
		template = columnMean(raw, ny-p.cfg.TemplateRows, ny)
	}
	if len(template) < nx {
		return nil, fmt.Errorf("%w: template has %d columns, frame %d", fitsimg.ErrShapeMismatch, len(template), nx)
	}

	out := fitsimg.New(nx, ny)
	out.Header = raw.Header.Clone()
	out.Header.Remove("BLANK", "BSCALE", "BZERO")
	if err := p.StampVersion(out.Header); err != nil {
		return nil, err
	}

	for _, a := range amps {
		lo0, lo1 := a.OverscanLow()
		hi0, hi1 := a.OverscanHigh()
		level := mean(template[lo0-1:lo1]) + mean(template[hi0-1:hi1])
		if level == 0 {
			return nil, fmt.Errorf("bias template overscan level is zero for columns %d-%d", lo0, hi1)
		}
		for y := 2; y < ny-3; y++ {
			ov := windowMean(raw, y-2, y+3, lo0-1, lo1) + windowMean(raw, y-2, y+3, hi0-1, hi1)
			src := raw.Row(y)
			dst := out.Row(y)
			for x := lo0 - 1; x < hi1; x++ {
				dst[x] = src[x] - template[x]/level*ov
			}
		}
	}
	return out, nil
}

// RemoveOverscan keeps only the image columns of each amplifier, converts
// them to electrons and trims the unexposed rows.
func (p *Processor) RemoveOverscan(img *fitsimg.Image) (*fitsimg.Image, error) {
	if err := p.CheckVersion(img.Header); err != nil {
		return nil, err
	}
	chip, err := readChipInfo(img.Header)
	if err != nil {
		return nil, err
	}
	amps, k, err := p.cfg.Amps(chip.bin1, chip.detID)
	if err != nil {
		return nil, err
	}
	trim, ok := p.cfg.TrimY[chip.bin2]
	if !ok {
		return nil, fmt.Errorf("%w: no trim range for BIN-FCT2=%d", ErrBinning, chip.bin2)
	}
	if trim[1] > img.Height() {
		return nil, fmt.Errorf("%w: trim range %v beyond height %d", fitsimg.ErrShapeMismatch, trim, img.Height())
	}
	for _, a := range amps {
		if _, i1 := a.Image(); i1 > img.Width() {
			return nil, fmt.Errorf("%w: image column %d beyond width %d", fitsimg.ErrShapeMismatch, i1, img.Width())
		}
	}

	width := 0
	for _, a := range amps {
		i0, i1 := a.Image()
		width += i1 - i0 + 1
	}
	out := fitsimg.New(width, trim[1]-trim[0])
	out.Header = img.Header.Clone()

	x := 0
	for j, a := range amps {
		gain := p.cfg.Gains[k+j]
		i0, i1 := a.Image()
		for y := trim[0]; y < trim[1]; y++ {
			src := img.Row(y)[i0-1 : i1]
			dst := out.Row(y - trim[0])[x : x+len(src)]
			for i, v := range src {
				dst[i] = v * gain
			}
		}
		x += i1 - i0 + 1
	}

	out.Header.Set("BUNIT", "electrons", "Unit of original pixel values")
	out.Header.Set("TRM_Y1", trim[0]+1, "Trimmed area start Y")
	out.Header.Set("TRM_Y2", trim[1], "Trimmed area end Y")
	return out, nil
}

// RestoreBadPixels replaces the known bad columns of the right chip with the
// mean of their neighbouring columns. Other chips are returned unchanged.
func (p *Processor) RestoreBadPixels(img *fitsimg.Image) (*fitsimg.Image, error) {
	chip, err := readChipInfo(img.Header)
	if err != nil {
		return nil, err
	}
	if chip.detID != 1 {
		return img, nil
	}
	out := img.Clone()
	for _, box := range p.cfg.BadPixels[chip.bin2] {
		x1, x2, y1, y2 := box[0], box[1], box[2], box[3]
		if x1 < 2 || x2 >= img.Width() {
			return nil, fmt.Errorf("bad column box %v has no neighbours inside width %d", box, img.Width())
		}
		y2 = min(y2, img.Height())
		for y := y1 - 1; y < y2; y++ {
			src := img.Row(y)
			dst := out.Row(y)
			for x := x1 - 1; x < x2; x++ {
				dst[x] = (src[x-1] + src[x+1]) / 2
			}
		}
		p.log.Debug("restored bad column", zap.Ints("box", box[:]))
	}
	return out, nil
}

// GapWidth is the CCD gap between the chips in binned pixels.
func GapWidth(cfg *config.FOCAS, bin int) int {
	return int(cfg.CCDGapArcsec / cfg.PixelScale / float64(bin))
}

// Stack places the left chip, a blank CCD gap and the right chip side by
// side. The header of the right chip is kept.
func (p *Processor) Stack(right, left *fitsimg.Image) (*fitsimg.Image, error) {
	if right.Height() != left.Height() {
		return nil, fmt.Errorf("%w: chip heights %d and %d", fitsimg.ErrShapeMismatch, right.Height(), left.Height())
	}
	bin, err := right.Header.Int("BIN-FCT1")
	if err != nil {
		return nil, err
	}
	gap := GapWidth(p.cfg, bin)
	lw, rw := left.Width(), right.Width()

	out := fitsimg.New(lw+gap+rw, right.Height())
	out.Header = right.Header.Clone()
	for y := 0; y < out.Height(); y++ {
		row := out.Row(y)
		copy(row[:lw], left.Row(y))
		copy(row[lw+gap:], right.Row(y))
	}
	out.Header.Set("GAP_X1", lw+1, "Start X of the CCD gap")
	out.Header.Set("GAP_X2", lw+gap, "End X of the CCD gap")
	return out, nil
}

var wcsKeywords = []string{
	"CUNIT1", "CUNIT2", "CRVAL1", "CRVAL2", "CRPIX1", "CRPIX2",
	"CDELT1", "CDELT2", "CTYPE1", "CTYPE2", "CD1_2", "CD2_1",
	"PC001001", "PC001002", "PC002001", "PC002002",
}

// CorrectHeader drops the sky WCS, which does not describe an IFU frame, and
// keeps the pointing in OCRVAL1/OCRVAL2.
func CorrectHeader(h *fitsimg.Header) error {
	ra, err := h.Float("CRVAL1")
	if err != nil {
		return err
	}
	dec, err := h.Float("CRVAL2")
	if err != nil {
		return err
	}
	h.Set("OCRVAL1", ra, "Original CRVAL1")
	h.Set("OCRVAL2", dec, "Original CRVAL2")
	h.Set("CD1_1", 1.0, "Pixel coordinate translation matrix")
	h.Set("CD2_2", 1.0, "Pixel coordinate translation matrix")
	h.Remove(wcsKeywords...)
	return nil
}

// QuickSubtract is the plain overscan subtraction: every row of every
// amplifier has the mean of its two overscan strips removed, and both chips
// are laid out in one frame separated by the CCD gap.
func (p *Processor) QuickSubtract(right, left *fitsimg.Image) (*fitsimg.Image, error) {
	bin, err := right.Header.Int("BIN-FCT1")
	if err != nil {
		return nil, err
	}
	table, ok := p.cfg.Overscan[bin]
	if !ok {
		return nil, fmt.Errorf("%w: no overscan table for binning %d", ErrBinning, bin)
	}
	if err := right.SameShape(left); err != nil {
		return nil, err
	}
	if err := checkWidth(table, right.Width()); err != nil {
		return nil, err
	}

	out := fitsimg.New(2*right.Width(), right.Height())
	out.Bitpix = -64
	out.Header = right.Header.Clone()

	x := quickChip(out, left, table[:4], 0)
	quickChip(out, right, table[4:], x+GapWidth(p.cfg, bin))
	return out, nil
}

// checkWidth reports amplifier columns that lie beyond a frame width.
func checkWidth(amps []config.Amp, width int) error {
	for _, a := range amps {
		if _, hi := a.OverscanHigh(); hi > width {
			return fmt.Errorf("%w: overscan column %d beyond width %d", fitsimg.ErrShapeMismatch, hi, width)
		}
		if _, hi := a.Image(); hi > width {
			return fmt.Errorf("%w: image column %d beyond width %d", fitsimg.ErrShapeMismatch, hi, width)
		}
	}
	return nil
}

func quickChip(out, chip *fitsimg.Image, amps []config.Amp, start int) int {
	x := start
	for y := 0; y < chip.Height(); y++ {
		row := chip.Row(y)
		dst := out.Row(y)
		x = start
		for _, a := range amps {
			lo0, lo1 := a.OverscanLow()
			hi0, hi1 := a.OverscanHigh()
			i0, i1 := a.Image()
			level := (mean(row[lo0-1:lo1]) + mean(row[hi0-1:hi1])) / 2
			for i := i0 - 1; i < i1 && x < out.Width(); i++ {
				dst[x] = row[i] - level
				x++
			}
		}
	}
	return x
}

// SubtractChip runs bias subtraction, overscan removal and bad pixel
// restoration on one raw chip.
func (p *Processor) SubtractChip(raw *fitsimg.Image, templatePrefix string) (*fitsimg.Image, error) {
	chip, err := readChipInfo(raw.Header)
	if err != nil {
		return nil, err
	}
	var template []float64
	if templatePrefix != "" {
		template, err = p.LoadTemplate(templatePrefix, chip.bin1, chip.detID)
		if err != nil {
			return nil, err
		}
	}
	bs, err := p.SubtractBias(raw, template)
	if err != nil {
		return nil, fmt.Errorf("bias subtraction of DET-ID %d: %w", chip.detID, err)
	}
	ov, err := p.RemoveOverscan(bs)
	if err != nil {
		return nil, fmt.Errorf("overscan removal of DET-ID %d: %w", chip.detID, err)
	}
	return p.RestoreBadPixels(ov)
}

// Pair holds the two chips of one FOCAS exposure.
type Pair struct {
	Right *fitsimg.Image // DET-ID 1
	Left  *fitsimg.Image // DET-ID 2
}

// NewPair orders two chips by DET-ID regardless of argument order.
func NewPair(a, b *fitsimg.Image) (Pair, error) {
	ida, err := a.Header.Int("DET-ID")
	if err != nil {
		return Pair{}, err
	}
	idb, err := b.Header.Int("DET-ID")
	if err != nil {
		return Pair{}, err
	}
	switch {
	case ida == 1 && idb != 1:
		return Pair{Right: a, Left: b}, nil
	case idb == 1 && ida != 1:
		return Pair{Right: b, Left: a}, nil
	}
	return Pair{}, fmt.Errorf("expected one chip with DET-ID 1, got %d and %d", ida, idb)
}

// LoadPair reads both chips of an exposure.
func LoadPair(path1, path2 string) (Pair, error) {
	a, err := fitsimg.Load(path1)
	if err != nil {
		return Pair{}, err
	}
	b, err := fitsimg.Load(path2)
	if err != nil {
		return Pair{}, err
	}
	return NewPair(a, b)
}

// LoadExposure loads the two chips of an exposure. Given one path, the
// second chip is the next frame id in the same directory. Relative paths
// are looked up in rawDir when it is set.
func LoadExposure(rawDir string, paths ...string) (Pair, error) {
	if len(paths) == 0 || len(paths) > 2 {
		return Pair{}, fmt.Errorf("need one or two chip files, got %d", len(paths))
	}
	full := make([]string, 0, 2)
	for _, path := range paths {
		if rawDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(rawDir, path)
		}
		full = append(full, path)
	}
	if len(full) == 1 {
		second, err := SecondChipPath(full[0])
		if err != nil {
			return Pair{}, err
		}
		full = append(full, second)
	}
	return LoadPair(full[0], full[1])
}

// BiasSubtract reduces both chips of a pair and stacks them.
func (p *Processor) BiasSubtract(pair Pair, templatePrefix string) (*fitsimg.Image, error) {
	right, err := p.SubtractChip(pair.Right, templatePrefix)
	if err != nil {
		return nil, err
	}
	left, err := p.SubtractChip(pair.Left, templatePrefix)
	if err != nil {
		return nil, err
	}
	return p.Stack(right, left)
}

// OverscanName is the output name of a bias subtracted exposure.
func OverscanName(h *fitsimg.Header) (string, error) {
	id, err := h.String("FRAMEID")
	if err != nil {
		return "", err
	}
	return id + ".ov.fits", nil
}

// IsOutputPresent reports whether an existing output should be left alone.
func IsOutputPresent(path string, overwrite bool) bool {
	if overwrite {
		return false
	}
	return fitsimg.PathExists(path)
}
