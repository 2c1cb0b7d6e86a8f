package focas

import (
	"errors"
	"fmt"
	"strings"

	"naojutils/internal/fitsimg"
)

var ErrUnknownFilter = errors.New("unknown flat filter")

// MakeFlat builds the IFU flat of a dome flat exposure: both chips are bias
// subtracted and stacked, then every pseudo slit is integrated.
func (p *Processor) MakeFlat(pair Pair, templatePrefix, regionFile string) (*fitsimg.Image, error) {
	stacked, err := p.BiasSubtract(pair, templatePrefix)
	if err != nil {
		return nil, err
	}
	bin, err := stacked.Header.Int("BIN-FCT1")
	if err != nil {
		return nil, err
	}
	boxes, err := p.RegionsFor(regionFile, bin)
	if err != nil {
		return nil, err
	}
	integrated, err := Integrate(stacked, boxes)
	if err != nil {
		return nil, err
	}

	out := fitsimg.New(integrated.Width(), integrated.Height())
	copy(out.Data, integrated.Data)
	for _, k := range []string{"BIN-FCT1", "BIN-FCT2"} {
		card, _ := stacked.Header.Get(k)
		out.Header.Set(card.Name, card.Value, card.Comment)
	}
	if err := p.ReconHeader(stacked.Header, out.Header); err != nil {
		return nil, err
	}
	return out, nil
}

// FlatName derives the default flat file name from the binning and the
// filters in the beam, e.g. flat_2_I.fits.
func (p *Processor) FlatName(h *fitsimg.Header) (string, error) {
	bin, err := h.Int("BIN-FCT1")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "flat_%d_", bin)
	for _, k := range []string{"FILTER01", "FILTER02", "FILTER03"} {
		name, err := h.String(k)
		if err != nil {
			return "", err
		}
		if name == "NONE" {
			continue
		}
		code, ok := p.cfg.FilterCodes[name]
		if !ok {
			return "", fmt.Errorf("%w: %s=%s", ErrUnknownFilter, k, name)
		}
		b.WriteString(code)
	}
	b.WriteString(".fits")
	return b.String(), nil
}
