package focas

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"naojutils/internal/fitsimg"
)

var ErrRegions = errors.New("invalid region file")

// Box is one DS9 box region: centre and size in 1-based image pixels.
type Box struct {
	X, Y, W, H float64
}

// ReadRegions parses DS9 box regions, one pseudo slit per box, in file
// order. Lines that are not boxes are ignored.
func ReadRegions(r io.Reader) ([]Box, error) {
	var boxes []Box
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		text = strings.TrimPrefix(text, "image;")
		if !strings.HasPrefix(text, "box(") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == '(' || r == ')' || r == ','
		})
		if len(fields) < 5 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrRegions, line, text)
		}
		var v [4]float64
		for i := range v {
			f, err := strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrRegions, line, err)
			}
			v[i] = f
		}
		boxes = append(boxes, Box{X: v[0], Y: v[1], W: v[2], H: v[3]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(boxes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 boxes, found %d", ErrRegions, len(boxes))
	}
	return boxes, nil
}

// LoadRegions reads the box regions of the DS9 region file at path.
func LoadRegions(path string) ([]Box, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	boxes, err := ReadRegions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return boxes, nil
}

// RegionsFor returns the boxes from path, or from the configured region
// file for the binning when path is empty.
func (p *Processor) RegionsFor(path string, bin int) ([]Box, error) {
	if path == "" {
		path = p.cfg.Regions[bin]
	}
	if path == "" {
		return nil, fmt.Errorf("%w: no region file for binning %d", ErrRegions, bin)
	}
	return LoadRegions(path)
}

// Integrate sums each pseudo slit across its width, giving one row per box.
// All boxes use the size of the second box; a window is anchored at
// int(centre - size/2) of its own box.
func Integrate(img *fitsimg.Image, boxes []Box) (*fitsimg.Image, error) {
	if len(boxes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 boxes", ErrRegions)
	}
	xw, yw := int(boxes[1].W), int(boxes[1].H)
	if xw < 1 || yw < 1 {
		return nil, fmt.Errorf("%w: box size %dx%d", ErrRegions, xw, yw)
	}
	out := fitsimg.New(xw, len(boxes))
	out.Header = img.Header.Clone()
	for j, b := range boxes {
		xs := int(b.X - b.W/2)
		ys := int(b.Y - b.H/2)
		if xs < 0 || ys < 0 || xs+xw > img.Width() || ys+yw > img.Height() {
			return nil, fmt.Errorf("%w: box %d window [%d:%d, %d:%d] outside %dx%d image",
				ErrRegions, j+1, xs, xs+xw, ys, ys+yw, img.Width(), img.Height())
		}
		dst := out.Row(j)
		for y := ys; y < ys+yw; y++ {
			for i, v := range img.Row(y)[xs : xs+xw] {
				dst[i] += v
			}
		}
	}
	return out, nil
}
