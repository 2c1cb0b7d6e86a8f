package spcam

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"naojutils/internal/fitsimg"
	"naojutils/internal/frame"
)

var tileRe = regexp.MustCompile(`-(\d+)\.fits$`)

// MakeFlat overscan-subtracts each flat frame and combines them with a
// pixelwise median.
func (r *Reducer) MakeFlat(ctx context.Context, paths []string) (*fitsimg.Image, error) {
	raw, err := r.LoadFrames(ctx, paths)
	if err != nil {
		return nil, err
	}
	trimmed := make([]*fitsimg.Image, 0, len(raw))
	for i, img := range raw {
		t, err := r.RemoveOverscan(img)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", paths[i], err)
		}
		if len(trimmed) > 0 {
			if err := trimmed[0].SameShape(t); err != nil {
				return nil, fmt.Errorf("%s: %w", paths[i], err)
			}
		}
		trimmed = append(trimmed, t)
	}
	return medianCombine(trimmed)
}

func medianCombine(images []*fitsimg.Image) (*fitsimg.Image, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no flat frames", ErrExposure)
	}
	last := images[len(images)-1]
	out := fitsimg.New(last.Width(), last.Height())
	out.Header = last.Header.Clone()
	stack := make([]float64, len(images))
	for i := range out.Data {
		for j, img := range images {
			stack[j] = img.Data[i]
		}
		m, err := stats.Median(stack)
		if err != nil {
			return nil, err
		}
		out.Data[i] = m
	}
	return out, nil
}

// ExposureRange returns the first-CCD frame ids of n consecutive exposures
// starting at start.
func (r *Reducer) ExposureRange(start string, n int) ([]string, error) {
	f, err := frame.Parse(start)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		g, err := f.Add(i * r.cfg.NumCCDs)
		if err != nil {
			return nil, err
		}
		ids = append(ids, g.String())
	}
	return ids, nil
}

// MakeFlatTiles builds one flat per CCD from the listed exposures in dir.
// The flats are normalised by the mean of their medians and keyed by
// DET-ID. Frames missing from dir are skipped.
func (r *Reducer) MakeFlatTiles(ctx context.Context, dir string, exposures []string) (map[int]*fitsimg.Image, error) {
	var flats []*fitsimg.Image
	for i := 0; i < r.cfg.NumCCDs; i++ {
		var paths []string
		for _, exp := range exposures {
			f, err := frame.Parse(exp)
			if err != nil {
				return nil, err
			}
			if !fitsimg.PathExists(filepath.Join(dir, strings.ToUpper(exp)+".fits")) {
				r.log.Debug("exposure not found", zap.String("exposure", exp))
				continue
			}
			g, err := f.Add(i)
			if err != nil {
				return nil, err
			}
			path := filepath.Join(dir, g.String()+".fits")
			if !fitsimg.PathExists(path) {
				continue
			}
			paths = append(paths, path)
		}
		if len(paths) == 0 {
			continue
		}
		flat, err := r.MakeFlat(ctx, paths)
		if err != nil {
			return nil, err
		}
		flats = append(flats, flat)
	}
	if len(flats) == 0 {
		return nil, fmt.Errorf("%w: no flat frames in %s", ErrExposure, dir)
	}

	medians := make([]float64, len(flats))
	for i, flat := range flats {
		m, err := stats.Median(flat.Data)
		if err != nil {
			return nil, err
		}
		medians[i] = m
	}
	norm, err := stats.Mean(medians)
	if err != nil {
		return nil, err
	}
	if norm == 0 {
		return nil, fmt.Errorf("flat level is zero")
	}

	tiles := make(map[int]*fitsimg.Image, len(flats))
	for _, flat := range flats {
		for i, v := range flat.Data {
			v /= norm
			if v == 0 {
				v = 1
			}
			flat.Data[i] = v
		}
		det, err := flat.Header.Int("DET-ID")
		if err != nil {
			return nil, err
		}
		tiles[det] = flat
	}
	return tiles, nil
}

// TileName is the file name of the flat tile for one CCD.
func TileName(prefix string, detID int) string {
	return fmt.Sprintf("%s-%d.fits", prefix, detID)
}

// WriteFlatTiles writes each tile to dir, replacing existing files, and
// returns the written paths in DET-ID order.
func (r *Reducer) WriteFlatTiles(tiles map[int]*fitsimg.Image, dir, prefix string) ([]string, error) {
	var paths []string
	for det := 0; det < r.cfg.NumCCDs; det++ {
		tile, ok := tiles[det]
		if !ok {
			continue
		}
		path := filepath.Join(dir, TileName(prefix, det))
		r.log.Debug("writing flat tile", zap.String("path", path))
		if err := fitsimg.Save(path, true, tile); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// LoadFlatTiles reads every <prefix>-<detid>.fits file in dir.
func LoadFlatTiles(dir string) (map[int]*fitsimg.Image, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*-*.fits"))
	if err != nil {
		return nil, err
	}
	tiles := make(map[int]*fitsimg.Image)
	for _, path := range matches {
		m := tileRe.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		det, _ := strconv.Atoi(m[1])
		img, err := fitsimg.Load(path)
		if err != nil {
			return nil, err
		}
		tiles[det] = img
	}
	return tiles, nil
}

// Divide returns img divided pixelwise by flat.
func Divide(img, flat *fitsimg.Image) (*fitsimg.Image, error) {
	if err := img.SameShape(flat); err != nil {
		return nil, err
	}
	out := img.Clone()
	for i := range out.Data {
		out.Data[i] /= flat.Data[i]
	}
	return out, nil
}

// Reduce subtracts the overscan of a raw CCD frame and divides it by the
// flat tile with the same DET-ID.
func (r *Reducer) Reduce(img *fitsimg.Image, tiles map[int]*fitsimg.Image) (*fitsimg.Image, error) {
	trimmed, err := r.RemoveOverscan(img)
	if err != nil {
		return nil, err
	}
	det, err := img.Header.Int("DET-ID")
	if err != nil {
		return nil, err
	}
	flat, ok := tiles[det]
	if !ok {
		return nil, fmt.Errorf("no flat tile for DET-ID %d", det)
	}
	return Divide(trimmed, flat)
}
