package spcam

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"naojutils/internal/fitsimg"
	"naojutils/internal/frame"
)

// FileList returns the paths of all CCD frames of the exposure that the
// frame at path belongs to, in frame offset order.
func (r *Reducer) FileList(path string) ([]string, error) {
	f, err := frame.FromPath(path)
	if err != nil {
		return nil, err
	}
	n := r.cfg.NumCCDs
	first := f.Count() / n * n
	paths := make([]string, 0, len(r.cfg.FrameOffsets))
	for _, off := range r.cfg.FrameOffsets {
		g, err := f.Add(first + off - f.Count())
		if err != nil {
			return nil, err
		}
		paths = append(paths, frame.Sibling(path, g))
	}
	return paths, nil
}

// LoadFrames reads the given files concurrently. The result is in the
// order of paths.
func (r *Reducer) LoadFrames(ctx context.Context, paths []string) ([]*fitsimg.Image, error) {
	images := make([]*fitsimg.Image, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if r.cfg.Workers > 0 {
		g.SetLimit(r.cfg.Workers)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := fitsimg.Load(path)
			if err != nil {
				return err
			}
			r.log.Debug("loaded frame", zap.String("path", path))
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// copyKeywords copies the cards of src named in names, in src order.
func copyKeywords(dst, src *fitsimg.Header, names []string) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	for _, card := range src.Cards() {
		if want[card.Name] {
			dst.Set(card.Name, card.Value, card.Comment)
		}
	}
}

// Pack builds the HDUs of a multi-extension file from the CCD frames of
// one exposure: a data-less primary HDU carrying the exposure keywords of
// the first frame, then one unsigned 16-bit HDU per CCD in DET-ID order.
func (r *Reducer) Pack(images []*fitsimg.Image) ([]*fitsimg.Image, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrExposure)
	}
	primary := fitsimg.NewEmpty(nil)
	copyKeywords(primary.Header, images[0].Header, r.cfg.PrimaryKeywords)

	byDet := make(map[int]*fitsimg.Image, len(images))
	for _, img := range images {
		det, err := img.Header.Int("DET-ID")
		if err != nil {
			return nil, err
		}
		if _, dup := byDet[det]; dup {
			return nil, fmt.Errorf("%w: DET-ID %d appears twice", ErrExposure, det)
		}
		hdu := &fitsimg.Image{
			Header:   fitsimg.NewHeader(),
			Naxis:    append([]int(nil), img.Naxis...),
			Data:     img.Data,
			Bitpix:   16,
			Unsigned: true,
		}
		copyKeywords(hdu.Header, img.Header, r.cfg.ImageKeywords)
		byDet[det] = hdu
	}

	hdus := []*fitsimg.Image{primary}
	for det := 0; det < r.cfg.NumCCDs; det++ {
		hdu, ok := byDet[det]
		if !ok {
			return nil, fmt.Errorf("%w: no frame for DET-ID %d", ErrExposure, det)
		}
		hdus = append(hdus, hdu)
	}
	return hdus, nil
}

// PackExposure packs the exposure containing the frame at path into out.
func (r *Reducer) PackExposure(ctx context.Context, path, out string, overwrite bool) error {
	paths, err := r.FileList(path)
	if err != nil {
		return err
	}
	images, err := r.LoadFrames(ctx, paths)
	if err != nil {
		return err
	}
	hdus, err := r.Pack(images)
	if err != nil {
		return err
	}
	r.log.Info("writing multi-extension file", zap.String("out", out), zap.Int("ccds", len(hdus)-1))
	return fitsimg.Save(out, overwrite, hdus...)
}
