package spcam

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naojutils/internal/fitsimg"
)

func TestMakeFlatMedian(t *testing.T) {
	dir := t.TempDir()
	r := newTestReducer()
	var paths []string
	for i, level := range []float64{10, 30, 1000} {
		level := level
		paths = append(paths, writeFrame(t, dir, rawFrame(0, fmt.Sprintf("SUPA%08d", 10+i), func(x, y int) float64 {
			return level
		})))
	}

	flat, err := r.MakeFlat(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 12, flat.Width())
	for _, v := range flat.Data {
		assert.Equal(t, 30.0, v)
	}
}

func TestMakeFlatTiles(t *testing.T) {
	dir := t.TempDir()
	r := newTestReducer()
	writeExposure(t, dir, 0, 100)
	writeExposure(t, dir, 3, 100)

	exposures, err := r.ExposureRange("SUPA00000000", 3)
	require.NoError(t, err)
	tiles, err := r.MakeFlatTiles(context.Background(), dir, exposures)
	require.NoError(t, err)
	require.Len(t, tiles, 3)

	// frame i has level 100*(i+1) and DET-ID 2-i; the mean level is 200
	for det, level := range map[int]float64{2: 0.5, 1: 1, 0: 1.5} {
		tile := tiles[det]
		require.NotNil(t, tile, "DET-ID %d", det)
		for _, v := range tile.Data {
			assert.InDelta(t, level, v, 1e-12)
		}
	}

	out := t.TempDir()
	written, err := r.WriteFlatTiles(tiles, out, "flat")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "flat-0.fits"), written[0])

	loaded, err := LoadFlatTiles(out)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.InDelta(t, 1.5, loaded[0].At(0, 0), 1e-6)

	_, err = r.MakeFlatTiles(context.Background(), t.TempDir(), exposures)
	assert.ErrorIs(t, err, ErrExposure)
}

func TestMakeFlatTilesReplacesZeros(t *testing.T) {
	dir := t.TempDir()
	r := newTestReducer()
	writeFrame(t, dir, rawFrame(0, "SUPA00000000", func(x, y int) float64 {
		if x == 0 && y == 0 {
			return 0
		}
		return 50
	}))

	tiles, err := r.MakeFlatTiles(context.Background(), dir, []string{"SUPA00000000"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, tiles[0].At(0, 0))
	assert.Equal(t, 1.0, tiles[0].At(5, 2))
}

func TestReduce(t *testing.T) {
	r := newTestReducer()
	raw := rawFrame(1, "SUPA00000011", func(x, y int) float64 { return 40 })
	flat := fitsimg.New(12, 4)
	for i := range flat.Data {
		flat.Data[i] = 0.5
	}

	out, err := r.Reduce(raw, map[int]*fitsimg.Image{1: flat})
	require.NoError(t, err)
	for _, v := range out.Data {
		assert.Equal(t, 80.0, v)
	}

	_, err = r.Reduce(raw, map[int]*fitsimg.Image{0: flat})
	assert.Error(t, err)
	_, err = r.Reduce(raw, map[int]*fitsimg.Image{1: fitsimg.New(4, 4)})
	assert.ErrorIs(t, err, fitsimg.ErrShapeMismatch)
}
