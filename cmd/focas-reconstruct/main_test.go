package main

import (
	"bytes"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"naojutils/internal/cli"
	"naojutils/internal/fitsimg"
	"naojutils/internal/focas/focastest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(&cli.Env{Log: zap.NewNop()})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReconstruct(t *testing.T) {
	raw := t.TempDir()
	focastest.WriteExposure(t, raw, 700)
	work := t.TempDir()
	regions := focastest.WriteRegions(t, work, "slits4.reg")
	t.Chdir(work)

	out, err := execute(t, "-d", raw, "--regions", regions, "FCSA00000700.fits")
	require.NoError(t, err)
	assert.Equal(t, "FCSA00000700.rcn.fits\n", out)

	img, err := fitsimg.Load(filepath.Join(work, "FCSA00000700.rcn.fits"))
	require.NoError(t, err)
	require.Equal(t, 4, img.Height())
	assert.InDelta(t, 10*100*2.081, img.At(0, 0), 1e-2)
	assert.True(t, math.IsNaN(img.At(3, 2)))
	flatted, err := img.Header.Bool("ISFLATED")
	require.NoError(t, err)
	assert.False(t, flatted)

	_, err = execute(t, "-d", raw, "--regions", regions, "FCSA00000700.fits")
	assert.ErrorIs(t, err, fitsimg.ErrExists)
}

func TestReconstructWithFlat(t *testing.T) {
	raw := t.TempDir()
	ch1, ch2 := focastest.WriteExposure(t, raw, 800)
	work := t.TempDir()
	regions := focastest.WriteRegions(t, work, "slits4.reg")

	// a flat equal to the science frame leaves the mean flat level
	flat := fitsimg.New(20, 3)
	for x := 0; x < 20; x++ {
		flat.Set(x, 0, 2054)
		flat.Set(x, 1, 1999)
		flat.Set(x, 2, 2081)
	}
	flatPath := filepath.Join(work, "flat_4_I.fits")
	require.NoError(t, fitsimg.Save(flatPath, false, flat))

	path := filepath.Join(work, "out.fits")
	_, err := execute(t, "--regions", regions, "--flat", flatPath, "--no-shift", "-o", path, ch1, ch2)
	require.NoError(t, err)

	img, err := fitsimg.Load(path)
	require.NoError(t, err)
	level := (2054.0 + 1999 + 2081) / 3
	assert.InDelta(t, level, img.At(7, 0), 1e-2)
	xshift, err := img.Header.Float("XSHFT")
	require.NoError(t, err)
	assert.Equal(t, 0.0, xshift)
}
