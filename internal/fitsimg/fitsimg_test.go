package fitsimg

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderSetKeepsOrderAndComment(t *testing.T) {
	h := NewHeader(
		fitsio.Card{Name: "SIMPLE", Value: true},
		fitsio.Card{Name: "OBJECT", Value: "M31", Comment: "target"},
		fitsio.Card{Name: "EXPTIME", Value: 30.0},
	)
	h.Set("OBJECT", "M33", "")
	h.Set("DET-ID", 1, "detector")
	h.Set("COMMENT", "first", "")
	h.Set("COMMENT", "second", "")

	assert.Equal(t, []string{"OBJECT", "EXPTIME", "DET-ID", "COMMENT", "COMMENT"}, h.Keys())
	card, ok := h.Get("OBJECT")
	require.True(t, ok)
	assert.Equal(t, "M33", card.Value)
	assert.Equal(t, "target", card.Comment)
	assert.False(t, h.Has("SIMPLE"))
}

func TestHeaderTypedGetters(t *testing.T) {
	h := NewHeader(
		fitsio.Card{Name: "BIN-FCT1", Value: 2},
		fitsio.Card{Name: "ALTITUDE", Value: 45.5},
		fitsio.Card{Name: "WHOLE", Value: 4.0},
		fitsio.Card{Name: "FILTER01", Value: "SCFCFLBI01  "},
		fitsio.Card{Name: "ISFLATED", Value: true},
	)

	bin, err := h.Int("BIN-FCT1")
	require.NoError(t, err)
	assert.Equal(t, 2, bin)

	whole, err := h.Int("WHOLE")
	require.NoError(t, err)
	assert.Equal(t, 4, whole)

	_, err = h.Int("ALTITUDE")
	assert.ErrorIs(t, err, ErrKeywordType)

	alt, err := h.Float("ALTITUDE")
	require.NoError(t, err)
	assert.InDelta(t, 45.5, alt, 1e-12)

	f, err := h.String("FILTER01")
	require.NoError(t, err)
	assert.Equal(t, "SCFCFLBI01", f)

	b, err := h.Bool("ISFLATED")
	require.NoError(t, err)
	assert.True(t, b)

	_, err = h.Float("INSROT")
	assert.True(t, errors.Is(err, ErrMissingKeyword))
}

func TestHeaderCloneIsDeep(t *testing.T) {
	h := NewHeader(fitsio.Card{Name: "OBJECT", Value: "M31"})
	c := h.Clone()
	c.Set("OBJECT", "M33", "")
	c.Set("EXTRA", 1, "")

	v, _ := h.String("OBJECT")
	assert.Equal(t, "M31", v)
	assert.False(t, h.Has("EXTRA"))
}

func TestHeaderRemoveAndCopyFrom(t *testing.T) {
	src := NewHeader(
		fitsio.Card{Name: "A", Value: 1},
		fitsio.Card{Name: "B", Value: 2},
		fitsio.Card{Name: "C", Value: 3},
	)
	dst := NewHeader()
	missing := dst.CopyFrom(src, "C", "A", "Z")
	assert.Equal(t, []string{"Z"}, missing)
	assert.Equal(t, []string{"C", "A"}, dst.Keys())

	src.Remove("B", "nothing")
	assert.Equal(t, []string{"A", "C"}, src.Keys())
}

func TestImageCrop(t *testing.T) {
	img := New(4, 3)
	for i := range img.Data {
		img.Data[i] = float64(i)
	}
	sub, err := img.Crop(1, 1, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6, 9, 10}, sub.Data)

	_, err = img.Crop(0, 0, 5, 1)
	assert.Error(t, err)
}

func TestSaveLoadFloat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "float.fits")
	img := New(3, 2)
	copy(img.Data, []float64{1.5, -2, 3, 4, 5.25, math.NaN()})
	img.Header.Set("OBJECT", "flat", "target name")
	img.Header.Set("BIN-FCT1", 1, "")

	require.NoError(t, Save(path, false, img))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Width())
	assert.Equal(t, 2, got.Height())
	assert.Equal(t, -32, got.Bitpix)
	assert.Equal(t, []float64{1.5, -2, 3, 4, 5.25}, got.Data[:5])
	assert.True(t, math.IsNaN(got.Data[5]))

	obj, err := got.Header.String("OBJECT")
	require.NoError(t, err)
	assert.Equal(t, "flat", obj)
}

func TestSaveRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.fits")
	img := New(2, 2)
	require.NoError(t, Save(path, false, img))
	err := Save(path, false, img)
	assert.ErrorIs(t, err, ErrExists)
	assert.NoError(t, Save(path, true, img))
}

func TestSaveLoadUnsignedMultiExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mef.fits")
	primary := NewEmpty(NewHeader(fitsio.Card{Name: "EXP-ID", Value: "SUPE00000010"}))

	var exts []*Image
	for det := 0; det < 2; det++ {
		img := New(2, 2)
		img.Bitpix = 16
		img.Unsigned = true
		copy(img.Data, []float64{0, 1000, 40000, 65535})
		img.Data[0] = float64(det)
		img.Header.Set("DET-ID", det, "")
		exts = append(exts, img)
	}
	require.NoError(t, Save(path, false, append([]*Image{primary}, exts...)...))

	all, err := LoadAll(path)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Empty())
	for det := 0; det < 2; det++ {
		got := all[det+1]
		id, err := got.Header.Int("DET-ID")
		require.NoError(t, err)
		assert.Equal(t, det, id)
		if diff := cmp.Diff([]float64{float64(det), 1000, 40000, 65535}, got.Data); diff != "" {
			t.Errorf("pixels mismatch (-want +got):\n%s", diff)
		}
		assert.True(t, got.Unsigned)
		assert.False(t, got.Header.Has("BZERO"))
	}

	first, err := Load(path)
	require.NoError(t, err)
	id, _ := first.Header.Int("DET-ID")
	assert.Equal(t, 0, id)
}

func TestListFITS(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.fits", "a.fits", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.fits"), 0o755))

	paths, err := ListFITS(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.fits"), filepath.Join(dir, "b.fits")}, paths)
	assert.True(t, IsDirectory(dir))
	assert.False(t, PathExists(filepath.Join(dir, "missing")))
}

func TestLoadAppliesScalingAndBlank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaled.fits")
	w, err := os.Create(path)
	require.NoError(t, err)
	f, err := fitsio.Create(w)
	require.NoError(t, err)
	hdu := fitsio.NewImage(16, []int{3, 1})
	require.NoError(t, hdu.Header().Append(
		fitsio.Card{Name: "BZERO", Value: 10},
		fitsio.Card{Name: "BSCALE", Value: 2},
		fitsio.Card{Name: "BLANK", Value: -1},
	))
	require.NoError(t, hdu.Write([]int16{-1, 5, math.MinInt16}))
	require.NoError(t, f.Write(hdu))
	require.NoError(t, hdu.Close())
	require.NoError(t, f.Close())
	require.NoError(t, w.Close())

	img, err := Load(path)
	require.NoError(t, err)
	require.Len(t, img.Data, 3)
	assert.True(t, math.IsNaN(img.Data[0]), "BLANK becomes NaN")
	assert.Equal(t, []float64{20, 10 + 2*math.MinInt16}, img.Data[1:])
	assert.False(t, img.Unsigned)
	for _, k := range []string{"BZERO", "BSCALE", "BLANK"} {
		assert.False(t, img.Header.Has(k), k)
	}
}

func TestSaveUnsignedClamps(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-5, 0},
		{70000, 65535},
		{1.9, 1},
		{math.NaN(), 0},
	}
	img := New(len(tests), 1)
	img.Bitpix = 16
	img.Unsigned = true
	for i, tt := range tests {
		img.Data[i] = tt.in
	}
	path := filepath.Join(t.TempDir(), "u16.fits")
	require.NoError(t, Save(path, false, img))

	got, err := Load(path)
	require.NoError(t, err)
	for i, tt := range tests {
		assert.Equal(t, tt.want, got.Data[i], "input %v", tt.in)
	}
}

func TestSaveFailureLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.fits")
	img := New(2, 2)
	img.Bitpix = 12

	err := Save(path, false, img)
	require.Error(t, err)
	assert.NoFileExists(t, path)

	img.Bitpix = -32
	assert.NoError(t, Save(path, false, img))
}
