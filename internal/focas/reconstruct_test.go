package focas

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naojutils/internal/fitsimg"
)

const threeSlits = `# Region file format: DS9 version 4.1
global color=green dashlist=8 3 width=1
image
box(3,2,4,2,0)
image;box(3,5,4,2,0) # slit 2
box(7.5,5,4,2,0)
circle(10,10,3)
`

func TestReadRegions(t *testing.T) {
	boxes, err := ReadRegions(strings.NewReader(threeSlits))
	require.NoError(t, err)
	want := []Box{{3, 2, 4, 2}, {3, 5, 4, 2}, {7.5, 5, 4, 2}}
	if diff := cmp.Diff(want, boxes); diff != "" {
		t.Errorf("boxes mismatch (-want +got):\n%s", diff)
	}

	_, err = ReadRegions(strings.NewReader("box(1,2,3,4)\n"))
	assert.ErrorIs(t, err, ErrRegions)
	_, err = ReadRegions(strings.NewReader("box(1,2,x,4)\nbox(1,2,3,4)\n"))
	assert.ErrorIs(t, err, ErrRegions)
}

func TestRegionsForNeedsAFile(t *testing.T) {
	p := newTestProcessor(testConfig())
	_, err := p.RegionsFor("", 2)
	assert.ErrorIs(t, err, ErrRegions)

	dir := t.TempDir()
	cfg := testConfig()
	cfg.Regions = map[int]string{2: writeRegions(t, dir, "slits2.reg", threeSlits)}
	boxes, err := newTestProcessor(cfg).RegionsFor("", 2)
	require.NoError(t, err)
	assert.Len(t, boxes, 3)
}

func TestIntegrate(t *testing.T) {
	img := fitsimg.New(12, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 12; x++ {
			img.Set(x, y, float64(x+10*y))
		}
	}
	img.Header.Set("OBJECT", "sky", "")
	boxes := []Box{{3, 2, 4, 2}, {3, 5, 4, 2}, {7.5, 5, 4, 2}}

	out, err := Integrate(img, boxes)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Width())
	assert.Equal(t, 3, out.Height())
	// box 1: columns 1..4, rows 1..2
	assert.Equal(t, []float64{1 + 11 + 20, 2 + 12 + 20, 3 + 13 + 20, 4 + 14 + 20}, out.Row(0))
	// box 3: int(7.5-2)=5, rows 4..5
	assert.Equal(t, []float64{5 + 15 + 80, 6 + 16 + 80, 7 + 17 + 80, 8 + 18 + 80}, out.Row(2))
	assert.True(t, out.Header.Has("OBJECT"))

	_, err = Integrate(img, []Box{{3, 2, 4, 2}, {11, 5, 4, 2}})
	assert.ErrorIs(t, err, ErrRegions)
}

func TestFlexureShift(t *testing.T) {
	p := newTestProcessor(testConfig())
	h := chipHeader(1, 2, "FCSA00000001")
	h.Set("ALTITUDE", 0.0, "")
	h.Set("INSROT", 0.0, "")
	dx, err := p.FlexureShift(h)
	require.NoError(t, err)
	assert.InDelta(t, -6.98763*math.Cos(-0.299919)/2, dx, 1e-12)

	h.Set("ALTITUDE", 90.0, "")
	dx, err = p.FlexureShift(h)
	require.NoError(t, err)
	assert.InDelta(t, 0, dx, 1e-12)

	h.Remove("INSROT")
	_, err = p.FlexureShift(h)
	assert.ErrorIs(t, err, fitsimg.ErrMissingKeyword)
}

func TestShiftRowsLinear(t *testing.T) {
	img := fitsimg.New(6, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 6; x++ {
			img.Set(x, y, float64(x*(y+1)))
		}
	}
	out, err := ShiftRows(img, 0.5)
	require.NoError(t, err)
	for x := 0; x < 5; x++ {
		assert.InDelta(t, float64(x)+0.5, out.At(x, 0), 1e-9)
		assert.InDelta(t, 2*(float64(x)+0.5), out.At(x, 1), 1e-9)
	}
	// nearest edge
	assert.InDelta(t, 5, out.At(5, 0), 1e-9)

	back, err := ShiftRows(img, -1)
	require.NoError(t, err)
	assert.InDelta(t, 0, back.At(0, 0), 1e-9)
	assert.InDelta(t, 2, back.At(3, 0), 1e-9)
}

func TestFlatField(t *testing.T) {
	data := fitsimg.New(3, 2)
	flat := fitsimg.New(3, 2)
	copy(data.Data, []float64{10, 20, 30, 40, 50, 60})
	copy(flat.Data, []float64{1, 2, 3, 1, 2, 3})

	out, err := FlatField(data, flat, 0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{20, 20, 20, 80, 50, 40}, out.Data, 1e-9)

	_, err = FlatField(data, fitsimg.New(2, 2), 0)
	assert.ErrorIs(t, err, fitsimg.ErrShapeMismatch)
}

func TestReconHeader(t *testing.T) {
	p := newTestProcessor(testConfig())
	src := chipHeader(1, 4, "FCSA00000001")
	dst := fitsimg.NewHeader()
	require.NoError(t, p.ReconHeader(src, dst))

	obj, _ := dst.String("OBJECT")
	assert.Equal(t, "NGC 1068", obj)

	theta := -21.38 * math.Pi / 180
	xscale := 0.25 / 3600 * 4
	yscale := -0.43 / 3600 / 1
	want := map[string]float64{
		"CD1_1": math.Cos(theta) * xscale,
		"CD1_2": -math.Sin(theta) * yscale,
		"CD2_1": math.Sin(theta) * xscale,
		"CD2_2": math.Cos(theta) * yscale,
	}
	for k, v := range want {
		got, err := dst.Float(k)
		require.NoError(t, err)
		assert.InDelta(t, v, got, 1e-15, k)
	}

	src.Set("CD1_1", 0.0, "")
	src.Set("CD2_2", 0.0, "")
	assert.Error(t, p.ReconHeader(src, fitsimg.NewHeader()))
}

func TestReconstructLayout(t *testing.T) {
	data := fitsimg.New(2, 3)
	copy(data.Data, []float64{
		0, 0, // sky
		1, 1,
		2, 2, // first slice
	})

	out, err := Reconstruct(data, 2, false)
	require.NoError(t, err)
	require.Equal(t, 7, out.Height())
	rows := []float64{2, 2, 1, 1, math.NaN(), 0, 0}
	for y, want := range rows {
		if math.IsNaN(want) {
			assert.True(t, math.IsNaN(out.At(0, y)), "row %d", y)
			continue
		}
		assert.Equal(t, want, out.At(1, y), "row %d", y)
	}

	smooth, err := Reconstruct(data, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 1.0, smooth.At(0, 2))
	assert.Equal(t, 0.5, smooth.At(0, 3))

	one, err := Reconstruct(data, 4, false)
	require.NoError(t, err)
	assert.Equal(t, 4, one.Height())

	_, err = Reconstruct(data, 3, false)
	assert.ErrorIs(t, err, ErrBinning)
}

func TestFlatName(t *testing.T) {
	p := newTestProcessor(testConfig())
	h := chipHeader(1, 2, "FCSA00000001")
	name, err := p.FlatName(h)
	require.NoError(t, err)
	assert.Equal(t, "flat_2_I.fits", name)

	h.Set("FILTER02", "SCFCFLBR01", "")
	name, err = p.FlatName(h)
	require.NoError(t, err)
	assert.Equal(t, "flat_2_IR.fits", name)

	h.Set("FILTER03", "SCFCFLN502", "")
	_, err = p.FlatName(h)
	assert.ErrorIs(t, err, ErrUnknownFilter)
}
