package plotting

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.png")
	ys := []float64{1000, 1001, math.NaN(), 999, 1002}

	require.NoError(t, Profile(path, "bias template", "column", "ADU", ys))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), raw[:4])
}

func TestProfileNeedsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	assert.ErrorIs(t, Profile(path, "", "", "", []float64{math.NaN()}), ErrNoData)
	assert.ErrorIs(t, Rows(path, "", 4, []float64{1, 2}), ErrNoData)
}

func TestRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slits.png")
	require.NoError(t, Rows(path, "flat", 3, []float64{1, 2, 3, 4, 5, 6}))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
