package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "IFU_SOFT", cfg.FOCAS.SoftwareKeyword)
	assert.Equal(t, 20190130, cfg.FOCAS.SoftwareVersion)
	assert.Len(t, cfg.FOCAS.Overscan, 3)
	assert.Equal(t, Amp{1610, 1625, 1626, 2137, 2138, 2143}, cfg.FOCAS.Overscan[1][7])
	assert.Equal(t, [2]int{26, 2110}, cfg.FOCAS.TrimY[2])
	assert.Equal(t, "I", cfg.FOCAS.FilterCodes["SCFCFLBI01"])
	assert.Contains(t, cfg.FOCAS.TransferKeywords, "DATE-OBS")

	assert.Equal(t, 10, cfg.SPCAM.NumCCDs)
	assert.Contains(t, cfg.SPCAM.ImageKeywords, "DET-ID")
	assert.NotContains(t, cfg.SPCAM.PrimaryKeywords, "BITPIX")
}

func TestAmps(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	right, k, err := cfg.FOCAS.Amps(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, k)
	lo, hi := right[0].OverscanLow()
	assert.Equal(t, []int{1, 4}, []int{lo, hi})

	left, k, err := cfg.FOCAS.Amps(2, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, k)
	lo, hi = left[3].Image()
	assert.Equal(t, []int{845, 1100}, []int{lo, hi})

	_, _, err = cfg.FOCAS.Amps(3, 1)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
focas:
  sigmaClip: 3.0
  regions:
    2: pseudoslits2.reg
spcam:
  workers: 1
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.FOCAS.SigmaClip)
	assert.Equal(t, filepath.Join(dir, "pseudoslits2.reg"), cfg.FOCAS.Regions[2])
	assert.Equal(t, 1, cfg.SPCAM.Workers)
	assert.Len(t, cfg.FOCAS.Gains, 8)
}

func TestOverlayRejectsBadTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("focas:\n  gains: [1.0, 2.0]\n"), 0o644))
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
}
