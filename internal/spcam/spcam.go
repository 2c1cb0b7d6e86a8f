// Package spcam reduces Suprime-Cam exposures: overscan subtraction per
// amplifier channel, packing the per-CCD files of an exposure into one
// multi-extension FITS file, and dome flat tiles.
package spcam

import (
	"errors"

	"go.uber.org/zap"

	"naojutils/internal/config"
	"naojutils/internal/logging"
)

var (
	ErrRegions  = errors.New("bad channel regions")
	ErrExposure = errors.New("incomplete exposure")
)

// Reducer holds the instrument tables for one camera.
type Reducer struct {
	cfg *config.SPCAM
	log *zap.Logger
}

// New returns a Reducer for the given instrument tables. A nil log
// discards messages.
func New(cfg *config.SPCAM, log *zap.Logger) *Reducer {
	return &Reducer{cfg: cfg, log: logging.OrNop(log)}
}
