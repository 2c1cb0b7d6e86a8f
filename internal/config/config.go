// Package config holds the instrument tables shared by the command line
// tools. Defaults are embedded in the binary; a YAML file given with
// --config is decoded over them.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	FOCAS FOCAS `yaml:"focas"`
	SPCAM SPCAM `yaml:"spcam"`
}

// Amp is one amplifier row of the FOCAS overscan table: overscan-low
// start/end, image start/end and overscan-high start/end, 1-based and
// inclusive.
type Amp [6]int

func (a Amp) OverscanLow() (int, int)  { return a[0], a[1] }
func (a Amp) Image() (int, int)        { return a[2], a[3] }
func (a Amp) OverscanHigh() (int, int) { return a[4], a[5] }

type Flexure struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
}

type FOCAS struct {
	SoftwareKeyword  string            `yaml:"softwareKeyword"`
	SoftwareVersion  int               `yaml:"softwareVersion"`
	Overscan         map[int][]Amp     `yaml:"overscan"`
	Gains            []float64         `yaml:"gains"`
	TrimY            map[int][2]int    `yaml:"trimY"`
	BadPixels        map[int][][4]int  `yaml:"badPixels"`
	TemplateRows     int               `yaml:"templateRows"`
	SigmaClip        float64           `yaml:"sigmaClip"`
	TemplatePrefix   string            `yaml:"templatePrefix"`
	CCDGapArcsec     float64           `yaml:"ccdGapArcsec"`
	PixelScale       float64           `yaml:"pixelScale"`
	SlicePitch       float64           `yaml:"slicePitch"`
	IFURotation      float64           `yaml:"ifuRotation"`
	Flexure          Flexure           `yaml:"flexure"`
	Regions          map[int]string    `yaml:"regions"`
	FilterCodes      map[string]string `yaml:"filterCodes"`
	TransferKeywords []string          `yaml:"transferKeywords"`
}

type SPCAM struct {
	Prefix          string   `yaml:"prefix"`
	NumCCDs         int      `yaml:"numCCDs"`
	FrameOffsets    []int    `yaml:"frameOffsets"`
	Workers         int      `yaml:"workers"`
	PrimaryKeywords []string `yaml:"primaryKeywords"`
	ImageKeywords   []string `yaml:"imageKeywords"`
}

// Default returns the embedded configuration.
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}
	return &cfg, nil
}

// Load returns the embedded defaults overlaid with the file at path. An
// empty path returns the defaults. Relative region file names are taken
// relative to the directory of the config file.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		regions := cfg.FOCAS.Regions
		cfg.FOCAS.Regions = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		dir := filepath.Dir(path)
		for bin, file := range cfg.FOCAS.Regions {
			if file != "" && !filepath.IsAbs(file) {
				cfg.FOCAS.Regions[bin] = filepath.Join(dir, file)
			}
		}
		for bin, file := range regions {
			if _, ok := cfg.FOCAS.Regions[bin]; !ok {
				if cfg.FOCAS.Regions == nil {
					cfg.FOCAS.Regions = map[int]string{}
				}
				cfg.FOCAS.Regions[bin] = file
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	f := c.FOCAS
	if f.SoftwareKeyword == "" {
		return fmt.Errorf("%w: focas.softwareKeyword is empty", ErrInvalid)
	}
	if len(f.Gains) != 8 {
		return fmt.Errorf("%w: focas.gains needs 8 values, got %d", ErrInvalid, len(f.Gains))
	}
	for bin, amps := range f.Overscan {
		if len(amps) != 8 {
			return fmt.Errorf("%w: focas.overscan[%d] needs 8 amplifiers, got %d", ErrInvalid, bin, len(amps))
		}
		for i, a := range amps {
			for k := 0; k < 6; k += 2 {
				if a[k] < 1 || a[k] > a[k+1] {
					return fmt.Errorf("%w: focas.overscan[%d][%d] bounds %v", ErrInvalid, bin, i, a)
				}
			}
		}
	}
	for bin, r := range f.TrimY {
		if r[0] < 0 || r[0] >= r[1] {
			return fmt.Errorf("%w: focas.trimY[%d] = %v", ErrInvalid, bin, r)
		}
	}
	if f.TemplateRows < 1 {
		return fmt.Errorf("%w: focas.templateRows must be positive", ErrInvalid)
	}
	if f.SigmaClip <= 0 {
		return fmt.Errorf("%w: focas.sigmaClip must be positive", ErrInvalid)
	}
	if f.PixelScale <= 0 || f.SlicePitch <= 0 {
		return fmt.Errorf("%w: focas.pixelScale and focas.slicePitch must be positive", ErrInvalid)
	}

	s := c.SPCAM
	if s.NumCCDs < 1 {
		return fmt.Errorf("%w: spcam.numCCDs must be positive", ErrInvalid)
	}
	if len(s.FrameOffsets) != s.NumCCDs {
		return fmt.Errorf("%w: spcam.frameOffsets has %d entries for %d CCDs", ErrInvalid, len(s.FrameOffsets), s.NumCCDs)
	}
	return nil
}

// Amps returns the four amplifier rows of one FOCAS chip. DET-ID 1 is the
// right chip.
func (f *FOCAS) Amps(bin, detID int) ([]Amp, int, error) {
	table, ok := f.Overscan[bin]
	if !ok {
		return nil, 0, fmt.Errorf("%w: no overscan table for binning %d", ErrInvalid, bin)
	}
	k := 0
	if detID == 1 {
		k = 4
	}
	return table[k : k+4], k, nil
}
