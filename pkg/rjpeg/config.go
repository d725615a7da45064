package rjpeg

import (
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/rjpeg/pkg/emath"
	"github.com/abworrall/rjpeg/pkg/exiftool"
	"github.com/abworrall/rjpeg/pkg/rasterio"
	"github.com/abworrall/rjpeg/pkg/thermal"
)

/* Example config file ...

verbosity: 1
exiftoolpath: /usr/local/bin/exiftool
tooltimeout: 30s
workers: 4
formula: offsetfree
pngsampleorder: big
palette: iron
output:
  rawpath: out/raw.tif
  radpath: out/rad.tif

*/

// Output names the artifacts to write. Empty means don't write it. When
// more than one file is processed, each name gets the source file's base
// name prefixed to it.
type Output struct {
	RawPath     string `yaml:"rawpath"`
	RadPath     string `yaml:"radpath"`
	RGBPath     string `yaml:"rgbpath"`
	HDRPath     string `yaml:"hdrpath"`
	PreviewPath string `yaml:"previewpath"`
	TonemapPath string `yaml:"tonemappath"`
}

type Config struct {
	Verbosity int `yaml:"verbosity"`

	ExiftoolPath string        `yaml:"exiftoolpath"`
	ToolTimeout  time.Duration `yaml:"tooltimeout"`
	Workers      int           `yaml:"workers"`

	Formula        string `yaml:"formula"`        // offsetfree, doubleoffset
	PNGSampleOrder string `yaml:"pngsampleorder"` // big (PNG standard), little (some FLIR firmware)
	Palette        string `yaml:"palette"`        // for the preview image
	Tonemapper     string `yaml:"tonemapper"`     // for the tonemapped image

	// If set, radiance comes from the calibration-coefficients path, which
	// has no model yet, so no radiance will be produced.
	CalibrationCoefficients []float64 `yaml:"calibrationcoefficients,omitempty"`

	Output Output `yaml:"output"`
}

func NewConfig() Config {
	return Config{
		ExiftoolPath:   "exiftool",
		ToolTimeout:    exiftool.DefaultTimeout,
		Workers:        4,
		Formula:        thermal.FormulaOffsetFree.String(),
		PNGSampleOrder: "big",
		Palette:        "iron",
		Tonemapper:     "linear",
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func LoadConfig(filename string) (Config, error) {
	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %w", filename, err)
	}
	c, err := newConfigFromYaml(contents)
	if err != nil {
		return c, fmt.Errorf("config parse %s: %w", filename, err)
	}
	return c, nil
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("# can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

// Validate does sanity checks on the string-typed knobs.
func (c Config) Validate() error {
	if _, err := c.GetFormula(); err != nil {
		return err
	}
	if _, err := c.GetDecodeOptions(); err != nil {
		return err
	}
	if _, err := emath.GetPalette(c.Palette); err != nil {
		return err
	}
	if !validTonemapper(c.Tonemapper) {
		return fmt.Errorf("no tonemapper named '%s', wanted one of %s", c.Tonemapper, rasterio.ListTonemappers())
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ToolTimeout < 0 {
		return fmt.Errorf("tooltimeout must not be negative, got %s", c.ToolTimeout)
	}
	return nil
}

func (c Config) GetFormula() (thermal.Formula, error) {
	return thermal.ParseFormula(c.Formula)
}

func (c Config) GetDecodeOptions() (thermal.DecodeOptions, error) {
	switch strings.ToLower(c.PNGSampleOrder) {
	case "big", "":
		return thermal.DecodeOptions{PNGSampleOrder: binary.BigEndian}, nil
	case "little":
		return thermal.DecodeOptions{PNGSampleOrder: binary.LittleEndian}, nil
	default:
		return thermal.DecodeOptions{}, fmt.Errorf("no byte order named '%s' (want little or big)", c.PNGSampleOrder)
	}
}

func (c Config) GetPalette() emath.Palette {
	p, err := emath.GetPalette(c.Palette)
	if err != nil {
		return emath.Gray{}
	}
	return p
}

func (c Config) NewExtractor() *exiftool.Tool {
	return exiftool.New(c.ExiftoolPath, c.ToolTimeout)
}

func validTonemapper(name string) bool {
	for _, t := range rasterio.Tonemappers {
		if t == name {
			return true
		}
	}
	return false
}
