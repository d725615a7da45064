package rjpeg

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/rjpeg/pkg/thermal"
)

func TestConfigFromYaml(t *testing.T) {
	c, err := newConfigFromYaml([]byte(`
verbosity: 2
tooltimeout: 5s
workers: 2
formula: doubleoffset
pngsampleorder: little
palette: gray
output:
  radpath: out/rad.tif
`))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Verbosity)
	assert.Equal(t, 5*time.Second, c.ToolTimeout)
	assert.Equal(t, "exiftool", c.ExiftoolPath, "defaults survive partial files")
	assert.Equal(t, "out/rad.tif", c.Output.RadPath)

	f, err := c.GetFormula()
	require.NoError(t, err)
	assert.Equal(t, thermal.FormulaDoubleOffset, f)

	opts, err := c.GetDecodeOptions()
	require.NoError(t, err)
	assert.Equal(t, binary.LittleEndian, opts.PNGSampleOrder)
}

func TestConfigDefaultPNGOrderIsStandard(t *testing.T) {
	opts, err := NewConfig().GetDecodeOptions()
	require.NoError(t, err)
	assert.Equal(t, binary.BigEndian, opts.PNGSampleOrder)
}

func TestConfigRoundTrip(t *testing.T) {
	c := NewConfig()
	c.Output.HDRPath = "x.hdr"
	c2, err := newConfigFromYaml([]byte(c.AsYaml()))
	require.NoError(t, err)
	assert.Equal(t, c, c2)
}

func TestConfigValidate(t *testing.T) {
	for name, yml := range map[string]string{
		"formula": "formula: planck",
		"order":   "pngsampleorder: middle",
		"palette": "palette: plasma",
		"workers": "workers: 0",
		"tmo":     "tonemapper: fattal02",
		"yaml":    "workers: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := newConfigFromYaml([]byte(yml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	name := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(name, []byte("workers: 8\n"), 0o644))

	c, err := LoadConfig(name)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Workers)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
