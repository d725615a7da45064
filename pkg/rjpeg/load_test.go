package rjpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/rjpeg/pkg/exiftool"
	"github.com/abworrall/rjpeg/pkg/thermal"
)

func TestLoadFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	a := sourceFile(t, dir, "IR_0001.jpg")
	b := sourceFile(t, sub, "IR_0002.JPEG")
	sourceFile(t, dir, "notes.txt")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cfg.yaml"), []byte("workers: 1\npalette: gray\n"), 0o644))

	batch := NewBatch()
	require.NoError(t, batch.LoadFilesAndDirs(dir))
	assert.ElementsMatch(t, []string{a, b}, batch.Filenames)
	assert.Equal(t, 1, batch.Workers)
	assert.Equal(t, "gray", batch.Palette)

	assert.Error(t, batch.LoadFilesAndDirs(filepath.Join(dir, "missing")))
}

func TestBatchProcess(t *testing.T) {
	dir := t.TempDir()
	batch := NewBatch()
	for _, n := range []string{"c.jpg", "a.jpg", "b.jpg"} {
		batch.Filenames = append(batch.Filenames, sourceFile(t, dir, n))
	}
	batch.Output.RadPath = filepath.Join(dir, "rad.tif")

	fake := newFake(t)
	require.NoError(t, batch.Process(context.Background(), fake))
	assert.Equal(t, 3, fake.calls)

	require.Len(t, batch.Loaded, 3)
	for i, n := range []string{"a", "b", "c"} {
		assert.Equal(t, n+".jpg", batch.Loaded[i].Filename())
		_, err := os.Stat(filepath.Join(dir, n+"-rad.tif"))
		assert.NoError(t, err)
	}
	assert.Contains(t, batch.String(), "a.jpg: 2 x 1")
}

func TestBatchProcessFailure(t *testing.T) {
	dir := t.TempDir()
	batch := NewBatch()
	batch.Filenames = []string{sourceFile(t, dir, "a.jpg"), sourceFile(t, dir, "b.jpg")}

	fake := newFake(t)
	delete(fake.meta, "PlanckR2")
	err := batch.Process(context.Background(), fake)

	var me *thermal.MissingCalibrationError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "PlanckR2", me.Key)
}

func TestOutputForFile(t *testing.T) {
	o := Output{RawPath: "out/raw.tif", PreviewPath: "p.png"}
	got := o.ForFile("/data/IR_0042.jpg")
	assert.Equal(t, Output{
		RawPath:     filepath.Join("out", "IR_0042-raw.tif"),
		PreviewPath: "IR_0042-p.png",
	}, got)
}

var _ exiftool.Extractor = (*fakeExtractor)(nil)
var _ exiftool.Extractor = (*exiftool.Tool)(nil)
