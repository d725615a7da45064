package rjpeg

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/abworrall/rjpeg/pkg/exiftool"
)

// A Batch is a set of RJPEG files to run through the pipeline, plus the
// configuration to run them with.
type Batch struct {
	Config
	Filenames []string
	Loaded    []*RJPEG // Same order as Filenames, once Process has run
}

func NewBatch() Batch {
	return Batch{Config: NewConfig()}
}

func (b Batch) String() string {
	str := fmt.Sprintf("Batch (%d files) [\n", len(b.Filenames))
	for i, f := range b.Filenames {
		if i < len(b.Loaded) && b.Loaded[i] != nil {
			str += fmt.Sprintf("  %s\n", b.Loaded[i])
		} else {
			str += fmt.Sprintf("  %s (not loaded)\n", filepath.Base(f))
		}
	}
	return str + "]\n"
}

// LoadFilesAndDirs walks the args, recursing into dirs. JPEGs are queued
// for processing; a .yaml file replaces the configuration.
func (b *Batch) LoadFilesAndDirs(args ...string) error {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return fmt.Errorf("load %s: %w", arg, err)

		case item.IsDir():
			contents, err := ioutil.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %w", arg, err)
			}
			for _, content := range contents {
				if err := b.LoadFilesAndDirs(filepath.Join(arg, content.Name())); err != nil {
					return fmt.Errorf("load %s: %w", arg, err)
				}
			}

		default:
			if err := b.loadFile(arg); err != nil {
				return fmt.Errorf("loadfile %s: %w", arg, err)
			}
		}
	}

	return nil
}

func (b *Batch) loadFile(filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {

	case ".jpg", ".jpeg":
		b.Filenames = append(b.Filenames, filename)

	case ".yaml", ".yml":
		cfg, err := LoadConfig(filename)
		if err != nil {
			return err
		}
		b.Config = cfg
		log.Infof("loaded base configuration from %s", filename)
	}

	return nil
}

// Process loads every queued file, up to Workers at a time. The first
// failure cancels the rest and is returned.
func (b *Batch) Process(ctx context.Context, ex exiftool.Extractor) error {
	if err := b.Config.Validate(); err != nil {
		return err
	}
	sort.Strings(b.Filenames)
	b.Loaded = make([]*RJPEG, len(b.Filenames))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Config.Workers)

	for i, filename := range b.Filenames {
		i, filename := i, filename
		g.Go(func() error {
			r, err := Load(ctx, filename, b.Config, ex)
			if err != nil {
				return err
			}

			out := b.Config.Output
			if len(b.Filenames) > 1 {
				out = out.ForFile(filename)
			}
			if err := r.WriteOutputs(out, b.Config); err != nil {
				return fmt.Errorf("%s: %w", filename, err)
			}

			b.Loaded[i] = r
			return nil
		})
	}

	return g.Wait()
}

// ForFile prefixes each output name with the source file's base name, so
// a batch doesn't overwrite its own outputs.
func (o Output) ForFile(source string) Output {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	prefix := func(p string) string {
		if p == "" {
			return ""
		}
		return filepath.Join(filepath.Dir(p), stem+"-"+filepath.Base(p))
	}
	return Output{
		RawPath:     prefix(o.RawPath),
		RadPath:     prefix(o.RadPath),
		RGBPath:     prefix(o.RGBPath),
		HDRPath:     prefix(o.HDRPath),
		PreviewPath: prefix(o.PreviewPath),
		TonemapPath: prefix(o.TonemapPath),
	}
}
