// Package rjpeg pulls the radiometric content out of FLIR thermal JPEGs:
// tag metadata, raw sensor counts, the embedded RGB preview, and the
// radiance reconstructed from the counts.
package rjpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/tiff"

	"github.com/abworrall/rjpeg/pkg/exiftool"
	"github.com/abworrall/rjpeg/pkg/thermal"
)

var log = logrus.WithField("pkg", "rjpeg")

// An RJPEG holds everything extracted from one file. Raw counts are always
// present on a successfully loaded RJPEG; RGB and radiance may not be.
type RJPEG struct {
	LoadFilename string
	Calibration  thermal.CalibrationConstants

	metadata    exiftool.Metadata
	rawCounts   thermal.RawThermalFrame
	rgb         image.Image
	radiance    thermal.RadianceFrame
	hasRadiance bool
}

// Load runs the whole pipeline on one file. Only a missing or unreadable
// file, a tool failure, an absent or undecodable raw thermal blob, or
// missing Planck constants are errors; a missing RGB preview is not.
func Load(ctx context.Context, filename string, cfg Config, ex exiftool.Extractor) (*RJPEG, error) {
	if err := checkReadable(filename); err != nil {
		return nil, err
	}

	r := RJPEG{LoadFilename: filename}
	flog := log.WithField("file", r.Filename())

	md, err := ex.Metadata(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", filename, err)
	}
	r.metadata = md

	if r.rgb, err = loadRGB(ctx, filename, ex); err != nil {
		return nil, err
	} else if r.rgb == nil {
		flog.Debugf("no embedded RGB image")
	}

	opts, err := cfg.GetDecodeOptions()
	if err != nil {
		return nil, err
	}
	blob, err := ex.Blob(ctx, filename, exiftool.RawThermalImage)
	if err != nil {
		return nil, fmt.Errorf("raw thermal blob %s: %w", filename, err)
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, &thermal.DecodeError{Reason: "no " + string(exiftool.RawThermalImage) + " in file"})
	}
	if r.rawCounts, err = thermal.DecodeWithOptions(blob, opts); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	flog.Debugf("raw counts %s", r.rawCounts)
	checkRawShape(flog, md, r.rawCounts)

	if cfg.CalibrationCoefficients != nil {
		rad, ok, err := thermal.ReconstructFromCoefficients(r.rawCounts, cfg.CalibrationCoefficients)
		var ue *thermal.UnsupportedModeError
		if err != nil && !errors.As(err, &ue) {
			return nil, fmt.Errorf("%s: %w", filename, err)
		} else if err != nil {
			flog.Warnf("%v", err)
		}
		r.radiance, r.hasRadiance = rad, ok
		return &r, nil
	}

	if r.Calibration, err = thermal.CalibrationFromMetadata(md); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	formula, err := cfg.GetFormula()
	if err != nil {
		return nil, err
	}
	if r.radiance, err = thermal.ReconstructWith(r.rawCounts, r.Calibration, formula); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	r.hasRadiance = true
	flog.Debugf("radiance %s using %s, %s", r.radiance, formula, r.Calibration)

	return &r, nil
}

// checkRawShape warns when the decoded grid disagrees with the size exiftool
// reported for the raw thermal image.
func checkRawShape(flog *logrus.Entry, md exiftool.Metadata, f thermal.RawThermalFrame) {
	w, okW := md.Float("RawThermalImageWidth")
	h, okH := md.Float("RawThermalImageHeight")
	if okW && okH && (int(w) != f.Cols() || int(h) != f.Rows()) {
		flog.Warnf("metadata says raw thermal image is %d x %d, decoded %d x %d", int(w), int(h), f.Cols(), f.Rows())
	}
}

func checkReadable(filename string) error {
	st, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("the RJPEG path provided does not exist: %w", err)
	}
	if st.IsDir() {
		return fmt.Errorf("expected a file, but got a directory: %s", filename)
	}
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("the RJPEG path provided is not readable: %w", err)
	}
	return f.Close()
}

// loadRGB returns nil, nil if the file has no embedded image.
func loadRGB(ctx context.Context, filename string, ex exiftool.Extractor) (image.Image, error) {
	blob, err := ex.Blob(ctx, filename, exiftool.EmbeddedImage)
	if err != nil {
		return nil, fmt.Errorf("embedded image %s: %w", filename, err)
	}
	if len(blob) == 0 {
		return nil, nil
	}
	img, _, err := image.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("embedded image %s: %w", filename, err)
	}
	return img, nil
}

func (r *RJPEG) Filename() string {
	return filepath.Base(r.LoadFilename)
}

// Shape is (rows, cols) of the raw count grid.
func (r *RJPEG) Shape() (int, int) { return r.rawCounts.Rows(), r.rawCounts.Cols() }
func (r *RJPEG) Size() int         { return r.rawCounts.Size() }

func (r *RJPEG) RawCounts() thermal.RawThermalFrame { return r.rawCounts }

// Radiance is absent when it came from the calibration-coefficients path.
func (r *RJPEG) Radiance() (thermal.RadianceFrame, bool) { return r.radiance, r.hasRadiance }

// RGB is absent when the file had no embedded image.
func (r *RJPEG) RGB() (image.Image, bool) { return r.rgb, r.rgb != nil }

// Metadata returns a single tag value.
func (r *RJPEG) Metadata(key string) (interface{}, error) {
	v, ok := r.metadata[key]
	if !ok {
		return nil, fmt.Errorf("provided key not found in metadata: %s", key)
	}
	return v, nil
}

// AllMetadata returns a copy of every tag.
func (r *RJPEG) AllMetadata() exiftool.Metadata {
	return r.metadata.Copy()
}

func (r *RJPEG) String() string {
	rows, cols := r.Shape()
	return fmt.Sprintf("%s: %d x %d [%d] (uint16)", r.Filename(), cols, rows, r.Size())
}
