package rjpeg

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/codahale/hdrhistogram"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/abworrall/rjpeg/pkg/emath"
)

// CameraInfo is the little bit of plain EXIF we report alongside the FLIR tags.
type CameraInfo struct {
	Make     string
	Model    string
	Taken    time.Time
	HasTaken bool
}

func (ci CameraInfo) String() string {
	s := strings.TrimSpace(ci.Make + " " + ci.Model)
	if s == "" {
		s = "unknown camera"
	}
	if ci.HasTaken {
		s += ", taken " + ci.Taken.Format("2006-01-02 15:04:05")
	}
	return s
}

// ReadCameraInfo reads the standard EXIF block of the JPEG container.
func ReadCameraInfo(filename string) (CameraInfo, error) {
	ci := CameraInfo{}

	reader, err := os.Open(filename)
	if err != nil {
		return ci, fmt.Errorf("open+r exif '%s': %w", filename, err)
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return ci, fmt.Errorf("exif parsing '%s': %w", filename, err)
	}

	if tag, err := ex.Get(exif.Make); err == nil {
		if s, err := tag.StringVal(); err == nil {
			ci.Make = strings.TrimSpace(s)
		}
	}
	if tag, err := ex.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			ci.Model = strings.TrimSpace(s)
		}
	}
	if t, err := ex.DateTime(); err == nil {
		ci.Taken, ci.HasTaken = t, true
	}

	return ci, nil
}

// cameraFromMetadata falls back to exiftool's view of the maker tags, for
// files whose EXIF block goexif can't parse.
func (r *RJPEG) cameraFromMetadata() (CameraInfo, bool) {
	ci := CameraInfo{}
	mk, okMake := r.metadata.String("Make")
	model, okModel := r.metadata.String("Model")
	if !okMake && !okModel {
		return ci, false
	}
	ci.Make, ci.Model = strings.TrimSpace(mk), strings.TrimSpace(model)
	return ci, true
}

// CountStats summarizes the raw counts.
type CountStats struct {
	Min, Max      int64
	Mean, StdDev  float64
	P01, P50, P99 int64
}

func (cs CountStats) String() string {
	return fmt.Sprintf("min=%d p1=%d median=%d p99=%d max=%d mean=%.1f sd=%.1f",
		cs.Min, cs.P01, cs.P50, cs.P99, cs.Max, cs.Mean, cs.StdDev)
}

func (r *RJPEG) CountStats() CountStats {
	h := hdrhistogram.New(1, 65535, 5)
	for _, c := range r.rawCounts.Counts() {
		h.RecordValue(int64(c))
	}
	if h.TotalCount() == 0 {
		return CountStats{}
	}
	return CountStats{
		Min:    h.Min(),
		Max:    h.Max(),
		Mean:   h.Mean(),
		StdDev: h.StdDev(),
		P01:    h.ValueAtQuantile(1),
		P50:    h.ValueAtQuantile(50),
		P99:    h.ValueAtQuantile(99),
	}
}

// RadianceGrid is absent if there is no radiance.
func (r *RJPEG) RadianceGrid() (emath.FloatGrid, bool) {
	rad, ok := r.Radiance()
	if !ok {
		return emath.FloatGrid{}, false
	}
	return emath.NewFloatGridFrom32(rad.Cols(), rad.Rows(), rad.Values()), true
}

// Describe is a multi-line human readable report.
func (r *RJPEG) Describe() string {
	str := fmt.Sprintf("%s\n", r)

	if ci, err := ReadCameraInfo(r.LoadFilename); err == nil {
		str += fmt.Sprintf("  camera   : %s\n", ci)
	} else if ci, ok := r.cameraFromMetadata(); ok {
		str += fmt.Sprintf("  camera   : %s\n", ci)
	}
	str += fmt.Sprintf("  counts   : %s\n", r.CountStats())
	str += fmt.Sprintf("  planck   : %s\n", r.Calibration)

	if fg, ok := r.RadianceGrid(); ok {
		str += fmt.Sprintf("  radiance : %s\n", fg.Stats())
	} else {
		str += "  radiance : not available\n"
	}

	if rgb, ok := r.RGB(); ok {
		str += fmt.Sprintf("  rgb      : %d x %d\n", rgb.Bounds().Dx(), rgb.Bounds().Dy())
	} else {
		str += "  rgb      : not present\n"
	}

	return str
}
