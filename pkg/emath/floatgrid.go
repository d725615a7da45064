package emath

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/fogleman/gg" // Move to https://pkg.go.dev/golang.org/x/image/font#Drawer sometime
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// A FloatGrid is a grid of floats, with some operations. NaN means "no value"
// and is skipped by everything that summarizes the grid.
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

// NewFloatGridFrom32 widens a row-major float32 grid.
func NewFloatGridFrom32(w, h int, vals []float32) FloatGrid {
	fg := NewFloatGrid(w, h)
	for i := range fg.values {
		fg.values[i] = float64(vals[i])
	}
	return fg
}

func (fg *FloatGrid) Set(x, y int, v float64) { fg.values[fg.stride*y+x] = v }
func (fg *FloatGrid) Get(x, y int) float64    { return fg.values[fg.stride*y+x] }
func (fg *FloatGrid) Dx() int                 { return fg.stride }
func (fg *FloatGrid) Dy() int {
	if fg.stride == 0 {
		return 0
	}
	return len(fg.values) / fg.stride
}

// Valid returns all the non-NaN values, in grid order.
func (fg *FloatGrid) Valid() []float64 {
	v := make([]float64, 0, len(fg.values))
	for _, f := range fg.values {
		if !math.IsNaN(f) {
			v = append(v, f)
		}
	}
	return v
}

// FindMinMaxAtPercentile ignores NaNs; percentiles are in [0,1]. Clipping
// the extremes keeps a few hot pixels from washing out a rendering.
func (fg *FloatGrid) FindMinMaxAtPercentile(minPrct, maxPrct float64) (float64, float64) {
	vals := fg.Valid()
	if len(vals) == 0 {
		return 0, 0
	}
	sort.Float64s(vals)

	iMin := int(minPrct * float64(len(vals)))
	iMax := int(maxPrct * float64(len(vals)))
	if iMin < 0 {
		iMin = 0
	}
	if iMax >= len(vals) {
		iMax = len(vals) - 1
	}

	return vals[iMin], vals[iMax]
}

// Summary describes the valid values of a grid.
type Summary struct {
	N, NaN       int
	Min, Max     float64
	Mean, StdDev float64
}

func (fg *FloatGrid) Summarize() Summary {
	vals := fg.Valid()
	s := Summary{N: len(vals), NaN: len(fg.values) - len(vals)}
	if len(vals) == 0 {
		return s
	}
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	s.Mean, s.StdDev = stat.MeanStdDev(vals, nil)
	if len(vals) == 1 {
		s.StdDev = 0
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d nan=%d min=%g max=%g mean=%g sd=%g", s.N, s.NaN, s.Min, s.Max, s.Mean, s.StdDev)
}

// Stats is a one-line summary with the grid size, for reports.
func (fg *FloatGrid) Stats() string {
	return fmt.Sprintf("%dx%d %s", fg.Dx(), fg.Dy(), fg.Summarize())
}

// Render maps the grid through a palette, scaling between the 1st and 99th
// percentile values. NaN pixels come out transparent.
func (fg *FloatGrid) Render(p Palette) *image.RGBA {
	min, max := fg.FindMinMaxAtPercentile(0.01, 0.99)
	img := image.NewRGBA(image.Rect(0, 0, fg.Dx(), fg.Dy()))

	for x := 0; x < fg.Dx(); x++ {
		for y := 0; y < fg.Dy(); y++ {
			v := fg.Get(x, y)
			if math.IsNaN(v) {
				img.Set(x, y, color.Transparent)
				continue
			}
			f := 0.0
			if max > min {
				f = (v - min) / (max - min)
			}
			img.Set(x, y, p.At(f))
		}
	}

	return img
}

// ToImg renders the grid and stamps a title in the corner.
func (fg *FloatGrid) ToImg(title string, p Palette) image.Image {
	dc := gg.NewContextForImage(fg.Render(p))
	if title != "" {
		dc.SetRGB(1, 1, 1)
		dc.DrawString(title, 4, 14)
	}
	return dc.Image()
}
