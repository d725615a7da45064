package thermal

import (
	"fmt"
	"image"
	"math"
)

// A RawThermalFrame holds the unprocessed sensor counts pulled out of an
// RJPEG, row-major. Once built it is never mutated; accessors hand out
// copies.
type RawThermalFrame struct {
	rows   int
	cols   int
	counts []uint16
}

// NewRawThermalFrame copies counts into a new frame. len(counts) must be
// rows*cols.
func NewRawThermalFrame(rows, cols int, counts []uint16) (RawThermalFrame, error) {
	if rows < 0 || cols < 0 || len(counts) != rows*cols {
		return RawThermalFrame{}, fmt.Errorf("raw frame %dx%d: have %d counts", rows, cols, len(counts))
	}
	f := RawThermalFrame{rows: rows, cols: cols, counts: make([]uint16, len(counts))}
	copy(f.counts, counts)
	return f, nil
}

func (f RawThermalFrame) Rows() int              { return f.rows }
func (f RawThermalFrame) Cols() int              { return f.cols }
func (f RawThermalFrame) Size() int              { return len(f.counts) }
func (f RawThermalFrame) At(row, col int) uint16 { return f.counts[row*f.cols+col] }

// Counts returns a copy of the row-major count grid.
func (f RawThermalFrame) Counts() []uint16 {
	c := make([]uint16, len(f.counts))
	copy(c, f.counts)
	return c
}

// Gray16 renders the frame as an image.Gray16, for handing to image encoders.
func (f RawThermalFrame) Gray16() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, f.cols, f.rows))
	for i, v := range f.counts {
		img.Pix[2*i] = uint8(v >> 8)
		img.Pix[2*i+1] = uint8(v)
	}
	return img
}

func (f RawThermalFrame) String() string {
	return fmt.Sprintf("%d x %d [%d] (uint16)", f.cols, f.rows, f.Size())
}

// CalibrationConstants are the Planck constants FLIR writes into each file.
// B is carried along for reporting; the inversion does not use it.
type CalibrationConstants struct {
	R1 float64
	R2 float64
	O  float64
	F  float64
	B  float64
}

func (c CalibrationConstants) String() string {
	return fmt.Sprintf("R1=%g R2=%g O=%g F=%g B=%g", c.R1, c.R2, c.O, c.F, c.B)
}

// A RadianceFrame holds sensor-reaching radiance, same shape as the
// RawThermalFrame it came from. Pixels the model can't handle are NaN.
type RadianceFrame struct {
	rows   int
	cols   int
	values []float32
}

// Invalid is the sentinel stored for pixels with a non-positive denominator.
var Invalid = float32(math.NaN())

func (f RadianceFrame) Rows() int               { return f.rows }
func (f RadianceFrame) Cols() int               { return f.cols }
func (f RadianceFrame) Size() int               { return len(f.values) }
func (f RadianceFrame) At(row, col int) float32 { return f.values[row*f.cols+col] }
func (f RadianceFrame) IsValid(row, col int) bool {
	v := f.At(row, col)
	return v == v
}

// Values returns a copy of the row-major radiance grid.
func (f RadianceFrame) Values() []float32 {
	v := make([]float32, len(f.values))
	copy(v, f.values)
	return v
}

// ValidCount is the number of non-NaN pixels.
func (f RadianceFrame) ValidCount() int {
	n := 0
	for _, v := range f.values {
		if v == v {
			n++
		}
	}
	return n
}

func (f RadianceFrame) String() string {
	return fmt.Sprintf("%d x %d [%d] (float32, %d valid)", f.cols, f.rows, f.Size(), f.ValidCount())
}
