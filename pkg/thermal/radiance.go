package thermal

import (
	"fmt"
	"strings"
)

// A Formula picks which variant of the raw count inversion to apply before
// the Planck model.
type Formula int

const (
	// FormulaOffsetFree inverts counts as c' = 65535 - c.
	FormulaOffsetFree Formula = iota
	// FormulaDoubleOffset inverts counts as c' = 65535 - O - c, so the offset
	// cancels out of the denominator. Older tooling shipped this variant.
	FormulaDoubleOffset
)

var formulaNames = map[Formula]string{
	FormulaOffsetFree:   "offsetfree",
	FormulaDoubleOffset: "doubleoffset",
}

func (f Formula) String() string {
	if s, ok := formulaNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Formula(%d)", int(f))
}

func ParseFormula(s string) (Formula, error) {
	for f, name := range formulaNames {
		if strings.EqualFold(s, name) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("no formula named '%s' (want offsetfree or doubleoffset)", s)
}

const maxCount = 65535

// Reconstruct computes radiance with the offset-free formula:
//
//	            R1
//	L = ------------------ - F      where c' = 65535 - c
//	     R2 * (c' + O)
//
// Pixels whose denominator is <= 0 come out as NaN.
func Reconstruct(frame RawThermalFrame, c CalibrationConstants) (RadianceFrame, error) {
	return ReconstructWith(frame, c, FormulaOffsetFree)
}

func ReconstructWith(frame RawThermalFrame, c CalibrationConstants, formula Formula) (RadianceFrame, error) {
	if formula != FormulaOffsetFree && formula != FormulaDoubleOffset {
		return RadianceFrame{}, &UnsupportedModeError{Mode: formula.String()}
	}

	r1, r2, o, f := float32(c.R1), float32(c.R2), float32(c.O), float32(c.F)
	out := RadianceFrame{rows: frame.rows, cols: frame.cols, values: make([]float32, len(frame.counts))}

	for i, count := range frame.counts {
		var inv float32
		if formula == FormulaDoubleOffset {
			inv = float32(maxCount - c.O - float64(count))
		} else {
			inv = float32(maxCount - int(count))
		}

		den := float32(r2 * float32(inv+o))
		if den <= 0 || den != den {
			out.values[i] = Invalid
			continue
		}
		out.values[i] = float32(float32(r1/den) - f)
	}

	return out, nil
}

// ReconstructFromCoefficients is the calibration-coefficient driven path. No
// model is implemented for it yet, so it never yields radiance: the bool is
// always false and the error is an *UnsupportedModeError.
func ReconstructFromCoefficients(frame RawThermalFrame, coefficients []float64) (RadianceFrame, bool, error) {
	return RadianceFrame{}, false, &UnsupportedModeError{Mode: "calibration-coefficients"}
}
