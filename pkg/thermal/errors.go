package thermal

import "fmt"

// A DecodeError means the raw thermal blob was absent, truncated, or not a
// single channel raster we know how to read.
type DecodeError struct {
	Container string // "png", "tiff", or "" if we never got that far
	Reason    string
	Err       error
}

func (e *DecodeError) Error() string {
	s := "decode raw thermal"
	if e.Container != "" {
		s += " (" + e.Container + ")"
	}
	s += ": " + e.Reason
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *DecodeError) Unwrap() error { return e.Err }

// A MissingCalibrationError names the Planck constant that was absent, or
// present but not a number.
type MissingCalibrationError struct {
	Key   string
	Value interface{} // nil when the key was absent
}

func (e *MissingCalibrationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("calibration constant %s missing from metadata", e.Key)
	}
	return fmt.Sprintf("calibration constant %s is not numeric: %v", e.Key, e.Value)
}

// UnsupportedModeError is returned by radiance modes that are declared but
// not implemented.
type UnsupportedModeError struct {
	Mode string
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("radiance mode %q unsupported, no radiance available", e.Mode)
}
