package thermal

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Metadata tag names for the Planck constants.
const (
	KeyPlanckR1 = "PlanckR1"
	KeyPlanckR2 = "PlanckR2"
	KeyPlanckO  = "PlanckO"
	KeyPlanckF  = "PlanckF"
	KeyPlanckB  = "PlanckB"
)

// CalibrationFromMetadata pulls the Planck constants out of a tag map. Every
// one of R1, R2, O, F must be present and numeric; B is optional.
func CalibrationFromMetadata(meta map[string]interface{}) (CalibrationConstants, error) {
	c := CalibrationConstants{}

	for _, req := range []struct {
		key string
		dst *float64
	}{
		{KeyPlanckR1, &c.R1},
		{KeyPlanckR2, &c.R2},
		{KeyPlanckO, &c.O},
		{KeyPlanckF, &c.F},
	} {
		raw, exists := meta[req.key]
		if !exists || raw == nil {
			return CalibrationConstants{}, &MissingCalibrationError{Key: req.key}
		}
		v, ok := ToFloat(raw)
		if !ok {
			return CalibrationConstants{}, &MissingCalibrationError{Key: req.key, Value: raw}
		}
		*req.dst = v
	}

	if raw, exists := meta[KeyPlanckB]; exists {
		if v, ok := ToFloat(raw); ok {
			c.B = v
		}
	}

	return c, nil
}

// ToFloat converts the loosely typed values found in decoded tag maps into a
// finite float64.
func ToFloat(raw interface{}) (float64, bool) {
	var v float64
	switch t := raw.(type) {
	case float64:
		v = t
	case float32:
		v = float64(t)
	case int:
		v = float64(t)
	case int64:
		v = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
