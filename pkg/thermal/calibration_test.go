package thermal

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planckMeta() map[string]interface{} {
	return map[string]interface{}{
		"PlanckR1": 17096.453,
		"PlanckR2": "0.046642166",
		"PlanckO":  json.Number("-7340"),
		"PlanckF":  1,
		"PlanckB":  1428.0,
		"Model":    "FLIR E8",
	}
}

func TestCalibrationFromMetadata(t *testing.T) {
	c, err := CalibrationFromMetadata(planckMeta())
	require.NoError(t, err)
	assert.Equal(t, CalibrationConstants{R1: 17096.453, R2: 0.046642166, O: -7340, F: 1, B: 1428}, c)
}

func TestCalibrationMissingKey(t *testing.T) {
	for _, key := range []string{KeyPlanckR1, KeyPlanckR2, KeyPlanckO, KeyPlanckF} {
		t.Run(key, func(t *testing.T) {
			meta := planckMeta()
			delete(meta, key)
			_, err := CalibrationFromMetadata(meta)
			var me *MissingCalibrationError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, key, me.Key)
			assert.Nil(t, me.Value)
		})
	}
}

func TestCalibrationNonNumeric(t *testing.T) {
	meta := planckMeta()
	meta[KeyPlanckF] = "one"
	_, err := CalibrationFromMetadata(meta)
	var me *MissingCalibrationError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "one", me.Value)
	assert.Contains(t, err.Error(), "PlanckF")

	meta[KeyPlanckF] = "NaN"
	_, err = CalibrationFromMetadata(meta)
	assert.Error(t, err)
}

func TestCalibrationBIsOptional(t *testing.T) {
	meta := planckMeta()
	delete(meta, KeyPlanckB)
	c, err := CalibrationFromMetadata(meta)
	require.NoError(t, err)
	assert.Zero(t, c.B)
}
