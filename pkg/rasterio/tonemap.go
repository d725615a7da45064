package rasterio

import (
	"fmt"
	"image"

	"github.com/mdouchement/hdr/tmo"
)

var (
	Tonemappers = []string{"drago03", "durand", "icam06", "linear", "reinhard05"}
)

func ListTonemappers() string {
	return fmt.Sprintf("%v", Tonemappers)
}

// Tonemap squashes a radiance grid into an LDR image using the named
// operator.
func Tonemap(name string, rows, cols int, values []float32) (image.Image, error) {
	op, err := SetupTonemapper(name, rows, cols, values)
	if err != nil {
		return nil, err
	}
	return op.Perform(), nil
}

// Thermal scenes are mostly a narrow band of radiance with a few hot
// spots; the defaults tend to blow those out.
func SetupTonemapper(name string, rows, cols int, values []float32) (tmo.ToneMappingOperator, error) {
	img := NewHDRGray(rows, cols, values)

	switch name {
	case "drago03":
		op := tmo.NewDefaultDrago03(img)
		op.Bias = 1.0
		return op, nil

	case "durand":
		return tmo.NewDefaultDurand(img), nil

	case "icam06":
		op := tmo.NewDefaultICam06(img)
		op.MaxClipping = 0.99999
		return op, nil

	case "linear", "":
		return tmo.NewLinear(img), nil

	case "reinhard05":
		op := tmo.NewDefaultReinhard05(img)
		op.Light = 0.005
		return op, nil
	}

	return nil, fmt.Errorf("tonemapper %q not recognized, wanted %s", name, ListTonemappers())
}
