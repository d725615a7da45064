package emath

import (
	"fmt"
	"image/color"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// A Palette maps [0,1] to a color.
type Palette interface {
	At(f float64) color.Color
}

// Gray is a gamma expanded grayscale ramp.
type Gray struct{}

func (Gray) At(f float64) color.Color {
	g := uint8(clamp01(GammaExpand_F64(clamp01(f)))*255.0 + 0.5)
	return color.RGBA{g, g, g, 0xFF}
}

// A Gradient blends between keypoints in CIE-L*a*b* space.
type Gradient []Keypoint

type Keypoint struct {
	Col colorful.Color
	Pos float64
}

func (g Gradient) At(f float64) color.Color {
	f = clamp01(f)
	for i := 0; i < len(g)-1; i++ {
		c1, c2 := g[i], g[i+1]
		if c1.Pos <= f && f <= c2.Pos {
			t := (f - c1.Pos) / (c2.Pos - c1.Pos)
			return c1.Col.BlendLab(c2.Col, t).Clamped()
		}
	}
	return g[len(g)-1].Col
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

var palettes = map[string]Palette{
	"gray": Gray{},
	"iron": Gradient{
		{mustHex("#000000"), 0.0},
		{mustHex("#20008c"), 0.2},
		{mustHex("#a0009a"), 0.4},
		{mustHex("#e4421a"), 0.6},
		{mustHex("#fca800"), 0.8},
		{mustHex("#ffffe0"), 1.0},
	},
	"rainbow": Gradient{
		{mustHex("#0000ff"), 0.0},
		{mustHex("#00ffff"), 0.25},
		{mustHex("#00ff00"), 0.5},
		{mustHex("#ffff00"), 0.75},
		{mustHex("#ff0000"), 1.0},
	},
}

func ListPalettes() string {
	names := []string{}
	for n := range palettes {
		names = append(names, n)
	}
	sort.Strings(names)
	return fmt.Sprintf("%v", names)
}

func GetPalette(name string) (Palette, error) {
	if p, ok := palettes[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no palette named '%s', wanted one of %s", name, ListPalettes())
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	} else if f > 1 {
		return 1
	}
	return f
}
