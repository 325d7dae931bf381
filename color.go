package sconcho

import (
	"image/color"

	"github.com/esimov/sconcho/utils"
)

// Color is an opaque RGB value. Its canonical text form is #rrggbb.
type Color struct {
	R, G, B uint8
}

// White is the background of every default cell.
var White = Color{R: 0xff, G: 0xff, B: 0xff}

// ParseColor parses the #rrggbb form of a color.
func ParseColor(s string) (Color, error) {
	c, err := utils.HexToRGBA(s)
	if err != nil {
		return Color{}, err
	}
	return Color{R: c.R, G: c.G, B: c.B}, nil
}

// MustParseColor is like ParseColor but panics on malformed input.
// It is meant for package level palettes and tests.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ColorOf converts any color to its opaque RGB value.
func ColorOf(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B}
}

// Hex returns the #rrggbb form.
func (c Color) Hex() string {
	return utils.RGBAToHex(c)
}

func (c Color) String() string { return c.Hex() }

// RGBA implements the color.Color interface.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// NRGBA returns the opaque color.NRGBA equivalent.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}
