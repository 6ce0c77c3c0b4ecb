package network

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an 8-bit RGB colour with a separate alpha in [0,1].
type Color struct {
	R, G, B uint8
	A       float64
}

// RGBA builds a Color, clamping a into [0,1].
func RGBA(r, g, b uint8, a float64) Color {
	return Color{R: r, G: g, B: b, A: clamp01(a)}
}

// ParseHex parses "#rrggbb" into an opaque Color.
func ParseHex(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, err
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b, A: 1}, nil
}

// WithAlpha returns a copy of c with its alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = clamp01(a)
	return c
}

// Fade returns a copy of c with its alpha scaled by f.
func (c Color) Fade(f float64) Color {
	c.A = clamp01(c.A * f)
	return c
}

// Lerp blends c towards o by t, channel by channel including alpha.
func (c Color) Lerp(o Color, t float64) Color {
	t = clamp01(t)
	a := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	b := colorful.Color{R: float64(o.R) / 255, G: float64(o.G) / 255, B: float64(o.B) / 255}
	r, g, bl := a.BlendRgb(b, t).Clamped().RGB255()
	return Color{R: r, G: g, B: bl, A: c.A + (o.A-c.A)*t}
}

// NRGBA converts c to a straight-alpha image/color value.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(clamp01(c.A) * 255))}
}

// Gradient is the head/tail colour pair of a signal.
type Gradient struct {
	Start, End Color
}

// Palette is the fixed set of signal colours.
var Palette = []Gradient{
	{Start: RGBA(0, 210, 255, 0.9), End: RGBA(0, 110, 255, 0)},
	{Start: RGBA(150, 100, 255, 0.9), End: RGBA(90, 40, 210, 0)},
	{Start: RGBA(0, 255, 190, 0.8), End: RGBA(0, 160, 130, 0)},
	{Start: RGBA(235, 245, 255, 0.8), End: RGBA(120, 180, 255, 0)},
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
