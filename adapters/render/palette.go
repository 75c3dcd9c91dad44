package render

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot/palette"

	"psychoplot/internal/errors"
)

// DivergingStops is the blue-white-red ramp used for coefficients.
var DivergingStops = []string{"#104e8b", "#5f89b1", "#ffffff", "#e5b5b5", "#b22222"}

// categoryHex are the first five tab10 colors, one per response category.
var categoryHex = [...]string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd"}

// darkgrid cell background
var gridBackground = mustHex("#eaeaf2")

// ColorRamp is a piecewise linear color map through evenly spaced stops.
// It satisfies palette.ColorMap.
type ColorRamp struct {
	stops []colorful.Color
	min   float64
	max   float64
	alpha float64
}

var _ palette.ColorMap = (*ColorRamp)(nil)

// NewColorRamp builds a ramp over [0, 1] from at least two hex colors.
func NewColorRamp(hex ...string) (*ColorRamp, error) {
	if len(hex) < 2 {
		return nil, errors.InvalidInput("a color ramp needs at least two stops")
	}
	stops := make([]colorful.Color, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, errors.InvalidInputf("bad color stop %q", h)
		}
		stops[i] = c
	}
	return &ColorRamp{stops: stops, min: 0, max: 1, alpha: 1}, nil
}

// At returns the color of v, interpolating in RGB between neighbouring stops.
func (r *ColorRamp) At(v float64) (color.Color, error) {
	switch {
	case math.IsNaN(v):
		return nil, palette.ErrNaN
	case v < r.min:
		return nil, palette.ErrUnderflow
	case v > r.max:
		return nil, palette.ErrOverflow
	}

	t := 0.5
	if r.max > r.min {
		t = (v - r.min) / (r.max - r.min)
	}
	pos := t * float64(len(r.stops)-1)
	i := int(math.Floor(pos))
	if i >= len(r.stops)-1 {
		i = len(r.stops) - 2
	}
	c := r.stops[i].BlendRgb(r.stops[i+1], pos-float64(i)).Clamped()
	red, green, blue := c.RGB255()
	return color.NRGBA{R: red, G: green, B: blue, A: uint8(math.Round(r.alpha * 255))}, nil
}

func (r *ColorRamp) Max() float64 {
	return r.max
}

func (r *ColorRamp) SetMax(v float64) {
	r.max = v
}

func (r *ColorRamp) Min() float64 {
	return r.min
}

func (r *ColorRamp) SetMin(v float64) {
	r.min = v
}

func (r *ColorRamp) Alpha() float64 {
	return r.alpha
}

func (r *ColorRamp) SetAlpha(a float64) {
	r.alpha = a
}

// Palette samples n evenly spaced colors from Min to Max.
func (r *ColorRamp) Palette(n int) palette.Palette {
	if n < 2 {
		n = 2
	}
	out := make(colorList, n)
	for k := range out {
		v := r.min + (r.max-r.min)*float64(k)/float64(n-1)
		c, err := r.At(v)
		if err != nil {
			// rounding at the top end only
			c, _ = r.At(r.max)
		}
		out[k] = c
	}
	return out
}

type colorList []color.Color

func (c colorList) Colors() []color.Color { return c }

// CategoryColor returns the fixed color of response category k.
func CategoryColor(k int) color.Color {
	return mustHex(categoryHex[k%len(categoryHex)])
}

func mustHex(h string) color.Color {
	c, err := colorful.Hex(h)
	if err != nil {
		panic(err)
	}
	red, green, blue := c.RGB255()
	return color.NRGBA{R: red, G: green, B: blue, A: 255}
}
