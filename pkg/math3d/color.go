package math3d

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a linear RGB color. Channels are normally in [0, 1] but may
// exceed 1 before encoding.
type Color struct {
	R, G, B float64
}

// Named colors used by the built-in scenes.
var (
	White   = Color{1, 1, 1}
	Gray    = Color{0.8, 0.8, 0.8}
	Black   = Color{0, 0, 0}
	Red     = Color{0.8, 0.1, 0.1}
	Orange  = Color{0.8, 0.4, 0.1}
	Yellow  = Color{0.7, 0.7, 0.1}
	Lime    = Color{0.4, 0.8, 0.1}
	Green   = Color{0.1, 0.8, 0.1}
	Aqua    = Color{0.1, 0.7, 0.7}
	Blue    = Color{0.1, 0.1, 0.8}
	Fuchsia = Color{0.7, 0.1, 0.7}
)

// RGB creates a new Color.
func RGB(r, g, b float64) Color {
	return Color{r, g, b}
}

// Add returns a + b.
func (a Color) Add(b Color) Color {
	return Color{a.R + b.R, a.G + b.G, a.B + b.B}
}

// Mul returns the channel-wise product a * b.
func (a Color) Mul(b Color) Color {
	return Color{a.R * b.R, a.G * b.G, a.B * b.B}
}

// Scale returns a * s.
func (a Color) Scale(s float64) Color {
	return Color{a.R * s, a.G * s, a.B * s}
}

// AddScaled returns a + b*s, rounding the product before the sum.
func (a Color) AddScaled(b Color, s float64) Color {
	return Color{
		a.R + float64(b.R*s),
		a.G + float64(b.G*s),
		a.B + float64(b.B*s),
	}
}

// HSL creates a color from hue in degrees (any value, wrapped to [0, 360)),
// saturation and lightness in [0, 1] (clamped).
func HSL(hue, saturation, lightness float64) Color {
	hue = math.Mod(math.Mod(hue, 360)+360, 360)
	c := colorful.Hsl(hue, clamp(0, saturation, 1), clamp(0, lightness, 1))
	return Color{c.R, c.G, c.B}
}

// ditherOffsets is a tileable 4×4 pattern. Each entry k becomes the
// multiplicative bias 1 + k/2176, so dithering is about equally strong for
// bright and dim colors.
var ditherOffsets = [16]int{
	-8, -1, 7, -3,
	5, -5, 3, -7,
	1, 8, -2, 6,
	-4, 4, -6, 2,
}

var (
	ditherBias [16]float64

	// gammaTable maps a linear 0..255 value to its encoded 8-bit value.
	// Entry 256 duplicates 255 so interpolation at exactly 255 needs no
	// special case.
	gammaTable [257]int
)

const displayGamma = 2.2

func init() {
	for i, k := range ditherOffsets {
		ditherBias[i] = 1 + float64(k)/2176
	}
	for i := range gammaTable {
		v := float64(min(i, 255)) / 255
		gammaTable[i] = int(math.Round(255 * math.Pow(v, 1/displayGamma)))
	}
}

// GammaEncode converts a linear color to an opaque 8-bit display color.
// The pixel position selects the dither bias; the result is a pure function
// of (c, x, y).
func GammaEncode(c Color, x, y int) color.RGBA {
	bias := ditherBias[(y&3)*4+(x&3)]
	return color.RGBA{
		R: encodeChannel(c.R * bias),
		G: encodeChannel(c.G * bias),
		B: encodeChannel(c.B * bias),
		A: 255,
	}
}

// encodeChannel linearly interpolates the gamma table between the two
// nearest integer indices, in fixed point with 256 steps.
func encodeChannel(v float64) uint8 {
	f := clamp(0, v*255, 255)
	i := int(f)
	t := int((f - float64(i)) * 256)
	return uint8((gammaTable[i]*(256-t) + gammaTable[i+1]*t) / 256)
}

func clamp(lo, x, hi float64) float64 {
	if x < lo || math.IsNaN(x) {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
