package math3d

import (
	"math"
	"testing"
)

func colorNear(a, b Color, tol float64) bool {
	return math.Abs(a.R-b.R) <= tol && math.Abs(a.G-b.G) <= tol && math.Abs(a.B-b.B) <= tol
}

func TestHSL(t *testing.T) {
	tests := []struct {
		name    string
		h, s, l float64
		want    Color
	}{
		{"red", 0, 1, 0.5, Color{1, 0, 0}},
		{"green", 120, 1, 0.5, Color{0, 1, 0}},
		{"blue", 240, 1, 0.5, Color{0, 0, 1}},
		{"hue wraps", 360, 1, 0.5, Color{1, 0, 0}},
		{"negative hue wraps", -240, 1, 0.5, Color{0, 1, 0}},
		{"saturation clamped", 0, 5, 0.5, Color{1, 0, 0}},
		{"gray", 42, 0, 0.25, Color{0.25, 0.25, 0.25}},
		{"lightness clamped", 200, 1, 2, Color{1, 1, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := HSL(tc.h, tc.s, tc.l)
			if !colorNear(got, tc.want, 1e-9) {
				t.Errorf("HSL(%v, %v, %v) = %v, want %v", tc.h, tc.s, tc.l, got, tc.want)
			}
		})
	}
}

func TestColorArithmetic(t *testing.T) {
	a := Color{0.5, 0.25, 1}
	if got := a.Mul(Color{2, 4, 0}); got != (Color{1, 1, 0}) {
		t.Errorf("Mul = %v", got)
	}
	if got := a.Scale(2); got != (Color{1, 0.5, 2}) {
		t.Errorf("Scale = %v", got)
	}
	if got := a.Add(a); got != (Color{1, 0.5, 2}) {
		t.Errorf("Add = %v", got)
	}
	if got := a.AddScaled(White, 0.5); got != (Color{1, 0.75, 1.5}) {
		t.Errorf("AddScaled = %v", got)
	}
}

func TestGammaEncodeStable(t *testing.T) {
	c := Color{0.3, 0.55, 0.9}
	for y := range 8 {
		for x := range 8 {
			a := GammaEncode(c, x, y)
			b := GammaEncode(c, x, y)
			if a != b {
				t.Fatalf("GammaEncode(%v, %d, %d) not stable: %v vs %v", c, x, y, a, b)
			}
			if a.A != 255 {
				t.Fatalf("alpha = %d, want 255", a.A)
			}
		}
	}
}

func TestGammaEncodeDitherTiles(t *testing.T) {
	c := Color{0.4, 0.4, 0.4}
	for y := range 4 {
		for x := range 4 {
			if GammaEncode(c, x, y) != GammaEncode(c, x+4, y+8) {
				t.Errorf("dither pattern does not repeat every 4 pixels at (%d, %d)", x, y)
			}
		}
	}
}

func TestGammaEncodeRange(t *testing.T) {
	tests := []struct {
		name   string
		c      Color
		lo, hi uint8
	}{
		{"black", Black, 0, 0},
		{"negative clamps", Color{-3, -1, -0.5}, 0, 0},
		{"white", White, 254, 255},
		{"overbright clamps", Color{10, 10, 10}, 255, 255},
		{"mid gray brightened", Color{0.5, 0.5, 0.5}, 180, 192},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for y := range 4 {
				for x := range 4 {
					got := GammaEncode(tc.c, x, y)
					for _, ch := range []uint8{got.R, got.G, got.B} {
						if ch < tc.lo || ch > tc.hi {
							t.Fatalf("channel %d at (%d, %d) outside [%d, %d]", ch, x, y, tc.lo, tc.hi)
						}
					}
				}
			}
		})
	}
}

func TestGammaEncodeMonotonic(t *testing.T) {
	prev := uint8(0)
	for i := range 1001 {
		v := float64(i) / 1000
		got := GammaEncode(Color{v, v, v}, 1, 2).R
		if got < prev {
			t.Fatalf("encode(%v) = %d decreased from %d", v, got, prev)
		}
		prev = got
	}
}
