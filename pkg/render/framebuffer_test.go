package render

import (
	"image/color"
	"sync"
	"testing"
)

func solid(n int, c color.RGBA) []color.RGBA {
	px := make([]color.RGBA, n)
	for i := range px {
		px[i] = c
	}
	return px
}

func TestFramebufferBasics(t *testing.T) {
	fb := NewFramebuffer(10, 6)

	if fb.Width() != 10 || fb.Height() != 6 {
		t.Fatalf("size = %dx%d, want 10x6", fb.Width(), fb.Height())
	}
	if got := fb.At(3, 3); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("new framebuffer pixel = %v, want opaque black", got)
	}
	if got := fb.At(-1, 0); got != (color.RGBA{}) {
		t.Errorf("out of bounds At = %v, want zero", got)
	}
}

func TestFramebufferWriteBlock(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}

	tests := []struct {
		name       string
		x, y, w, h int
		pixels     []color.RGBA
		inside     [][2]int
		outside    [][2]int
	}{
		{
			name: "inside", x: 2, y: 1, w: 3, h: 2,
			pixels:  solid(6, red),
			inside:  [][2]int{{2, 1}, {4, 2}},
			outside: [][2]int{{1, 1}, {5, 1}, {2, 3}},
		},
		{
			name: "clipped right bottom", x: 8, y: 4, w: 4, h: 4,
			pixels:  solid(16, red),
			inside:  [][2]int{{8, 4}, {9, 5}},
			outside: [][2]int{{7, 4}},
		},
		{
			name: "clipped left top", x: -2, y: -1, w: 4, h: 3,
			pixels:  solid(12, red),
			inside:  [][2]int{{0, 0}, {1, 1}},
			outside: [][2]int{{2, 0}, {0, 2}},
		},
		{
			name: "fully outside", x: 20, y: 20, w: 4, h: 4,
			pixels:  solid(16, red),
			outside: [][2]int{{9, 5}},
		},
		{
			name: "short pixel slice", x: 0, y: 0, w: 4, h: 4,
			pixels:  solid(3, red),
			outside: [][2]int{{0, 0}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := NewFramebuffer(10, 6)
			fb.WriteBlock(tc.x, tc.y, tc.w, tc.h, tc.pixels)

			for _, p := range tc.inside {
				if got := fb.At(p[0], p[1]); got != red {
					t.Errorf("pixel %v = %v, want red", p, got)
				}
			}
			for _, p := range tc.outside {
				if got := fb.At(p[0], p[1]); got == red {
					t.Errorf("pixel %v was written", p)
				}
			}
		})
	}
}

func TestFramebufferWriteBlockRowMajor(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	px := []color.RGBA{
		{1, 0, 0, 255}, {2, 0, 0, 255},
		{3, 0, 0, 255}, {4, 0, 0, 255},
	}
	fb.WriteBlock(1, 1, 2, 2, px)

	want := map[[2]int]uint8{{1, 1}: 1, {2, 1}: 2, {1, 2}: 3, {2, 2}: 4}
	for p, r := range want {
		if got := fb.At(p[0], p[1]).R; got != r {
			t.Errorf("pixel %v red = %d, want %d", p, got, r)
		}
	}
}

func TestFramebufferResize(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	white := color.RGBA{255, 255, 255, 255}
	fb.Clear(white)

	v := fb.Version()
	fb.Resize(8, 2)
	if fb.Width() != 8 || fb.Height() != 2 {
		t.Fatalf("size = %dx%d, want 8x2", fb.Width(), fb.Height())
	}
	if fb.Version() == v {
		t.Error("resize did not bump version")
	}
	if got := fb.At(7, 1); got != white {
		t.Errorf("scaled pixel = %v, want white", got)
	}

	v = fb.Version()
	fb.Resize(8, 2)
	if fb.Version() != v {
		t.Error("same-size resize bumped version")
	}

	fb.Resize(0, 0)
	fb.WriteBlock(0, 0, 1, 1, solid(1, white))
	if fb.Width() != 0 || fb.Height() != 0 {
		t.Errorf("size = %dx%d, want empty", fb.Width(), fb.Height())
	}
}

func TestFramebufferSnapshotIsCopy(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	snap := fb.Snapshot()
	fb.WriteBlock(0, 0, 1, 1, solid(1, color.RGBA{9, 9, 9, 255}))
	if snap.RGBAAt(0, 0).R != 0 {
		t.Error("snapshot changed after write")
	}
}

func TestFramebufferConcurrentResize(t *testing.T) {
	fb := NewFramebuffer(64, 64)
	px := solid(16*16, color.RGBA{10, 20, 30, 255})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 200 {
				fb.WriteBlock((i*16+j)%64, (j*7)%64, 16, 16, px)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := range 100 {
			fb.Resize(16+j%48, 16+(j*3)%48)
		}
	}()
	wg.Wait()
}
