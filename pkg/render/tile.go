package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/trace"
)

// ErrInvalidQuality is returned by Tile.Render for a negative quality level.
var ErrInvalidQuality = errors.New("render: invalid quality level")

// OutlineColor marks tiles that are being rendered.
var OutlineColor = color.RGBA{255, 0, 0, 255}

// patchSize is the edge length of the flat-filled patches at quality 0.
const patchSize = 8

// Tile is one rectangle of the image together with the camera state needed
// to trace it. Tiles are created by Camera.RenderTiles and discarded when
// the camera, scene or surface size changes.
type Tile struct {
	X, Y, W, H int // Target rectangle on the surface

	// Extents of the tile on the normalized image plane.
	xMin, xMax, yMin, yMax float64

	position, gaze, horz, vert math3d.Vec3
	npSize, npDistance         float64

	target Surface

	// mu serializes renders of the same tile; buf keeps the last pass so
	// the outline of the next one overlays it.
	mu  sync.Mutex
	buf []color.RGBA
}

func newTileBuffer(n int) []color.RGBA {
	buf := make([]color.RGBA, n)
	for i := range buf {
		buf[i] = color.RGBA{0, 0, 0, 255}
	}
	return buf
}

// Bounds returns the tile's rectangle on the surface.
func (t *Tile) Bounds() image.Rectangle {
	return image.Rect(t.X, t.Y, t.X+t.W, t.Y+t.H)
}

// Priority is the tile's distance from the image center on the image plane.
// Lower values render first.
func (t *Tile) Priority() float64 {
	return math.Max(math.Abs(t.xMin+t.xMax), math.Abs(t.yMin+t.yMax))
}

// Render traces the tile at the given quality and writes it to the surface:
//
//   - 0: one ray per 8×8 patch, flat filled
//   - 1: one ray per pixel
//   - n > 1: n×n stratified samples per pixel, box filtered
//
// Qualities above 0 first draw an outline around the tile to show it is in
// progress. When ctx is cancelled the tile stops early and writes nothing
// more; what is already on the surface stays. Cancellation is not an error.
func (t *Tile) Render(ctx context.Context, scene trace.Scene, quality int) error {
	if quality < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if quality > 0 {
		t.drawOutline()
		t.flush(ctx)
	}

	switch quality {
	case 0:
		t.renderPatched(ctx, scene, patchSize)
	case 1:
		t.renderOneToOne(ctx, scene)
	default:
		t.renderSupersampled(ctx, scene, quality)
	}
	return nil
}

func (t *Tile) flush(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	t.target.WriteBlock(t.X, t.Y, t.W, t.H, t.buf)
}

func (t *Tile) drawOutline() {
	for y := range t.H {
		t.buf[y*t.W] = OutlineColor
		t.buf[(y+1)*t.W-1] = OutlineColor
	}
	for x := range t.W {
		t.buf[x] = OutlineColor
		t.buf[t.W*t.H-x-1] = OutlineColor
	}
}

// ray returns the primary ray through the tile-relative coordinate (tx, ty),
// where 0..1 spans the tile's image-plane extents.
func (t *Tile) ray(tx, ty float64) trace.Ray {
	h := t.gaze.Scale(t.npDistance).
		AddScaled(t.horz, lerp(t.xMin, t.xMax, tx)*t.npSize).
		AddScaled(t.vert, lerp(t.yMin, t.yMax, ty)*t.npSize).
		Normalize()
	return trace.NewRay(t.position, h)
}

func (t *Tile) sample(scene trace.Scene, tx, ty float64) math3d.Color {
	_, c := scene.Query(t.ray(tx, ty))
	return c
}

func (t *Tile) renderPatched(ctx context.Context, scene trace.Scene, patch int) {
	w, h := float64(t.W+1), float64(t.H+1)
	half := 0.5 * float64(patch)

	for y := 0; y < t.H; y += patch {
		ty := (float64(y) + half) / h
		for x := 0; x < t.W; x += patch {
			tx := (float64(x) + half) / w
			c := math3d.GammaEncode(t.sample(scene, tx, ty), t.X+x, t.Y+y)

			for py := y; py < min(y+patch, t.H); py++ {
				row := t.buf[py*t.W:]
				for px := x; px < min(x+patch, t.W); px++ {
					row[px] = c
				}
			}
		}
	}
	t.flush(ctx)
}

func (t *Tile) renderOneToOne(ctx context.Context, scene trace.Scene) {
	w, h := float64(t.W+1), float64(t.H+1)

	for y := range t.H {
		ty := (float64(y) + 0.5) / h
		for x := range t.W {
			tx := (float64(x) + 0.5) / w
			t.buf[y*t.W+x] = math3d.GammaEncode(t.sample(scene, tx, ty), t.X+x, t.Y+y)
		}
	}
	t.flush(ctx)
}

func (t *Tile) renderSupersampled(ctx context.Context, scene trace.Scene, n int) {
	w, h := float64(t.W+1), float64(t.H+1)
	weight := 1 / float64(n*n)
	step := 1 / float64(n)

	for y := range t.H {
		for x := range t.W {
			if ctx.Err() != nil {
				return
			}

			var c math3d.Color
			for j := range n {
				ty := (float64(y) + (0.5+float64(j))*step) / h
				for i := range n {
					tx := (float64(x) + (0.5+float64(i))*step) / w
					c = c.AddScaled(t.sample(scene, tx, ty), weight)
				}
			}
			t.buf[y*t.W+x] = math3d.GammaEncode(c, t.X+x, t.Y+y)
		}
	}
	t.flush(ctx)
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}
