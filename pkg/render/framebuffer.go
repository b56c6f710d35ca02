// Package render turns a scene into pixels: the camera partitions the image
// into tiles, tiles trace their pixels at a requested quality and write the
// result to a Surface.
package render

import (
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// Surface is the destination tiles write to. WriteBlock must silently drop
// any part of the block that falls outside the current bounds; tiles
// created before a resize may still be writing.
type Surface interface {
	Width() int
	Height() int
	Resize(width, height int)
	// WriteBlock copies a row-major w×h block of opaque pixels to (x, y).
	WriteBlock(x, y, w, h int, pixels []color.RGBA)
}

// Framebuffer is an in-memory Surface backed by an image.RGBA.
// It is safe for concurrent use.
type Framebuffer struct {
	mu      sync.RWMutex
	img     *image.RGBA
	version atomic.Uint64
}

// NewFramebuffer creates a black framebuffer of the given size.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{img: image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))}
	fb.Clear(color.RGBA{0, 0, 0, 255})
	return fb
}

// Width returns the width in pixels.
func (fb *Framebuffer) Width() int {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	return fb.img.Rect.Dx()
}

// Height returns the height in pixels.
func (fb *Framebuffer) Height() int {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	return fb.img.Rect.Dy()
}

// Version increases every time the contents change.
func (fb *Framebuffer) Version() uint64 {
	return fb.version.Load()
}

// Resize changes the dimensions. The previous contents are scaled into the
// new size so something sensible shows until the next pass lands.
func (fb *Framebuffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)

	fb.mu.Lock()
	defer fb.mu.Unlock()

	old := fb.img
	if old.Rect.Dx() == width && old.Rect.Dy() == height {
		return
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if !old.Rect.Empty() && !img.Rect.Empty() {
		draw.ApproxBiLinear.Scale(img, img.Rect, old, old.Rect, draw.Src, nil)
	}
	fb.img = img
	fb.version.Add(1)
}

// WriteBlock implements Surface.
func (fb *Framebuffer) WriteBlock(x, y, w, h int, pixels []color.RGBA) {
	if w <= 0 || h <= 0 || len(pixels) < w*h {
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	dst := image.Rect(x, y, x+w, y+h).Intersect(fb.img.Rect)
	if dst.Empty() {
		return
	}
	for py := dst.Min.Y; py < dst.Max.Y; py++ {
		row := pixels[(py-y)*w:]
		for px := dst.Min.X; px < dst.Max.X; px++ {
			c := row[px-x]
			i := fb.img.PixOffset(px, py)
			fb.img.Pix[i+0] = c.R
			fb.img.Pix[i+1] = c.G
			fb.img.Pix[i+2] = c.B
			fb.img.Pix[i+3] = 255
		}
	}
	fb.version.Add(1)
}

// At returns the pixel at (x, y), or transparent black out of bounds.
func (fb *Framebuffer) At(x, y int) color.RGBA {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	if !image.Pt(x, y).In(fb.img.Rect) {
		return color.RGBA{}
	}
	return fb.img.RGBAAt(x, y)
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	draw.Draw(fb.img, fb.img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	fb.version.Add(1)
}

// Snapshot returns a copy of the current contents.
func (fb *Framebuffer) Snapshot() *image.RGBA {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	img := image.NewRGBA(fb.img.Rect)
	copy(img.Pix, fb.img.Pix)
	return img
}
