package render

import (
	"cmp"
	"math"
	"slices"

	"github.com/taigrr/lumen/pkg/math3d"
)

// TileSize is the edge length of a render tile in pixels. Tiles on the
// right and bottom edges are clipped to the image.
const TileSize = 64

// Camera is a pinhole camera.
//
// The view basis (horizontal, vertical) is derived from Gaze and Up by
// ComputeViewVectors, which must be called after changing Position, Gaze or
// Up and before generating tiles.
type Camera struct {
	Position math3d.Vec3
	Gaze     math3d.Vec3
	Up       math3d.Vec3
	FOV      float64 // Vertical field of view in radians

	horz math3d.Vec3
	vert math3d.Vec3
}

// NewCamera creates a camera with a vertical field of view given in degrees.
func NewCamera(position, gaze, up math3d.Vec3, fovDegrees float64) *Camera {
	c := &Camera{
		Position: position,
		Gaze:     gaze,
		Up:       up,
	}
	c.SetFOVDegrees(fovDegrees)
	c.ComputeViewVectors()
	return c
}

// SetFOVDegrees sets the vertical field of view.
func (c *Camera) SetFOVDegrees(deg float64) {
	c.FOV = deg / 180 * math.Pi
}

// ComputeViewVectors normalizes Gaze and Up and derives the horizontal and
// vertical image-plane axes from them.
func (c *Camera) ComputeViewVectors() {
	c.Up = c.Up.Normalize()
	c.Gaze = c.Gaze.Normalize()
	c.horz = c.Gaze.Cross(c.Up).Normalize()
	c.vert = c.Gaze.Cross(c.horz).Normalize()
}

// Horizontal returns the image-plane x axis.
func (c *Camera) Horizontal() math3d.Vec3 { return c.horz }

// Vertical returns the image-plane y axis (pointing down the image).
func (c *Camera) Vertical() math3d.Vec3 { return c.vert }

// RenderTiles partitions target into tiles ordered center-out. Each tile
// snapshots the current camera state. Tiles of equal priority keep their
// row-major order.
func (c *Camera) RenderTiles(target Surface) []*Tile {
	width, height := target.Width(), target.Height()
	if width <= 0 || height <= 0 {
		return nil
	}

	w, h := float64(width), float64(height)
	halfW, halfH := w/2, h/2
	aspect := w / h

	tiles := make([]*Tile, 0, (width/TileSize+1)*(height/TileSize+1))
	for ty := 0; ty < height; ty += TileSize {
		th := TileSize
		if ty+TileSize >= height {
			th = height - ty
		}
		for tx := 0; tx < width; tx += TileSize {
			tw := TileSize
			if tx+TileSize >= width {
				tw = width - tx
			}

			tiles = append(tiles, &Tile{
				X: tx, Y: ty, W: tw, H: th,

				xMin: aspect * (float64(tx) - halfW) / w,
				xMax: aspect * (float64(tx+tw+1) - halfW) / w,
				yMin: (float64(ty) - halfH) / h,
				yMax: (float64(ty+th+1) - halfH) / h,

				position:   c.Position,
				gaze:       c.Gaze,
				horz:       c.horz,
				vert:       c.vert,
				npSize:     math.Sin(c.FOV / 2),
				npDistance: math.Cos(c.FOV / 2),

				target: target,
				buf:    newTileBuffer(tw * th),
			})
		}
	}

	slices.SortStableFunc(tiles, func(a, b *Tile) int {
		return cmp.Compare(a.Priority(), b.Priority())
	})
	return tiles
}
