package trace

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// Scene answers ray queries. Query returns the distance to the nearest hit
// and its shaded color, or a negative distance when nothing is hit.
type Scene interface {
	Query(ray Ray) (float64, math3d.Color)
}

// World is a Scene backed by a flat list of shapes scanned linearly.
type World struct {
	shapes []Shape
}

// NewWorld creates a world from shapes. The slice is copied.
func NewWorld(shapes ...Shape) *World {
	return &World{shapes: append([]Shape(nil), shapes...)}
}

// Shapes returns the shapes in scan order.
func (w *World) Shapes() []Shape {
	return w.shapes
}

// Query finds the shape whose intersection is nearest to the ray origin and
// shades it. Equal distances keep the shape scanned first.
func (w *World) Query(ray Ray) (float64, math3d.Color) {
	if ray.Depth > MaxDepth {
		return -1, math3d.Color{}
	}

	var (
		nearest Shape
		best    Hit
		bestSq  = math.Inf(1)
	)
	for _, s := range w.shapes {
		hit, ok := s.Intersect(ray)
		if !ok {
			continue
		}
		if d := hit.Position.DistSq(ray.Origin); d < bestSq {
			nearest, best, bestSq = s, hit, d
		}
	}
	if nearest == nil {
		return -1, math3d.Color{}
	}
	return best.Distance, nearest.Material().Shade(ray, best, w)
}
