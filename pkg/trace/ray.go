// Package trace evaluates rays against a scene of shapes.
//
// A scene query finds the nearest shape along a ray and asks its material
// for a color. Materials may recurse into the scene with continuation rays;
// the depth gate in [World.Query] is what bounds that recursion.
package trace

import "github.com/taigrr/lumen/pkg/math3d"

// MaxDepth is the deepest continuation a scene query will trace. Rays with
// a greater depth never hit anything.
const MaxDepth = 3

// Epsilon is the distance continuation rays are pushed off the surface they
// start on so they do not hit it again through rounding error.
const Epsilon = 1e-3

// Ray is an origin, a direction and the number of bounces already taken.
type Ray struct {
	Origin    math3d.Vec3
	Direction math3d.Vec3
	Depth     int
}

// NewRay creates a primary ray (depth 0).
func NewRay(origin, direction math3d.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// Child returns a continuation ray one bounce deeper than r.
func (r Ray) Child(origin, direction math3d.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, Depth: r.Depth + 1}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) math3d.Vec3 {
	return r.Origin.AddScaled(r.Direction, t)
}
