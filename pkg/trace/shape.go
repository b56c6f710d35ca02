package trace

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// Hit describes where a ray met a shape.
type Hit struct {
	Distance float64     // Parameter t along the ray
	Position math3d.Vec3 // World-space intersection point
	Normal   math3d.Vec3 // Unit surface normal
}

// Shape is a primitive that can be intersected and carries a material.
// Shapes are immutable once built and safe for concurrent use.
type Shape interface {
	Intersect(ray Ray) (Hit, bool)
	Material() Material
}

// QueryShape intersects a single shape and, on a hit, shades it.
func QueryShape(s Shape, ray Ray, scene Scene) (math3d.Color, Hit, bool) {
	hit, ok := s.Intersect(ray)
	if !ok {
		return math3d.Color{}, Hit{}, false
	}
	return s.Material().Shade(ray, hit, scene), hit, true
}

// Box is an axis-aligned box.
type Box struct {
	Min, Max math3d.Vec3
	center   math3d.Vec3
	half     math3d.Vec3
	material Material
}

// NewBox creates a box centered at center extending size along each axis
// in both directions.
func NewBox(center, size math3d.Vec3, m Material) *Box {
	return NewBoxCorners(center.Sub(size), center.Add(size), m)
}

// NewBoxCorners creates a box spanning two arbitrary opposite corners.
func NewBoxCorners(a, b math3d.Vec3, m Material) *Box {
	lo, hi := a.Min(b), a.Max(b)
	return &Box{
		Min:      lo,
		Max:      hi,
		center:   lo.Add(hi).Scale(0.5),
		half:     hi.Sub(lo).Scale(0.5),
		material: m,
	}
}

func (b *Box) Material() Material { return b.material }

func (b *Box) Intersect(ray Ray) (Hit, bool) {
	t := math3d.IntersectBox(ray.Origin, ray.Direction, b.Min, b.Max)
	if t < 0 {
		return Hit{}, false
	}
	pos := ray.At(t)
	return Hit{Distance: t, Position: pos, Normal: b.normal(pos, ray.Direction)}, true
}

// normal picks the face (or edge, or corner) nearest to p. Components whose
// displacement reaches the half extent round to ±1, the others truncate to 0.
func (b *Box) normal(p, dir math3d.Vec3) math3d.Vec3 {
	d := p.Sub(b.center)
	n := math3d.V3(
		faceAxis(d.X, b.half.X),
		faceAxis(d.Y, b.half.Y),
		faceAxis(d.Z, b.half.Z),
	)
	if n == math3d.Zero3() {
		return dir.Negate().Normalize()
	}
	return n.Normalize()
}

func faceAxis(d, half float64) float64 {
	if half <= 0 {
		return 0
	}
	return math.Trunc(d / half * 1.001)
}

// Sphere is a sphere given by its center and radius.
type Sphere struct {
	Center   math3d.Vec3
	Radius   float64
	material Material
}

// NewSphere creates a sphere.
func NewSphere(center math3d.Vec3, radius float64, m Material) *Sphere {
	return &Sphere{Center: center, Radius: radius, material: m}
}

func (s *Sphere) Material() Material { return s.material }

func (s *Sphere) Intersect(ray Ray) (Hit, bool) {
	t := math3d.IntersectSphere(ray.Origin, ray.Direction, s.Center, s.Radius)
	if t < 0 {
		return Hit{}, false
	}
	pos := ray.At(t)
	return Hit{Distance: t, Position: pos, Normal: pos.Sub(s.Center).Normalize()}, true
}

// Plane is an infinite plane through Point. The reported normal always faces
// the incoming ray.
type Plane struct {
	Point    math3d.Vec3
	Normal   math3d.Vec3
	material Material
}

// NewPlane creates a plane; the normal is normalized.
func NewPlane(point, normal math3d.Vec3, m Material) *Plane {
	return &Plane{Point: point, Normal: normal.Normalize(), material: m}
}

func (p *Plane) Material() Material { return p.material }

func (p *Plane) Intersect(ray Ray) (Hit, bool) {
	t := math3d.IntersectPlane(ray.Origin, ray.Direction, p.Point, p.Normal)
	if t < 0 {
		return Hit{}, false
	}
	n := p.Normal
	if ray.Direction.Dot(n) > 0 {
		n = n.Negate()
	}
	return Hit{Distance: t, Position: ray.At(t), Normal: n}, true
}
