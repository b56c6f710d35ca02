package math3d

import "math"

// The intersection routines take a ray as (origin, dir) and return the
// distance along dir to the nearest hit at or in front of the origin, or a
// negative value when there is none. dir is expected to be unit length for
// the returned distance to be a world-space distance.

// IntersectBox intersects an axis-aligned box using the slab method. When the
// origin is inside the box the exit distance is returned.
func IntersectBox(origin, dir, lo, hi Vec3) float64 {
	inv := Vec3{1 / dir.X, 1 / dir.Y, 1 / dir.Z}

	tx1, tx2 := (lo.X-origin.X)*inv.X, (hi.X-origin.X)*inv.X
	tmin, tmax := math.Min(tx1, tx2), math.Max(tx1, tx2)

	ty1, ty2 := (lo.Y-origin.Y)*inv.Y, (hi.Y-origin.Y)*inv.Y
	tmin = math.Max(tmin, math.Min(ty1, ty2))
	tmax = math.Min(tmax, math.Max(ty1, ty2))

	tz1, tz2 := (lo.Z-origin.Z)*inv.Z, (hi.Z-origin.Z)*inv.Z
	tmin = math.Max(tmin, math.Min(tz1, tz2))
	tmax = math.Min(tmax, math.Max(tz1, tz2))

	if tmax < 0 || tmin > tmax || math.IsNaN(tmin) || math.IsNaN(tmax) {
		return -1
	}
	if tmin < 0 {
		return tmax
	}
	return tmin
}

// IntersectSphere intersects a sphere with the geometric method.
func IntersectSphere(origin, dir, center Vec3, radius float64) float64 {
	l := center.Sub(origin)
	tca := l.Dot(dir)
	d2 := l.LenSq() - tca*tca
	r2 := radius * radius
	if d2 > r2 {
		return -1
	}
	thc := math.Sqrt(r2 - d2)
	t0, t1 := tca-thc, tca+thc
	if t0 >= 0 {
		return t0
	}
	if t1 >= 0 {
		return t1
	}
	return -1
}

// IntersectPlane intersects the plane through point with the given normal.
// Rays parallel to the plane never hit.
func IntersectPlane(origin, dir, point, normal Vec3) float64 {
	denom := normal.Dot(dir)
	if denom == 0 {
		return -1
	}
	t := normal.Dot(point.Sub(origin)) / denom
	if t < 0 {
		return -1
	}
	return t
}
