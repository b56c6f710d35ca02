package trace

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// Material shades a hit. Implementations hold only construction-time state
// and are safe to call from many goroutines.
type Material interface {
	Shade(ray Ray, hit Hit, scene Scene) math3d.Color
}

// Simple is a flat, unlit color.
type Simple struct {
	Color math3d.Color
}

func (m Simple) Shade(Ray, Hit, Scene) math3d.Color {
	return m.Color
}

// Normal visualizes the surface normal, mapping each axis from [-1, 1] to
// [0, 1].
type Normal struct{}

func (Normal) Shade(_ Ray, hit Hit, _ Scene) math3d.Color {
	n := hit.Normal
	return math3d.Color{R: 0.5 + 0.5*n.X, G: 0.5 + 0.5*n.Y, B: 0.5 + 0.5*n.Z}
}

// Defaults for Complex materials.
const (
	DefaultShadowHorizon = 500.0
	MinLight             = 0.01
)

// DefaultSun is the direction towards the light used by the built-in scenes.
var DefaultSun = math3d.V3(-0.2, 1, 0.4).Normalize()

// Complex is a sun-lit material with shadows, mirror reflection and, for
// transparent materials, Fresnel-weighted refraction with absorption.
type Complex struct {
	Color       math3d.Color
	Transparent bool
	// Absorption is in [0, 1]. For opaque materials it weights diffuse
	// against reflection; for transparent ones it is the fraction absorbed
	// per unit distance travelled inside.
	Absorption float64
	IOR        float64
	Sun        math3d.Vec3 // unit vector towards the light
	// ShadowHorizon is how far a shadow ray must travel to count as open
	// sky.
	ShadowHorizon float64
}

// NewComplex creates a Complex material lit by DefaultSun.
func NewComplex(c math3d.Color, transparent bool, absorption, ior float64) *Complex {
	return &Complex{
		Color:         c,
		Transparent:   transparent,
		Absorption:    absorption,
		IOR:           ior,
		Sun:           DefaultSun,
		ShadowHorizon: DefaultShadowHorizon,
	}
}

func (m *Complex) Shade(ray Ray, hit Hit, scene Scene) math3d.Color {
	switch {
	case ray.Depth > MaxDepth:
		return math3d.Color{}
	case ray.Depth == MaxDepth:
		return m.diffuse(ray, hit, scene)
	}

	var (
		out        math3d.Color
		reflection float64
	)
	if m.Transparent {
		out, reflection = m.refract(ray, hit, scene)
	} else {
		if m.Absorption > 0 {
			out = m.diffuse(ray, hit, scene).Scale(m.Absorption)
		}
		reflection = 1 - m.Absorption
	}

	if reflection > 0 {
		out = out.AddScaled(m.reflect(ray, hit, scene), reflection)
	}
	return out
}

func (m *Complex) diffuse(ray Ray, hit Hit, scene Scene) math3d.Color {
	light := hit.Normal.Dot(m.Sun)

	if m.Transparent {
		return m.Color.Scale(math.Abs(light))
	}

	if light > 0 && ray.Depth < MaxDepth {
		// Shadow rays start at MaxDepth so they are shaded diffuse-only.
		sunRay := Ray{
			Origin:    hit.Position.AddScaled(hit.Normal, Epsilon),
			Direction: m.Sun,
			Depth:     MaxDepth,
		}
		if d, _ := scene.Query(sunRay); d >= 0 && d < m.ShadowHorizon {
			light = 0
		}
	}
	return m.Color.Scale(max(light, MinLight))
}

func (m *Complex) reflect(ray Ray, hit Hit, scene Scene) math3d.Color {
	out := ray.Child(
		hit.Position.AddScaled(hit.Normal, Epsilon),
		ray.Direction.Reflect(hit.Normal),
	)
	_, c := scene.Query(out)
	return c
}

// refract traces the transmitted ray and returns its color along with the
// Fresnel weight the caller should give to an external reflection. The
// weight is zero when the transmitted ray continues inside the material or
// is totally internally reflected.
func (m *Complex) refract(ray Ray, hit Hit, scene Scene) (math3d.Color, float64) {
	d := ray.Direction
	n := hit.Normal
	cosi := d.Dot(n)
	etai, etat := 1.0, m.IOR

	if cosi < 0 {
		cosi = -cosi
	} else {
		n = n.Negate()
		etai, etat = etat, etai
	}

	eta := etai / etat
	k := 1 - eta*eta*(1-cosi*cosi)

	// n now faces the incoming ray.
	var out Ray
	if k < 0 {
		out = ray.Child(hit.Position.AddScaled(n, Epsilon), d.Reflect(n))
	} else {
		heading := d.Scale(eta).AddScaled(n, eta*cosi-math.Sqrt(k)).Normalize()
		out = ray.Child(hit.Position.AddScaled(n, -Epsilon), heading)
	}
	heading := out.Direction

	distance, c := scene.Query(out)

	if heading.Dot(hit.Normal) < 0 {
		// Travelling through the interior: attenuate and tint.
		absorbed := 0.0
		if distance > 0 {
			absorbed = 1 - math.Pow(1-m.Absorption, distance)
		}
		c = c.Scale(1 - absorbed)
		c = c.Add(c.Mul(m.Color).Scale(absorbed))
		return c, 0
	}

	sint := etai / etat * math.Sqrt(max(0, 1-cosi*cosi))
	cost := math.Sqrt(max(0, 1-sint*sint))
	rs := (etat*cosi - etai*cost) / (etat*cosi + etai*cost)
	rp := (etai*cosi - etat*cost) / (etai*cosi + etat*cost)
	return c, (rs*rs + rp*rp) / 2
}
