// Package models imports glTF scenes as sets of axis-aligned boxes.
//
// Every mesh primitive becomes one Part: the world-space bounding box of its
// vertices plus the PBR factors of its material. The raytracer has no
// triangle primitive, so this is a coarse but cheap stand-in for the mesh.
package models

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// MinExtent is the thinnest a part may be along any axis. Flat primitives
// (quads, decals) are thickened to it so their boxes have a volume.
const MinExtent = 1e-3

// Model is an imported scene.
type Model struct {
	Name  string
	Parts []Part

	// Bounding box of all parts
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// Part is one primitive's world-space bounding box.
type Part struct {
	Name     string
	Min, Max math3d.Vec3
	Material Material
}

// Material holds the glTF PBR metallic-roughness factors.
type Material struct {
	Name        string
	BaseColor   [4]float64 // RGBA in 0-1 range
	Metallic    float64    // 0 = dielectric, 1 = metal
	Roughness   float64    // 0 = smooth, 1 = rough
	Transparent bool       // alpha mode BLEND
}

// DefaultMaterial is used for primitives without a material; it matches the
// glTF specification's default.
var DefaultMaterial = Material{
	Name:      "default",
	BaseColor: [4]float64{1, 1, 1, 1},
	Metallic:  1,
	Roughness: 1,
}

// Color returns the base color without alpha.
func (m Material) Color() math3d.Color {
	return math3d.RGB(m.BaseColor[0], m.BaseColor[1], m.BaseColor[2])
}

// Absorption maps the PBR factors to the raytracer's absorption term. For
// opaque materials smooth metals absorb little and mirror the rest; for
// transparent ones absorption follows the alpha channel.
func (m Material) Absorption() float64 {
	if m.Transparent {
		return clamp01(m.BaseColor[3])
	}
	return clamp01(1 - m.Metallic*(1-m.Roughness))
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddPart appends a part, thickening it to MinExtent where needed, and
// grows the bounds.
func (m *Model) AddPart(p Part) {
	p.Min, p.Max = p.Min.Min(p.Max), p.Min.Max(p.Max)
	p.Min.X, p.Max.X = thicken(p.Min.X, p.Max.X)
	p.Min.Y, p.Max.Y = thicken(p.Min.Y, p.Max.Y)
	p.Min.Z, p.Max.Z = thicken(p.Min.Z, p.Max.Z)

	if len(m.Parts) == 0 {
		m.BoundsMin, m.BoundsMax = p.Min, p.Max
	} else {
		m.BoundsMin = m.BoundsMin.Min(p.Min)
		m.BoundsMax = m.BoundsMax.Max(p.Max)
	}
	m.Parts = append(m.Parts, p)
}

func thicken(lo, hi float64) (float64, float64) {
	if hi-lo >= MinExtent {
		return lo, hi
	}
	pad := (MinExtent - (hi - lo)) / 2
	return lo - pad, hi + pad
}

// Center returns the center of the bounding box.
func (m *Model) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Model) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// Fit returns a copy of the model scaled uniformly so its largest
// dimension is size, centered on the Y axis and resting on y = 0.
func (m *Model) Fit(size float64) *Model {
	out := NewModel(m.Name)
	if len(m.Parts) == 0 {
		return out
	}

	ext := m.Size()
	largest := math.Max(ext.X, math.Max(ext.Y, ext.Z))
	s := 1.0
	if largest > 0 {
		s = size / largest
	}
	c := m.Center()
	offset := math3d.V3(-c.X*s, -m.BoundsMin.Y*s, -c.Z*s)

	for _, p := range m.Parts {
		p.Min = p.Min.Scale(s).Add(offset)
		p.Max = p.Max.Scale(s).Add(offset)
		out.AddPart(p)
	}
	return out
}
