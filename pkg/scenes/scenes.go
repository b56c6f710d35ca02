// Package scenes builds the demo worlds: shapes on a dark floor inside a
// gray sky sphere, lit by one sun.
package scenes

import (
	"fmt"
	"math"
	"strings"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
	"github.com/taigrr/lumen/pkg/trace"
)

// Scene is a named world.
type Scene struct {
	Name string
	*trace.World
}

// Options are shared by every scene.
type Options struct {
	// SkyRadius is the radius of the sphere enclosing the scene.
	SkyRadius float64
	// ShadowHorizon is how far a shadow ray must travel to reach open sky.
	// It must be smaller than SkyRadius or everything is in shadow.
	ShadowHorizon float64
	Sun           math3d.Vec3
}

// DefaultOptions returns the options the built-in scenes were designed for.
func DefaultOptions() Options {
	return Options{
		SkyRadius:     1e6,
		ShadowHorizon: trace.DefaultShadowHorizon,
		Sun:           trace.DefaultSun,
	}
}

var (
	floorColor = math3d.RGB(0.03, 0.03, 0.03)
	skyColor   = math3d.RGB(0.7, 0.7, 0.7)
)

// builder collects shapes and creates materials lit by the scene's sun.
type builder struct {
	opts   Options
	shapes []trace.Shape
}

func newBuilder(opts Options) *builder {
	opts.Sun = opts.Sun.Normalize()
	return &builder{opts: opts}
}

func (b *builder) material(c math3d.Color, transparent bool, absorption, ior float64) *trace.Complex {
	m := trace.NewComplex(c, transparent, absorption, ior)
	m.Sun = b.opts.Sun
	m.ShadowHorizon = b.opts.ShadowHorizon
	return m
}

func (b *builder) add(s ...trace.Shape) {
	b.shapes = append(b.shapes, s...)
}

// build appends the floor on y = 0 and the sky sphere.
func (b *builder) build(name string) Scene {
	b.add(
		trace.NewPlane(math3d.Zero3(), math3d.Up(), b.material(floorColor, false, 1, 1)),
		trace.NewSphere(math3d.Zero3(), b.opts.SkyRadius, trace.Simple{Color: skyColor}),
	)
	return Scene{Name: name, World: trace.NewWorld(b.shapes...)}
}

// All returns the built-in scenes in display order.
func All(opts Options) []Scene {
	return []Scene{
		StackedShapes(opts),
		Maze(opts),
		MaterialTest(opts),
	}
}

// Find returns the index of the scene with the given name, ignoring case.
func Find(list []Scene, name string) (int, error) {
	for i, s := range list {
		if strings.EqualFold(s.Name, name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("unknown scene %q", name)
}

// StackedShapes is a 6×6 grid of boxes with spheres on top, alternating
// between tinted glass and glossy paint.
func StackedShapes(opts Options) Scene {
	b := newBuilder(opts)
	for j := range 6 {
		for i := range 6 {
			transparent := (i+j)%2 == 0
			absorption := 0.7
			if transparent {
				absorption = 0.15
			}
			m := b.material(math3d.HSL(float64(i*6+j)*10, 0.75, 0.5), transparent, absorption, 1.56)

			x, z := -10+float64(i)*4, -10+float64(j)*4
			b.add(
				trace.NewBox(math3d.V3(x, 1.01, z), math3d.One3(), m),
				trace.NewSphere(math3d.V3(x, 3.5, z), 1, m),
			)
		}
	}
	return b.build("stacked")
}

var mazeLayout = [10][10]int{
	{1, 1, 1, 1, 1, 1, 0, 0, 1, 1},
	{1, 0, 0, 1, 0, 0, 0, 0, 0, 1},
	{1, 0, 1, 1, 1, 1, 1, 1, 0, 1},
	{1, 0, 1, 0, 0, 0, 0, 1, 0, 1},
	{0, 0, 1, 0, 0, 0, 0, 1, 0, 1},
	{0, 0, 1, 0, 0, 0, 0, 1, 0, 1},
	{1, 0, 1, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 1, 1, 0, 1, 1, 1, 0, 1},
	{1, 0, 0, 0, 0, 0, 1, 0, 0, 1},
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
}

// Maze is a hedge maze with a golden shrine in the middle.
func Maze(opts Options) Scene {
	b := newBuilder(opts)
	hedge := b.material(math3d.Green, false, 1, 1)

	for j, row := range mazeLayout {
		for i, wall := range row {
			if wall == 0 {
				continue
			}
			b.add(trace.NewBoxCorners(
				math3d.V3(float64(3*i-15), 0, float64(3*j-15)),
				math3d.V3(float64(3*(i+1)-15), 4, float64(3*(j+1)-15)),
				hedge,
			))
		}
	}

	gold := b.material(math3d.Yellow, false, 0.5, 1)
	b.add(
		trace.NewSphere(math3d.V3(0, 3, 0), 2, gold),
		trace.NewBox(math3d.V3(0, -2, 0), math3d.V3(3, 3, 3), gold),
	)
	return b.build("maze")
}

// MaterialTest is an arc of white spheres going from mirror to matte
// around a frosted block.
func MaterialTest(opts Options) Scene {
	b := newBuilder(opts)
	for i := range 10 {
		f := float64(i) / 9
		b.add(trace.NewSphere(
			math3d.V3(math.Cos(f*math.Pi)*12, 2, math.Sin(f*math.Pi)*12),
			1.5,
			b.material(math3d.White, false, f, 1),
		))
	}
	b.add(trace.NewBox(math3d.V3(0, 4, 0), math3d.V3(4, 4, 4), b.material(math3d.White, false, 0.98, 1.53)))
	return b.build("materials")
}

// ModelSize is the largest dimension imported models are fitted to.
const ModelSize = 12

// modelIOR is used for every imported material; glTF's core PBR model has
// no refractive index.
const modelIOR = 1.5

// FromModels builds a scene from imported models. Each model is fitted to
// ModelSize, stood on the floor and placed side by side along x.
func FromModels(opts Options, list ...*models.Model) Scene {
	b := newBuilder(opts)
	names := make([]string, 0, len(list))

	offset := -float64(len(list)-1) * ModelSize * 0.75
	for _, mdl := range list {
		names = append(names, mdl.Name)
		fit := mdl.Fit(ModelSize)
		shift := math3d.V3(offset, 0, 0)
		offset += ModelSize * 1.5

		for _, p := range fit.Parts {
			mat := b.material(p.Material.Color(), p.Material.Transparent, p.Material.Absorption(), modelIOR)
			b.add(trace.NewBoxCorners(p.Min.Add(shift), p.Max.Add(shift), mat))
		}
	}

	name := "model"
	if len(names) > 0 {
		name = strings.Join(names, "+")
	}
	return b.build(name)
}
