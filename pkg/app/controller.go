package app

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/render"
)

// Orbit limits and defaults.
const (
	DefaultDistance = 25.0
	MinDistance     = 5.0
	MaxDistance     = 80.0
	ZoomStep        = 5.0
)

// Spring parameters for zooming: a quick, critically damped approach.
const (
	zoomFrequency = 6.0
	zoomDamping   = 1.0
	zoomSettle    = 1e-2
)

var (
	// DefaultLookAt is the point the camera orbits.
	DefaultLookAt = math3d.V3(0, -2, 0)

	initialPosition = math3d.V3(-7, 4, -15)
	initialGaze     = math3d.V3(0, 0, 1)
)

// Controller orbits a camera around a fixed point. The orbit radius is
// measured from the world origin.
type Controller struct {
	camera *render.Camera
	lookAt math3d.Vec3

	distance float64
	target   float64
	velocity float64
	spring   harmonica.Spring
}

// NewController creates a controller for camera and places the camera at
// its initial position. tick is the interval between Update calls.
func NewController(camera *render.Camera, distance float64, lookAt math3d.Vec3, tick time.Duration) *Controller {
	fps := max(1, int(time.Second/max(tick, time.Millisecond)))
	c := &Controller{
		camera: camera,
		lookAt: lookAt,
		spring: harmonica.NewSpring(harmonica.FPS(fps), zoomFrequency, zoomDamping),
	}
	c.distance = clampDistance(distance)
	c.target = c.distance
	c.Reset()
	return c
}

// Reset puts the camera back at its initial position.
func (c *Controller) Reset() {
	c.camera.Position = initialPosition
	c.camera.Gaze = initialGaze
	c.Move(0, 0)
}

// Distance returns the current orbit radius.
func (c *Controller) Distance() float64 { return c.distance }

// Target returns the orbit radius the zoom spring is heading for.
func (c *Controller) Target() float64 { return c.target }

// Move steps the camera along its side (x) and up (y) vectors, puts it back
// on the orbit and aims it at the look-at point.
func (c *Controller) Move(x, y float64) {
	cam := c.camera
	side := cam.Gaze.Cross(math3d.Up())
	up := side.Cross(cam.Gaze)

	pos := cam.Position.AddScaled(side, x).AddScaled(up, y)
	if l := pos.Len(); l > 0 {
		pos = pos.Scale(c.distance / l)
	}
	cam.Position = pos
	cam.Gaze = c.lookAt.Sub(pos).Normalize()
	cam.ComputeViewVectors()
}

// Zoom moves the target orbit radius by steps zoom increments; positive
// steps move closer. The camera follows over the next Update calls.
func (c *Controller) Zoom(steps int) {
	c.target = clampDistance(c.target - float64(steps)*ZoomStep)
}

// Update advances the zoom spring one tick and reports whether the camera
// moved.
func (c *Controller) Update() bool {
	if c.distance == c.target && c.velocity == 0 {
		return false
	}

	c.distance, c.velocity = c.spring.Update(c.distance, c.velocity, c.target)
	if math.Abs(c.distance-c.target) < zoomSettle && math.Abs(c.velocity) < zoomSettle {
		c.distance, c.velocity = c.target, 0
	}
	c.Move(0, 0)
	return true
}

func clampDistance(d float64) float64 {
	return math.Min(MaxDistance, math.Max(MinDistance, d))
}
