package app

import (
	"math"
	"testing"
	"time"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/render"
)

func newTestController() (*Controller, *render.Camera) {
	cam := render.NewCamera(math3d.Zero3(), math3d.V3(0, 0, 1), math3d.Up(), 90)
	return NewController(cam, DefaultDistance, DefaultLookAt, 10*time.Millisecond), cam
}

func TestControllerInitialCamera(t *testing.T) {
	c, cam := newTestController()

	if got := cam.Position.Len(); math.Abs(got-DefaultDistance) > 1e-9 {
		t.Errorf("orbit radius = %v, want %v", got, DefaultDistance)
	}
	want := DefaultLookAt.Sub(cam.Position).Normalize()
	if cam.Gaze.Sub(want).Len() > 1e-12 {
		t.Errorf("gaze = %v, want %v", cam.Gaze, want)
	}
	// The initial position is on the same ray from the origin as (-7, 4, -15).
	dir := math3d.V3(-7, 4, -15).Normalize()
	if cam.Position.Normalize().Sub(dir).Len() > 1e-12 {
		t.Errorf("position %v not along %v", cam.Position, dir)
	}
	if c.Distance() != DefaultDistance || c.Target() != DefaultDistance {
		t.Errorf("distance = %v, target = %v", c.Distance(), c.Target())
	}
}

func TestControllerMove(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
	}{
		{"right", 1, 0},
		{"left", -1, 0},
		{"up", 0, 1},
		{"down", 0, -1},
		{"diagonal", 1, -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, cam := newTestController()
			before := cam.Position

			c.Move(tc.x, tc.y)

			if cam.Position.DistSq(before) < 1e-6 {
				t.Error("camera did not move")
			}
			if got := cam.Position.Len(); math.Abs(got-DefaultDistance) > 1e-9 {
				t.Errorf("orbit radius = %v, want %v", got, DefaultDistance)
			}
			if got := cam.Gaze.Len(); math.Abs(got-1) > 1e-12 {
				t.Errorf("gaze length = %v", got)
			}
			if d := cam.Horizontal().Dot(cam.Gaze); math.Abs(d) > 1e-9 {
				t.Errorf("view vectors not recomputed: horizontal·gaze = %v", d)
			}
		})
	}
}

func TestControllerMoveUpRaisesCamera(t *testing.T) {
	c, cam := newTestController()
	y := cam.Position.Y
	c.Move(0, 1)
	if cam.Position.Y <= y {
		t.Errorf("y went from %v to %v", y, cam.Position.Y)
	}
}

func TestControllerZoomClamp(t *testing.T) {
	tests := []struct {
		name  string
		steps int
		want  float64
	}{
		{"in", 1, 20},
		{"out", -1, 30},
		{"in past minimum", 10, MinDistance},
		{"out past maximum", -20, MaxDistance},
		{"none", 0, DefaultDistance},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestController()
			c.Zoom(tc.steps)
			if c.Target() != tc.want {
				t.Errorf("target = %v, want %v", c.Target(), tc.want)
			}
			if c.Distance() != DefaultDistance {
				t.Errorf("distance changed before Update: %v", c.Distance())
			}
		})
	}
}

func TestControllerUpdateSettles(t *testing.T) {
	c, cam := newTestController()

	if c.Update() {
		t.Fatal("Update reported movement with nothing to do")
	}

	c.Zoom(1)
	steps := 0
	for c.Update() {
		steps++
		if steps > 1000 {
			t.Fatalf("zoom did not settle, distance %v", c.Distance())
		}
	}
	if steps < 2 {
		t.Errorf("zoom was not smoothed: settled in %d steps", steps)
	}
	if c.Distance() != 20 {
		t.Errorf("distance = %v, want 20", c.Distance())
	}
	if got := cam.Position.Len(); math.Abs(got-20) > 1e-9 {
		t.Errorf("orbit radius = %v, want 20", got)
	}
}
