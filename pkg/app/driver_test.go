package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scenes"
	"github.com/taigrr/lumen/pkg/trace"
)

func testScenes() []scenes.Scene {
	ball := func(name string, c math3d.Color) scenes.Scene {
		return scenes.Scene{
			Name:  name,
			World: trace.NewWorld(trace.NewSphere(DefaultLookAt, 6, trace.Simple{Color: c})),
		}
	}
	return []scenes.Scene{
		ball("a", math3d.White),
		ball("b", math3d.Red),
		ball("c", math3d.Blue),
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.Poll = time.Millisecond
	return cfg
}

func newTestApp(t *testing.T, cfg Config) (*App, *render.Framebuffer) {
	t.Helper()
	fb := render.NewFramebuffer(64, 48)
	cam := render.NewCamera(math3d.Zero3(), math3d.V3(0, 0, 1), math3d.Up(), 90)
	a, err := New(cfg, cam, fb, testScenes())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)
	return a, fb
}

// tickUntilDone ticks until every pass has been submitted and taken off the
// queue.
func tickUntilDone(t *testing.T, a *App) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if !a.Tick() {
			t.Fatal("app exited")
		}
		if a.Status().Done() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("passes not done: %+v", a.Status())
		}
		time.Sleep(time.Millisecond)
	}
}

// finish lets running tiles complete and stops the pool.
func finish(t *testing.T, a *App) {
	t.Helper()
	a.pool.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.pool.AwaitTermination(ctx); err != nil {
		t.Fatalf("AwaitTermination: %v", err)
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		scenes []scenes.Scene
		is     error
	}{
		{"no scenes", func(*Config) {}, nil, nil},
		{"unknown scene", func(c *Config) { c.Scene = "nope" }, testScenes(), nil},
		{"negative quality", func(c *Config) { c.Qualities = []int{0, -1} }, testScenes(), render.ErrInvalidQuality},
		{"no qualities", func(c *Config) { c.Qualities = nil }, testScenes(), nil},
		{"zero poll", func(c *Config) { c.Poll = 0 }, testScenes(), nil},
		{"bad fov", func(c *Config) { c.FOV = 180 }, testScenes(), nil},
		{"sky inside horizon", func(c *Config) { c.SkyRadius = 100 }, testScenes(), nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			cam := render.NewCamera(math3d.Zero3(), math3d.V3(0, 0, 1), math3d.Up(), 90)

			a, err := New(cfg, cam, render.NewFramebuffer(8, 8), tc.scenes)
			if err == nil {
				a.Close()
				t.Fatal("expected error")
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Errorf("error %v is not %v", err, tc.is)
			}
		})
	}
}

func TestNewStartScene(t *testing.T) {
	cfg := testConfig()
	cfg.Scene = "B"
	a, _ := newTestApp(t, cfg)
	if got := a.Scene().Name; got != "b" {
		t.Errorf("scene = %q, want b", got)
	}
	if s := a.Status(); s.Scene != "b" || s.Pass != 0 || s.Passes != 3 || s.Workers != 2 {
		t.Errorf("initial status = %+v", s)
	}
}

func TestAppRendersAllPasses(t *testing.T) {
	a, fb := newTestApp(t, testConfig())

	tickUntilDone(t, a)
	s := a.Status()
	if s.Pass != 3 || s.Quality != 4 {
		t.Errorf("status = %+v, want pass 3 at quality 4", s)
	}
	finish(t, a)

	// The camera looks at the white ball, the rest is empty space.
	if c := fb.At(32, 24); c.R < 250 || c.G < 250 || c.B < 250 {
		t.Errorf("center pixel = %v, want white", c)
	}
	if c := fb.At(0, 0); c.R != 0 || c.G != 0 || c.B != 0 {
		t.Errorf("corner pixel = %v, want black", c)
	}
}

func TestAppCommandsReset(t *testing.T) {
	tests := []struct {
		name  string
		cmd   Command
		check func(t *testing.T, a *App, before math3d.Vec3)
	}{
		{"left", CommandLeft, func(t *testing.T, a *App, before math3d.Vec3) {
			if a.camera.Position == before {
				t.Error("camera did not move")
			}
		}},
		{"up", CommandUp, func(t *testing.T, a *App, before math3d.Vec3) {
			if a.camera.Position.Y <= before.Y {
				t.Error("camera did not rise")
			}
		}},
		{"next scene", CommandNextScene, func(t *testing.T, a *App, _ math3d.Vec3) {
			if a.Scene().Name != "b" {
				t.Errorf("scene = %q, want b", a.Scene().Name)
			}
		}},
		{"zoom in", CommandZoomIn, func(t *testing.T, a *App, _ math3d.Vec3) {
			if a.Controller().Target() != DefaultDistance-ZoomStep {
				t.Errorf("zoom target = %v", a.Controller().Target())
			}
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := newTestApp(t, testConfig())
			tickUntilDone(t, a)
			before := a.camera.Position

			a.Post(tc.cmd)
			if !a.Tick() {
				t.Fatal("app exited")
			}

			if s := a.Status(); s.Pass != 1 || s.Quality != 0 {
				t.Errorf("after %v status = %+v, want restart at the first pass", tc.cmd, s)
			}
			tc.check(t, a, before)
		})
	}
}

func TestAppSceneSwitchWraps(t *testing.T) {
	tests := []struct {
		name string
		cmds []Command
		want string
	}{
		{"prev from first", []Command{CommandPrevScene}, "c"},
		{"next", []Command{CommandNextScene}, "b"},
		{"full cycle", []Command{CommandNextScene, CommandNextScene, CommandNextScene}, "a"},
		{"there and back", []Command{CommandNextScene, CommandPrevScene}, "a"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := newTestApp(t, testConfig())
			for _, c := range tc.cmds {
				a.HandleCommand(c)
			}
			if got := a.Scene().Name; got != tc.want {
				t.Errorf("scene = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAppResize(t *testing.T) {
	a, fb := newTestApp(t, testConfig())
	tickUntilDone(t, a)

	// Same size: nothing to redo.
	a.RequestResize(64, 48)
	a.Tick()
	if s := a.Status(); s.Pass != 3 {
		t.Errorf("same-size resize restarted rendering: %+v", s)
	}

	a.RequestResize(100, 20)
	a.RequestResize(32, 16)
	a.Tick()
	if fb.Width() != 32 || fb.Height() != 16 {
		t.Errorf("surface is %dx%d, want 32x16", fb.Width(), fb.Height())
	}
	if s := a.Status(); s.Pass != 1 || s.Width != 32 || s.Height != 16 {
		t.Errorf("status after resize = %+v", s)
	}
}

func TestAppEmptySurface(t *testing.T) {
	fb := render.NewFramebuffer(0, 0)
	cam := render.NewCamera(math3d.Zero3(), math3d.V3(0, 0, 1), math3d.Up(), 90)
	a, err := New(testConfig(), cam, fb, testScenes())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)

	// Without tiles every pass is trivially complete; rendering must not
	// restart on every tick.
	for range 5 {
		a.Tick()
	}
	if s := a.Status(); !s.Done() || s.Pass != 3 {
		t.Errorf("status on empty surface = %+v, want all passes done", s)
	}
	if len(a.tiles) != 0 {
		t.Errorf("got %d tiles for an empty surface", len(a.tiles))
	}

	a.RequestResize(64, 48)
	a.Tick()
	if s := a.Status(); s.Pass != 1 || len(a.tiles) != 1 {
		t.Errorf("after resize status = %+v with %d tiles, want a restart", s, len(a.tiles))
	}
}

func TestAppExit(t *testing.T) {
	a, _ := newTestApp(t, testConfig())
	a.Post(CommandExit)
	if a.Tick() {
		t.Error("Tick should report false after exit")
	}
}

func TestAppRun(t *testing.T) {
	t.Run("exit command", func(t *testing.T) {
		a, _ := newTestApp(t, testConfig())
		a.Post(CommandRight)
		a.Post(CommandExit)

		done := make(chan error, 1)
		go func() { done <- a.Run(context.Background()) }()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after exit")
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		a, _ := newTestApp(t, testConfig())
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- a.Run(ctx) }()
		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
		if err := a.pool.Submit(func(context.Context) {}); err == nil {
			t.Error("pool still accepting jobs after Run returned")
		}
	})
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CommandLeft, "left"},
		{CommandZoomOut, "zoom-out"},
		{CommandExit, "exit"},
		{Command(99), "Command(99)"},
	}
	for _, tc := range tests {
		if got := tc.cmd.String(); got != tc.want {
			t.Errorf("%d.String() = %q, want %q", int(tc.cmd), got, tc.want)
		}
	}
}
