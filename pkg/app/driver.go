// Package app is lumen's driver: it turns input commands into camera and
// scene changes and keeps the worker pool fed with tile renders, one
// quality pass at a time.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/taigrr/lumen"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scenes"
	"github.com/taigrr/lumen/pkg/workerpool"
)

// Command is an abstract input action.
type Command int

const (
	CommandNone Command = iota
	CommandLeft
	CommandRight
	CommandUp
	CommandDown
	CommandZoomIn
	CommandZoomOut
	CommandPrevScene
	CommandNextScene
	CommandExit
)

var commandNames = [...]string{
	CommandNone:      "none",
	CommandLeft:      "left",
	CommandRight:     "right",
	CommandUp:        "up",
	CommandDown:      "down",
	CommandZoomIn:    "zoom-in",
	CommandZoomOut:   "zoom-out",
	CommandPrevScene: "prev-scene",
	CommandNextScene: "next-scene",
	CommandExit:      "exit",
}

func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return fmt.Sprintf("Command(%d)", int(c))
	}
	return commandNames[c]
}

// Status is a snapshot of the driver state for display.
type Status struct {
	Scene   string
	Pass    int // passes submitted since the last reset
	Passes  int
	Quality int // quality of the most recently submitted pass
	Workers int
	Queued  int
	Width   int
	Height  int
}

// Done reports whether every pass has been submitted and none is queued.
func (s Status) Done() bool {
	return s.Pass >= s.Passes && s.Queued == 0
}

// App is the render driver.
//
// Post, RequestResize and Status are safe for concurrent use. HandleCommand
// and Tick must only be called from the goroutine driving the App, which is
// the one running Run when Run is used.
type App struct {
	cfg        Config
	camera     *render.Camera
	controller *Controller
	surface    render.Surface
	scenes     []scenes.Scene
	pool       *workerpool.Pool

	sceneIndex   int
	qualityIndex int
	tiles        []*render.Tile
	mustReset    bool
	exited       bool

	mu      sync.Mutex
	pending []Command
	resize  *image.Point
	status  Status
}

// New creates a driver rendering list to surface through camera. The camera
// is moved to its initial orbit position. The worker pool is started
// immediately; Run or Close stops it.
func New(cfg Config, camera *render.Camera, surface render.Surface, list []scenes.Scene) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if len(list) == 0 {
		return nil, errors.New("no scenes to render")
	}

	index := 0
	if cfg.Scene != "" {
		i, err := scenes.Find(list, cfg.Scene)
		if err != nil {
			return nil, err
		}
		index = i
	}

	camera.SetFOVDegrees(cfg.FOV)
	a := &App{
		cfg:        cfg,
		camera:     camera,
		controller: NewController(camera, DefaultDistance, DefaultLookAt, cfg.Poll),
		surface:    surface,
		scenes:     list,
		sceneIndex: index,
		mustReset:  true,
	}
	a.pool = workerpool.New(cfg.Workers)
	a.updateStatus()
	return a, nil
}

// Scene returns the scene being rendered.
func (a *App) Scene() scenes.Scene {
	return a.scenes[a.sceneIndex]
}

// Controller returns the camera controller.
func (a *App) Controller() *Controller {
	return a.controller
}

// Post queues a command for the next Tick.
func (a *App) Post(cmd Command) {
	a.mu.Lock()
	a.pending = append(a.pending, cmd)
	a.mu.Unlock()
}

// RequestResize asks for the surface to be resized on the next Tick. Only
// the latest request is kept.
func (a *App) RequestResize(width, height int) {
	a.mu.Lock()
	a.resize = &image.Point{X: width, Y: height}
	a.mu.Unlock()
}

// Status returns a snapshot of the driver state.
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// HandleCommand applies cmd immediately.
func (a *App) HandleCommand(cmd Command) {
	var dx, dy float64

	switch cmd {
	case CommandExit:
		a.exited = true
	case CommandRight:
		dx = 1
	case CommandLeft:
		dx = -1
	case CommandUp:
		dy = 1
	case CommandDown:
		dy = -1
	case CommandZoomIn:
		a.controller.Zoom(1)
	case CommandZoomOut:
		a.controller.Zoom(-1)
	case CommandPrevScene:
		a.switchScene(-1)
	case CommandNextScene:
		a.switchScene(1)
	}

	if dx != 0 || dy != 0 {
		a.controller.Move(dx, dy)
		a.mustReset = true
	}
}

func (a *App) switchScene(step int) {
	n := len(a.scenes)
	a.sceneIndex = ((a.sceneIndex+step)%n + n) % n
	a.mustReset = true
	lumen.Logger().Info("scene switched", "scene", a.Scene().Name)
}

// Tick runs one driver step: apply pending input and resizes, advance the
// zoom spring, then submit the next quality pass if the previous one has
// drained. It reports false once an exit command has been handled.
func (a *App) Tick() bool {
	a.mu.Lock()
	cmds := a.pending
	a.pending = nil
	size := a.resize
	a.resize = nil
	a.mu.Unlock()

	if size != nil && (size.X != a.surface.Width() || size.Y != a.surface.Height()) {
		a.surface.Resize(size.X, size.Y)
		a.mustReset = true
		lumen.Logger().Info("surface resized", "width", size.X, "height", size.Y)
	}
	for _, cmd := range cmds {
		a.HandleCommand(cmd)
	}
	if a.exited {
		return false
	}
	if a.controller.Update() {
		a.mustReset = true
	}

	a.ensureRenderJobs()
	a.updateStatus()
	return true
}

// reset drops queued work, interrupts running tiles and starts over at the
// first quality pass with tiles for the current camera.
func (a *App) reset() {
	dropped := a.pool.ClearPendingJobs()
	a.pool.InterruptCurrentJobs()
	a.qualityIndex = 0
	a.tiles = a.camera.RenderTiles(a.surface)
	a.mustReset = false
	lumen.Logger().Debug("render reset", "dropped", dropped, "tiles", len(a.tiles))
}

func (a *App) ensureRenderJobs() {
	if a.mustReset {
		a.reset()
	}

	// Passes may only overlap while draining; submitting a pass while the
	// previous one is queued would let lower quality overwrite higher.
	if a.pool.HasWork() || a.qualityIndex >= len(a.cfg.Qualities) {
		return
	}

	quality := a.cfg.Qualities[a.qualityIndex]
	scene := a.Scene()
	for _, tile := range a.tiles {
		err := a.pool.Submit(func(ctx context.Context) {
			if err := tile.Render(ctx, scene, quality); err != nil {
				lumen.Logger().Error("tile render failed", "tile", tile.Bounds(), "quality", quality, "error", err)
			}
		})
		if err != nil {
			lumen.Logger().Warn("pass not submitted", "quality", quality, "error", err)
			return
		}
	}
	a.qualityIndex++
	lumen.Logger().Debug("pass submitted", "scene", scene.Name, "quality", quality, "tiles", len(a.tiles))
}

func (a *App) updateStatus() {
	s := Status{
		Scene:   a.Scene().Name,
		Pass:    a.qualityIndex,
		Passes:  len(a.cfg.Qualities),
		Workers: a.pool.Workers(),
		Queued:  a.pool.Pending(),
		Width:   a.surface.Width(),
		Height:  a.surface.Height(),
	}
	if a.qualityIndex > 0 {
		s.Quality = a.cfg.Qualities[a.qualityIndex-1]
	}

	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

// Run ticks at the configured poll interval until an exit command is
// handled or ctx is done, then stops the worker pool.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	ticker := time.NewTicker(a.cfg.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if !a.Tick() {
			lumen.Logger().Info("exit requested")
			return nil
		}
	}
}

// Close interrupts running tiles and stops the worker pool.
func (a *App) Close() {
	a.pool.ShutdownNow()
}
