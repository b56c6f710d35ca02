// lumen - Progressive Terminal Raytracer
// Orbit boxes, spheres and glTF models in your terminal while the image
// sharpens from a blocky preview to a supersampled render.
//
// Controls:
//
//	Arrows / WASD - Orbit the camera
//	PgUp / +      - Zoom in
//	PgDn / -      - Zoom out
//	Tab / N       - Next scene
//	Shift+Tab / P - Previous scene
//	Esc / Q       - Quit
package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/lumen"
	"github.com/taigrr/lumen/pkg/app"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scenes"
)

var version = "dev"

type options struct {
	scene       string
	model       string
	workers     int
	qualities   []int
	fov         float64
	poll        time.Duration
	skyRadius   float64
	skyDistance float64
	logFile     string
	logLevel    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	def := app.DefaultConfig()
	opts := options{
		scene:       "stacked",
		workers:     def.Workers,
		qualities:   def.Qualities,
		fov:         def.FOV,
		poll:        def.Poll,
		skyRadius:   def.SkyRadius,
		skyDistance: def.ShadowHorizon,
		logLevel:    "info",
	}

	cmd := &cobra.Command{
		Use:   "lumen",
		Short: "Progressive terminal raytracer",
		Long: `lumen raytraces boxes, spheres and planes in the terminal.

Every camera move restarts rendering: a blocky preview first, then one ray
per pixel, then supersampled passes, each tile refining from the center out.`,
		Example: `  lumen
  lumen --scene maze --workers 4
  lumen --model duck.glb --qualities 0,1,2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.scene, "scene", opts.scene, "scene to show first (stacked, maze, materials or model)")
	f.StringVar(&opts.model, "model", "", "glTF or GLB file to add as a scene")
	f.IntVar(&opts.workers, "workers", opts.workers, "render goroutines")
	f.IntSliceVar(&opts.qualities, "qualities", opts.qualities, "quality passes: 0 preview, 1 one ray per pixel, n n×n supersampling")
	f.Float64Var(&opts.fov, "fov", opts.fov, "vertical field of view in degrees")
	f.DurationVar(&opts.poll, "poll", opts.poll, "driver poll interval")
	f.Float64Var(&opts.skyRadius, "sky-radius", opts.skyRadius, "radius of the sky sphere")
	f.Float64Var(&opts.skyDistance, "sky-distance", opts.skyDistance, "distance a shadow ray must travel to reach the sky")
	f.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	f.StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")
	return cmd
}

func setupLogging(path, level string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	lumen.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl})))
	return func() {
		lumen.SetLogger(nil)
		f.Close()
	}, nil
}

func buildScenes(opts options, cfg *app.Config) ([]scenes.Scene, error) {
	list := scenes.All(cfg.SceneOptions())

	if opts.model != "" {
		m, err := models.LoadGLTF(opts.model)
		if err != nil {
			return nil, err
		}
		s := scenes.FromModels(cfg.SceneOptions(), m)
		list = append(list, s)
		if strings.EqualFold(cfg.Scene, "model") {
			cfg.Scene = s.Name
		}
	} else if strings.EqualFold(cfg.Scene, "model") {
		return nil, errors.New("--scene model needs --model")
	}
	return list, nil
}

func run(ctx context.Context, opts options) error {
	closeLog, err := setupLogging(opts.logFile, opts.logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg := app.DefaultConfig()
	cfg.Workers = opts.workers
	cfg.Qualities = opts.qualities
	cfg.FOV = opts.fov
	cfg.Poll = opts.poll
	cfg.SkyRadius = opts.skyRadius
	cfg.ShadowHorizon = opts.skyDistance
	cfg.Scene = opts.scene

	list, err := buildScenes(opts, &cfg)
	if err != nil {
		return err
	}

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	fb := render.NewFramebuffer(width, height*2)
	camera := render.NewCamera(math3d.Zero3(), math3d.V3(0, 0, 1), math3d.Up(), cfg.FOV)
	driver, err := app.New(cfg, camera, fb, list)
	if err != nil {
		return err
	}
	defer driver.Close()

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)
	defer func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	sizes := make(chan image.Point, 1)

	g.Go(func() error {
		defer cancel()
		return driver.Run(ctx)
	})
	g.Go(func() error {
		return pumpInput(ctx, term, driver, sizes)
	})
	g.Go(func() error {
		return present(ctx, term, fb, driver, sizes, cfg.Poll, width, height)
	})
	return g.Wait()
}

var keyCommands = []struct {
	keys []string
	cmd  app.Command
}{
	{[]string{"left", "a"}, app.CommandLeft},
	{[]string{"right", "d"}, app.CommandRight},
	{[]string{"up", "w"}, app.CommandUp},
	{[]string{"down", "s"}, app.CommandDown},
	{[]string{"pgup", "+", "="}, app.CommandZoomIn},
	{[]string{"pgdown", "-"}, app.CommandZoomOut},
	{[]string{"tab", "n"}, app.CommandNextScene},
	{[]string{"shift+tab", "p"}, app.CommandPrevScene},
	{[]string{"escape", "q", "ctrl+c"}, app.CommandExit},
}

func commandFor(ev uv.KeyPressEvent) app.Command {
	for _, kc := range keyCommands {
		for _, k := range kc.keys {
			if ev.MatchString(k) {
				return kc.cmd
			}
		}
	}
	return app.CommandNone
}

// pumpInput turns terminal events into driver commands. Window sizes are
// forwarded to the presenter, which owns the terminal buffer.
func pumpInput(ctx context.Context, term *uv.Terminal, driver *app.App, sizes chan image.Point) error {
	events := term.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				driver.Post(app.CommandExit)
				return nil
			}
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				driver.RequestResize(ev.Width, ev.Height*2)
				select {
				case <-sizes:
				default:
				}
				sizes <- image.Pt(ev.Width, ev.Height)
			case uv.KeyPressEvent:
				if cmd := commandFor(ev); cmd != app.CommandNone {
					driver.Post(cmd)
				}
			}
		}
	}
}

// present redraws the terminal whenever the framebuffer or the driver
// status changes.
func present(ctx context.Context, term *uv.Terminal, fb *render.Framebuffer, driver *app.App, sizes <-chan image.Point, interval time.Duration, width, height int) error {
	ticker := time.NewTicker(max(interval, 16*time.Millisecond))
	defer ticker.Stop()

	var (
		version    uint64
		lastStatus app.Status
		dirty      = true
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case size := <-sizes:
			width, height = size.X, size.Y
			term.Erase()
			term.Resize(width, height)
			dirty = true
		case <-ticker.C:
		}

		status := driver.Status()
		if v := fb.Version(); v != version || status != lastStatus {
			version, lastStatus = v, status
			dirty = true
		}
		if !dirty {
			continue
		}

		fb.Draw(term, uv.Rect(0, 0, width, height))
		drawHUD(term, width, height-1, status)
		if err := term.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}
		dirty = false
	}
}

var (
	hudFg = math3d.GammaEncode(math3d.White, 0, 0)
	hudBg = math3d.GammaEncode(math3d.RGB(0.02, 0.02, 0.03), 0, 0)
)

func hudText(s app.Status) string {
	pass := "done"
	if !s.Done() {
		pass = "pass " + strconv.Itoa(s.Pass) + "/" + strconv.Itoa(s.Passes)
	}
	return fmt.Sprintf(" %s | %s q%d | %d workers | %dx%d | arrows orbit  +/- zoom  tab scene  q quit",
		s.Scene, pass, s.Quality, s.Workers, s.Width, s.Height)
}

// drawHUD writes the status line on row y.
func drawHUD(scr uv.Screen, width, y int, s app.Status) {
	if y < 0 {
		return
	}
	style := uv.Style{Fg: hudFg, Bg: hudBg}
	text := []rune(hudText(s))
	for x := range width {
		content := " "
		if x < len(text) {
			content = string(text[x])
		}
		scr.SetCell(x, y, &uv.Cell{Content: content, Width: 1, Style: style})
	}
}
