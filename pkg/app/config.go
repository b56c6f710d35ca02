package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scenes"
	"github.com/taigrr/lumen/pkg/trace"
	"github.com/taigrr/lumen/pkg/workerpool"
)

// Config holds the resolved driver settings.
type Config struct {
	// Workers is the number of render goroutines. 0 picks
	// workerpool.DefaultWorkers.
	Workers int

	// Qualities are the passes rendered after every reset, in order.
	// 0 is the patched preview, 1 one ray per pixel and n > 1 an n×n
	// supersampling grid.
	Qualities []int

	FOV  float64       // vertical field of view in degrees
	Poll time.Duration // driver tick interval

	SkyRadius     float64
	ShadowHorizon float64

	// Scene is the name of the scene shown first. Empty means the first
	// scene in the list.
	Scene string
}

// DefaultConfig returns the settings lumen starts with.
func DefaultConfig() Config {
	return Config{
		Workers:       workerpool.DefaultWorkers(),
		Qualities:     []int{0, 1, 4},
		FOV:           90,
		Poll:          10 * time.Millisecond,
		SkyRadius:     1e6,
		ShadowHorizon: trace.DefaultShadowHorizon,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if len(c.Qualities) == 0 {
		return errors.New("at least one quality pass is required")
	}
	for _, q := range c.Qualities {
		if q < 0 {
			return fmt.Errorf("quality %d: %w", q, render.ErrInvalidQuality)
		}
	}
	if c.FOV <= 0 || c.FOV >= 180 {
		return fmt.Errorf("field of view must be between 0 and 180 degrees, got %v", c.FOV)
	}
	if c.Poll <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Poll)
	}
	if c.ShadowHorizon <= 0 {
		return fmt.Errorf("sky distance must be positive, got %v", c.ShadowHorizon)
	}
	if c.SkyRadius <= c.ShadowHorizon {
		return fmt.Errorf("sky radius %v must exceed the sky distance %v", c.SkyRadius, c.ShadowHorizon)
	}
	return nil
}

// SceneOptions returns the options scenes should be built with.
func (c Config) SceneOptions() scenes.Options {
	opts := scenes.DefaultOptions()
	opts.SkyRadius = c.SkyRadius
	opts.ShadowHorizon = c.ShadowHorizon
	return opts
}
