// Package config loads driver settings from flags, with defaults taken
// from SCULPT_* environment variables.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chazu/sculpt/pkg/engine"
	"github.com/chazu/sculpt/pkg/grid"
	"github.com/chazu/sculpt/pkg/scene"
	"github.com/chazu/sculpt/pkg/surface"
	"github.com/chazu/sculpt/pkg/widget"
)

// Config captures runtime configuration for the driver.
type Config struct {
	Window  Window
	Scene   Scene
	Script  string
	Logging Logging
}

// Window is the initial window size in screen coordinates.
type Window struct {
	Width, Height int
}

// Scene overrides the default scene before any script runs.
type Scene struct {
	NX, NY      int
	Resolution  int
	HandleSize  float64
	SeedPlane   bool
	EvalTimeout time.Duration
}

// Logging controls the driver's diagnostic output.
type Logging struct {
	Debug bool
}

const (
	envWidth       = "SCULPT_WIDTH"
	envHeight      = "SCULPT_HEIGHT"
	envScript      = "SCULPT_SCRIPT"
	envNX          = "SCULPT_NX"
	envNY          = "SCULPT_NY"
	envResolution  = "SCULPT_RESOLUTION"
	envHandleSize  = "SCULPT_HANDLE_SIZE"
	envSeedPlane   = "SCULPT_SEED_PLANE"
	envEvalTimeout = "SCULPT_EVAL_TIMEOUT"
	envDebug       = "SCULPT_DEBUG"
)

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	fs := flag.NewFlagSet("sculpt", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	width := fs.Int("width", envOrInt(env, envWidth, 1024), "window width")
	height := fs.Int("height", envOrInt(env, envHeight, 768), "window height")
	script := fs.String("script", envOrDefault(env, envScript, ""), "scene script to load at startup")
	nx := fs.Int("nx", envOrInt(env, envNX, grid.DefaultNX), "control points along u")
	ny := fs.Int("ny", envOrInt(env, envNY, grid.DefaultNY), "control points along v")
	resolution := fs.Int("resolution", envOrInt(env, envResolution, surface.DefaultResolution), "tessellation samples per axis")
	handleSize := fs.Float64("handle-size", envOrFloat(env, envHandleSize, widget.DefaultHandleSize), "handle radius")
	seedPlane := fs.Bool("seed-plane", envOrBool(env, envSeedPlane, false), "lay the grid out on the default seed plane instead of the default bounds")
	timeout := fs.Duration("eval-timeout", envOrDuration(env, envEvalTimeout, engine.EvalTimeout), "limit for one script evaluation")
	debug := fs.Bool("debug", envOrBool(env, envDebug, false), "enable debug logging to stderr")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *width <= 0 || *height <= 0 {
		return Config{}, fmt.Errorf("window size must be positive (got %dx%d)", *width, *height)
	}
	if *nx < 2 || *ny < 2 {
		return Config{}, fmt.Errorf("grid must have at least 2x2 points (got %dx%d)", *nx, *ny)
	}
	if *resolution < 2 {
		return Config{}, fmt.Errorf("resolution must be >= 2 (got %d)", *resolution)
	}
	if !(*handleSize > 0) {
		return Config{}, fmt.Errorf("handle-size must be > 0 (got %g)", *handleSize)
	}
	if *script == "" && fs.NArg() > 0 {
		*script = fs.Arg(0)
	}

	cfg := Config{
		Window: Window{Width: *width, Height: *height},
		Scene: Scene{
			NX:          *nx,
			NY:          *ny,
			Resolution:  *resolution,
			HandleSize:  *handleSize,
			SeedPlane:   *seedPlane,
			EvalTimeout: *timeout,
		},
		Script:  *script,
		Logging: Logging{Debug: *debug},
	}
	return cfg, nil
}

// BaseScene returns the default scene with the configured overrides.
func (c Config) BaseScene() *scene.Scene {
	sc := scene.Default()
	sc.NX, sc.NY = c.Scene.NX, c.Scene.NY
	sc.ResolutionU, sc.ResolutionV = c.Scene.Resolution, c.Scene.Resolution
	sc.HandleSize = c.Scene.HandleSize
	if c.Scene.SeedPlane {
		p := grid.DefaultPlane
		sc.Plane = &p
	}
	return sc
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrFloat(env map[string]string, key string, fallback float64) float64 {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sculpt: %v\n", err)
		os.Exit(2)
	}
	return cfg
}
