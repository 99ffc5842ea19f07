// Package app wires a scene script, a surface evaluator and the control
// point widget into one headless session. It owns the event dispatcher
// and camera, and exports each frame as colored meshes for any renderer.
package app

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chazu/sculpt/pkg/camera"
	"github.com/chazu/sculpt/pkg/engine"
	"github.com/chazu/sculpt/pkg/interactor"
	"github.com/chazu/sculpt/pkg/kernel"
	"github.com/chazu/sculpt/pkg/kernel/sdfx"
	"github.com/chazu/sculpt/pkg/logging"
	"github.com/chazu/sculpt/pkg/palette"
	"github.com/chazu/sculpt/pkg/scene"
	"github.com/chazu/sculpt/pkg/surface"
	"github.com/chazu/sculpt/pkg/tessellate"
	"github.com/chazu/sculpt/pkg/widget"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Degrees of orbit per pixel of right-drag.
const orbitSpeed = 0.3

// Config holds the session setup.
type Config struct {
	Width, Height int
	// Base is the scene used before any script is loaded and the starting
	// point for scripts. nil means scene.Default.
	Base        *scene.Scene
	EvalTimeout time.Duration
	// Kernel meshes the handle glyphs. nil means the sdfx kernel.
	Kernel kernel.Kernel
}

// MeshData is the JSON-serializable mesh format handed to renderers.
type MeshData struct {
	Vertices []float32  `json:"vertices"`
	Normals  []float32  `json:"normals"`
	Indices  []uint32   `json:"indices"`
	Lines    []uint32   `json:"lines"`
	PartName string     `json:"partName"`
	Color    [4]float32 `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the outcome of loading a script.
type EvalResult struct {
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// App is one editing session.
type App struct {
	engine  *engine.Engine
	glyphs  *tessellate.Glyphs
	palette palette.Palette

	base   *scene.Scene
	scene  *scene.Scene
	source *surface.Source
	widget *widget.Widget
	events *interactor.Dispatcher
	camera *camera.Camera

	wireframe    bool
	orbiting     bool
	lastX, lastY float64
}

// New builds a session showing the base scene with the widget on.
func New(cfg Config) (*App, error) {
	k := cfg.Kernel
	if k == nil {
		k = sdfx.New()
	}
	glyphs, err := tessellate.NewGlyphs(k)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	base := cfg.Base
	if base == nil {
		base = scene.Default()
	}

	a := &App{
		engine:  engine.NewEngine(),
		glyphs:  glyphs,
		palette: palette.Default(),
		base:    base,
		source:  surface.NewDefault(),
		widget:  widget.New(),
		events:  interactor.NewDispatcher(),
		camera:  camera.New(cfg.Width, cfg.Height),
	}
	a.engine.SetTimeout(cfg.EvalTimeout)
	a.widget.SetInteractor(a.events)
	if err := a.apply(base); err != nil {
		return nil, err
	}
	if err := a.widget.On(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return a, nil
}

func (a *App) apply(sc *scene.Scene) error {
	if err := sc.Apply(a.source, a.widget); err != nil {
		return fmt.Errorf("app: apply scene: %w", err)
	}
	a.scene = sc
	a.frameCamera()
	logging.For("app").Info("scene applied", "name", sc.Name, "nx", sc.NX, "ny", sc.NY)
	return nil
}

// frameCamera fits the world-space handles in view.
func (a *App) frameCamera() {
	handles := a.widget.Handles()
	if len(handles) == 0 {
		return
	}
	lo, hi := handles[0].Position, handles[0].Position
	for _, h := range handles[1:] {
		p := h.Position
		lo = v3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = v3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	a.camera.Frame(lo, hi)
}

// Load evaluates a scene script and, on success, replaces the session's
// grid, transform and display settings. On failure the session is left
// unchanged and the errors are returned.
func (a *App) Load(source string) EvalResult {
	result := EvalResult{
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
	log := logging.For("app")

	res, err := a.engine.EvaluateResult(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Error("evaluate failed", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, e := range res.Errors {
		result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
	}
	if len(result.Errors) > 0 {
		return result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.String()})
	}
	if err := a.apply(res.Scene); err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
	}
	return result
}

// Frame returns the meshes to draw, each with its part color.
func (a *App) Frame() ([]MeshData, error) {
	meshes, err := tessellate.Tessellate(a.source, a.widget, a.glyphs, tessellate.Options{Wireframe: a.wireframe})
	if err != nil {
		return nil, fmt.Errorf("app: frame: %w", err)
	}
	out := make([]MeshData, 0, len(meshes))
	for _, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Lines:    m.Lines,
			PartName: m.PartName,
			Color:    palette.Float32(a.palette.For(m.PartName)),
		})
	}
	return out, nil
}

// Background returns the clear color.
func (a *App) Background() [4]float32 {
	return palette.Float32(a.palette.Background)
}

// Source returns the surface evaluator.
func (a *App) Source() *surface.Source { return a.source }

// Widget returns the control point widget.
func (a *App) Widget() *widget.Widget { return a.widget }

// Camera returns the view camera.
func (a *App) Camera() *camera.Camera { return a.camera }

// Scene returns the scene last applied.
func (a *App) Scene() *scene.Scene { return a.scene }

// Resize updates the viewport.
func (a *App) Resize(width, height int) {
	a.camera.SetViewport(width, height)
}

// MouseMove handles a cursor move to screen position (x, y).
func (a *App) MouseMove(x, y float64) {
	dx, dy := x-a.lastX, y-a.lastY
	a.lastX, a.lastY = x, y
	if a.orbiting {
		a.camera.Orbit(-dx*orbitSpeed, dy*orbitSpeed)
		return
	}
	a.events.Dispatch(interactor.Event{Type: interactor.Move, Ray: a.camera.Ray(x, y), X: x, Y: y})
}

// MouseButton handles a button press or release at (x, y). Presses the
// widget does not consume start an orbit when made with the right button.
func (a *App) MouseButton(b interactor.Button, pressed bool, x, y float64) {
	a.lastX, a.lastY = x, y
	typ := interactor.ButtonUp
	if pressed {
		typ = interactor.ButtonDown
	}
	consumed := a.events.Dispatch(interactor.Event{Type: typ, Button: b, Ray: a.camera.Ray(x, y), X: x, Y: y})
	if b != interactor.ButtonRight {
		return
	}
	a.orbiting = pressed && !consumed
}

// Scroll zooms the camera.
func (a *App) Scroll(dy float64) {
	a.camera.Zoom(dy)
}

// ToggleWidget turns the widget on or off.
func (a *App) ToggleWidget() error {
	if a.widget.Enabled() {
		return a.widget.Off()
	}
	return a.widget.On()
}

// ToggleWireframe switches the surface between shaded and wireframe.
func (a *App) ToggleWireframe() {
	a.wireframe = !a.wireframe
}

// Wireframe reports whether the surface is drawn as a wireframe.
func (a *App) Wireframe() bool {
	return a.wireframe
}

// ResetBounds lays the grid flat over the scene's bounds again, keeping
// its dimensions and discarding point edits.
func (a *App) ResetBounds() error {
	b := a.scene.Bounds
	if err := a.source.SetBounds(b.XMin, b.XMax, b.YMin, b.YMax); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := a.source.Update(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.frameCamera()
	return nil
}

// AdjustResolution changes the tessellation resolution on both axes by
// delta, never below 2 samples.
func (a *App) AdjustResolution(delta int) error {
	u, v := a.source.Resolution()
	u, v = max(u+delta, 2), max(v+delta, 2)
	if err := a.source.SetTessellationResolution(u, v); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	logging.For("app").Debug("resolution", "u", u, "v", v)
	return a.source.Update()
}

// Status is a one-line summary of the session for window titles.
func (a *App) Status() string {
	var b strings.Builder
	name := a.scene.Name
	if name == "" {
		name = "untitled"
	}
	nx, ny := a.source.ControlGrid().Dimensions()
	u, v := a.source.Resolution()
	fmt.Fprintf(&b, "%s: %dx%d points, %dx%d samples", name, nx, ny, u, v)
	handles := a.widget.Handles()
	st := a.widget.State()
	if st.Kind != widget.Idle && st.Handle >= 0 && st.Handle < len(handles) {
		h := handles[st.Handle]
		fmt.Fprintf(&b, ", %s (%d, %d)", st.Kind, h.I, h.J)
	}
	return b.String()
}
