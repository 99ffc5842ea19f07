// Package scene describes a patch setup: grid size and layout, control
// point edits, the surface transform, the tessellation resolution and the
// handle size. Scenes are produced by evaluating a script and applied to
// a surface.Source and widget.Widget by the app.
package scene

import (
	"fmt"

	"github.com/chazu/sculpt/pkg/grid"
	"github.com/chazu/sculpt/pkg/surface"
	"github.com/chazu/sculpt/pkg/transform"
	"github.com/chazu/sculpt/pkg/widget"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// PointEdit overrides one control point after the grid is laid out and
// elevated. Later edits of the same point win.
type PointEdit struct {
	I, J  int
	Point v3.Vec
}

// Scene is a complete patch setup. The zero value is not usable; start
// from Default.
type Scene struct {
	Name string

	NX, NY int
	Bounds grid.Bounds
	// Plane, when set, replaces the flat layout over Bounds.
	Plane *grid.Plane

	ElevateU, ElevateV int
	Points             []PointEdit

	Translation v3.Vec
	Rotation    v3.Vec // degrees about X, Y, Z
	Scale       v3.Vec

	ResolutionU, ResolutionV int
	HandleSize               float64
}

// Default returns the scene of a fresh session: a flat 4×4 grid over
// [-1, 1]², identity transform, default resolution and handle size.
func Default() *Scene {
	return &Scene{
		NX:          grid.DefaultNX,
		NY:          grid.DefaultNY,
		Bounds:      grid.DefaultBounds,
		Scale:       v3.Vec{X: 1, Y: 1, Z: 1},
		ResolutionU: surface.DefaultResolution,
		ResolutionV: surface.DefaultResolution,
		HandleSize:  widget.DefaultHandleSize,
	}
}

// Dimensions returns the grid size after elevation.
func (s *Scene) Dimensions() (nx, ny int) {
	return s.NX + s.ElevateU, s.NY + s.ElevateV
}

// HasTransform reports whether the scene moves the patch off identity.
func (s *Scene) HasTransform() bool {
	return s.Translation != (v3.Vec{}) || s.Rotation != (v3.Vec{}) || s.Scale != (v3.Vec{X: 1, Y: 1, Z: 1})
}

// BuildGrid lays out, elevates and edits a new control grid.
func (s *Scene) BuildGrid() (*grid.ControlGrid, error) {
	var g *grid.ControlGrid
	var err error
	if s.Plane != nil {
		g, err = grid.NewFromSeed(s.NX, s.NY, *s.Plane)
	} else {
		g, err = grid.New(s.NX, s.NY, s.Bounds)
	}
	if err != nil {
		return nil, fmt.Errorf("scene: layout: %w", err)
	}
	if err := g.Elevate(s.ElevateU, s.ElevateV); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	for _, e := range s.Points {
		if err := g.SetPoint(e.I, e.J, e.Point); err != nil {
			return nil, fmt.Errorf("scene: point (%d, %d): %w", e.I, e.J, err)
		}
	}
	return g, nil
}

// BuildTransform returns the scene's transform, or nil for identity.
func (s *Scene) BuildTransform() (*transform.Transform, error) {
	if !s.HasTransform() {
		return nil, nil
	}
	t := transform.New()
	t.SetTranslation(s.Translation)
	t.SetRotation(s.Rotation)
	if err := t.SetScale(s.Scale); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	return t, nil
}

// Apply binds a freshly built grid and transform to src, sets its
// resolution and the widget's handle size, and re-evaluates. w may be
// nil. Nothing is changed when the scene fails to build.
func (s *Scene) Apply(src *surface.Source, w *widget.Widget) error {
	if s.ResolutionU < 2 || s.ResolutionV < 2 {
		return fmt.Errorf("scene: resolution %dx%d: %w", s.ResolutionU, s.ResolutionV, surface.ErrInvalidResolution)
	}
	if !(s.HandleSize > 0) {
		return fmt.Errorf("scene: handle size %g: %w", s.HandleSize, widget.ErrInvalidHandleSize)
	}
	g, err := s.BuildGrid()
	if err != nil {
		return err
	}
	t, err := s.BuildTransform()
	if err != nil {
		return err
	}

	if err := src.SetTransform(t); err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	if err := src.SetTessellationResolution(s.ResolutionU, s.ResolutionV); err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	src.SetControlGrid(g)
	if err := src.Update(); err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	if w == nil {
		return nil
	}
	if err := w.SetHandleSize(s.HandleSize); err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	return w.SetSource(src)
}
