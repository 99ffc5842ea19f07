// Package surface evaluates tensor-product Bézier patches.
//
// A Source binds a grid.ControlGrid and an optional transform.Transform and
// produces a Tessellation on demand. Evaluation is lazy: setters only
// record inputs, and Update recomputes when the grid version, transform
// version or resolution differ from those of the last published output.
//
// A Source is not safe for concurrent mutation. GetOutput may be called
// from any goroutine; it always returns a complete Tessellation.
package surface

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/chazu/sculpt/pkg/grid"
	"github.com/chazu/sculpt/pkg/logging"
	"github.com/chazu/sculpt/pkg/transform"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultResolution is the number of samples per parametric axis.
const DefaultResolution = 20

var (
	// ErrNotYetEvaluated is returned by GetOutput before the first Update.
	ErrNotYetEvaluated = errors.New("not yet evaluated")
	// ErrNoControlGrid is returned by operations that need a bound grid.
	ErrNoControlGrid = errors.New("no control grid bound")
	// ErrInvalidResolution is returned for fewer than 2 samples on an axis.
	ErrInvalidResolution = errors.New("invalid tessellation resolution")
)

// Source is the surface evaluator.
type Source struct {
	grid      *grid.ControlGrid
	transform *transform.Transform
	resU      int
	resV      int

	output atomic.Pointer[Tessellation]
}

// NewSource returns an evaluator with no grid bound.
func NewSource() *Source {
	return &Source{resU: DefaultResolution, resV: DefaultResolution}
}

// NewDefault returns an evaluator that owns a default 4×4 grid over
// [-1, 1]², ready for Update.
func NewDefault() *Source {
	s := NewSource()
	s.grid = grid.NewDefault()
	return s
}

// SetControlGrid binds g by reference. The caller keeps ownership; edits
// made to g directly are picked up by the next Update. A nil grid unbinds.
func (s *Source) SetControlGrid(g *grid.ControlGrid) {
	s.grid = g
}

// ControlGrid returns the bound grid, or nil.
func (s *Source) ControlGrid() *grid.ControlGrid {
	return s.grid
}

// SetNumberOfControlPoints resizes the bound grid, keeping the points
// whose indices remain valid.
func (s *Source) SetNumberOfControlPoints(nx, ny int) error {
	if s.grid == nil {
		return fmt.Errorf("surface: resize: %w", ErrNoControlGrid)
	}
	return s.grid.Resize(nx, ny)
}

// SetControlPoint writes one control point in local space.
func (s *Source) SetControlPoint(i, j int, p v3.Vec) error {
	if s.grid == nil {
		return fmt.Errorf("surface: set point: %w", ErrNoControlGrid)
	}
	return s.grid.SetPoint(i, j, p)
}

// ControlPoint reads one control point in local space.
func (s *Source) ControlPoint(i, j int) (v3.Vec, error) {
	if s.grid == nil {
		return v3.Vec{}, fmt.Errorf("surface: get point: %w", ErrNoControlGrid)
	}
	return s.grid.Point(i, j)
}

// SetBounds reinitializes the bound grid to a flat layout over the given
// extent at z = 0, keeping its dimensions.
func (s *Source) SetBounds(xmin, xmax, ymin, ymax float64) error {
	if s.grid == nil {
		return fmt.Errorf("surface: set bounds: %w", ErrNoControlGrid)
	}
	nx, ny := s.grid.Dimensions()
	return s.grid.Reset(nx, ny, grid.Bounds{XMin: xmin, XMax: xmax, YMin: ymin, YMax: ymax})
}

// SetTransform stores t by reference. nil means identity. A singular
// transform is rejected and the previous one kept.
func (s *Source) SetTransform(t *transform.Transform) error {
	if t != nil && !t.Invertible() {
		return fmt.Errorf("surface: set transform: %w", transform.ErrNotInvertible)
	}
	s.transform = t
	return nil
}

// Transform returns the stored transform, or nil for identity.
func (s *Source) Transform() *transform.Transform {
	return s.transform
}

// SetTessellationResolution sets the number of samples along u and v.
func (s *Source) SetTessellationResolution(u, v int) error {
	if u < 2 || v < 2 {
		return fmt.Errorf("surface: resolution %dx%d: %w", u, v, ErrInvalidResolution)
	}
	s.resU, s.resV = u, v
	return nil
}

// Resolution returns the sample counts along u and v.
func (s *Source) Resolution() (u, v int) {
	return s.resU, s.resV
}

// ToWorld maps a local point through the stored transform.
func (s *Source) ToWorld(p v3.Vec) v3.Vec {
	if s.transform == nil {
		return p
	}
	return s.transform.Apply(p)
}

// ToLocal maps a world point back through the stored transform.
func (s *Source) ToLocal(p v3.Vec) v3.Vec {
	if s.transform == nil {
		return p
	}
	return s.transform.ApplyInverse(p)
}

func (s *Source) currentInputs() inputs {
	in := inputs{
		grid:        s.grid,
		gridVersion: s.grid.Version(),
		transform:   s.transform,
		u:           s.resU,
		v:           s.resV,
	}
	if s.transform != nil {
		in.transformVersion = s.transform.Version()
	}
	return in
}

// Modified reports whether the next Update would recompute.
func (s *Source) Modified() bool {
	if s.grid == nil {
		return false
	}
	prev := s.output.Load()
	return prev == nil || prev.key != s.currentInputs()
}

// Update recomputes the tessellation if any input changed since the last
// call. The new tessellation is published atomically.
func (s *Source) Update() error {
	ev, err := s.evaluator("update")
	if err != nil {
		return err
	}
	in := s.currentInputs()
	prev := s.output.Load()
	if prev != nil && prev.key == in {
		return nil
	}

	nx, ny := s.grid.Dimensions()
	points := make([]v3.Vec, in.u*in.v)
	for a := 0; a < in.u; a++ {
		u := float64(a) / float64(in.u-1)
		for b := 0; b < in.v; b++ {
			v := float64(b) / float64(in.v-1)
			points[a*in.v+b] = s.ToWorld(ev.at(u, v))
		}
	}

	var quads [][4]uint32
	var tris [][3]uint32
	if prev != nil && prev.U == in.u && prev.V == in.v {
		quads, tris = prev.Quads, prev.Triangles
	} else {
		quads, tris = connectivity(in.u, in.v)
	}

	s.output.Store(&Tessellation{
		U:         in.u,
		V:         in.v,
		Points:    points,
		Normals:   vertexNormals(points, tris),
		Quads:     quads,
		Triangles: tris,
		key:       in,
	})
	logging.For("surface").Debug("tessellated",
		"grid", fmt.Sprintf("%dx%d", nx, ny),
		"resolution", fmt.Sprintf("%dx%d", in.u, in.v),
		"version", in.gridVersion)
	return nil
}

// GetOutput returns the most recently published tessellation.
func (s *Source) GetOutput() (*Tessellation, error) {
	t := s.output.Load()
	if t == nil {
		return nil, ErrNotYetEvaluated
	}
	return t, nil
}

// Evaluate returns the world-space surface point at (u, v) from the
// current grid, independent of the cached tessellation.
func (s *Source) Evaluate(u, v float64) (v3.Vec, error) {
	ev, err := s.evaluator("evaluate")
	if err != nil {
		return v3.Vec{}, err
	}
	return s.ToWorld(ev.at(u, v)), nil
}

// Normal returns the world-space unit normal at (u, v). Where the patch is
// degenerate the zero vector is returned.
func (s *Source) Normal(u, v float64) (v3.Vec, error) {
	ev, err := s.evaluator("normal")
	if err != nil {
		return v3.Vec{}, err
	}
	p := ev.at(u, v)
	du, dv := ev.derivatives(u, v)
	origin := s.ToWorld(p)
	n := s.ToWorld(p.Add(du)).Sub(origin).Cross(s.ToWorld(p.Add(dv)).Sub(origin))
	l := n.Length()
	if l == 0 {
		return v3.Vec{}, nil
	}
	return n.MulScalar(1 / l), nil
}

// evaluator snapshots the bound grid. Grids that were never laid out, such
// as a zero ControlGrid, are rejected.
func (s *Source) evaluator(op string) (*evaluator, error) {
	if s.grid == nil {
		return nil, fmt.Errorf("surface: %s: %w", op, ErrNoControlGrid)
	}
	nx, ny := s.grid.Dimensions()
	if nx < 2 || ny < 2 {
		return nil, fmt.Errorf("surface: %s: %dx%d grid: %w", op, nx, ny, grid.ErrInvalidDimensions)
	}
	return newEvaluator(nx, ny, s.grid.Points()), nil
}
