// Package grid holds the control points of a tensor-product Bézier patch.
//
// A ControlGrid owns nx × ny points addressed by (i, j) with i in [0, nx)
// along the u direction and j in [0, ny) along v. Points are stored and
// iterated row-major: index = i*ny + j. Every successful mutation bumps a
// version counter so that observers can detect edits without callbacks.
package grid

import (
	"errors"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Default grid size, matching a bicubic patch.
const (
	DefaultNX = 4
	DefaultNY = 4
)

var (
	// ErrInvalidDimensions is returned for point counts below 2 in either direction.
	ErrInvalidDimensions = errors.New("invalid dimensions")
	// ErrIndexOutOfRange is returned when (i, j) lies outside the grid.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrSeedMismatch is returned when seed geometry does not supply nx*ny points.
	ErrSeedMismatch = errors.New("seed point count mismatch")
)

// Bounds is a rectangular extent in the patch's local XY plane.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// DefaultBounds spans [-1, 1] in both directions.
var DefaultBounds = Bounds{XMin: -1, XMax: 1, YMin: -1, YMax: 1}

// ControlGrid is the arena of control points for one patch. Build grids
// with New, NewFromPoints or NewFromSeed; the zero value has no points.
type ControlGrid struct {
	nx, ny  int
	points  []v3.Vec
	version uint64
}

// New returns an nx × ny grid laid out flat over b at z = 0.
func New(nx, ny int, b Bounds) (*ControlGrid, error) {
	g := &ControlGrid{}
	if err := g.Reset(nx, ny, b); err != nil {
		return nil, err
	}
	return g, nil
}

// NewDefault returns a DefaultNX × DefaultNY grid over DefaultBounds.
func NewDefault() *ControlGrid {
	g, err := New(DefaultNX, DefaultNY, DefaultBounds)
	if err != nil {
		panic(fmt.Sprintf("grid: default grid: %v", err))
	}
	return g
}

// NewFromPoints builds a grid from a row-major point sequence.
func NewFromPoints(nx, ny int, pts []v3.Vec) (*ControlGrid, error) {
	if err := checkDimensions(nx, ny); err != nil {
		return nil, err
	}
	if len(pts) != nx*ny {
		return nil, fmt.Errorf("grid: %d points for %dx%d grid: %w", len(pts), nx, ny, ErrSeedMismatch)
	}
	return &ControlGrid{
		nx:      nx,
		ny:      ny,
		points:  append([]v3.Vec(nil), pts...),
		version: 1,
	}, nil
}

func checkDimensions(nx, ny int) error {
	if nx < 2 || ny < 2 {
		return fmt.Errorf("grid: %dx%d: %w", nx, ny, ErrInvalidDimensions)
	}
	return nil
}

// Dimensions returns the point counts along u and v.
func (g *ControlGrid) Dimensions() (nx, ny int) {
	return g.nx, g.ny
}

// Len returns the total number of control points.
func (g *ControlGrid) Len() int {
	return len(g.points)
}

// Version changes every time the grid is mutated.
func (g *ControlGrid) Version() uint64 {
	return g.version
}

// Index returns the row-major position of (i, j).
func (g *ControlGrid) Index(i, j int) (int, error) {
	if i < 0 || i >= g.nx || j < 0 || j >= g.ny {
		return 0, fmt.Errorf("grid: (%d, %d) outside %dx%d: %w", i, j, g.nx, g.ny, ErrIndexOutOfRange)
	}
	return i*g.ny + j, nil
}

// Coords is the inverse of Index.
func (g *ControlGrid) Coords(k int) (i, j int) {
	return k / g.ny, k % g.ny
}

// Point returns the control point at (i, j).
func (g *ControlGrid) Point(i, j int) (v3.Vec, error) {
	k, err := g.Index(i, j)
	if err != nil {
		return v3.Vec{}, err
	}
	return g.points[k], nil
}

// SetPoint overwrites the control point at (i, j).
func (g *ControlGrid) SetPoint(i, j int, p v3.Vec) error {
	k, err := g.Index(i, j)
	if err != nil {
		return err
	}
	g.points[k] = p
	g.version++
	return nil
}

// Points returns a row-major copy of all control points.
func (g *ControlGrid) Points() []v3.Vec {
	return append([]v3.Vec(nil), g.points...)
}

// Each calls fn for every control point in row-major order.
func (g *ControlGrid) Each(fn func(i, j int, p v3.Vec)) {
	for k, p := range g.points {
		i, j := g.Coords(k)
		fn(i, j, p)
	}
}

// Extent returns the axis-aligned bounding box of the control points.
func (g *ControlGrid) Extent() (min, max v3.Vec) {
	if len(g.points) == 0 {
		return v3.Vec{}, v3.Vec{}
	}
	min, max = g.points[0], g.points[0]
	for _, p := range g.points[1:] {
		min = v3.Vec{X: minf(min.X, p.X), Y: minf(min.Y, p.Y), Z: minf(min.Z, p.Z)}
		max = v3.Vec{X: maxf(max.X, p.X), Y: maxf(max.Y, p.Y), Z: maxf(max.Z, p.Z)}
	}
	return min, max
}

// Reset reinitializes the grid to nx × ny points spaced evenly over b at
// z = 0. All previous edits are discarded.
func (g *ControlGrid) Reset(nx, ny int, b Bounds) error {
	if err := checkDimensions(nx, ny); err != nil {
		return err
	}
	points := make([]v3.Vec, nx*ny)
	for i := 0; i < nx; i++ {
		x := b.XMin + (b.XMax-b.XMin)*float64(i)/float64(nx-1)
		for j := 0; j < ny; j++ {
			y := b.YMin + (b.YMax-b.YMin)*float64(j)/float64(ny-1)
			points[i*ny+j] = v3.Vec{X: x, Y: y, Z: 0}
		}
	}
	g.nx, g.ny = nx, ny
	g.points = points
	g.version++
	return nil
}

// Resize changes the point counts while keeping every point whose (i, j)
// is still in range. New rows and columns continue the grid linearly: a
// point k steps past the last row is last + k*(last - secondToLast), and
// likewise for columns. Shrinking drops the trailing rows and columns.
func (g *ControlGrid) Resize(nx, ny int) error {
	if err := checkDimensions(nx, ny); err != nil {
		return err
	}
	if nx == g.nx && ny == g.ny {
		return nil
	}
	points := make([]v3.Vec, nx*ny)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			points[i*ny+j] = g.extrapolate(i, j)
		}
	}
	g.nx, g.ny = nx, ny
	g.points = points
	g.version++
	return nil
}

func (g *ControlGrid) at(i, j int) v3.Vec {
	return g.points[i*g.ny+j]
}

// extrapolate returns the point at (i, j) of the linearly extended grid.
func (g *ControlGrid) extrapolate(i, j int) v3.Vec {
	ci, cj := i, j
	if ci >= g.nx {
		ci = g.nx - 1
	}
	if cj >= g.ny {
		cj = g.ny - 1
	}
	p := g.at(ci, cj)
	if di := i - ci; di > 0 {
		step := g.at(g.nx-1, cj).Sub(g.at(g.nx-2, cj))
		p = p.Add(step.MulScalar(float64(di)))
	}
	if dj := j - cj; dj > 0 {
		step := g.at(ci, g.ny-1).Sub(g.at(ci, g.ny-2))
		p = p.Add(step.MulScalar(float64(dj)))
	}
	return p
}

// Elevate raises the patch degree by du along u and dv along v. The
// surface described by the grid does not change; only the number of
// control points grows.
func (g *ControlGrid) Elevate(du, dv int) error {
	if du < 0 || dv < 0 {
		return fmt.Errorf("grid: elevate by (%d, %d): %w", du, dv, ErrInvalidDimensions)
	}
	if du == 0 && dv == 0 {
		return nil
	}
	nx, ny := g.nx, g.ny
	points := g.Points()
	for ; du > 0; du-- {
		points = elevateU(points, nx, ny)
		nx++
	}
	for ; dv > 0; dv-- {
		points = elevateV(points, nx, ny)
		ny++
	}
	g.nx, g.ny = nx, ny
	g.points = points
	g.version++
	return nil
}

// elevateU adds one row along u: Q_k = a*P_{k-1} + (1-a)*P_k, a = k/n.
func elevateU(p []v3.Vec, nx, ny int) []v3.Vec {
	n := float64(nx)
	q := make([]v3.Vec, (nx+1)*ny)
	for j := 0; j < ny; j++ {
		q[j] = p[j]
		q[nx*ny+j] = p[(nx-1)*ny+j]
		for k := 1; k < nx; k++ {
			a := float64(k) / n
			q[k*ny+j] = p[(k-1)*ny+j].MulScalar(a).Add(p[k*ny+j].MulScalar(1 - a))
		}
	}
	return q
}

// elevateV adds one column along v.
func elevateV(p []v3.Vec, nx, ny int) []v3.Vec {
	n := float64(ny)
	nny := ny + 1
	q := make([]v3.Vec, nx*nny)
	for i := 0; i < nx; i++ {
		q[i*nny] = p[i*ny]
		q[i*nny+ny] = p[i*ny+ny-1]
		for k := 1; k < ny; k++ {
			a := float64(k) / n
			q[i*nny+k] = p[i*ny+k-1].MulScalar(a).Add(p[i*ny+k].MulScalar(1 - a))
		}
	}
	return q
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
