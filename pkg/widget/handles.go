package widget

import (
	"math"

	"github.com/chazu/sculpt/pkg/grid"
	"github.com/chazu/sculpt/pkg/hull"
	"github.com/chazu/sculpt/pkg/interactor"
	"github.com/chazu/sculpt/pkg/logging"
	"github.com/chazu/sculpt/pkg/transform"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Handle is the draggable proxy of control point (I, J). Positions are in
// world space: Position is what is drawn, Committed is the world image of
// the control point as last read from the grid.
type Handle struct {
	I, J      int
	Position  v3.Vec
	Committed v3.Vec
}

// binding records what the handle set was built from.
// Versions only order changes within one grid or transform, so the
// identities are part of the key.
type binding struct {
	grid             *grid.ControlGrid
	gridVersion      uint64
	transform        *transform.Transform
	transformVersion uint64
	nx, ny           int
}

func (w *Widget) currentBinding() binding {
	g := w.source.ControlGrid()
	b := binding{grid: g, gridVersion: g.Version()}
	b.nx, b.ny = g.Dimensions()
	if t := w.source.Transform(); t != nil {
		b.transform = t
		b.transformVersion = t.Version()
	}
	return b
}

// sync rebuilds the handles if the grid or transform changed since the
// last rebuild. In-progress drags are left alone.
func (w *Widget) sync() {
	if w.source == nil || w.source.ControlGrid() == nil || w.state.Kind == Dragging {
		return
	}
	b := w.currentBinding()
	if w.handles != nil && b == w.bound {
		return
	}
	w.rebuild(b)
}

func (w *Widget) rebuild(b binding) {
	g := w.source.ControlGrid()
	if b.nx != w.bound.nx || b.ny != w.bound.ny || w.handles == nil {
		// Dimensions changed: indices held by the state may be stale.
		w.handles = make([]Handle, 0, g.Len())
		w.state = State{Kind: Idle, Handle: -1}
	} else {
		w.handles = w.handles[:0]
	}
	g.Each(func(i, j int, p v3.Vec) {
		world := w.source.ToWorld(p)
		w.handles = append(w.handles, Handle{I: i, J: j, Position: world, Committed: world})
	})
	w.bound = b
	w.updateHull()
	logging.For("widget").Debug("handles rebuilt", "nx", b.nx, "ny", b.ny, "version", b.gridVersion)
}

func (w *Widget) positions() []v3.Vec {
	pts := make([]v3.Vec, len(w.handles))
	for k, h := range w.handles {
		pts[k] = h.Position
	}
	return pts
}

func (w *Widget) updateHull() {
	h, err := hull.Compute(w.positions())
	if err != nil {
		logging.For("widget").Warn("hull update failed", "err", err)
		return
	}
	w.hull = h
}

// pick returns the handle whose pick sphere the ray enters first, or -1.
// Hits behind the ray origin are ignored.
func (w *Widget) pick(r interactor.Ray) int {
	best, bestT := -1, math.Inf(1)
	for k, h := range w.handles {
		t, ok := intersectSphere(r, h.Position, w.handleSize)
		if ok && t < bestT {
			best, bestT = k, t
		}
	}
	return best
}

func intersectSphere(r interactor.Ray, center v3.Vec, radius float64) (float64, bool) {
	oc := r.Origin.Sub(center)
	a := r.Direction.Dot(r.Direction)
	if a == 0 {
		return 0, false
	}
	b := 2 * r.Direction.Dot(oc)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	if t := (-b - sq) / (2 * a); t >= 0 {
		return t, true
	}
	// Origin inside the sphere.
	if t := (-b + sq) / (2 * a); t >= 0 {
		return t, true
	}
	return 0, false
}

// dragPoint intersects r with the plane through origin whose normal is the
// anchor ray direction.
func dragPoint(anchor interactor.Ray, origin v3.Vec, r interactor.Ray) (v3.Vec, bool) {
	n := anchor.Direction
	denom := n.Dot(r.Direction)
	if math.Abs(denom) < 1e-12 {
		return v3.Vec{}, false
	}
	t := n.Dot(origin.Sub(r.Origin)) / denom
	if t < 0 {
		return v3.Vec{}, false
	}
	return r.At(t), true
}

// ControlNet returns the grid-adjacent handle pairs: (i, j)–(i+1, j) and
// (i, j)–(i, j+1), as handle indices.
func (w *Widget) ControlNet() [][2]int {
	nx, ny := w.bound.nx, w.bound.ny
	if len(w.handles) != nx*ny {
		return nil
	}
	edges := make([][2]int, 0, (nx-1)*ny+nx*(ny-1))
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			k := i*ny + j
			if i+1 < nx {
				edges = append(edges, [2]int{k, k + ny})
			}
			if j+1 < ny {
				edges = append(edges, [2]int{k, k + 1})
			}
		}
	}
	return edges
}
