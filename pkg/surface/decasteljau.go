package surface

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// lerp returns (1-t)·a + t·b. Equal endpoints are returned unchanged so
// constant control data is reproduced bit for bit.
func lerp(a, b v3.Vec, t float64) v3.Vec {
	if a == b {
		return a
	}
	return a.MulScalar(1 - t).Add(b.MulScalar(t))
}

// collapse evaluates the Bézier curve with control points pts at t. pts
// is used as scratch space and is overwritten.
func collapse(pts []v3.Vec, t float64) v3.Vec {
	for n := len(pts) - 1; n > 0; n-- {
		for k := 0; k < n; k++ {
			pts[k] = lerp(pts[k], pts[k+1], t)
		}
	}
	return pts[0]
}

// evaluator holds scratch buffers for repeated patch evaluation.
type evaluator struct {
	nx, ny int
	points []v3.Vec // row-major, i*ny + j
	row    []v3.Vec
	col    []v3.Vec
}

func newEvaluator(nx, ny int, points []v3.Vec) *evaluator {
	return &evaluator{
		nx:     nx,
		ny:     ny,
		points: points,
		row:    make([]v3.Vec, nx),
		col:    make([]v3.Vec, ny),
	}
}

// at evaluates the patch at (u, v): each column of constant j is collapsed
// along u, then the ny results are collapsed along v.
func (e *evaluator) at(u, v float64) v3.Vec {
	for j := 0; j < e.ny; j++ {
		for i := 0; i < e.nx; i++ {
			e.row[i] = e.points[i*e.ny+j]
		}
		e.col[j] = collapse(e.row, u)
	}
	return collapse(e.col, v)
}

// derivatives returns the partial derivatives of the patch at (u, v),
// from the hodograph control points.
func (e *evaluator) derivatives(u, v float64) (du, dv v3.Vec) {
	if e.nx > 1 {
		hodo := make([]v3.Vec, (e.nx-1)*e.ny)
		for i := 0; i < e.nx-1; i++ {
			for j := 0; j < e.ny; j++ {
				d := e.points[(i+1)*e.ny+j].Sub(e.points[i*e.ny+j])
				hodo[i*e.ny+j] = d.MulScalar(float64(e.nx - 1))
			}
		}
		du = newEvaluator(e.nx-1, e.ny, hodo).at(u, v)
	}
	if e.ny > 1 {
		hodo := make([]v3.Vec, e.nx*(e.ny-1))
		for i := 0; i < e.nx; i++ {
			for j := 0; j < e.ny-1; j++ {
				d := e.points[i*e.ny+j+1].Sub(e.points[i*e.ny+j])
				hodo[i*(e.ny-1)+j] = d.MulScalar(float64(e.ny - 1))
			}
		}
		dv = newEvaluator(e.nx, e.ny-1, hodo).at(u, v)
	}
	return du, dv
}
