package grid

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Seeder produces an initial row-major point sequence for an nx × ny grid.
type Seeder interface {
	SeedPoints(nx, ny int) ([]v3.Vec, error)
}

// Plane samples the parallelogram spanned by Origin, Point1 and Point2.
// Point1 is reached at i = nx-1, Point2 at j = ny-1.
type Plane struct {
	Origin v3.Vec
	Point1 v3.Vec
	Point2 v3.Vec
}

// DefaultPlane is a unit square centered on the origin in the XY plane.
var DefaultPlane = Plane{
	Origin: v3.Vec{X: -0.5, Y: -0.5},
	Point1: v3.Vec{X: 0.5, Y: -0.5},
	Point2: v3.Vec{X: -0.5, Y: 0.5},
}

// SeedPoints implements Seeder.
func (p Plane) SeedPoints(nx, ny int) ([]v3.Vec, error) {
	if err := checkDimensions(nx, ny); err != nil {
		return nil, err
	}
	axis1 := p.Point1.Sub(p.Origin)
	axis2 := p.Point2.Sub(p.Origin)
	if axis1.Cross(axis2).Length() == 0 {
		return nil, fmt.Errorf("grid: plane axes are parallel or zero")
	}
	pts := make([]v3.Vec, 0, nx*ny)
	for i := 0; i < nx; i++ {
		s := float64(i) / float64(nx-1)
		for j := 0; j < ny; j++ {
			t := float64(j) / float64(ny-1)
			pts = append(pts, p.Origin.Add(axis1.MulScalar(s)).Add(axis2.MulScalar(t)))
		}
	}
	return pts, nil
}

// NewFromSeed builds a grid from the points produced by s.
func NewFromSeed(nx, ny int, s Seeder) (*ControlGrid, error) {
	pts, err := s.SeedPoints(nx, ny)
	if err != nil {
		return nil, err
	}
	return NewFromPoints(nx, ny, pts)
}
