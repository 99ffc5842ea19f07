package surface

import (
	"github.com/chazu/sculpt/pkg/grid"
	"github.com/chazu/sculpt/pkg/kernel"
	"github.com/chazu/sculpt/pkg/transform"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Tessellation is a sampled patch: a U × V lattice of world-space points
// over fixed quad connectivity. Sample (a, b) is at parameter
// (a/(U-1), b/(V-1)) and stored at index a*V + b.
//
// A published Tessellation is never modified. Quads and Triangles are
// shared between tessellations of the same resolution.
type Tessellation struct {
	U, V      int
	Points    []v3.Vec
	Normals   []v3.Vec
	Quads     [][4]uint32
	Triangles [][3]uint32

	key inputs
}

// inputs identifies what a tessellation was computed from.
type inputs struct {
	grid             *grid.ControlGrid
	gridVersion      uint64
	transform        *transform.Transform
	transformVersion uint64
	u, v             int
}

// Len returns the number of sample points.
func (t *Tessellation) Len() int {
	return len(t.Points)
}

// Point returns sample (a, b).
func (t *Tessellation) Point(a, b int) v3.Vec {
	return t.Points[a*t.V+b]
}

// GridVersion is the control grid version the samples were computed from.
func (t *Tessellation) GridVersion() uint64 {
	return t.key.gridVersion
}

// FaceNormal returns the unit normal of triangle k, or the zero vector for
// a degenerate triangle.
func (t *Tessellation) FaceNormal(k int) v3.Vec {
	tri := t.Triangles[k]
	a, b, c := t.Points[tri[0]], t.Points[tri[1]], t.Points[tri[2]]
	if b.Sub(a).Cross(c.Sub(a)).Length() == 0 {
		return v3.Vec{}
	}
	face := sdf.Triangle3{a, b, c}
	return face.Normal()
}

// Mesh flattens the tessellation into a renderable triangle mesh.
func (t *Tessellation) Mesh() *kernel.Mesh {
	m := &kernel.Mesh{
		Vertices: make([]float32, 0, 3*len(t.Points)),
		Normals:  make([]float32, 0, 3*len(t.Normals)),
		Indices:  make([]uint32, 0, 3*len(t.Triangles)),
		PartName: "surface",
	}
	for k, p := range t.Points {
		n := t.Normals[k]
		m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	for _, tri := range t.Triangles {
		m.Indices = append(m.Indices, tri[0], tri[1], tri[2])
	}
	return m
}

// connectivity builds the quads and triangles of a u × v lattice.
func connectivity(u, v int) ([][4]uint32, [][3]uint32) {
	quads := make([][4]uint32, 0, (u-1)*(v-1))
	tris := make([][3]uint32, 0, 2*(u-1)*(v-1))
	idx := func(a, b int) uint32 { return uint32(a*v + b) }
	for a := 0; a < u-1; a++ {
		for b := 0; b < v-1; b++ {
			q := [4]uint32{idx(a, b), idx(a+1, b), idx(a+1, b+1), idx(a, b+1)}
			quads = append(quads, q)
			tris = append(tris, [3]uint32{q[0], q[1], q[2]}, [3]uint32{q[0], q[2], q[3]})
		}
	}
	return quads, tris
}

// vertexNormals averages the area-weighted face normals around each vertex.
// Vertices whose faces are all degenerate get +Z.
func vertexNormals(points []v3.Vec, tris [][3]uint32) []v3.Vec {
	acc := make([]v3.Vec, len(points))
	for _, tri := range tris {
		a, b, c := points[tri[0]], points[tri[1]], points[tri[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		for _, k := range tri {
			acc[k] = acc[k].Add(n)
		}
	}
	for k, n := range acc {
		if l := n.Length(); l > 0 {
			acc[k] = n.MulScalar(1 / l)
		} else {
			acc[k] = v3.Vec{Z: 1}
		}
	}
	return acc
}
