// Package hull computes the convex hull guide that encloses the widget's
// handles.
//
// Compute handles every degenerate configuration a control grid can take:
// all points coincident, collinear, coplanar (the common case of a flat
// grid) or in general position. Triangles and edges index into the input
// slice so callers can map hull vertices back to handles.
package hull

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/sculpt/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/rclancey/earcut"
)

// Kind describes the dimension of a hull.
type Kind int

const (
	Empty Kind = iota
	Point
	Segment
	Planar
	Solid
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Point:
		return "point"
	case Segment:
		return "segment"
	case Planar:
		return "planar"
	case Solid:
		return "solid"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Hull is the convex hull of a point set.
type Hull struct {
	Kind   Kind
	Points []v3.Vec

	// Triangles are outward-facing for Solid hulls and follow the plane
	// normal (p1-p0)×(p2-p0) of the first three extreme points for Planar.
	Triangles [][3]int

	// Outline is the boundary loop for Planar hulls, the two endpoints for
	// Segment and the single vertex for Point.
	Outline []int
}

// relTolerance scales with the extent of the input.
const relTolerance = 1e-9

// Compute returns the convex hull of pts. The slice is retained.
func Compute(pts []v3.Vec) (*Hull, error) {
	h := &Hull{Points: pts}
	if len(pts) == 0 {
		return h, nil
	}
	eps := tolerance(pts)

	p0 := 0
	for k, p := range pts {
		if p.X < pts[p0].X || (p.X == pts[p0].X && p.Y < pts[p0].Y) ||
			(p.X == pts[p0].X && p.Y == pts[p0].Y && p.Z < pts[p0].Z) {
			p0 = k
		}
	}
	p1 := farthest(pts, func(p v3.Vec) float64 { return p.Sub(pts[p0]).Length() })
	if pts[p1].Sub(pts[p0]).Length() <= eps {
		h.Kind = Point
		h.Outline = []int{p0}
		return h, nil
	}
	// p0 need not be an endpoint of the segment; p1 is.
	p0 = farthest(pts, func(p v3.Vec) float64 { return p.Sub(pts[p1]).Length() })

	axis := pts[p1].Sub(pts[p0])
	p2 := farthest(pts, func(p v3.Vec) float64 { return axis.Cross(p.Sub(pts[p0])).Length() / axis.Length() })
	if axis.Cross(pts[p2].Sub(pts[p0])).Length()/axis.Length() <= eps {
		h.Kind = Segment
		h.Outline = []int{p0, p1}
		return h, nil
	}

	normal := unit(axis.Cross(pts[p2].Sub(pts[p0])))
	p3 := farthest(pts, func(p v3.Vec) float64 { return math.Abs(normal.Dot(p.Sub(pts[p0]))) })
	if math.Abs(normal.Dot(pts[p3].Sub(pts[p0]))) <= eps {
		return planar(h, pts[p0], normal, eps)
	}
	return solid(h, [4]int{p0, p1, p2, p3}, eps), nil
}

// Edges returns the unique undirected edges of the hull, each with the
// lower index first, in sorted order.
func (h *Hull) Edges() [][2]int {
	seen := make(map[[2]int]bool)
	add := func(a, b int) {
		if a > b {
			a, b = b, a
		}
		seen[[2]int{a, b}] = true
	}
	switch h.Kind {
	case Segment:
		add(h.Outline[0], h.Outline[1])
	case Planar:
		for k := range h.Outline {
			add(h.Outline[k], h.Outline[(k+1)%len(h.Outline)])
		}
	case Solid:
		for _, t := range h.Triangles {
			add(t[0], t[1])
			add(t[1], t[2])
			add(t[2], t[0])
		}
	}
	edges := make([][2]int, 0, len(seen))
	for e := range seen {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// Vertices returns the sorted indices of input points on the hull.
func (h *Hull) Vertices() []int {
	used := make(map[int]bool)
	for _, k := range h.Outline {
		used[k] = true
	}
	for _, t := range h.Triangles {
		used[t[0]], used[t[1]], used[t[2]] = true, true, true
	}
	out := make([]int, 0, len(used))
	for k := range used {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// Mesh returns a flat-shaded triangle mesh of the hull with its edges as
// line segments.
func (h *Hull) Mesh() *kernel.Mesh {
	m := &kernel.Mesh{PartName: "hull"}
	for _, t := range h.Triangles {
		a, b, c := h.Points[t[0]], h.Points[t[1]], h.Points[t[2]]
		n := unit(b.Sub(a).Cross(c.Sub(a)))
		base := uint32(m.VertexCount())
		for _, p := range [3]v3.Vec{a, b, c} {
			m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
			m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		}
		m.Indices = append(m.Indices, base, base+1, base+2)
	}
	for _, e := range h.Edges() {
		base := uint32(m.VertexCount())
		for _, k := range e {
			p := h.Points[k]
			m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
			m.Normals = append(m.Normals, 0, 0, 0)
		}
		m.Lines = append(m.Lines, base, base+1)
	}
	return m
}

func tolerance(pts []v3.Vec) float64 {
	min, max := pts[0], pts[0]
	for _, p := range pts[1:] {
		min = v3.Vec{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
		max = v3.Vec{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
	}
	return relTolerance * math.Max(1, max.Sub(min).Length())
}

func farthest(pts []v3.Vec, dist func(v3.Vec) float64) int {
	best, bestD := 0, -1.0
	for k, p := range pts {
		if d := dist(p); d > bestD {
			best, bestD = k, d
		}
	}
	return best
}

func unit(v v3.Vec) v3.Vec {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.MulScalar(1 / l)
}

// planar projects onto the plane through origin with the given normal,
// takes the 2D hull and triangulates it.
func planar(h *Hull, origin, normal v3.Vec, eps float64) (*Hull, error) {
	e1 := v3.Vec{X: 1}
	if math.Abs(normal.X) > 0.9 {
		e1 = v3.Vec{Y: 1}
	}
	e1 = unit(e1.Sub(normal.MulScalar(normal.Dot(e1))))
	e2 := normal.Cross(e1)

	flat := make([][2]float64, len(h.Points))
	for k, p := range h.Points {
		d := p.Sub(origin)
		flat[k] = [2]float64{d.Dot(e1), d.Dot(e2)}
	}
	loop := monotoneChain(flat, eps)

	coords := make([]float64, 0, 2*len(loop))
	for _, k := range loop {
		coords = append(coords, flat[k][0], flat[k][1])
	}
	tris, err := earcut.Earcut(coords, nil, 2)
	if err != nil {
		return nil, fmt.Errorf("hull: triangulate %d-vertex outline: %w", len(loop), err)
	}
	h.Kind = Planar
	h.Outline = loop
	for t := 0; t+2 < len(tris); t += 3 {
		a, b, c := loop[tris[t]], loop[tris[t+1]], loop[tris[t+2]]
		// earcut does not promise a winding; match the plane normal.
		if h.Points[b].Sub(h.Points[a]).Cross(h.Points[c].Sub(h.Points[a])).Dot(normal) < 0 {
			b, c = c, b
		}
		h.Triangles = append(h.Triangles, [3]int{a, b, c})
	}
	return h, nil
}

// monotoneChain returns the counter-clockwise 2D hull of pts as indices,
// dropping collinear boundary points.
func monotoneChain(pts [][2]float64, eps float64) []int {
	order := make([]int, len(pts))
	for k := range order {
		order[k] = k
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := pts[order[i]], pts[order[j]]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})
	cross := func(o, a, b int) float64 {
		return (pts[a][0]-pts[o][0])*(pts[b][1]-pts[o][1]) - (pts[a][1]-pts[o][1])*(pts[b][0]-pts[o][0])
	}
	area := eps * eps

	var lower, upper []int
	for _, k := range order {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], k) <= area {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, k)
	}
	for i := len(order) - 1; i >= 0; i-- {
		k := order[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], k) <= area {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, k)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

type face struct {
	v      [3]int
	normal v3.Vec
	offset float64
}

func newFace(pts []v3.Vec, a, b, c int) face {
	n := unit(pts[b].Sub(pts[a]).Cross(pts[c].Sub(pts[a])))
	return face{v: [3]int{a, b, c}, normal: n, offset: n.Dot(pts[a])}
}

func (f face) distance(p v3.Vec) float64 {
	return f.normal.Dot(p) - f.offset
}

// solid runs the incremental hull from the tetrahedron seed.
func solid(h *Hull, seed [4]int, eps float64) *Hull {
	pts := h.Points
	a, b, c, d := seed[0], seed[1], seed[2], seed[3]
	if newFace(pts, a, b, c).distance(pts[d]) > 0 {
		b, c = c, b
	}
	faces := []face{
		newFace(pts, a, b, c),
		newFace(pts, a, d, b),
		newFace(pts, b, d, c),
		newFace(pts, c, d, a),
	}

	for k, p := range pts {
		if k == a || k == b || k == c || k == d {
			continue
		}
		visible := make([]bool, len(faces))
		outside := false
		for f := range faces {
			if faces[f].distance(p) > eps {
				visible[f] = true
				outside = true
			}
		}
		if !outside {
			continue
		}
		// Directed edges of the visible region; a horizon edge is one whose
		// reverse is not also visible.
		edges := make(map[[2]int]bool)
		for f, fc := range faces {
			if !visible[f] {
				continue
			}
			for e := 0; e < 3; e++ {
				edges[[2]int{fc.v[e], fc.v[(e+1)%3]}] = true
			}
		}
		kept := faces[:0:0]
		for f, fc := range faces {
			if !visible[f] {
				kept = append(kept, fc)
				continue
			}
			for e := 0; e < 3; e++ {
				u, w := fc.v[e], fc.v[(e+1)%3]
				if !edges[[2]int{w, u}] {
					kept = append(kept, newFace(pts, u, w, k))
				}
			}
		}
		faces = kept
	}

	h.Kind = Solid
	h.Triangles = make([][3]int, len(faces))
	for f, fc := range faces {
		h.Triangles[f] = fc.v
	}
	return h
}
