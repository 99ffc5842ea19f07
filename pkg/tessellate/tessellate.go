// Package tessellate assembles the meshes drawn for one frame: the
// evaluated surface plus, while the widget is on, its handle glyphs, the
// convex hull guide and the control net. One mesh is produced per part.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/sculpt/pkg/kernel"
	"github.com/chazu/sculpt/pkg/surface"
	"github.com/chazu/sculpt/pkg/widget"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Part names of the assembled meshes.
const (
	PartSurface    = "surface"
	PartHandle     = "handle"
	PartHandleOver = "handle-hover"
	PartHandleDrag = "handle-drag"
	PartHull       = "hull"
	PartNet        = "net"
)

// Glyphs are unit-radius handle meshes, one per interaction state. They
// are built once and scaled to the handle size when placed.
type Glyphs struct {
	Idle  *kernel.Mesh
	Hover *kernel.Mesh
	Drag  *kernel.Mesh
}

// NewGlyphs meshes the handle glyphs with k: a sphere at rest, a cube
// under the cursor and a sphere fused with a smaller cube while dragged.
func NewGlyphs(k kernel.Kernel) (*Glyphs, error) {
	shapes := []struct {
		name  string
		solid kernel.Solid
	}{
		{PartHandle, k.Sphere(1)},
		{PartHandleOver, k.Box(1.6)},
		{PartHandleDrag, k.Union(k.Sphere(1), k.Box(1.5))},
	}
	meshes := make([]*kernel.Mesh, len(shapes))
	for i, s := range shapes {
		m, err := k.ToMesh(s.solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: glyph %s: %w", s.name, err)
		}
		m.PartName = s.name
		meshes[i] = m
	}
	return &Glyphs{Idle: meshes[0], Hover: meshes[1], Drag: meshes[2]}, nil
}

// Options select optional geometry.
type Options struct {
	// Wireframe replaces the shaded surface with its quad edges.
	Wireframe bool
}

// Tessellate brings src up to date and returns the frame's meshes. The
// widget parts are included only while w is on; w and g may be nil.
func Tessellate(src *surface.Source, w *widget.Widget, g *Glyphs, opts Options) ([]*kernel.Mesh, error) {
	if src == nil {
		return nil, nil
	}
	var meshes []*kernel.Mesh

	if err := src.Update(); err != nil && !errors.Is(err, surface.ErrNoControlGrid) {
		return nil, fmt.Errorf("tessellate: surface: %w", err)
	}
	if t, err := src.GetOutput(); err == nil {
		if opts.Wireframe {
			meshes = append(meshes, Wireframe(t))
		} else {
			meshes = append(meshes, t.Mesh())
		}
	}

	if w == nil || !w.Enabled() {
		return meshes, nil
	}
	if g != nil {
		meshes = append(meshes, handleMeshes(w, g)...)
	}
	if h := w.Hull(); h != nil && len(h.Edges()) > 0 {
		meshes = append(meshes, h.Mesh())
	}
	if net := ControlNet(w); !net.IsEmpty() {
		meshes = append(meshes, net)
	}
	return meshes, nil
}

// handleMeshes places a glyph at every handle, grouped by state so each
// group can be colored on its own.
func handleMeshes(w *widget.Widget, g *Glyphs) []*kernel.Mesh {
	st := w.State()
	size := float32(w.HandleSize())

	idle := &kernel.Mesh{PartName: PartHandle}
	var active *kernel.Mesh
	for k, h := range w.Handles() {
		p := h.Position
		switch {
		case k == st.Handle && st.Kind == widget.Dragging:
			active = g.Drag.Placed(size, float32(p.X), float32(p.Y), float32(p.Z))
		case k == st.Handle && st.Kind == widget.Hovering:
			active = g.Hover.Placed(size, float32(p.X), float32(p.Y), float32(p.Z))
		default:
			idle.Append(g.Idle.Placed(size, float32(p.X), float32(p.Y), float32(p.Z)))
		}
	}
	out := []*kernel.Mesh{idle}
	if active != nil {
		out = append(out, active)
	}
	return out
}

// ControlNet returns the grid lines joining adjacent handles.
func ControlNet(w *widget.Widget) *kernel.Mesh {
	m := &kernel.Mesh{PartName: PartNet}
	handles := w.Handles()
	edges := w.ControlNet()
	if len(edges) == 0 {
		return m
	}
	for _, h := range handles {
		appendVertex(m, h.Position)
	}
	for _, e := range edges {
		m.Lines = append(m.Lines, uint32(e[0]), uint32(e[1]))
	}
	return m
}

// Wireframe returns the quad edges of t as a line mesh.
func Wireframe(t *surface.Tessellation) *kernel.Mesh {
	m := &kernel.Mesh{
		Vertices: make([]float32, 0, 3*len(t.Points)),
		Normals:  make([]float32, 0, 3*len(t.Points)),
		PartName: PartSurface,
	}
	for _, p := range t.Points {
		appendVertex(m, p)
	}
	idx := func(a, b int) uint32 { return uint32(a*t.V + b) }
	for a := 0; a < t.U; a++ {
		for b := 0; b < t.V; b++ {
			if a+1 < t.U {
				m.Lines = append(m.Lines, idx(a, b), idx(a+1, b))
			}
			if b+1 < t.V {
				m.Lines = append(m.Lines, idx(a, b), idx(a, b+1))
			}
		}
	}
	return m
}

func appendVertex(m *kernel.Mesh, p v3.Vec) {
	m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
	m.Normals = append(m.Normals, 0, 0, 0)
}
