package tessellate_test

import (
	"testing"

	"github.com/chazu/sculpt/pkg/grid"
	"github.com/chazu/sculpt/pkg/interactor"
	"github.com/chazu/sculpt/pkg/kernel"
	"github.com/chazu/sculpt/pkg/kernel/sdfx"
	"github.com/chazu/sculpt/pkg/surface"
	"github.com/chazu/sculpt/pkg/tessellate"
	"github.com/chazu/sculpt/pkg/widget"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// triKernel meshes every solid as a single triangle, which keeps vertex
// counts predictable.
type triKernel struct{}

type triSolid struct{}

func (triSolid) BoundingBox() (min, max [3]float64) { return }

func (triKernel) Sphere(float64) kernel.Solid           { return triSolid{} }
func (triKernel) Box(float64) kernel.Solid              { return triSolid{} }
func (triKernel) Union(a, b kernel.Solid) kernel.Solid { return triSolid{} }
func (triKernel) ToMesh(kernel.Solid) (*kernel.Mesh, error) {
	return &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:  []uint32{0, 1, 2},
	}, nil
}

// newScene returns a 2×2 unit square with a widget on.
func newScene(t *testing.T) (*surface.Source, *widget.Widget, *interactor.Dispatcher) {
	t.Helper()
	g, err := grid.NewFromPoints(2, 2, []v3.Vec{
		{X: 0, Y: 0}, {X: 0, Y: 1},
		{X: 1, Y: 0}, {X: 1, Y: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	src := surface.NewSource()
	src.SetControlGrid(g)
	if err := src.SetTessellationResolution(3, 4); err != nil {
		t.Fatal(err)
	}
	events := interactor.NewDispatcher()
	w := widget.New()
	w.SetInteractor(events)
	if err := w.SetSource(src); err != nil {
		t.Fatal(err)
	}
	return src, w, events
}

func byPart(meshes []*kernel.Mesh) map[string]*kernel.Mesh {
	out := make(map[string]*kernel.Mesh)
	for _, m := range meshes {
		out[m.PartName] = m
	}
	return out
}

func TestNilSource(t *testing.T) {
	meshes, err := tessellate.Tessellate(nil, nil, nil, tessellate.Options{})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if meshes != nil {
		t.Errorf("expected no meshes, got %d", len(meshes))
	}
}

func TestSourceWithoutGrid(t *testing.T) {
	meshes, err := tessellate.Tessellate(surface.NewSource(), nil, nil, tessellate.Options{})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 0 {
		t.Errorf("expected no meshes, got %d", len(meshes))
	}
}

func TestWidgetOffDrawsSurfaceOnly(t *testing.T) {
	src, w, _ := newScene(t)
	glyphs, err := tessellate.NewGlyphs(triKernel{})
	if err != nil {
		t.Fatal(err)
	}

	meshes, err := tessellate.Tessellate(src, w, glyphs, tessellate.Options{})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	m := meshes[0]
	if m.PartName != tessellate.PartSurface {
		t.Errorf("PartName = %q, want %q", m.PartName, tessellate.PartSurface)
	}
	if m.VertexCount() != 12 {
		t.Errorf("VertexCount = %d, want 12", m.VertexCount())
	}
	if m.TriangleCount() != 2*2*3 {
		t.Errorf("TriangleCount = %d, want 12", m.TriangleCount())
	}
}

func TestWidgetOnAddsGuides(t *testing.T) {
	src, w, _ := newScene(t)
	if err := w.On(); err != nil {
		t.Fatal(err)
	}
	glyphs, err := tessellate.NewGlyphs(triKernel{})
	if err != nil {
		t.Fatal(err)
	}

	parts := byPart(mustTessellate(t, src, w, glyphs))
	for _, name := range []string{tessellate.PartSurface, tessellate.PartHandle, tessellate.PartHull, tessellate.PartNet} {
		if parts[name] == nil {
			t.Errorf("missing %s mesh", name)
		}
	}
	if m := parts[tessellate.PartHandle]; m != nil && m.TriangleCount() != 4 {
		t.Errorf("handle triangles = %d, want one glyph per handle", m.TriangleCount())
	}
	if m := parts[tessellate.PartNet]; m != nil && m.LineCount() != 4 {
		t.Errorf("net lines = %d, want 4", m.LineCount())
	}
	if m := parts[tessellate.PartHull]; m != nil && m.LineCount() != 4 {
		t.Errorf("hull edges = %d, want 4", m.LineCount())
	}
}

func TestHandleGlyphsFollowState(t *testing.T) {
	src, w, events := newScene(t)
	if err := w.On(); err != nil {
		t.Fatal(err)
	}
	if err := w.SetHandleSize(0.1); err != nil {
		t.Fatal(err)
	}
	glyphs, err := tessellate.NewGlyphs(triKernel{})
	if err != nil {
		t.Fatal(err)
	}
	above := interactor.Ray{Origin: v3.Vec{X: 1, Y: 1, Z: 5}, Direction: v3.Vec{Z: -1}}

	tests := []struct {
		name   string
		event  interactor.EventType
		active string
	}{
		{"hover", interactor.Move, tessellate.PartHandleOver},
		{"drag", interactor.ButtonDown, tessellate.PartHandleDrag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events.Dispatch(interactor.Event{Type: tt.event, Button: interactor.ButtonLeft, Ray: above})
			parts := byPart(mustTessellate(t, src, w, glyphs))
			active := parts[tt.active]
			if active == nil {
				t.Fatalf("missing %s mesh", tt.active)
			}
			// The glyph is scaled by the handle size and centered on (1, 1, 0).
			if got := active.Vertices[3]; got != 1.1 {
				t.Errorf("placed x = %v, want 1.1", got)
			}
			if idle := parts[tessellate.PartHandle]; idle.TriangleCount() != 3 {
				t.Errorf("idle glyphs = %d, want 3", idle.TriangleCount())
			}
		})
	}
}

func TestWireframe(t *testing.T) {
	src, _, _ := newScene(t)
	meshes, err := tessellate.Tessellate(src, nil, nil, tessellate.Options{Wireframe: true})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	m := meshes[0]
	if m.TriangleCount() != 0 {
		t.Errorf("wireframe has %d triangles", m.TriangleCount())
	}
	// 3×4 lattice: 3 rows of 3 edges plus 4 columns of 2 edges.
	if m.LineCount() != 17 {
		t.Errorf("LineCount = %d, want 17", m.LineCount())
	}
}

func TestSdfxGlyphs(t *testing.T) {
	glyphs, err := tessellate.NewGlyphs(sdfx.New())
	if err != nil {
		t.Fatalf("NewGlyphs: %v", err)
	}
	tests := []struct {
		mesh *kernel.Mesh
		name string
	}{
		{glyphs.Idle, tessellate.PartHandle},
		{glyphs.Hover, tessellate.PartHandleOver},
		{glyphs.Drag, tessellate.PartHandleDrag},
	}
	for _, tt := range tests {
		if tt.mesh.IsEmpty() {
			t.Errorf("%s glyph is empty", tt.name)
		}
		if tt.mesh.PartName != tt.name {
			t.Errorf("PartName = %q, want %q", tt.mesh.PartName, tt.name)
		}
	}
}

func TestGlyphMeshError(t *testing.T) {
	if _, err := tessellate.NewGlyphs(&sdfx.SdfxKernel{Cells: 1}); err == nil {
		t.Fatal("expected error for a kernel that cannot mesh")
	}
}

func mustTessellate(t *testing.T, src *surface.Source, w *widget.Widget, g *tessellate.Glyphs) []*kernel.Mesh {
	t.Helper()
	meshes, err := tessellate.Tessellate(src, w, g, tessellate.Options{})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	return meshes
}
