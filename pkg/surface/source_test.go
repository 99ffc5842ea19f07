package surface

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/sculpt/pkg/grid"
	"github.com/chazu/sculpt/pkg/transform"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func unitSquare(t *testing.T) *grid.ControlGrid {
	t.Helper()
	g, err := grid.NewFromPoints(2, 2, []v3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0},
	})
	if err != nil {
		t.Fatalf("NewFromPoints: %v", err)
	}
	return g
}

func near(a, b v3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func mustUpdate(t *testing.T, s *Source) *Tessellation {
	t.Helper()
	if err := s.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	out, err := s.GetOutput()
	if err != nil {
		t.Fatalf("GetOutput: %v", err)
	}
	return out
}

func TestGetOutputBeforeUpdate(t *testing.T) {
	s := NewDefault()
	if _, err := s.GetOutput(); !errors.Is(err, ErrNotYetEvaluated) {
		t.Errorf("GetOutput error = %v, want ErrNotYetEvaluated", err)
	}
}

func TestOperationsWithoutGrid(t *testing.T) {
	s := NewSource()
	checks := map[string]error{
		"Update":                   s.Update(),
		"SetNumberOfControlPoints": s.SetNumberOfControlPoints(3, 3),
		"SetControlPoint":          s.SetControlPoint(0, 0, v3.Vec{}),
		"SetBounds":                s.SetBounds(0, 1, 0, 1),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrNoControlGrid) {
			t.Errorf("%s error = %v, want ErrNoControlGrid", name, err)
		}
	}
	if _, err := s.Evaluate(0.5, 0.5); !errors.Is(err, ErrNoControlGrid) {
		t.Errorf("Evaluate error = %v, want ErrNoControlGrid", err)
	}
}

func TestZeroGridIsRejected(t *testing.T) {
	s := NewSource()
	s.SetControlGrid(&grid.ControlGrid{})
	if err := s.Update(); !errors.Is(err, grid.ErrInvalidDimensions) {
		t.Errorf("Update error = %v, want ErrInvalidDimensions", err)
	}
	if _, err := s.Evaluate(0.5, 0.5); !errors.Is(err, grid.ErrInvalidDimensions) {
		t.Errorf("Evaluate error = %v, want ErrInvalidDimensions", err)
	}
	if _, err := s.Normal(0.5, 0.5); !errors.Is(err, grid.ErrInvalidDimensions) {
		t.Errorf("Normal error = %v, want ErrInvalidDimensions", err)
	}
	if _, err := s.GetOutput(); !errors.Is(err, ErrNotYetEvaluated) {
		t.Errorf("GetOutput error = %v, want ErrNotYetEvaluated", err)
	}
}

func TestSampleCountMatchesResolution(t *testing.T) {
	tests := []struct {
		nx, ny int
		u, v   int
	}{
		{2, 2, 2, 2},
		{2, 2, 20, 20},
		{4, 4, 7, 3},
		{6, 3, 10, 15},
		{9, 9, 2, 5},
	}
	for _, tt := range tests {
		g, err := grid.New(tt.nx, tt.ny, grid.DefaultBounds)
		if err != nil {
			t.Fatal(err)
		}
		// Scramble the points; the sample count must not depend on them.
		g.Each(func(i, j int, p v3.Vec) {
			_ = g.SetPoint(i, j, v3.Vec{X: p.X, Y: p.Y, Z: float64(i*j) - 2})
		})
		s := NewSource()
		s.SetControlGrid(g)
		if err := s.SetTessellationResolution(tt.u, tt.v); err != nil {
			t.Fatal(err)
		}
		out := mustUpdate(t, s)
		if out.Len() != tt.u*tt.v || out.U != tt.u || out.V != tt.v {
			t.Errorf("grid %dx%d res %dx%d: got %d samples (%dx%d)",
				tt.nx, tt.ny, tt.u, tt.v, out.Len(), out.U, out.V)
		}
		if len(out.Quads) != (tt.u-1)*(tt.v-1) {
			t.Errorf("quads = %d, want %d", len(out.Quads), (tt.u-1)*(tt.v-1))
		}
		if len(out.Triangles) != 2*len(out.Quads) {
			t.Errorf("triangles = %d, want %d", len(out.Triangles), 2*len(out.Quads))
		}
	}
}

func TestBilinearPatch(t *testing.T) {
	corners := []v3.Vec{
		{X: 0, Y: 0, Z: 1}, {X: 2, Y: 0, Z: -1},
		{X: 0, Y: 3, Z: 4}, {X: 1, Y: 2, Z: 0},
	}
	g, err := grid.NewFromPoints(2, 2, corners)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSource()
	s.SetControlGrid(g)
	if err := s.SetTessellationResolution(5, 7); err != nil {
		t.Fatal(err)
	}
	out := mustUpdate(t, s)
	p00, p01, p10, p11 := corners[0], corners[1], corners[2], corners[3]
	for a := 0; a < out.U; a++ {
		u := float64(a) / float64(out.U-1)
		for b := 0; b < out.V; b++ {
			v := float64(b) / float64(out.V-1)
			want := p00.MulScalar((1 - u) * (1 - v)).
				Add(p10.MulScalar(u * (1 - v))).
				Add(p01.MulScalar((1 - u) * v)).
				Add(p11.MulScalar(u * v))
			if got := out.Point(a, b); !near(got, want, 1e-12) {
				t.Errorf("S(%v, %v) = %v, want %v", u, v, got, want)
			}
		}
	}
}

func TestConstantGridIsReproduced(t *testing.T) {
	p := v3.Vec{X: 0.1, Y: -3.7, Z: 2.25}
	pts := make([]v3.Vec, 5*4)
	for k := range pts {
		pts[k] = p
	}
	g, err := grid.NewFromPoints(5, 4, pts)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSource()
	s.SetControlGrid(g)
	if err := s.SetTessellationResolution(13, 9); err != nil {
		t.Fatal(err)
	}
	out := mustUpdate(t, s)
	for k, got := range out.Points {
		if got != p {
			t.Fatalf("sample %d = %v, want %v", k, got, p)
		}
	}
}

func TestTranslationShiftsSamples(t *testing.T) {
	g := grid.NewDefault()
	_ = g.SetPoint(1, 2, v3.Vec{X: -0.3, Y: 0.4, Z: 1.5})
	_ = g.SetPoint(3, 0, v3.Vec{X: 1, Y: -1, Z: -0.75})

	s := NewSource()
	s.SetControlGrid(g)
	base := mustUpdate(t, s)

	offset := v3.Vec{X: 10, Y: -2.5, Z: 0.125}
	tr := transform.New()
	tr.SetTranslation(offset)
	if err := s.SetTransform(tr); err != nil {
		t.Fatal(err)
	}
	moved := mustUpdate(t, s)
	if moved == base {
		t.Fatal("transform change did not produce a new tessellation")
	}
	for k := range base.Points {
		want := base.Points[k].Add(offset)
		if !near(moved.Points[k], want, 1e-12) {
			t.Errorf("sample %d = %v, want %v", k, moved.Points[k], want)
		}
	}

	// Editing the transform in place is detected through its version.
	tr.SetTranslation(v3.Vec{})
	again := mustUpdate(t, s)
	for k := range base.Points {
		if !near(again.Points[k], base.Points[k], 1e-12) {
			t.Fatalf("sample %d = %v after resetting translation, want %v", k, again.Points[k], base.Points[k])
		}
	}
}

func TestUpdateIsIdempotent(t *testing.T) {
	s := NewDefault()
	first := mustUpdate(t, s)
	snapshot := append([]v3.Vec(nil), first.Points...)
	if s.Modified() {
		t.Error("Modified() = true right after Update")
	}
	second := mustUpdate(t, s)
	if first != second {
		t.Error("second Update published a new tessellation")
	}
	for k := range snapshot {
		if second.Points[k] != snapshot[k] {
			t.Fatalf("sample %d changed: %v -> %v", k, snapshot[k], second.Points[k])
		}
	}
}

func TestUpdateDetectsGridEdits(t *testing.T) {
	g := grid.NewDefault()
	s := NewSource()
	s.SetControlGrid(g)
	first := mustUpdate(t, s)

	// Direct edit, bypassing the Source.
	if err := g.SetPoint(1, 1, v3.Vec{X: -0.33, Y: -0.33, Z: 2}); err != nil {
		t.Fatal(err)
	}
	if !s.Modified() {
		t.Fatal("Modified() = false after a grid edit")
	}
	second := mustUpdate(t, s)
	if first == second {
		t.Fatal("grid edit did not trigger retessellation")
	}
	if &first.Quads[0] != &second.Quads[0] {
		t.Error("connectivity was rebuilt for an unchanged resolution")
	}
	if first.Points[0] != second.Points[0] {
		t.Errorf("corner moved: %v -> %v", first.Points[0], second.Points[0])
	}
}

func TestUnitSquareScenario(t *testing.T) {
	s := NewSource()
	s.SetControlGrid(unitSquare(t))

	if err := s.SetTessellationResolution(2, 2); err != nil {
		t.Fatal(err)
	}
	out := mustUpdate(t, s)
	want := []v3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0},
	}
	for k := range want {
		if out.Points[k] != want[k] {
			t.Errorf("sample %d = %v, want %v", k, out.Points[k], want[k])
		}
	}

	if err := s.SetTessellationResolution(3, 3); err != nil {
		t.Fatal(err)
	}
	out = mustUpdate(t, s)
	if got := out.Point(1, 1); got != (v3.Vec{X: 0.5, Y: 0.5, Z: 0}) {
		t.Errorf("center sample = %v, want (0.5, 0.5, 0)", got)
	}
}

func TestResizePreservesCornerControlPoints(t *testing.T) {
	g := unitSquare(t)
	original := g.Points()
	s := NewSource()
	s.SetControlGrid(g)
	before := mustUpdate(t, s)

	if err := s.SetNumberOfControlPoints(3, 3); err != nil {
		t.Fatal(err)
	}
	nx, ny := s.ControlGrid().Dimensions()
	if nx != 3 || ny != 3 {
		t.Fatalf("dimensions = %dx%d, want 3x3", nx, ny)
	}
	for k, want := range original {
		i, j := k/2, k%2
		got, err := s.ControlPoint(i, j)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("control point (%d, %d) = %v, want %v", i, j, got, want)
		}
	}
	after := mustUpdate(t, s)
	if after.Points[0] != before.Points[0] {
		t.Errorf("S(0, 0) = %v, want %v", after.Points[0], before.Points[0])
	}
	if got := after.Points[after.Len()-1]; got != (v3.Vec{X: 2, Y: 2}) {
		t.Errorf("S(1, 1) = %v, want the extrapolated corner (2, 2, 0)", got)
	}
}

func TestSetBoundsDiscardsEdits(t *testing.T) {
	s := NewDefault()
	if err := s.SetControlPoint(2, 2, v3.Vec{Z: 9}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBounds(0, 4, 0, 2); err != nil {
		t.Fatal(err)
	}
	out := mustUpdate(t, s)
	for k, p := range out.Points {
		if p.Z != 0 {
			t.Fatalf("sample %d z = %v, want 0", k, p.Z)
		}
	}
	if got := out.Points[out.Len()-1]; got != (v3.Vec{X: 4, Y: 2}) {
		t.Errorf("far corner = %v, want (4, 2, 0)", got)
	}
}

func TestSetControlPointOutOfRange(t *testing.T) {
	s := NewDefault()
	if err := s.SetControlPoint(4, 0, v3.Vec{}); !errors.Is(err, grid.ErrIndexOutOfRange) {
		t.Errorf("error = %v, want ErrIndexOutOfRange", err)
	}
	if err := s.SetNumberOfControlPoints(1, 5); !errors.Is(err, grid.ErrInvalidDimensions) {
		t.Errorf("error = %v, want ErrInvalidDimensions", err)
	}
}

func TestInvalidResolution(t *testing.T) {
	s := NewDefault()
	for _, r := range [][2]int{{1, 5}, {5, 1}, {0, 0}} {
		if err := s.SetTessellationResolution(r[0], r[1]); !errors.Is(err, ErrInvalidResolution) {
			t.Errorf("SetTessellationResolution(%d, %d) error = %v", r[0], r[1], err)
		}
	}
	u, v := s.Resolution()
	if u != DefaultResolution || v != DefaultResolution {
		t.Errorf("resolution = %dx%d after rejected sets", u, v)
	}
}

func TestEvaluateMatchesTessellation(t *testing.T) {
	s := NewDefault()
	_ = s.SetControlPoint(1, 1, v3.Vec{X: -0.2, Y: -0.4, Z: 1})
	_ = s.SetTessellationResolution(5, 5)
	out := mustUpdate(t, s)
	got, err := s.Evaluate(0.25, 0.75)
	if err != nil {
		t.Fatal(err)
	}
	if want := out.Point(1, 3); !near(got, want, 1e-12) {
		t.Errorf("Evaluate(0.25, 0.75) = %v, want %v", got, want)
	}
}

func TestNormals(t *testing.T) {
	s := NewDefault()
	n, err := s.Normal(0.3, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	if !near(n, v3.Vec{Z: 1}, 1e-12) {
		t.Errorf("flat patch normal = %v, want +Z", n)
	}
	out := mustUpdate(t, s)
	for k, vn := range out.Normals {
		if !near(vn, v3.Vec{Z: 1}, 1e-9) {
			t.Fatalf("vertex normal %d = %v, want +Z", k, vn)
		}
	}
	if fn := out.FaceNormal(0); !near(fn, v3.Vec{Z: 1}, 1e-9) {
		t.Errorf("face normal = %v, want +Z", fn)
	}
}

func TestMeshExport(t *testing.T) {
	s := NewDefault()
	_ = s.SetTessellationResolution(4, 3)
	m := mustUpdate(t, s).Mesh()
	if m.VertexCount() != 12 {
		t.Errorf("VertexCount = %d, want 12", m.VertexCount())
	}
	if m.TriangleCount() != 2*3*2 {
		t.Errorf("TriangleCount = %d, want 12", m.TriangleCount())
	}
	if m.PartName != "surface" {
		t.Errorf("PartName = %q", m.PartName)
	}
}

func TestNilTransformMeansIdentity(t *testing.T) {
	s := NewDefault()
	tr := transform.New()
	tr.SetTranslation(v3.Vec{X: 1})
	if err := s.SetTransform(tr); err != nil {
		t.Fatal(err)
	}
	if err := s.SetTransform(nil); err != nil {
		t.Fatalf("SetTransform(nil): %v", err)
	}
	if s.Transform() != nil {
		t.Error("nil transform not stored")
	}
	got, err := s.Evaluate(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := (v3.Vec{X: -1, Y: -1}); got != want {
		t.Errorf("Evaluate(0, 0) = %v, want %v", got, want)
	}
}

func TestSmallUniformScaleIsAccepted(t *testing.T) {
	s := NewDefault()
	tr := transform.New()
	if err := tr.SetScale(v3.Vec{X: 1e-5, Y: 1e-5, Z: 1e-5}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetTransform(tr); err != nil {
		t.Fatalf("SetTransform: %v", err)
	}
	p := v3.Vec{X: 0.3, Y: -0.2, Z: 0.7}
	if got := s.ToLocal(s.ToWorld(p)); got.Sub(p).Length() > 1e-9 {
		t.Errorf("round trip = %v, want %v", got, p)
	}
}
