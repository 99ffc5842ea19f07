package grid

import (
	"errors"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestPlaneSeedPoints(t *testing.T) {
	g, err := NewFromSeed(3, 2, DefaultPlane)
	if err != nil {
		t.Fatalf("NewFromSeed: %v", err)
	}
	tests := []struct {
		i, j int
		want v3.Vec
	}{
		{0, 0, v3.Vec{X: -0.5, Y: -0.5}},
		{2, 0, v3.Vec{X: 0.5, Y: -0.5}},
		{0, 1, v3.Vec{X: -0.5, Y: 0.5}},
		{1, 1, v3.Vec{X: 0, Y: 0.5}},
		{2, 1, v3.Vec{X: 0.5, Y: 0.5}},
	}
	for _, tt := range tests {
		got, err := g.Point(tt.i, tt.j)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Point(%d, %d) = %v, want %v", tt.i, tt.j, got, tt.want)
		}
	}
}

func TestPlaneRejectsDegenerateAxes(t *testing.T) {
	p := Plane{Point1: v3.Vec{X: 1}, Point2: v3.Vec{X: 2}}
	if _, err := p.SeedPoints(2, 2); err == nil {
		t.Error("expected error for parallel axes")
	}
}

func TestNewFromPointsCountMismatch(t *testing.T) {
	_, err := NewFromPoints(2, 2, make([]v3.Vec, 3))
	if !errors.Is(err, ErrSeedMismatch) {
		t.Errorf("error = %v, want ErrSeedMismatch", err)
	}
}
