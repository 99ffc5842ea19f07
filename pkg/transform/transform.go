// Package transform provides the invertible affine map that places a
// patch's local control points in world space.
package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrNotInvertible is returned for maps that collapse a dimension.
var ErrNotInvertible = errors.New("transform is not invertible")

// minConditioning is the smallest |det| of the normalized basis images
// accepted as invertible. It does not depend on the overall scale.
const minConditioning = 1e-12

// Transform is translation · rotation · scale, with rotation given as
// Euler angles in degrees applied X, then Y, then Z. The forward and
// inverse matrices are cached and rebuilt on every setter.
type Transform struct {
	translation v3.Vec
	rotation    v3.Vec
	scale       v3.Vec

	forward sdf.M44
	inverse sdf.M44
	version uint64
}

// New returns the identity transform.
func New() *Transform {
	t := &Transform{scale: v3.Vec{X: 1, Y: 1, Z: 1}}
	t.rebuild()
	return t
}

// FromMatrix wraps an arbitrary affine matrix. Setting any component
// afterwards replaces the matrix with the composed components.
func FromMatrix(m sdf.M44) (*Transform, error) {
	if !invertible(m) {
		return nil, fmt.Errorf("transform: determinant %g: %w", determinant(m), ErrNotInvertible)
	}
	return &Transform{
		scale:   v3.Vec{X: 1, Y: 1, Z: 1},
		forward: m,
		inverse: m.Inverse(),
		version: 1,
	}, nil
}

// Translation returns the translation component.
func (t *Transform) Translation() v3.Vec { return t.translation }

// Rotation returns the Euler angles in degrees.
func (t *Transform) Rotation() v3.Vec { return t.rotation }

// Scale returns the per-axis scale factors.
func (t *Transform) Scale() v3.Vec { return t.scale }

// Version changes whenever the map changes.
func (t *Transform) Version() uint64 { return t.version }

// SetTranslation sets the translation component.
func (t *Transform) SetTranslation(v v3.Vec) {
	t.translation = v
	t.rebuild()
}

// SetRotation sets the rotation as Euler angles in degrees.
func (t *Transform) SetRotation(deg v3.Vec) {
	t.rotation = deg
	t.rebuild()
}

// SetScale sets the per-axis scale. Factors that are zero, or whose
// reciprocal is not finite, would make the map singular and are rejected.
func (t *Transform) SetScale(s v3.Vec) error {
	if !ValidScale(s) {
		return fmt.Errorf("transform: scale %v: %w", s, ErrNotInvertible)
	}
	t.scale = s
	t.rebuild()
	return nil
}

// Apply maps a local point to world space.
func (t *Transform) Apply(p v3.Vec) v3.Vec {
	return t.forward.MulPosition(p)
}

// ApplyInverse maps a world point back to local space.
func (t *Transform) ApplyInverse(p v3.Vec) v3.Vec {
	return t.inverse.MulPosition(p)
}

// Matrix returns the forward matrix.
func (t *Transform) Matrix() sdf.M44 { return t.forward }

// InverseMatrix returns the inverse matrix.
func (t *Transform) InverseMatrix() sdf.M44 { return t.inverse }

// Invertible reports whether the current map is non-singular.
func (t *Transform) Invertible() bool {
	return invertible(t.forward)
}

// ValidScale reports whether SetScale accepts s.
func ValidScale(s v3.Vec) bool {
	for _, c := range []float64{s.X, s.Y, s.Z} {
		if c == 0 || math.IsNaN(c) || math.IsInf(c, 0) || math.IsInf(1/c, 0) {
			return false
		}
	}
	return true
}

func (t *Transform) rebuild() {
	rx := radians(t.rotation.X)
	ry := radians(t.rotation.Y)
	rz := radians(t.rotation.Z)

	t.forward = sdf.Translate3d(t.translation).
		Mul(sdf.RotateZ(rz)).
		Mul(sdf.RotateY(ry)).
		Mul(sdf.RotateX(rx)).
		Mul(sdf.Scale3d(t.scale))

	inv := v3.Vec{X: 1 / t.scale.X, Y: 1 / t.scale.Y, Z: 1 / t.scale.Z}
	t.inverse = sdf.Scale3d(inv).
		Mul(sdf.RotateX(-rx)).
		Mul(sdf.RotateY(-ry)).
		Mul(sdf.RotateZ(-rz)).
		Mul(sdf.Translate3d(t.translation.MulScalar(-1)))
	t.version++
}

// basis returns the images of the unit vectors under the linear part.
func basis(m sdf.M44) (a, b, c v3.Vec) {
	o := m.MulPosition(v3.Vec{})
	return m.MulPosition(v3.Vec{X: 1}).Sub(o),
		m.MulPosition(v3.Vec{Y: 1}).Sub(o),
		m.MulPosition(v3.Vec{Z: 1}).Sub(o)
}

func determinant(m sdf.M44) float64 {
	a, b, c := basis(m)
	return a.Dot(b.Cross(c))
}

// invertible normalizes the basis images before taking the determinant, so
// a uniformly tiny or huge scale is not mistaken for a collapse.
func invertible(m sdf.M44) bool {
	a, b, c := basis(m)
	la, lb, lc := a.Length(), b.Length(), c.Length()
	for _, l := range []float64{la, lb, lc} {
		if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
			return false
		}
	}
	d := a.MulScalar(1 / la).Dot(b.MulScalar(1 / lb).Cross(c.MulScalar(1 / lc)))
	return math.Abs(d) >= minConditioning
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
