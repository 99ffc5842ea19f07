// Package sdfx builds handle glyphs with the github.com/deadsy/sdfx
// signed distance library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/sculpt/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var _ kernel.Kernel = (*SdfxKernel)(nil)

// Glyphs are small and meshed once, so a coarse grid is enough.
const defaultMeshCells = 24

// Vertices closer than this after marching cubes are merged.
const weldTolerance = 1e-6

// blendRadius rounds the seam of a union, relative to a unit glyph.
const blendRadius = 0.15

type glyph struct {
	s sdf.SDF3
}

func (g *glyph) BoundingBox() (min, max [3]float64) {
	bb := g.s.BoundingBox()
	return [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}, [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
}

// SdfxKernel meshes glyphs with uniform marching cubes.
type SdfxKernel struct {
	// Cells is the number of marching cubes cells along the longest axis.
	Cells int
}

// New returns a kernel with the default glyph resolution.
func New() *SdfxKernel {
	return &SdfxKernel{Cells: defaultMeshCells}
}

func sdf3(s kernel.Solid) sdf.SDF3 {
	return s.(*glyph).s
}

// Sphere panics on a non-positive radius; glyph sizes are constants.
func (k *SdfxKernel) Sphere(radius float64) kernel.Solid {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		panic(fmt.Sprintf("sdfx: sphere: %v", err))
	}
	return &glyph{s: s}
}

// Box returns a cube with the given edge length.
func (k *SdfxKernel) Box(size float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: size, Y: size, Z: size}, 0.1*size)
	if err != nil {
		panic(fmt.Sprintf("sdfx: box: %v", err))
	}
	return &glyph{s: s}
}

// Union fuses a and b with a rounded seam.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	u := sdf.Union3D(sdf3(a), sdf3(b))
	if blended, ok := u.(*sdf.UnionSDF3); ok {
		blended.SetMin(sdf.RoundMin(blendRadius))
	}
	return &glyph{s: u}
}

// ToMesh runs marching cubes over s and welds the result into an indexed
// mesh with smooth vertex normals.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	if k.Cells < 2 {
		return nil, fmt.Errorf("sdfx: %d mesh cells", k.Cells)
	}
	tris := render.ToTriangles(sdf3(s), render.NewMarchingCubesUniform(k.Cells))
	if len(tris) == 0 {
		return nil, fmt.Errorf("sdfx: empty surface at %d cells", k.Cells)
	}

	m := &kernel.Mesh{Indices: make([]uint32, 0, 3*len(tris))}
	index := make(map[[3]int64]uint32)
	var acc []v3.Vec
	for _, t := range tris {
		// Area weighting comes from the unnormalized cross product.
		n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
		for _, p := range t {
			key := [3]int64{weldKey(p.X), weldKey(p.Y), weldKey(p.Z)}
			i, ok := index[key]
			if !ok {
				i = uint32(len(acc))
				index[key] = i
				acc = append(acc, v3.Vec{})
				m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
			}
			acc[i] = acc[i].Add(n)
			m.Indices = append(m.Indices, i)
		}
	}

	m.Normals = make([]float32, 0, len(m.Vertices))
	for _, n := range acc {
		if l := n.Length(); l > 0 {
			n = n.MulScalar(1 / l)
		}
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	return m, nil
}

func weldKey(x float64) int64 {
	return int64(math.Round(x / weldTolerance))
}
