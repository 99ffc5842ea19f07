// Package kernel defines renderable meshes and the glyph kernel interface.
// Implementations (sdfx) build the solid shapes drawn at each handle;
// everything downstream consumes the flat Mesh arrays only.
package kernel

// Solid is an opaque handle to a glyph kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds glyph solids. All primitives are centered on the origin so
// a glyph can be meshed once and then placed by Mesh.Placed.
type Kernel interface {
	// Primitives
	Sphere(radius float64) Solid
	Box(size float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
