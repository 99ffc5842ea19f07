package kernel

// Mesh is a triangle and line mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle
// and lines has 2 uint32s per segment.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Lines    []uint32  `json:"lines"`    // [i0,i1, ...] segments
	PartName string    `json:"partName"` // surface, handle, hull or net
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// LineCount returns the number of line segments.
func (m *Mesh) LineCount() int {
	return len(m.Lines) / 2
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Append adds the geometry of o to m, offsetting o's indices.
func (m *Mesh) Append(o *Mesh) {
	base := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, o.Vertices...)
	m.Normals = append(m.Normals, o.Normals...)
	for _, i := range o.Indices {
		m.Indices = append(m.Indices, base+i)
	}
	for _, i := range o.Lines {
		m.Lines = append(m.Lines, base+i)
	}
}

// Placed returns a copy of m scaled uniformly by s and then moved to
// (x, y, z). Normals are unchanged for s > 0.
func (m *Mesh) Placed(s, x, y, z float32) *Mesh {
	out := &Mesh{
		Vertices: make([]float32, len(m.Vertices)),
		Normals:  append([]float32(nil), m.Normals...),
		Indices:  append([]uint32(nil), m.Indices...),
		Lines:    append([]uint32(nil), m.Lines...),
		PartName: m.PartName,
	}
	for k := 0; k+2 < len(m.Vertices); k += 3 {
		out.Vertices[k] = m.Vertices[k]*s + x
		out.Vertices[k+1] = m.Vertices[k+1]*s + y
		out.Vertices[k+2] = m.Vertices[k+2]*s + z
	}
	return out
}
