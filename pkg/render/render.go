// Package render draws app frames with OpenGL 4.1 core. Callers own the
// context and must call every method from the thread it is current on.
package render

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/chazu/sculpt/pkg/app"
)

// meshBuffers holds the GPU objects of one frame slot.
type meshBuffers struct {
	vao       uint32
	positions uint32
	normals   uint32
	triangles uint32
	lines     uint32
}

func newMeshBuffers() *meshBuffers {
	b := &meshBuffers{}
	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.positions)
	gl.GenBuffers(1, &b.normals)
	gl.GenBuffers(1, &b.triangles)
	gl.GenBuffers(1, &b.lines)

	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.positions)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.normals)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, 3*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)
	return b
}

func (b *meshBuffers) upload(m app.MeshData) {
	gl.BindVertexArray(b.vao)
	if len(m.Vertices) > 0 {
		gl.BindBuffer(gl.ARRAY_BUFFER, b.positions)
		gl.BufferData(gl.ARRAY_BUFFER, 4*len(m.Vertices), gl.Ptr(m.Vertices), gl.DYNAMIC_DRAW)
		gl.BindBuffer(gl.ARRAY_BUFFER, b.normals)
		gl.BufferData(gl.ARRAY_BUFFER, 4*len(m.Normals), gl.Ptr(m.Normals), gl.DYNAMIC_DRAW)
	}
	if len(m.Indices) > 0 {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.triangles)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(m.Indices), gl.Ptr(m.Indices), gl.DYNAMIC_DRAW)
	}
	if len(m.Lines) > 0 {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.lines)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(m.Lines), gl.Ptr(m.Lines), gl.DYNAMIC_DRAW)
	}
	gl.BindVertexArray(0)
}

func (b *meshBuffers) delete() {
	gl.DeleteVertexArrays(1, &b.vao)
	bufs := []uint32{b.positions, b.normals, b.triangles, b.lines}
	gl.DeleteBuffers(int32(len(bufs)), &bufs[0])
}

// Renderer draws frames of colored meshes.
type Renderer struct {
	shaders *ShaderManager
	slots   []*meshBuffers
}

// New compiles the shaders and sets the fixed pipeline state.
func New() (*Renderer, error) {
	sm, err := NewShaderManager()
	if err != nil {
		return nil, err
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	return &Renderer{shaders: sm}, nil
}

// Draw clears the framebuffer and draws frame. Opaque meshes are drawn
// first; translucent ones after, without writing depth.
func (r *Renderer) Draw(frame []app.MeshData, viewProj [16]float32, background [4]float32, width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(background[0], background[1], background[2], background[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	for len(r.slots) < len(frame) {
		r.slots = append(r.slots, newMeshBuffers())
	}
	r.shaders.SetViewProjection(viewProj)
	r.shaders.SetLight(0.3, -0.5, 1)

	for k, m := range frame {
		r.slots[k].upload(m)
	}
	for _, translucent := range []bool{false, true} {
		gl.DepthMask(!translucent)
		for k, m := range frame {
			if (m.Color[3] < 1) != translucent {
				continue
			}
			r.drawMesh(r.slots[k], m)
		}
	}
	gl.DepthMask(true)
}

func (r *Renderer) drawMesh(b *meshBuffers, m app.MeshData) {
	gl.BindVertexArray(b.vao)
	if len(m.Indices) > 0 {
		r.shaders.SetColor(m.Color, true)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.triangles)
		gl.DrawElements(gl.TRIANGLES, int32(len(m.Indices)), gl.UNSIGNED_INT, gl.PtrOffset(0))
	}
	if len(m.Lines) > 0 {
		r.shaders.SetColor(m.Color, false)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.lines)
		gl.DrawElements(gl.LINES, int32(len(m.Lines)), gl.UNSIGNED_INT, gl.PtrOffset(0))
	}
	gl.BindVertexArray(0)
}

// Delete releases all GPU resources.
func (r *Renderer) Delete() {
	for _, b := range r.slots {
		b.delete()
	}
	r.slots = nil
	r.shaders.Delete()
}
