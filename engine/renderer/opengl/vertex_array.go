package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type OpenGLVertexArray struct {
	Handle uint32
}

func (r *OpenGLRenderer) VertexArrayCreate(layout *metadata.VertexLayout, vertices, indices renderer.RenderBuffer) (renderer.VertexArray, error) {
	vb, ok := vertices.(*OpenGLBuffer)
	if !ok {
		return nil, fmt.Errorf("vertex array needs an OpenGL vertex buffer, got %T", vertices)
	}
	ib, ok := indices.(*OpenGLBuffer)
	if !ok {
		return nil, fmt.Errorf("vertex array needs an OpenGL index buffer, got %T", indices)
	}

	va := &OpenGLVertexArray{}
	gl.GenVertexArrays(1, &va.Handle)
	gl.BindVertexArray(va.Handle)
	gl.BindBuffer(gl.ARRAY_BUFFER, vb.Handle)

	for _, a := range layout.Attributes {
		gl.EnableVertexAttribArray(a.Location)
		switch a.Type {
		case metadata.VERTEX_ATTRIBUTE_TYPE_UINT32:
			gl.VertexAttribIPointer(a.Location, a.Components, gl.UNSIGNED_INT, int32(layout.Stride), gl.PtrOffset(int(a.Offset)))
		default:
			gl.VertexAttribPointer(a.Location, a.Components, gl.FLOAT, false, int32(layout.Stride), gl.PtrOffset(int(a.Offset)))
		}
	}

	// The element binding is part of the vertex array state.
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ib.Handle)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if checkError("vertex array create") {
		va.Destroy()
		return nil, fmt.Errorf("failed to create vertex array")
	}
	return va, nil
}

func (va *OpenGLVertexArray) DrawIndexed(count, first uint32) error {
	gl.BindVertexArray(va.Handle)
	gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, gl.PtrOffset(int(first)*4))
	gl.BindVertexArray(0)
	if checkError("draw indexed") {
		return fmt.Errorf("draw of %d indices failed", count)
	}
	return nil
}

func (va *OpenGLVertexArray) Destroy() {
	if va.Handle == 0 {
		return
	}
	gl.DeleteVertexArrays(1, &va.Handle)
	va.Handle = 0
}
