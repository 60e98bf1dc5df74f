package headless

import (
	"encoding/binary"
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type vertexArray struct {
	backend  *Backend
	layout   metadata.VertexLayout
	vertices *buffer
	indices  *buffer
}

func (b *Backend) VertexArrayCreate(layout *metadata.VertexLayout, vertices, indices renderer.RenderBuffer) (renderer.VertexArray, error) {
	vb, ok := vertices.(*buffer)
	if !ok || vb.bufferType != metadata.RENDERBUFFER_TYPE_VERTEX {
		return nil, fmt.Errorf("headless vertex array needs a headless vertex buffer")
	}
	ib, ok := indices.(*buffer)
	if !ok || ib.bufferType != metadata.RENDERBUFFER_TYPE_INDEX {
		return nil, fmt.Errorf("headless vertex array needs a headless index buffer")
	}
	var end uint32
	for _, a := range layout.Attributes {
		if a.Components < 1 || a.Components > 4 {
			return nil, fmt.Errorf("attribute %q has %d components", a.Name, a.Components)
		}
		end = max(end, a.Offset+uint32(a.Components)*a.Type.Size())
	}
	if end > layout.Stride {
		return nil, fmt.Errorf("vertex layout attributes end at %d past stride %d", end, layout.Stride)
	}
	return &vertexArray{backend: b, layout: *layout, vertices: vb, indices: ib}, nil
}

func (va *vertexArray) DrawIndexed(count, first uint32) error {
	b := va.backend
	if va.vertices.mapped || va.indices.mapped {
		return fmt.Errorf("%w: draw while a buffer is mapped", core.ErrContractViolation)
	}
	if b.current == nil {
		return fmt.Errorf("%w: draw without a bound shader", core.ErrContractViolation)
	}
	if uint64(first+count)*4 > uint64(len(va.indices.data)) {
		return fmt.Errorf("%w: indices %d+%d exceed index buffer", core.ErrContractViolation, first, count)
	}

	indices := make([]uint32, count)
	var vertexCount uint32
	for i := range indices {
		idx := binary.LittleEndian.Uint32(va.indices.data[(first+uint32(i))*4:])
		indices[i] = idx
		vertexCount = max(vertexCount, idx+1)
	}
	if uint64(vertexCount)*uint64(va.layout.Stride) > uint64(len(va.vertices.data)) {
		return fmt.Errorf("%w: index references vertex %d past buffer end", core.ErrContractViolation, vertexCount-1)
	}

	textures := make(map[uint32]uint32, len(b.bound))
	for slot, h := range b.bound {
		textures[slot] = h
	}
	uniforms := make(map[string]interface{}, len(b.current.values))
	for k, v := range b.current.values {
		uniforms[k] = v
	}

	b.draws = append(b.draws, DrawCall{
		Frame:      b.frame,
		IndexCount: count,
		FirstIndex: first,
		Vertices:   append([]byte(nil), va.vertices.data[:vertexCount*va.layout.Stride]...),
		Indices:    indices,
		Textures:   textures,
		Shader:     b.current.name,
		Uniforms:   uniforms,
	})
	// Each draw reports only the units bound for it.
	clear(b.bound)
	return nil
}

func (va *vertexArray) Destroy() {}
