package batch

import (
	"unsafe"

	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

const (
	VerticesPerSprite = 4
	IndicesPerSprite  = 6
)

// Attribute locations shared by the vertex layout and the shader.
const (
	AttributePosition uint32 = iota
	AttributeColour
	AttributeTexCoord
	AttributeTexSlot
)

// BatchVertex is the GPU-side vertex. Every field is 4-byte aligned so the
// struct has no padding and can be written straight into a mapped buffer.
type BatchVertex struct {
	Position math.Vec3
	Color    math.Vec4
	TexCoord math.Vec2
	TexSlot  uint32
}

// VertexSize is the stride of BatchVertex in bytes.
const VertexSize = uint32(unsafe.Sizeof(BatchVertex{}))

// quadIndices is the relative index pattern of one sprite: two triangles
// sharing the bottom-left to top-right diagonal.
var quadIndices = [IndicesPerSprite]uint32{0, 1, 2, 2, 3, 0}

// NewVertexLayout describes BatchVertex to the backend.
func NewVertexLayout() *metadata.VertexLayout {
	var v BatchVertex
	return &metadata.VertexLayout{
		Stride: VertexSize,
		Attributes: []metadata.VertexAttribute{
			{Name: "vert_pos", Location: AttributePosition, Components: 3, Type: metadata.VERTEX_ATTRIBUTE_TYPE_FLOAT32, Offset: uint32(unsafe.Offsetof(v.Position))},
			{Name: "vert_colour", Location: AttributeColour, Components: 4, Type: metadata.VERTEX_ATTRIBUTE_TYPE_FLOAT32, Offset: uint32(unsafe.Offsetof(v.Color))},
			{Name: "vert_texCoord", Location: AttributeTexCoord, Components: 2, Type: metadata.VERTEX_ATTRIBUTE_TYPE_FLOAT32, Offset: uint32(unsafe.Offsetof(v.TexCoord))},
			{Name: "vert_texSlot", Location: AttributeTexSlot, Components: 1, Type: metadata.VERTEX_ATTRIBUTE_TYPE_UINT32, Offset: uint32(unsafe.Offsetof(v.TexSlot))},
		},
	}
}

// QuadIndices builds the static index buffer contents for maxSprites quads.
func QuadIndices(maxSprites uint32) []uint32 {
	indices := make([]uint32, maxSprites*IndicesPerSprite)
	for s := uint32(0); s < maxSprites; s++ {
		base := s * VerticesPerSprite
		for k, rel := range quadIndices {
			indices[s*IndicesPerSprite+uint32(k)] = base + rel
		}
	}
	return indices
}

// vertexView reinterprets mapped buffer memory as vertices.
func vertexView(b []byte) []BatchVertex {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*BatchVertex)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/int(VertexSize))
}

// indexBytes reinterprets indices as raw bytes for upload.
func indexBytes(indices []uint32) []byte {
	if len(indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(indices))), len(indices)*4)
}

// DecodeVertices copies raw vertex buffer bytes into vertices.
func DecodeVertices(b []byte) []BatchVertex {
	return append([]BatchVertex(nil), vertexView(b)...)
}

// DecodeIndices copies raw index buffer bytes into indices.
func DecodeIndices(b []byte) []uint32 {
	if len(b) < 4 {
		return nil
	}
	view := unsafe.Slice((*uint32)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/4)
	return append([]uint32(nil), view...)
}
