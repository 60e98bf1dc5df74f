package metadata

/** @brief Scalar type of a vertex attribute component. */
type VertexAttributeType int

const (
	VERTEX_ATTRIBUTE_TYPE_FLOAT32 VertexAttributeType = iota
	VERTEX_ATTRIBUTE_TYPE_UINT32
)

/** @brief Size in bytes of one component of the given type. */
func (t VertexAttributeType) Size() uint32 {
	return 4
}

/**
 * @brief Describes one attribute inside an interleaved vertex.
 */
type VertexAttribute struct {
	/** @brief The attribute name used by the shader. */
	Name string
	/** @brief The attribute location the shader binds the name to. */
	Location uint32
	/** @brief Number of components, 1 to 4. */
	Components int32
	/** @brief Component type. Integer types are passed through unconverted. */
	Type VertexAttributeType
	/** @brief Byte offset inside the vertex. */
	Offset uint32
}

/**
 * @brief Describes the layout of an interleaved vertex buffer.
 */
type VertexLayout struct {
	/** @brief The size of one vertex in bytes. */
	Stride uint32
	/** @brief The attributes, in location order. */
	Attributes []VertexAttribute
}
