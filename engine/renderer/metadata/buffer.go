package metadata

/** @brief Represents the type of a render buffer. */
type RenderBufferType int

const (
	/** @brief Buffer is use is unknown. Default, but usually invalid. */
	RENDERBUFFER_TYPE_UNKNOWN RenderBufferType = iota
	/** @brief Buffer is used for vertex data. */
	RENDERBUFFER_TYPE_VERTEX
	/** @brief Buffer is used for index data. */
	RENDERBUFFER_TYPE_INDEX
)

func (t RenderBufferType) String() string {
	switch t {
	case RENDERBUFFER_TYPE_VERTEX:
		return "vertex"
	case RENDERBUFFER_TYPE_INDEX:
		return "index"
	default:
		return "unknown"
	}
}

/** @brief How often the contents of a buffer are expected to change. */
type RenderBufferUsage int

const (
	/** @brief Written once, drawn many times. */
	RENDERBUFFER_USAGE_STATIC RenderBufferUsage = iota
	/** @brief Rewritten often, drawn many times. */
	RENDERBUFFER_USAGE_DYNAMIC
	/** @brief Rewritten every draw. */
	RENDERBUFFER_USAGE_STREAM
)

/** @brief Access hint for mapping a buffer into host memory. */
type MapHint int

const (
	MAP_HINT_READ MapHint = iota
	MAP_HINT_WRITE
	MAP_HINT_READ_WRITE
)
