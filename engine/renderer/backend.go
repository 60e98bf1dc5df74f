package renderer

import "github.com/spaghettifunk/anima2d/engine/renderer/metadata"

// RenderBuffer is a GPU buffer. Map/unmap and orphaning follow the
// immediate-mode GL model: at most one mapping is live at a time and the
// returned slice is only valid until UnmapMemory.
type RenderBuffer interface {
	Type() metadata.RenderBufferType
	TotalSize() uint64
	MapMemory(hint metadata.MapHint) ([]byte, error)
	UnmapMemory() error
	IsMapped() bool
	LoadRange(offset uint64, data []byte) error
	// Orphan replaces the storage with a fresh allocation of the same size so
	// that pending draws keep reading the old contents.
	Orphan() error
	Destroy()
}

type BufferFactory interface {
	RenderBufferCreate(bufferType metadata.RenderBufferType, totalSize uint64, usage metadata.RenderBufferUsage) (RenderBuffer, error)
}

type Shader interface {
	Name() string
	Use()
	// SetUniform uploads a single value: int32, uint32, float32,
	// math.Vec2/Vec3/Vec4 or math.Mat4.
	SetUniform(name string, value interface{}) error
	// SetUniformArray uploads a slice of int32 or float32.
	SetUniformArray(name string, values interface{}) error
	Destroy()
}

type ShaderFactory interface {
	ShaderCreate(config *metadata.ShaderConfig) (Shader, error)
}

// VertexArray binds a vertex layout to a vertex and an index buffer.
type VertexArray interface {
	// DrawIndexed draws count indices starting at index first as triangles.
	DrawIndexed(count, first uint32) error
	Destroy()
}

type VertexArrayFactory interface {
	VertexArrayCreate(layout *metadata.VertexLayout, vertices, indices RenderBuffer) (VertexArray, error)
}

type TextureBackend interface {
	// TextureCreate uploads RGBA8 pixels, bottom row first, and sets texture.Handle.
	TextureCreate(texture *metadata.Texture, pixels []uint8) error
	TextureDestroy(texture *metadata.Texture)
	// TextureBind binds the texture to texture unit slot.
	TextureBind(texture *metadata.Texture, slot uint32)
}

// RendererBackend is everything the sprite renderer and the engine need from a
// graphics API.
type RendererBackend interface {
	BufferFactory
	ShaderFactory
	VertexArrayFactory
	TextureBackend

	Initialize(config *metadata.RendererBackendConfig) (*metadata.GraphicsContext, error)
	Shutdown() error
	Resized(width, height uint32) error
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error
}

type RendererType uint8

const (
	OpenGL RendererType = iota
	Headless
)

func (t RendererType) String() string {
	switch t {
	case OpenGL:
		return "opengl"
	case Headless:
		return "headless"
	default:
		return "unknown"
	}
}

// ParseRendererType maps a configuration value to a backend type.
func ParseRendererType(s string) (RendererType, bool) {
	switch s {
	case "opengl", "gl", "":
		return OpenGL, true
	case "headless":
		return Headless, true
	default:
		return 0, false
	}
}
