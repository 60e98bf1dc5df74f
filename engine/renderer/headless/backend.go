package headless

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Options describe the simulated device.
type Options struct {
	MaxTotalTextureSlots    int32
	MaxFragmentTextureSlots int32
	// ShaderError, when set, makes every ShaderCreate fail with it.
	ShaderError error
	// BufferError, when set, makes every RenderBufferCreate fail with it.
	BufferError error
}

func DefaultOptions() Options {
	return Options{
		MaxTotalTextureSlots:    32,
		MaxFragmentTextureSlots: 16,
	}
}

// DrawCall is a snapshot of the state a draw call observed.
type DrawCall struct {
	Frame      uint64
	IndexCount uint32
	FirstIndex uint32
	// Vertices referenced by the drawn indices, as raw bytes.
	Vertices []byte
	Indices  []uint32
	// Texture handle bound to each slot since the previous draw.
	Textures map[uint32]uint32
	Shader   string
	Uniforms map[string]interface{}
}

// Backend is an in-memory renderer backend. It validates the GPU protocol
// (map/unmap ordering, buffer bounds, shader inputs) and records every draw.
type Backend struct {
	options Options
	context *metadata.GraphicsContext

	nextHandle  uint32
	frame       uint64
	inFrame     bool
	textures    map[uint32]*textureRecord
	bound       map[uint32]uint32
	current     *shader
	draws       []DrawCall
	liveBuffers int
}

type textureRecord struct {
	width, height uint32
	pixels        []uint8
	params        metadata.TextureParams
}

var _ renderer.RendererBackend = (*Backend)(nil)

func New(options Options) *Backend {
	return &Backend{
		options:  options,
		textures: make(map[uint32]*textureRecord),
		bound:    make(map[uint32]uint32),
	}
}

func (b *Backend) Initialize(config *metadata.RendererBackendConfig) (*metadata.GraphicsContext, error) {
	if b.options.MaxFragmentTextureSlots <= 0 {
		return nil, fmt.Errorf("headless backend needs at least one fragment texture slot")
	}
	b.context = &metadata.GraphicsContext{
		Major:                   3,
		Minor:                   3,
		MaxTotalTextureSlots:    b.options.MaxTotalTextureSlots,
		MaxFragmentTextureSlots: b.options.MaxFragmentTextureSlots,
		FramebufferWidth:        config.Width,
		FramebufferHeight:       config.Height,
	}
	core.LogInfo("headless renderer initialized (%dx%d, %d fragment texture slots)", config.Width, config.Height, b.options.MaxFragmentTextureSlots)
	return b.context, nil
}

func (b *Backend) Shutdown() error {
	core.LogDebug("headless renderer shut down after %d frames, %d draw calls", b.frame, len(b.draws))
	return nil
}

func (b *Backend) Resized(width, height uint32) error {
	if b.context == nil {
		return fmt.Errorf("headless backend resized before initialization")
	}
	b.context.FramebufferWidth = width
	b.context.FramebufferHeight = height
	return nil
}

func (b *Backend) BeginFrame(deltaTime float64) error {
	if b.inFrame {
		return fmt.Errorf("%w: frame %d already begun", core.ErrContractViolation, b.frame)
	}
	b.inFrame = true
	return nil
}

func (b *Backend) EndFrame(deltaTime float64) error {
	if !b.inFrame {
		return fmt.Errorf("%w: EndFrame without BeginFrame", core.ErrContractViolation)
	}
	b.inFrame = false
	b.frame++
	return nil
}

// Draws returns every recorded draw call, oldest first.
func (b *Backend) Draws() []DrawCall {
	return b.draws
}

// ResetDraws forgets the recorded draw calls.
func (b *Backend) ResetDraws() {
	b.draws = nil
}

// Frames is the number of completed frames.
func (b *Backend) Frames() uint64 {
	return b.frame
}

// LiveBuffers is the number of created and not yet destroyed buffers.
func (b *Backend) LiveBuffers() int {
	return b.liveBuffers
}

// TexturePixels returns the pixels uploaded for handle.
func (b *Backend) TexturePixels(handle uint32) ([]uint8, bool) {
	t, ok := b.textures[handle]
	if !ok {
		return nil, false
	}
	return t.pixels, true
}

// LiveTextures is the number of created and not yet destroyed textures.
func (b *Backend) LiveTextures() int {
	return len(b.textures)
}

func (b *Backend) handle() uint32 {
	b.nextHandle++
	return b.nextHandle
}

func (b *Backend) TextureCreate(texture *metadata.Texture, pixels []uint8) error {
	want := int(texture.Width) * int(texture.Height) * 4
	if texture.Width == 0 || texture.Height == 0 || len(pixels) != want {
		return fmt.Errorf("%w: %q is %dx%d but got %d bytes", core.ErrTextureCreate, texture.Name, texture.Width, texture.Height, len(pixels))
	}
	texture.Handle = b.handle()
	b.textures[texture.Handle] = &textureRecord{
		width:  texture.Width,
		height: texture.Height,
		pixels: append([]uint8(nil), pixels...),
		params: texture.Params,
	}
	return nil
}

func (b *Backend) TextureDestroy(texture *metadata.Texture) {
	if _, ok := b.textures[texture.Handle]; !ok {
		core.LogWarn("headless: destroying unknown texture %d (%s)", texture.Handle, texture.Name)
		return
	}
	delete(b.textures, texture.Handle)
	for slot, h := range b.bound {
		if h == texture.Handle {
			delete(b.bound, slot)
		}
	}
	texture.Handle = 0
}

func (b *Backend) TextureBind(texture *metadata.Texture, slot uint32) {
	if slot >= uint32(b.options.MaxFragmentTextureSlots) {
		core.LogWarn("headless: texture unit %d out of range", slot)
		return
	}
	if _, ok := b.textures[texture.Handle]; !ok {
		core.LogWarn("headless: binding unknown texture %d (%s)", texture.Handle, texture.Name)
	}
	b.bound[slot] = texture.Handle
}
