package batch

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
	"github.com/spaghettifunk/anima2d/engine/renderer/sprite"
)

const (
	DefaultMaxSprites uint32  = 10000
	DefaultNear       float32 = -1
	DefaultFar        float32 = 100
)

// Backend is the subset of a renderer backend the batch renderer draws with.
type Backend interface {
	renderer.BufferFactory
	renderer.ShaderFactory
	renderer.VertexArrayFactory
	renderer.TextureBackend
}

type Config struct {
	// Sprites per draw call. Zero means DefaultMaxSprites.
	MaxSprites uint32
	// Distinct textures per draw call. Zero means the fragment-stage limit of
	// the context; larger values are clamped to it.
	MaxTextureSlots uint32
	// Clip planes. When equal, DefaultNear and DefaultFar are used.
	Near float32
	Far  float32

	ShaderMode ShaderMode
	// Optional GLSL templates replacing the built-in stages.
	VertexSource   string
	FragmentSource string
}

func DefaultConfig() *Config {
	return &Config{
		MaxSprites: DefaultMaxSprites,
		Near:       DefaultNear,
		Far:        DefaultFar,
		ShaderMode: ShaderModeTinted,
	}
}

// FlushReason records why a batch was submitted.
type FlushReason int

const (
	FlushReasonExplicit FlushReason = iota
	FlushReasonSpriteLimit
	FlushReasonTextureLimit
)

func (r FlushReason) String() string {
	switch r {
	case FlushReasonExplicit:
		return "explicit"
	case FlushReasonSpriteLimit:
		return "sprite_limit"
	case FlushReasonTextureLimit:
		return "texture_limit"
	default:
		return "unknown"
	}
}

type Stats struct {
	DrawCalls           uint64
	SpritesDrawn        uint64
	ExplicitFlushes     uint64
	SpriteLimitFlushes  uint64
	TextureLimitFlushes uint64
	// Highest number of distinct textures seen in one batch.
	PeakTextureSlots uint32
}

func (s Stats) String() string {
	return fmt.Sprintf("draws=%d sprites=%d flushes(explicit=%d sprite_limit=%d texture_limit=%d) peak_slots=%d",
		s.DrawCalls, s.SpritesDrawn, s.ExplicitFlushes, s.SpriteLimitFlushes, s.TextureLimitFlushes, s.PeakTextureSlots)
}

// Renderer2D packs sprites into a fixed-capacity vertex buffer and issues one
// indexed draw per batch. A batch ends when it holds MaxSprites sprites, when
// a sprite needs a texture slot and all slots are taken, or on Flush.
//
// Renderer2D is not safe for concurrent use. It must be driven from the
// goroutine that owns the graphics context.
type Renderer2D struct {
	backend Backend

	vertexBuffer renderer.RenderBuffer
	indexBuffer  renderer.RenderBuffer
	vertexArray  renderer.VertexArray
	shader       renderer.Shader

	// Mapped view of vertexBuffer. Nil between unmap and remap.
	mapped []BatchVertex

	maxSprites       uint32
	batchSpriteCount uint32
	slots            *slotTable

	near float32
	far  float32
	view math.Mat4

	stats Stats
}

// New allocates the GPU resources for config.MaxSprites sprites, compiles the
// sprite shader and maps the vertex buffer for the first batch.
func New(context *metadata.GraphicsContext, backend Backend, config *Config) (*Renderer2D, error) {
	if context == nil {
		return nil, fmt.Errorf("batch renderer requires a graphics context")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if context.MaxFragmentTextureSlots <= 0 {
		return nil, fmt.Errorf("graphics context reports %d fragment texture slots", context.MaxFragmentTextureSlots)
	}

	maxSprites := config.MaxSprites
	if maxSprites == 0 {
		maxSprites = DefaultMaxSprites
	}
	maxSlots := uint32(context.MaxFragmentTextureSlots)
	if config.MaxTextureSlots != 0 {
		maxSlots = math.Clamp(config.MaxTextureSlots, 1, maxSlots)
	}
	near, far := config.Near, config.Far
	if near == far {
		near, far = DefaultNear, DefaultFar
	}

	r := &Renderer2D{
		backend:    backend,
		maxSprites: maxSprites,
		slots:      newSlotTable(maxSlots),
		near:       near,
		far:        far,
		view:       math.NewMat4Identity(),
	}
	if err := r.create(config); err != nil {
		r.Destroy()
		return nil, err
	}

	core.LogDebug("batch renderer created: %d sprites, %d texture slots, %s shader", maxSprites, maxSlots, config.ShaderMode)
	return r, nil
}

func (r *Renderer2D) create(config *Config) error {
	var err error

	r.vertexBuffer, err = r.backend.RenderBufferCreate(metadata.RENDERBUFFER_TYPE_VERTEX,
		uint64(r.maxSprites)*VerticesPerSprite*uint64(VertexSize), metadata.RENDERBUFFER_USAGE_DYNAMIC)
	if err != nil {
		return fmt.Errorf("create sprite vertex buffer: %w", err)
	}

	indices := QuadIndices(r.maxSprites)
	r.indexBuffer, err = r.backend.RenderBufferCreate(metadata.RENDERBUFFER_TYPE_INDEX,
		uint64(len(indices))*4, metadata.RENDERBUFFER_USAGE_STATIC)
	if err != nil {
		return fmt.Errorf("create sprite index buffer: %w", err)
	}
	mem, err := r.indexBuffer.MapMemory(metadata.MAP_HINT_WRITE)
	if err != nil {
		return fmt.Errorf("map sprite index buffer: %w", err)
	}
	copy(mem, indexBytes(indices))
	if err := r.indexBuffer.UnmapMemory(); err != nil {
		return fmt.Errorf("unmap sprite index buffer: %w", err)
	}

	shaderConfig, err := buildShaderConfig(config.ShaderMode, r.slots.max, config.VertexSource, config.FragmentSource)
	if err != nil {
		return err
	}
	r.shader, err = r.backend.ShaderCreate(shaderConfig)
	if err != nil {
		return fmt.Errorf("create sprite shader: %w", err)
	}

	r.vertexArray, err = r.backend.VertexArrayCreate(NewVertexLayout(), r.vertexBuffer, r.indexBuffer)
	if err != nil {
		return fmt.Errorf("create sprite vertex array: %w", err)
	}

	units := make([]int32, r.slots.max)
	for i := range units {
		units[i] = int32(i)
	}
	r.shader.Use()
	if err := r.shader.SetUniformArray(UniformSamplers, units); err != nil {
		return fmt.Errorf("set sampler units: %w", err)
	}

	return r.mapVertices()
}

func (r *Renderer2D) mapVertices() error {
	core.Assert(r.mapped == nil, "sprite vertex buffer mapped twice")
	mem, err := r.vertexBuffer.MapMemory(metadata.MAP_HINT_WRITE)
	if err != nil {
		return fmt.Errorf("map sprite vertex buffer: %w", err)
	}
	r.mapped = vertexView(mem)
	core.Assert(uint32(len(r.mapped)) >= r.maxSprites*VerticesPerSprite,
		"mapped %d vertices, need %d", len(r.mapped), r.maxSprites*VerticesPerSprite)
	return nil
}

// Process appends every sprite of stream to the current batch, flushing
// whenever the sprite or texture-slot capacity would be exceeded. Sprites
// still buffered on return are drawn by the next Flush.
func (r *Renderer2D) Process(stream sprite.Stream, context *metadata.GraphicsContext) error {
	count := stream.Len()
	dataOffset := 0

	for i := 0; i < count; i++ {
		if r.batchSpriteCount+uint32(i-dataOffset) == r.maxSprites {
			r.transformData(stream.Subset(dataOffset, i-dataOffset))
			if err := r.flush(context, FlushReasonSpriteLimit); err != nil {
				return err
			}
			dataOffset = i
		}

		texture := stream.Texture(i)
		core.Assert(texture != nil, "sprite %d has no texture", i)
		if _, ok := r.slots.lookup(texture.Handle); ok {
			continue
		}
		// A full slot table only forces a flush once a texture it does not
		// hold arrives; sprites reusing bound textures keep filling the batch.
		if r.slots.full() {
			r.transformData(stream.Subset(dataOffset, i-dataOffset))
			if err := r.flush(context, FlushReasonTextureLimit); err != nil {
				return err
			}
			dataOffset = i
		}
		r.slots.assign(texture)
	}

	r.transformData(stream.Subset(dataOffset, count-dataOffset))
	return nil
}

// transformData expands each sprite into four vertices written after the
// sprites already in the batch. Every texture must already own a slot.
func (r *Renderer2D) transformData(stream sprite.Stream) {
	n := uint32(stream.Len())
	if n == 0 {
		return
	}
	core.Assert(r.mapped != nil, "sprite vertex buffer is not mapped")
	core.Assert(r.batchSpriteCount+n <= r.maxSprites,
		"batch overflow: %d buffered + %d new > %d", r.batchSpriteCount, n, r.maxSprites)

	out := r.mapped[r.batchSpriteCount*VerticesPerSprite : (r.batchSpriteCount+n)*VerticesPerSprite]
	for s := 0; s < int(n); s++ {
		pos := stream.Position(s)
		size := stream.Size(s)
		colour := stream.Color(s)
		tc := stream.TexCoords(s)
		slot, ok := r.slots.lookup(stream.Texture(s).Handle)
		core.Assert(ok, "texture %d has no slot in the current batch", stream.Texture(s).Handle)

		v := out[s*VerticesPerSprite : s*VerticesPerSprite+VerticesPerSprite]
		// bottom-left
		v[0] = BatchVertex{Position: pos, Color: colour, TexCoord: tc.Origin, TexSlot: slot}
		// top-left
		v[1] = BatchVertex{
			Position: math.NewVec3(pos.X, pos.Y+size.Y, pos.Z),
			Color:    colour,
			TexCoord: math.NewVec2(tc.Origin.X, tc.Origin.Y+tc.Size.Y),
			TexSlot:  slot,
		}
		// top-right
		v[2] = BatchVertex{
			Position: math.NewVec3(pos.X+size.X, pos.Y+size.Y, pos.Z),
			Color:    colour,
			TexCoord: tc.Origin.Add(tc.Size),
			TexSlot:  slot,
		}
		// bottom-right
		v[3] = BatchVertex{
			Position: math.NewVec3(pos.X+size.X, pos.Y, pos.Z),
			Color:    colour,
			TexCoord: math.NewVec2(tc.Origin.X+tc.Size.X, tc.Origin.Y),
			TexSlot:  slot,
		}
	}
	r.batchSpriteCount += n
}

// Flush draws whatever is buffered, possibly nothing, and starts a new batch.
func (r *Renderer2D) Flush(context *metadata.GraphicsContext) error {
	return r.flush(context, FlushReasonExplicit)
}

func (r *Renderer2D) flush(context *metadata.GraphicsContext, reason FlushReason) error {
	core.Assert(r.mapped != nil, "flush without a mapped sprite vertex buffer")

	r.mapped = nil
	if err := r.vertexBuffer.UnmapMemory(); err != nil {
		return fmt.Errorf("unmap sprite vertex buffer: %w", err)
	}

	projection := r.Projection(context).Mul(r.view)
	r.shader.Use()
	if err := r.shader.SetUniform(UniformProjection, projection); err != nil {
		return fmt.Errorf("set projection: %w", err)
	}

	for slot, texture := range r.slots.textures {
		r.backend.TextureBind(texture, uint32(slot))
	}

	if err := r.vertexArray.DrawIndexed(r.batchSpriteCount*IndicesPerSprite, 0); err != nil {
		return fmt.Errorf("draw sprite batch: %w", err)
	}

	r.stats.DrawCalls++
	r.stats.SpritesDrawn += uint64(r.batchSpriteCount)
	switch reason {
	case FlushReasonSpriteLimit:
		r.stats.SpriteLimitFlushes++
	case FlushReasonTextureLimit:
		r.stats.TextureLimitFlushes++
	default:
		r.stats.ExplicitFlushes++
	}
	r.stats.PeakTextureSlots = max(r.stats.PeakTextureSlots, r.slots.len())

	r.batchSpriteCount = 0
	r.slots.reset()

	if err := r.vertexBuffer.Orphan(); err != nil {
		return fmt.Errorf("orphan sprite vertex buffer: %w", err)
	}
	return r.mapVertices()
}

// Projection is a symmetric orthographic frustum centred on the framebuffer
// of context. Flushes upload it multiplied by the view matrix.
func (r *Renderer2D) Projection(context *metadata.GraphicsContext) math.Mat4 {
	return math.NewMat4CenteredOrthographic(
		float32(context.FramebufferWidth), float32(context.FramebufferHeight), r.near, r.far)
}

// View is the camera transform applied before the projection. Identity
// unless SetView was called.
func (r *Renderer2D) View() math.Mat4 {
	return r.view
}

// SetView takes effect from the next flush; sprites already buffered are
// drawn with it too.
func (r *Renderer2D) SetView(view math.Mat4) {
	r.view = view
}

func (r *Renderer2D) Near() float32 {
	return r.near
}

func (r *Renderer2D) SetNear(near float32) {
	r.near = near
}

func (r *Renderer2D) Far() float32 {
	return r.far
}

func (r *Renderer2D) SetFar(far float32) {
	r.far = far
}

func (r *Renderer2D) MaxSprites() uint32 {
	return r.maxSprites
}

func (r *Renderer2D) MaxTextureSlots() uint32 {
	return r.slots.max
}

// Buffered returns the number of sprites waiting for the next flush.
func (r *Renderer2D) Buffered() uint32 {
	return r.batchSpriteCount
}

func (r *Renderer2D) Stats() Stats {
	return r.stats
}

func (r *Renderer2D) ResetStats() {
	r.stats = Stats{}
}

// Destroy releases every GPU resource. Buffered sprites are discarded.
func (r *Renderer2D) Destroy() {
	if r.vertexBuffer != nil && r.mapped != nil {
		r.mapped = nil
		if err := r.vertexBuffer.UnmapMemory(); err != nil {
			core.LogWarn("unmap sprite vertex buffer on destroy: %s", err)
		}
	}
	if r.vertexArray != nil {
		r.vertexArray.Destroy()
		r.vertexArray = nil
	}
	if r.shader != nil {
		r.shader.Destroy()
		r.shader = nil
	}
	if r.indexBuffer != nil {
		r.indexBuffer.Destroy()
		r.indexBuffer = nil
	}
	if r.vertexBuffer != nil {
		r.vertexBuffer.Destroy()
		r.vertexBuffer = nil
	}
	r.batchSpriteCount = 0
	r.slots.reset()
}
