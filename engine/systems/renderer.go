package systems

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/assets"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/batch"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
	"github.com/spaghettifunk/anima2d/engine/renderer/sprite"
)

type RendererSystemConfig struct {
	ApplicationName string
	Width           uint32
	Height          uint32
	VSync           bool
	ClearColour     [4]float32

	Batch *batch.Config
	// Optional .shadercfg asset replacing the built-in sprite shader.
	ShaderName string
}

type RendererSystem struct {
	backend      renderer.RendererBackend
	assetManager *assets.AssetManager

	context *metadata.GraphicsContext
	batch   *batch.Renderer2D

	inFrame bool
	// Stats at the start of the current frame.
	frameStart batch.Stats
}

func NewRendererSystem(backend renderer.RendererBackend, am *assets.AssetManager) (*RendererSystem, error) {
	if backend == nil {
		return nil, fmt.Errorf("renderer system requires a backend")
	}
	return &RendererSystem{
		backend:      backend,
		assetManager: am,
	}, nil
}

func (r *RendererSystem) Initialize(config *RendererSystemConfig) error {
	ctx, err := r.backend.Initialize(&metadata.RendererBackendConfig{
		ApplicationName: config.ApplicationName,
		Width:           config.Width,
		Height:          config.Height,
		VSync:           config.VSync,
		ClearColour:     config.ClearColour,
	})
	if err != nil {
		return err
	}
	r.context = ctx
	core.LogInfo("graphics context %d.%d: %d fragment / %d total texture slots, framebuffer %dx%d",
		ctx.Major, ctx.Minor, ctx.MaxFragmentTextureSlots, ctx.MaxTotalTextureSlots, ctx.FramebufferWidth, ctx.FramebufferHeight)

	bc := batch.DefaultConfig()
	if config.Batch != nil {
		c := *config.Batch
		bc = &c
	}
	if config.ShaderName != "" {
		if err := r.loadShaderSources(config.ShaderName, bc); err != nil {
			return err
		}
	}

	r.batch, err = batch.New(ctx, r.backend, bc)
	if err != nil {
		return err
	}
	return nil
}

func (r *RendererSystem) loadShaderSources(name string, bc *batch.Config) error {
	if r.assetManager == nil {
		return fmt.Errorf("shader %s requested without an asset manager", name)
	}
	res, err := r.assetManager.LoadAsset(name, metadata.ResourceTypeShader, nil)
	if err != nil {
		return err
	}
	defer r.assetManager.UnloadAsset(res)

	data, ok := res.Data.(*metadata.ShaderResourceData)
	if !ok {
		return fmt.Errorf("unexpected shader resource data %T", res.Data)
	}
	for _, stage := range data.Stages {
		switch stage.Stage {
		case metadata.ShaderStageVertex:
			bc.VertexSource = stage.Source
		case metadata.ShaderStageFragment:
			bc.FragmentSource = stage.Source
		default:
			core.LogWarn("shader %s: ignoring %s stage", name, stage.Stage)
		}
	}
	return nil
}

func (r *RendererSystem) Shutdown() error {
	if r.batch != nil {
		r.batch.Destroy()
		r.batch = nil
	}
	return r.backend.Shutdown()
}

// Context is the graphics context the backend reported on initialization.
func (r *RendererSystem) Context() *metadata.GraphicsContext {
	return r.context
}

func (r *RendererSystem) Batch() *batch.Renderer2D {
	return r.batch
}

func (r *RendererSystem) Backend() renderer.RendererBackend {
	return r.backend
}

// OnResize updates the framebuffer size the next projection is built from.
func (r *RendererSystem) OnResize(width, height uint32) error {
	if r.context == nil {
		return fmt.Errorf("renderer resized before initialization")
	}
	if err := r.backend.Resized(width, height); err != nil {
		return err
	}
	r.context.FramebufferWidth = width
	r.context.FramebufferHeight = height
	return nil
}

// SetCamera moves the 2D camera used by the following frames. It cannot
// change inside a frame, where buffered sprites would pick it up.
func (r *RendererSystem) SetCamera(position math.Vec2, zoom, rotation float32) {
	core.Assert(!r.inFrame, "SetCamera inside a frame")
	if zoom <= 0 {
		zoom = 1
	}
	r.batch.SetView(math.NewMat4View2D(position, zoom, rotation))
}

func (r *RendererSystem) BeginFrame(deltaTime float64) error {
	core.Assert(!r.inFrame, "BeginFrame called twice")
	if err := r.backend.BeginFrame(deltaTime); err != nil {
		return err
	}
	r.inFrame = true
	r.frameStart = r.batch.Stats()
	return nil
}

// DrawSprites queues stream for drawing. Full batches are submitted as they
// fill up; the rest is drawn by EndFrame.
func (r *RendererSystem) DrawSprites(stream sprite.Stream) error {
	core.Assert(r.inFrame, "DrawSprites outside of a frame")
	return r.batch.Process(stream, r.context)
}

// EndFrame flushes the open batch and presents the frame.
func (r *RendererSystem) EndFrame(deltaTime float64) error {
	core.Assert(r.inFrame, "EndFrame without BeginFrame")
	r.inFrame = false
	if err := r.batch.Flush(r.context); err != nil {
		return err
	}
	return r.backend.EndFrame(deltaTime)
}

// FrameStats is what the batch renderer did since the last BeginFrame.
func (r *RendererSystem) FrameStats() core.FrameStats {
	now := r.batch.Stats()
	start := r.frameStart
	return core.FrameStats{
		DrawCalls: now.DrawCalls - start.DrawCalls,
		Sprites:   now.SpritesDrawn - start.SpritesDrawn,
		Flushes: (now.ExplicitFlushes - start.ExplicitFlushes) +
			(now.SpriteLimitFlushes - start.SpriteLimitFlushes) +
			(now.TextureLimitFlushes - start.TextureLimitFlushes),
		TextureSwap: now.TextureLimitFlushes - start.TextureLimitFlushes,
	}
}

func (r *RendererSystem) Stats() batch.Stats {
	return r.batch.Stats()
}
