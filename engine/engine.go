package engine

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima2d/engine/assets"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/headless"
	"github.com/spaghettifunk/anima2d/engine/renderer/opengl"
	"github.com/spaghettifunk/anima2d/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// How often frame statistics are logged.
const metricsLogInterval = 5 * time.Second

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	config        *ApplicationConfig
	isRunning     atomic.Bool
	isSuspended   bool
	events        *core.EventSystem
	platform      *platform.Platform
	backend       renderer.RendererBackend
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	width         uint32
	height        uint32
	clock         *core.Clock
	metrics       *core.Metrics
	lastTime      float64
	frameCount    uint64
}

func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = DefaultApplicationConfig()
	}
	config := g.ApplicationConfig
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if g.FnInitialize == nil || g.FnUpdate == nil || g.FnRender == nil {
		return nil, fmt.Errorf("game must provide initialize, update and render callbacks")
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	e := &Engine{
		currentStage: EngineStageBooting,
		gameInstance: g,
		config:       config,
		events:       core.NewEventSystem(),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		assetManager: am,
		width:        config.Window.Width,
		height:       config.Window.Height,
	}

	switch config.RendererType() {
	case renderer.Headless:
		e.backend = headless.New(headless.DefaultOptions())
	default:
		e.platform = platform.New(e.events)
		e.backend = opengl.New(e.platform)
	}

	e.currentStage = EngineStageBootComplete
	return e, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageBootComplete {
		return fmt.Errorf("engine initialized twice")
	}
	e.currentStage = EngineStageInitializing
	config := e.config

	if err := core.LogConfigure(config.logConfig()); err != nil {
		return err
	}

	// register some events
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_KEY_RELEASED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	e.events.Register(core.EVENT_CODE_ASSET_CHANGED, e, e.onAssetChanged)

	if e.platform != nil {
		if err := e.platform.Startup(platform.Config{
			ApplicationName: config.Name,
			X:               config.Window.X,
			Y:               config.Window.Y,
			Width:           config.Window.Width,
			Height:          config.Window.Height,
			VSync:           config.Window.VSync,
		}); err != nil {
			return err
		}
		e.width, e.height = e.platform.FramebufferSize()
	}

	// initialize subsystems
	if s, err := os.Stat(config.AssetDir); err == nil && s.IsDir() {
		if err := e.assetManager.Initialize(config.AssetDir); err != nil {
			return err
		}
	} else {
		core.LogWarn("asset directory %q not found, only in-memory assets are available", config.AssetDir)
	}

	bc, err := config.batchConfig()
	if err != nil {
		return err
	}
	sm, err := systems.NewSystemManager(&systems.SystemManagerConfig{
		JobWorkers:   config.Systems.JobWorkers,
		JobQueueSize: config.Systems.JobQueueSize,
		Renderer: systems.RendererSystemConfig{
			ApplicationName: config.Name,
			Width:           e.width,
			Height:          e.height,
			VSync:           config.Window.VSync,
			ClearColour:     config.Renderer.ClearColour,
			Batch:           bc,
			ShaderName:      config.Renderer.Shader,
		},
		Textures: systems.TextureSystemConfig{MaxTextureCount: config.Systems.MaxTextureCount},
		Fonts:    systems.FontSystemConfig{MaxBitmapFontCount: config.Systems.MaxFontCount},
	}, e.backend, e.assetManager, e.events)
	if err != nil {
		return err
	}
	e.systemManager = sm
	e.gameInstance.SystemManager = sm

	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}

	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.isRunning.Store(true)
	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before running")
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()
	lastReport := time.Now()

	for e.isRunning.Load() {
		if e.platform != nil && !e.platform.PumpMessages() {
			e.isRunning.Store(false)
			break
		}

		if e.isSuspended {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStart := time.Now()

		if err := e.frame(delta); err != nil {
			core.LogError("frame %d failed, shutting down: %s", e.frameCount, err)
			e.isRunning.Store(false)
			return err
		}

		e.metrics.Update(time.Since(frameStart).Seconds())
		e.metrics.Record(e.systemManager.RendererSystem.FrameStats())
		if time.Since(lastReport) >= metricsLogInterval {
			fps, ms := e.metrics.Frame()
			last := e.metrics.LastFrame()
			core.LogDebug("%.0f fps (%.3f ms), %d draw calls, %d sprites, %d texture splits",
				fps, ms, last.DrawCalls, last.Sprites, last.TextureSwap)
			lastReport = time.Now()
		}

		e.frameCount++
		if e.config.Renderer.Frames > 0 && e.frameCount >= e.config.Renderer.Frames {
			core.LogInfo("rendered %d frames, stopping", e.frameCount)
			e.isRunning.Store(false)
		}

		// Update last time
		e.lastTime = currentTime
	}

	return nil
}

func (e *Engine) frame(delta float64) error {
	sm := e.systemManager
	// Finished loads land here, on the thread owning the graphics context.
	sm.Update()

	if err := e.gameInstance.FnUpdate(delta); err != nil {
		return fmt.Errorf("game update: %w", err)
	}

	rs := sm.RendererSystem
	if err := rs.BeginFrame(delta); err != nil {
		return err
	}
	ctx := rs.Context()
	f := &Frame{renderer: rs, Width: ctx.FramebufferWidth, Height: ctx.FramebufferHeight}
	if err := e.gameInstance.FnRender(f, delta); err != nil {
		return fmt.Errorf("game render: %w", err)
	}
	return rs.EndFrame(delta)
}

// Stop asks the main loop to exit after the current frame. Safe to call from
// any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	if e.systemManager != nil {
		errs = append(errs, e.systemManager.Shutdown())
		e.systemManager = nil
	}
	errs = append(errs, e.assetManager.Shutdown())
	e.events.Shutdown()
	if e.platform != nil {
		errs = append(errs, e.platform.Shutdown())
	}
	return errors.Join(errs...)
}

// ApplicationGetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) Events() *core.EventSystem {
	return e.events
}

func (e *Engine) Backend() renderer.RendererBackend {
	return e.backend
}

func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

func (e *Engine) Frames() uint64 {
	return e.frameCount
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	keyCode := data.Data.U16[0]
	if code == core.EVENT_CODE_KEY_PRESSED && keyCode == platform.KeyEscape {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		// Block anything else from processing this.
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	width := data.Data.U32[0]
	height := data.Data.U32[1]

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.systemManager != nil {
		if err := e.systemManager.RendererSystem.OnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	return true
}

func (e *Engine) onAssetChanged(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	if path, ok := sender.(string); ok {
		core.LogInfo("asset changed: %s", path)
	}
	return false
}
