package systems

import (
	"errors"

	"github.com/spaghettifunk/anima2d/engine/assets"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type SystemManagerConfig struct {
	JobWorkers   int
	JobQueueSize int
	Renderer     RendererSystemConfig
	Textures     TextureSystemConfig
	Fonts        FontSystemConfig
}

type SystemManager struct {
	JobSystem      *JobSystem
	RendererSystem *RendererSystem
	TextureSystem  *TextureSystem
	FontSystem     *FontSystem

	assetManager *assets.AssetManager
	events       *core.EventSystem
}

// NewSystemManager creates and initializes every system. The backend is
// initialized here, so this must run on the thread owning the graphics
// context.
func NewSystemManager(config *SystemManagerConfig, backend renderer.RendererBackend, am *assets.AssetManager, events *core.EventSystem) (*SystemManager, error) {
	sm := &SystemManager{assetManager: am, events: events}

	js, err := NewJobSystem(max(config.JobWorkers, 1), config.JobQueueSize)
	if err != nil {
		return nil, err
	}
	sm.JobSystem = js

	rs, err := NewRendererSystem(backend, am)
	if err != nil {
		sm.Shutdown()
		return nil, err
	}
	if err := rs.Initialize(&config.Renderer); err != nil {
		sm.Shutdown()
		return nil, err
	}
	sm.RendererSystem = rs

	ts, err := NewTextureSystem(&config.Textures, js, am, backend)
	if err != nil {
		sm.Shutdown()
		return nil, err
	}
	if err := ts.Initialize(); err != nil {
		sm.Shutdown()
		return nil, err
	}
	sm.TextureSystem = ts

	fs, err := NewFontSystem(&config.Fonts, ts, am)
	if err != nil {
		sm.Shutdown()
		return nil, err
	}
	sm.FontSystem = fs

	if am != nil && events != nil {
		am.Subscribe(sm.onAssetChanged)
	}
	return sm, nil
}

func (sm *SystemManager) onAssetChanged(path string, assetType metadata.ResourceType) {
	var ctx core.EventContext
	ctx.Data.U32[0] = uint32(assetType)
	sm.events.Fire(core.EVENT_CODE_ASSET_CHANGED, path, ctx)
}

// Update runs the per-frame work of the systems: finished job callbacks and
// texture uploads.
func (sm *SystemManager) Update() {
	sm.JobSystem.Update()
	sm.TextureSystem.Update()
}

// Shutdown stops the systems in reverse dependency order.
func (sm *SystemManager) Shutdown() error {
	var errs []error
	if sm.FontSystem != nil {
		errs = append(errs, sm.FontSystem.Shutdown())
		sm.FontSystem = nil
	}
	// Outstanding loads finish before the textures they target go away.
	if sm.JobSystem != nil {
		errs = append(errs, sm.JobSystem.Shutdown())
	}
	if sm.TextureSystem != nil {
		errs = append(errs, sm.TextureSystem.Shutdown())
		sm.TextureSystem = nil
	}
	if sm.RendererSystem != nil {
		errs = append(errs, sm.RendererSystem.Shutdown())
		sm.RendererSystem = nil
	}
	sm.JobSystem = nil
	return errors.Join(errs...)
}
