package systems

import (
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima2d/engine/assets"
	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
	/** @brief Sampling parameters for textures loaded from disk. */
	Params metadata.TextureParams
}

type textureEntry struct {
	texture   *metadata.Texture
	reference metadata.TextureReference
	// Indexed asset path. Empty for textures created from memory.
	path string
	// True once the texture owns its GPU object. Until then it borrows the
	// default texture's handle.
	uploaded bool
}

type textureLoadParams struct {
	name       string
	generation uint32
}

type TextureSystem struct {
	Config *TextureSystemConfig

	defaultTexture      *metadata.Texture
	defaultWhiteTexture *metadata.Texture

	// Hashtable for texture lookups.
	registered map[string]*textureEntry
	ids        *core.IdentifierPool

	// Asset paths reported changed by the watcher goroutine.
	reloadMu sync.Mutex
	reloads  map[string]struct{}

	// sub systems
	jobSystem    *JobSystem
	assetManager *assets.AssetManager
	backend      renderer.TextureBackend
}

func NewTextureSystem(config *TextureSystemConfig, js *JobSystem, am *assets.AssetManager, backend renderer.TextureBackend) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		return nil, fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
	}
	if config.Params == (metadata.TextureParams{}) {
		config.Params = metadata.DefaultTextureParams()
	}

	return &TextureSystem{
		Config:       config,
		registered:   make(map[string]*textureEntry),
		ids:          core.NewIdentifierPool(int(config.MaxTextureCount)),
		reloads:      make(map[string]struct{}),
		jobSystem:    js,
		assetManager: am,
		backend:      backend,
	}, nil
}

// Initialize uploads the built-in textures. Must run on the render thread.
func (ts *TextureSystem) Initialize() error {
	pixels, dim := metadata.DefaultCheckerboardPixels()
	ts.defaultTexture = &metadata.Texture{
		ID:           metadata.InvalidID,
		Name:         metadata.DEFAULT_TEXTURE_NAME,
		Width:        dim,
		Height:       dim,
		ChannelCount: 4,
		Params: metadata.TextureParams{
			FilterMinify:  metadata.TextureFilterModeNearest,
			FilterMagnify: metadata.TextureFilterModeNearest,
			RepeatU:       metadata.TextureRepeatRepeat,
			RepeatV:       metadata.TextureRepeatRepeat,
		},
	}
	if err := ts.backend.TextureCreate(ts.defaultTexture, pixels); err != nil {
		return fmt.Errorf("failed to create default texture: %w", err)
	}

	ts.defaultWhiteTexture = &metadata.Texture{
		ID:           metadata.InvalidID,
		Name:         metadata.DEFAULT_WHITE_TEXTURE_NAME,
		Width:        1,
		Height:       1,
		ChannelCount: 4,
		Params:       metadata.DefaultTextureParams(),
	}
	if err := ts.backend.TextureCreate(ts.defaultWhiteTexture, metadata.DefaultWhitePixels()); err != nil {
		return fmt.Errorf("failed to create default white texture: %w", err)
	}

	if ts.assetManager != nil {
		ts.assetManager.Subscribe(ts.onAssetChanged)
	}
	return nil
}

func (ts *TextureSystem) Shutdown() error {
	// Destroy all loaded textures.
	for name, e := range ts.registered {
		ts.destroyEntry(e)
		delete(ts.registered, name)
	}
	if ts.defaultTexture != nil {
		ts.backend.TextureDestroy(ts.defaultTexture)
	}
	if ts.defaultWhiteTexture != nil {
		ts.backend.TextureDestroy(ts.defaultWhiteTexture)
	}
	return nil
}

func (ts *TextureSystem) GetDefaultTexture() *metadata.Texture {
	return ts.defaultTexture
}

func (ts *TextureSystem) GetDefaultWhiteTexture() *metadata.Texture {
	return ts.defaultWhiteTexture
}

// Get returns a registered texture without touching its reference count.
func (ts *TextureSystem) Get(name string) (*metadata.Texture, bool) {
	if t := ts.builtin(name); t != nil {
		return t, true
	}
	e, ok := ts.registered[name]
	if !ok {
		return nil, false
	}
	return e.texture, true
}

// ReferenceCount is the number of outstanding acquisitions of name.
func (ts *TextureSystem) ReferenceCount(name string) uint64 {
	if e, ok := ts.registered[name]; ok {
		return e.reference.ReferenceCount
	}
	return 0
}

func (ts *TextureSystem) builtin(name string) *metadata.Texture {
	switch name {
	case metadata.DEFAULT_TEXTURE_NAME:
		return ts.defaultTexture
	case metadata.DEFAULT_WHITE_TEXTURE_NAME:
		return ts.defaultWhiteTexture
	default:
		return nil
	}
}

/**
 * @brief Acquires the texture with the given name, loading it if needed.
 * A newly requested texture is decoded on the job system and shows the
 * default texture until Update has uploaded it.
 */
func (ts *TextureSystem) Acquire(name string, autoRelease bool) (*metadata.Texture, error) {
	if t := ts.builtin(name); t != nil {
		return t, nil
	}

	if e, ok := ts.registered[name]; ok {
		e.reference.ReferenceCount++
		return e.texture, nil
	}

	if uint32(len(ts.registered)) >= ts.Config.MaxTextureCount {
		return nil, fmt.Errorf("texture system cannot hold more than %d textures", ts.Config.MaxTextureCount)
	}
	path, err := ts.assetManager.Resolve(name, metadata.ResourceTypeImage)
	if err != nil {
		return nil, err
	}

	e := &textureEntry{
		texture: &metadata.Texture{
			Name:       name,
			Handle:     ts.defaultTexture.Handle,
			Width:      ts.defaultTexture.Width,
			Height:     ts.defaultTexture.Height,
			Generation: metadata.InvalidID,
			Params:     ts.Config.Params,
		},
		reference: metadata.TextureReference{ReferenceCount: 1, AutoRelease: autoRelease},
		path:      path,
	}
	e.texture.ID = ts.ids.Acquire(e.texture)
	e.reference.Handle = e.texture.ID
	ts.registered[name] = e

	if err := ts.loadTexture(e); err != nil {
		ts.removeEntry(name, e)
		return nil, err
	}
	return e.texture, nil
}

/**
 * @brief Creates a texture from an in-memory image. The texture is named with
 * a fresh uuid, uploaded immediately and released like any other texture.
 */
func (ts *TextureSystem) AcquireFromImage(img image.Image, params *metadata.TextureParams) (*metadata.Texture, error) {
	if uint32(len(ts.registered)) >= ts.Config.MaxTextureCount {
		return nil, fmt.Errorf("texture system cannot hold more than %d textures", ts.Config.MaxTextureCount)
	}

	data := loaders.ImageToRGBA(img, true)
	name := uuid.NewString()
	t := &metadata.Texture{
		Name:         name,
		Width:        data.Width,
		Height:       data.Height,
		ChannelCount: data.ChannelCount,
		Params:       ts.Config.Params,
	}
	if params != nil {
		t.Params = *params
	}
	if data.HasTransparency {
		t.Flags |= metadata.TextureFlagBits(metadata.TextureFlagHasTransparency)
	}
	if err := ts.backend.TextureCreate(t, data.Pixels); err != nil {
		return nil, err
	}

	e := &textureEntry{
		texture:   t,
		reference: metadata.TextureReference{ReferenceCount: 1, AutoRelease: true},
		uploaded:  true,
	}
	t.ID = ts.ids.Acquire(t)
	e.reference.Handle = t.ID
	ts.registered[name] = e
	return t, nil
}

/**
 * @brief Releases one reference. Auto-release textures are destroyed when
 * the count reaches zero. Built-in textures are never released.
 */
func (ts *TextureSystem) Release(name string) {
	if ts.builtin(name) != nil {
		return
	}
	e, ok := ts.registered[name]
	if !ok {
		core.LogWarn("tried to release non-existent texture '%s'", name)
		return
	}
	if e.reference.ReferenceCount == 0 {
		core.LogWarn("tried to release texture '%s' with no references", name)
		return
	}
	e.reference.ReferenceCount--
	if e.reference.ReferenceCount == 0 && e.reference.AutoRelease {
		ts.removeEntry(name, e)
		core.LogDebug("texture '%s' unloaded because reference count=0 and auto release=true", name)
	}
}

/**
 * @brief Updates the texture system. Should happen once an update cycle, on
 * the render thread. Schedules reloads of textures whose asset changed.
 */
func (ts *TextureSystem) Update() {
	ts.reloadMu.Lock()
	paths := ts.reloads
	ts.reloads = make(map[string]struct{})
	ts.reloadMu.Unlock()

	if len(paths) == 0 {
		return
	}
	for _, e := range ts.registered {
		if _, ok := paths[e.path]; ok && e.path != "" {
			core.LogInfo("reloading texture '%s'", e.texture.Name)
			if err := ts.loadTexture(e); err != nil {
				core.LogError("failed to schedule reload of '%s': %s", e.texture.Name, err)
			}
		}
	}
}

func (ts *TextureSystem) onAssetChanged(path string, assetType metadata.ResourceType) {
	if assetType != metadata.ResourceTypeImage {
		return
	}
	ts.reloadMu.Lock()
	ts.reloads[path] = struct{}{}
	ts.reloadMu.Unlock()
}

func (ts *TextureSystem) loadTexture(e *textureEntry) error {
	// Kick off a texture loading job. Only handles loading from disk
	// to CPU. GPU upload is handled after completion of this job.
	return ts.jobSystem.Submit(metadata.JobTask{
		Name: "texture load " + e.texture.Name,
		InputParams: &textureLoadParams{
			name:       e.texture.Name,
			generation: e.texture.Generation,
		},
		OnStart:    ts.textureLoadJobStart,
		OnComplete: ts.textureLoadJobSuccess(e),
		OnFailure: func(err error) {
			core.LogError("failed to load texture '%s': %s", e.texture.Name, err)
		},
	})
}

type textureLoadResult struct {
	params *textureLoadParams
	image  *metadata.ImageResourceData
}

func (ts *TextureSystem) textureLoadJobStart(params interface{}) (interface{}, error) {
	p := params.(*textureLoadParams)
	res, err := ts.assetManager.LoadAsset(p.name, metadata.ResourceTypeImage, &metadata.ImageResourceParams{FlipY: true})
	if err != nil {
		return nil, err
	}
	data, ok := res.Data.(*metadata.ImageResourceData)
	if !ok {
		return nil, fmt.Errorf("unexpected image resource data %T", res.Data)
	}
	return &textureLoadResult{params: p, image: data}, nil
}

func (ts *TextureSystem) textureLoadJobSuccess(e *textureEntry) metadata.JobOnComplete {
	return func(result interface{}) {
		r := result.(*textureLoadResult)
		if current, ok := ts.registered[r.params.name]; !ok || current != e {
			// Released while loading.
			return
		}

		// Upload into a temporary so the old GPU object stays valid until
		// the new one exists.
		tmp := &metadata.Texture{
			Name:   e.texture.Name,
			Width:  r.image.Width,
			Height: r.image.Height,
			Params: e.texture.Params,
		}
		if err := ts.backend.TextureCreate(tmp, r.image.Pixels); err != nil {
			core.LogError("failed to upload texture '%s': %s", e.texture.Name, err)
			return
		}
		if e.uploaded {
			old := *e.texture
			ts.backend.TextureDestroy(&old)
		}

		t := e.texture
		t.Handle = tmp.Handle
		t.Width = r.image.Width
		t.Height = r.image.Height
		t.ChannelCount = r.image.ChannelCount
		t.Flags = 0
		if r.image.HasTransparency {
			t.Flags |= metadata.TextureFlagBits(metadata.TextureFlagHasTransparency)
		}
		if t.Generation == metadata.InvalidID {
			t.Generation = 0
		} else {
			t.Generation++
		}
		e.uploaded = true
		core.LogDebug("texture '%s' uploaded (%dx%d, generation %d)", t.Name, t.Width, t.Height, t.Generation)
	}
}

func (ts *TextureSystem) destroyEntry(e *textureEntry) {
	if e.uploaded {
		ts.backend.TextureDestroy(e.texture)
	}
	e.texture.Handle = 0
	e.uploaded = false
	if err := ts.ids.Release(e.texture.ID); err != nil {
		core.LogWarn("texture '%s': %s", e.texture.Name, err)
	}
	e.texture.ID = metadata.InvalidID
	e.texture.Generation = metadata.InvalidID
}

func (ts *TextureSystem) removeEntry(name string, e *textureEntry) {
	ts.destroyEntry(e)
	delete(ts.registered, name)
}
