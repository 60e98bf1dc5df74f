package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// Sub-directories searched when a name without extension is resolved.
var typeDirs = map[metadata.ResourceType]string{
	metadata.ResourceTypeImage:      "textures",
	metadata.ResourceTypeBitmapFont: "fonts",
	metadata.ResourceTypeShader:     "shaders",
}

type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	subscribers []AssetChangeFunc
	subMutex    sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	started  bool
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Initialize indexes every known asset under assetsDir and starts watching
// the tree for changes.
func (am *AssetManager) Initialize(assetsDir string) error {
	am.root = filepath.Clean(assetsDir)

	// Register loaders
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeImage, &loaders.ImageLoader{})
	am.registerLoader(metadata.ResourceTypeBitmapFont, &loaders.BitmapFontLoader{})

	if err := am.addRecursive(am.root); err != nil {
		return err
	}

	am.started = true
	go am.start()

	core.LogInfo("asset manager watching %s (%d assets)", am.root, am.Count())
	return nil
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	if !am.started {
		return am.fsnotify.Close()
	}
	close(am.done)
	<-am.stopped
	return nil
}

// Subscribe registers fn to be told about created or modified assets.
func (am *AssetManager) Subscribe(fn AssetChangeFunc) {
	am.subMutex.Lock()
	defer am.subMutex.Unlock()
	am.subscribers = append(am.subscribers, fn)
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	return am.watchRecursive(name)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Count is the number of indexed assets.
func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Lookup returns the index entry for path.
func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	a, ok := am.assets[filepath.Clean(path)]
	return a, ok
}

// Resolve maps an asset name to an indexed path. Names may be paths
// (absolute or relative to the asset root) or bare names looked up in the
// type's sub-directory with every supported extension.
func (am *AssetManager) Resolve(name string, resourceType metadata.ResourceType) (string, error) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	candidates := []string{filepath.Clean(name), filepath.Join(am.root, name)}
	if filepath.Ext(name) == "" {
		dir := filepath.Join(am.root, typeDirs[resourceType])
		for _, ext := range extensionsFor(resourceType) {
			candidates = append(candidates, filepath.Join(dir, name+ext), filepath.Join(am.root, name+ext))
		}
	}
	for _, c := range candidates {
		if a, ok := am.assets[c]; ok && a.Type == resourceType {
			return c, nil
		}
	}
	return "", fmt.Errorf("%s asset not found: %s", resourceType, name)
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	path, err := am.Resolve(name, resourceType)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	asset := am.assets[path]
	// Load or reload asset from disk if necessary
	asset.LastLoaded = time.Now()
	am.assets[path] = asset // Update the loaded time
	loader, loaderExists := am.loaders[asset.Type]
	am.mutex.Unlock()

	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}

	return loader.Load(path, resourceType, params)
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	if asset == nil {
		return nil
	}
	am.mutex.RLock()
	loader, ok := am.loaders[asset.Type]
	am.mutex.RUnlock()
	if !ok {
		return fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Unload(asset)
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("failed to watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if t := am.handleFileEvent(e.Name); t != metadata.ResourceTypeNone {
					am.notify(filepath.Clean(e.Name), t)
				}
			}
			// Can't stat a deleted entry, so drop it from the index and the
			// watch list either way.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) notify(path string, t metadata.ResourceType) {
	am.subMutex.RLock()
	subs := append([]AssetChangeFunc(nil), am.subscribers...)
	am.subMutex.RUnlock()

	core.LogDebug("asset changed: %s (%s)", path, t)
	for _, fn := range subs {
		fn(path, t)
	}
}

// watchRecursive adds all directories under the given one to the watch list.
// Files created before the watch is in place are still indexed by the walk.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) metadata.ResourceType {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return assetType
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	path = filepath.Clean(path)
	am.assets[path] = AssetInfo{
		Path: path,
		Type: assetType,
	}
	return assetType
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, filepath.Clean(path))
}

func extensionsFor(t metadata.ResourceType) []string {
	switch t {
	case metadata.ResourceTypeImage:
		return loaders.ImageExtensions
	case metadata.ResourceTypeBitmapFont:
		return []string{".fnt"}
	case metadata.ResourceTypeShader:
		return []string{".shadercfg"}
	default:
		return nil
	}
}

func determineAssetType(path string) metadata.ResourceType {
	ext := strings.ToLower(filepath.Ext(path))
	for _, t := range []metadata.ResourceType{metadata.ResourceTypeImage, metadata.ResourceTypeBitmapFont, metadata.ResourceTypeShader} {
		for _, e := range extensionsFor(t) {
			if e == ext {
				return t
			}
		}
	}
	return metadata.ResourceTypeNone
}
