package assets

import "github.com/spaghettifunk/anima2d/engine/renderer/metadata"

type Loader interface {
	Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) // `interface{}` here allows loaders to take type specific params
	Unload(*metadata.Resource) error
}

// AssetChangeFunc is called from the watcher goroutine when an indexed asset
// is created or modified.
type AssetChangeFunc func(path string, assetType metadata.ResourceType)
