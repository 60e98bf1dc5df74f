package loaders

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// ShaderConfigFile is the on-disk .shadercfg format:
//
//	name = "sprite"
//
//	[[stages]]
//	stage = "vertex"
//	file = "sprite.vert.glsl"
type ShaderConfigFile struct {
	Name   string            `toml:"name"`
	Stages []ShaderStageFile `toml:"stages"`
}

type ShaderStageFile struct {
	Stage string `toml:"stage"`
	File  string `toml:"file"`
}

func parseStage(s string) (metadata.ShaderStage, error) {
	switch s {
	case "vertex", "vert":
		return metadata.ShaderStageVertex, nil
	case "geometry", "geom":
		return metadata.ShaderStageGeometry, nil
	case "fragment", "frag":
		return metadata.ShaderStageFragment, nil
	default:
		return 0, fmt.Errorf("unknown shader stage %q", s)
	}
}

type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg ShaderConfigFile
	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse shader config %s: %w", path, err)
	}
	if len(cfg.Stages) == 0 {
		return nil, fmt.Errorf("shader config %s declares no stages", path)
	}

	dir := filepath.Dir(path)
	data := &metadata.ShaderResourceData{}
	size := uint64(0)
	for _, s := range cfg.Stages {
		stage, err := parseStage(s.Stage)
		if err != nil {
			return nil, fmt.Errorf("shader config %s: %w", path, err)
		}
		source, err := os.ReadFile(filepath.Join(dir, s.File))
		if err != nil {
			return nil, fmt.Errorf("shader config %s: %w", path, err)
		}
		data.Stages = append(data.Stages, metadata.ShaderStageConfig{Stage: stage, Source: string(source)})
		size += uint64(len(source))
	}

	return &metadata.Resource{
		Type:     metadata.ResourceTypeShader,
		Name:     cfg.Name,
		FullPath: path,
		DataSize: size,
		Data:     data,
	}, nil
}

func (sl *ShaderLoader) Unload(resource *metadata.Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}
