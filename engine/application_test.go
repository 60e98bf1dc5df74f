package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/batch"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anima2d.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadApplicationConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `name = "bouncer"
asset_dir = "data"

[window]
width = 800
height = 600

[renderer]
backend = "headless"
frames = 120
max_texture_slots = 8
shader_mode = "textured"
clear_colour = [0.0, 0.0, 0.0, 1.0]
`)
	config, err := LoadApplicationConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "bouncer", config.Name)
	assert.Equal(t, "data", config.AssetDir)
	assert.Equal(t, uint32(800), config.Window.Width)
	assert.Equal(t, uint32(100), config.Window.X, "unset keys keep defaults")
	assert.Equal(t, renderer.Headless, config.RendererType())
	assert.Equal(t, uint64(120), config.Renderer.Frames)
	assert.Equal(t, batch.DefaultMaxSprites, config.Renderer.MaxSprites)
	assert.Equal(t, "info", config.Log.Level)

	bc, err := config.batchConfig()
	require.NoError(t, err)
	assert.Equal(t, batch.ShaderModeTextured, bc.ShaderMode)
	assert.Equal(t, uint32(8), bc.MaxTextureSlots)
	assert.Equal(t, batch.DefaultNear, bc.Near)
}

func TestLoadApplicationConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[renderer]\nbackend = \"headless\"\nmax_sprite = 10\n")
	_, err := LoadApplicationConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_sprite")
}

func TestLoadApplicationConfigValidates(t *testing.T) {
	path := writeConfig(t, "[renderer]\nbackend = \"vulkan\"\nshader_mode = \"sepia\"\n")
	_, err := LoadApplicationConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vulkan")
	assert.Contains(t, err.Error(), "sepia")

	_, err = LoadApplicationConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	config := DefaultApplicationConfig()
	require.NoError(t, config.Validate())

	config.Window.Width = 0
	config.Renderer.Near, config.Renderer.Far = 10, 1
	config.Systems.JobWorkers = 0
	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window size")
	assert.Contains(t, err.Error(), "near plane")
	assert.Contains(t, err.Error(), "job_workers")
}
