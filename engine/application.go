package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/batch"
)

type WindowConfig struct {
	// Window starting position x axis, if applicable.
	X uint32 `toml:"x"`
	// Window starting position y axis, if applicable.
	Y uint32 `toml:"y"`
	// Window starting width, if applicable.
	Width uint32 `toml:"width"`
	// Window starting height, if applicable.
	Height uint32 `toml:"height"`
	VSync  bool   `toml:"vsync"`
}

type LogSection struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type RendererSection struct {
	// opengl or headless.
	Backend string `toml:"backend"`
	// Frames to render before exiting. Zero runs until quit.
	Frames          uint64     `toml:"frames"`
	MaxSprites      uint32     `toml:"max_sprites"`
	MaxTextureSlots uint32     `toml:"max_texture_slots"`
	Near            float32    `toml:"near"`
	Far             float32    `toml:"far"`
	ShaderMode      string     `toml:"shader_mode"`
	Shader          string     `toml:"shader"`
	ClearColour     [4]float32 `toml:"clear_colour"`
}

type SystemsSection struct {
	JobWorkers      int    `toml:"job_workers"`
	JobQueueSize    int    `toml:"job_queue_size"`
	MaxTextureCount uint32 `toml:"max_texture_count"`
	MaxFontCount    uint8  `toml:"max_font_count"`
}

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name     string          `toml:"name"`
	AssetDir string          `toml:"asset_dir"`
	Window   WindowConfig    `toml:"window"`
	Log      LogSection      `toml:"log"`
	Renderer RendererSection `toml:"renderer"`
	Systems  SystemsSection  `toml:"systems"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:     "Anima2D",
		AssetDir: "assets",
		Window: WindowConfig{
			X:      100,
			Y:      100,
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Log: LogSection{Level: "info"},
		Renderer: RendererSection{
			Backend:     renderer.OpenGL.String(),
			MaxSprites:  batch.DefaultMaxSprites,
			Near:        batch.DefaultNear,
			Far:         batch.DefaultFar,
			ShaderMode:  batch.ShaderModeTinted.String(),
			ClearColour: [4]float32{0.05, 0.05, 0.1, 1},
		},
		Systems: SystemsSection{
			JobWorkers:      2,
			JobQueueSize:    64,
			MaxTextureCount: 1024,
			MaxFontCount:    8,
		},
	}
}

// LoadApplicationConfig reads a TOML file over the defaults. Unknown keys
// are rejected.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			keys := make([]string, 0, len(strict.Errors))
			for _, e := range strict.Errors {
				keys = append(keys, strings.Join(e.Key(), "."))
			}
			return nil, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

func (c *ApplicationConfig) Validate() error {
	var errs []error
	if c.Window.Width == 0 || c.Window.Height == 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if _, ok := renderer.ParseRendererType(c.Renderer.Backend); !ok {
		errs = append(errs, fmt.Errorf("unknown renderer backend %q", c.Renderer.Backend))
	}
	if _, err := batch.ParseShaderMode(c.Renderer.ShaderMode); err != nil {
		errs = append(errs, err)
	}
	if c.Renderer.Near > c.Renderer.Far {
		errs = append(errs, fmt.Errorf("near plane %g is beyond far plane %g", c.Renderer.Near, c.Renderer.Far))
	}
	if c.Systems.MaxTextureCount == 0 {
		errs = append(errs, fmt.Errorf("systems.max_texture_count must be > 0"))
	}
	if c.Systems.MaxFontCount == 0 {
		errs = append(errs, fmt.Errorf("systems.max_font_count must be > 0"))
	}
	if c.Systems.JobWorkers < 1 {
		errs = append(errs, fmt.Errorf("systems.job_workers must be > 0"))
	}
	return errors.Join(errs...)
}

func (c *ApplicationConfig) RendererType() renderer.RendererType {
	t, _ := renderer.ParseRendererType(c.Renderer.Backend)
	return t
}

func (c *ApplicationConfig) batchConfig() (*batch.Config, error) {
	mode, err := batch.ParseShaderMode(c.Renderer.ShaderMode)
	if err != nil {
		return nil, err
	}
	return &batch.Config{
		MaxSprites:      c.Renderer.MaxSprites,
		MaxTextureSlots: c.Renderer.MaxTextureSlots,
		Near:            c.Renderer.Near,
		Far:             c.Renderer.Far,
		ShaderMode:      mode,
	}, nil
}

func (c *ApplicationConfig) logConfig() core.LogConfig {
	return core.LogConfig{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
	}
}
