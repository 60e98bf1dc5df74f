package testbed

import (
	"fmt"
	"image"
	"image/color"

	"github.com/spaghettifunk/anima2d/engine"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
	"github.com/spaghettifunk/anima2d/engine/renderer/sprite"
	"github.com/spaghettifunk/anima2d/engine/systems"
)

const (
	// More textures than any context has fragment slots, so every frame
	// splits on the texture limit.
	DefaultTextureCount = 48
	DefaultSpriteCount  = 20000

	textureSize = 16
	fontName    = "overlay"

	cameraZoomSway = 0.05
	cameraRollSway = 0.03
)

type Options struct {
	Seed         uint64
	SpriteCount  int
	TextureCount int
	// Bitmap font asset used for the overlay. Empty disables it.
	Font string
}

type TestGame struct {
	*engine.Game
	options Options
}

type gameState struct {
	rng *math.RandomGenerator

	width  uint32
	height uint32

	textures []*metadata.Texture
	// Optional texture loaded from the asset directory.
	logo *metadata.Texture

	// Bouncing sprites, struct-of-arrays.
	positions  []math.Vec3
	velocities []math.Vec2
	sizes      []math.Vec2
	colours    []math.Vec4
	texCoords  []sprite.TexCoords
	spriteTex  []*metadata.Texture

	font    *systems.BitmapFont
	overlay sprite.Sprites

	elapsed    float64
	frameTimes float64
	frames     int
	fps        float64
}

func NewTestGame(config *engine.ApplicationConfig, options Options) (*TestGame, error) {
	if options.SpriteCount <= 0 {
		options.SpriteCount = DefaultSpriteCount
	}
	if options.TextureCount <= 0 {
		options.TextureCount = DefaultTextureCount
	}
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State: &gameState{
				rng:    math.NewRandomGenerator(options.Seed),
				width:  config.Window.Width,
				height: config.Window.Height,
			},
		},
		options: options,
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize() error {
	core.LogInfo("initializing testbed: %d sprites over %d textures", g.options.SpriteCount, g.options.TextureCount)
	state := g.state()
	ts := g.SystemManager.TextureSystem

	for i := 0; i < g.options.TextureCount; i++ {
		tex, err := ts.AcquireFromImage(discImage(i, g.options.TextureCount), nil)
		if err != nil {
			return err
		}
		state.textures = append(state.textures, tex)
	}

	// Shows the default texture until the job system finished decoding it.
	if logo, err := ts.Acquire("logo", true); err == nil {
		state.logo = logo
	} else {
		core.LogDebug("no logo texture: %s", err)
	}

	if g.options.Font != "" {
		font, err := g.SystemManager.FontSystem.LoadBitmapFont(fontName, g.options.Font)
		if err != nil {
			core.LogWarn("overlay font %s unavailable: %s", g.options.Font, err)
		} else {
			state.font = font
		}
	}

	n := g.options.SpriteCount
	state.positions = make([]math.Vec3, n)
	state.velocities = make([]math.Vec2, n)
	state.sizes = make([]math.Vec2, n)
	state.colours = make([]math.Vec4, n)
	state.texCoords = make([]sprite.TexCoords, n)
	state.spriteTex = make([]*metadata.Texture, n)
	for i := 0; i < n; i++ {
		s := state.rng.InRange(8, 24)
		state.sizes[i] = math.NewVec2(s, s)
		state.positions[i] = math.NewVec3(
			state.rng.InRange(-float32(state.width)/2, float32(state.width)/2-s),
			state.rng.InRange(-float32(state.height)/2, float32(state.height)/2-s),
			0)
		state.velocities[i] = math.NewVec2(state.rng.InRange(-200, 200), state.rng.InRange(-200, 200))
		state.colours[i] = math.NewVec4(state.rng.InRange(0.5, 1), state.rng.InRange(0.5, 1), state.rng.InRange(0.5, 1), 1)
		state.texCoords[i] = sprite.FullTexCoords()
		state.spriteTex[i] = state.textures[state.rng.Intn(len(state.textures))]
	}
	if state.logo != nil {
		// Every 16th sprite shows the logo.
		for i := 0; i < n; i += 16 {
			state.spriteTex[i] = state.logo
			state.colours[i] = math.NewVec4One()
		}
	}
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()
	dt := float32(deltaTime)
	halfW := float32(state.width) / 2
	halfH := float32(state.height) / 2

	for i := range state.positions {
		p := state.positions[i]
		v := state.velocities[i]
		s := state.sizes[i]
		p.X += v.X * dt
		p.Y += v.Y * dt
		if p.X < -halfW || p.X+s.X > halfW {
			v.X = -v.X
			p.X = math.Clamp(p.X, -halfW, halfW-s.X)
		}
		if p.Y < -halfH || p.Y+s.Y > halfH {
			v.Y = -v.Y
			p.Y = math.Clamp(p.Y, -halfH, halfH-s.Y)
		}
		state.positions[i] = p
		state.velocities[i] = v
	}

	state.elapsed += deltaTime
	state.frameTimes += deltaTime
	state.frames++
	if state.frameTimes >= 1 {
		state.fps = float64(state.frames) / state.frameTimes
		state.frameTimes = 0
		state.frames = 0
	}

	// Slow camera sway so the view transform is always in use.
	t := float32(state.elapsed)
	g.SystemManager.RendererSystem.SetCamera(math.NewVec2(0, 0),
		1+cameraZoomSway*math.Sin(t*0.7), cameraRollSway*math.Sin(t*0.5))

	if state.font != nil {
		state.overlay = state.overlay[:0]
		text := fmt.Sprintf("sprites: %d\ntextures: %d\nfps: %.0f", len(state.positions), len(state.textures), state.fps)
		origin := math.NewVec3(-halfW+8, halfH-8, 0)
		state.font.Layout(text, origin, math.NewVec4(1, 1, 1, 1), 1, &state.overlay)
	}
	return nil
}

func (g *TestGame) Render(frame *engine.Frame, deltaTime float64) error {
	state := g.state()
	n := len(state.positions)
	if err := frame.Draw(sprite.NewData(state.positions, state.sizes, state.colours, state.texCoords, state.spriteTex, n)); err != nil {
		return err
	}
	if len(state.overlay) > 0 {
		return frame.Draw(state.overlay)
	}
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.state()
	ts := g.SystemManager.TextureSystem
	for _, tex := range state.textures {
		ts.Release(tex.Name)
	}
	state.textures = nil
	if state.logo != nil {
		ts.Release(state.logo.Name)
		state.logo = nil
	}
	if state.font != nil {
		g.SystemManager.FontSystem.Release(fontName)
		state.font = nil
	}
	core.LogInfo("testbed ran for %.1fs", state.elapsed)
	return nil
}

// discImage is a soft-edged disc whose hue depends on index. Alpha never
// reaches zero: zero-alpha texels draw the plain sprite colour when tinted.
func discImage(index, count int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, textureSize, textureSize))
	c := hue(float32(index) / float32(count))
	r := float32(textureSize) / 2
	for y := 0; y < textureSize; y++ {
		for x := 0; x < textureSize; x++ {
			dx := float32(x) + 0.5 - r
			dy := float32(y) + 0.5 - r
			d := (dx*dx + dy*dy) / (r * r)
			a := math.Clamp((1-d)*4, 0, 1)
			img.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: max(uint8(a*255), 1)})
		}
	}
	return img
}

func hue(h float32) color.NRGBA {
	h6 := h * 6
	sector := int(h6) % 6
	f := h6 - float32(int(h6))
	up := uint8(f * 255)
	down := uint8((1 - f) * 255)
	switch sector {
	case 0:
		return color.NRGBA{R: 255, G: up, A: 255}
	case 1:
		return color.NRGBA{R: down, G: 255, A: 255}
	case 2:
		return color.NRGBA{G: 255, B: up, A: 255}
	case 3:
		return color.NRGBA{G: down, B: 255, A: 255}
	case 4:
		return color.NRGBA{R: up, B: 255, A: 255}
	default:
		return color.NRGBA{R: 255, B: down, A: 255}
	}
}
