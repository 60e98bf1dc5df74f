package engine

import (
	"github.com/spaghettifunk/anima2d/engine/renderer/sprite"
	"github.com/spaghettifunk/anima2d/engine/systems"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	// Set by the engine before FnInitialize runs.
	SystemManager *systems.SystemManager
	State         interface{}
	FnInitialize  Initialize
	FnUpdate      Update
	FnRender      Render
	FnOnResize    OnResize
	FnShutdown    Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type Render func(frame *Frame, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error

// Frame is the drawing surface handed to the game once per frame.
type Frame struct {
	renderer *systems.RendererSystem
	Width    uint32
	Height   uint32
}

// Draw queues the sprites of stream. The stream must stay unmodified until
// Draw returns.
func (f *Frame) Draw(stream sprite.Stream) error {
	return f.renderer.DrawSprites(stream)
}
