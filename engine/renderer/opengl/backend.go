package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Surface is the window the context renders into.
type Surface interface {
	SwapBuffers()
	FramebufferSize() (uint32, uint32)
}

// OpenGLRenderer drives an OpenGL 3.3 core context made current by the
// platform layer. Every method must be called on the thread owning it.
type OpenGLRenderer struct {
	surface     Surface
	FrameNumber uint64
	context     *metadata.GraphicsContext
	clearColour [4]float32
}

var _ renderer.RendererBackend = (*OpenGLRenderer)(nil)

func New(surface Surface) *OpenGLRenderer {
	return &OpenGLRenderer{
		surface: surface,
		context: &metadata.GraphicsContext{},
	}
}

func (r *OpenGLRenderer) Initialize(config *metadata.RendererBackendConfig) (*metadata.GraphicsContext, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	gl.GetIntegerv(gl.MAJOR_VERSION, &r.context.Major)
	gl.GetIntegerv(gl.MINOR_VERSION, &r.context.Minor)
	gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &r.context.MaxTotalTextureSlots)
	gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &r.context.MaxFragmentTextureSlots)

	r.context.FramebufferWidth, r.context.FramebufferHeight = config.Width, config.Height
	if r.surface != nil {
		if w, h := r.surface.FramebufferSize(); w != 0 && h != 0 {
			r.context.FramebufferWidth, r.context.FramebufferHeight = w, h
		}
	}
	r.clearColour = config.ClearColour

	core.LogInfo("OpenGL %d.%d on %s (%s)", r.context.Major, r.context.Minor,
		gl.GoStr(gl.GetString(gl.RENDERER)), gl.GoStr(gl.GetString(gl.VENDOR)))
	core.LogInfo("texture units: %d combined, %d fragment", r.context.MaxTotalTextureSlots, r.context.MaxFragmentTextureSlots)

	if r.context.Major < 3 || (r.context.Major == 3 && r.context.Minor < 3) {
		return nil, fmt.Errorf("OpenGL 3.3 required, got %d.%d", r.context.Major, r.context.Minor)
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)
	gl.Viewport(0, 0, int32(r.context.FramebufferWidth), int32(r.context.FramebufferHeight))

	checkError("initialize")
	return r.context, nil
}

func (r *OpenGLRenderer) Shutdown() error {
	gl.UseProgram(0)
	gl.BindVertexArray(0)
	checkError("shutdown")
	core.LogDebug("OpenGL renderer shut down after %d frames", r.FrameNumber)
	return nil
}

func (r *OpenGLRenderer) Resized(width, height uint32) error {
	r.context.FramebufferWidth = width
	r.context.FramebufferHeight = height
	gl.Viewport(0, 0, int32(width), int32(height))
	core.LogDebug("OpenGL renderer resized to %dx%d", width, height)
	return nil
}

func (r *OpenGLRenderer) BeginFrame(deltaTime float64) error {
	gl.ClearColor(r.clearColour[0], r.clearColour[1], r.clearColour[2], r.clearColour[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

func (r *OpenGLRenderer) EndFrame(deltaTime float64) error {
	checkError("end frame")
	if r.surface != nil {
		r.surface.SwapBuffers()
	}
	r.FrameNumber++
	return nil
}
