package metadata

/**
 * @brief Describes the graphics context the renderer is running on.
 * Queried once by the backend at initialization.
 */
type GraphicsContext struct {
	/** @brief The API major version, e.g. 3 for OpenGL 3.3. */
	Major int32
	/** @brief The API minor version. */
	Minor int32
	/** @brief The number of texture units usable across all shader stages. */
	MaxTotalTextureSlots int32
	/** @brief The number of texture units usable from the fragment stage. */
	MaxFragmentTextureSlots int32
	/** @brief The current framebuffer width in pixels. */
	FramebufferWidth uint32
	/** @brief The current framebuffer height in pixels. */
	FramebufferHeight uint32
}

/** @brief Configuration handed to a renderer backend on initialization. */
type RendererBackendConfig struct {
	/** @brief The name of the application. */
	ApplicationName string
	/** @brief Initial framebuffer width. */
	Width uint32
	/** @brief Initial framebuffer height. */
	Height uint32
	/** @brief Synchronize buffer swaps with the display refresh. */
	VSync bool
	/** @brief Colour the framebuffer is cleared to at the start of a frame. */
	ClearColour [4]float32
}
