package metadata

const (
	/** @brief The default texture name. */
	DEFAULT_TEXTURE_NAME string = "default"
	/** @brief The default plain white texture name. */
	DEFAULT_WHITE_TEXTURE_NAME string = "default_WHITE"
)

/** @brief Invalid identifier. */
const InvalidID uint32 = 4294967295

type TextureReference struct {
	ReferenceCount uint64
	Handle         uint32
	AutoRelease    bool
}

type TextureFlag int

const (
	/** @brief Indicates if the texture has transparency. */
	TextureFlagHasTransparency TextureFlag = 0x1
)

/** @brief Holds bit flags for textures.. */
type TextureFlagBits uint8

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterModeNearest TextureFilter = 0x0
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterModeLinear TextureFilter = 0x1
)

type TextureRepeat int

const (
	TextureRepeatRepeat         TextureRepeat = 0x1
	TextureRepeatMirroredRepeat TextureRepeat = 0x2
	TextureRepeatClampToEdge    TextureRepeat = 0x3
	TextureRepeatClampToBorder  TextureRepeat = 0x4
)

/** @brief Sampling parameters applied when a texture is created. */
type TextureParams struct {
	FilterMinify  TextureFilter
	FilterMagnify TextureFilter
	RepeatU       TextureRepeat
	RepeatV       TextureRepeat
	Mipmaps       bool
}

/** @brief Linear filtering, clamped to edge, no mipmaps. */
func DefaultTextureParams() TextureParams {
	return TextureParams{
		FilterMinify:  TextureFilterModeLinear,
		FilterMagnify: TextureFilterModeLinear,
		RepeatU:       TextureRepeatClampToEdge,
		RepeatV:       TextureRepeatClampToEdge,
	}
}

/**
 * @brief Represents a texture.
 */
type Texture struct {
	/** @brief The unique texture identifier inside the texture system. */
	ID uint32
	/** @brief The GPU handle. Zero until the backend created the texture. */
	Handle uint32
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The number of channels in the texture. */
	ChannelCount uint8
	/** @brief Holds various Flags for this texture. */
	Flags TextureFlagBits
	/** @brief The texture Generation. Incremented every time the data is reloaded. */
	Generation uint32
	/** @brief The texture Name. */
	Name string
	/** @brief Sampling parameters. */
	Params TextureParams
}

/** @brief True once the backend has created the GPU object. */
func (t *Texture) IsUploaded() bool {
	return t != nil && t.Handle != 0
}

/**
 * @brief Builds the pixels of the default 256x256 blue/white checkerboard.
 * This is done in code to eliminate asset dependencies.
 */
func DefaultCheckerboardPixels() (pixels []uint8, dimension uint32) {
	dimension = 256
	const channels = 4
	pixels = make([]uint8, dimension*dimension*channels)
	for i := range pixels {
		pixels[i] = 255
	}
	for row := uint32(0); row < dimension; row++ {
		for col := uint32(0); col < dimension; col++ {
			index := ((row * dimension) + col) * channels
			if (row%2 != 0) == (col%2 != 0) {
				pixels[index+0] = 0
				pixels[index+1] = 0
			}
		}
	}
	return pixels, dimension
}

/** @brief A single opaque white RGBA pixel. */
func DefaultWhitePixels() []uint8 {
	return []uint8{255, 255, 255, 255}
}
