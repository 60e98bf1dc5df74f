package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

func glFilter(f metadata.TextureFilter, mipmaps bool) int32 {
	switch {
	case f == metadata.TextureFilterModeNearest && mipmaps:
		return gl.NEAREST_MIPMAP_NEAREST
	case f == metadata.TextureFilterModeNearest:
		return gl.NEAREST
	case mipmaps:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		return gl.LINEAR
	}
}

func glRepeat(r metadata.TextureRepeat) int32 {
	switch r {
	case metadata.TextureRepeatRepeat:
		return gl.REPEAT
	case metadata.TextureRepeatMirroredRepeat:
		return gl.MIRRORED_REPEAT
	case metadata.TextureRepeatClampToBorder:
		return gl.CLAMP_TO_BORDER
	default:
		return gl.CLAMP_TO_EDGE
	}
}

func (r *OpenGLRenderer) TextureCreate(texture *metadata.Texture, pixels []uint8) error {
	want := int(texture.Width) * int(texture.Height) * 4
	if texture.Width == 0 || texture.Height == 0 || len(pixels) != want {
		return fmt.Errorf("%w: %q is %dx%d but got %d bytes", core.ErrTextureCreate, texture.Name, texture.Width, texture.Height, len(pixels))
	}

	var handle uint32
	gl.GenTextures(1, &handle)
	gl.BindTexture(gl.TEXTURE_2D, handle)

	p := texture.Params
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilter(p.FilterMinify, p.Mipmaps))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilter(p.FilterMagnify, false))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glRepeat(p.RepeatU))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glRepeat(p.RepeatV))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(texture.Width), int32(texture.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	if p.Mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if checkError("texture create " + texture.Name) {
		gl.DeleteTextures(1, &handle)
		return fmt.Errorf("%w: %q", core.ErrTextureCreate, texture.Name)
	}
	texture.Handle = handle
	return nil
}

func (r *OpenGLRenderer) TextureDestroy(texture *metadata.Texture) {
	if texture.Handle == 0 {
		return
	}
	gl.DeleteTextures(1, &texture.Handle)
	texture.Handle = 0
}

func (r *OpenGLRenderer) TextureBind(texture *metadata.Texture, slot uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + slot)
	gl.BindTexture(gl.TEXTURE_2D, texture.Handle)
}
