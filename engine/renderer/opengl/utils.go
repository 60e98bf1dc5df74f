package opengl

import (
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/anima2d/engine/core"
)

func GLErrorString(code uint32, getExtended bool) string {
	switch code {
	case gl.NO_ERROR:
		return ConditionalOperator(!getExtended, "GL_NO_ERROR", "GL_NO_ERROR No error has been recorded")
	case gl.INVALID_ENUM:
		return ConditionalOperator(!getExtended, "GL_INVALID_ENUM", "GL_INVALID_ENUM An unacceptable value is specified for an enumerated argument")
	case gl.INVALID_VALUE:
		return ConditionalOperator(!getExtended, "GL_INVALID_VALUE", "GL_INVALID_VALUE A numeric argument is out of range")
	case gl.INVALID_OPERATION:
		return ConditionalOperator(!getExtended, "GL_INVALID_OPERATION", "GL_INVALID_OPERATION The specified operation is not allowed in the current state")
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return ConditionalOperator(!getExtended, "GL_INVALID_FRAMEBUFFER_OPERATION", "GL_INVALID_FRAMEBUFFER_OPERATION The framebuffer object is not complete")
	case gl.OUT_OF_MEMORY:
		return ConditionalOperator(!getExtended, "GL_OUT_OF_MEMORY", "GL_OUT_OF_MEMORY There is not enough memory left to execute the command")
	default:
		return "GL_UNKNOWN_ERROR"
	}
}

func ConditionalOperator(condition bool, res1, res2 string) string {
	if condition {
		return res1
	}
	return res2
}

// checkError drains the GL error queue, logging every entry. It reports
// whether any error was pending.
func checkError(where string) bool {
	failed := false
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		core.LogWarn("OpenGL error in %s: %s", where, GLErrorString(code, true))
		failed = true
	}
	return failed
}
