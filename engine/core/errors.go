package core

import (
	"errors"
	"fmt"
)

var (
	ErrShaderCompile       = errors.New("shader compilation failed")
	ErrShaderLink          = errors.New("shader program link failed")
	ErrUniformNotFound     = errors.New("uniform not found")
	ErrBufferAllocate      = errors.New("buffer allocation failed")
	ErrBufferMap           = errors.New("buffer could not be mapped")
	ErrBufferAlreadyMapped = errors.New("buffer is already mapped")
	ErrBufferNotMapped     = errors.New("buffer is not mapped")
	ErrTextureCreate       = errors.New("texture creation failed")
	ErrContractViolation   = errors.New("contract violation")
	ErrUnknown             = errors.New("unknown")
)

// Assert panics with an error wrapping ErrContractViolation when cond is false.
// It guards caller bugs, not runtime conditions.
func Assert(cond bool, format string, args ...interface{}) {
	if cond {
		return
	}
	panic(fmt.Errorf("%w: %s", ErrContractViolation, fmt.Sprintf(format, args...)))
}
