package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Buffers are bound to the copy-write target for updates so that vertex
// array state is never disturbed.
const updateTarget = gl.COPY_WRITE_BUFFER

type OpenGLBuffer struct {
	Handle     uint32
	bufferType metadata.RenderBufferType
	usage      uint32
	totalSize  uint64
	mapped     bool
}

func glUsage(usage metadata.RenderBufferUsage) uint32 {
	switch usage {
	case metadata.RENDERBUFFER_USAGE_STATIC:
		return gl.STATIC_DRAW
	case metadata.RENDERBUFFER_USAGE_STREAM:
		return gl.STREAM_DRAW
	default:
		return gl.DYNAMIC_DRAW
	}
}

func (r *OpenGLRenderer) RenderBufferCreate(bufferType metadata.RenderBufferType, totalSize uint64, usage metadata.RenderBufferUsage) (renderer.RenderBuffer, error) {
	if totalSize == 0 {
		return nil, fmt.Errorf("%w: zero sized %s buffer", core.ErrBufferAllocate, bufferType)
	}
	b := &OpenGLBuffer{
		bufferType: bufferType,
		usage:      glUsage(usage),
		totalSize:  totalSize,
	}
	gl.GenBuffers(1, &b.Handle)
	gl.BindBuffer(updateTarget, b.Handle)
	gl.BufferData(updateTarget, int(totalSize), nil, b.usage)
	gl.BindBuffer(updateTarget, 0)
	if checkError("buffer create") {
		gl.DeleteBuffers(1, &b.Handle)
		return nil, fmt.Errorf("%w: %s buffer of %d bytes", core.ErrBufferAllocate, bufferType, totalSize)
	}
	return b, nil
}

func (b *OpenGLBuffer) Type() metadata.RenderBufferType {
	return b.bufferType
}

func (b *OpenGLBuffer) TotalSize() uint64 {
	return b.totalSize
}

func (b *OpenGLBuffer) IsMapped() bool {
	return b.mapped
}

func (b *OpenGLBuffer) MapMemory(hint metadata.MapHint) ([]byte, error) {
	if b.mapped {
		return nil, fmt.Errorf("%w: %s buffer %d", core.ErrBufferAlreadyMapped, b.bufferType, b.Handle)
	}
	var access uint32
	switch hint {
	case metadata.MAP_HINT_READ:
		access = gl.MAP_READ_BIT
	case metadata.MAP_HINT_READ_WRITE:
		access = gl.MAP_READ_BIT | gl.MAP_WRITE_BIT
	default:
		access = gl.MAP_WRITE_BIT
	}

	gl.BindBuffer(updateTarget, b.Handle)
	ptr := gl.MapBufferRange(updateTarget, 0, int(b.totalSize), access)
	gl.BindBuffer(updateTarget, 0)
	if ptr == nil {
		checkError("buffer map")
		return nil, fmt.Errorf("%w: %s buffer %d", core.ErrBufferMap, b.bufferType, b.Handle)
	}
	b.mapped = true
	return unsafe.Slice((*byte)(ptr), b.totalSize), nil
}

func (b *OpenGLBuffer) UnmapMemory() error {
	if !b.mapped {
		return fmt.Errorf("%w: %s buffer %d", core.ErrBufferNotMapped, b.bufferType, b.Handle)
	}
	gl.BindBuffer(updateTarget, b.Handle)
	ok := gl.UnmapBuffer(updateTarget)
	gl.BindBuffer(updateTarget, 0)
	b.mapped = false
	if !ok {
		// The store was corrupted while mapped (e.g. a mode switch); the
		// contents are undefined until rewritten.
		core.LogWarn("%s buffer %d contents lost while mapped", b.bufferType, b.Handle)
	}
	return nil
}

func (b *OpenGLBuffer) LoadRange(offset uint64, data []byte) error {
	if b.mapped {
		return fmt.Errorf("%w: load into mapped %s buffer %d", core.ErrBufferAlreadyMapped, b.bufferType, b.Handle)
	}
	if offset+uint64(len(data)) > b.totalSize {
		return fmt.Errorf("%w: load range %d+%d exceeds %d", core.ErrContractViolation, offset, len(data), b.totalSize)
	}
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(updateTarget, b.Handle)
	gl.BufferSubData(updateTarget, int(offset), len(data), gl.Ptr(data))
	gl.BindBuffer(updateTarget, 0)
	checkError("buffer load")
	return nil
}

func (b *OpenGLBuffer) Orphan() error {
	if b.mapped {
		return fmt.Errorf("%w: orphan of mapped %s buffer %d", core.ErrBufferAlreadyMapped, b.bufferType, b.Handle)
	}
	gl.BindBuffer(updateTarget, b.Handle)
	gl.BufferData(updateTarget, int(b.totalSize), nil, b.usage)
	gl.BindBuffer(updateTarget, 0)
	return nil
}

func (b *OpenGLBuffer) Destroy() {
	if b.Handle == 0 {
		return
	}
	if b.mapped {
		_ = b.UnmapMemory()
	}
	gl.DeleteBuffers(1, &b.Handle)
	b.Handle = 0
}
