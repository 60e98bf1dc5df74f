package headless

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type buffer struct {
	backend    *Backend
	bufferType metadata.RenderBufferType
	usage      metadata.RenderBufferUsage
	data       []byte
	mapped     bool
	destroyed  bool
	orphans    int
}

func (b *Backend) RenderBufferCreate(bufferType metadata.RenderBufferType, totalSize uint64, usage metadata.RenderBufferUsage) (renderer.RenderBuffer, error) {
	if b.options.BufferError != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrBufferAllocate, b.options.BufferError)
	}
	if totalSize == 0 {
		return nil, fmt.Errorf("%w: zero sized %s buffer", core.ErrBufferAllocate, bufferType)
	}
	b.liveBuffers++
	return &buffer{
		backend:    b,
		bufferType: bufferType,
		usage:      usage,
		data:       make([]byte, totalSize),
	}, nil
}

func (rb *buffer) Type() metadata.RenderBufferType {
	return rb.bufferType
}

func (rb *buffer) TotalSize() uint64 {
	return uint64(len(rb.data))
}

func (rb *buffer) IsMapped() bool {
	return rb.mapped
}

func (rb *buffer) MapMemory(hint metadata.MapHint) ([]byte, error) {
	if rb.destroyed {
		return nil, fmt.Errorf("%w: %s buffer destroyed", core.ErrBufferMap, rb.bufferType)
	}
	if rb.mapped {
		return nil, fmt.Errorf("%w: %s buffer", core.ErrBufferAlreadyMapped, rb.bufferType)
	}
	rb.mapped = true
	return rb.data, nil
}

func (rb *buffer) UnmapMemory() error {
	if !rb.mapped {
		return fmt.Errorf("%w: %s buffer", core.ErrBufferNotMapped, rb.bufferType)
	}
	rb.mapped = false
	return nil
}

func (rb *buffer) LoadRange(offset uint64, data []byte) error {
	if rb.mapped {
		return fmt.Errorf("%w: load into mapped %s buffer", core.ErrBufferAlreadyMapped, rb.bufferType)
	}
	if offset+uint64(len(data)) > uint64(len(rb.data)) {
		return fmt.Errorf("%w: load range %d+%d exceeds %d", core.ErrContractViolation, offset, len(data), len(rb.data))
	}
	copy(rb.data[offset:], data)
	return nil
}

// Orphan swaps in fresh zeroed storage, so data handed out by an earlier
// mapping no longer aliases the buffer.
func (rb *buffer) Orphan() error {
	if rb.mapped {
		return fmt.Errorf("%w: orphan of mapped %s buffer", core.ErrBufferAlreadyMapped, rb.bufferType)
	}
	rb.data = make([]byte, len(rb.data))
	rb.orphans++
	return nil
}

func (rb *buffer) Destroy() {
	if rb.destroyed {
		return
	}
	rb.destroyed = true
	rb.data = nil
	rb.backend.liveBuffers--
}
