package batch

import (
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// slotTable maps GPU texture handles to sampler slots for the current batch.
// Slots are handed out sequentially from zero and the mapping is injective.
type slotTable struct {
	slots    map[uint32]uint32
	textures []*metadata.Texture
	max      uint32
}

func newSlotTable(max uint32) *slotTable {
	return &slotTable{
		slots:    make(map[uint32]uint32, max),
		textures: make([]*metadata.Texture, 0, max),
		max:      max,
	}
}

func (st *slotTable) lookup(handle uint32) (uint32, bool) {
	slot, ok := st.slots[handle]
	return slot, ok
}

// assign returns the slot of texture, assigning the next free one if needed.
func (st *slotTable) assign(texture *metadata.Texture) uint32 {
	if slot, ok := st.slots[texture.Handle]; ok {
		return slot
	}
	core.Assert(!st.full(), "texture slot table full (%d slots)", st.max)
	slot := uint32(len(st.textures))
	st.slots[texture.Handle] = slot
	st.textures = append(st.textures, texture)
	return slot
}

func (st *slotTable) full() bool {
	return uint32(len(st.textures)) >= st.max
}

func (st *slotTable) len() uint32 {
	return uint32(len(st.textures))
}

func (st *slotTable) reset() {
	clear(st.slots)
	clear(st.textures)
	st.textures = st.textures[:0]
}
