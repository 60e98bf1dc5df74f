package sprite

import (
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Data is a struct-of-arrays stream: five parallel slices indexed in lockstep.
type Data struct {
	positions []math.Vec3
	sizes     []math.Vec2
	colors    []math.Vec4
	texCoords []TexCoords
	textures  []*metadata.Texture
}

// NewData views the first count elements of each slice.
func NewData(positions []math.Vec3, sizes []math.Vec2, colors []math.Vec4, texCoords []TexCoords, textures []*metadata.Texture, count int) *Data {
	core.Assert(count >= 0, "negative sprite count %d", count)
	core.Assert(len(positions) >= count && len(sizes) >= count && len(colors) >= count &&
		len(texCoords) >= count && len(textures) >= count,
		"sprite data shorter than count %d (pos=%d size=%d col=%d tc=%d tex=%d)",
		count, len(positions), len(sizes), len(colors), len(texCoords), len(textures))

	return &Data{
		positions: positions[:count:count],
		sizes:     sizes[:count:count],
		colors:    colors[:count:count],
		texCoords: texCoords[:count:count],
		textures:  textures[:count:count],
	}
}

func (d *Data) Len() int {
	return len(d.positions)
}

func (d *Data) Position(i int) math.Vec3 {
	return d.positions[i]
}

func (d *Data) Size(i int) math.Vec2 {
	return d.sizes[i]
}

func (d *Data) Color(i int) math.Vec4 {
	return d.colors[i]
}

func (d *Data) TexCoords(i int) TexCoords {
	return d.texCoords[i]
}

func (d *Data) Texture(i int) *metadata.Texture {
	return d.textures[i]
}

func (d *Data) Offset(n int) Stream {
	return d.slice(n, d.Len()-n)
}

func (d *Data) Subset(o, c int) Stream {
	return d.slice(o, c)
}

func (d *Data) slice(o, c int) *Data {
	core.Assert(o >= 0 && o <= d.Len(), "offset %d past end of stream of %d sprites", o, d.Len())
	core.Assert(c >= 0 && c <= d.Len()-o, "subset of %d sprites exceeds %d remaining", c, d.Len()-o)
	return &Data{
		positions: d.positions[o : o+c],
		sizes:     d.sizes[o : o+c],
		colors:    d.colors[o : o+c],
		texCoords: d.texCoords[o : o+c],
		textures:  d.textures[o : o+c],
	}
}
