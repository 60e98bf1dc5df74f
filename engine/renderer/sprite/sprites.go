package sprite

import (
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Request is a single sprite draw request.
type Request struct {
	// Bottom-left corner.
	Position  math.Vec3
	Size      math.Vec2
	Color     math.Vec4
	TexCoords TexCoords
	Texture   *metadata.Texture
}

// Sprites is an array-of-structs stream.
type Sprites []Request

func (s Sprites) Len() int {
	return len(s)
}

func (s Sprites) Position(i int) math.Vec3 {
	return s[i].Position
}

func (s Sprites) Size(i int) math.Vec2 {
	return s[i].Size
}

func (s Sprites) Color(i int) math.Vec4 {
	return s[i].Color
}

func (s Sprites) TexCoords(i int) TexCoords {
	return s[i].TexCoords
}

func (s Sprites) Texture(i int) *metadata.Texture {
	return s[i].Texture
}

func (s Sprites) Offset(n int) Stream {
	core.Assert(n >= 0 && n <= len(s), "offset %d past end of stream of %d sprites", n, len(s))
	return s[n:]
}

func (s Sprites) Subset(o, c int) Stream {
	rest := s.Offset(o).(Sprites)
	core.Assert(c >= 0 && c <= len(rest), "subset of %d sprites exceeds %d remaining", c, len(rest))
	return rest[:c:c]
}
