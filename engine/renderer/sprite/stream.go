package sprite

import (
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// TexCoords is a rectangle in normalized texture space. Origin is the
// bottom-left corner.
type TexCoords struct {
	Origin math.Vec2
	Size   math.Vec2
}

// FullTexCoords covers the whole texture.
func FullTexCoords() TexCoords {
	return TexCoords{Origin: math.NewVec2Zero(), Size: math.NewVec2One()}
}

// TexCoordsFromPixels converts a sub-rectangle given in top-down pixel
// coordinates (as atlas tools emit them) into normalized coordinates for a
// texture uploaded bottom row first.
func TexCoordsFromPixels(x, y, w, h, textureWidth, textureHeight float32) TexCoords {
	return TexCoords{
		Origin: math.NewVec2(x/textureWidth, 1-(y+h)/textureHeight),
		Size:   math.NewVec2(w/textureWidth, h/textureHeight),
	}
}

// Stream is an ordered, fixed-length view over one frame's sprite requests.
// Implementations never own the backing storage; a view is valid only while
// the caller keeps it alive and unmodified.
type Stream interface {
	Len() int
	Position(i int) math.Vec3
	Size(i int) math.Vec2
	Color(i int) math.Vec4
	TexCoords(i int) TexCoords
	Texture(i int) *metadata.Texture
	// Offset returns the view advanced by n elements. n must not exceed Len.
	Offset(n int) Stream
	// Subset returns Offset(o) truncated to c elements. c must not exceed the
	// length remaining after the offset.
	Subset(o, c int) Stream
}
