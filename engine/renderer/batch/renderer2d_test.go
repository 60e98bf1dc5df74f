package batch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/headless"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
	"github.com/spaghettifunk/anima2d/engine/renderer/sprite"
)

type fixture struct {
	backend  *headless.Backend
	context  *metadata.GraphicsContext
	renderer *Renderer2D
}

func newFixture(t *testing.T, slots int32, config *Config) *fixture {
	t.Helper()
	opts := headless.DefaultOptions()
	opts.MaxFragmentTextureSlots = slots
	b := headless.New(opts)
	ctx, err := b.Initialize(&metadata.RendererBackendConfig{Width: 200, Height: 100})
	require.NoError(t, err)

	r, err := New(ctx, b, config)
	require.NoError(t, err)
	t.Cleanup(r.Destroy)
	return &fixture{backend: b, context: ctx, renderer: r}
}

func (f *fixture) textures(t *testing.T, n int) []*metadata.Texture {
	t.Helper()
	out := make([]*metadata.Texture, n)
	for i := range out {
		out[i] = &metadata.Texture{Name: "t", Width: 1, Height: 1}
		require.NoError(t, f.backend.TextureCreate(out[i], []uint8{255, 255, 255, 255}))
	}
	return out
}

// spritesFor builds one 1x1 sprite per texture entry, laid out along x.
func spritesFor(textures []*metadata.Texture) sprite.Sprites {
	s := make(sprite.Sprites, len(textures))
	for i, tex := range textures {
		s[i] = sprite.Request{
			Position:  math.NewVec3(float32(i), 0, 0),
			Size:      math.NewVec2(1, 1),
			Color:     math.NewVec4One(),
			TexCoords: sprite.FullTexCoords(),
			Texture:   tex,
		}
	}
	return s
}

func repeat(tex *metadata.Texture, n int) []*metadata.Texture {
	out := make([]*metadata.Texture, n)
	for i := range out {
		out[i] = tex
	}
	return out
}

func nonEmpty(draws []headless.DrawCall) []headless.DrawCall {
	var out []headless.DrawCall
	for _, d := range draws {
		if d.IndexCount > 0 {
			out = append(out, d)
		}
	}
	return out
}

// drawSlots returns the slot of each sprite of a draw and checks all four
// vertices of a sprite agree.
func drawSlots(t *testing.T, d headless.DrawCall) []uint32 {
	t.Helper()
	vertices := DecodeVertices(d.Vertices)
	sprites := int(d.IndexCount / IndicesPerSprite)
	require.GreaterOrEqual(t, len(vertices), sprites*VerticesPerSprite)
	slots := make([]uint32, sprites)
	for s := 0; s < sprites; s++ {
		slot := vertices[s*VerticesPerSprite].TexSlot
		for k := 1; k < VerticesPerSprite; k++ {
			assert.Equal(t, slot, vertices[s*VerticesPerSprite+k].TexSlot, "sprite %d vertex %d", s, k)
		}
		slots[s] = slot
	}
	return slots
}

func TestVertexLayoutIsTightlyPacked(t *testing.T) {
	assert.Equal(t, uint32(40), VertexSize)
	layout := NewVertexLayout()
	require.Len(t, layout.Attributes, 4)
	offsets := []uint32{0, 12, 28, 36}
	for i, a := range layout.Attributes {
		assert.Equal(t, offsets[i], a.Offset, a.Name)
		assert.Equal(t, uint32(i), a.Location, a.Name)
	}
	assert.Equal(t, metadata.VERTEX_ATTRIBUTE_TYPE_UINT32, layout.Attributes[3].Type)
}

func TestQuadIndicesPattern(t *testing.T) {
	assert.Equal(t, []uint32{0, 1, 2, 2, 3, 0, 4, 5, 6, 6, 7, 4}, QuadIndices(2))
}

func TestSingleTextureOneDraw(t *testing.T) {
	for _, n := range []int{1, 7, 16} {
		f := newFixture(t, 8, &Config{MaxSprites: 16})
		tex := f.textures(t, 1)[0]

		require.NoError(t, f.renderer.Process(spritesFor(repeat(tex, n)), f.context))
		assert.Empty(t, f.backend.Draws(), "n=%d", n)
		require.NoError(t, f.renderer.Flush(f.context))

		draws := f.backend.Draws()
		require.Len(t, draws, 1, "n=%d", n)
		assert.Equal(t, uint32(n*6), draws[0].IndexCount)
		assert.Equal(t, uint32(0), draws[0].FirstIndex)
	}
}

func TestSpriteCapacitySplits(t *testing.T) {
	const maxSprites = 10
	for _, n := range []int{11, 20, 21, 35} {
		f := newFixture(t, 8, &Config{MaxSprites: maxSprites})
		tex := f.textures(t, 1)[0]

		require.NoError(t, f.renderer.Process(spritesFor(repeat(tex, n)), f.context))
		require.NoError(t, f.renderer.Flush(f.context))

		draws := nonEmpty(f.backend.Draws())
		want := (n + maxSprites - 1) / maxSprites
		require.Len(t, draws, want, "n=%d", n)
		total := uint32(0)
		for _, d := range draws {
			assert.LessOrEqual(t, d.IndexCount, uint32(maxSprites*6))
			total += d.IndexCount
		}
		assert.Equal(t, uint32(n*6), total)
		assert.Equal(t, uint64(want-1), f.renderer.Stats().SpriteLimitFlushes)
	}
}

func TestSpriteCapacitySpansProcessCalls(t *testing.T) {
	f := newFixture(t, 8, &Config{MaxSprites: 4})
	tex := f.textures(t, 1)[0]

	require.NoError(t, f.renderer.Process(spritesFor(repeat(tex, 3)), f.context))
	require.NoError(t, f.renderer.Process(spritesFor(repeat(tex, 3)), f.context))
	require.Len(t, f.backend.Draws(), 1)
	assert.Equal(t, uint32(24), f.backend.Draws()[0].IndexCount)
	assert.Equal(t, uint32(2), f.renderer.Buffered())

	require.NoError(t, f.renderer.Flush(f.context))
	require.Len(t, f.backend.Draws(), 2)
	assert.Equal(t, uint32(12), f.backend.Draws()[1].IndexCount)
}

func TestFullBatchThenNextCallFlushesFirst(t *testing.T) {
	f := newFixture(t, 8, &Config{MaxSprites: 4})
	tex := f.textures(t, 1)[0]

	require.NoError(t, f.renderer.Process(spritesFor(repeat(tex, 4)), f.context))
	assert.Empty(t, f.backend.Draws())
	require.NoError(t, f.renderer.Process(spritesFor(repeat(tex, 1)), f.context))
	require.Len(t, f.backend.Draws(), 1)
	assert.Equal(t, uint32(24), f.backend.Draws()[0].IndexCount)
	assert.Equal(t, uint32(1), f.renderer.Buffered())
}

func TestDistinctTexturesWithinSlotBudget(t *testing.T) {
	f := newFixture(t, 4, &Config{MaxSprites: 64})
	textures := f.textures(t, 4)

	// 12 sprites cycling over exactly as many textures as there are slots.
	var seq []*metadata.Texture
	for i := 0; i < 12; i++ {
		seq = append(seq, textures[i%4])
	}
	require.NoError(t, f.renderer.Process(spritesFor(seq), f.context))
	assert.Empty(t, f.backend.Draws(), "no forced split")
	require.NoError(t, f.renderer.Flush(f.context))

	draws := f.backend.Draws()
	require.Len(t, draws, 1)
	slots := drawSlots(t, draws[0])

	slotOf := map[uint32]uint32{}
	handleOf := map[uint32]uint32{}
	for i, slot := range slots {
		h := seq[i].Handle
		if s, ok := slotOf[h]; ok {
			assert.Equal(t, s, slot, "texture %d changed slot", h)
		}
		if other, ok := handleOf[slot]; ok {
			assert.Equal(t, other, h, "slot %d shared by two textures", slot)
		}
		slotOf[h] = slot
		handleOf[slot] = h
		assert.Equal(t, h, draws[0].Textures[slot], "texture bound to slot %d", slot)
	}
	assert.Len(t, slotOf, 4)
	assert.Equal(t, uint32(4), f.renderer.Stats().PeakTextureSlots)
}

func TestTexturesBeyondSlotBudgetSplit(t *testing.T) {
	const slots = 4
	for _, n := range []int{5, 8, 9, 17} {
		f := newFixture(t, slots, &Config{MaxSprites: 1000})
		textures := f.textures(t, n)

		// Each texture used twice in a row to exercise dedup across the split.
		var seq []*metadata.Texture
		for _, tex := range textures {
			seq = append(seq, tex, tex)
		}
		require.NoError(t, f.renderer.Process(spritesFor(seq), f.context))
		require.NoError(t, f.renderer.Flush(f.context))

		draws := nonEmpty(f.backend.Draws())
		want := (n + slots - 1) / slots
		require.Len(t, draws, want, "textures=%d", n)
		assert.Equal(t, uint64(want-1), f.renderer.Stats().TextureLimitFlushes)

		total := uint32(0)
		for _, d := range draws {
			distinct := map[uint32]bool{}
			for _, s := range drawSlots(t, d) {
				assert.Less(t, s, uint32(slots))
				distinct[s] = true
			}
			assert.LessOrEqual(t, len(distinct), slots)
			total += d.IndexCount
		}
		assert.Equal(t, uint32(len(seq)*6), total, "no sprite dropped")
	}
}

func TestRepeatedTextureUsesOneSlot(t *testing.T) {
	f := newFixture(t, 2, &Config{MaxSprites: 100})
	tex := f.textures(t, 1)[0]

	require.NoError(t, f.renderer.Process(spritesFor(repeat(tex, 50)), f.context))
	require.NoError(t, f.renderer.Flush(f.context))

	draws := f.backend.Draws()
	require.Len(t, draws, 1)
	for _, s := range drawSlots(t, draws[0]) {
		assert.Equal(t, uint32(0), s)
	}
	assert.Equal(t, uint32(1), f.renderer.Stats().PeakTextureSlots)
	assert.Equal(t, map[uint32]uint32{0: tex.Handle}, draws[0].Textures)
}

func TestFullSlotTableFlushesOnNewTexture(t *testing.T) {
	f := newFixture(t, 2, &Config{MaxSprites: 100})
	textures := f.textures(t, 3)

	// Slots fill on the second sprite; reuses stay in the batch.
	seq := []*metadata.Texture{textures[0], textures[1], textures[0], textures[1], textures[2]}
	require.NoError(t, f.renderer.Process(spritesFor(seq), f.context))

	draws := f.backend.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, []uint32{0, 1, 0, 1}, drawSlots(t, draws[0]))
	assert.Equal(t, uint64(1), f.renderer.Stats().TextureLimitFlushes)
	assert.Equal(t, uint32(1), f.renderer.Buffered())
}

func TestSpriteAndTextureLimitOnSameSprite(t *testing.T) {
	f := newFixture(t, 2, &Config{MaxSprites: 3})
	textures := f.textures(t, 3)

	// The fourth sprite hits the sprite limit and is also a third texture.
	seq := []*metadata.Texture{textures[0], textures[1], textures[1], textures[2]}
	require.NoError(t, f.renderer.Process(spritesFor(seq), f.context))
	require.Len(t, f.backend.Draws(), 1)
	assert.Equal(t, uint64(1), f.renderer.Stats().SpriteLimitFlushes)
	assert.Equal(t, uint64(0), f.renderer.Stats().TextureLimitFlushes)

	require.NoError(t, f.renderer.Flush(f.context))
	draws := f.backend.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, []uint32{0}, drawSlots(t, draws[1]))
	assert.Equal(t, map[uint32]uint32{0: textures[2].Handle}, draws[1].Textures)
}

func TestSpriteGeometry(t *testing.T) {
	f := newFixture(t, 4, &Config{MaxSprites: 8})
	tex := f.textures(t, 1)[0]

	colour := math.NewVec4(0.25, 0.5, 0.75, 1)
	tc := sprite.TexCoords{Origin: math.NewVec2(0.25, 0.5), Size: math.NewVec2(0.5, 0.25)}
	s := sprite.Sprites{{
		Position:  math.NewVec3(0, 0, 0),
		Size:      math.NewVec2(10, 10),
		Color:     colour,
		TexCoords: tc,
		Texture:   tex,
	}}
	require.NoError(t, f.renderer.Process(s, f.context))
	require.NoError(t, f.renderer.Flush(f.context))

	d := f.backend.Draws()[0]
	assert.Equal(t, []uint32{0, 1, 2, 2, 3, 0}, d.Indices)

	v := DecodeVertices(d.Vertices)
	require.Len(t, v, 4)
	assert.Equal(t, math.NewVec3(0, 0, 0), v[0].Position)
	assert.Equal(t, math.NewVec3(0, 10, 0), v[1].Position)
	assert.Equal(t, math.NewVec3(10, 10, 0), v[2].Position)
	assert.Equal(t, math.NewVec3(10, 0, 0), v[3].Position)

	assert.Equal(t, math.NewVec2(0.25, 0.5), v[0].TexCoord)
	assert.Equal(t, math.NewVec2(0.25, 0.75), v[1].TexCoord)
	assert.Equal(t, math.NewVec2(0.75, 0.75), v[2].TexCoord)
	assert.Equal(t, math.NewVec2(0.75, 0.5), v[3].TexCoord)
	for _, vert := range v {
		assert.Equal(t, colour, vert.Color)
	}
}

func TestSecondSpriteStartsAtVertexFour(t *testing.T) {
	f := newFixture(t, 4, &Config{MaxSprites: 8})
	tex := f.textures(t, 1)[0]

	s := spritesFor(repeat(tex, 2))
	s[1].Position = math.NewVec3(5, 6, 2)
	s[1].Size = math.NewVec2(2, 3)
	require.NoError(t, f.renderer.Process(s, f.context))
	require.NoError(t, f.renderer.Flush(f.context))

	d := f.backend.Draws()[0]
	assert.Equal(t, []uint32{0, 1, 2, 2, 3, 0, 4, 5, 6, 6, 7, 4}, d.Indices)
	v := DecodeVertices(d.Vertices)
	require.Len(t, v, 8)
	assert.Equal(t, math.NewVec3(5, 6, 2), v[4].Position)
	assert.Equal(t, math.NewVec3(5, 9, 2), v[5].Position)
	assert.Equal(t, math.NewVec3(7, 9, 2), v[6].Position)
	assert.Equal(t, math.NewVec3(7, 6, 2), v[7].Position)
}

func TestStructOfArraysStream(t *testing.T) {
	f := newFixture(t, 4, &Config{MaxSprites: 8})
	textures := f.textures(t, 2)

	data := sprite.NewData(
		[]math.Vec3{{X: 0}, {X: 1}, {X: 2}},
		[]math.Vec2{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}},
		[]math.Vec4{math.NewVec4One(), math.NewVec4One(), math.NewVec4One()},
		[]sprite.TexCoords{sprite.FullTexCoords(), sprite.FullTexCoords(), sprite.FullTexCoords()},
		[]*metadata.Texture{textures[0], textures[1], textures[0]},
		3,
	)
	require.NoError(t, f.renderer.Process(data.Offset(1), f.context))
	require.NoError(t, f.renderer.Flush(f.context))

	d := f.backend.Draws()[0]
	assert.Equal(t, uint32(12), d.IndexCount)
	assert.Equal(t, []uint32{0, 1}, drawSlots(t, d))
	assert.Equal(t, float32(1), DecodeVertices(d.Vertices)[0].Position.X)
}

func TestProjectionUniform(t *testing.T) {
	f := newFixture(t, 4, nil)
	require.NoError(t, f.renderer.Flush(f.context))

	d := f.backend.Draws()[0]
	p, ok := d.Uniforms[UniformProjection].(math.Mat4)
	require.True(t, ok)
	assert.InDelta(t, 2.0/200.0, p.Data[0], 1e-6)
	assert.InDelta(t, 2.0/100.0, p.Data[5], 1e-6)
	assert.InDelta(t, -2.0/101.0, p.Data[10], 1e-6)

	f.renderer.SetNear(0)
	f.renderer.SetFar(10)
	assert.Equal(t, float32(0), f.renderer.Near())
	assert.Equal(t, float32(10), f.renderer.Far())
	require.NoError(t, f.backend.Resized(400, 300))
	require.NoError(t, f.renderer.Flush(f.context))

	p = f.backend.Draws()[1].Uniforms[UniformProjection].(math.Mat4)
	assert.InDelta(t, 2.0/400.0, p.Data[0], 1e-6)
	assert.InDelta(t, 2.0/300.0, p.Data[5], 1e-6)
	assert.InDelta(t, -2.0/10.0, p.Data[10], 1e-6)
}

func TestViewMatrixAppliedAtFlush(t *testing.T) {
	f := newFixture(t, 4, nil)
	assert.Equal(t, math.NewMat4Identity(), f.renderer.View())

	view := math.NewMat4View2D(math.NewVec2(50, 25), 2, 0)
	f.renderer.SetView(view)
	require.NoError(t, f.renderer.Flush(f.context))

	p := f.backend.Draws()[0].Uniforms[UniformProjection].(math.Mat4)
	assert.Equal(t, f.renderer.Projection(f.context).Mul(view), p)
	// The camera centre lands in the middle of clip space.
	c := math.NewVec3(50, 25, 0).Transform(p)
	assert.InDelta(t, 0, c.X, 1e-6)
	assert.InDelta(t, 0, c.Y, 1e-6)
}

func TestSamplerUnitsUniform(t *testing.T) {
	f := newFixture(t, 16, &Config{MaxSprites: 4, MaxTextureSlots: 5})
	assert.Equal(t, uint32(5), f.renderer.MaxTextureSlots())
	require.NoError(t, f.renderer.Flush(f.context))

	units := f.backend.Draws()[0].Uniforms[UniformSamplers]
	assert.Equal(t, []int32{0, 1, 2, 3, 4}, units)
}

func TestMaxTextureSlotsClampedToContext(t *testing.T) {
	f := newFixture(t, 3, &Config{MaxTextureSlots: 64})
	assert.Equal(t, uint32(3), f.renderer.MaxTextureSlots())
	assert.Equal(t, DefaultMaxSprites, f.renderer.MaxSprites())
	assert.Equal(t, DefaultNear, f.renderer.Near())
	assert.Equal(t, DefaultFar, f.renderer.Far())
}

func TestEmptyFlush(t *testing.T) {
	f := newFixture(t, 4, &Config{MaxSprites: 8})
	require.NoError(t, f.renderer.Flush(f.context))
	require.NoError(t, f.renderer.Flush(f.context))

	draws := f.backend.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, uint32(0), draws[0].IndexCount)
	assert.Empty(t, draws[0].Textures)

	tex := f.textures(t, 1)[0]
	require.NoError(t, f.renderer.Process(spritesFor(repeat(tex, 3)), f.context))
	require.NoError(t, f.renderer.Flush(f.context))
	assert.Equal(t, uint32(18), f.backend.Draws()[2].IndexCount)
	assert.Equal(t, uint64(3), f.renderer.Stats().ExplicitFlushes)
	assert.Equal(t, uint64(3), f.renderer.Stats().SpritesDrawn)
}

func TestEmptyStream(t *testing.T) {
	f := newFixture(t, 4, &Config{MaxSprites: 8})
	require.NoError(t, f.renderer.Process(sprite.Sprites{}, f.context))
	assert.Equal(t, uint32(0), f.renderer.Buffered())
	assert.Empty(t, f.backend.Draws())
}

func TestOrphanKeepsEarlierDrawIntact(t *testing.T) {
	f := newFixture(t, 4, &Config{MaxSprites: 8})
	tex := f.textures(t, 1)[0]

	first := spritesFor(repeat(tex, 1))
	first[0].Position = math.NewVec3(3, 3, 0)
	require.NoError(t, f.renderer.Process(first, f.context))
	require.NoError(t, f.renderer.Flush(f.context))

	second := spritesFor(repeat(tex, 1))
	second[0].Position = math.NewVec3(9, 9, 0)
	require.NoError(t, f.renderer.Process(second, f.context))
	require.NoError(t, f.renderer.Flush(f.context))

	draws := f.backend.Draws()
	assert.Equal(t, math.NewVec3(3, 3, 0), DecodeVertices(draws[0].Vertices)[0].Position)
	assert.Equal(t, math.NewVec3(9, 9, 0), DecodeVertices(draws[1].Vertices)[0].Position)
}

func TestShaderModes(t *testing.T) {
	tinted, err := buildShaderConfig(ShaderModeTinted, 3, "", "")
	require.NoError(t, err)
	textured, err := buildShaderConfig(ShaderModeTextured, 3, "", "")
	require.NoError(t, err)

	fs := tinted.Stages[1].Source
	assert.Contains(t, fs, "uniform sampler2D u_samplers[3];")
	assert.Contains(t, fs, "case 2: return texture(u_samplers[2], uv);")
	assert.NotContains(t, fs, "case 3:")
	assert.Contains(t, fs, "texel * frag_colour")
	// Fully transparent texels show the vertex colour unmodulated.
	assert.Regexp(t, `if \(texel\.a == 0\.0\) \{\s*out_colour = frag_colour;\s*\} else \{\s*out_colour = texel \* frag_colour;`, fs)
	assert.NotContains(t, fs, "out_colour = texel;")
	assert.Contains(t, textured.Stages[1].Source, "out_colour = texel;")
	assert.NotContains(t, textured.Stages[1].Source, "texel * frag_colour")
	assert.Contains(t, tinted.Stages[0].Source, "flat out uint frag_texSlot;")
	assert.Len(t, tinted.Attributes, 4)

	mode, err := ParseShaderMode("textured")
	require.NoError(t, err)
	assert.Equal(t, ShaderModeTextured, mode)
	_, err = ParseShaderMode("sepia")
	assert.Error(t, err)
}

func TestShaderFailureIsFatalToConstruction(t *testing.T) {
	opts := headless.DefaultOptions()
	opts.ShaderError = errors.New("0:12: syntax error")
	b := headless.New(opts)
	ctx, err := b.Initialize(&metadata.RendererBackendConfig{Width: 10, Height: 10})
	require.NoError(t, err)

	r, err := New(ctx, b, nil)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, core.ErrShaderCompile)
	assert.Contains(t, err.Error(), "syntax error")
	assert.Equal(t, 0, b.LiveBuffers())
}

func TestCustomShaderMissingAttributeFails(t *testing.T) {
	b := headless.New(headless.DefaultOptions())
	ctx, err := b.Initialize(&metadata.RendererBackendConfig{Width: 10, Height: 10})
	require.NoError(t, err)

	_, err = New(ctx, b, &Config{VertexSource: "#version 330 core\nin vec3 vert_pos;\nvoid main() {}\n"})
	assert.ErrorIs(t, err, core.ErrShaderLink)
}

func TestBufferFailureIsFatalToConstruction(t *testing.T) {
	opts := headless.DefaultOptions()
	opts.BufferError = errors.New("out of memory")
	b := headless.New(opts)
	ctx, err := b.Initialize(&metadata.RendererBackendConfig{Width: 10, Height: 10})
	require.NoError(t, err)

	_, err = New(ctx, b, nil)
	assert.ErrorIs(t, err, core.ErrBufferAllocate)
}

func TestNilTexturePanics(t *testing.T) {
	f := newFixture(t, 4, &Config{MaxSprites: 8})
	s := spritesFor(repeat(nil, 1))
	assert.PanicsWithError(t, "contract violation: sprite 0 has no texture", func() {
		_ = f.renderer.Process(s, f.context)
	})
}

func TestDestroyReleasesBuffers(t *testing.T) {
	b := headless.New(headless.DefaultOptions())
	ctx, err := b.Initialize(&metadata.RendererBackendConfig{Width: 10, Height: 10})
	require.NoError(t, err)
	r, err := New(ctx, b, &Config{MaxSprites: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, b.LiveBuffers())
	r.Destroy()
	assert.Equal(t, 0, b.LiveBuffers())
}
