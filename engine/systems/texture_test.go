package systems

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

func TestDefaultTextures(t *testing.T) {
	f := newFixture(t)

	def := f.textures.GetDefaultTexture()
	require.True(t, def.IsUploaded())
	assert.Equal(t, uint32(256), def.Width)
	assert.Equal(t, metadata.TextureFilterModeNearest, def.Params.FilterMagnify)

	white := f.textures.GetDefaultWhiteTexture()
	pixels, ok := f.backend.TexturePixels(white.Handle)
	require.True(t, ok)
	assert.Equal(t, []uint8{255, 255, 255, 255}, pixels)

	got, err := f.textures.Acquire(metadata.DEFAULT_WHITE_TEXTURE_NAME, true)
	require.NoError(t, err)
	assert.Same(t, white, got)
	f.textures.Release(metadata.DEFAULT_WHITE_TEXTURE_NAME)
	assert.Equal(t, 2, f.backend.LiveTextures())
}

func TestAcquireShowsDefaultUntilUploaded(t *testing.T) {
	f := newFixture(t)
	def := f.textures.GetDefaultTexture()

	tex, err := f.textures.Acquire("red", true)
	require.NoError(t, err)
	assert.Equal(t, def.Handle, tex.Handle)
	assert.Equal(t, metadata.InvalidID, tex.Generation)

	f.settle(t)

	assert.NotEqual(t, def.Handle, tex.Handle)
	assert.Equal(t, uint32(0), tex.Generation)
	assert.Equal(t, uint32(2), tex.Width)
	assert.Equal(t, uint32(3), tex.Height)
	pixels, ok := f.backend.TexturePixels(tex.Handle)
	require.True(t, ok)
	assert.Equal(t, bytes.Repeat([]uint8{255, 0, 0, 255}, 6), pixels)
	assert.Equal(t, 3, f.backend.LiveTextures())
}

func TestAcquireCountsReferences(t *testing.T) {
	f := newFixture(t)

	a, err := f.textures.Acquire("red", true)
	require.NoError(t, err)
	b, err := f.textures.Acquire("red", true)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, uint64(2), f.textures.ReferenceCount("red"))
	f.settle(t)

	f.textures.Release("red")
	_, ok := f.textures.Get("red")
	assert.True(t, ok)

	f.textures.Release("red")
	_, ok = f.textures.Get("red")
	assert.False(t, ok)
	assert.Equal(t, 2, f.backend.LiveTextures())
	assert.Equal(t, uint32(0), a.Handle)
}

func TestAcquireWithoutAutoReleaseStaysLoaded(t *testing.T) {
	f := newFixture(t)

	_, err := f.textures.Acquire("red", false)
	require.NoError(t, err)
	f.settle(t)
	f.textures.Release("red")

	_, ok := f.textures.Get("red")
	assert.True(t, ok)
	assert.Equal(t, uint64(0), f.textures.ReferenceCount("red"))
}

func TestAcquireMissingTexture(t *testing.T) {
	f := newFixture(t)
	_, err := f.textures.Acquire("missing", true)
	assert.Error(t, err)
	_, ok := f.textures.Get("missing")
	assert.False(t, ok)
}

func TestReleaseWhileLoadingDropsUpload(t *testing.T) {
	f := newFixture(t)

	_, err := f.textures.Acquire("red", true)
	require.NoError(t, err)
	f.textures.Release("red")
	f.settle(t)

	_, ok := f.textures.Get("red")
	assert.False(t, ok)
	assert.Equal(t, 2, f.backend.LiveTextures())
}

func TestAcquireFromImage(t *testing.T) {
	f := newFixture(t)

	img := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.NRGBA{R: 10, A: 255})
	img.Set(0, 1, color.NRGBA{G: 20, A: 100})

	tex, err := f.textures.AcquireFromImage(img, nil)
	require.NoError(t, err)
	_, err = uuid.Parse(tex.Name)
	assert.NoError(t, err)
	require.True(t, tex.IsUploaded())
	assert.NotZero(t, tex.Flags&metadata.TextureFlagBits(metadata.TextureFlagHasTransparency))

	pixels, ok := f.backend.TexturePixels(tex.Handle)
	require.True(t, ok)
	// Bottom row first.
	assert.Equal(t, []uint8{0, 20, 0, 100, 10, 0, 0, 255}, pixels)

	other, err := f.textures.AcquireFromImage(img, nil)
	require.NoError(t, err)
	assert.NotEqual(t, tex.Name, other.Name)

	handle := tex.Handle
	f.textures.Release(tex.Name)
	_, ok = f.backend.TexturePixels(handle)
	assert.False(t, ok)
	_, ok = f.textures.Get(tex.Name)
	assert.False(t, ok)
}

func TestTextureCountLimit(t *testing.T) {
	f := newFixture(t)
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	for i := 0; i < 8; i++ {
		_, err := f.textures.AcquireFromImage(img, nil)
		require.NoError(t, err)
	}
	_, err := f.textures.AcquireFromImage(img, nil)
	assert.Error(t, err)
	_, err = f.textures.Acquire("red", true)
	assert.Error(t, err)
}

func TestTextureHotReload(t *testing.T) {
	f := newFixture(t)

	tex, err := f.textures.Acquire("red", true)
	require.NoError(t, err)
	f.settle(t)
	first := tex.Handle

	replacePNG(t, filepath.Join(f.dir, "textures", "red.png"), 1, 1, color.NRGBA{B: 255, A: 255})

	require.Eventually(t, func() bool {
		f.jobs.Update()
		f.textures.Update()
		pixels, ok := f.backend.TexturePixels(tex.Handle)
		return ok && bytes.Equal(pixels, []uint8{0, 0, 255, 255})
	}, 3*time.Second, 10*time.Millisecond)

	assert.NotEqual(t, first, tex.Handle)
	assert.GreaterOrEqual(t, tex.Generation, uint32(1))
	assert.Equal(t, uint32(1), tex.Width)
	_, ok := f.backend.TexturePixels(first)
	assert.False(t, ok, "old texture destroyed")
}
