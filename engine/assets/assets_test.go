package assets

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

const testFont = `info face="Test" size=8 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=0 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=10 base=8 scaleW=16 scaleH=16 pages=1 packed=0 alphaChnl=0 redChnl=0 greenChnl=0 blueChnl=0
page id=0 file="test_0.png"
chars count=2
char id=65   x=0     y=0     width=4     height=6     xoffset=0     yoffset=2     xadvance=5     page=0  chnl=15
char id=66   x=4     y=0     width=4     height=6     xoffset=1     yoffset=2     xadvance=6     page=0  chnl=15
kernings count=1
kerning first=65  second=66  amount=-1
`

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestManager(t *testing.T) (*AssetManager, string) {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "textures", "red.png"), 2, 3, color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "fonts", "test_0.png"), 16, 16, color.White)
	writeFile(t, filepath.Join(dir, "fonts", "test.fnt"), testFont)
	writeFile(t, filepath.Join(dir, "shaders", "sprite.vert.glsl"), "#version 330 core\nvoid main() {}\n")
	writeFile(t, filepath.Join(dir, "shaders", "sprite.frag.glsl"), "#version 330 core\nuniform sampler2D u_samplers[{{.SlotCount}}];\nvoid main() {}\n")
	writeFile(t, filepath.Join(dir, "shaders", "sprite.shadercfg"), `name = "sprite"

[[stages]]
stage = "vertex"
file = "sprite.vert.glsl"

[[stages]]
stage = "fragment"
file = "sprite.frag.glsl"
`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	t.Cleanup(func() { _ = am.Shutdown() })
	return am, dir
}

func TestIndexAndResolve(t *testing.T) {
	am, dir := newTestManager(t)
	assert.Equal(t, 6, am.Count(), "txt files are not indexed")

	path, err := am.Resolve("red", metadata.ResourceTypeImage)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "textures", "red.png"), path)

	path, err = am.Resolve("textures/red.png", metadata.ResourceTypeImage)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "textures", "red.png"), path)

	_, err = am.Resolve("red", metadata.ResourceTypeBitmapFont)
	assert.Error(t, err)
	_, err = am.Resolve("missing", metadata.ResourceTypeImage)
	assert.Error(t, err)

	info, ok := am.Lookup(filepath.Join(dir, "fonts", "test.fnt"))
	require.True(t, ok)
	assert.Equal(t, metadata.ResourceTypeBitmapFont, info.Type)
}

func TestLoadImage(t *testing.T) {
	am, _ := newTestManager(t)
	res, err := am.LoadAsset("red", metadata.ResourceTypeImage, &metadata.ImageResourceParams{FlipY: true})
	require.NoError(t, err)
	assert.Equal(t, "red", res.Name)

	data, ok := res.Data.(*metadata.ImageResourceData)
	require.True(t, ok)
	assert.Equal(t, uint32(2), data.Width)
	assert.Equal(t, uint32(3), data.Height)
	assert.Len(t, data.Pixels, 2*3*4)
	assert.Equal(t, []uint8{255, 0, 0, 255}, data.Pixels[:4])
	assert.False(t, data.HasTransparency)

	info, _ := am.Lookup(res.FullPath)
	assert.False(t, info.LastLoaded.IsZero())

	require.NoError(t, am.UnloadAsset(res))
	assert.Nil(t, res.Data)
}

func TestLoadShaderConfig(t *testing.T) {
	am, _ := newTestManager(t)
	res, err := am.LoadAsset("sprite", metadata.ResourceTypeShader, nil)
	require.NoError(t, err)
	assert.Equal(t, "sprite", res.Name)

	data := res.Data.(*metadata.ShaderResourceData)
	require.Len(t, data.Stages, 2)
	assert.Equal(t, metadata.ShaderStageVertex, data.Stages[0].Stage)
	assert.Equal(t, metadata.ShaderStageFragment, data.Stages[1].Stage)
	assert.Contains(t, data.Stages[1].Source, "{{.SlotCount}}")
}

func TestLoadShaderConfigRejectsUnknownKeys(t *testing.T) {
	am, dir := newTestManager(t)
	writeFile(t, filepath.Join(dir, "shaders", "bad.shadercfg"), "name = \"bad\"\ncolour = 1\n")
	require.Eventually(t, func() bool {
		_, err := am.Resolve("bad", metadata.ResourceTypeShader)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	_, err := am.LoadAsset("bad", metadata.ResourceTypeShader, nil)
	assert.Error(t, err)
}

func TestLoadBitmapFont(t *testing.T) {
	am, dir := newTestManager(t)
	res, err := am.LoadAsset("test", metadata.ResourceTypeBitmapFont, nil)
	require.NoError(t, err)

	data := res.Data.(*metadata.BitmapFontResourceData)
	assert.Equal(t, "Test", data.Data.Face)
	assert.Equal(t, int32(10), data.Data.LineHeight)
	assert.Equal(t, int32(16), data.Data.AtlasSizeX)
	require.Len(t, data.Pages, 1)
	assert.Equal(t, filepath.Join(dir, "fonts", "test_0.png"), data.Pages[0].File)
	require.Len(t, data.Data.Glyphs, 2)
	assert.Equal(t, int32('A'), data.Data.Glyphs[0].Codepoint)
	assert.Equal(t, int16(6), data.Data.Glyphs[1].XAdvance)
	require.Len(t, data.Data.Kernings, 1)
	assert.Equal(t, int16(-1), data.Data.Kernings[0].Amount)

	require.NoError(t, am.UnloadAsset(res))
}

func TestWatcherNotifiesChanges(t *testing.T) {
	am, dir := newTestManager(t)

	var hits atomic.Int32
	var last atomic.Value
	am.Subscribe(func(path string, assetType metadata.ResourceType) {
		if assetType == metadata.ResourceTypeImage {
			last.Store(path)
			hits.Add(1)
		}
	})

	target := filepath.Join(dir, "textures", "blue.png")
	writePNG(t, target, 1, 1, color.RGBA{B: 255, A: 255})

	require.Eventually(t, func() bool { return hits.Load() > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, target, last.Load())
	_, err := am.Resolve("blue", metadata.ResourceTypeImage)
	assert.NoError(t, err)

	require.NoError(t, os.Remove(target))
	require.Eventually(t, func() bool {
		_, err := am.Resolve("blue", metadata.ResourceTypeImage)
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownIsIdempotent(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Shutdown())
	require.NoError(t, am.Shutdown())
}
