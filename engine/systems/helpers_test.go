package systems

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima2d/engine/assets"
	"github.com/spaghettifunk/anima2d/engine/renderer/headless"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

const testFont = `info face="Test" size=8 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=0 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=10 base=8 scaleW=16 scaleH=16 pages=1 packed=0 alphaChnl=0 redChnl=0 greenChnl=0 blueChnl=0
page id=0 file="test_0.png"
chars count=3
char id=65   x=0     y=0     width=4     height=6     xoffset=0     yoffset=2     xadvance=5     page=0  chnl=15
char id=66   x=4     y=0     width=4     height=6     xoffset=1     yoffset=2     xadvance=6     page=0  chnl=15
char id=32   x=0     y=0     width=0     height=0     xoffset=0     yoffset=0     xadvance=3     page=0  chnl=15
kernings count=1
kerning first=65  second=66  amount=-1
`

func encodePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
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

func writeText(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// replacePNG writes the image next to the tree and renames it into place so
// the watcher never sees a partially written file.
func replacePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), filepath.Base(path))
	encodePNG(t, tmp, w, h, c)
	require.NoError(t, os.Rename(tmp, path))
}

type fixture struct {
	dir      string
	backend  *headless.Backend
	assets   *assets.AssetManager
	jobs     *JobSystem
	textures *TextureSystem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	encodePNG(t, filepath.Join(dir, "textures", "red.png"), 2, 3, color.NRGBA{R: 255, A: 255})
	encodePNG(t, filepath.Join(dir, "fonts", "test_0.png"), 16, 16, color.White)
	writeText(t, filepath.Join(dir, "fonts", "test.fnt"), testFont)

	am, err := assets.NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	t.Cleanup(func() { _ = am.Shutdown() })

	b := headless.New(headless.DefaultOptions())
	_, err = b.Initialize(&metadata.RendererBackendConfig{Width: 320, Height: 240})
	require.NoError(t, err)

	js, err := NewJobSystem(2, 8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = js.Shutdown() })

	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 8}, js, am, b)
	require.NoError(t, err)
	require.NoError(t, ts.Initialize())
	t.Cleanup(func() { _ = ts.Shutdown() })

	return &fixture{dir: dir, backend: b, assets: am, jobs: js, textures: ts}
}

// settle runs the main-thread updates until every submitted job has
// completed and its callback ran.
func (f *fixture) settle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.jobs.Update()
		f.textures.Update()
		return f.jobs.Pending() == 0
	}, 2*time.Second, 5*time.Millisecond)
}
