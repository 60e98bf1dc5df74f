package systems

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/assets"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
	"github.com/spaghettifunk/anima2d/engine/renderer/sprite"
)

type FontSystemConfig struct {
	MaxBitmapFontCount uint8
}

type kerningPair struct {
	first, second int32
}

// BitmapFont is a loaded .fnt font with its page textures.
type BitmapFont struct {
	Name  string
	Data  *metadata.FontData
	Pages []*metadata.Texture

	glyphs      map[int32]*metadata.FontGlyph
	kernings    map[kerningPair]int16
	tabXAdvance float32
	resource    *metadata.Resource
}

type FontSystem struct {
	Config *FontSystemConfig

	fonts map[string]*BitmapFont

	textureSystem *TextureSystem
	assetManager  *assets.AssetManager
}

func NewFontSystem(config *FontSystemConfig, ts *TextureSystem, am *assets.AssetManager) (*FontSystem, error) {
	if config.MaxBitmapFontCount == 0 {
		return nil, fmt.Errorf("func NewFontSystem - config.MaxBitmapFontCount must be > 0")
	}
	return &FontSystem{
		Config:        config,
		fonts:         make(map[string]*BitmapFont),
		textureSystem: ts,
		assetManager:  am,
	}, nil
}

func (fs *FontSystem) Shutdown() error {
	for name, f := range fs.fonts {
		fs.cleanupFont(f)
		delete(fs.fonts, name)
	}
	return nil
}

/**
 * @brief Loads the bitmap font resource and acquires a texture per page.
 * @param name The name the font is registered under.
 * @param resourceName The .fnt asset to load.
 */
func (fs *FontSystem) LoadBitmapFont(name, resourceName string) (*BitmapFont, error) {
	if f, ok := fs.fonts[name]; ok {
		core.LogWarn("a font named '%s' already exists and will not be loaded again", name)
		// Not a hard error, it already exists and can be used.
		return f, nil
	}
	if len(fs.fonts) >= int(fs.Config.MaxBitmapFontCount) {
		return nil, fmt.Errorf("no space left to allocate a new bitmap font. Increase maximum number allowed in font system config")
	}

	res, err := fs.assetManager.LoadAsset(resourceName, metadata.ResourceTypeBitmapFont, nil)
	if err != nil {
		core.LogError("failed to load bitmap font %s", resourceName)
		return nil, err
	}
	data, ok := res.Data.(*metadata.BitmapFontResourceData)
	if !ok || len(data.Pages) == 0 {
		return nil, fmt.Errorf("bitmap font %s has no pages", resourceName)
	}

	f := &BitmapFont{
		Name:     name,
		Data:     data.Data,
		glyphs:   make(map[int32]*metadata.FontGlyph, len(data.Data.Glyphs)),
		kernings: make(map[kerningPair]int16, len(data.Data.Kernings)),
		resource: res,
	}
	for _, page := range data.Pages {
		tex, err := fs.textureSystem.Acquire(page.File, true)
		if err != nil {
			fs.cleanupFont(f)
			return nil, err
		}
		f.Pages = append(f.Pages, tex)
	}
	for _, g := range data.Data.Glyphs {
		f.glyphs[g.Codepoint] = g
	}
	for _, k := range data.Data.Kernings {
		f.kernings[kerningPair{k.Codepoint0, k.Codepoint1}] = k.Amount
	}
	f.setupTabAdvance()

	fs.fonts[name] = f
	return f, nil
}

func (fs *FontSystem) Get(name string) (*BitmapFont, bool) {
	f, ok := fs.fonts[name]
	return f, ok
}

func (fs *FontSystem) Release(name string) {
	f, ok := fs.fonts[name]
	if !ok {
		core.LogWarn("tried to release non-existent font '%s'", name)
		return
	}
	fs.cleanupFont(f)
	delete(fs.fonts, name)
}

func (fs *FontSystem) cleanupFont(f *BitmapFont) {
	for _, tex := range f.Pages {
		fs.textureSystem.Release(tex.Name)
	}
	f.Pages = nil
	if f.resource != nil {
		if err := fs.assetManager.UnloadAsset(f.resource); err != nil {
			core.LogWarn("font '%s': %s", f.Name, err)
		}
		f.resource = nil
	}
}

func (f *BitmapFont) setupTabAdvance() {
	// Check for a tab glyph, as there may not always be one exported.
	if g, ok := f.glyphs['\t']; ok {
		f.tabXAdvance = float32(g.XAdvance)
		return
	}
	// Use space x 4 instead.
	if g, ok := f.glyphs[' ']; ok {
		f.tabXAdvance = float32(g.XAdvance) * 4
		return
	}
	f.tabXAdvance = float32(f.Data.Size * 4)
}

func (f *BitmapFont) glyph(codepoint int32) (*metadata.FontGlyph, bool) {
	if g, ok := f.glyphs[codepoint]; ok {
		return g, true
	}
	g, ok := f.glyphs['?']
	return g, ok
}

// Kerning is the horizontal adjustment between two consecutive codepoints.
func (f *BitmapFont) Kerning(first, second int32) int16 {
	return f.kernings[kerningPair{first, second}]
}

/**
 * @brief Appends one sprite request per visible glyph of text to out.
 * origin is the top-left of the first line in a y-up world; every following
 * line moves down by the font's line height. Missing glyphs render as '?'.
 * @return The width and height of the laid out block.
 */
func (f *BitmapFont) Layout(text string, origin math.Vec3, colour math.Vec4, scale float32, out *sprite.Sprites) math.Vec2 {
	atlasW := float32(f.Data.AtlasSizeX)
	atlasH := float32(f.Data.AtlasSizeY)
	lineHeight := float32(f.Data.LineHeight) * scale

	x, y := origin.X, origin.Y
	width := float32(0)
	lines := 1
	prev := int32(-1)

	for _, r := range text {
		codepoint := int32(r)
		switch codepoint {
		case '\n':
			width = max(width, x-origin.X)
			x = origin.X
			y -= lineHeight
			lines++
			prev = -1
			continue
		case '\t':
			x += f.tabXAdvance * scale
			prev = codepoint
			continue
		}

		g, ok := f.glyph(codepoint)
		if !ok {
			prev = codepoint
			continue
		}
		if prev >= 0 {
			x += float32(f.Kerning(prev, codepoint)) * scale
		}

		if g.Width > 0 && g.Height > 0 && int(g.PageID) < len(f.Pages) {
			w := float32(g.Width) * scale
			h := float32(g.Height) * scale
			top := y - float32(g.YOffset)*scale
			*out = append(*out, sprite.Request{
				Position:  math.NewVec3(x+float32(g.XOffset)*scale, top-h, origin.Z),
				Size:      math.NewVec2(w, h),
				Color:     colour,
				TexCoords: sprite.TexCoordsFromPixels(float32(g.X), float32(g.Y), float32(g.Width), float32(g.Height), atlasW, atlasH),
				Texture:   f.Pages[g.PageID],
			})
		}
		x += float32(g.XAdvance) * scale
		prev = codepoint
	}
	width = max(width, x-origin.X)
	return math.NewVec2(width, float32(lines)*lineHeight)
}
