package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fzipp/bmfont"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type BitmapFontLoader struct{}

type BitmapFontFileType int

const (
	BITMAP_FONT_FILE_TYPE_NOT_FOUND BitmapFontFileType = iota
	BITMAP_FONT_FILE_TYPE_FNT
)

func bitmapFontFileType(path string) BitmapFontFileType {
	switch filepath.Ext(path) {
	case ".fnt":
		return BITMAP_FONT_FILE_TYPE_FNT
	default:
		return BITMAP_FONT_FILE_TYPE_NOT_FOUND
	}
}

func (fl *BitmapFontLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	if bitmapFontFileType(path) == BITMAP_FONT_FILE_TYPE_NOT_FOUND {
		return nil, fmt.Errorf("unable to load bitmap font of unsupported type '%s'", path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	resourceData, err := fl.importFNTFile(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	return &metadata.Resource{
		Type:     metadata.ResourceTypeBitmapFont,
		Name:     name[:len(name)-len(filepath.Ext(name))],
		FullPath: path,
		Data:     resourceData,
		DataSize: uint64(len(resourceData.Data.Glyphs)),
	}, nil
}

func (fl *BitmapFontLoader) Unload(resource *metadata.Resource) error {
	if resource.Data != nil {
		data := resource.Data.(*metadata.BitmapFontResourceData)
		data.Data.Glyphs = nil
		data.Pages = nil
		data.Data.Kernings = nil
		resource.Data = nil
		resource.DataSize = 0
		resource.FullPath = ""
	}
	return nil
}

func (fl *BitmapFontLoader) importFNTFile(fntFileName string) (*metadata.BitmapFontResourceData, error) {
	font, err := bmfont.Load(fntFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to import bitmap font %s: %w", fntFileName, err)
	}
	desc := font.Descriptor

	outData := &metadata.BitmapFontResourceData{
		Data: &metadata.FontData{
			Face:       desc.Info.Face,
			Size:       uint32(desc.Info.Size),
			LineHeight: int32(desc.Common.LineHeight),
			Baseline:   int32(desc.Common.Base),
			AtlasSizeX: int32(desc.Common.ScaleW),
			AtlasSizeY: int32(desc.Common.ScaleH),
			Glyphs:     make([]*metadata.FontGlyph, 0, len(desc.Chars)),
			Kernings:   make([]*metadata.FontKerning, 0, len(desc.Kerning)),
		},
		Pages: make([]*metadata.BitmapFontPage, 0, len(desc.Pages)),
	}

	// Page files are relative to the descriptor.
	dir := filepath.Dir(fntFileName)
	for _, p := range desc.Pages {
		outData.Pages = append(outData.Pages, &metadata.BitmapFontPage{
			ID:   int8(p.ID),
			File: filepath.Join(dir, p.File),
		})
	}
	sort.Slice(outData.Pages, func(i, j int) bool { return outData.Pages[i].ID < outData.Pages[j].ID })

	for _, g := range desc.Chars {
		outData.Data.Glyphs = append(outData.Data.Glyphs, &metadata.FontGlyph{
			Codepoint: int32(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		})
	}
	sort.Slice(outData.Data.Glyphs, func(i, j int) bool {
		return outData.Data.Glyphs[i].Codepoint < outData.Data.Glyphs[j].Codepoint
	})

	for p, k := range desc.Kerning {
		outData.Data.Kernings = append(outData.Data.Kernings, &metadata.FontKerning{
			Codepoint0: int32(p.First),
			Codepoint1: int32(p.Second),
			Amount:     int16(k.Amount),
		})
	}

	return outData, nil
}
