package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// ImageExtensions are the file extensions ImageLoader can decode, in lookup
// priority order.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp"}

type ImageLoader struct{}

func (il *ImageLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	flipY := true
	if p, ok := params.(*metadata.ImageResourceParams); ok && p != nil {
		flipY = p.FlipY
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	data := ImageToRGBA(img, flipY)
	name := filepath.Base(path)
	return &metadata.Resource{
		Type:     metadata.ResourceTypeImage,
		Name:     name[:len(name)-len(filepath.Ext(name))],
		FullPath: path,
		DataSize: uint64(len(data.Pixels)),
		Data:     data,
	}, nil
}

func (il *ImageLoader) Unload(resource *metadata.Resource) error {
	if resource == nil {
		return fmt.Errorf("image loader asked to unload nil resource")
	}
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// ImageToRGBA converts any decoded image to tightly packed, non-premultiplied
// RGBA8 pixels.
// With flipY the bottom row comes first, matching texture coordinate v=0.
func ImageToRGBA(img image.Image, flipY bool) *metadata.ImageResourceData {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Straight alpha, blended with SRC_ALPHA / ONE_MINUS_SRC_ALPHA.
	rgba, ok := img.(*image.NRGBA)
	if !ok || rgba.Stride != w*4 || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	pixels := make([]uint8, w*h*4)
	rowSize := w * 4
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+rowSize]
		dstRow := y
		if flipY {
			dstRow = h - 1 - y
		}
		copy(pixels[dstRow*rowSize:], src)
	}

	transparent := false
	for i := 3; i < len(pixels); i += 4 {
		if pixels[i] < 255 {
			transparent = true
			break
		}
	}

	return &metadata.ImageResourceData{
		ChannelCount:    4,
		Width:           uint32(w),
		Height:          uint32(h),
		Pixels:          pixels,
		HasTransparency: transparent,
	}
}
