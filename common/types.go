// Package common contains plain data types and math helpers shared by the engine packages.
package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// Zero values are replaced by the renderer defaults (linear filtering, repeat addressing).
type SamplerStagingData struct {
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	MagFilter, MinFilter                     wgpu.FilterMode
	MipmapFilter                             wgpu.MipmapFilterMode
	LodMinClamp, LodMaxClamp                 float32
	MaxAnisotropy                            uint16
}

// RepeatNearestSampler is the sampler the textured materials use: repeat
// addressing on every axis with nearest magnification.
func RepeatNearestSampler() *SamplerStagingData {
	return &SamplerStagingData{
		AddressModeU: wgpu.AddressModeRepeat,
		AddressModeV: wgpu.AddressModeRepeat,
		AddressModeW: wgpu.AddressModeRepeat,
		MagFilter:    wgpu.FilterModeNearest,
		MinFilter:    wgpu.FilterModeLinear,
	}
}

// TextureSource describes where a texture's encoded bytes come from.
// Either Data holds the encoded image or Path points at a file on disk.
type TextureSource struct {
	// Name identifies the texture (for example "diffuse").
	Name string

	// Path is the file path for file-backed textures.
	Path string

	// Data contains encoded image bytes (PNG, JPEG, BMP or WebP).
	Data []byte
}

// ErrNoTextureSource is returned by Decode when neither Data nor Path is set.
var ErrNoTextureSource = errors.New("texture has neither data nor path")

// Decode decodes the texture to RGBA8 pixel data.
//
// Returns:
//   - TextureStagingData: decoded pixels and dimensions
//   - error: error if reading or decoding fails
func (t TextureSource) Decode() (TextureStagingData, error) {
	var img image.Image
	var err error

	switch {
	case len(t.Data) > 0:
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return TextureStagingData{}, fmt.Errorf("decode texture %q: %w", t.Name, err)
		}
	case t.Path != "":
		file, openErr := os.Open(t.Path)
		if openErr != nil {
			return TextureStagingData{}, fmt.Errorf("open texture file %s: %w", t.Path, openErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return TextureStagingData{}, fmt.Errorf("decode texture file %s: %w", t.Path, err)
		}
	default:
		return TextureStagingData{}, fmt.Errorf("%q: %w", t.Name, ErrNoTextureSource)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
