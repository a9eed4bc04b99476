package loader

import (
	"github.com/Carmen-Shannon/oxy-materials/common"
)

// loaderBackend defines the interface for decoding a texture source into RGBA staging data.
// Concrete implementations handle format-specific details.
type loaderBackend interface {
	// Decode reads and decodes a texture source.
	//
	// Parameters:
	//   - src: the texture source (path or in-memory bytes)
	//
	// Returns:
	//   - common.TextureStagingData: the decoded RGBA8 pixels
	//   - error: error if reading or decoding fails
	Decode(src common.TextureSource) (common.TextureStagingData, error)
}

// imageLoaderBackend decodes PNG, JPEG, BMP and WebP through the image package registry.
type imageLoaderBackend struct{}

func newImageLoaderBackend() loaderBackend {
	return imageLoaderBackend{}
}

func (imageLoaderBackend) Decode(src common.TextureSource) (common.TextureStagingData, error) {
	return src.Decode()
}
