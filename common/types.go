// package common contains small, dependency-free types and helpers shared
// across otherwise unrelated packages: GPU texture/sampler staging data
// consumed by canvas, and a generic first-non-zero helper used for
// default-value resolution throughout the tree.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
// Pixels must already be padded to the GPU's row-alignment requirement by the caller;
// BytesPerRow communicates that padded stride to the uploader.
type TextureStagingData struct {
	// Pixels is the byte slice representing the pixel data for the texture, in RGBA
	// format, 4 bytes per pixel, padded per row to BytesPerRow.
	Pixels []byte
	// Width is the width of the texture in pixels (unpadded, logical width).
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// BytesPerRow is the padded stride of each row in Pixels, a multiple of the
	// GPU copy-row-alignment constant.
	BytesPerRow uint32
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture
	// coordinates outside the [0, 1] range in each dimension.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
}
