// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA8 pixel data, 4 bytes per pixel, rows top to bottom.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// AddressMode controls how texture coordinates outside [0, 1] are resolved.
// The zero value means "use the backend default".
type AddressMode int

const (
	AddressModeUndefined AddressMode = iota
	AddressModeRepeat
	AddressModeClampToEdge
	AddressModeMirrorRepeat
)

// FilterMode selects texel filtering. The zero value means "use the backend default".
type FilterMode int

const (
	FilterModeUndefined FilterMode = iota
	FilterModeNearest
	FilterModeLinear
)

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero-valued fields fall back to linear filtering with repeat addressing.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode in each dimension.
	AddressModeU, AddressModeV, AddressModeW AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter FilterMode
	// LodMinClamp and LodMaxClamp specify the level of detail range.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// DecodeTexture decodes an encoded image into non-premultiplied RGBA staging data.
// DDS (uncompressed, DXT1, DXT3, DXT5), PNG, JPEG, GIF, BMP, TIFF and WebP are recognised.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - name: the texture name, used in error messages
//   - data: the encoded image bytes
//
// Returns:
//   - TextureStagingData: the decoded pixels
//   - error: an ErrIOFailure wrapped error if the data cannot be decoded
func DecodeTexture(name string, data []byte) (TextureStagingData, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("%w: decode texture %s: %w", ErrIOFailure, name, err)
	}

	bounds := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	}

	return TextureStagingData{
		Pixels: nrgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
