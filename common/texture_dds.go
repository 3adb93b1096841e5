package common

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math/bits"
)

// DDS layout constants.
// Reference: https://learn.microsoft.com/en-us/windows/win32/direct3ddds/dds-header
const (
	ddsMagic      = "DDS "
	ddsHeaderSize = 124
	ddsDX10Size   = 20

	ddpfAlphaPixels = 0x1
	ddpfFourCC      = 0x4
	ddpfRGB         = 0x40
	ddpfLuminance   = 0x20000
)

// dxgi formats accepted in a DX10 extended header.
const (
	dxgiR8G8B8A8Unorm     = 28
	dxgiR8G8B8A8UnormSRGB = 29
	dxgiBC1Unorm          = 71
	dxgiBC1UnormSRGB      = 72
	dxgiBC2Unorm          = 74
	dxgiBC2UnormSRGB      = 75
	dxgiBC3Unorm          = 77
	dxgiBC3UnormSRGB      = 78
	dxgiB8G8R8A8Unorm     = 87
	dxgiB8G8R8A8UnormSRGB = 91
)

var errUnsupportedDDS = errors.New("dds: unsupported pixel format")

type ddsFormat int

const (
	ddsFormatMasked ddsFormat = iota
	ddsFormatBC1
	ddsFormatBC2
	ddsFormatBC3
)

// ddsHeader is the subset of the DDS header needed to decode the top-level surface.
type ddsHeader struct {
	width, height uint32
	format        ddsFormat
	bitCount      uint32
	masks         [4]uint32
	hasAlpha      bool
}

func init() {
	image.RegisterFormat("dds", ddsMagic, decodeDDS, decodeDDSConfig)
}

func readDDSHeader(r io.Reader) (ddsHeader, error) {
	var raw [4 + ddsHeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return ddsHeader{}, fmt.Errorf("dds: read header: %w", err)
	}
	if string(raw[:4]) != ddsMagic {
		return ddsHeader{}, errors.New("dds: bad magic")
	}
	le := binary.LittleEndian
	if le.Uint32(raw[4:]) != ddsHeaderSize {
		return ddsHeader{}, errors.New("dds: bad header size")
	}

	h := ddsHeader{
		height: le.Uint32(raw[12:]),
		width:  le.Uint32(raw[16:]),
	}
	if h.width == 0 || h.height == 0 {
		return ddsHeader{}, errors.New("dds: zero sized surface")
	}

	pfFlags := le.Uint32(raw[80:])
	fourCC := string(raw[84:88])
	switch {
	case pfFlags&ddpfFourCC != 0:
		switch fourCC {
		case "DXT1":
			h.format = ddsFormatBC1
		case "DXT2", "DXT3":
			h.format = ddsFormatBC2
		case "DXT4", "DXT5":
			h.format = ddsFormatBC3
		case "DX10":
			var ext [ddsDX10Size]byte
			if _, err := io.ReadFull(r, ext[:]); err != nil {
				return ddsHeader{}, fmt.Errorf("dds: read dx10 header: %w", err)
			}
			if err := h.applyDXGI(le.Uint32(ext[:])); err != nil {
				return ddsHeader{}, err
			}
		default:
			return ddsHeader{}, fmt.Errorf("%w: fourcc %q", errUnsupportedDDS, fourCC)
		}
	case pfFlags&(ddpfRGB|ddpfLuminance) != 0:
		h.format = ddsFormatMasked
		h.bitCount = le.Uint32(raw[88:])
		h.masks = [4]uint32{le.Uint32(raw[92:]), le.Uint32(raw[96:]), le.Uint32(raw[100:]), le.Uint32(raw[104:])}
		h.hasAlpha = pfFlags&ddpfAlphaPixels != 0 && h.masks[3] != 0
		if pfFlags&ddpfLuminance != 0 {
			h.masks[1], h.masks[2] = h.masks[0], h.masks[0]
		}
		if h.bitCount != 8 && h.bitCount != 16 && h.bitCount != 24 && h.bitCount != 32 {
			return ddsHeader{}, fmt.Errorf("%w: %d bits per pixel", errUnsupportedDDS, h.bitCount)
		}
	default:
		return ddsHeader{}, fmt.Errorf("%w: flags %#x", errUnsupportedDDS, pfFlags)
	}
	return h, nil
}

func (h *ddsHeader) applyDXGI(format uint32) error {
	switch format {
	case dxgiR8G8B8A8Unorm, dxgiR8G8B8A8UnormSRGB:
		h.format, h.bitCount, h.hasAlpha = ddsFormatMasked, 32, true
		h.masks = [4]uint32{0x000000ff, 0x0000ff00, 0x00ff0000, 0xff000000}
	case dxgiB8G8R8A8Unorm, dxgiB8G8R8A8UnormSRGB:
		h.format, h.bitCount, h.hasAlpha = ddsFormatMasked, 32, true
		h.masks = [4]uint32{0x00ff0000, 0x0000ff00, 0x000000ff, 0xff000000}
	case dxgiBC1Unorm, dxgiBC1UnormSRGB:
		h.format = ddsFormatBC1
	case dxgiBC2Unorm, dxgiBC2UnormSRGB:
		h.format = ddsFormatBC2
	case dxgiBC3Unorm, dxgiBC3UnormSRGB:
		h.format = ddsFormatBC3
	default:
		return fmt.Errorf("%w: dxgi format %d", errUnsupportedDDS, format)
	}
	return nil
}

func decodeDDSConfig(r io.Reader) (image.Config, error) {
	h, err := readDDSHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: int(h.width), Height: int(h.height)}, nil
}

// decodeDDS decodes the first surface (mip 0, first cube face) of a DDS stream.
func decodeDDS(r io.Reader) (image.Image, error) {
	h, err := readDDSHeader(r)
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, int(h.width), int(h.height)))

	switch h.format {
	case ddsFormatMasked:
		err = decodeMasked(r, h, img)
	default:
		err = decodeBlocks(r, h, img)
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

func decodeMasked(r io.Reader, h ddsHeader, img *image.NRGBA) error {
	bpp := int(h.bitCount / 8)
	row := make([]byte, int(h.width)*bpp)
	for y := 0; y < int(h.height); y++ {
		if _, err := io.ReadFull(r, row); err != nil {
			return fmt.Errorf("dds: read row %d: %w", y, err)
		}
		for x := 0; x < int(h.width); x++ {
			var px uint32
			for b := 0; b < bpp; b++ {
				px |= uint32(row[x*bpp+b]) << (8 * b)
			}
			o := img.PixOffset(x, y)
			img.Pix[o+0] = extractChannel(px, h.masks[0])
			img.Pix[o+1] = extractChannel(px, h.masks[1])
			img.Pix[o+2] = extractChannel(px, h.masks[2])
			if h.hasAlpha {
				img.Pix[o+3] = extractChannel(px, h.masks[3])
			} else {
				img.Pix[o+3] = 0xff
			}
		}
	}
	return nil
}

// extractChannel isolates a mask from px and rescales it to 8 bits.
func extractChannel(px, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	v := (px & mask) >> shift
	maxV := uint32(1)<<width - 1
	return uint8((v*255 + maxV/2) / maxV)
}

func decodeBlocks(r io.Reader, h ddsHeader, img *image.NRGBA) error {
	blockSize := 16
	if h.format == ddsFormatBC1 {
		blockSize = 8
	}
	bw, bh := (int(h.width)+3)/4, (int(h.height)+3)/4
	block := make([]byte, blockSize)
	var texels [16][4]uint8

	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			if _, err := io.ReadFull(r, block); err != nil {
				return fmt.Errorf("dds: read block %d,%d: %w", bx, by, err)
			}
			switch h.format {
			case ddsFormatBC1:
				decodeColorBlock(block, &texels, true)
			case ddsFormatBC2:
				decodeColorBlock(block[8:], &texels, false)
				decodeExplicitAlpha(block[:8], &texels)
			case ddsFormatBC3:
				decodeColorBlock(block[8:], &texels, false)
				decodeInterpolatedAlpha(block[:8], &texels)
			}
			for i, t := range texels {
				x, y := bx*4+i%4, by*4+i/4
				if x >= int(h.width) || y >= int(h.height) {
					continue
				}
				o := img.PixOffset(x, y)
				copy(img.Pix[o:o+4], t[:])
			}
		}
	}
	return nil
}

func expand565(c uint16) [4]uint8 {
	r := uint8(c>>11) & 0x1f
	g := uint8(c>>5) & 0x3f
	b := uint8(c) & 0x1f
	return [4]uint8{r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2, 0xff}
}

func lerpColor(a, b [4]uint8, wa, wb, div uint16) [4]uint8 {
	var out [4]uint8
	for i := 0; i < 3; i++ {
		out[i] = uint8((uint16(a[i])*wa + uint16(b[i])*wb) / div)
	}
	out[3] = 0xff
	return out
}

// decodeColorBlock decodes an 8 byte BC1 color block. Three color mode with
// transparent black is only honored for standalone BC1.
func decodeColorBlock(b []byte, texels *[16][4]uint8, allowPunchThrough bool) {
	c0 := binary.LittleEndian.Uint16(b[0:])
	c1 := binary.LittleEndian.Uint16(b[2:])
	idx := binary.LittleEndian.Uint32(b[4:])

	var palette [4][4]uint8
	palette[0], palette[1] = expand565(c0), expand565(c1)
	if c0 > c1 || !allowPunchThrough {
		palette[2] = lerpColor(palette[0], palette[1], 2, 1, 3)
		palette[3] = lerpColor(palette[0], palette[1], 1, 2, 3)
	} else {
		palette[2] = lerpColor(palette[0], palette[1], 1, 1, 2)
		palette[3] = [4]uint8{}
	}

	for i := 0; i < 16; i++ {
		texels[i] = palette[(idx>>(2*i))&0x3]
	}
}

func decodeExplicitAlpha(b []byte, texels *[16][4]uint8) {
	alpha := binary.LittleEndian.Uint64(b)
	for i := 0; i < 16; i++ {
		a := uint8(alpha>>(4*i)) & 0xf
		texels[i][3] = a<<4 | a
	}
}

func decodeInterpolatedAlpha(b []byte, texels *[16][4]uint8) {
	a0, a1 := uint16(b[0]), uint16(b[1])
	var palette [8]uint8
	palette[0], palette[1] = uint8(a0), uint8(a1)
	if a0 > a1 {
		for i := uint16(1); i <= 6; i++ {
			palette[i+1] = uint8(((7-i)*a0 + i*a1) / 7)
		}
	} else {
		for i := uint16(1); i <= 4; i++ {
			palette[i+1] = uint8(((5-i)*a0 + i*a1) / 5)
		}
		palette[6], palette[7] = 0, 0xff
	}

	var idx uint64
	for i := 0; i < 6; i++ {
		idx |= uint64(b[2+i]) << (8 * i)
	}
	for i := 0; i < 16; i++ {
		texels[i][3] = palette[(idx>>(3*i))&0x7]
	}
}
