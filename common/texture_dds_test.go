package common

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDDS assembles a DDS file with the given pixel format fields followed by payload.
func buildDDS(width, height, pfFlags uint32, fourCC string, bitCount uint32, masks [4]uint32, payload []byte) []byte {
	buf := make([]byte, 4+ddsHeaderSize)
	copy(buf, ddsMagic)
	le := binary.LittleEndian
	le.PutUint32(buf[4:], ddsHeaderSize)
	le.PutUint32(buf[12:], height)
	le.PutUint32(buf[16:], width)
	le.PutUint32(buf[76:], 32)
	le.PutUint32(buf[80:], pfFlags)
	copy(buf[84:88], fourCC)
	le.PutUint32(buf[88:], bitCount)
	for i, m := range masks {
		le.PutUint32(buf[92+4*i:], m)
	}
	return append(buf, payload...)
}

func TestDecodeTextureDDSUncompressedBGRA(t *testing.T) {
	// Two pixels: opaque blue, half transparent red, stored B G R A.
	payload := []byte{
		0xff, 0x00, 0x00, 0xff,
		0x00, 0x00, 0xff, 0x80,
	}
	data := buildDDS(2, 1, ddpfRGB|ddpfAlphaPixels, "", 32,
		[4]uint32{0x00ff0000, 0x0000ff00, 0x000000ff, 0xff000000}, payload)

	tex, err := DecodeTexture("bgra.dds", data)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), tex.Width)
	assert.Equal(t, uint32(1), tex.Height)
	assert.Equal(t, []byte{0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x80}, tex.Pixels)
}

func TestDecodeTextureDDSOpaqueRGB(t *testing.T) {
	payload := []byte{0x10, 0x20, 0x30}
	data := buildDDS(1, 1, ddpfRGB, "", 24,
		[4]uint32{0x0000ff, 0x00ff00, 0xff0000, 0}, payload)

	tex, err := DecodeTexture("rgb.dds", data)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x10, 0x20, 0x30, 0xff}, tex.Pixels)
}

func TestDecodeTextureDDSDXT1(t *testing.T) {
	// c0 = pure red, c1 = pure blue, every texel uses index 0 except the last which uses index 1.
	block := make([]byte, 8)
	binary.LittleEndian.PutUint16(block[0:], 0xf800)
	binary.LittleEndian.PutUint16(block[2:], 0x001f)
	binary.LittleEndian.PutUint32(block[4:], 1<<30)
	data := buildDDS(4, 4, ddpfFourCC, "DXT1", 0, [4]uint32{}, block)

	tex, err := DecodeTexture("dxt1.dds", data)
	require.NoError(t, err)
	require.Len(t, tex.Pixels, 4*4*4)
	assert.Equal(t, []byte{0xff, 0x00, 0x00, 0xff}, tex.Pixels[0:4])
	assert.Equal(t, []byte{0x00, 0x00, 0xff, 0xff}, tex.Pixels[60:64])
}

func TestDecodeTextureDDSDXT5Alpha(t *testing.T) {
	block := make([]byte, 16)
	block[0], block[1] = 0xff, 0x00 // alpha palette endpoints, all indices 0
	binary.LittleEndian.PutUint16(block[8:], 0xffff)
	binary.LittleEndian.PutUint16(block[10:], 0x0000)
	data := buildDDS(2, 2, ddpfFourCC, "DXT5", 0, [4]uint32{}, block)

	tex, err := DecodeTexture("dxt5.dds", data)
	require.NoError(t, err)
	require.Len(t, tex.Pixels, 2*2*4)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, tex.Pixels[0:4])
}

func TestDecodeTextureErrors(t *testing.T) {
	_, err := DecodeTexture("garbage.bin", []byte("not an image"))
	assert.True(t, errors.Is(err, ErrIOFailure))

	truncated := buildDDS(4, 4, ddpfFourCC, "DXT1", 0, [4]uint32{}, []byte{1, 2})
	_, err = DecodeTexture("short.dds", truncated)
	assert.True(t, errors.Is(err, ErrIOFailure))

	unknown := buildDDS(4, 4, ddpfFourCC, "ATI2", 0, [4]uint32{}, nil)
	_, err = DecodeTexture("ati2.dds", unknown)
	assert.ErrorIs(t, err, ErrIOFailure)
	assert.ErrorIs(t, err, errUnsupportedDDS)
}
