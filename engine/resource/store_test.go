package resource

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLayering(t *testing.T) {
	override := fstest.MapFS{"shaders/sky.wgsl": {Data: []byte("override")}}
	defaults := fstest.MapFS{
		"shaders/sky.wgsl":  {Data: []byte("default")},
		"shaders/cube.wgsl": {Data: []byte("cube")},
	}
	s := NewStore(override, nil, defaults)

	data, err := s.ReadFile("shaders/sky.wgsl")
	require.NoError(t, err)
	assert.Equal(t, "override", string(data))

	data, err = fs.ReadFile(s, "shaders/cube.wgsl")
	require.NoError(t, err)
	assert.Equal(t, "cube", string(data))

	_, err = s.ReadFile("shaders/none.wgsl")
	assert.ErrorIs(t, err, common.ErrResourceNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = s.Open("../escape")
	assert.ErrorIs(t, err, fs.ErrInvalid)
}

func TestStoreTexture(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	s := NewStore(fstest.MapFS{
		"tex.png": {Data: buf.Bytes()},
		"bad.png": {Data: []byte("not an image")},
	})

	tex, err := s.Texture("tex.png")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), tex.Width)
	assert.Equal(t, uint32(1), tex.Height)
	assert.Equal(t, []byte{10, 20, 30, 255}, tex.Pixels[4:8])

	_, err = s.Texture("bad.png")
	assert.ErrorIs(t, err, common.ErrIOFailure)

	_, err = s.Texture("missing.png")
	assert.ErrorIs(t, err, common.ErrResourceNotFound)
}
