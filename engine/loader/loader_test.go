package loader

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangleOBJ = `# one triangle
o tri
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0.25
vt 0 1
vn 0 0 1
s off
f 1/1/1 2/2/1 3/3/1
`

const quadOBJ = `v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
f 1/1/1 3/3/1 4/4/1
`

func TestParseOBJTriangle(t *testing.T) {
	g, err := ParseOBJ(strings.NewReader(triangleOBJ))
	require.NoError(t, err)

	require.Len(t, g.Vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2}, g.Indices)

	assert.Equal(t, [3]float32{1, 0, 0}, g.Vertices[1].Position)
	assert.Equal(t, [2]float32{1, 0.75}, g.Vertices[1].UV)
	assert.Equal(t, [2]float32{0, 1}, g.Vertices[0].UV)
	assert.Equal(t, [2]float32{0, 0}, g.Vertices[2].UV)
	assert.Equal(t, [3]float32{0, 0, 1}, g.Vertices[2].Normal)
}

func TestParseOBJDoesNotShareVertices(t *testing.T) {
	g, err := ParseOBJ(strings.NewReader(quadOBJ))
	require.NoError(t, err)

	assert.Len(t, g.Vertices, 6)
	assert.Equal(t, uint32(6), g.IndexCount())
	for i, idx := range g.Indices {
		assert.Equal(t, uint32(i), idx)
	}
	assert.Equal(t, g.Vertices[0], g.Vertices[3])
	assert.Len(t, g.VertexBytes(), 6*int(VertexStride))
	assert.Len(t, g.IndexBytes(), 6*4)
}

func TestParseOBJRejectsMalformedFaces(t *testing.T) {
	cases := map[string]string{
		"eight indices": "v 0 0 0\nvt 0 0\nvn 0 0 1\nf 1/1/1 1/1/1 1/1\n",
		"quad":          "v 0 0 0\nvt 0 0\nvn 0 0 1\nf 1/1/1 1/1/1 1/1/1 1/1/1\n",
		"position only": "v 0 0 0\nf 1 1 1\n",
		"missing uv":    "v 0 0 0\nvn 0 0 1\nf 1//1 1//1 1//1\n",
		"bad vertex":    "v 0 zero 0\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(src))
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrMalformedGeometry)
		})
	}
}

func TestParseOBJIndexOutOfRange(t *testing.T) {
	src := "v 0 0 0\nvt 0 0\nvn 0 0 1\nf 1/1/1 2/1/1 1/1/1\n"
	_, err := ParseOBJ(strings.NewReader(src))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrIndexOutOfRange)

	src = "v 0 0 0\nvt 0 0\nvn 0 0 1\nf 0/1/1 1/1/1 1/1/1\n"
	_, err = ParseOBJ(strings.NewReader(src))
	assert.ErrorIs(t, err, common.ErrIndexOutOfRange)
}

func TestParseOBJEmpty(t *testing.T) {
	g, err := ParseOBJ(strings.NewReader("# nothing\n\n"))
	require.NoError(t, err)
	assert.Empty(t, g.Vertices)
	assert.Empty(t, g.Indices)
}

func TestLoaderLoadCaches(t *testing.T) {
	var logs bytes.Buffer
	logging.SetSink(&logs)
	defer logging.SetSink(os.Stdout)
	logging.SetLevel(logging.Debug, "models")

	fsys := fstest.MapFS{
		"Models/tri.obj": &fstest.MapFile{Data: []byte(triangleOBJ)},
	}
	l := NewLoader(WithFS(fsys), WithLogger(logging.New("models")))

	first, err := l.Load("Models/tri.obj")
	require.NoError(t, err)
	second, err := l.Load("Models/tri.obj")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, l.Get("Models/tri.obj"))
	assert.Len(t, l.Geometries(), 1)
	assert.Equal(t, 1, strings.Count(logs.String(), "loaded Models/tri.obj: 3 vertices"), "a cache hit is not reparsed")
	assert.Contains(t, logs.String(), "[models] [DEBUG]")
}

func TestLoaderErrors(t *testing.T) {
	l := NewLoader(WithFS(fstest.MapFS{}))

	_, err := l.Load("Models/missing.obj")
	assert.ErrorIs(t, err, common.ErrResourceNotFound)

	_, err = l.Load("Models/fox.gltf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported model format")
	assert.Nil(t, l.Get("Models/missing.obj"))
}

func TestLoaderLoadReaderAndPreloaded(t *testing.T) {
	pre := &Geometry{Indices: []uint32{0}}
	l := NewLoader(WithGeometry("pre.obj", pre), WithFS(fstest.MapFS{}))

	got, err := l.Load("pre.obj")
	require.NoError(t, err)
	assert.Same(t, pre, got)

	g, err := l.LoadReader("quad.OBJ", strings.NewReader(quadOBJ))
	require.NoError(t, err)
	assert.Len(t, g.Vertices, 6)
}
