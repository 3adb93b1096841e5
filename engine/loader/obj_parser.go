package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/common"
)

// faceRef is one face-vertex's 1-based position/uv/normal indices plus the line it came from.
type faceRef struct {
	pos, uv, normal int
	line            int
}

// ParseOBJ parses a triangulated Wavefront OBJ stream into unindexed-by-dedup geometry: every face-vertex
// becomes one vertex and the index buffer is 0..N-1.
//
// Only v, vt, vn and f records are read. Faces must be triangles in full v/vt/vn form. Texture v coordinates are
// flipped to 1-v. Other records, comments and blank lines are skipped.
//
// Parameters:
//   - r: the OBJ source
//
// Returns:
//   - *Geometry: the parsed geometry
//   - error: ErrMalformedGeometry for syntax errors, ErrIndexOutOfRange for bad face references, ErrIOFailure
//     if r fails
func ParseOBJ(r io.Reader) (*Geometry, error) {
	var (
		positions [][3]float32
		uvs       [][2]float32
		normals   [][3]float32
		refs      []faceRef
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}

		switch tokens[0] {
		case "v":
			v, err := parseFloats(tokens, 3)
			if err != nil {
				return nil, malformed(lineNum, err)
			}
			positions = append(positions, [3]float32{v[0], v[1], v[2]})
		case "vt":
			v, err := parseFloats(tokens, 2)
			if err != nil {
				return nil, malformed(lineNum, err)
			}
			uvs = append(uvs, [2]float32{v[0], 1 - v[1]})
		case "vn":
			v, err := parseFloats(tokens, 3)
			if err != nil {
				return nil, malformed(lineNum, err)
			}
			normals = append(normals, [3]float32{v[0], v[1], v[2]})
		case "f":
			face, err := parseFace(tokens, lineNum)
			if err != nil {
				return nil, malformed(lineNum, err)
			}
			refs = append(refs, face[:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: line %d: %w", common.ErrIOFailure, lineNum, err)
	}

	g := &Geometry{
		Vertices: make([]Vertex, len(refs)),
		Indices:  make([]uint32, len(refs)),
	}
	for i, ref := range refs {
		if err := checkIndex("position", ref.pos, len(positions)); err != nil {
			return nil, fmt.Errorf("line %d: %w", ref.line, err)
		}
		if err := checkIndex("uv", ref.uv, len(uvs)); err != nil {
			return nil, fmt.Errorf("line %d: %w", ref.line, err)
		}
		if err := checkIndex("normal", ref.normal, len(normals)); err != nil {
			return nil, fmt.Errorf("line %d: %w", ref.line, err)
		}
		g.Vertices[i] = Vertex{
			Position: positions[ref.pos-1],
			UV:       uvs[ref.uv-1],
			Normal:   normals[ref.normal-1],
		}
		g.Indices[i] = uint32(i)
	}
	return g, nil
}

func malformed(line int, err error) error {
	return fmt.Errorf("%w: line %d: %w", common.ErrMalformedGeometry, line, err)
}

func checkIndex(kind string, idx, count int) error {
	if idx < 1 || idx > count {
		return fmt.Errorf("%w: %s index %d outside 1..%d", common.ErrIndexOutOfRange, kind, idx, count)
	}
	return nil
}

// parseFloats parses at least n float arguments following the record keyword. Extra arguments
// (such as a w component) are ignored.
func parseFloats(tokens []string, n int) ([]float32, error) {
	if len(tokens)-1 < n {
		return nil, fmt.Errorf("unsupported syntax for '%s'; expected %d arguments; got %d", tokens[0], n, len(tokens)-1)
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(tokens[i+1], 32)
		if err != nil {
			return nil, fmt.Errorf("could not parse argument %d of '%s': %w", i+1, tokens[0], err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseFace parses "f a/b/c a/b/c a/b/c". Anything other than exactly nine integers is rejected.
func parseFace(tokens []string, line int) ([3]faceRef, error) {
	var face [3]faceRef
	var ints []int
	for _, arg := range tokens[1:] {
		for _, part := range strings.Split(arg, "/") {
			n, err := strconv.Atoi(part)
			if err != nil {
				return face, fmt.Errorf("face argument %q is not a v/vt/vn triple", arg)
			}
			ints = append(ints, n)
		}
	}
	if len(ints) != 9 || len(tokens) != 4 {
		return face, fmt.Errorf("expected 3 v/vt/vn triples (9 indices); got %d indices in %d arguments", len(ints), len(tokens)-1)
	}
	for i := range face {
		face[i] = faceRef{pos: ints[i*3], uv: ints[i*3+1], normal: ints[i*3+2], line: line}
	}
	return face, nil
}
