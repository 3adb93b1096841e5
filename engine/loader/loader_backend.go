package loader

import "io"

// loaderBackend parses one model file format into Geometry.
type loaderBackend interface {
	// Parse reads a complete model from r.
	//
	// Parameters:
	//   - r: the model source
	//
	// Returns:
	//   - *Geometry: the parsed geometry
	//   - error: error if parsing fails
	Parse(r io.Reader) (*Geometry, error)

	// Extensions returns the lower-case file extensions, with leading dot, handled by the backend.
	Extensions() []string
}

// objLoaderBackend parses Wavefront OBJ files.
type objLoaderBackend struct{}

var _ loaderBackend = objLoaderBackend{}

func (objLoaderBackend) Parse(r io.Reader) (*Geometry, error) {
	return ParseOBJ(r)
}

func (objLoaderBackend) Extensions() []string {
	return []string{".obj"}
}
