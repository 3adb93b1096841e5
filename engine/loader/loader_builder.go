package loader

import (
	"io/fs"

	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithFS is an option builder that sets the file system models are read from.
//
// Parameters:
//   - fsys: the file system, typically os.DirFS of the asset root
//
// Returns:
//   - LoaderBuilderOption: a function that applies the file system option to a loader
func WithFS(fsys fs.FS) LoaderBuilderOption {
	return func(l *loader) {
		l.source = fsys
	}
}

// WithGeometry is an option builder that pre-populates the geometry cache.
//
// Parameters:
//   - key: the cache key for the geometry
//   - g: the geometry to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the geometry option to a loader
func WithGeometry(key string, g *Geometry) LoaderBuilderOption {
	return func(l *loader) {
		l.geometryCache[key] = g
	}
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(log logging.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.log = log
	}
}
