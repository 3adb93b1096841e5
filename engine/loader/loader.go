package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu *sync.RWMutex

	log logging.Logger

	source fs.FS

	geometryCache map[string]*Geometry

	backends map[string]loaderBackend
}

// Loader loads and caches model geometry.
// The file format is chosen by extension and parsed by a matching backend. Parsed geometry is cached by
// name so repeated loads of the same file share one *Geometry.
type Loader interface {
	// Load reads and parses a model file from the loader's file system.
	// If the model is already cached (by path) the cached geometry is returned.
	//
	// Parameters:
	//   - name: the slash separated path of the model within the file system
	//
	// Returns:
	//   - *Geometry: the loaded geometry
	//   - error: ErrResourceNotFound if the file does not exist, ErrIOFailure if it cannot be read, or a parse error
	Load(name string) (*Geometry, error)

	// LoadReader parses a model from a stream and caches it under name.
	// The name's extension selects the backend.
	//
	// Parameters:
	//   - name: the cache key, carrying the format extension
	//   - r: the reader providing model data
	//
	// Returns:
	//   - *Geometry: the loaded geometry
	//   - error: error if the format is unsupported or parsing fails
	LoadReader(name string, r io.Reader) (*Geometry, error)

	// Get retrieves cached geometry by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *Geometry: the cached geometry or nil
	Get(name string) *Geometry

	// Geometries returns a copy of the geometry cache.
	//
	// Returns:
	//   - map[string]*Geometry: all cached geometry keyed by name
	Geometries() map[string]*Geometry
}

var _ Loader = &loader{}

// NewLoader creates a Loader reading from the working directory with the OBJ backend registered.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:            &sync.RWMutex{},
		log:           logging.New("loader"),
		source:        os.DirFS("."),
		geometryCache: make(map[string]*Geometry),
		backends:      make(map[string]loaderBackend),
	}
	l.register(objLoaderBackend{})

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) register(b loaderBackend) {
	for _, ext := range b.Extensions() {
		l.backends[ext] = b
	}
}

func (l *loader) Load(name string) (*Geometry, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(name)
	if err != nil {
		return nil, err
	}

	f, err := l.source.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrResourceNotFound, name)
		}
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrIOFailure, name, err)
	}
	defer f.Close()

	g, err := backend.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	l.log.Debugf("loaded %s: %d vertices", name, len(g.Vertices))

	return l.store(name, g), nil
}

func (l *loader) LoadReader(name string, r io.Reader) (*Geometry, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(name)
	if err != nil {
		return nil, err
	}

	g, err := backend.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	return l.store(name, g), nil
}

// store caches g under name unless another load won the race, in which case the earlier result is kept.
func (l *loader) store(name string, g *Geometry) *Geometry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.geometryCache[name]; ok {
		return existing
	}
	l.geometryCache[name] = g
	return g
}

func (l *loader) Get(name string) *Geometry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.geometryCache[name]
}

func (l *loader) Geometries() map[string]*Geometry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Geometry, len(l.geometryCache))
	for k, v := range l.geometryCache {
		result[k] = v
	}
	return result
}

// resolveBackend selects a loader backend based on the file extension.
func (l *loader) resolveBackend(name string) (loaderBackend, error) {
	ext := strings.ToLower(path.Ext(name))
	if b, ok := l.backends[ext]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("unsupported model format: %q", ext)
}
