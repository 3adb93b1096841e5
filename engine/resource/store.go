package resource

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/Carmen-Shannon/oxy-scene/common"
)

// Store reads named asset files from an ordered list of file systems. The first layer holding a file wins, so a
// directory on disk placed ahead of the embedded defaults overrides them file by file.
//
// Store implements fs.FS and fs.ReadFileFS and can be handed to anything that reads from a file system.
type Store struct {
	layers []fs.FS
}

var (
	_ fs.FS         = (*Store)(nil)
	_ fs.ReadFileFS = (*Store)(nil)
)

// NewStore creates a Store searching layers in order. Nil layers are skipped.
//
// Parameters:
//   - layers: the file systems to search, highest priority first
//
// Returns:
//   - *Store: the new store
func NewStore(layers ...fs.FS) *Store {
	s := &Store{}
	for _, l := range layers {
		if l != nil {
			s.layers = append(s.layers, l)
		}
	}
	return s
}

// Open opens name from the first layer that has it.
func (s *Store) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	for _, l := range s.layers {
		f, err := l.Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// ReadFile returns the full contents of name.
//
// Parameters:
//   - name: the slash separated asset path
//
// Returns:
//   - []byte: the file contents
//   - error: ErrResourceNotFound (also matching fs.ErrNotExist) if no layer has the file, ErrIOFailure if it
//     cannot be read
func (s *Store) ReadFile(name string) ([]byte, error) {
	f, err := s.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", common.ErrResourceNotFound, err)
		}
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrIOFailure, name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", common.ErrIOFailure, name, err)
	}
	return data, nil
}

// Texture reads and decodes an image file into RGBA staging data.
//
// Parameters:
//   - name: the slash separated asset path
//
// Returns:
//   - common.TextureStagingData: the decoded pixels
//   - error: error if the file is missing, unreadable or cannot be decoded
func (s *Store) Texture(name string) (common.TextureStagingData, error) {
	data, err := s.ReadFile(name)
	if err != nil {
		return common.TextureStagingData{}, err
	}
	return common.DecodeTexture(name, data)
}
