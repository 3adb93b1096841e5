package shader

import (
	"errors"
	"fmt"
)

// ErrNoEntryPoint is returned when the source has no entry function for the shader's stage.
var ErrNoEntryPoint = errors.New("shader has no entry point")

// shader is the implementation of the Shader interface.
type shader struct {
	key          string
	stage        Stage
	raw          string
	source       string
	entryPoint   string
	vertexLayout VertexLayout
	hasLayout    bool
	bindings     []Binding
	declarations []Annotation

	pp PreProcessor
}

// Shader is a pre-processed and reflected WGSL shader stage. It carries what pipeline creation needs: the final
// source, the entry point, the vertex input layout and the resource bindings.
type Shader interface {
	// Key returns the shader's unique identifier.
	//
	// Returns:
	//   - string: the key passed to NewShader
	Key() string

	// Stage returns the stage the shader was compiled for.
	//
	// Returns:
	//   - Stage: StageVertex or StageFragment
	Stage() Stage

	// Source returns the WGSL after annotation expansion.
	//
	// Returns:
	//   - string: the processed source
	Source() string

	// EntryPoint returns the name of the stage's entry function.
	//
	// Returns:
	//   - string: e.g. "vs_main"
	EntryPoint() string

	// VertexLayout returns the reflected vertex input layout. Only vertex shaders taking @location inputs have one.
	//
	// Returns:
	//   - VertexLayout: the layout
	//   - bool: false when the shader has no vertex inputs
	VertexLayout() (VertexLayout, bool)

	// Bindings returns the resource bindings declared by the shader, sorted by group then binding.
	//
	// Returns:
	//   - []Binding: the bindings, each visible to this shader's stage
	Bindings() []Binding

	// Binding looks up a single binding.
	//
	// Parameters:
	//   - group: the @group index
	//   - binding: the @binding index
	//
	// Returns:
	//   - Binding: the binding
	//   - bool: false if the shader does not declare it
	Binding(group, binding uint32) (Binding, bool)

	// Declarations returns the group and provider annotations found in the raw source.
	//
	// Returns:
	//   - []Annotation: the annotations in source order
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader pre-processes and reflects a WGSL shader stage.
//
// Parameters:
//   - key: a unique identifier used for caching and labels
//   - stage: StageVertex or StageFragment
//   - source: the raw WGSL, possibly containing @oxy: annotations
//   - options: functional options to configure the shader
//
// Returns:
//   - Shader: the reflected shader
//   - error: if pre-processing fails or the stage's entry point is missing
func NewShader(key string, stage Stage, source string, options ...ShaderBuilderOption) (Shader, error) {
	if stage != StageVertex && stage != StageFragment {
		return nil, fmt.Errorf("shader %s: unsupported stage %s", key, stage)
	}
	s := &shader{
		key:   key,
		stage: stage,
		raw:   source,
	}
	for _, option := range options {
		option(s)
	}
	if s.pp == nil {
		s.pp = NewPreProcessor()
	}
	if err := s.reflect(); err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Stage() Stage {
	return s.stage
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) VertexLayout() (VertexLayout, bool) {
	return s.vertexLayout, s.hasLayout
}

func (s *shader) Bindings() []Binding {
	return append([]Binding(nil), s.bindings...)
}

func (s *shader) Binding(group, binding uint32) (Binding, bool) {
	for _, b := range s.bindings {
		if b.Group == group && b.Binding == binding {
			return b, true
		}
	}
	return Binding{}, false
}

func (s *shader) Declarations() []Annotation {
	return append([]Annotation(nil), s.declarations...)
}

// reflect expands annotations and extracts the entry point, vertex layout and bindings.
func (s *shader) reflect() error {
	source, declarations, err := s.pp.Process(s.raw)
	if err != nil {
		return err
	}
	s.source = source
	s.declarations = declarations

	if s.entryPoint == "" {
		s.entryPoint = parseEntryPoint(source, s.stage)
	}
	if s.entryPoint == "" {
		return fmt.Errorf("%w for stage %s", ErrNoEntryPoint, s.stage)
	}
	if s.stage == StageVertex {
		s.vertexLayout, s.hasLayout = parseVertexLayout(source)
	}
	s.bindings = parseBindings(source, s.stage)
	return nil
}
