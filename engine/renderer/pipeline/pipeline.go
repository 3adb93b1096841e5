package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
)

// ErrIncompatibleShaders is returned when the two stages of a pipeline cannot share one layout.
var ErrIncompatibleShaders = errors.New("incompatible shader stages")

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// FrontFace selects the winding order of front-facing triangles.
type FrontFace int

const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	mu *sync.Mutex

	key string

	vertexShader, fragmentShader shader.Shader

	// bindings is the union of both stages' bindings, set once at construction.
	bindings []shader.Binding

	// handle is the backend object created from this description.
	handle any

	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          CullMode
	frontFace         FrontFace
}

// Pipeline describes a render pipeline: a vertex and fragment shader pair with their merged resource layout, plus
// the fixed-function state. A backend turns the description into a GPU object and stores it with SetHandle.
type Pipeline interface {
	// Key returns the unique key used for caching and lookups.
	//
	// Returns:
	//   - string: the pipeline key
	Key() string

	// Shader returns the shader for a stage.
	//
	// Parameters:
	//   - stage: shader.StageVertex or shader.StageFragment
	//
	// Returns:
	//   - shader.Shader: the shader, or nil for other stages
	Shader(stage shader.Stage) shader.Shader

	// VertexLayout returns the vertex buffer layout reflected from the vertex shader.
	//
	// Returns:
	//   - shader.VertexLayout: the layout
	//   - bool: false if the vertex shader takes no vertex inputs
	VertexLayout() (shader.VertexLayout, bool)

	// Bindings returns every binding used by either stage, sorted by group then binding. A binding declared by both
	// stages appears once, visible to both.
	//
	// Returns:
	//   - []shader.Binding: the merged bindings
	Bindings() []shader.Binding

	// Groups returns the bind group indices used by the pipeline in ascending order.
	//
	// Returns:
	//   - []uint32: the group indices
	Groups() []uint32

	// GroupBindings returns the bindings of one group.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - []shader.Binding: the group's bindings, nil if the group is unused
	GroupBindings(group uint32) []shader.Binding

	DepthTestEnabled() bool
	DepthWriteEnabled() bool
	BlendEnabled() bool
	CullMode() CullMode
	FrontFace() FrontFace

	// Handle returns the backend pipeline object, nil until created.
	//
	// Returns:
	//   - any: the backend object; callers type assert it
	Handle() any

	// SetHandle stores the backend pipeline object.
	//
	// Parameters:
	//   - h: the backend object, or nil to clear it
	SetHandle(h any)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render pipeline description. Depth test and write default to on, culling to none.
//
// Parameters:
//   - key: the unique key for this pipeline
//   - opts: functional options; WithVertexShader and WithFragmentShader are required
//
// Returns:
//   - Pipeline: the description
//   - error: if a shader is missing or the stages declare the same slot differently
func NewPipeline(key string, opts ...PipelineBuilderOption) (Pipeline, error) {
	p := &pipeline{
		mu:                &sync.Mutex{},
		key:               key,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          CullModeNone,
		frontFace:         FrontFaceCCW,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.vertexShader == nil || p.fragmentShader == nil {
		return nil, fmt.Errorf("pipeline %s: vertex and fragment shaders are required", key)
	}
	if p.vertexShader.Stage() != shader.StageVertex || p.fragmentShader.Stage() != shader.StageFragment {
		return nil, fmt.Errorf("pipeline %s: %w: shader stages swapped", key, ErrIncompatibleShaders)
	}

	bindings, err := mergeBindings(p.vertexShader.Bindings(), p.fragmentShader.Bindings())
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", key, err)
	}
	p.bindings = bindings
	return p, nil
}

// mergeBindings unions two stages' bindings. A slot declared by both must agree on kind.
func mergeBindings(vertex, fragment []shader.Binding) ([]shader.Binding, error) {
	type slot struct{ group, binding uint32 }
	merged := make(map[slot]shader.Binding, len(vertex)+len(fragment))

	for _, b := range append(append([]shader.Binding(nil), vertex...), fragment...) {
		k := slot{b.Group, b.Binding}
		existing, ok := merged[k]
		if !ok {
			merged[k] = b
			continue
		}
		if existing.Kind != b.Kind {
			return nil, fmt.Errorf("%w: @group(%d) @binding(%d) declared as different resource kinds",
				ErrIncompatibleShaders, b.Group, b.Binding)
		}
		existing.Visibility |= b.Visibility
		existing.MinBindingSize = max(existing.MinBindingSize, b.MinBindingSize)
		merged[k] = existing
	}

	out := make([]shader.Binding, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Binding < out[j].Binding
	})
	return out, nil
}

func (p *pipeline) Key() string {
	return p.key
}

func (p *pipeline) Shader(stage shader.Stage) shader.Shader {
	switch stage {
	case shader.StageVertex:
		return p.vertexShader
	case shader.StageFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) VertexLayout() (shader.VertexLayout, bool) {
	return p.vertexShader.VertexLayout()
}

func (p *pipeline) Bindings() []shader.Binding {
	return append([]shader.Binding(nil), p.bindings...)
}

func (p *pipeline) Groups() []uint32 {
	var groups []uint32
	for _, b := range p.bindings {
		if len(groups) == 0 || groups[len(groups)-1] != b.Group {
			groups = append(groups, b.Group)
		}
	}
	return groups
}

func (p *pipeline) GroupBindings(group uint32) []shader.Binding {
	var out []shader.Binding
	for _, b := range p.bindings {
		if b.Group == group {
			out = append(out, b)
		}
	}
	return out
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() CullMode {
	return p.cullMode
}

func (p *pipeline) FrontFace() FrontFace {
	return p.frontFace
}

func (p *pipeline) Handle() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}

func (p *pipeline) SetHandle(h any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handle = h
}
