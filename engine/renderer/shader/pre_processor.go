package shader

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// RegistryEntry is a WGSL struct that annotations can refer to by key.
type RegistryEntry struct {
	// Key is the name used in include and group annotations, e.g. "constants".
	Key string

	// Source is the WGSL struct definition injected by include.
	Source string

	// Type is the WGSL type name emitted by group, e.g. "Constants".
	Type string
}

// PreProcessor expands @oxy: annotations in WGSL source.
type PreProcessor interface {
	// Process returns source with include lines replaced by struct definitions and group lines replaced by binding
	// declarations. Provider lines are kept as comments. Safe for concurrent use.
	//
	// Parameters:
	//   - source: WGSL with annotations
	//
	// Returns:
	//   - string: plain WGSL
	//   - []Annotation: the group and provider annotations, in source order
	//   - error: wrapping ErrAnnotation for malformed lines or unregistered keys
	Process(source string) (string, []Annotation, error)

	// Keys returns the registered struct keys.
	//
	// Returns:
	//   - []string: the keys, sorted
	Keys() []string

	// Register adds or replaces a registry entry.
	//
	// Parameters:
	//   - entry: the struct to register
	Register(entry RegistryEntry)
}

type preProcessor struct {
	mu       *sync.RWMutex
	registry map[string]RegistryEntry
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor that knows the given structs.
//
// Parameters:
//   - entries: the structs annotations may refer to
//
// Returns:
//   - PreProcessor: the pre-processor
func NewPreProcessor(entries ...RegistryEntry) PreProcessor {
	p := &preProcessor{
		mu:       &sync.RWMutex{},
		registry: make(map[string]RegistryEntry, len(entries)),
	}
	for _, e := range entries {
		p.registry[e.Key] = e
	}
	return p
}

func (p *preProcessor) Register(entry RegistryEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registry[entry.Key] = entry
}

func (p *preProcessor) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Sorted(maps.Keys(p.registry))
}

func (p *preProcessor) Process(source string) (string, []Annotation, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var declarations []Annotation
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	included := make(map[string]bool)

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", nil, err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			entry, ok := p.registry[a.Key]
			if !ok {
				return "", nil, fmt.Errorf("%w: line %d: unknown struct %q", ErrAnnotation, a.Line, a.Key)
			}
			// A struct included twice would be a WGSL redeclaration.
			if !included[a.Key] {
				out = append(out, entry.Source)
				included[a.Key] = true
			}

		case AnnotationTypeGroup:
			entry, ok := p.registry[a.Key]
			if !ok {
				return "", nil, fmt.Errorf("%w: line %d: unknown struct %q", ErrAnnotation, a.Line, a.Key)
			}
			typeName := entry.Type
			if a.Array {
				typeName = "array<" + typeName + ">"
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
				a.Group, a.Binding, wgslVarQualifiers[a.AddressSpace], a.VarName, typeName))
			declarations = append(declarations, *a)

		case AnnotationTypeProvider:
			out = append(out, line)
			declarations = append(declarations, *a)
		}
	}
	return strings.Join(out, "\n"), declarations, nil
}
