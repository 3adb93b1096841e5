// annotations.go parses the @oxy: comment annotations understood by the WGSL pre-processor.
//
// An annotation is a single-line WGSL comment. Three forms exist:
//
//	//@oxy:include <key>
//	//@oxy:group <group> <binding> <address_space> <var_name> <key | array<key>>
//	//@oxy:provider <group> <binding> <role>
//
// include injects a registered struct definition, group emits a @group/@binding declaration for a registered
// struct, and provider tags a hand-written binding (textures, samplers) with the role it plays so the scene can bind
// it without matching on variable names.
package shader

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const annotationPrefix = "@oxy:"

// ErrAnnotation is wrapped by every annotation parse or resolve failure.
var ErrAnnotation = errors.New("invalid shader annotation")

// AnnotationType identifies the kind of annotation.
type AnnotationType string

const (
	AnnotationTypeInclude  AnnotationType = "include"
	AnnotationTypeGroup    AnnotationType = "group"
	AnnotationTypeProvider AnnotationType = "provider"
)

// AddressSpace is the address space argument of a group annotation.
type AddressSpace string

const (
	AddressSpaceUniform          AddressSpace = "uniform"
	AddressSpaceStorageRead      AddressSpace = "storage_read"
	AddressSpaceStorageReadWrite AddressSpace = "storage_read_write"
)

// wgslVarQualifiers maps address spaces to the var<> qualifier emitted for them.
var wgslVarQualifiers = map[AddressSpace]string{
	AddressSpaceUniform:          "var<uniform>",
	AddressSpaceStorageRead:      "var<storage, read>",
	AddressSpaceStorageReadWrite: "var<storage, read_write>",
}

// BindingRole names what a provider-tagged binding holds.
type BindingRole string

const (
	BindingRoleDiffuseTexture BindingRole = "diffuse_texture"
	BindingRoleDiffuseSampler BindingRole = "diffuse_sampler"
)

var validBindingRoles = []BindingRole{
	BindingRoleDiffuseTexture,
	BindingRoleDiffuseSampler,
}

// Annotation is one parsed @oxy: line.
type Annotation struct {
	Type AnnotationType

	// Line is the 1-based source line, for error messages.
	Line int

	// Key is the registry key for include and group annotations.
	Key string

	// Array is set when a group annotation declares array<key>.
	Array bool

	// Group and Binding are set for group and provider annotations.
	Group   uint32
	Binding uint32

	// AddressSpace and VarName are set for group annotations.
	AddressSpace AddressSpace
	VarName      string

	// Role is set for provider annotations.
	Role BindingRole
}

// parseAnnotation parses one source line. Lines without the prefix return (nil, nil).
// Only the syntax is checked here; registry keys are resolved by the pre-processor.
//
// Parameters:
//   - line: the raw source line
//   - lineNum: the 1-based line number
//
// Returns:
//   - *Annotation: the annotation, or nil for ordinary lines
//   - error: wrapping ErrAnnotation when the line is a malformed annotation
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: line %d: empty annotation", ErrAnnotation, lineNum)
	}

	a := &Annotation{Type: AnnotationType(args[0]), Line: lineNum}
	switch a.Type {
	case AnnotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: line %d: include takes one key", ErrAnnotation, lineNum)
		}
		a.Key = args[1]

	case AnnotationTypeGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("%w: line %d: group takes group, binding, address space, name and type", ErrAnnotation, lineNum)
		}
		if err := a.parseSlot(args[1], args[2]); err != nil {
			return nil, err
		}
		a.AddressSpace = AddressSpace(args[3])
		if _, ok := wgslVarQualifiers[a.AddressSpace]; !ok {
			return nil, fmt.Errorf("%w: line %d: unknown address space %q", ErrAnnotation, lineNum, args[3])
		}
		a.VarName = args[4]
		a.Key = args[5]
		if inner, ok := strings.CutPrefix(a.Key, "array<"); ok {
			a.Key = strings.TrimSuffix(inner, ">")
			a.Array = true
		}

	case AnnotationTypeProvider:
		if len(args) != 4 {
			return nil, fmt.Errorf("%w: line %d: provider takes group, binding and role", ErrAnnotation, lineNum)
		}
		if err := a.parseSlot(args[1], args[2]); err != nil {
			return nil, err
		}
		a.Role = BindingRole(args[3])
		if !slices.Contains(validBindingRoles, a.Role) {
			return nil, fmt.Errorf("%w: line %d: unknown binding role %q", ErrAnnotation, lineNum, args[3])
		}

	default:
		return nil, fmt.Errorf("%w: line %d: unknown annotation %q", ErrAnnotation, lineNum, args[0])
	}
	return a, nil
}

func (a *Annotation) parseSlot(group, binding string) error {
	g, err := strconv.ParseUint(group, 10, 32)
	if err != nil {
		return fmt.Errorf("%w: line %d: group %q: %w", ErrAnnotation, a.Line, group, err)
	}
	b, err := strconv.ParseUint(binding, 10, 32)
	if err != nil {
		return fmt.Errorf("%w: line %d: binding %q: %w", ErrAnnotation, a.Line, binding, err)
	}
	a.Group, a.Binding = uint32(g), uint32(b)
	return nil
}
