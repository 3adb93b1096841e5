package shader

import (
	"strconv"
	"strings"
)

// wgslPrimitiveLayouts holds size and alignment of the host-shareable WGSL scalar, vector and matrix types.
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayouts = map[string]wgslTypeLayout{
	"f32": {4, 4}, "i32": {4, 4}, "u32": {4, 4}, "f16": {2, 2},
	"atomic<u32>": {4, 4}, "atomic<i32>": {4, 4},

	"vec2<f32>": {8, 8}, "vec2f": {8, 8}, "vec2<i32>": {8, 8}, "vec2i": {8, 8}, "vec2<u32>": {8, 8}, "vec2u": {8, 8},
	"vec3<f32>": {12, 16}, "vec3f": {12, 16}, "vec3<i32>": {12, 16}, "vec3i": {12, 16}, "vec3<u32>": {12, 16}, "vec3u": {12, 16},
	"vec4<f32>": {16, 16}, "vec4f": {16, 16}, "vec4<i32>": {16, 16}, "vec4i": {16, 16}, "vec4<u32>": {16, 16}, "vec4u": {16, 16},

	// matCxR: C columns, each a vecR padded to its alignment.
	"mat2x2<f32>": {16, 8}, "mat2x3<f32>": {32, 16}, "mat2x4<f32>": {32, 16},
	"mat3x2<f32>": {24, 8}, "mat3x3<f32>": {48, 16}, "mat3x4<f32>": {48, 16},
	"mat4x2<f32>": {32, 8}, "mat4x3<f32>": {64, 16}, "mat4x4<f32>": {64, 16},
	"mat4x4f": {64, 16}, "mat3x3f": {48, 16},
}

// roundUpAlign rounds value up to a multiple of alignment, which must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout returns the size and alignment of a WGSL type. Fixed arrays are count * stride; a runtime
// sized array reports a single element so callers get a usable minimum binding size.
//
// Parameters:
//   - typeName: e.g. "f32", "Constants", "array<mat4x4<f32>, 3>"
//   - knownTypes: struct layouts resolved so far
//
// Returns:
//   - wgslTypeLayout: the resolved layout
//   - bool: false for unknown types
func resolveTypeLayout(typeName string, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslPrimitiveLayouts[typeName]; ok {
		return layout, true
	}
	if layout, ok := knownTypes[typeName]; ok {
		return layout, true
	}

	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok || !strings.HasSuffix(inner, ">") {
		return wgslTypeLayout{}, false
	}
	parts := splitAtTopLevelCommas(strings.TrimSuffix(inner, ">"))
	elem, ok := resolveTypeLayout(strings.TrimSpace(parts[0]), knownTypes)
	if !ok {
		return wgslTypeLayout{}, false
	}
	stride := roundUpAlign(elem.align, elem.size)
	if len(parts) < 2 {
		return wgslTypeLayout{stride, elem.align}, true
	}
	count, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return wgslTypeLayout{}, false
	}
	return wgslTypeLayout{count * stride, elem.align}, true
}

// computeStructLayout lays out a struct's fields at their aligned offsets and rounds the size up to the largest
// field alignment. Builtin fields are not part of buffer layouts and are skipped.
func computeStructLayout(ps parsedStruct, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	var offset uint64
	maxAlign := uint64(1)

	for _, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		fl, ok := resolveTypeLayout(f.typeName, knownTypes)
		if !ok {
			return wgslTypeLayout{}, false
		}
		offset = roundUpAlign(fl.align, offset) + fl.size
		maxAlign = max(maxAlign, fl.align)
	}
	return wgslTypeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

// computeStructSizes resolves every struct, repeating until no struct can be added so structs may nest in any
// declaration order.
func computeStructSizes(structs []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(structs))
	pending := append([]parsedStruct(nil), structs...)

	for len(pending) > 0 {
		var next []parsedStruct
		for _, ps := range pending {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return resolved
}

// classifyResource builds a Binding from a parsed declaration. The address space decides buffer kinds; handle
// types (textures and samplers) are recognised from the type name.
//
// Parameters:
//   - group: the group index from @group(N)
//   - binding: the binding index from @binding(N)
//   - visibility: the declaring stage
//   - addressSpace: e.g. "uniform" or "storage, read_write"; empty for handle types
//   - typeName: the WGSL type, e.g. "Constants", "texture_2d<f32>", "sampler"
//
// Returns:
//   - Binding: the classified binding without its name
func classifyResource(group, binding uint32, visibility Stage, addressSpace, typeName string) Binding {
	b := Binding{
		Group:      group,
		Binding:    binding,
		Visibility: visibility,
	}

	if addressSpace != "" {
		switch {
		case addressSpace == "uniform":
			b.Kind = BindingKindUniform
		case strings.HasPrefix(addressSpace, "storage"):
			if strings.Contains(addressSpace, "read_write") {
				b.Kind = BindingKindStorage
			} else {
				b.Kind = BindingKindReadOnlyStorage
			}
		}
		return b
	}

	switch {
	case typeName == "sampler":
		b.Kind = BindingKindSampler
	case typeName == "sampler_comparison":
		b.Kind = BindingKindComparisonSampler
	case strings.HasPrefix(typeName, "texture_depth_"):
		b.Kind = BindingKindTexture
		b.SampleType = SampleTypeDepth
		b.TextureDimension = wgslTextureDimensionMap[typeName]
		b.Multisampled = strings.Contains(typeName, "multisampled")
	case strings.HasPrefix(typeName, "texture_"):
		base, param := splitTypeParams(typeName)
		b.Kind = BindingKindTexture
		b.TextureDimension = wgslTextureDimensionMap[base]
		b.SampleType = wgslSampleTypeMap[param]
		b.Multisampled = strings.Contains(base, "multisampled")
	}
	return b
}

// splitTypeParams splits "texture_2d<f32>" into ("texture_2d", "f32"). Types without parameters return "" params.
func splitTypeParams(typeName string) (base string, params string) {
	base, params, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return base, strings.TrimSpace(strings.TrimSuffix(params, ">"))
}

// stripComments removes line comments and (nested) block comments.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		switch {
		case depth == 0 && strings.HasPrefix(source[i:], "//"):
			nl := strings.IndexByte(source[i:], '\n')
			if nl < 0 {
				return sb.String()
			}
			i += nl - 1
		case strings.HasPrefix(source[i:], "/*"):
			depth++
			i++
		case depth > 0 && strings.HasPrefix(source[i:], "*/"):
			depth--
			i++
		case depth == 0:
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// isVertexInputStruct reports whether every field of ps is a @location input. Structs mixing in @builtin fields
// are stage outputs.
func isVertexInputStruct(ps parsedStruct) bool {
	if len(ps.fields) == 0 {
		return false
	}
	for _, f := range ps.fields {
		if f.isBuiltin || f.location < 0 {
			return false
		}
	}
	return true
}

// buildVertexLayout packs the fields of a vertex input struct in declaration order.
// Returns false if a field type has no vertex format.
func buildVertexLayout(ps parsedStruct) (VertexLayout, bool) {
	attrs := make([]VertexAttribute, 0, len(ps.fields))
	var offset uint64

	for _, f := range ps.fields {
		format, ok := wgslVertexFormatMap[f.typeName]
		if !ok || f.location < 0 {
			return VertexLayout{}, false
		}
		attrs = append(attrs, VertexAttribute{
			Location: uint32(f.location),
			Name:     f.name,
			Format:   format,
			Offset:   offset,
		})
		offset += format.Size()
	}

	return VertexLayout{Stride: offset, Attributes: attrs}, true
}

// splitAtTopLevelCommas splits s at commas outside angle brackets and parentheses, so "array<T, 3>" stays whole.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
