package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// wgslVertexFormatMap maps WGSL type names to vertex attribute formats.
var wgslVertexFormatMap = map[string]VertexFormat{
	"f32":       VertexFormatFloat32,
	"vec2f":     VertexFormatFloat32x2,
	"vec2<f32>": VertexFormatFloat32x2,
	"vec3f":     VertexFormatFloat32x3,
	"vec3<f32>": VertexFormatFloat32x3,
	"vec4f":     VertexFormatFloat32x4,
	"vec4<f32>": VertexFormatFloat32x4,
	"i32":       VertexFormatSint32,
	"vec2i":     VertexFormatSint32x2,
	"vec2<i32>": VertexFormatSint32x2,
	"vec3i":     VertexFormatSint32x3,
	"vec3<i32>": VertexFormatSint32x3,
	"vec4i":     VertexFormatSint32x4,
	"vec4<i32>": VertexFormatSint32x4,
	"u32":       VertexFormatUint32,
	"vec2u":     VertexFormatUint32x2,
	"vec2<u32>": VertexFormatUint32x2,
	"vec3u":     VertexFormatUint32x3,
	"vec3<u32>": VertexFormatUint32x3,
	"vec4u":     VertexFormatUint32x4,
	"vec4<u32>": VertexFormatUint32x4,
}

// wgslTextureDimensionMap maps sampled and depth texture base names to their view dimension.
var wgslTextureDimensionMap = map[string]TextureDimension{
	"texture_1d":                    TextureDimension1D,
	"texture_2d":                    TextureDimension2D,
	"texture_2d_array":              TextureDimension2DArray,
	"texture_3d":                    TextureDimension3D,
	"texture_cube":                  TextureDimensionCube,
	"texture_cube_array":            TextureDimensionCubeArray,
	"texture_multisampled_2d":       TextureDimension2D,
	"texture_depth_2d":              TextureDimension2D,
	"texture_depth_2d_array":        TextureDimension2DArray,
	"texture_depth_cube":            TextureDimensionCube,
	"texture_depth_cube_array":      TextureDimensionCubeArray,
	"texture_depth_multisampled_2d": TextureDimension2D,
}

// wgslSampleTypeMap maps WGSL scalar type parameters to texture sample types.
var wgslSampleTypeMap = map[string]SampleType{
	"f32": SampleTypeFloat,
	"i32": SampleTypeSint,
	"u32": SampleTypeUint,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body.
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes.
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes.
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field: optional attributes, name, colon, type.
	// The type capture is greedy to keep parameterized types like array<T, N> whole.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex captures the name and parameter list of the @vertex function.
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\s+fn\s+(\w+)\s*\(([^)]*)\)`)

	// fragmentEntryRegex captures the name of the @fragment function.
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\s+fn\s+(\w+)`)

	// bindingDeclRegex captures group, binding, optional address space, variable name and type from declarations like
	// `@group(0) @binding(0) var<uniform> constants: Constants;` or `@group(1) @binding(0) var tex: texture_2d<f32>;`.
	bindingDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseEntryPoint returns the name of the entry function for stage, or "" if the source has none.
func parseEntryPoint(source string, stage Stage) string {
	cleaned := stripComments(source)
	switch stage {
	case StageVertex:
		if m := vertexEntryRegex.FindStringSubmatch(cleaned); m != nil {
			return m[1]
		}
	case StageFragment:
		if m := fragmentEntryRegex.FindStringSubmatch(cleaned); m != nil {
			return m[1]
		}
	}
	return ""
}

// parseVertexLayout derives the vertex buffer layout from the struct taken by the @vertex function.
// When the entry point does not take a struct, the first pure vertex input struct in the source is used.
// Attributes are packed in field order.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - VertexLayout: the derived layout
//   - bool: false if no usable vertex input struct exists or one of its fields has no vertex format
func parseVertexLayout(source string) (VertexLayout, bool) {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)

	var candidate *parsedStruct
	if m := vertexEntryRegex.FindStringSubmatch(cleaned); m != nil {
		for _, param := range splitAtTopLevelCommas(m[2]) {
			_, typeName, ok := strings.Cut(param, ":")
			if !ok {
				continue
			}
			typeName = strings.TrimSpace(typeName)
			for i := range structs {
				if structs[i].name == typeName && isVertexInputStruct(structs[i]) {
					candidate = &structs[i]
				}
			}
		}
	}
	if candidate == nil {
		for i := range structs {
			if isVertexInputStruct(structs[i]) {
				candidate = &structs[i]
				break
			}
		}
	}
	if candidate == nil {
		return VertexLayout{}, false
	}
	return buildVertexLayout(*candidate)
}

// parseBindings extracts every @group/@binding declaration from the source, sorted by group then binding.
// Buffer bindings carry the resolved size of their type.
//
// Parameters:
//   - source: the WGSL source
//   - visibility: the stage declaring the bindings
//
// Returns:
//   - []Binding: the declared bindings
func parseBindings(source string, visibility Stage) []Binding {
	cleaned := stripComments(source)
	structSizes := computeStructSizes(parseStructBlocks(cleaned))

	var bindings []Binding
	for _, m := range bindingDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.ParseUint(m[1], 10, 32)
		binding, _ := strconv.ParseUint(m[2], 10, 32)
		typeName := strings.TrimSpace(m[5])

		b := classifyResource(uint32(group), uint32(binding), visibility, strings.TrimSpace(m[3]), typeName)
		b.Name = strings.TrimSpace(m[4])
		if b.Kind.IsBuffer() {
			if layout, ok := resolveTypeLayout(typeName, structSizes); ok {
				b.MinBindingSize = layout.size
			}
		}
		bindings = append(bindings, b)
	}

	sort.Slice(bindings, func(i, j int) bool {
		if bindings[i].Group != bindings[j].Group {
			return bindings[i].Group < bindings[j].Group
		}
		return bindings[i].Binding < bindings[j].Binding
	})
	return bindings
}

// parseStructBlocks finds every struct block in comment-free source.
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, m := range matches {
		structs = append(structs, parsedStruct{
			name:   m[1],
			fields: parseStructFields(m[2]),
		})
	}
	return structs
}

// parseStructFields splits a struct body into fields, recording @location and @builtin attributes.
func parseStructFields(body string) []parsedField {
	parts := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		field := parsedField{location: -1}
		if builtinRegex.MatchString(part) {
			field.isBuiltin = true
		}
		if lm := locationRegex.FindStringSubmatch(part); lm != nil {
			if loc, err := strconv.Atoi(lm[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(part)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}
	return fields
}
