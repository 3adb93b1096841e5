package shader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const constantsSource = `struct Constants {
    model: mat4x4<f32>,
    view: mat4x4<f32>,
    projection: mat4x4<f32>,
};
`

const texturedVertex = `//@oxy:include constants
//@oxy:group 0 0 uniform constants constants

struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) uv: vec2<f32>,
    @location(2) normal: vec3<f32>,
};

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

@vertex
fn vs_main(input: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = constants.projection * constants.view * constants.model * vec4<f32>(input.position, 1.0);
    out.uv = input.uv;
    return out;
}
`

const litFragment = `//@oxy:include light_properties
//@oxy:provider 1 0 diffuse_texture
@group(1) @binding(0) var diffuse: texture_2d<f32>;
//@oxy:provider 1 1 diffuse_sampler
@group(1) @binding(1) var diffuse_sampler: sampler;
//@oxy:group 2 0 uniform light light_properties

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(diffuse, diffuse_sampler, uv) * light.global_ambient;
}
`

func newTestPreProcessor() PreProcessor {
	return NewPreProcessor(
		RegistryEntry{Key: "constants", Source: constantsSource, Type: "Constants"},
		RegistryEntry{Key: "light_properties", Source: light.GPULightSource, Type: "LightProperties"},
	)
}

func TestVertexShaderReflection(t *testing.T) {
	s, err := NewShader("textured.vert", StageVertex, texturedVertex, WithPreProcessor(newTestPreProcessor()))
	require.NoError(t, err)

	assert.Equal(t, "vs_main", s.EntryPoint())
	assert.Equal(t, StageVertex, s.Stage())
	assert.Contains(t, s.Source(), "struct Constants {")
	assert.Contains(t, s.Source(), "@group(0) @binding(0) var<uniform> constants: Constants;")
	assert.NotContains(t, s.Source(), "@oxy:include")

	layout, ok := s.VertexLayout()
	require.True(t, ok)
	assert.Equal(t, uint64(32), layout.Stride)
	require.Len(t, layout.Attributes, 3)
	assert.Equal(t, VertexAttribute{Location: 0, Name: "position", Format: VertexFormatFloat32x3, Offset: 0}, layout.Attributes[0])
	assert.Equal(t, VertexAttribute{Location: 1, Name: "uv", Format: VertexFormatFloat32x2, Offset: 12}, layout.Attributes[1])
	assert.Equal(t, VertexAttribute{Location: 2, Name: "normal", Format: VertexFormatFloat32x3, Offset: 20}, layout.Attributes[2])

	b, ok := s.Binding(0, 0)
	require.True(t, ok)
	assert.Equal(t, BindingKindUniform, b.Kind)
	assert.Equal(t, "constants", b.Name)
	assert.Equal(t, uint64(192), b.MinBindingSize)
	assert.Equal(t, StageVertex, b.Visibility)

	decls := s.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, AnnotationTypeGroup, decls[0].Type)
	assert.Equal(t, "constants", decls[0].Key)
}

func TestFragmentShaderBindings(t *testing.T) {
	s, err := NewShader("lit.frag", StageFragment, litFragment, WithPreProcessor(newTestPreProcessor()))
	require.NoError(t, err)

	assert.Equal(t, "fs_main", s.EntryPoint())
	_, ok := s.VertexLayout()
	assert.False(t, ok)

	bindings := s.Bindings()
	require.Len(t, bindings, 3)

	assert.Equal(t, BindingKindTexture, bindings[0].Kind)
	assert.Equal(t, TextureDimension2D, bindings[0].TextureDimension)
	assert.Equal(t, SampleTypeFloat, bindings[0].SampleType)
	assert.Equal(t, uint32(1), bindings[0].Group)

	assert.Equal(t, BindingKindSampler, bindings[1].Kind)
	assert.Equal(t, uint32(1), bindings[1].Binding)

	assert.Equal(t, BindingKindUniform, bindings[2].Kind)
	assert.Equal(t, uint32(2), bindings[2].Group)
	assert.Equal(t, uint64(light.GPULightPropertiesSize), bindings[2].MinBindingSize)
	assert.Equal(t, StageFragment, bindings[2].Visibility)

	decls := s.Declarations()
	require.Len(t, decls, 3)
	assert.Equal(t, BindingRoleDiffuseTexture, decls[0].Role)
	assert.Equal(t, BindingRoleDiffuseSampler, decls[1].Role)
	assert.Equal(t, uint32(1), decls[1].Binding)
	assert.Equal(t, AddressSpaceUniform, decls[2].AddressSpace)
}

func TestNewShaderErrors(t *testing.T) {
	_, err := NewShader("empty.vert", StageVertex, "struct A { x: f32, };")
	assert.ErrorIs(t, err, ErrNoEntryPoint)

	_, err = NewShader("frag.frag", StageFragment, texturedVertex, WithPreProcessor(newTestPreProcessor()))
	assert.ErrorIs(t, err, ErrNoEntryPoint)

	_, err = NewShader("unknown.vert", StageVertex, texturedVertex)
	assert.ErrorIs(t, err, ErrAnnotation)

	_, err = NewShader("bad.stage", StageNone, texturedVertex)
	assert.Error(t, err)

	s, err := NewShader("named.vert", StageVertex, texturedVertex,
		WithPreProcessor(newTestPreProcessor()), WithEntryPoint("main"))
	require.NoError(t, err)
	assert.Equal(t, "main", s.EntryPoint())
}

func TestParseAnnotationRejectsMalformedLines(t *testing.T) {
	cases := map[string]string{
		"empty":            "//@oxy:",
		"unknown type":     "//@oxy:macro x",
		"include arity":    "//@oxy:include a b",
		"group arity":      "//@oxy:group 0 0 uniform x",
		"group number":     "//@oxy:group g 0 uniform x constants",
		"binding number":   "//@oxy:group 0 -1 uniform x constants",
		"address space":    "//@oxy:group 0 0 private x constants",
		"provider arity":   "//@oxy:provider 1 0",
		"unknown role":     "//@oxy:provider 1 0 normal_texture",
		"provider binding": "//@oxy:provider 1 b diffuse_texture",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			a, err := parseAnnotation(line, 7)
			assert.Nil(t, a)
			assert.ErrorIs(t, err, ErrAnnotation)
			assert.Contains(t, err.Error(), "line 7")
		})
	}
}

func TestParseAnnotationIgnoresPlainLines(t *testing.T) {
	for _, line := range []string{"", "struct A { x: f32, };", "// a comment", "let s = \"@oxy:include x\";"} {
		a, err := parseAnnotation(line, 1)
		assert.NoError(t, err)
		assert.Nil(t, a)
	}
}

func TestPreProcessorArrayGroupAndDedup(t *testing.T) {
	pp := newTestPreProcessor()
	pp.Register(RegistryEntry{Key: "light", Source: "struct Light { color: vec4<f32>, };", Type: "Light"})
	assert.Equal(t, []string{"constants", "light", "light_properties"}, pp.Keys())

	src := "//@oxy:include light\n//@oxy:include light\n//@oxy:group 3 1 storage_read lights array<light>"
	out, decls, err := pp.Process(src)
	require.NoError(t, err)
	assert.Equal(t, "struct Light { color: vec4<f32>, };\n@group(3) @binding(1) var<storage, read> lights: array<Light>;", out)
	require.Len(t, decls, 1)
	assert.True(t, decls[0].Array)
	assert.Equal(t, "light", decls[0].Key)

	_, _, err = pp.Process("//@oxy:group 0 0 uniform c missing")
	assert.ErrorIs(t, err, ErrAnnotation)
}

func TestStructLayoutRules(t *testing.T) {
	structs := parseStructBlocks(stripComments(`
struct Packed {
    a: vec3<f32>, // shares a 16 byte slot with b
    b: f32,
};
struct Nested {
    p: Packed,
    m: array<mat4x4<f32>, 3>,
    /* block */ c: vec2<f32>,
};`))
	sizes := computeStructSizes(structs)

	assert.Equal(t, wgslTypeLayout{16, 16}, sizes["Packed"])
	// 16 + 192 = 208, vec2 at 208, size 216 rounded to 16.
	assert.Equal(t, wgslTypeLayout{224, 16}, sizes["Nested"])

	l, ok := resolveTypeLayout("array<vec3<f32>, 4>", nil)
	require.True(t, ok)
	assert.Equal(t, uint64(64), l.size)

	_, ok = resolveTypeLayout("array<Unknown, 2>", nil)
	assert.False(t, ok)
}
