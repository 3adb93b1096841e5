package shader

// Stage is a bit set of programmable pipeline stages.
type Stage uint32

const (
	StageNone     Stage = 0
	StageVertex   Stage = 1
	StageFragment Stage = 2
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageVertex | StageFragment:
		return "vertex|fragment"
	default:
		return "unknown"
	}
}

// VertexFormat is the format of one vertex attribute.
type VertexFormat int

const (
	VertexFormatUndefined VertexFormat = iota
	VertexFormatFloat32
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
	VertexFormatSint32
	VertexFormatSint32x2
	VertexFormatSint32x3
	VertexFormatSint32x4
	VertexFormatUint32
	VertexFormatUint32x2
	VertexFormatUint32x3
	VertexFormatUint32x4
)

// Size returns the attribute size in bytes.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32, VertexFormatSint32, VertexFormatUint32:
		return 4
	case VertexFormatFloat32x2, VertexFormatSint32x2, VertexFormatUint32x2:
		return 8
	case VertexFormatFloat32x3, VertexFormatSint32x3, VertexFormatUint32x3:
		return 12
	case VertexFormatFloat32x4, VertexFormatSint32x4, VertexFormatUint32x4:
		return 16
	default:
		return 0
	}
}

// VertexAttribute is one @location input of a vertex shader.
type VertexAttribute struct {
	Location uint32
	Name     string
	Format   VertexFormat
	Offset   uint64
}

// VertexLayout describes a tightly packed, per-vertex buffer feeding a vertex shader's input struct.
type VertexLayout struct {
	Stride     uint64
	Attributes []VertexAttribute
}

// BindingKind classifies a bound resource.
type BindingKind int

const (
	BindingKindUndefined BindingKind = iota
	BindingKindUniform
	BindingKindReadOnlyStorage
	BindingKindStorage
	BindingKindTexture
	BindingKindSampler
	BindingKindComparisonSampler
)

// IsBuffer reports whether the binding is backed by a buffer.
func (k BindingKind) IsBuffer() bool {
	return k == BindingKindUniform || k == BindingKindReadOnlyStorage || k == BindingKindStorage
}

// TextureDimension is the view dimension of a bound texture.
type TextureDimension int

const (
	TextureDimensionUndefined TextureDimension = iota
	TextureDimension1D
	TextureDimension2D
	TextureDimension2DArray
	TextureDimension3D
	TextureDimensionCube
	TextureDimensionCubeArray
)

// SampleType is the sample type of a bound texture.
type SampleType int

const (
	SampleTypeUndefined SampleType = iota
	SampleTypeFloat
	SampleTypeSint
	SampleTypeUint
	SampleTypeDepth
)

// Binding is one @group/@binding resource declared by a shader.
type Binding struct {
	Group      uint32
	Binding    uint32
	Name       string
	Kind       BindingKind
	Visibility Stage

	// MinBindingSize is the resolved size of the bound type for buffer bindings, or 0 if unknown.
	MinBindingSize uint64

	TextureDimension TextureDimension
	SampleType       SampleType
	Multisampled     bool
}

// wgslTypeLayout holds the byte size and alignment for a WGSL type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField is a single field extracted from a WGSL struct.
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct is a WGSL struct block extracted during parsing.
type parsedStruct struct {
	name   string
	fields []parsedField
}
