package model

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
)

// DrawableBuilderOption is a functional option for configuring a Drawable via NewDrawable.
type DrawableBuilderOption func(*drawable)

// WithName is an option builder that sets the name of the Drawable.
//
// Parameters:
//   - name: the drawable identifier
//
// Returns:
//   - DrawableBuilderOption: a function that applies the name option to a drawable
func WithName(name string) DrawableBuilderOption {
	return func(d *drawable) {
		d.name = name
	}
}

// WithMesh is an option builder that sets an already uploaded mesh.
//
// Parameters:
//   - mesh: the mesh, owned by the drawable from now on
//
// Returns:
//   - DrawableBuilderOption: a function that applies the mesh option to a drawable
func WithMesh(mesh *renderer.Mesh) DrawableBuilderOption {
	return func(d *drawable) {
		d.mesh = mesh
	}
}

// WithPipeline is an option builder that sets the pipeline.
//
// Parameters:
//   - p: the pipeline
//
// Returns:
//   - DrawableBuilderOption: a function that applies the pipeline option to a drawable
func WithPipeline(p pipeline.Pipeline) DrawableBuilderOption {
	return func(d *drawable) {
		d.pipeline = p
	}
}

// WithConstantBuffer is an option builder that sets the constant buffer.
//
// Parameters:
//   - b: the uniform buffer, owned by the drawable from now on
//
// Returns:
//   - DrawableBuilderOption: a function that applies the constant buffer option to a drawable
func WithConstantBuffer(b renderer.Buffer) DrawableBuilderOption {
	return func(d *drawable) {
		d.constantBuffer = b
	}
}

// WithBindGroup is an option builder that sets the bind group of one group index.
//
// Parameters:
//   - group: the @group index
//   - bg: the bind group
//
// Returns:
//   - DrawableBuilderOption: a function that applies the bind group option to a drawable
func WithBindGroup(group uint32, bg renderer.BindGroup) DrawableBuilderOption {
	return func(d *drawable) {
		d.bindGroups[group] = bg
	}
}

// WithTexture is an option builder that hands the drawable a texture to release on teardown.
func WithTexture(t renderer.Texture) DrawableBuilderOption {
	return func(d *drawable) {
		d.textures = append(d.textures, t)
	}
}

// WithInstances is an option builder that sets the instance count. Values below 1 are ignored.
func WithInstances(n uint32) DrawableBuilderOption {
	return func(d *drawable) {
		if n > 0 {
			d.instances = n
		}
	}
}
