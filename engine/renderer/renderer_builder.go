package renderer

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPipeline caches a pipeline whose GPU object already exists. No backend call is made.
//
// Parameters:
//   - p: the pipeline to cache under p.Key()
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipeline option to a renderer
func WithPipeline(p pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.pipelineCache[p.Key()] = p
	}
}

// WithLogger replaces the renderer's logger.
//
// Parameters:
//   - log: the logger to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(log logging.Logger) RendererBuilderOption {
	return func(r *renderer) {
		r.log = log
	}
}
