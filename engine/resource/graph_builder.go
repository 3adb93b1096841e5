package resource

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
)

// GraphBuilderOption is a functional option for configuring a Graph via NewGraph.
type GraphBuilderOption func(*graph)

// WithWorkers sets the maximum number of pool workers running tasks concurrently.
//
// Parameters:
//   - n: the worker count; values below 1 are treated as 1
//
// Returns:
//   - GraphBuilderOption: a function that applies the worker count to a graph
func WithWorkers(n int) GraphBuilderOption {
	return func(g *graph) {
		if n < 1 {
			n = 1
		}
		g.workers = n
	}
}

// WithQueueSize sets the capacity of the pool's task queue.
//
// Parameters:
//   - n: the queue capacity
//
// Returns:
//   - GraphBuilderOption: a function that applies the queue size to a graph
func WithQueueSize(n int) GraphBuilderOption {
	return func(g *graph) {
		if n < 1 {
			n = 1
		}
		g.queueSize = n
	}
}

// WithPool runs tasks on an existing pool instead of creating one. The graph stops the pool on Close.
func WithPool(p worker.DynamicWorkerPool) GraphBuilderOption {
	return func(g *graph) {
		g.pool = p
	}
}

// WithLogger sets the logger used for task scheduling diagnostics.
func WithLogger(log logging.Logger) GraphBuilderOption {
	return func(g *graph) {
		g.log = log
	}
}
