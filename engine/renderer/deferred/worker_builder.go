package deferred

import "github.com/Carmen-Shannon/oxy-scene/engine/logging"

// WorkerBuilderOption is a functional option for configuring a Worker.
type WorkerBuilderOption func(*worker)

// WithLogger replaces the worker's logger.
//
// Parameters:
//   - log: the logger to use
//
// Returns:
//   - WorkerBuilderOption: a function that applies the logger
func WithLogger(log logging.Logger) WorkerBuilderOption {
	return func(w *worker) {
		w.log = log
	}
}

// WithBeforeFinish installs a hook that runs on the recording goroutine right before the context is finished.
//
// Parameters:
//   - hook: called with the job being recorded
//
// Returns:
//   - WorkerBuilderOption: a function that applies the hook
func WithBeforeFinish(hook func(*Job)) WorkerBuilderOption {
	return func(w *worker) {
		w.beforeFinish = hook
	}
}
