package resource

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidGraph is returned by Graph.Start when the task set has a duplicate name, an unknown dependency or a cycle.
var ErrInvalidGraph = errors.New("invalid load graph")

// ErrAlreadyStarted is returned by Graph.Add and Graph.Start once a run has begun. Reset the graph first.
var ErrAlreadyStarted = errors.New("load graph already started")

// Task is one unit of asynchronous load work producing a single artifact.
type Task struct {
	// Name identifies the task and its result. Names are unique within a graph.
	Name string

	// Deps names the tasks that must succeed before this one runs.
	Deps []string

	// Run produces the task's artifact. deps holds the results of every task named in Deps.
	// Run is called at most once per graph run, on a worker goroutine.
	Run func(ctx context.Context, deps Results) (any, error)
}

// Results is a read-only view of finished task results keyed by task name.
type Results map[string]any

// Get returns the result of the named task.
func (r Results) Get(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

// ResultAs returns the named result converted to T.
//
// Parameters:
//   - r: the results view handed to a task
//   - name: the predecessor task name
//
// Returns:
//   - T: the typed result
//   - error: error if the result is missing or has a different type
func ResultAs[T any](r Results, name string) (T, error) {
	var zero T
	v, ok := r[name]
	if !ok {
		return zero, fmt.Errorf("no result for task %q", name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("result of task %q is %T, not %T", name, v, zero)
	}
	return t, nil
}

// TaskError attributes a failure to the task that produced it. errors.Is and errors.As see through to Err.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("load task %q: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}
