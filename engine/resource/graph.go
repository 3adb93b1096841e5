package resource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
)

// Graph runs a set of load tasks with dependency edges and reports when all of them have succeeded.
//
// Independent tasks run concurrently on a worker pool. A single coordinator goroutine owns scheduling: it submits the
// roots, and each time a task finishes it submits every dependent whose predecessors have all succeeded. The first
// failure stops scheduling and is kept for the rest of the run. Tasks already running are not interrupted.
type Graph interface {
	// Add registers a task. Validation of names and dependencies happens in Start.
	//
	// Parameters:
	//   - t: the task to add
	//
	// Returns:
	//   - error: ErrAlreadyStarted if a run is in progress or finished without Reset
	Add(t Task) error

	// Start validates the task set and begins scheduling. It does not block.
	// Cancelling ctx stops scheduling of new tasks and makes the run fail with the context's error.
	//
	// Parameters:
	//   - ctx: the context bounding the run
	//
	// Returns:
	//   - error: ErrInvalidGraph on a duplicate name, unknown dependency or cycle; ErrAlreadyStarted if already started
	Start(ctx context.Context) error

	// Ready reports whether every task has completed successfully.
	//
	// Returns:
	//   - bool: true once the whole graph has succeeded
	Ready() bool

	// Wait blocks until the run finishes or ctx is done.
	//
	// Parameters:
	//   - ctx: bounds the wait only; the run continues if it expires
	//
	// Returns:
	//   - error: the run's failure, ctx's error, or nil once ready
	Wait(ctx context.Context) error

	// Err returns the run's first failure, if any.
	//
	// Returns:
	//   - error: a *TaskError for task failures, nil otherwise
	Err() error

	// Result returns the artifact produced by a completed task.
	//
	// Parameters:
	//   - name: the task name
	//
	// Returns:
	//   - any: the task's result
	//   - bool: false if the task has not completed successfully
	Result(name string) (any, bool)

	// Reset stops scheduling, waits for the coordinator to exit, and clears the tasks, results and readiness so
	// a new set of tasks can be added.
	Reset()

	// Close resets the graph and stops the worker pool.
	Close()
}

// graph is the implementation of the Graph interface.
type graph struct {
	mu *sync.Mutex

	log logging.Logger

	workers   int
	queueSize int
	pool      worker.DynamicWorkerPool

	tasks   []Task
	results map[string]any
	barrier *Barrier
	err     error

	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	nextID  int
}

var _ Graph = &graph{}

// completion carries a finished task back to the coordinator.
type completion struct {
	name   string
	result any
	err    error
}

// NewGraph creates an empty Graph. The worker pool is created on the first Start unless one is supplied.
//
// Parameters:
//   - options: functional options to configure the graph
//
// Returns:
//   - Graph: the new graph
func NewGraph(options ...GraphBuilderOption) Graph {
	g := &graph{
		mu:        &sync.Mutex{},
		log:       logging.New("resource"),
		workers:   4,
		queueSize: 32,
		results:   make(map[string]any),
	}
	for _, option := range options {
		option(g)
	}
	return g
}

func (g *graph) Add(t Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return fmt.Errorf("add %q: %w", t.Name, ErrAlreadyStarted)
	}
	g.tasks = append(g.tasks, t)
	return nil
}

func (g *graph) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return ErrAlreadyStarted
	}

	dependents, pending, err := validate(g.tasks)
	if err != nil {
		return err
	}

	if g.pool == nil {
		g.pool = worker.NewDynamicWorkerPool(g.workers, g.queueSize, 1*time.Second)
	}

	runCtx, cancel := context.WithCancel(ctx)
	g.started = true
	g.cancel = cancel
	g.done = make(chan struct{})
	g.results = make(map[string]any, len(g.tasks))
	g.barrier = NewBarrier(len(g.tasks))
	g.err = nil

	byName := make(map[string]Task, len(g.tasks))
	for _, t := range g.tasks {
		byName[t.Name] = t
	}

	g.log.Debugf("starting load graph with %d tasks", len(g.tasks))
	go g.coordinate(runCtx, byName, dependents, pending, g.barrier, g.done)
	return nil
}

// coordinate is the only goroutine that submits work to the pool. Workers report back on a channel sized for
// every task so a late completion never blocks a worker after the coordinator has left.
func (g *graph) coordinate(ctx context.Context, tasks map[string]Task, dependents map[string][]string, pending map[string]int, barrier *Barrier, done chan struct{}) {
	defer close(done)

	completions := make(chan completion, len(tasks))
	inFlight := 0

	submit := func(name string) {
		deps := make(Results, len(tasks[name].Deps))
		g.mu.Lock()
		for _, d := range tasks[name].Deps {
			deps[d] = g.results[d]
		}
		id := g.nextID
		g.nextID++
		g.mu.Unlock()

		inFlight++
		t := tasks[name]
		g.log.Debugf("task %s scheduled", name)
		g.pool.SubmitTask(worker.Task{
			ID:      id,
			Payload: name,
			Do: func() (any, error) {
				res, err := runTask(ctx, t, deps)
				completions <- completion{name: name, result: res, err: err}
				return res, err
			},
		})
	}

	for name, n := range pending {
		if n == 0 {
			submit(name)
		}
	}

	for inFlight > 0 {
		select {
		case <-ctx.Done():
			g.fail(&TaskError{Task: "(scheduler)", Err: ctx.Err()})
			return
		case c := <-completions:
			inFlight--
			if c.err != nil {
				g.log.Errorf("task %s failed: %v", c.name, c.err)
				g.fail(&TaskError{Task: c.name, Err: c.err})
				return
			}

			g.mu.Lock()
			g.results[c.name] = c.result
			g.mu.Unlock()
			g.log.Debugf("task %s finished", c.name)

			for _, dep := range dependents[c.name] {
				pending[dep]--
				if pending[dep] == 0 && ctx.Err() == nil {
					submit(dep)
				}
			}
			if barrier.Done() {
				g.log.Infof("load graph ready (%d tasks)", barrier.Total())
			}
		}
	}
}

func (g *graph) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err == nil {
		g.err = err
	}
}

// runTask calls t.Run, turning a panic into an error so a bad task cannot take down a pool worker.
func runTask(ctx context.Context, t Task, deps Results) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if t.Run == nil {
		return nil, nil
	}
	return t.Run(ctx, deps)
}

func (g *graph) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.barrier != nil && g.err == nil && g.barrier.Ready()
}

func (g *graph) Wait(ctx context.Context) error {
	g.mu.Lock()
	done := g.done
	g.mu.Unlock()
	if done == nil {
		return fmt.Errorf("wait: load graph not started")
	}

	select {
	case <-done:
		return g.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *graph) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *graph) Result(name string) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.results[name]
	return v, ok
}

func (g *graph) Reset() {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks = nil
	g.results = make(map[string]any)
	g.barrier = nil
	g.err = nil
	g.started = false
	g.cancel = nil
	g.done = nil
}

func (g *graph) Close() {
	g.Reset()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pool != nil {
		g.pool.Stop()
		g.pool = nil
	}
}

// validate checks names and edges and returns, per task, the tasks depending on it and its unmet dependency count.
func validate(tasks []Task) (map[string][]string, map[string]int, error) {
	pending := make(map[string]int, len(tasks))
	for _, t := range tasks {
		if t.Name == "" {
			return nil, nil, fmt.Errorf("%w: task with empty name", ErrInvalidGraph)
		}
		if _, dup := pending[t.Name]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate task %q", ErrInvalidGraph, t.Name)
		}
		pending[t.Name] = len(t.Deps)
	}

	dependents := make(map[string][]string, len(tasks))
	for _, t := range tasks {
		seen := make(map[string]bool, len(t.Deps))
		for _, d := range t.Deps {
			if _, ok := pending[d]; !ok {
				return nil, nil, fmt.Errorf("%w: task %q depends on unknown task %q", ErrInvalidGraph, t.Name, d)
			}
			if seen[d] {
				return nil, nil, fmt.Errorf("%w: task %q lists dependency %q twice", ErrInvalidGraph, t.Name, d)
			}
			seen[d] = true
			dependents[d] = append(dependents[d], t.Name)
		}
	}

	// Kahn's algorithm; anything left unvisited sits on a cycle.
	remaining := make(map[string]int, len(pending))
	var queue []string
	for name, n := range pending {
		remaining[name] = n
		if n == 0 {
			queue = append(queue, name)
		}
	}
	visited := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range dependents[name] {
			remaining[dep]--
			if remaining[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if visited != len(tasks) {
		return nil, nil, fmt.Errorf("%w: dependency cycle among %d tasks", ErrInvalidGraph, len(tasks)-visited)
	}
	return dependents, pending, nil
}
