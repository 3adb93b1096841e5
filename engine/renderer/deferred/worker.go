package deferred

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

// ErrBusy is returned when Record is called while a previous job is still being recorded.
var ErrBusy = errors.New("deferred worker busy")

// Target is something that can record its own draw into an encoder.
type Target interface {
	// Name identifies the target in labels and errors.
	Name() string

	// ConstantBuffer returns the uniform buffer the job's snapshot is uploaded into.
	ConstantBuffer() renderer.Buffer

	// Encode binds the target's pipeline, bind groups and mesh and issues its draw.
	Encode(enc renderer.CommandEncoder)
}

// Device is the part of the renderer the worker needs.
type Device interface {
	NewDeferredContext(label string) (renderer.DeferredContext, error)
	WriteBuffer(b renderer.Buffer, data []byte) error
	Execute(list renderer.CommandList) error
}

// Job couples one target with the constants it is drawn with. The snapshot is a private copy, so the frame
// goroutine may mutate the target's payload while the job records.
type Job struct {
	Target   Target
	Snapshot []byte

	done chan struct{}
	list renderer.CommandList
	err  error
}

// NewJob creates a job, copying payload.
//
// Parameters:
//   - target: the drawable to record
//   - payload: the constant buffer contents for this frame
//
// Returns:
//   - *Job: the job
func NewJob(target Target, payload []byte) *Job {
	return &Job{
		Target:   target,
		Snapshot: append([]byte(nil), payload...),
		done:     make(chan struct{}),
	}
}

// Done is closed once recording has finished, successfully or not.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Completed reports whether Done has been closed.
func (j *Job) Completed() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// Worker records a target's draw on its own goroutine and hands the finished command list back.
type Worker interface {
	// Record creates a deferred context on the calling goroutine, records the job on a new goroutine, and blocks
	// until that goroutine signals completion and has returned.
	//
	// Parameters:
	//   - job: the job to record; its Snapshot is uploaded before the draw
	//
	// Returns:
	//   - renderer.CommandList: the finished list; the caller executes and releases it
	//   - error: ErrBusy, or a context, upload or finish failure
	Record(job *Job) (renderer.CommandList, error)

	// Draw records target with payload and executes the list into the current frame, then releases it.
	//
	// Parameters:
	//   - target: the drawable
	//   - payload: the constants for this frame, copied before recording starts
	//
	// Returns:
	//   - error: any Record or Execute failure
	Draw(target Target, payload []byte) error
}

type worker struct {
	mu   *sync.Mutex
	busy bool

	log    logging.Logger
	device Device

	// beforeFinish runs on the recording goroutine just before the context is finished.
	beforeFinish func(*Job)
}

var _ Worker = &worker{}

// NewWorker creates a Worker recording through device.
//
// Parameters:
//   - device: creates contexts, uploads snapshots and executes lists
//   - options: functional options to configure the worker
//
// Returns:
//   - Worker: the worker
func NewWorker(device Device, options ...WorkerBuilderOption) Worker {
	w := &worker{
		mu:     &sync.Mutex{},
		log:    logging.New("deferred"),
		device: device,
	}
	for _, option := range options {
		option(w)
	}
	return w
}

func (w *worker) Record(job *Job) (renderer.CommandList, error) {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	w.busy = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}()

	name := job.Target.Name()
	ctx, err := w.device.NewDeferredContext(name)
	if err != nil {
		return nil, fmt.Errorf("deferred %s: create context: %w", name, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(job.done)
		job.list, job.err = w.record(ctx, job)
	}()

	<-job.done
	wg.Wait()

	if job.err != nil {
		ctx.Release()
		w.log.Errorf("deferred %s: %v", name, job.err)
		return nil, fmt.Errorf("deferred %s: %w", name, job.err)
	}
	return job.list, nil
}

// record runs on the worker goroutine and touches only the job and its own context.
func (w *worker) record(ctx renderer.DeferredContext, job *Job) (list renderer.CommandList, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while recording: %v", r)
		}
	}()

	if cb := job.Target.ConstantBuffer(); cb != nil && len(job.Snapshot) > 0 {
		if err := w.device.WriteBuffer(cb, job.Snapshot); err != nil {
			return nil, fmt.Errorf("upload constants: %w", err)
		}
	}
	job.Target.Encode(ctx)

	if w.beforeFinish != nil {
		w.beforeFinish(job)
	}
	list, err = ctx.Finish()
	if err != nil {
		return nil, fmt.Errorf("finish: %w", err)
	}
	return list, nil
}

func (w *worker) Draw(target Target, payload []byte) error {
	list, err := w.Record(NewJob(target, payload))
	if err != nil {
		return err
	}
	defer list.Release()
	if err := w.device.Execute(list); err != nil {
		return fmt.Errorf("deferred %s: execute: %w", target.Name(), err)
	}
	return nil
}
