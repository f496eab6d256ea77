package workerpool

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"

	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
)

// ErrPoolShutdown is returned when submitting to a pool that has been shut down.
var ErrPoolShutdown = fmt.Errorf("worker pool: %w", gferrors.ErrClosed)

// Submit adds a task to the pool for execution.
// The task will be executed with context.Background().
// Use SubmitWithContext to provide a custom context.
func (p *workerPool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext adds a task to the pool for execution with the given context.
// The task runs with a context derived from ctx that is additionally canceled
// by ShutdownNow. If the pool has a TaskTimeout configured, it applies on top.
func (p *workerPool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return gferrors.NewValidationError("workerpool", "task", nil, "cannot be nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	// Held for the whole send so Shutdown cannot close taskQueue under us
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.isShutdown {
		return ErrPoolShutdown
	}

	// Check if context is already canceled before attempting to queue
	// This ensures deterministic behavior for pre-canceled contexts
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cannot submit task: %w", err)
	}

	select {
	case p.taskQueue <- taskWithContext{task: task, ctx: ctx}:
		p.totalSubmitted.Add(1)
		return nil
	case <-p.shutdownCh:
		return ErrPoolShutdown
	case <-ctx.Done():
		return fmt.Errorf("cannot submit task: %w", ctx.Err())
	}
}

// Results returns a channel of task results.
func (p *workerPool) Results() <-chan Result {
	return p.resultQueue
}

// Shutdown initiates a graceful shutdown of the pool.
func (p *workerPool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		// Wake blocked submitters before taking the write lock
		close(p.shutdownCh)

		p.mu.Lock()
		p.isShutdown = true
		close(p.taskQueue)
		p.mu.Unlock()
	})

	return p.terminated
}

// ShutdownNow cancels every running task and shuts the pool down.
func (p *workerPool) ShutdownNow() <-chan struct{} {
	// Close submissions first so a freed worker cannot pick up a late task
	done := p.Shutdown()
	p.cancelAll()
	return done
}

// AwaitTermination waits for all workers to exit.
func (p *workerPool) AwaitTermination(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.terminated:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %d of %d workers still active after %s",
			gferrors.ErrShutdownTimeout, p.ActiveWorkers(), p.Size(), timeout)
	}
}

// IsShutdown returns true once shutdown has started.
func (p *workerPool) IsShutdown() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isShutdown
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *workerPool) QueueSize() int {
	return len(p.taskQueue)
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *workerPool) ActiveWorkers() int {
	return int(p.activeWorkers.Load())
}

// TotalSubmitted returns the total number of tasks accepted by the pool.
func (p *workerPool) TotalSubmitted() int64 {
	return p.totalSubmitted.Load()
}

// TotalCompleted returns the total number of tasks that finished executing.
func (p *workerPool) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

// run is the main loop for a worker.
func (w *worker) run() {
	defer w.pool.workerWg.Done()

	if w.pool.config.OnWorkerStart != nil {
		w.pool.config.OnWorkerStart(w.id)
	}
	if w.pool.config.OnWorkerStop != nil {
		defer w.pool.config.OnWorkerStop(w.id)
	}

	for twc := range w.pool.taskQueue {
		if err := w.pool.baseCtx.Err(); err != nil {
			// ShutdownNow was called before this task started
			w.sendResult(Result{Task: unwrap(twc.task), Error: err, WorkerID: w.id})
			continue
		}
		w.executeTask(twc)
	}
}

// sendResult sends a task result to the result queue with appropriate handling.
func (w *worker) sendResult(result Result) {
	select {
	case w.pool.resultQueue <- result:
	case <-time.After(w.pool.config.ResultTimeout):
		// Nobody is reading results; drop rather than stall shutdown
	}
}

// executeTask executes a single task with the provided context.
func (w *worker) executeTask(twc taskWithContext) {
	p := w.pool
	p.activeWorkers.Add(1)
	defer p.activeWorkers.Add(-1)

	if p.config.OnTaskStart != nil {
		p.config.OnTaskStart(w.id, twc.task)
	}

	ctx, cancel := context.WithCancel(twc.ctx)
	defer cancel()
	stop := context.AfterFunc(p.baseCtx, cancel)
	defer stop()

	if p.config.TaskTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancelTimeout()
	}

	start := time.Now()
	var err error

	var pc panics.Catcher
	pc.Try(func() {
		err = twc.task.Execute(ctx)
	})
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
		if p.config.PanicHandler != nil {
			p.config.PanicHandler(twc.task, r.Value)
		}
	}

	result := Result{
		Task:     unwrap(twc.task),
		Error:    err,
		Duration: time.Since(start),
		WorkerID: w.id,
	}
	p.totalCompleted.Add(1)

	if p.config.OnTaskComplete != nil {
		p.config.OnTaskComplete(w.id, result)
	}
	w.sendResult(result)
}

// unwrap returns the task a caller submitted when a wrapper was queued
// in its place.
func unwrap(task Task) Task {
	if u, ok := task.(interface{ Unwrap() Task }); ok {
		return u.Unwrap()
	}
	return task
}
