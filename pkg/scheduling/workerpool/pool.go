package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/prodsim/pkg/common/validation"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	// It should respect context cancellation and return any error encountered.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result represents the result of a task execution.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is any error that occurred during task execution
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Pool represents a fixed-size worker pool whose running tasks can be
// canceled all at once.
type Pool interface {
	// Submit adds a task to the pool for execution.
	// Returns an error if the pool is shut down or if the task cannot be queued.
	Submit(task Task) error

	// SubmitWithContext submits a task with a context. The context bounds the
	// queuing operation and is also the parent of the context the task runs with.
	SubmitWithContext(ctx context.Context, task Task) error

	// Results returns a channel of task results.
	// The channel is closed once every worker has exited.
	Results() <-chan Result

	// Shutdown stops accepting tasks. Queued and running tasks are allowed to
	// finish. Returns a channel that closes when all workers have exited.
	Shutdown() <-chan struct{}

	// ShutdownNow stops accepting tasks and cancels the context of every
	// running task. Queued tasks that have not started are skipped.
	// Returns a channel that closes when all workers have exited.
	ShutdownNow() <-chan struct{}

	// AwaitTermination waits up to timeout for all workers to exit after a
	// shutdown. It returns ErrShutdownTimeout if they did not.
	AwaitTermination(timeout time.Duration) error

	// IsShutdown returns true once Shutdown or ShutdownNow has been called.
	IsShutdown() bool

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the current number of queued tasks waiting for execution.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of tasks submitted to the pool.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks completed by the pool.
	TotalCompleted() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// QueueSize is the number of tasks that can wait for a free worker.
	// Zero means a submission waits until a worker takes it.
	QueueSize int

	// TaskTimeout is the default timeout for individual task execution.
	// Zero means no timeout.
	TaskTimeout time.Duration

	// ResultBuffer is the capacity of the Results channel.
	// Default: WorkerCount
	ResultBuffer int

	// ResultTimeout bounds how long a worker waits to deliver a result
	// nobody is reading. Default: 100ms
	ResultTimeout time.Duration

	// PanicHandler is called when a task panics. The panic is always
	// converted into the task's Result error.
	PanicHandler func(task Task, recovered interface{})

	// OnWorkerStart is called when a worker starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops.
	OnWorkerStop func(workerID int)

	// OnTaskStart is called before a task begins execution.
	OnTaskStart func(workerID int, task Task)

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(workerID int, result Result)
}

// taskWithContext pairs a task with the context it was submitted with.
type taskWithContext struct {
	task Task
	ctx  context.Context
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config

	// Core pool state
	workers     []worker
	taskQueue   chan taskWithContext
	resultQueue chan Result
	shutdownCh  chan struct{}
	terminated  chan struct{}

	// cancelAll is the broadcast cancellation shared by every running task
	baseCtx   context.Context
	cancelAll context.CancelFunc

	shutdownOnce sync.Once

	// mu guards isShutdown and the close of taskQueue
	mu         sync.RWMutex
	isShutdown bool

	activeWorkers  atomic.Int32
	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64

	workerWg sync.WaitGroup
}

// worker represents a single worker in the pool.
type worker struct {
	id   int
	pool *workerPool
}

// New creates a new worker pool with the specified number of workers and queue size.
// It panics on invalid arguments.
func New(workerCount, queueSize int) Pool {
	pool, err := NewWithConfig(Config{
		WorkerCount: workerCount,
		QueueSize:   queueSize,
	})
	if err != nil {
		panic(err)
	}
	return pool
}

// NewWithConfig creates a new worker pool with the specified configuration.
func NewWithConfig(config Config) (Pool, error) {
	if err := validation.ValidatePositive("workerpool", "workerCount", config.WorkerCount); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("workerpool", "queueSize", config.QueueSize); err != nil {
		return nil, err
	}
	if config.ResultBuffer <= 0 {
		config.ResultBuffer = config.WorkerCount
	}
	if config.ResultTimeout <= 0 {
		config.ResultTimeout = 100 * time.Millisecond
	}

	baseCtx, cancelAll := context.WithCancel(context.Background())

	pool := &workerPool{
		config:      config,
		taskQueue:   make(chan taskWithContext, config.QueueSize),
		resultQueue: make(chan Result, config.ResultBuffer),
		shutdownCh:  make(chan struct{}),
		terminated:  make(chan struct{}),
		baseCtx:     baseCtx,
		cancelAll:   cancelAll,
	}

	// Create and start workers
	pool.workers = make([]worker, config.WorkerCount)
	for i := 0; i < config.WorkerCount; i++ {
		pool.workers[i] = worker{id: i, pool: pool}
		pool.workerWg.Add(1)
		go pool.workers[i].run()
	}

	go func() {
		pool.workerWg.Wait()
		cancelAll()
		close(pool.resultQueue)
		close(pool.terminated)
	}()

	return pool, nil
}
