package workerpool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/prodsim/pkg/metrics"
)

// MetricsPool wraps a worker Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool
}

// NewWithMetrics creates a new worker pool with metrics recorded on a
// private Prometheus registry.
func NewWithMetrics(workerCount int, name string) (*MetricsPool, error) {
	return NewWithConfigAndMetrics(Config{WorkerCount: workerCount}, name,
		metrics.NewRegistry(prometheus.NewRegistry()))
}

// NewWithConfigAndMetrics creates a new worker pool recording into registry.
// A nil registry uses metrics.DefaultRegistry.
func NewWithConfigAndMetrics(config Config, name string, registry *metrics.Registry) (*MetricsPool, error) {
	basePool, err := NewWithConfig(config)
	if err != nil {
		return nil, err
	}
	return Instrument(basePool, name, registry), nil
}

// Instrument wraps an existing pool.
func Instrument(pool Pool, name string, registry *metrics.Registry) *MetricsPool {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}

	mp := &MetricsPool{
		pool: pool,
		name: name,
	}
	mp.registry.Store(registry)
	mp.enabled.Store(true)
	mp.updateMetrics()
	return mp
}

// updateMetrics updates the current state metrics.
func (mp *MetricsPool) updateMetrics() {
	if !mp.enabled.Load() {
		return
	}

	r := mp.registry.Load()
	r.WorkerPoolSize.WithLabelValues(mp.name).Set(float64(mp.pool.Size()))
	r.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
	r.WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(mp.pool.QueueSize()))
}

// Submit adds a task to the pool for execution.
func (mp *MetricsPool) Submit(task Task) error {
	return mp.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext submits a task with a context for cancellation.
func (mp *MetricsPool) SubmitWithContext(ctx context.Context, task Task) error {
	wrappedTask := &metricsTask{
		original: task,
		pool:     mp,
	}

	err := mp.pool.SubmitWithContext(ctx, wrappedTask)
	mp.updateMetrics()
	return err
}

// metricsTask wraps a Task to collect execution metrics.
type metricsTask struct {
	original Task
	pool     *MetricsPool
}

// Execute runs the original task and records metrics.
func (mt *metricsTask) Execute(ctx context.Context) error {
	start := time.Now()
	mt.pool.updateMetrics()

	err := mt.original.Execute(ctx)

	if mt.pool.enabled.Load() {
		r := mt.pool.registry.Load()
		r.TaskExecutionDuration.WithLabelValues(mt.pool.name).Observe(time.Since(start).Seconds())
		r.TasksExecuted.WithLabelValues(mt.pool.name).Inc()

		if err != nil {
			r.TasksFailed.WithLabelValues(mt.pool.name).Inc()
		} else {
			r.TasksCompleted.WithLabelValues(mt.pool.name).Inc()
		}
	}

	return err
}

// Unwrap returns the task that was submitted.
func (mt *metricsTask) Unwrap() Task {
	return mt.original
}

// Results returns a channel of task results. Result.Task is the task that
// was submitted, not the metrics wrapper.
func (mp *MetricsPool) Results() <-chan Result {
	return mp.pool.Results()
}

// Shutdown initiates graceful shutdown of the pool.
func (mp *MetricsPool) Shutdown() <-chan struct{} {
	return mp.pool.Shutdown()
}

// ShutdownNow cancels running tasks and shuts the pool down.
func (mp *MetricsPool) ShutdownNow() <-chan struct{} {
	return mp.pool.ShutdownNow()
}

// AwaitTermination waits for all workers to exit.
func (mp *MetricsPool) AwaitTermination(timeout time.Duration) error {
	err := mp.pool.AwaitTermination(timeout)
	mp.updateMetrics()
	return err
}

// IsShutdown returns true once shutdown has started.
func (mp *MetricsPool) IsShutdown() bool {
	return mp.pool.IsShutdown()
}

// Size returns the current number of workers.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// QueueSize returns the current number of queued tasks.
func (mp *MetricsPool) QueueSize() int {
	return mp.pool.QueueSize()
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (mp *MetricsPool) ActiveWorkers() int {
	return mp.pool.ActiveWorkers()
}

// TotalSubmitted returns the total number of tasks submitted.
func (mp *MetricsPool) TotalSubmitted() int64 {
	return mp.pool.TotalSubmitted()
}

// TotalCompleted returns the total number of tasks completed.
func (mp *MetricsPool) TotalCompleted() int64 {
	return mp.pool.TotalCompleted()
}

// EnableMetrics enables metrics collection.
func (mp *MetricsPool) EnableMetrics(config metrics.Config) error {
	if config.Registry != nil {
		mp.registry.Store(metrics.NewRegistryWithConfig(config))
	}
	mp.enabled.Store(config.Enabled)

	mp.updateMetrics()
	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPool) DisableMetrics() {
	mp.enabled.Store(false)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPool) MetricsEnabled() bool {
	return mp.enabled.Load()
}

var _ metrics.Instrumentable = (*MetricsPool)(nil)
