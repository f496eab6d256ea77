// Package metrics provides Prometheus instrumentation for prodsim components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for prodsim components.
type Registry struct {
	// Message Queue Metrics
	QueueDepth       *prometheus.GaugeVec
	QueueCapacity    *prometheus.GaugeVec
	QueueBlockedPuts *prometheus.CounterVec
	MessagesProduced *prometheus.CounterVec
	MessagesConsumed *prometheus.CounterVec

	// Event Log Metrics
	LogEntriesWritten *prometheus.CounterVec
	LogEntriesDrained *prometheus.CounterVec
	LogQueueDepth     *prometheus.GaugeVec
	LogSinkErrors     *prometheus.CounterVec

	// Worker Pool Metrics
	TasksExecuted         *prometheus.CounterVec
	TasksCompleted        *prometheus.CounterVec
	TasksFailed           *prometheus.CounterVec
	TaskExecutionDuration *prometheus.HistogramVec
	WorkerPoolSize        *prometheus.GaugeVec
	WorkerPoolActive      *prometheus.GaugeVec
	WorkerPoolQueued      *prometheus.GaugeVec

	// Simulation Metrics
	SimulationState   *prometheus.GaugeVec
	RemainingMessages *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by prodsim components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Registry: reg})
}

// NewRegistryWithConfig creates a metrics registry honoring the namespace and
// constant labels in config.
func NewRegistryWithConfig(config Config) *Registry {
	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := config.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	factory := promauto.With(reg)
	labels := config.Labels

	return &Registry{
		// Message Queue Metrics
		QueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "queue",
				Name:        "depth",
				Help:        "Number of messages currently buffered in the bounded queue",
				ConstLabels: labels,
			},
			[]string{"run_id"},
		),

		QueueCapacity: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "queue",
				Name:        "capacity",
				Help:        "Configured capacity of the bounded queue",
				ConstLabels: labels,
			},
			[]string{"run_id"},
		),

		QueueBlockedPuts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "queue",
				Name:        "blocked_puts_total",
				Help:        "Total number of puts that waited for space (backpressure events)",
				ConstLabels: labels,
			},
			[]string{"run_id"},
		),

		MessagesProduced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "queue",
				Name:        "produced_total",
				Help:        "Total number of messages enqueued by producers",
				ConstLabels: labels,
			},
			[]string{"run_id", "worker"},
		),

		MessagesConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "queue",
				Name:        "consumed_total",
				Help:        "Total number of messages dequeued by consumers",
				ConstLabels: labels,
			},
			[]string{"run_id", "worker"},
		),

		// Event Log Metrics
		LogEntriesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "eventlog",
				Name:        "written_total",
				Help:        "Total number of entries written to the event log queue",
				ConstLabels: labels,
			},
			[]string{"run_id"},
		),

		LogEntriesDrained: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "eventlog",
				Name:        "drained_total",
				Help:        "Total number of entries removed from the event log queue",
				ConstLabels: labels,
			},
			[]string{"run_id"},
		),

		LogQueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "eventlog",
				Name:        "queue_depth",
				Help:        "Number of entries waiting in the event log queue",
				ConstLabels: labels,
			},
			[]string{"run_id"},
		),

		LogSinkErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "eventlog",
				Name:        "sink_errors_total",
				Help:        "Total number of batches a sink failed to accept",
				ConstLabels: labels,
			},
			[]string{"run_id"},
		),

		// Worker Pool Metrics
		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "tasks_executed_total",
				Help:        "Total number of tasks executed",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "tasks_completed_total",
				Help:        "Total number of tasks completed successfully",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "tasks_failed_total",
				Help:        "Total number of tasks that failed",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		TaskExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "task_duration_seconds",
				Help:        "Time spent executing tasks",
				Buckets:     prometheus.ExponentialBuckets(0.01, 4, 8),
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "size",
				Help:        "Current worker pool size",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		WorkerPoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "active_workers",
				Help:        "Number of active workers",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		WorkerPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "queued_tasks",
				Help:        "Number of queued tasks",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		// Simulation Metrics
		SimulationState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "simulation",
				Name:        "state",
				Help:        "Current orchestrator state (0=idle 1=running 2=draining 3=flushing 4=terminated 5=failed)",
				ConstLabels: labels,
			},
			[]string{"run_id"},
		),

		RemainingMessages: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "simulation",
				Name:        "remaining_messages",
				Help:        "Messages left in the bounded queue after shutdown",
				ConstLabels: labels,
			},
			[]string{"run_id"},
		),
	}
}
