package simulation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/prodsim/internal/logging"
	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
	"github.com/vnykmshr/prodsim/pkg/eventlog"
	"github.com/vnykmshr/prodsim/pkg/queue"
	"github.com/vnykmshr/prodsim/pkg/scheduling/workerpool"
	"github.com/vnykmshr/prodsim/pkg/sequence"
	"github.com/vnykmshr/prodsim/pkg/workers"
)

// ErrAlreadyStarted is returned by Run on a Simulation that has run before.
var ErrAlreadyStarted = errors.New("simulation: already started")

// WorkerError records a worker loop that ended with an error.
type WorkerError struct {
	Worker string
	Err    error
}

func (e WorkerError) Error() string {
	return e.Worker + ": " + e.Err.Error()
}

func (e WorkerError) Unwrap() error {
	return e.Err
}

// Report summarizes a finished run.
type Report[T any] struct {
	RunID string

	// Remaining holds the messages left in the queue after shutdown, oldest first.
	Remaining []T

	Produced int64
	Consumed int64

	// Flushed is the number of log entries printed by the final flush.
	Flushed int

	QueueStats  queue.Stats
	ReaderStats eventlog.ReaderStats

	WorkerErrors []WorkerError
	Duration     time.Duration
}

// Simulation runs producers and consumers against a bounded queue for a
// fixed time and then shuts them down. A Simulation runs once.
type Simulation[T any] struct {
	config Config
	source sequence.Source[T]
	opts   options
	log    *logging.Logger

	mu    sync.Mutex
	state State

	// Live only while Run executes
	queue    *queue.Bounded[T]
	logQueue *eventlog.Queue
	pool     workerpool.Pool
	started  time.Time

	produced atomic.Int64
	consumed atomic.Int64
}

// New validates config and creates an idle Simulation drawing messages
// from source.
func New[T any](config Config, source sequence.Source[T], opts ...Option) (*Simulation[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, gferrors.NewValidationError("simulation", "source", nil, "cannot be nil")
	}

	o := buildOptions(opts)
	s := &Simulation[T]{
		config: config,
		source: source,
		opts:   o,
		log:    o.logger.WithRun(o.runID).WithComponent("simulation"),
	}
	s.recordState(StateIdle)
	return s, nil
}

// RunID returns the identifier attached to this run's logs and metrics.
func (s *Simulation[T]) RunID() string {
	return s.opts.runID
}

// State returns the current lifecycle state.
func (s *Simulation[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a point-in-time view of the run.
func (s *Simulation[T]) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{State: s.state, QueueCapacity: s.config.QueueCapacity}
	q, lq, pool, started := s.queue, s.logQueue, s.pool, s.started
	s.mu.Unlock()

	if !started.IsZero() {
		snap.Elapsed = time.Since(started)
	}
	if q != nil {
		snap.QueueDepth = q.Len()
	}
	if lq != nil {
		snap.LogQueueDepth = lq.Len()
	}
	if pool != nil {
		snap.ActiveWorkers = pool.ActiveWorkers()
	}
	snap.Produced = s.produced.Load()
	snap.Consumed = s.consumed.Load()
	return snap
}

// Run executes the whole lifecycle: start every worker, let them run for
// RunTime (or until ctx is canceled), cancel them, wait up to
// ShutdownTimeout, flush the event log and report what is left in the queue.
//
// If workers miss the shutdown timeout the state becomes Failed and the
// returned error wraps ErrShutdownTimeout. The partial report is still
// returned.
func (s *Simulation[T]) Run(ctx context.Context) (*Report[T], error) {
	if !s.transition(StateRunning) {
		return nil, ErrAlreadyStarted
	}

	report := &Report[T]{RunID: s.opts.runID}
	m := s.opts.metrics
	runID := s.opts.runID

	q, err := queue.NewWithConfig[T](queue.Config{
		Capacity: s.config.QueueCapacity,
		OnBlock: func() {
			if m != nil {
				m.QueueBlockedPuts.WithLabelValues(runID).Inc()
			}
		},
		OnPut:  s.recordDepth,
		OnTake: s.recordDepth,
	})
	if err != nil {
		s.fail(err)
		return report, err
	}

	logQueue := eventlog.NewQueue(eventlog.QueueConfig{
		Capacity: s.config.LogQueueCapacity,
		Limit:    s.config.LogQueueLimit,
		OnPut: func(depth int) {
			if m != nil {
				m.LogEntriesWritten.WithLabelValues(runID).Inc()
				m.LogQueueDepth.WithLabelValues(runID).Set(float64(depth))
			}
		},
		OnPoll: func(removed, depth int) {
			if m != nil {
				m.LogEntriesDrained.WithLabelValues(runID).Add(float64(removed))
				m.LogQueueDepth.WithLabelValues(runID).Set(float64(depth))
			}
		},
	})

	reader, err := eventlog.NewReader(logQueue, s.opts.sink, eventlog.ReaderConfig{
		BatchSize:    s.config.BatchSize,
		PollInterval: s.config.PollInterval,
		Clock:        s.opts.clock,
		OnError: func(err error) {
			s.log.Warn("event log sink failed", "error", err)
			if m != nil {
				m.LogSinkErrors.WithLabelValues(runID).Inc()
			}
		},
	})
	if err != nil {
		s.fail(err)
		return report, err
	}

	poolSize := s.config.PoolSize()
	pool, err := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount:  poolSize,
		ResultBuffer: poolSize,
	})
	if err != nil {
		s.fail(err)
		return report, err
	}
	if m != nil {
		pool = workerpool.Instrument(pool, "simulation", m)
		m.QueueCapacity.WithLabelValues(runID).Set(float64(s.config.QueueCapacity))
	}

	s.mu.Lock()
	s.queue, s.logQueue, s.pool = q, logQueue, pool
	s.started = time.Now()
	s.mu.Unlock()

	// Writers only wait when the log queue has a limit; once workers are
	// told to stop, a write that would wait is dropped.
	writeCtx, stopWrites := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWrites()
	writerFor := eventlog.NewWriterFactory(writeCtx, s.opts.clock, logQueue)

	// Workers are stopped through ShutdownNow, so they must not inherit
	// ctx's cancellation and race the drain phase.
	if err := s.submitAll(context.WithoutCancel(ctx), pool, q, reader, writerFor); err != nil {
		pool.ShutdownNow()
		_ = pool.AwaitTermination(s.config.ShutdownTimeout)
		s.fail(err)
		return report, err
	}
	s.log.Info("workers started", "producers", s.config.Producers, "consumers", s.config.Consumers,
		"queue_capacity", s.config.QueueCapacity, "pool_size", poolSize)

	reporter := s.startReporter()

	timer := time.NewTimer(s.config.RunTime)
	select {
	case <-timer.C:
	case <-ctx.Done():
		s.log.Info("run interrupted", "cause", context.Cause(ctx))
	}
	timer.Stop()

	if reporter != nil {
		reporter.Stop()
	}

	s.transition(StateDraining)
	pool.ShutdownNow()
	stopWrites()

	if err := pool.AwaitTermination(s.config.ShutdownTimeout); err != nil {
		s.log.Error("workers did not stop in time", "timeout", s.config.ShutdownTimeout, "error", err)
		s.fill(report, q, reader)
		s.fail(err)
		return report, err
	}

	for result := range pool.Results() {
		if result.Error == nil || gferrors.IsCancellation(result.Error) {
			continue
		}
		werr := WorkerError{Worker: taskName(result.Task), Err: result.Error}
		s.log.Error("worker failed", "worker", werr.Worker, "error", werr.Err)
		report.WorkerErrors = append(report.WorkerErrors, werr)
	}

	s.transition(StateFlushing)
	report.Flushed = reader.Flush()
	s.fill(report, q, reader)

	if _, err := fmt.Fprintf(s.opts.out, "Messages still in queue after shutdown: %s\n", formatList(report.Remaining)); err != nil {
		s.log.Warn("failed to print remaining messages", "error", err)
	}
	if m != nil {
		m.RemainingMessages.WithLabelValues(runID).Set(float64(len(report.Remaining)))
	}

	s.transition(StateTerminated)
	s.log.Info("run finished", "produced", report.Produced, "consumed", report.Consumed,
		"remaining", len(report.Remaining), "duration", report.Duration)
	return report, nil
}

func (s *Simulation[T]) submitAll(ctx context.Context, pool workerpool.Pool, q *queue.Bounded[T],
	reader *eventlog.Reader, writerFor eventlog.WriterFactory) error {
	hooks := workers.Hooks[T]{
		OnSent: func(worker string, _ T) {
			s.produced.Add(1)
			if m := s.opts.metrics; m != nil {
				m.MessagesProduced.WithLabelValues(s.opts.runID, worker).Inc()
			}
		},
		OnConsumed: func(worker string, _ T) {
			s.consumed.Add(1)
			if m := s.opts.metrics; m != nil {
				m.MessagesConsumed.WithLabelValues(s.opts.runID, worker).Inc()
			}
		},
	}

	for i := 1; i <= s.config.Producers; i++ {
		p := workers.NewProducer(i, q, s.source, s.config.ProducerWorkTime, writerFor(workers.ProducerName(i))).
			WithHooks(hooks)
		if err := pool.SubmitWithContext(ctx, p); err != nil {
			return err
		}
	}
	for i := 1; i <= s.config.Consumers; i++ {
		c := workers.NewConsumer(i, q, s.config.ConsumerWorkTime, writerFor(workers.ConsumerName(i))).
			WithHooks(hooks)
		if err := pool.SubmitWithContext(ctx, c); err != nil {
			return err
		}
	}
	return pool.SubmitWithContext(ctx, reader)
}

func (s *Simulation[T]) startReporter() *Reporter {
	if s.config.ReportSchedule == "" {
		return nil
	}

	report := s.opts.onSnapshot
	if report == nil {
		report = func(snap Snapshot) {
			s.log.Info("progress", "state", snap.State.String(), "elapsed", snap.Elapsed,
				"queue_depth", snap.QueueDepth, "log_queue_depth", snap.LogQueueDepth,
				"produced", snap.Produced, "consumed", snap.Consumed, "active_workers", snap.ActiveWorkers)
		}
	}

	reporter, err := NewReporter(s.config.ReportSchedule, s.Snapshot, report)
	if err != nil {
		// Config.Validate already parsed the schedule
		s.log.Warn("progress reports disabled", "error", err)
		return nil
	}
	reporter.Start()
	return reporter
}

func (s *Simulation[T]) fill(report *Report[T], q *queue.Bounded[T], reader *eventlog.Reader) {
	report.Remaining = q.Snapshot()
	report.Produced = s.produced.Load()
	report.Consumed = s.consumed.Load()
	report.QueueStats = q.Stats()
	report.ReaderStats = reader.Stats()
	report.Duration = time.Since(s.started)
}

func (s *Simulation[T]) recordDepth(depth int) {
	if m := s.opts.metrics; m != nil {
		m.QueueDepth.WithLabelValues(s.opts.runID).Set(float64(depth))
	}
}

// transition moves to the next state if the step is legal.
func (s *Simulation[T]) transition(to State) bool {
	s.mu.Lock()
	from := s.state
	if !canTransition(from, to) {
		s.mu.Unlock()
		return false
	}
	s.state = to
	s.mu.Unlock()

	s.recordState(to)
	s.log.Debug("state changed", "from", from.String(), "to", to.String())
	if s.opts.onStateChange != nil {
		s.opts.onStateChange(from, to)
	}
	return true
}

func (s *Simulation[T]) fail(err error) {
	if s.transition(StateFailed) {
		s.log.Error("run failed", "error", err)
	}
}

func (s *Simulation[T]) recordState(state State) {
	if m := s.opts.metrics; m != nil {
		m.SimulationState.WithLabelValues(s.opts.runID).Set(float64(state))
	}
}

func taskName(task workerpool.Task) string {
	if named, ok := task.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", task)
}

// formatList renders items as "[a, b, c]".
func formatList[T any](items []T) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprint(item)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
