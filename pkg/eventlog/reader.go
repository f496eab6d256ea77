package eventlog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	gfcontext "github.com/vnykmshr/prodsim/pkg/common/context"
	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
	"github.com/vnykmshr/prodsim/pkg/common/validation"
)

// ReaderOriginID is the origin of lines the reader emits about itself.
const ReaderOriginID = "LogReader"

// ReaderConfig holds configuration for a Reader.
type ReaderConfig struct {
	// BatchSize is the maximum number of entries emitted per poll cycle.
	// Default: 5
	BatchSize int

	// PollInterval is the pause between poll cycles.
	// Default: 1 second
	PollInterval time.Duration

	// Clock stamps the reader's own diagnostic lines.
	// Default: SystemClock()
	Clock Clock

	// OnError is called when the sink rejects a batch.
	OnError func(error)

	// OnEmit is called after each successful batch with its size.
	OnEmit func(n int)
}

// DefaultReaderConfig returns a default configuration.
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		BatchSize:    5,
		PollInterval: time.Second,
	}
}

// ReaderStats holds counters about drained entries.
type ReaderStats struct {
	Batches int64
	Emitted int64
	Flushed int64
	Errors  int64
}

// Reader drains a Queue into a Sink in batches until canceled, then flushes
// whatever is left.
type Reader struct {
	queue  *Queue
	sink   Sink
	config ReaderConfig

	// emitMu keeps each poll-then-emit step atomic so concurrent flushes
	// print batches in the order they were removed.
	emitMu sync.Mutex

	batches atomic.Int64
	emitted atomic.Int64
	flushed atomic.Int64
	errors  atomic.Int64
}

// NewReader creates a Reader draining q into sink.
func NewReader(q *Queue, sink Sink, config ReaderConfig) (*Reader, error) {
	if q == nil {
		return nil, gferrors.NewValidationError("eventlog", "queue", nil, "cannot be nil")
	}
	if err := validation.ValidateNotNil("eventlog", "sink", sink); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive("eventlog", "batchSize", config.BatchSize); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("eventlog", "pollInterval", int(config.PollInterval)); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = SystemClock()
	}

	return &Reader{
		queue:  q,
		sink:   sink,
		config: config,
	}, nil
}

// Run polls the queue until ctx is canceled and then flushes it. Cancellation
// is the normal way for Run to end, so it returns nil in that case.
func (r *Reader) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			break
		}

		r.emitNext(context.WithoutCancel(ctx))

		if !gfcontext.Sleep(ctx, r.config.PollInterval) {
			r.emit(context.WithoutCancel(ctx), []Message{{
				OriginID:  ReaderOriginID,
				Timestamp: r.config.Clock.Now(),
				Text:      "Got interrupt signal while sleeping",
			}})
			break
		}
	}

	r.flush(context.WithoutCancel(ctx))
	return nil
}

// Execute runs the reader as a pool task.
func (r *Reader) Execute(ctx context.Context) error {
	return r.Run(ctx)
}

// Flush drains every remaining entry into the sink in timestamp order and
// returns how many were emitted.
func (r *Reader) Flush() int {
	return r.flush(context.Background())
}

// Stats returns a snapshot of the reader's counters.
func (r *Reader) Stats() ReaderStats {
	return ReaderStats{
		Batches: r.batches.Load(),
		Emitted: r.emitted.Load(),
		Flushed: r.flushed.Load(),
		Errors:  r.errors.Load(),
	}
}

func (r *Reader) emitNext(ctx context.Context) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	batch := r.queue.PollBatch(r.config.BatchSize)
	if len(batch) == 0 {
		return
	}
	r.batches.Add(1)
	r.emitLocked(ctx, batch)
}

func (r *Reader) flush(ctx context.Context) int {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	rest := r.queue.DrainAll()
	if len(rest) == 0 {
		return 0
	}
	r.flushed.Add(int64(len(rest)))
	r.emitLocked(ctx, rest)
	return len(rest)
}

func (r *Reader) emit(ctx context.Context, batch []Message) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	r.emitLocked(ctx, batch)
}

func (r *Reader) emitLocked(ctx context.Context, batch []Message) {
	if err := r.sink.Emit(ctx, batch); err != nil {
		r.errors.Add(1)
		if r.config.OnError != nil {
			r.config.OnError(err)
		}
		return
	}
	r.emitted.Add(int64(len(batch)))
	if r.config.OnEmit != nil {
		r.config.OnEmit(len(batch))
	}
}

// Name returns the origin the reader uses for its own lines.
func (r *Reader) Name() string {
	return ReaderOriginID
}
