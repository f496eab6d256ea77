package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
	"github.com/vnykmshr/prodsim/pkg/common/validation"
)

// ErrQueueClosed is returned when operating on a closed queue.
var ErrQueueClosed = fmt.Errorf("queue: %w", gferrors.ErrClosed)

// Stats holds statistics about queue activity.
type Stats struct {
	// PutCount is the total number of successful puts.
	PutCount int64

	// TakeCount is the total number of successful takes.
	TakeCount int64

	// BlockedPuts is the number of puts that had to wait for space.
	BlockedPuts int64

	// BlockedTakes is the number of takes that had to wait for an element.
	BlockedTakes int64

	// CanceledPuts is the number of puts abandoned because of cancellation.
	CanceledPuts int64

	// HighWaterMark is the largest number of elements ever held at once.
	HighWaterMark int

	// Utilization is the current fill ratio (0.0 to 1.0).
	Utilization float64

	// LastPutTime is the timestamp of the last successful put.
	LastPutTime time.Time

	// LastTakeTime is the timestamp of the last successful take.
	LastTakeTime time.Time
}

// Config holds configuration for a Bounded queue.
type Config struct {
	// Capacity is the maximum number of buffered elements. Must be positive.
	Capacity int

	// OnBlock is called when a put has to wait because the queue is full.
	// Called with the queue lock held; it must not call back into the queue.
	OnBlock func()

	// OnPut is called after each successful put with the new depth.
	// Called with the queue lock held.
	OnPut func(depth int)

	// OnTake is called after each successful take with the new depth.
	// Called with the queue lock held.
	OnTake func(depth int)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Capacity: 3,
	}
}

// Bounded is a FIFO queue with a fixed capacity. Put blocks while the queue
// is full and Take blocks while it is empty; both give up when their context
// is canceled. All methods are safe for concurrent use.
type Bounded[T any] struct {
	config Config

	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	// Ring buffer state
	buffer []T
	head   int
	tail   int
	count  int
	closed bool

	stats Stats
}

// New creates a Bounded queue with the given capacity.
// It panics if capacity is not positive.
func New[T any](capacity int) *Bounded[T] {
	config := DefaultConfig()
	config.Capacity = capacity

	q, err := NewWithConfig[T](config)
	if err != nil {
		panic(err)
	}
	return q
}

// NewWithConfig creates a Bounded queue with the specified configuration.
func NewWithConfig[T any](config Config) (*Bounded[T], error) {
	if err := validation.ValidatePositive("queue", "capacity", config.Capacity); err != nil {
		return nil, err
	}

	q := &Bounded[T]{
		config: config,
		buffer: make([]T, config.Capacity),
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)

	return q, nil
}

// Put appends value, waiting while the queue is at capacity.
// If ctx is canceled first, value is not enqueued and ctx.Err() is returned.
func (q *Bounded[T]) Put(ctx context.Context, value T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		q.stats.CanceledPuts++
		return err
	}

	if q.count == len(q.buffer) {
		q.stats.BlockedPuts++
		if q.config.OnBlock != nil {
			q.config.OnBlock()
		}

		stop := q.wakeOnDone(ctx, q.notFull)
		defer stop()

		for q.count == len(q.buffer) {
			q.notFull.Wait()

			if q.closed {
				return ErrQueueClosed
			}
			if err := ctx.Err(); err != nil {
				q.stats.CanceledPuts++
				return err
			}
		}
	}

	q.pushLocked(value)
	return nil
}

// Take removes and returns the oldest element, waiting while the queue is empty.
// A closed queue still yields its remaining elements before returning ErrQueueClosed.
func (q *Bounded[T]) Take(ctx context.Context) (T, error) {
	var zero T

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if q.count == 0 {
		if q.closed {
			return zero, ErrQueueClosed
		}
		q.stats.BlockedTakes++

		stop := q.wakeOnDone(ctx, q.notEmpty)
		defer stop()

		for q.count == 0 {
			q.notEmpty.Wait()

			if err := ctx.Err(); err != nil {
				return zero, err
			}
			if q.count == 0 && q.closed {
				return zero, ErrQueueClosed
			}
		}
	}

	return q.popLocked(), nil
}

// TryTake removes the oldest element without blocking.
// The boolean is false when the queue is empty.
func (q *Bounded[T]) TryTake() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		var zero T
		return zero, false
	}
	return q.popLocked(), true
}

// Snapshot returns a copy of the buffered elements in FIFO order.
func (q *Bounded[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]T, 0, q.count)
	for i := 0; i < q.count; i++ {
		out = append(out, q.buffer[(q.head+i)%len(q.buffer)])
	}
	return out
}

// Drain removes and returns every buffered element in FIFO order.
func (q *Bounded[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]T, 0, q.count)
	for q.count > 0 {
		out = append(out, q.popLocked())
	}
	return out
}

// Close stops the queue from accepting new elements and wakes all waiters.
func (q *Bounded[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
	return nil
}

// IsClosed returns true if the queue is closed.
func (q *Bounded[T]) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the current number of buffered elements.
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *Bounded[T]) Cap() int {
	return len(q.buffer)
}

// Stats returns a snapshot of queue statistics.
func (q *Bounded[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := q.stats
	stats.Utilization = float64(q.count) / float64(len(q.buffer))
	return stats
}

// wakeOnDone broadcasts on cond when ctx is done so that a waiter blocked in
// cond.Wait can observe the cancellation. The returned func unregisters it.
func (q *Bounded[T]) wakeOnDone(ctx context.Context, cond *sync.Cond) func() bool {
	return context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		cond.Broadcast()
	})
}

// pushLocked adds a value to the tail (must hold lock).
func (q *Bounded[T]) pushLocked(value T) {
	q.buffer[q.tail] = value
	q.tail = (q.tail + 1) % len(q.buffer)
	q.count++

	q.stats.PutCount++
	q.stats.LastPutTime = time.Now()
	if q.count > q.stats.HighWaterMark {
		q.stats.HighWaterMark = q.count
	}
	if q.config.OnPut != nil {
		q.config.OnPut(q.count)
	}

	q.notEmpty.Broadcast()
}

// popLocked removes a value from the head (must hold lock).
func (q *Bounded[T]) popLocked() T {
	value := q.buffer[q.head]
	var zero T
	q.buffer[q.head] = zero // Clear reference
	q.head = (q.head + 1) % len(q.buffer)
	q.count--

	q.stats.TakeCount++
	q.stats.LastTakeTime = time.Now()
	if q.config.OnTake != nil {
		q.config.OnTake(q.count)
	}

	q.notFull.Broadcast()
	return value
}
