package eventlog

import (
	"container/heap"
	"context"
	"sync"

	"github.com/vnykmshr/prodsim/pkg/common/validation"
)

// QueueConfig holds configuration for a Queue.
type QueueConfig struct {
	// Capacity is the initial size of the backing storage. It is a hint and
	// never limits how many entries the queue holds.
	Capacity int

	// Limit is a hard ceiling on buffered entries. Put waits while the limit
	// is reached. Zero means unbounded.
	Limit int

	// OnPut is called after each enqueue with the new depth.
	// Called with the queue lock held.
	OnPut func(depth int)

	// OnPoll is called after entries are removed with the number removed and
	// the new depth. Called with the queue lock held.
	OnPoll func(removed, depth int)
}

// DefaultQueueConfig returns a default configuration.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Capacity: 50,
	}
}

// Queue is a priority queue of entries ordered by timestamp. Entries with
// equal timestamps come out in insertion order. All methods are safe for
// concurrent use.
type Queue struct {
	config QueueConfig

	mu      sync.Mutex
	notFull *sync.Cond
	items   entryHeap
	seq     uint64
}

// NewQueue creates a Queue. Invalid sizes fall back to defaults.
func NewQueue(config QueueConfig) *Queue {
	if config.Capacity <= 0 {
		config.Capacity = DefaultQueueConfig().Capacity
	}
	if config.Limit < 0 {
		config.Limit = 0
	}

	q := &Queue{
		config: config,
		items:  make(entryHeap, 0, config.Capacity),
	}
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// NewQueueWithLimit creates a bounded Queue, rejecting a non-positive limit.
func NewQueueWithLimit(capacity, limit int) (*Queue, error) {
	if err := validation.ValidatePositive("eventlog", "limit", limit); err != nil {
		return nil, err
	}
	return NewQueue(QueueConfig{Capacity: capacity, Limit: limit}), nil
}

// Put adds m to the queue. It only waits when a limit is configured and
// reached, in which case cancellation of ctx abandons the entry and returns
// ctx.Err().
func (q *Queue) Put(ctx context.Context, m Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.full() {
		stop := context.AfterFunc(ctx, func() {
			q.mu.Lock()
			defer q.mu.Unlock()
			q.notFull.Broadcast()
		})
		defer stop()

		for q.full() {
			if err := ctx.Err(); err != nil {
				return err
			}
			q.notFull.Wait()
		}
	}

	q.seq++
	heap.Push(&q.items, entry{msg: m, seq: q.seq})
	if q.config.OnPut != nil {
		q.config.OnPut(len(q.items))
	}
	return nil
}

// Poll removes and returns the earliest entry without waiting.
func (q *Queue) Poll() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Message{}, false
	}
	m := heap.Pop(&q.items).(entry).msg
	q.removed(1)
	return m, true
}

// PollBatch removes up to n entries in timestamp order without waiting. It
// stops early when the queue runs empty.
func (q *Queue) PollBatch(n int) []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.items) {
		n = len(q.items)
	}
	return q.popLocked(n)
}

// DrainAll removes every buffered entry in timestamp order.
func (q *Queue) DrainAll() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked(len(q.items))
}

// Len returns the number of buffered entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) full() bool {
	return q.config.Limit > 0 && len(q.items) >= q.config.Limit
}

// popLocked removes n entries (must hold lock).
func (q *Queue) popLocked(n int) []Message {
	if n <= 0 {
		return nil
	}
	out := make([]Message, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, heap.Pop(&q.items).(entry).msg)
	}
	q.removed(n)
	return out
}

func (q *Queue) removed(n int) {
	if q.config.OnPoll != nil {
		q.config.OnPoll(n, len(q.items))
	}
	q.notFull.Broadcast()
}

type entry struct {
	msg Message
	seq uint64
}

// entryHeap implements heap.Interface ordered by (timestamp, seq).
type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].msg.Timestamp.Equal(h[j].msg.Timestamp) {
		return h[i].seq < h[j].seq
	}
	return h[i].msg.Less(h[j].msg)
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = entry{}
	*h = old[:n-1]
	return e
}
