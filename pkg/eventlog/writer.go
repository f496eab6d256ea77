package eventlog

import (
	"context"
	"fmt"
)

// Writer is the per-worker handle for emitting event lines. Writes never
// fail from the caller's point of view.
type Writer interface {
	Write(text string)
	Writef(format string, args ...any)
}

// DistributedWriter stamps each line with its origin and the shared clock
// and enqueues it on the shared Queue.
type DistributedWriter struct {
	ctx      context.Context
	originID string
	clock    Clock
	queue    *Queue
	dropped  func(Message, error)
}

// NewDistributedWriter creates a writer for originID. ctx only matters when
// the queue has a limit: a write waiting for room is dropped once ctx is done.
func NewDistributedWriter(ctx context.Context, originID string, clock Clock, q *Queue) *DistributedWriter {
	if ctx == nil {
		ctx = context.Background()
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &DistributedWriter{
		ctx:      ctx,
		originID: originID,
		clock:    clock,
		queue:    q,
	}
}

// OnDrop registers a callback for writes that could not be enqueued.
func (w *DistributedWriter) OnDrop(fn func(Message, error)) *DistributedWriter {
	w.dropped = fn
	return w
}

// OriginID returns the origin stamped on every entry.
func (w *DistributedWriter) OriginID() string {
	return w.originID
}

// Write enqueues text as a new entry.
func (w *DistributedWriter) Write(text string) {
	m := Message{
		OriginID:  w.originID,
		Timestamp: w.clock.Now(),
		Text:      text,
	}
	if err := w.queue.Put(w.ctx, m); err != nil && w.dropped != nil {
		w.dropped(m, err)
	}
}

// Writef formats according to a format specifier and enqueues the result.
func (w *DistributedWriter) Writef(format string, args ...any) {
	w.Write(fmt.Sprintf(format, args...))
}

// WriterFactory builds the writer for a named worker.
type WriterFactory func(originID string) Writer

// NewWriterFactory returns a factory of DistributedWriters sharing clock and q.
func NewWriterFactory(ctx context.Context, clock Clock, q *Queue) WriterFactory {
	return func(originID string) Writer {
		return NewDistributedWriter(ctx, originID, clock, q)
	}
}
