/*
Package queue provides a bounded, context-aware FIFO queue that couples producer
and consumer throughput through backpressure.

A full queue blocks producers rather than dropping their messages; an empty queue
blocks consumers. Every blocking call takes a context, and cancelling that
context wakes the waiter immediately, so a shutdown is never stuck behind a
blocked worker.

Basic usage:

	q := queue.New[string](3)

	// Producer side: blocks while three messages are already buffered
	if err := q.Put(ctx, "msg-1"); err != nil {
		// ctx canceled or queue closed; the message was not enqueued
	}

	// Consumer side: blocks until a message is available
	msg, err := q.Take(ctx)

Non-blocking access is available through TryTake, and Snapshot/Drain expose the
residual contents after the workers have stopped:

	left := q.Snapshot() // FIFO order, queue untouched

Instrumentation hooks are set through Config:

	q, err := queue.NewWithConfig[string](queue.Config{
		Capacity: 3,
		OnBlock:  func() { blockedPuts.Inc() },
		OnPut:    func(depth int) { depthGauge.Set(float64(depth)) },
		OnTake:   func(depth int) { depthGauge.Set(float64(depth)) },
	})

The hooks run with the queue lock held and must not call back into the queue.

Errors:

	err := q.Put(ctx, v)
	switch {
	case err == nil:
	case errors.Is(err, queue.ErrQueueClosed):
	case errors.Is(err, context.Canceled):
	}

ErrQueueClosed wraps errors.ErrClosed from pkg/common/errors, so
errors.IsCancellation reports true for every way a blocking call can end
without a value.
*/
package queue
