package workers

import (
	"context"
	"fmt"

	gfcontext "github.com/vnykmshr/prodsim/pkg/common/context"
	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
	"github.com/vnykmshr/prodsim/pkg/eventlog"
	"github.com/vnykmshr/prodsim/pkg/queue"
	"github.com/vnykmshr/prodsim/pkg/sequence"
)

// Hooks observe successful queue operations. Either field may be nil.
type Hooks[T any] struct {
	OnSent     func(worker string, msg T)
	OnConsumed func(worker string, msg T)
}

// ProducerName returns the log origin of the producer with the given id.
func ProducerName(id int) string { return fmt.Sprintf("P%d", id) }

// ConsumerName returns the log origin of the consumer with the given id.
func ConsumerName(id int) string { return fmt.Sprintf("C%d", id) }

// Producer repeatedly simulates work, draws a message from its source and
// puts it on the queue.
type Producer[T any] struct {
	id     int
	queue  *queue.Bounded[T]
	source sequence.Source[T]
	work   WorkTime
	log    eventlog.Writer
	hooks  Hooks[T]
}

// NewProducer creates a producer. Its log writer should carry ProducerName(id)
// as origin.
func NewProducer[T any](id int, q *queue.Bounded[T], source sequence.Source[T], work WorkTime, log eventlog.Writer) *Producer[T] {
	return &Producer[T]{
		id:     id,
		queue:  q,
		source: source,
		work:   work,
		log:    log,
	}
}

// WithHooks sets the producer's hooks and returns it for chaining.
func (p *Producer[T]) WithHooks(h Hooks[T]) *Producer[T] {
	p.hooks = h
	return p
}

// Name returns "P{id}".
func (p *Producer[T]) Name() string {
	return ProducerName(p.id)
}

// Execute runs the producer loop until ctx is canceled.
func (p *Producer[T]) Execute(ctx context.Context) error {
	for ctx.Err() == nil {
		if !gfcontext.Sleep(ctx, p.work.Draw()) {
			break
		}

		msg, err := p.source.Next()
		if err != nil {
			return gferrors.NewOperationError("workers", "Produce", err).WithContext(p.Name())
		}

		if err := p.queue.Put(ctx, msg); err != nil {
			if !gferrors.IsCancellation(err) {
				return gferrors.NewOperationError("workers", "Put", err).WithContext(p.Name())
			}
			p.log.Writef("Got interrupt signal while waiting to send message: %v", msg)
			break
		}

		p.log.Writef("Sent message: %v", msg)
		if p.hooks.OnSent != nil {
			p.hooks.OnSent(p.Name(), msg)
		}
	}

	p.log.Write("Shutting down")
	return nil
}

// Consumer repeatedly takes a message from the queue and simulates work on it.
type Consumer[T any] struct {
	id    int
	queue *queue.Bounded[T]
	work  WorkTime
	log   eventlog.Writer
	hooks Hooks[T]
}

// NewConsumer creates a consumer. Its log writer should carry
// ConsumerName(id) as origin.
func NewConsumer[T any](id int, q *queue.Bounded[T], work WorkTime, log eventlog.Writer) *Consumer[T] {
	return &Consumer[T]{
		id:    id,
		queue: q,
		work:  work,
		log:   log,
	}
}

// WithHooks sets the consumer's hooks and returns it for chaining.
func (c *Consumer[T]) WithHooks(h Hooks[T]) *Consumer[T] {
	c.hooks = h
	return c
}

// Name returns "C{id}".
func (c *Consumer[T]) Name() string {
	return ConsumerName(c.id)
}

// Execute runs the consumer loop until ctx is canceled.
func (c *Consumer[T]) Execute(ctx context.Context) error {
	for ctx.Err() == nil {
		msg, err := c.queue.Take(ctx)
		if err != nil {
			if !gferrors.IsCancellation(err) {
				return gferrors.NewOperationError("workers", "Take", err).WithContext(c.Name())
			}
			c.log.Write("Got interrupt signal while waiting for new message")
			break
		}

		c.log.Writef("Consumed message: %v", msg)
		if c.hooks.OnConsumed != nil {
			c.hooks.OnConsumed(c.Name(), msg)
		}

		if !gfcontext.Sleep(ctx, c.work.Draw()) {
			break
		}
	}

	c.log.Write("Shutting down")
	return nil
}
