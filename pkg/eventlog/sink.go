package eventlog

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
)

// Sink receives drained batches. Implementations must be safe for concurrent
// use.
type Sink interface {
	Emit(ctx context.Context, batch []Message) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, batch []Message) error

// Emit implements Sink.
func (f SinkFunc) Emit(ctx context.Context, batch []Message) error {
	return f(ctx, batch)
}

// WriterSink prints one line per entry to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a WriterSink printing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Emit implements Sink.
func (s *WriterSink) Emit(_ context.Context, batch []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bw := bufio.NewWriter(s.w)
	for _, m := range batch {
		if _, err := bw.WriteString(m.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// MultiSink emits every batch to each of its sinks. A failing sink does not
// prevent delivery to the others; the errors are joined.
type MultiSink []Sink

// Emit implements Sink.
func (ms MultiSink) Emit(ctx context.Context, batch []Message) error {
	var errs []error
	for _, s := range ms {
		if err := s.Emit(ctx, batch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
