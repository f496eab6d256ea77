// Package sequence provides the message sources producers draw from.
package sequence

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Source produces the next domain message. Implementations must be safe for
// concurrent use because a single source is shared by every producer.
type Source[T any] interface {
	Next() (T, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc[T any] func() (T, error)

// Next implements Source.
func (f SourceFunc[T]) Next() (T, error) {
	return f()
}

// Generator hands out "msg-1", "msg-2", ... in call order. One instance is
// shared by all producers so identifiers are globally unique and strictly
// increasing. The zero value is ready to use.
type Generator struct {
	current atomic.Int64
}

// NewGenerator returns a Generator whose first identifier is "msg-1".
func NewGenerator() *Generator {
	return &Generator{}
}

// Next implements Source. It never fails.
func (g *Generator) Next() (string, error) {
	return fmt.Sprintf("msg-%d", g.current.Add(1)), nil
}

// Issued returns how many identifiers have been handed out.
func (g *Generator) Issued() int64 {
	return g.current.Load()
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// TimestampLayout renders a UTC time of day with microseconds, e.g. "01:02:03.123456Z".
const TimestampLayout = "15:04:05.000000Z07:00"

// TimestampSource produces messages holding the clock's current time of day.
type TimestampSource struct {
	clock Clock
}

// NewTimestampSource creates a TimestampSource reading from clock.
func NewTimestampSource(clock Clock) *TimestampSource {
	if clock == nil {
		panic("sequence: clock cannot be nil")
	}
	return &TimestampSource{clock: clock}
}

// Next implements Source.
func (s *TimestampSource) Next() (string, error) {
	return s.clock.Now().UTC().Format(TimestampLayout), nil
}
