package eventlog

import (
	"fmt"
	"time"
)

// Message is a single entry of the event stream. It is immutable once created.
type Message struct {
	OriginID  string
	Timestamp time.Time
	Text      string
}

// String renders the entry as "{origin} - {timestamp} - {text}".
func (m Message) String() string {
	return fmt.Sprintf("%s - %s - %s", m.OriginID, formatTimestamp(m.Timestamp), m.Text)
}

// Equal reports whether two entries carry the same origin, instant and text.
func (m Message) Equal(other Message) bool {
	return m.OriginID == other.OriginID &&
		m.Timestamp.Equal(other.Timestamp) &&
		m.Text == other.Text
}

// Less orders entries by timestamp only.
func (m Message) Less(other Message) bool {
	return m.Timestamp.Before(other.Timestamp)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Clock supplies the instant a Writer stamps on each entry.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return systemClock{}
}
