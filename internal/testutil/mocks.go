package testutil

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MockClock implements the eventlog Clock interface with controllable time.
// Log writer and reporter tests use it to assign deterministic timestamps.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set sets the mock clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// MockWriter is a test io.Writer standing in for stdout. It can simulate
// delays and errors and counts writes.
type MockWriter struct {
	buf         *bytes.Buffer
	mu          sync.Mutex
	writeDelay  time.Duration
	errorOnNth  int
	writeCount  int
	shouldError bool
	err         error
}

// NewMockWriter creates a new MockWriter.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		buf: &bytes.Buffer{},
	}
}

// Write implements io.Writer interface with configurable behavior.
func (mw *MockWriter) Write(p []byte) (int, error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	mw.writeCount++

	if mw.writeDelay > 0 {
		time.Sleep(mw.writeDelay)
	}

	if mw.shouldError {
		return 0, mw.err
	}

	if mw.errorOnNth > 0 && mw.writeCount == mw.errorOnNth {
		return 0, errors.New("simulated error")
	}

	return mw.buf.Write(p)
}

// String returns the current buffer contents.
func (mw *MockWriter) String() string {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.buf.String()
}

// Len returns the current buffer length.
func (mw *MockWriter) Len() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.buf.Len()
}

// WriteCount returns the number of Write calls.
func (mw *MockWriter) WriteCount() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.writeCount
}

// SetWriteDelay configures a delay for each write operation.
func (mw *MockWriter) SetWriteDelay(delay time.Duration) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.writeDelay = delay
}

// SetErrorOnNth configures the writer to error on the nth write.
func (mw *MockWriter) SetErrorOnNth(n int) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.errorOnNth = n
}

// SetAlwaysError configures the writer to always return the given error.
func (mw *MockWriter) SetAlwaysError(err error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.shouldError = true
	mw.err = err
}

// Reset clears the buffer and resets counters.
func (mw *MockWriter) Reset() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.buf.Reset()
	mw.writeCount = 0
	mw.shouldError = false
	mw.errorOnNth = 0
	mw.writeDelay = 0
	mw.err = nil
}

// Lines returns the buffer contents split into non-empty lines.
func (mw *MockWriter) Lines() []string {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return splitLines(mw.buf.String())
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// RecordingWriter captures worker log lines in call order. It satisfies the
// eventlog.Writer interface without importing it.
type RecordingWriter struct {
	mu    sync.Mutex
	lines []string
}

// NewRecordingWriter creates an empty RecordingWriter.
func NewRecordingWriter() *RecordingWriter {
	return &RecordingWriter{}
}

// Write records text.
func (rw *RecordingWriter) Write(text string) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.lines = append(rw.lines, text)
}

// Writef records the rendered format string.
func (rw *RecordingWriter) Writef(format string, args ...any) {
	rw.Write(fmt.Sprintf(format, args...))
}

// Lines returns a copy of the recorded lines.
func (rw *RecordingWriter) Lines() []string {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	out := make([]string, len(rw.lines))
	copy(out, rw.lines)
	return out
}

// Len returns the number of recorded lines.
func (rw *RecordingWriter) Len() int {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return len(rw.lines)
}

// Count returns how many recorded lines equal text.
func (rw *RecordingWriter) Count(text string) int {
	n := 0
	for _, line := range rw.Lines() {
		if line == text {
			n++
		}
	}
	return n
}

// CountPrefix returns how many recorded lines start with prefix.
func (rw *RecordingWriter) CountPrefix(prefix string) int {
	n := 0
	for _, line := range rw.Lines() {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

// IndexOf returns the position of the first line equal to text, or -1.
func (rw *RecordingWriter) IndexOf(text string) int {
	for i, line := range rw.Lines() {
		if line == text {
			return i
		}
	}
	return -1
}
