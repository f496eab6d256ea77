package simulation

import (
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/vnykmshr/prodsim/internal/logging"
	"github.com/vnykmshr/prodsim/pkg/eventlog"
	"github.com/vnykmshr/prodsim/pkg/metrics"
)

type options struct {
	runID         string
	clock         eventlog.Clock
	sink          eventlog.Sink
	out           io.Writer
	logger        *logging.Logger
	metrics       *metrics.Registry
	onStateChange func(from, to State)
	onSnapshot    func(Snapshot)
}

// Option configures a Simulation.
type Option func(*options)

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

// WithClock sets the clock used to timestamp event log entries.
func WithClock(c eventlog.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithSink sets where drained event log entries go. Default: stdout.
func WithSink(s eventlog.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithOutput sets where the final remaining-messages line is printed.
// Default: stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithLogger sets the diagnostics logger. Default: discard.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records run metrics in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *options) { o.metrics = r }
}

// OnStateChange registers a callback invoked after every state transition.
func OnStateChange(fn func(from, to State)) Option {
	return func(o *options) { o.onStateChange = fn }
}

// OnSnapshot receives the periodic progress snapshots scheduled by
// Config.ReportSchedule. Without it snapshots are logged at INFO level.
func OnSnapshot(fn func(Snapshot)) Option {
	return func(o *options) { o.onSnapshot = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		runID: uuid.NewString(),
		clock: eventlog.SystemClock(),
		out:   os.Stdout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sink == nil {
		o.sink = eventlog.NewWriterSink(o.out)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	return o
}
