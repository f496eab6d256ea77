/*
Package prodsim simulates producers and consumers exchanging messages
through a bounded queue, with every worker's activity collected into a
single time-ordered event log.

Core (pkg):
  - queue: Bounded FIFO queue with blocking, cancelable Put and Take
  - sequence: Message sources ("msg-1", "msg-2", ... or timestamps)
  - eventlog: Ordered log queue, per-worker writers, batch reader and sinks
  - workers: Producer and consumer loops with simulated work times
  - simulation: Orchestrator running the workers for a fixed time and
    reporting the messages left in the queue

Support:
  - scheduling/workerpool: Fixed-size pool the workers run on
  - metrics: Prometheus instrumentation
  - common: Shared errors, validation and context helpers

Example usage:

	import (
		"github.com/vnykmshr/prodsim/pkg/sequence"
		"github.com/vnykmshr/prodsim/pkg/simulation"
	)

	sim, _ := simulation.New(simulation.DefaultConfig(), sequence.Source[string](sequence.NewGenerator()))
	report, err := sim.Run(ctx) // prints the log, then the remaining messages

The prodsim command (cmd/prodsim) wraps this with configuration files,
environment variables, a metrics endpoint and an optional Redis mirror of
the event log.
*/
package prodsim
