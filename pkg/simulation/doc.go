// Package simulation wires producers, consumers and the event log reader
// into a single timed run.
//
// A run moves through Idle, Running, Draining, Flushing and Terminated.
// While Running, every producer and consumer and the log reader occupy one
// worker of a fixed-size pool. When the run time elapses (or the caller's
// context is canceled) the pool is shut down with ShutdownNow and the
// orchestrator waits up to ShutdownTimeout for the workers to exit. It then
// flushes the event log and prints the messages still in the queue:
//
//	Messages still in queue after shutdown: [msg-7, msg-8]
//
// If the workers miss the timeout the run ends in the Failed state and Run
// returns an error wrapping errors.ErrShutdownTimeout, which callers must
// treat as fatal.
//
// Basic usage:
//
//	sim, err := simulation.New(simulation.DefaultConfig(), sequence.NewGenerator())
//	if err != nil {
//		return err
//	}
//	report, err := sim.Run(ctx)
package simulation
