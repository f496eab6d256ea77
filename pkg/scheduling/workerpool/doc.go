/*
Package workerpool provides a fixed-size worker pool with broadcast
cancellation.

A pool manages a fixed number of worker goroutines that execute tasks
concurrently. Long-running tasks, such as producer and consumer loops, run
until their context is canceled. ShutdownNow cancels every running task at
once, and AwaitTermination bounds how long the caller waits for them to exit.

Basic usage:

	pool := workerpool.New(4, 0)

	for _, loop := range loops {
		if err := pool.Submit(loop); err != nil {
			return err
		}
	}

	time.Sleep(runTime)

	pool.ShutdownNow()
	if err := pool.AwaitTermination(10 * time.Second); err != nil {
		// errors.Is(err, errors.ErrShutdownTimeout)
		return err
	}

	for result := range pool.Results() {
		if result.Error != nil {
			log.Printf("task failed: %v", result.Error)
		}
	}

Task Interface:

Tasks implement a simple interface:

	type Task interface {
		Execute(ctx context.Context) error
	}

The TaskFunc type adapts a plain function.

Shutdown Modes:

Shutdown stops accepting tasks and lets queued and running tasks finish.
ShutdownNow additionally cancels the context of every running task, and
queued tasks that have not started are reported with context.Canceled
instead of being executed. Both return a channel that closes once every
worker has exited; the Results channel is closed at the same moment.

Panics:

A panicking task does not take its worker down. The panic is recovered and
reported as the task's Result error; Config.PanicHandler, if set, also
receives the recovered value.

Metrics:

NewWithConfigAndMetrics and Instrument wrap a pool so task outcomes,
durations and pool occupancy are recorded in a metrics.Registry.
*/
package workerpool
