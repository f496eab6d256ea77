/*
Package scheduling provides the task execution primitives prodsim runs its
workers on.

  - workerpool: Fixed worker pool with cooperative cancellation

Worker Pool:

Each producer, consumer and the log reader occupies one pool worker for the
whole run. ShutdownNow cancels them all and AwaitTermination bounds the wait:

	pool := workerpool.New(7, 0)
	pool.Submit(producer)
	...
	pool.ShutdownNow()
	if err := pool.AwaitTermination(10 * time.Second); err != nil {
		// errors.ErrShutdownTimeout: a worker ignored cancellation
	}

Panics inside tasks are recovered and reported as task errors.
*/
package scheduling
