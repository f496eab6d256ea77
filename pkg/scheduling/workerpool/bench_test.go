package workerpool

import (
	"context"
	"sync"
	"testing"
	"time"
)

// BenchmarkTaskExecution measures the overhead of task submission and execution
func BenchmarkTaskExecution(b *testing.B) {
	pool := New(4, 1000)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range pool.Results() {
		}
	}()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = pool.Submit(TaskFunc(func(ctx context.Context) error {
				return nil
			}))
		}
	})
	b.StopTimer()

	<-pool.Shutdown()
	wg.Wait()
}

// BenchmarkShutdownNow measures how quickly a full pool of blocked loops stops.
func BenchmarkShutdownNow(b *testing.B) {
	for i := 0; i < b.N; i++ {
		pool := New(16, 0)
		var started sync.WaitGroup
		started.Add(16)
		for w := 0; w < 16; w++ {
			_ = pool.Submit(TaskFunc(func(ctx context.Context) error {
				started.Done()
				<-ctx.Done()
				return nil
			}))
		}
		started.Wait()

		pool.ShutdownNow()
		if err := pool.AwaitTermination(time.Minute); err != nil {
			b.Fatal(err)
		}
	}
}
