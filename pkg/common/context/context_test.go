package context

import (
	"context"
	"testing"
	"time"

	"github.com/vnykmshr/prodsim/internal/testutil"
)

func TestSleepElapses(t *testing.T) {
	start := time.Now()
	ok := Sleep(context.Background(), 20*time.Millisecond)

	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, time.Since(start) >= 20*time.Millisecond, true)
}

func TestSleepInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	ok := Sleep(ctx, 5*time.Second)

	testutil.AssertEqual(t, ok, false)
	testutil.AssertEqual(t, time.Since(start) < time.Second, true)
}

func TestSleepZeroDuration(t *testing.T) {
	testutil.AssertEqual(t, Sleep(context.Background(), 0), true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	testutil.AssertEqual(t, Sleep(ctx, 0), false)
}

func TestIsCanceledAndTimedOut(t *testing.T) {
	ctx, cancel := WithTimeoutOrCancel(context.Background(), time.Millisecond)
	defer cancel()

	<-ctx.Done()
	testutil.AssertEqual(t, IsCanceled(ctx), true)
	testutil.AssertEqual(t, IsTimedOut(ctx), true)
}
