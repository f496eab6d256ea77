package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/prodsim/internal/testutil"
	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
	"github.com/vnykmshr/prodsim/pkg/queue"
	"github.com/vnykmshr/prodsim/pkg/sequence"
)

const (
	interruptTake = "Got interrupt signal while waiting for new message"
	shuttingDown  = "Shutting down"
)

func run(ctx context.Context, task interface{ Execute(context.Context) error }) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- task.Execute(ctx) }()
	return errCh
}

func TestWorkTimeDraw(t *testing.T) {
	testutil.AssertEqual(t, WorkTime{}.Draw(), time.Duration(0))
	testutil.AssertEqual(t, WorkTime{Lower: 7, Upper: 7}.Draw(), 7*time.Millisecond)
	testutil.AssertEqual(t, WorkTime{Lower: 9, Upper: 3}.Draw(), 9*time.Millisecond)

	w := WorkTime{Lower: 10, Upper: 20}
	for i := 0; i < 200; i++ {
		d := w.Draw()
		if d < 10*time.Millisecond || d >= 20*time.Millisecond {
			t.Fatalf("draw %v outside [10ms, 20ms)", d)
		}
	}
}

func TestWorkTimeValidate(t *testing.T) {
	testutil.AssertNoError(t, WorkTime{Lower: 0, Upper: 0}.Validate("simulation", "producerWorkTime"))
	testutil.AssertNoError(t, WorkTime{Lower: 1000, Upper: 5000}.Validate("simulation", "producerWorkTime"))

	err := WorkTime{Lower: 5, Upper: 1}.Validate("simulation", "consumerWorkTime")
	testutil.AssertEqual(t, gferrors.IsValidationError(err), true)

	err = WorkTime{Lower: -1, Upper: 1}.Validate("simulation", "consumerWorkTime")
	testutil.AssertEqual(t, gferrors.IsValidationError(err), true)
}

func TestNames(t *testing.T) {
	q := queue.New[string](1)
	testutil.AssertEqual(t, NewProducer[string](3, q, sequence.NewGenerator(), WorkTime{}, testutil.NewRecordingWriter()).Name(), "P3")
	testutil.AssertEqual(t, NewConsumer[string](1, q, WorkTime{}, testutil.NewRecordingWriter()).Name(), "C1")
}

// TestProducerGapFreeSequence runs a single producer with no simulated work
// and checks the queue receives msg-1, msg-2, ... without gaps.
func TestProducerGapFreeSequence(t *testing.T) {
	q := queue.New[string](50)
	log := testutil.NewRecordingWriter()
	p := NewProducer[string](1, q, sequence.NewGenerator(), WorkTime{}, log)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := run(ctx, p)

	testutil.Eventually(t, func() bool { return q.Len() == q.Cap() }, time.Second, time.Millisecond)
	cancel()
	testutil.AssertNoError(t, <-errCh)

	got := q.Snapshot()
	testutil.AssertEqual(t, len(got), 50)
	for i, id := range got {
		testutil.AssertEqual(t, id, fmt.Sprintf("msg-%d", i+1))
	}

	lines := log.Lines()
	for i := 0; i < 50; i++ {
		testutil.AssertEqual(t, lines[i], fmt.Sprintf("Sent message: msg-%d", i+1))
	}
	testutil.AssertEqual(t, log.Count(shuttingDown), 1)
	testutil.AssertEqual(t, lines[len(lines)-1], shuttingDown)
}

func TestProducerCanceledWhileBlockedInPut(t *testing.T) {
	q := queue.New[string](1)
	testutil.AssertNoError(t, q.Put(context.Background(), "msg-0"))

	log := testutil.NewRecordingWriter()
	p := NewProducer[string](1, q, sequence.NewGenerator(), WorkTime{}, log)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := run(ctx, p)

	testutil.Eventually(t, func() bool { return q.Stats().BlockedPuts == 1 }, time.Second, time.Millisecond)
	cancel()
	testutil.AssertNoError(t, <-errCh)

	testutil.AssertEqual(t, fmt.Sprint(q.Snapshot()), "[msg-0]")

	lines := log.Lines()
	testutil.AssertEqual(t, len(lines), 2)
	testutil.AssertEqual(t, lines[0], "Got interrupt signal while waiting to send message: msg-1")
	testutil.AssertEqual(t, lines[1], shuttingDown)
}

func TestProducerCanceledWhileSleeping(t *testing.T) {
	q := queue.New[string](1)
	log := testutil.NewRecordingWriter()
	p := NewProducer[string](1, q, sequence.NewGenerator(), WorkTime{Lower: 60000, Upper: 60000}, log)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := run(ctx, p)
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		testutil.AssertNoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("producer did not stop while sleeping")
	}

	lines := log.Lines()
	testutil.AssertEqual(t, len(lines), 1)
	testutil.AssertEqual(t, lines[0], shuttingDown)
	testutil.AssertEqual(t, q.Len(), 0)
}

func TestProducerSourceErrorPropagates(t *testing.T) {
	boom := errors.New("clock unavailable")
	q := queue.New[string](1)
	log := testutil.NewRecordingWriter()
	src := sequence.SourceFunc[string](func() (string, error) { return "", boom })

	err := NewProducer[string](2, q, src, WorkTime{}, log).Execute(context.Background())
	testutil.AssertEqual(t, errors.Is(err, boom), true)

	var opErr *gferrors.OperationError
	testutil.AssertEqual(t, errors.As(err, &opErr), true)
	testutil.AssertEqual(t, opErr.Context, "P2")

	// The worker dies without the shutdown notice
	testutil.AssertEqual(t, log.Len(), 0)
}

func TestConsumerCanceledWhileBlockedInTake(t *testing.T) {
	q := queue.New[string](1)
	log := testutil.NewRecordingWriter()
	c := NewConsumer[string](1, q, WorkTime{}, log)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := run(ctx, c)

	time.Sleep(20 * time.Millisecond)
	cancel()
	testutil.AssertNoError(t, <-errCh)

	lines := log.Lines()
	testutil.AssertEqual(t, len(lines), 2)
	testutil.AssertEqual(t, lines[0], interruptTake)
	testutil.AssertEqual(t, lines[1], shuttingDown)
	testutil.AssertEqual(t, log.CountPrefix("Consumed message"), 0)
}

func TestConsumerConsumesInOrder(t *testing.T) {
	q := queue.New[string](3)
	for _, m := range []string{"msg-1", "msg-2", "msg-3"} {
		testutil.AssertNoError(t, q.Put(context.Background(), m))
	}

	log := testutil.NewRecordingWriter()
	var consumed []string
	c := NewConsumer[string](1, q, WorkTime{}, log).WithHooks(Hooks[string]{
		OnConsumed: func(worker, msg string) { consumed = append(consumed, worker+":"+msg) },
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := run(ctx, c)
	testutil.Eventually(t, func() bool { return log.CountPrefix("Consumed message") == 3 }, time.Second, time.Millisecond)
	cancel()
	testutil.AssertNoError(t, <-errCh)

	lines := log.Lines()
	testutil.AssertEqual(t, lines[0], "Consumed message: msg-1")
	testutil.AssertEqual(t, lines[1], "Consumed message: msg-2")
	testutil.AssertEqual(t, lines[2], "Consumed message: msg-3")
	testutil.AssertEqual(t, lines[3], interruptTake)
	testutil.AssertEqual(t, lines[4], shuttingDown)
	testutil.AssertEqual(t, fmt.Sprint(consumed), "[C1:msg-1 C1:msg-2 C1:msg-3]")
}

func TestProducersAndConsumersExchangeEveryMessage(t *testing.T) {
	q := queue.New[string](2)
	gen := sequence.NewGenerator()

	var mu sync.Mutex
	sent := map[string]bool{}
	received := map[string]bool{}
	hooks := Hooks[string]{
		OnSent: func(_ string, m string) {
			mu.Lock()
			defer mu.Unlock()
			sent[m] = true
		},
		OnConsumed: func(_ string, m string) {
			mu.Lock()
			defer mu.Unlock()
			received[m] = true
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	var errs []<-chan error
	for i := 1; i <= 3; i++ {
		p := NewProducer[string](i, q, gen, WorkTime{Lower: 0, Upper: 2}, testutil.NewRecordingWriter()).WithHooks(hooks)
		errs = append(errs, run(ctx, p))
	}
	for i := 1; i <= 2; i++ {
		c := NewConsumer[string](i, q, WorkTime{Lower: 0, Upper: 2}, testutil.NewRecordingWriter()).WithHooks(hooks)
		errs = append(errs, run(ctx, c))
	}

	time.Sleep(100 * time.Millisecond)
	cancel()
	for _, ch := range errs {
		testutil.AssertNoError(t, <-ch)
	}

	// Everything sent was either consumed or is still in the queue
	mu.Lock()
	defer mu.Unlock()
	for _, m := range q.Snapshot() {
		received[m] = true
	}
	testutil.AssertEqual(t, len(received), len(sent))
	for m := range sent {
		if !received[m] {
			t.Errorf("%s was sent but lost", m)
		}
	}
}
