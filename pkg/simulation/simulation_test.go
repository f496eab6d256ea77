package simulation

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
	"github.com/vnykmshr/prodsim/pkg/metrics"
	"github.com/vnykmshr/prodsim/pkg/sequence"
	"github.com/vnykmshr/prodsim/pkg/workers"
)

const remainingPrefix = "Messages still in queue after shutdown: "

// fastConfig keeps runs short while leaving the consumer slower than the
// producers so the queue fills up.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Producers = 2
	cfg.Consumers = 1
	cfg.QueueCapacity = 1
	cfg.ProducerWorkTime = workers.WorkTime{Lower: 1, Upper: 3}
	cfg.ConsumerWorkTime = workers.WorkTime{Lower: 5, Upper: 10}
	cfg.PollInterval = 10 * time.Millisecond
	cfg.RunTime = 150 * time.Millisecond
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

func outputLines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func countContaining(lines []string, text string) int {
	n := 0
	for _, line := range lines {
		if strings.Contains(line, text) {
			n++
		}
	}
	return n
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueCapacity = 0

	_, err := New[string](cfg, sequence.NewGenerator())
	require.Error(t, err)
	assert.True(t, gferrors.IsValidationError(err))

	_, err = New[string](DefaultConfig(), nil)
	assert.True(t, gferrors.IsValidationError(err))
}

func TestNewStartsIdle(t *testing.T) {
	sim, err := New[string](DefaultConfig(), sequence.NewGenerator(), WithRunID("run-1"))
	require.NoError(t, err)

	assert.Equal(t, StateIdle, sim.State())
	assert.Equal(t, "run-1", sim.RunID())

	snap := sim.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Zero(t, snap.QueueDepth)
	assert.Equal(t, 3, snap.QueueCapacity)
}

func TestGeneratedRunIDs(t *testing.T) {
	a, err := New[string](DefaultConfig(), sequence.NewGenerator())
	require.NoError(t, err)
	b, err := New[string](DefaultConfig(), sequence.NewGenerator())
	require.NoError(t, err)

	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestRunEndToEnd(t *testing.T) {
	var out bytes.Buffer
	var transitions []string

	sim, err := New[string](fastConfig(), sequence.NewGenerator(),
		WithOutput(&out),
		OnStateChange(func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)
	require.NoError(t, err)

	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateTerminated, sim.State())
	assert.Equal(t, []string{
		"Idle->Running",
		"Running->Draining",
		"Draining->Flushing",
		"Flushing->Terminated",
	}, transitions)

	// Nothing is lost: every sent message was consumed or is still queued
	assert.Equal(t, report.Produced, report.Consumed+int64(len(report.Remaining)))
	assert.LessOrEqual(t, len(report.Remaining), 1)
	assert.Positive(t, report.Produced)
	assert.Empty(t, report.WorkerErrors)
	assert.Equal(t, sim.RunID(), report.RunID)

	lines := outputLines(&out)
	require.NotEmpty(t, lines)

	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, remainingPrefix), "last line: %q", last)
	assert.Equal(t, remainingPrefix+formatList(report.Remaining), last)

	assert.Equal(t, int(report.Produced), countContaining(lines, "Sent message: msg-"))
	assert.Equal(t, int(report.Consumed), countContaining(lines, "Consumed message: msg-"))

	// Every worker announces its exit exactly once
	for _, worker := range []string{"P1", "P2", "C1"} {
		assert.Equal(t, 1, countLine(lines, worker, "Shutting down"), "worker %s", worker)
	}

	// Every log line carries an origin, a timestamp and the text
	for _, line := range lines[:len(lines)-1] {
		parts := strings.SplitN(line, " - ", 3)
		require.Len(t, parts, 3, "line %q", line)
		_, err := time.Parse(time.RFC3339Nano, parts[1])
		assert.NoError(t, err, "line %q", line)
	}
}

func countLine(lines []string, origin, text string) int {
	n := 0
	for _, line := range lines {
		if strings.HasPrefix(line, origin+" - ") && strings.HasSuffix(line, " - "+text) {
			n++
		}
	}
	return n
}

func TestRunReportsRemainingInOrder(t *testing.T) {
	cfg := fastConfig()
	cfg.Producers = 1
	cfg.QueueCapacity = 3
	// The consumer takes one message and then works longer than the run
	cfg.ConsumerWorkTime = workers.WorkTime{Lower: 10000, Upper: 10000}
	cfg.ProducerWorkTime = workers.WorkTime{Lower: 0, Upper: 0}
	cfg.RunTime = 100 * time.Millisecond

	var out bytes.Buffer
	sim, err := New[string](cfg, sequence.NewGenerator(), WithOutput(&out))
	require.NoError(t, err)

	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), report.Consumed)
	assert.Equal(t, []string{"msg-2", "msg-3", "msg-4"}, report.Remaining)
	assert.Contains(t, out.String(), remainingPrefix+"[msg-2, msg-3, msg-4]\n")
	assert.Contains(t, out.String(), "P1 - ")
	assert.Contains(t, out.String(), "Got interrupt signal while waiting to send message: msg-5")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := fastConfig()
	cfg.RunTime = time.Hour

	var out bytes.Buffer
	sim, err := New[string](cfg, sequence.NewGenerator(), WithOutput(&out))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err = sim.Run(ctx)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, StateTerminated, sim.State())
	assert.Contains(t, out.String(), remainingPrefix)
}

func TestRunOnlyOnce(t *testing.T) {
	cfg := fastConfig()
	cfg.RunTime = 0

	sim, err := New[string](cfg, sequence.NewGenerator(), WithOutput(&bytes.Buffer{}))
	require.NoError(t, err)

	_, err = sim.Run(context.Background())
	require.NoError(t, err)

	_, err = sim.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestRunRecordsWorkerErrors(t *testing.T) {
	cfg := fastConfig()
	cfg.Producers = 1

	sourceErr := errors.New("source exhausted")
	source := sequence.SourceFunc[string](func() (string, error) {
		return "", sourceErr
	})

	var out bytes.Buffer
	sim, err := New[string](cfg, source, WithOutput(&out))
	require.NoError(t, err)

	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.WorkerErrors, 1)
	assert.Equal(t, "P1", report.WorkerErrors[0].Worker)
	assert.ErrorIs(t, report.WorkerErrors[0], sourceErr)
	assert.Zero(t, report.Produced)

	// A failed producer does not announce a clean shutdown
	assert.Zero(t, countLine(outputLines(&out), "P1", "Shutting down"))
	assert.Equal(t, 1, countLine(outputLines(&out), "C1", "Shutting down"))
}

func TestRunFailsWhenWorkersMissShutdownTimeout(t *testing.T) {
	cfg := fastConfig()
	cfg.Producers = 1
	cfg.RunTime = 50 * time.Millisecond
	cfg.ShutdownTimeout = 50 * time.Millisecond

	// The source ignores cancellation until the test releases it
	release := make(chan struct{})
	var once sync.Once
	defer once.Do(func() { close(release) })

	source := sequence.SourceFunc[string](func() (string, error) {
		<-release
		return "late", nil
	})

	var states []State
	sim, err := New[string](cfg, source,
		WithOutput(&bytes.Buffer{}),
		OnStateChange(func(_, to State) { states = append(states, to) }),
	)
	require.NoError(t, err)

	report, err := sim.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, gferrors.ErrShutdownTimeout)
	assert.True(t, gferrors.IsFatal(err))
	assert.NotNil(t, report)

	assert.Equal(t, StateFailed, sim.State())
	assert.Equal(t, []State{StateRunning, StateDraining, StateFailed}, states)

	once.Do(func() { close(release) })
}

func TestRunWithMetrics(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())

	sim, err := New[string](fastConfig(), sequence.NewGenerator(),
		WithOutput(&bytes.Buffer{}),
		WithMetrics(reg),
		WithRunID("metrics-run"),
	)
	require.NoError(t, err)

	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float64(StateTerminated), promtestutil.ToFloat64(reg.SimulationState.WithLabelValues("metrics-run")))
	assert.Equal(t, float64(len(report.Remaining)), promtestutil.ToFloat64(reg.RemainingMessages.WithLabelValues("metrics-run")))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(reg.QueueCapacity.WithLabelValues("metrics-run")))

	produced := promtestutil.ToFloat64(reg.MessagesProduced.WithLabelValues("metrics-run", "P1")) +
		promtestutil.ToFloat64(reg.MessagesProduced.WithLabelValues("metrics-run", "P2"))
	assert.Equal(t, float64(report.Produced), produced)
	assert.Equal(t, float64(report.Consumed), promtestutil.ToFloat64(reg.MessagesConsumed.WithLabelValues("metrics-run", "C1")))
	assert.Equal(t, float64(4), promtestutil.ToFloat64(reg.WorkerPoolSize.WithLabelValues("simulation")))
}

func TestRunReportsProgress(t *testing.T) {
	cfg := fastConfig()
	cfg.RunTime = 1500 * time.Millisecond
	cfg.ReportSchedule = "@every 1s"

	var mu sync.Mutex
	var snaps []Snapshot

	sim, err := New[string](cfg, sequence.NewGenerator(),
		WithOutput(&bytes.Buffer{}),
		OnSnapshot(func(s Snapshot) {
			mu.Lock()
			snaps = append(snaps, s)
			mu.Unlock()
		}),
	)
	require.NoError(t, err)

	_, err = sim.Run(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, snaps)
	assert.Equal(t, StateRunning, snaps[0].State)
	assert.Equal(t, 1, snaps[0].QueueCapacity)
	assert.Positive(t, snaps[0].Elapsed)
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "[]", formatList([]string{}))
	assert.Equal(t, "[msg-1]", formatList([]string{"msg-1"}))
	assert.Equal(t, "[msg-1, msg-2]", formatList([]string{"msg-1", "msg-2"}))
	assert.Equal(t, "[1, 2]", formatList([]int{1, 2}))
}
