package simulation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/prodsim/internal/testutil"
	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
)

func TestParseSchedule(t *testing.T) {
	_, err := ParseSchedule("@every 2s")
	assert.NoError(t, err)

	_, err = ParseSchedule("0 */2 * * *")
	assert.NoError(t, err)

	_, err = ParseSchedule("@sometimes")
	require.Error(t, err)
	assert.True(t, gferrors.IsValidationError(err))
}

func TestReporterNext(t *testing.T) {
	r, err := NewReporter("@every 2s", func() Snapshot { return Snapshot{} }, func(Snapshot) {})
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(2*time.Second), r.Next(base))
}

func TestReporterRequiresCallbacks(t *testing.T) {
	_, err := NewReporter("@every 1s", nil, func(Snapshot) {})
	assert.True(t, gferrors.IsValidationError(err))
}

func TestReporterTrigger(t *testing.T) {
	var got []Snapshot
	r, err := NewReporter("@every 1h",
		func() Snapshot { return Snapshot{State: StateRunning, QueueDepth: 2, QueueCapacity: 3} },
		func(s Snapshot) { got = append(got, s) },
	)
	require.NoError(t, err)

	r.Trigger()
	r.Trigger()

	assert.Equal(t, int64(2), r.Runs())
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].QueueDepth)
	assert.Contains(t, got[0].String(), "Running")
	assert.Contains(t, got[0].String(), "queue 2/3")
}

func TestReporterRunsOnSchedule(t *testing.T) {
	var mu sync.Mutex
	reports := 0

	r, err := NewReporter("@every 1s",
		func() Snapshot { return Snapshot{} },
		func(Snapshot) {
			mu.Lock()
			reports++
			mu.Unlock()
		},
	)
	require.NoError(t, err)

	r.Start()
	defer r.Stop()

	testutil.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reports >= 1
	}, 3*time.Second, 50*time.Millisecond)
}
