package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/prodsim/internal/testutil"
)

func TestNewRegistryRegistersOnGivenRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.QueueDepth.WithLabelValues("run").Set(2)
	r.LogEntriesWritten.WithLabelValues("run").Inc()

	n, err := promtest.GatherAndCount(reg, "prodsim_queue_depth", "prodsim_eventlog_written_total")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, 2)
}

func TestConstLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistryWithConfig(Config{Registry: reg, Labels: prometheus.Labels{"env": "test"}})

	r.SimulationState.WithLabelValues("abc").Set(1)

	expected := `
# HELP prodsim_simulation_state Current orchestrator state (0=idle 1=running 2=draining 3=flushing 4=terminated 5=failed)
# TYPE prodsim_simulation_state gauge
prodsim_simulation_state{env="test",run_id="abc"} 1
`
	err := promtest.GatherAndCompare(reg, strings.NewReader(expected), "prodsim_simulation_state")
	testutil.AssertNoError(t, err)
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	testutil.AssertEqual(t, c.Enabled, true)
	testutil.AssertEqual(t, c.Namespace, "prodsim")
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRegistry(reg)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewRegistry(reg)
}
