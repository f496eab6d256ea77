// Package metrics provides Prometheus instrumentation for prodsim components.
//
// # Overview
//
// The registry covers:
//   - the bounded message queue (depth, capacity, backpressure events, produced and consumed counts)
//   - the event log (entries written and drained, queue depth, sink errors)
//   - the worker pool (size, active workers, task outcomes and durations)
//   - the simulation itself (current state, messages left after shutdown)
//
// Queue and simulation series carry a run_id label so several runs in one
// process stay distinguishable.
//
// # Quick Start
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewRegistry(reg)
//
//	sim, err := simulation.New(cfg, simulation.WithMetrics(m))
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # Custom Namespace
//
//	m := metrics.NewRegistryWithConfig(metrics.Config{
//		Registry:  reg,
//		Namespace: "loadtest",
//		Labels:    prometheus.Labels{"env": "ci"},
//	})
package metrics
