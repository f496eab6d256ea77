package simulation

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
)

var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule validates a cron expression. Both five and six field forms
// are accepted, as are descriptors such as "@every 2s".
func ParseSchedule(expr string) (cron.Schedule, error) {
	schedule, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, gferrors.NewValidationError("simulation", "reportSchedule", expr, err.Error()).
			WithHint(`use a cron expression or a descriptor such as "@every 2s"`)
	}
	return schedule, nil
}

// Snapshot is a point-in-time view of a running simulation.
type Snapshot struct {
	State         State
	Elapsed       time.Duration
	QueueDepth    int
	QueueCapacity int
	LogQueueDepth int
	Produced      int64
	Consumed      int64
	ActiveWorkers int
}

func (s Snapshot) String() string {
	return fmt.Sprintf("%s after %s: queue %d/%d, log queue %d, produced %d, consumed %d, active workers %d",
		s.State, s.Elapsed.Truncate(time.Millisecond), s.QueueDepth, s.QueueCapacity,
		s.LogQueueDepth, s.Produced, s.Consumed, s.ActiveWorkers)
}

// Reporter periodically takes a Snapshot and hands it to a callback on a cron
// schedule. Overlapping runs are skipped.
type Reporter struct {
	cron     *cron.Cron
	schedule cron.Schedule
	entry    cron.EntryID
	snapshot func() Snapshot
	report   func(Snapshot)
	runs     atomic.Int64
}

// NewReporter creates a stopped Reporter.
func NewReporter(expr string, snapshot func() Snapshot, report func(Snapshot)) (*Reporter, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	if snapshot == nil || report == nil {
		return nil, gferrors.NewValidationError("simulation", "reporter", nil, "snapshot and report callbacks are required")
	}

	r := &Reporter{
		cron: cron.New(
			cron.WithParser(scheduleParser),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		schedule: schedule,
		snapshot: snapshot,
		report:   report,
	}
	r.entry = r.cron.Schedule(schedule, cron.FuncJob(r.Trigger))
	return r, nil
}

// Start begins running the schedule in the background.
func (r *Reporter) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a report in progress to finish.
func (r *Reporter) Stop() {
	<-r.cron.Stop().Done()
}

// Trigger takes and reports a snapshot immediately.
func (r *Reporter) Trigger() {
	r.runs.Add(1)
	r.report(r.snapshot())
}

// Next returns when the next scheduled report is due after t.
func (r *Reporter) Next(t time.Time) time.Time {
	return r.schedule.Next(t)
}

// Runs returns how many reports have been made.
func (r *Reporter) Runs() int64 {
	return r.runs.Load()
}
