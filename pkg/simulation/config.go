package simulation

import (
	"time"

	"github.com/vnykmshr/prodsim/pkg/common/validation"
	"github.com/vnykmshr/prodsim/pkg/workers"
)

// Config holds the fixed parameters of a run.
type Config struct {
	// Producers is the number of producer loops. Must be positive.
	Producers int

	// Consumers is the number of consumer loops. Must be positive.
	Consumers int

	// ProducerWorkTime is the simulated production cost per message.
	ProducerWorkTime workers.WorkTime

	// ConsumerWorkTime is the simulated processing cost per message.
	ConsumerWorkTime workers.WorkTime

	// QueueCapacity bounds the message queue. Must be positive.
	QueueCapacity int

	// LogQueueCapacity sizes the event log queue up front. It is not a limit.
	LogQueueCapacity int

	// LogQueueLimit caps the event log queue. Zero means unbounded.
	LogQueueLimit int

	// BatchSize is the maximum number of log entries printed per poll.
	BatchSize int

	// PollInterval is the pause between log reader polls.
	PollInterval time.Duration

	// RunTime is how long workers run before shutdown starts.
	RunTime time.Duration

	// ShutdownTimeout bounds the wait for workers to exit.
	ShutdownTimeout time.Duration

	// ReportSchedule is a cron expression for periodic progress diagnostics,
	// e.g. "@every 2s". Empty disables them.
	ReportSchedule string
}

// DefaultConfig returns the reference scenario: 4 producers and 2 consumers
// sharing a queue of 3 for 10 seconds.
func DefaultConfig() Config {
	return Config{
		Producers:        4,
		Consumers:        2,
		ProducerWorkTime: workers.WorkTime{Lower: 1000, Upper: 5000},
		ConsumerWorkTime: workers.WorkTime{Lower: 5000, Upper: 7000},
		QueueCapacity:    3,
		LogQueueCapacity: 50,
		BatchSize:        5,
		PollInterval:     time.Second,
		RunTime:          10 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// PoolSize returns the number of pool workers a run needs: one per producer,
// one per consumer and one for the log reader.
func (c Config) PoolSize() int {
	return c.Producers + c.Consumers + 1
}

// Validate checks every parameter and returns the first problem found.
func (c Config) Validate() error {
	checks := []error{
		validation.ValidatePositive("simulation", "producers", c.Producers),
		validation.ValidatePositive("simulation", "consumers", c.Consumers),
		c.ProducerWorkTime.Validate("simulation", "producerWorkTime"),
		c.ConsumerWorkTime.Validate("simulation", "consumerWorkTime"),
		validation.ValidatePositive("simulation", "queueCapacity", c.QueueCapacity),
		validation.ValidateNonNegative("simulation", "logQueueCapacity", c.LogQueueCapacity),
		validation.ValidateNonNegative("simulation", "logQueueLimit", c.LogQueueLimit),
		validation.ValidatePositive("simulation", "batchSize", c.BatchSize),
		validation.ValidateNonNegative("simulation", "pollInterval", int(c.PollInterval)),
		validation.ValidateNonNegative("simulation", "runTime", int(c.RunTime)),
		validation.ValidatePositive("simulation", "shutdownTimeout", int(c.ShutdownTimeout)),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if c.ReportSchedule != "" {
		if _, err := ParseSchedule(c.ReportSchedule); err != nil {
			return err
		}
	}
	return nil
}
