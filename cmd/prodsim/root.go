package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vnykmshr/prodsim/internal/config"
)

// flagKeys maps each persistent flag to its configuration key.
var flagKeys = map[string]string{
	"producers":          "simulation.producers",
	"consumers":          "simulation.consumers",
	"producer-min-ms":    "simulation.producer_min_ms",
	"producer-max-ms":    "simulation.producer_max_ms",
	"consumer-min-ms":    "simulation.consumer_min_ms",
	"consumer-max-ms":    "simulation.consumer_max_ms",
	"queue-capacity":     "simulation.queue_capacity",
	"log-queue-capacity": "simulation.log_queue_capacity",
	"log-queue-limit":    "simulation.log_queue_limit",
	"batch-size":         "simulation.batch_size",
	"poll-interval-ms":   "simulation.poll_interval_ms",
	"run-time":           "simulation.run_time_sec",
	"shutdown-timeout":   "simulation.shutdown_timeout_sec",
	"report-schedule":    "simulation.report_schedule",
	"source":             "source.kind",
	"log-level":          "logging.level",
	"log-format":         "logging.format",
	"metrics-addr":       "metrics.addr",
	"redis-addr":         "redis.addr",
	"redis-password":     "redis.password",
	"redis-db":           "redis.db",
	"redis-channel":      "redis.channel",
	"redis-encoding":     "redis.encoding",
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "prodsim",
		Short: "Producer/consumer simulation over a bounded queue",
		Long: `prodsim runs producers and consumers against a bounded queue for a fixed
time, prints their time-ordered event log, then shuts them down and reports
the messages left in the queue.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config.SetDefaults(v)
			config.ConfigureEnv(v)
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			return config.ReadFile(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./prodsim.yaml or $HOME/.config/prodsim/prodsim.yaml)")
	addConfigFlags(root.PersistentFlags())

	root.AddCommand(newRunCmd(v))
	root.AddCommand(newConfigCmd(v))
	return root
}

func addConfigFlags(fs *pflag.FlagSet) {
	d := config.Default()
	s := d.Simulation

	fs.Int("producers", s.Producers, "number of producers")
	fs.Int("consumers", s.Consumers, "number of consumers")
	fs.Int("producer-min-ms", s.ProducerMinMs, "minimum producer work time in milliseconds")
	fs.Int("producer-max-ms", s.ProducerMaxMs, "maximum producer work time in milliseconds (exclusive)")
	fs.Int("consumer-min-ms", s.ConsumerMinMs, "minimum consumer work time in milliseconds")
	fs.Int("consumer-max-ms", s.ConsumerMaxMs, "maximum consumer work time in milliseconds (exclusive)")
	fs.Int("queue-capacity", s.QueueCapacity, "message queue capacity")
	fs.Int("log-queue-capacity", s.LogQueueCapacity, "initial event log queue capacity")
	fs.Int("log-queue-limit", s.LogQueueLimit, "event log queue limit, 0 for unbounded")
	fs.Int("batch-size", s.BatchSize, "event log entries printed per poll")
	fs.Int("poll-interval-ms", s.PollIntervalMs, "event log poll interval in milliseconds")
	fs.Int("run-time", s.RunTimeSec, "run time in seconds")
	fs.Int("shutdown-timeout", s.ShutdownSec, "shutdown timeout in seconds")
	fs.String("report-schedule", s.ReportSchedule, `cron schedule for progress diagnostics, e.g. "@every 2s"`)

	fs.String("source", d.Source.Kind, "message source: sequence or timestamp")
	fs.String("log-level", d.Logging.Level, "diagnostics level: debug, info, warn or error")
	fs.String("log-format", d.Logging.Format, "diagnostics format: text or json")
	fs.String("metrics-addr", d.Metrics.Addr, "serve Prometheus metrics on this address, e.g. :9090")

	fs.String("redis-addr", d.Redis.Addr, "mirror the event log to this Redis server")
	fs.String("redis-password", d.Redis.Password, "Redis password")
	fs.Int("redis-db", d.Redis.DB, "Redis database")
	fs.String("redis-channel", d.Redis.Channel, "Redis channel for event log entries")
	fs.String("redis-encoding", d.Redis.Encoding, "Redis payload encoding: text, json or msgpack")
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}
