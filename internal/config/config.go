// Package config loads prodsim settings from defaults, an optional YAML
// file, PRODSIM_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vnykmshr/prodsim/internal/logging"
	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
	"github.com/vnykmshr/prodsim/pkg/common/validation"
	"github.com/vnykmshr/prodsim/pkg/eventlog"
	"github.com/vnykmshr/prodsim/pkg/simulation"
	"github.com/vnykmshr/prodsim/pkg/workers"
)

// EnvPrefix prefixes every environment override, e.g. PRODSIM_SIMULATION_PRODUCERS.
const EnvPrefix = "PRODSIM"

// Message sources selectable with source.kind.
const (
	SourceSequence  = "sequence"
	SourceTimestamp = "timestamp"
)

// Config is the complete prodsim configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
	Source     SourceConfig     `mapstructure:"source" yaml:"source"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	Redis      RedisConfig      `mapstructure:"redis" yaml:"redis"`
}

// SimulationConfig holds the run parameters. Work times and the poll
// interval are in milliseconds, run time and shutdown timeout in seconds.
type SimulationConfig struct {
	Producers        int    `mapstructure:"producers" yaml:"producers"`
	Consumers        int    `mapstructure:"consumers" yaml:"consumers"`
	ProducerMinMs    int    `mapstructure:"producer_min_ms" yaml:"producer_min_ms"`
	ProducerMaxMs    int    `mapstructure:"producer_max_ms" yaml:"producer_max_ms"`
	ConsumerMinMs    int    `mapstructure:"consumer_min_ms" yaml:"consumer_min_ms"`
	ConsumerMaxMs    int    `mapstructure:"consumer_max_ms" yaml:"consumer_max_ms"`
	QueueCapacity    int    `mapstructure:"queue_capacity" yaml:"queue_capacity"`
	LogQueueCapacity int    `mapstructure:"log_queue_capacity" yaml:"log_queue_capacity"`
	LogQueueLimit    int    `mapstructure:"log_queue_limit" yaml:"log_queue_limit"`
	BatchSize        int    `mapstructure:"batch_size" yaml:"batch_size"`
	PollIntervalMs   int    `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
	RunTimeSec       int    `mapstructure:"run_time_sec" yaml:"run_time_sec"`
	ShutdownSec      int    `mapstructure:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec"`
	ReportSchedule   string `mapstructure:"report_schedule" yaml:"report_schedule"`
}

// SourceConfig selects how producers name their messages.
type SourceConfig struct {
	// Kind is "sequence" (msg-1, msg-2, ...) or "timestamp".
	Kind string `mapstructure:"kind" yaml:"kind"`
}

// LoggingConfig controls diagnostics on stderr.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables it.
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// RedisConfig mirrors drained log entries to a Redis channel.
type RedisConfig struct {
	// Addr enables the mirror when set, e.g. "localhost:6379".
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Channel  string `mapstructure:"channel" yaml:"channel"`
	Encoding string `mapstructure:"encoding" yaml:"encoding"`
}

// Default returns the reference configuration.
func Default() *Config {
	sim := simulation.DefaultConfig()
	return &Config{
		Simulation: SimulationConfig{
			Producers:        sim.Producers,
			Consumers:        sim.Consumers,
			ProducerMinMs:    sim.ProducerWorkTime.Lower,
			ProducerMaxMs:    sim.ProducerWorkTime.Upper,
			ConsumerMinMs:    sim.ConsumerWorkTime.Lower,
			ConsumerMaxMs:    sim.ConsumerWorkTime.Upper,
			QueueCapacity:    sim.QueueCapacity,
			LogQueueCapacity: sim.LogQueueCapacity,
			LogQueueLimit:    sim.LogQueueLimit,
			BatchSize:        sim.BatchSize,
			PollIntervalMs:   int(sim.PollInterval / time.Millisecond),
			RunTimeSec:       int(sim.RunTime / time.Second),
			ShutdownSec:      int(sim.ShutdownTimeout / time.Second),
		},
		Source: SourceConfig{
			Kind: SourceSequence,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: logging.FormatText,
		},
		Redis: RedisConfig{
			Channel:  "prodsim:log",
			Encoding: string(eventlog.EncodingText),
		},
	}
}

// SetDefaults registers every default on v so that env and file lookups
// see the full key set.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("simulation.producers", d.Simulation.Producers)
	v.SetDefault("simulation.consumers", d.Simulation.Consumers)
	v.SetDefault("simulation.producer_min_ms", d.Simulation.ProducerMinMs)
	v.SetDefault("simulation.producer_max_ms", d.Simulation.ProducerMaxMs)
	v.SetDefault("simulation.consumer_min_ms", d.Simulation.ConsumerMinMs)
	v.SetDefault("simulation.consumer_max_ms", d.Simulation.ConsumerMaxMs)
	v.SetDefault("simulation.queue_capacity", d.Simulation.QueueCapacity)
	v.SetDefault("simulation.log_queue_capacity", d.Simulation.LogQueueCapacity)
	v.SetDefault("simulation.log_queue_limit", d.Simulation.LogQueueLimit)
	v.SetDefault("simulation.batch_size", d.Simulation.BatchSize)
	v.SetDefault("simulation.poll_interval_ms", d.Simulation.PollIntervalMs)
	v.SetDefault("simulation.run_time_sec", d.Simulation.RunTimeSec)
	v.SetDefault("simulation.shutdown_timeout_sec", d.Simulation.ShutdownSec)
	v.SetDefault("simulation.report_schedule", d.Simulation.ReportSchedule)

	v.SetDefault("source.kind", d.Source.Kind)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("metrics.addr", d.Metrics.Addr)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.channel", d.Redis.Channel)
	v.SetDefault("redis.encoding", d.Redis.Encoding)
}

// ConfigureEnv makes v read PRODSIM_* variables, with dots in keys replaced
// by underscores (PRODSIM_SIMULATION_RUN_TIME_SEC for simulation.run_time_sec).
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadFile loads path into v. An empty path looks for prodsim.yaml in the
// working directory and $HOME/.config/prodsim, and a missing file is not
// an error in that case.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return gferrors.NewOperationError("config", "ReadFile", err).WithContext(path)
		}
		return nil
	}

	v.SetConfigName("prodsim")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/prodsim")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return gferrors.NewOperationError("config", "ReadFile", err)
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, gferrors.NewOperationError("config", "Load", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that are not covered by simulation.Config.
func (c *Config) Validate() error {
	if _, err := c.ToSimulation(); err != nil {
		return err
	}

	switch c.Source.Kind {
	case SourceSequence, SourceTimestamp:
	default:
		return gferrors.NewValidationError("config", "source.kind", c.Source.Kind, "unknown source").
			WithHint(fmt.Sprintf("use %q or %q", SourceSequence, SourceTimestamp))
	}

	switch c.Logging.Format {
	case logging.FormatText, logging.FormatJSON:
	default:
		return gferrors.NewValidationError("config", "logging.format", c.Logging.Format, "unknown format").
			WithHint(fmt.Sprintf("use %q or %q", logging.FormatText, logging.FormatJSON))
	}

	if c.Redis.Addr != "" {
		if err := validation.ValidateNotEmpty("config", "redis.channel", c.Redis.Channel); err != nil {
			return err
		}
		if err := validation.ValidateNonNegative("config", "redis.db", c.Redis.DB); err != nil {
			return err
		}
		if _, err := eventlog.ParseEncoding(c.Redis.Encoding); err != nil {
			return err
		}
	}
	return nil
}

// ToSimulation converts the file-level units into a validated
// simulation.Config.
func (c *Config) ToSimulation() (simulation.Config, error) {
	s := c.Simulation
	sim := simulation.Config{
		Producers:        s.Producers,
		Consumers:        s.Consumers,
		ProducerWorkTime: workers.WorkTime{Lower: s.ProducerMinMs, Upper: s.ProducerMaxMs},
		ConsumerWorkTime: workers.WorkTime{Lower: s.ConsumerMinMs, Upper: s.ConsumerMaxMs},
		QueueCapacity:    s.QueueCapacity,
		LogQueueCapacity: s.LogQueueCapacity,
		LogQueueLimit:    s.LogQueueLimit,
		BatchSize:        s.BatchSize,
		PollInterval:     time.Duration(s.PollIntervalMs) * time.Millisecond,
		RunTime:          time.Duration(s.RunTimeSec) * time.Second,
		ShutdownTimeout:  time.Duration(s.ShutdownSec) * time.Second,
		ReportSchedule:   s.ReportSchedule,
	}
	if err := sim.Validate(); err != nil {
		return simulation.Config{}, err
	}
	return sim, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
