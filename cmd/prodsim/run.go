package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vnykmshr/prodsim/internal/config"
	"github.com/vnykmshr/prodsim/internal/logging"
	gfcontext "github.com/vnykmshr/prodsim/pkg/common/context"
	gferrors "github.com/vnykmshr/prodsim/pkg/common/errors"
	"github.com/vnykmshr/prodsim/pkg/eventlog"
	"github.com/vnykmshr/prodsim/pkg/metrics"
	"github.com/vnykmshr/prodsim/pkg/sequence"
	"github.com/vnykmshr/prodsim/pkg/simulation"
)

// redisPingTimeout bounds the startup connectivity check.
var redisPingTimeout = 5 * time.Second

func newRunCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the simulation",
		Long: `Run starts every producer and consumer, lets them work for the configured
run time and then shuts them down. Interrupting with Ctrl+C starts the
shutdown early. A shutdown that exceeds the timeout exits with status 2.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, cfg)
		},
	}
}

func run(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	simCfg, err := cfg.ToSimulation()
	if err != nil {
		return err
	}

	log := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	out := cmd.OutOrStdout()

	var sink eventlog.Sink = eventlog.NewWriterSink(out)
	if cfg.Redis.Addr != "" {
		client, redisSink, err := newRedisSink(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		sink = eventlog.MultiSink{sink, redisSink}
		log.Info("mirroring event log to redis", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}

	opts := []simulation.Option{
		simulation.WithLogger(log),
		simulation.WithOutput(out),
		simulation.WithSink(sink),
	}

	if cfg.Metrics.Addr != "" {
		registry, shutdown := serveMetrics(cfg.Metrics.Addr, log)
		defer shutdown()
		opts = append(opts, simulation.WithMetrics(registry))
	}

	sim, err := simulation.New(simCfg, newSource(cfg.Source.Kind), opts...)
	if err != nil {
		return err
	}

	report, err := sim.Run(ctx)
	if err != nil {
		return err
	}
	for _, werr := range report.WorkerErrors {
		log.Warn("worker ended with error", "worker", werr.Worker, "error", werr.Err)
	}
	return nil
}

func newSource(kind string) sequence.Source[string] {
	if kind == config.SourceTimestamp {
		return sequence.NewTimestampSource(eventlog.SystemClock())
	}
	return sequence.NewGenerator()
}

func newRedisSink(ctx context.Context, cfg config.RedisConfig) (*redis.Client, *eventlog.RedisSink, error) {
	encoding, err := eventlog.ParseEncoding(cfg.Encoding)
	if err != nil {
		return nil, nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:                  cfg.Addr,
		Password:              cfg.Password,
		DB:                    cfg.DB,
		ContextTimeoutEnabled: true,
	})

	pingCtx, cancel := gfcontext.WithTimeoutOrCancel(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		detail := cfg.Addr
		if gfcontext.IsTimedOut(pingCtx) {
			detail += " (no reply within " + redisPingTimeout.String() + ")"
		}
		return nil, nil, gferrors.NewOperationError("redis", "Ping", err).WithContext(detail)
	}

	sink, err := eventlog.NewRedisSink(client, cfg.Channel, encoding)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return client, sink, nil
}

// serveMetrics exposes a private registry on addr/metrics. The returned
// func stops the server.
func serveMetrics(addr string, log *logging.Logger) (*metrics.Registry, func()) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()

	return metrics.NewRegistry(reg), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
