package observability

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var redisInstrumentationOnce sync.Once

// InstrumentRedisClient wires command and pool observability into the Redis
// client used for rate limiting and the sweep lease. Installed once per
// process regardless of how many times it is called.
func InstrumentRedisClient(client redis.UniversalClient, logger *slog.Logger) {
	if client == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	redisInstrumentationOnce.Do(func() {
		hook, err := newRedisMetricsHook(client)
		if err != nil {
			logger.Warn("redis instrumentation disabled", "error", err)
			return
		}
		client.AddHook(hook)
		logger.Info("redis instrumentation enabled")
	})
}

type redisMetricsHook struct {
	cmdTotal   metric.Int64Counter
	cmdErrors  metric.Int64Counter
	cmdLatency metric.Float64Histogram
}

func newRedisMetricsHook(client redis.UniversalClient) (*redisMetricsHook, error) {
	meter := otel.Meter("moveout-backend")

	cmdTotal, err := meter.Int64Counter(
		"redis.command.total",
		metric.WithDescription("Redis commands executed"),
	)
	if err != nil {
		return nil, err
	}
	cmdErrors, err := meter.Int64Counter(
		"redis.command.errors",
		metric.WithDescription("Redis command errors"),
	)
	if err != nil {
		return nil, err
	}
	cmdLatency, err := meter.Float64Histogram(
		"redis.command.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Redis command latency in seconds"),
	)
	if err != nil {
		return nil, err
	}
	poolSaturation, err := meter.Float64ObservableGauge(
		"redis.pool.saturation",
		metric.WithUnit("1"),
		metric.WithDescription("Redis pool saturation ratio (used_conns / total_conns)"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, observer metric.Observer) error {
		stats := client.PoolStats()
		if stats != nil && stats.TotalConns > 0 {
			used := stats.TotalConns - stats.IdleConns
			observer.ObserveFloat64(poolSaturation, float64(used)/float64(stats.TotalConns))
		}
		return nil
	}, poolSaturation)
	if err != nil {
		return nil, err
	}

	return &redisMetricsHook{cmdTotal: cmdTotal, cmdErrors: cmdErrors, cmdLatency: cmdLatency}, nil
}

func (h *redisMetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *redisMetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(ctx, cmd.Name(), err, time.Since(start))
		return err
	}
}

func (h *redisMetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		duration := time.Since(start)
		h.cmdLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("command", "pipeline"),
			attribute.String("status", redisCommandStatus(err)),
		))
		for _, cmd := range cmds {
			h.observe(ctx, cmd.Name(), cmd.Err(), 0)
		}
		return err
	}
}

func (h *redisMetricsHook) observe(ctx context.Context, name string, err error, duration time.Duration) {
	command := strings.ToLower(name)
	status := redisCommandStatus(err)

	h.cmdTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
	))
	if err != nil && err != redis.Nil {
		h.cmdErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("command", command)))
	}
	if duration > 0 {
		h.cmdLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("status", status),
		))
	}
}

func redisCommandStatus(err error) string {
	switch err {
	case nil:
		return "success"
	case redis.Nil:
		return "miss"
	default:
		return "error"
	}
}
