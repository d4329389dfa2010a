package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/moveout-labs/moveout-backend/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
	"go.opentelemetry.io/otel/sdk/resource"
)

type AppMetrics struct {
	activityRecordCounter        metric.Int64Counter
	lifecycleTransitionCounter   metric.Int64Counter
	accountDeletionCounter       metric.Int64Counter
	deletionCascadeRows          metric.Float64Histogram
	sweepRunCounter              metric.Int64Counter
	sweepRunDuration             metric.Float64Histogram
	sweepAccountsExamined        metric.Float64Histogram
	sweepDeactivationCounter     metric.Int64Counter
	sweepWarningCounter          metric.Int64Counter
	notificationCounter          metric.Int64Counter
	authLoginCounter             metric.Int64Counter
	authRefreshCounter           metric.Int64Counter
	authLogoutCounter            metric.Int64Counter
	accessTokenValidationCounter metric.Int64Counter
	rateLimitDecisionCounter     metric.Int64Counter
	rateLimitRetryAfter          metric.Float64Histogram
	adminListReqDuration         metric.Float64Histogram
	adminListPageSize            metric.Float64Histogram
	boxOperationCounter          metric.Int64Counter
	storageOperationCounter      metric.Int64Counter
	storageObjectsRemoved        metric.Float64Histogram
	healthCheckResultCounter     metric.Int64Counter
	healthCheckDuration          metric.Float64Histogram
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "lifecycle.sweep.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("moveout-backend")
	m := &AppMetrics{}
	for _, instr := range []struct {
		dest *metric.Int64Counter
		name string
		desc string
	}{
		{&m.activityRecordCounter, "activity.records", "Activity heartbeat writes"},
		{&m.lifecycleTransitionCounter, "lifecycle.transitions", "Account activation state changes"},
		{&m.accountDeletionCounter, "lifecycle.deletions", "Full account deletions"},
		{&m.sweepRunCounter, "lifecycle.sweep.runs", "Inactivity sweep run outcomes"},
		{&m.sweepDeactivationCounter, "lifecycle.sweep.deactivations", "Accounts deactivated by the sweeper"},
		{&m.sweepWarningCounter, "lifecycle.sweep.warnings", "Inactivity warnings queued by the sweeper"},
		{&m.notificationCounter, "notify.messages", "Lifecycle notification delivery attempts"},
		{&m.authLoginCounter, "auth.login.attempts", "Login attempts"},
		{&m.authRefreshCounter, "auth.refresh.attempts", "Token refresh attempts"},
		{&m.authLogoutCounter, "auth.logout.attempts", "Logout attempts"},
		{&m.accessTokenValidationCounter, "auth.access_token.validation.events", "Access token validation outcomes"},
		{&m.rateLimitDecisionCounter, "http.rate_limit.decisions", "Rate limiter allow and deny decisions"},
		{&m.boxOperationCounter, "box.operation.events", "Box and content CRUD outcomes"},
		{&m.storageOperationCounter, "storage.operations", "Object storage operation outcomes"},
		{&m.healthCheckResultCounter, "health.check.results", "Health dependency check outcomes"},
	} {
		c, err := meter.Int64Counter(instr.name, metric.WithDescription(instr.desc))
		if err != nil {
			return nil, err
		}
		*instr.dest = c
	}
	for _, instr := range []struct {
		dest *metric.Float64Histogram
		name string
		unit string
		desc string
	}{
		{&m.deletionCascadeRows, "lifecycle.deletion.cascade_rows", "1", "Rows removed per account deletion cascade step"},
		{&m.sweepRunDuration, "lifecycle.sweep.duration", "s", "Wall time of one inactivity sweep run"},
		{&m.sweepAccountsExamined, "lifecycle.sweep.examined", "1", "Active accounts examined per sweep run"},
		{&m.rateLimitRetryAfter, "http.rate_limit.retry_after", "s", "Retry-after duration for throttled requests"},
		{&m.adminListReqDuration, "admin.list.request.duration", "s", "Duration of admin list endpoint requests"},
		{&m.adminListPageSize, "admin.list.page_size", "1", "Requested page size for admin list endpoints"},
		{&m.storageObjectsRemoved, "storage.objects_removed", "1", "Objects removed per storage purge"},
		{&m.healthCheckDuration, "health.check.duration", "s", "Duration of health dependency checks"},
	} {
		h, err := meter.Float64Histogram(instr.name, metric.WithUnit(instr.unit), metric.WithDescription(instr.desc))
		if err != nil {
			return nil, err
		}
		*instr.dest = h
	}

	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordActivity(ctx context.Context, status string) {
	if m := current(); m != nil {
		m.activityRecordCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

// RecordLifecycleTransition counts an activation state change. Action is
// "deactivate" or "reactivate"; trigger is "manual" or "sweep".
func RecordLifecycleTransition(ctx context.Context, action, trigger, status string) {
	if m := current(); m != nil {
		m.lifecycleTransitionCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("trigger", trigger),
			attribute.String("status", status),
		))
	}
}

func RecordAccountDeletion(ctx context.Context, status string) {
	if m := current(); m != nil {
		m.accountDeletionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordDeletionCascadeRows(ctx context.Context, step string, rows int64) {
	if m := current(); m != nil {
		m.deletionCascadeRows.Record(ctx, float64(rows), metric.WithAttributes(attribute.String("step", step)))
	}
}

// RecordSweepRun counts one sweep run. Outcome is "completed", "skipped"
// (lease held elsewhere) or "failed".
func RecordSweepRun(ctx context.Context, outcome string) {
	if m := current(); m != nil {
		m.sweepRunCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordSweepDuration(ctx context.Context, d time.Duration) {
	if m := current(); m != nil {
		m.sweepRunDuration.Record(ctx, d.Seconds())
	}
}

func RecordSweepExamined(ctx context.Context, count int) {
	if m := current(); m != nil {
		m.sweepAccountsExamined.Record(ctx, float64(count))
	}
}

func RecordSweepDeactivations(ctx context.Context, count int64) {
	if m := current(); m != nil && count > 0 {
		m.sweepDeactivationCounter.Add(ctx, count)
	}
}

func RecordSweepWarnings(ctx context.Context, count int64) {
	if m := current(); m != nil && count > 0 {
		m.sweepWarningCounter.Add(ctx, count)
	}
}

func RecordNotification(ctx context.Context, kind, status string) {
	if m := current(); m != nil {
		m.notificationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("status", status),
		))
	}
}

func RecordAuthLogin(ctx context.Context, status string) {
	if m := current(); m != nil {
		m.authLoginCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordAuthRefresh(ctx context.Context, status string) {
	if m := current(); m != nil {
		m.authRefreshCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordAuthLogout(ctx context.Context, status string) {
	if m := current(); m != nil {
		m.authLogoutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordAccessTokenValidation(ctx context.Context, outcome string) {
	if m := current(); m != nil {
		m.accessTokenValidationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome, mode string) {
	if m := current(); m != nil {
		m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("scope", scope),
			attribute.String("outcome", outcome),
			attribute.String("mode", mode),
		))
	}
}

func RecordRateLimitRetryAfter(ctx context.Context, scope string, retryAfter time.Duration) {
	if m := current(); m != nil {
		m.rateLimitRetryAfter.Record(ctx, retryAfter.Seconds(), metric.WithAttributes(attribute.String("scope", scope)))
	}
}

func RecordAdminListRequestDuration(ctx context.Context, endpoint, status string, d time.Duration) {
	if m := current(); m != nil {
		m.adminListReqDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("status", status),
		))
	}
}

func RecordAdminListPageSize(ctx context.Context, endpoint string, pageSize int) {
	if m := current(); m != nil {
		m.adminListPageSize.Record(ctx, float64(pageSize), metric.WithAttributes(attribute.String("endpoint", endpoint)))
	}
}

func RecordBoxOperation(ctx context.Context, op, status string) {
	if m := current(); m != nil {
		m.boxOperationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", status),
		))
	}
}

func RecordStorageOperation(ctx context.Context, op, status string) {
	if m := current(); m != nil {
		m.storageOperationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", status),
		))
	}
}

func RecordStorageObjectsRemoved(ctx context.Context, count int64) {
	if m := current(); m != nil {
		m.storageObjectsRemoved.Record(ctx, float64(count))
	}
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	if m := current(); m != nil {
		m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("check", check),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordHealthCheckDuration(ctx context.Context, check string, d time.Duration) {
	if m := current(); m != nil {
		m.healthCheckDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("check", check)))
	}
}
