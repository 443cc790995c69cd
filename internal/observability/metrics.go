package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/tamojuntogames/accounts-api/internal/config"
)

type AppMetrics struct {
	authLoginCounter         metric.Int64Counter
	authRequestDuration      metric.Float64Histogram
	tokenValidationCounter   metric.Int64Counter
	userOperationCounter     metric.Int64Counter
	userOperationDuration    metric.Float64Histogram
	middlewareEventCounter   metric.Int64Counter
	rateLimitDecisionCounter metric.Int64Counter
	rateLimitRetryAfter      metric.Float64Histogram
	abuseGuardEventCounter   metric.Int64Counter
	abuseGuardCooldown       metric.Float64Histogram
	healthCheckCounter       metric.Int64Counter
	healthCheckDuration      metric.Float64Histogram
	dbStartupEventCounter    metric.Int64Counter
	dbStartupDuration        metric.Float64Histogram
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		logger.Info("otel metrics disabled")
		return nil, nil
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
		return nil, fmt.Errorf("create metrics resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))),
	)
	otel.SetMeterProvider(mp)

	if err := registerAppMetrics(mp); err != nil {
		return nil, err
	}
	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func registerAppMetrics(mp *sdkmetric.MeterProvider) error {
	meter := mp.Meter("accounts-api")
	m := &AppMetrics{}
	var err error

	if m.authLoginCounter, err = meter.Int64Counter("auth_login_total",
		metric.WithDescription("Login attempts by outcome")); err != nil {
		return fmt.Errorf("create auth_login_total: %w", err)
	}
	if m.authRequestDuration, err = meter.Float64Histogram("auth_request_duration_seconds",
		metric.WithDescription("Auth endpoint latency"),
		metric.WithUnit("s")); err != nil {
		return fmt.Errorf("create auth_request_duration_seconds: %w", err)
	}
	if m.tokenValidationCounter, err = meter.Int64Counter("auth_token_validation_total",
		metric.WithDescription("Access token validations by outcome")); err != nil {
		return fmt.Errorf("create auth_token_validation_total: %w", err)
	}
	if m.userOperationCounter, err = meter.Int64Counter("user_operation_total",
		metric.WithDescription("User account operations by outcome")); err != nil {
		return fmt.Errorf("create user_operation_total: %w", err)
	}
	if m.userOperationDuration, err = meter.Float64Histogram("user_operation_duration_seconds",
		metric.WithDescription("User account operation latency"),
		metric.WithUnit("s")); err != nil {
		return fmt.Errorf("create user_operation_duration_seconds: %w", err)
	}
	if m.middlewareEventCounter, err = meter.Int64Counter("middleware_validation_event_total",
		metric.WithDescription("Middleware validation events by middleware and outcome")); err != nil {
		return fmt.Errorf("create middleware_validation_event_total: %w", err)
	}
	if m.rateLimitDecisionCounter, err = meter.Int64Counter("rate_limit_decision_total",
		metric.WithDescription("Rate limiter decisions by scope and outcome")); err != nil {
		return fmt.Errorf("create rate_limit_decision_total: %w", err)
	}
	if m.rateLimitRetryAfter, err = meter.Float64Histogram("rate_limit_retry_after_seconds",
		metric.WithDescription("Retry-After values handed to throttled clients"),
		metric.WithUnit("s")); err != nil {
		return fmt.Errorf("create rate_limit_retry_after_seconds: %w", err)
	}
	if m.abuseGuardEventCounter, err = meter.Int64Counter("auth_abuse_guard_event_total",
		metric.WithDescription("Abuse guard decisions by action and outcome")); err != nil {
		return fmt.Errorf("create auth_abuse_guard_event_total: %w", err)
	}
	if m.abuseGuardCooldown, err = meter.Float64Histogram("auth_abuse_guard_cooldown_seconds",
		metric.WithDescription("Cooldown applied to throttled login attempts"),
		metric.WithUnit("s")); err != nil {
		return fmt.Errorf("create auth_abuse_guard_cooldown_seconds: %w", err)
	}
	if m.healthCheckCounter, err = meter.Int64Counter("health_check_total",
		metric.WithDescription("Readiness probe results by dependency")); err != nil {
		return fmt.Errorf("create health_check_total: %w", err)
	}
	if m.healthCheckDuration, err = meter.Float64Histogram("health_check_duration_seconds",
		metric.WithDescription("Readiness probe latency by dependency"),
		metric.WithUnit("s")); err != nil {
		return fmt.Errorf("create health_check_duration_seconds: %w", err)
	}
	if m.dbStartupEventCounter, err = meter.Int64Counter("database_startup_event_total",
		metric.WithDescription("Database startup steps by phase and outcome")); err != nil {
		return fmt.Errorf("create database_startup_event_total: %w", err)
	}
	if m.dbStartupDuration, err = meter.Float64Histogram("database_startup_duration_seconds",
		metric.WithDescription("Database startup step latency by phase"),
		metric.WithUnit("s")); err != nil {
		return fmt.Errorf("create database_startup_duration_seconds: %w", err)
	}

	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
	return nil
}

func getAppMetrics() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordAuthLogin(ctx context.Context, outcome string) {
	m := getAppMetrics()
	if m == nil {
		return
	}
	m.authLoginCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, duration time.Duration) {
	m := getAppMetrics()
	if m == nil {
		return
	}
	m.authRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
	))
}

func RecordTokenValidation(ctx context.Context, outcome string) {
	m := getAppMetrics()
	if m == nil {
		return
	}
	m.tokenValidationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordUserOperation(ctx context.Context, op, outcome string, duration time.Duration) {
	m := getAppMetrics()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	)
	m.userOperationCounter.Add(ctx, 1, attrs)
	m.userOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

func RecordMiddlewareValidationEvent(ctx context.Context, middleware, outcome string) {
	m := getAppMetrics()
	if m == nil {
		return
	}
	m.middlewareEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("middleware", middleware),
		attribute.String("outcome", outcome),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome string) {
	m := getAppMetrics()
	if m == nil {
		return
	}
	m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
	))
}

func RecordRateLimitRetryAfter(ctx context.Context, scope string, retryAfter time.Duration) {
	m := getAppMetrics()
	if m == nil {
		return
	}
	m.rateLimitRetryAfter.Record(ctx, retryAfter.Seconds(),
		metric.WithAttributes(attribute.String("scope", scope)))
}

func RecordAuthAbuseGuardEvent(ctx context.Context, action, outcome string) {
	m := getAppMetrics()
	if m == nil {
		return
	}
	m.abuseGuardEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func RecordAuthAbuseCooldown(ctx context.Context, action string, cooldown time.Duration) {
	m := getAppMetrics()
	if m == nil {
		return
	}
	m.abuseGuardCooldown.Record(ctx, cooldown.Seconds(),
		metric.WithAttributes(attribute.String("action", action)))
}

func RecordDatabaseStartupEvent(ctx context.Context, phase, outcome string) {
	m := getAppMetrics()
	if m == nil {
		return
	}
	m.dbStartupEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.String("outcome", outcome),
	))
}

func RecordDatabaseStartupDuration(ctx context.Context, phase string, duration time.Duration) {
	m := getAppMetrics()
	if m == nil {
		return
	}
	m.dbStartupDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("phase", phase)))
}

func RecordHealthCheckResult(ctx context.Context, dependency string, healthy bool) {
	m := getAppMetrics()
	if m == nil {
		return
	}
	outcome := "healthy"
	if !healthy {
		outcome = "unhealthy"
	}
	m.healthCheckCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dependency", dependency),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckDuration(ctx context.Context, dependency string, duration time.Duration) {
	m := getAppMetrics()
	if m == nil {
		return
	}
	m.healthCheckDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("dependency", dependency)))
}
