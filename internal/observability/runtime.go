package observability

import (
	"context"
	"errors"
	"log/slog"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tamojuntogames/accounts-api/internal/config"
)

// Runtime bundles the telemetry providers so main can shut them down
// in one call after the HTTP server has drained.
type Runtime struct {
	LoggerProvider *sdklog.LoggerProvider
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
	Logger         *slog.Logger
}

func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	bootstrap := NewBootstrapLogger(cfg)

	lp, err := InitLogs(ctx, cfg, bootstrap)
	if err != nil {
		return nil, err
	}
	logger := InitLogger(cfg, lp)

	mp, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		if lp != nil {
			shutdownProvider(ctx, lp, logger, "logs")
		}
		return nil, err
	}

	tp, err := InitTracing(ctx, cfg, logger)
	if err != nil {
		if mp != nil {
			shutdownProvider(ctx, mp, logger, "metrics")
		}
		if lp != nil {
			shutdownProvider(ctx, lp, logger, "logs")
		}
		return nil, err
	}

	return &Runtime{
		LoggerProvider: lp,
		MeterProvider:  mp,
		TracerProvider: tp,
		Logger:         logger,
	}, nil
}

func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.TracerProvider != nil {
		if err := r.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.MeterProvider != nil {
		if err := r.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.LoggerProvider != nil {
		if err := r.LoggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func shutdownProvider(ctx context.Context, p shutdowner, logger *slog.Logger, name string) {
	if p == nil {
		return
	}
	if err := p.Shutdown(ctx); err != nil {
		logger.Warn("provider shutdown failed", "provider", name, "error", err)
	}
}
