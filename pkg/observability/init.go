package observability

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

const meterName = "repostats"

// Providers holds the initialized observability providers.
type Providers struct {
	// Meter is the named meter for creating instruments.
	Meter metric.Meter

	// Logger is the context-aware structured logger.
	Logger *slog.Logger

	// Diagnostics is the running diagnostics server, or nil when metrics
	// are disabled.
	Diagnostics *DiagnosticsServer

	// Shutdown flushes pending telemetry and stops the diagnostics server.
	// Must be called before process exit.
	Shutdown func(ctx context.Context) error
}

// Init initializes structured logging and, when enabled, the Prometheus
// metrics pipeline with its diagnostics server. With metrics disabled a
// no-op meter is returned and no server is started.
func Init(cfg Config) (Providers, error) {
	logger := buildLogger(cfg)

	if !cfg.MetricsEnabled {
		return Providers{
			Meter:    noopmetric.NewMeterProvider().Meter(meterName),
			Logger:   logger,
			Shutdown: func(_ context.Context) error { return nil },
		}, nil
	}

	provider, metricsHandler, err := newPrometheusProvider()
	if err != nil {
		return Providers{}, err
	}

	diagnostics, err := NewDiagnosticsServer(cfg.MetricsAddr, metricsHandler, logger)
	if err != nil {
		shutdownErr := provider.Shutdown(context.Background())

		return Providers{}, errors.Join(err, shutdownErr)
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(diagnostics.Close(), provider.Shutdown(ctx))
	}

	return Providers{
		Meter:       provider.Meter(meterName),
		Logger:      logger,
		Diagnostics: diagnostics,
		Shutdown:    shutdown,
	}, nil
}

// buildLogger constructs the service logger writing to stderr.
func buildLogger(cfg Config) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		inner = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	return slog.New(NewTracingHandler(inner, cfg.ServiceName, cfg.ServiceVersion))
}
