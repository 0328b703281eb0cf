// Package observability provides structured logging, OTel metrics backed by
// a Prometheus scrape endpoint, and the diagnostics HTTP server.
package observability

import "log/slog"

// Config controls logging and metrics initialization.
type Config struct {
	// ServiceName identifies the process in log records and metric resources.
	ServiceName string

	// ServiceVersion is attached to log records when non-empty.
	ServiceVersion string

	// LogLevel is the minimum level emitted.
	LogLevel slog.Level

	// LogJSON selects JSON log output; the default is human-readable text.
	LogJSON bool

	// MetricsEnabled starts the diagnostics server with a /metrics endpoint.
	MetricsEnabled bool

	// MetricsAddr is the diagnostics server listen address.
	MetricsAddr string
}

// LevelFromString maps a config-file level name to a slog level. Unknown
// names map to info.
func LevelFromString(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
