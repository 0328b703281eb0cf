package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Sumatoshi-tech/repostats/pkg/observability"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any

	err := json.Unmarshal(buf.Bytes(), &record)
	require.NoError(t, err)

	return record
}

func TestTracingHandlerServiceAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := observability.NewTracingHandler(
		slog.NewJSONHandler(&buf, nil), "repostats", "1.2.3",
	)
	logger := slog.New(handler)

	logger.Info("hello")

	record := logLine(t, &buf)
	assert.Equal(t, "repostats", record["service"])
	assert.Equal(t, "1.2.3", record["version"])
	assert.Equal(t, "hello", record["msg"])
}

func TestTracingHandlerOmitsEmptyVersion(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(observability.NewTracingHandler(
		slog.NewJSONHandler(&buf, nil), "repostats", "",
	))

	logger.Info("hello")

	record := logLine(t, &buf)
	assert.NotContains(t, record, "version")
}

func TestTracingHandlerInjectsTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(observability.NewTracingHandler(
		slog.NewJSONHandler(&buf, nil), "repostats", "",
	))

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.InfoContext(ctx, "traced")
	span.End()

	record := logLine(t, &buf)
	assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), record["span_id"])
}

func TestTracingHandlerNoSpan(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(observability.NewTracingHandler(
		slog.NewJSONHandler(&buf, nil), "repostats", "",
	))

	logger.Info("untraced")

	record := logLine(t, &buf)
	assert.NotContains(t, record, "trace_id")
	assert.NotContains(t, record, "span_id")
}

func TestTracingHandlerWithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(observability.NewTracingHandler(
		slog.NewJSONHandler(&buf, nil), "repostats", "",
	))

	logger.WithGroup("req").Info("grouped", "id", 7)

	record := logLine(t, &buf)
	assert.Equal(t, "repostats", record["service"])

	group, ok := record["req"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 7.0, group["id"], 1e-9)
}

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, observability.LevelFromString("debug"))
	assert.Equal(t, slog.LevelInfo, observability.LevelFromString("info"))
	assert.Equal(t, slog.LevelWarn, observability.LevelFromString("warn"))
	assert.Equal(t, slog.LevelError, observability.LevelFromString("error"))
	assert.Equal(t, slog.LevelInfo, observability.LevelFromString("bogus"))
}
