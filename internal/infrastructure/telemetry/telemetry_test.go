package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/mrops-br/cart-api/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func testConfig(level string) *config.OTLPConfig {
	return &config.OTLPConfig{
		ServiceName: "cart-api",
		Environment: "test",
		LogLevel:    level,
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	return line
}

func TestNewLogger_AddsServiceAndRequestContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, testConfig("info"))

	ctx := WithHTTPRoute(context.Background(), "/cart/items")
	ctx = WithRequestID(ctx, "host/abc-000001")
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "Product added to cart", slog.Int("product_id", 8))

	line := decodeLine(t, &buf)
	assert.Equal(t, "Product added to cart", line["msg"])
	assert.Equal(t, "cart-api", line["service.name"])
	assert.Equal(t, "test", line["environment"])
	assert.Equal(t, "/cart/items", line["http.route"])
	assert.Equal(t, "host/abc-000001", line["request_id"])
	assert.Equal(t, "01000000000000000000000000000000", line["trace_id"])
	assert.Equal(t, "0200000000000000", line["span_id"])
	assert.EqualValues(t, 8, line["product_id"])
}

func TestNewLogger_WithoutContext(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, testConfig("info")).Info("Starting Cart API")

	line := decodeLine(t, &buf)
	assert.NotContains(t, line, "trace_id")
	assert.NotContains(t, line, "http.route")
	assert.NotContains(t, line, "request_id")
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, testConfig("warn"))

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Equal(t, "WARN", decodeLine(t, &buf)["level"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("INFO"))
	assert.Equal(t, slog.LevelDebug, parseLevel(""))
	assert.Equal(t, slog.LevelDebug, parseLevel("verbose"))
}

func TestNewNoOpTelemetry_ServesPrometheus(t *testing.T) {
	telem, err := NewNoOpTelemetry(testConfig("error"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = telem.Shutdown(context.Background()) })

	counter, err := telem.MeterProvider.Meter("test").Int64Counter("cart.operations")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	rec := httptest.NewRecorder()
	telem.MetricsHandler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "go_goroutines")
	assert.Contains(t, string(body), "cart_operations")
}
