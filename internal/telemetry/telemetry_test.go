package telemetry

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, r sdkmetric.Reader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, r.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecordRequestAndSearch(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	m, err := newMetrics(ctx, "v1.2.3", sdkmetric.WithReader(reader))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(ctx) })

	m.RecordRequest(ctx, "GET /api/sessions", http.StatusOK, 20*time.Millisecond)
	m.RecordRequest(ctx, "GET /api/sessions", http.StatusOK, 10*time.Millisecond)
	m.RecordSearch(ctx, "sessions", 3)

	got := collect(t, reader)

	requests, ok := got["subtle_http_requests_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, requests.DataPoints, 1)
	assert.Equal(t, int64(2), requests.DataPoints[0].Value)

	latency, ok := got["subtle_http_request_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, latency.DataPoints, 1)
	assert.Equal(t, uint64(2), latency.DataPoints[0].Count)

	searches, ok := got["subtle_searches_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, searches.DataPoints, 1)
	assert.Equal(t, int64(1), searches.DataPoints[0].Value)
}

func TestNewWithoutEndpoint(t *testing.T) {
	m, err := New(context.Background(), Config{Version: "dev"})
	require.NoError(t, err)
	m.RecordRequest(context.Background(), "GET /", 200, time.Millisecond)
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordRequest(ctx, "x", 200, time.Second)
	m.RecordSearch(ctx, "messages", 0)
	assert.NoError(t, m.Shutdown(ctx))
}
