package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, e *Exporter) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestExporter_ObserveIngest(t *testing.T) {
	e := NewExporter(DefaultConfig())

	e.ObserveIngest("success", 3, 120*time.Millisecond)
	e.ObserveIngest("upstream_error", 2, 50*time.Millisecond)

	out := scrape(t, e)
	assert.Contains(t, out, `lineage_ingest_calls_total{outcome="success"} 1`)
	assert.Contains(t, out, `lineage_ingest_chunks_total{outcome="success"} 3`)
	assert.Contains(t, out, `lineage_ingest_chunks_total{outcome="upstream_error"} 2`)
	assert.Contains(t, out, `lineage_ingest_duration_seconds_count{outcome="success"} 1`)
}

func TestExporter_ObserveResolution(t *testing.T) {
	e := NewExporter(DefaultConfig())

	e.ObserveResolution(2, 1, time.Second)
	e.ObserveResolution(0, 0, time.Millisecond)

	out := scrape(t, e)
	assert.Contains(t, out, "lineage_resolve_calls_total 2")
	assert.Contains(t, out, `lineage_resolve_faces_total{resolved="true"} 2`)
	assert.Contains(t, out, `lineage_resolve_faces_total{resolved="false"} 1`)
	assert.Contains(t, out, "lineage_resolve_duration_seconds_count 2")
}

func TestExporter_ObserveUpstreamError(t *testing.T) {
	e := NewExporter(Config{})

	e.ObserveUpstreamError("query")
	e.ObserveUpstreamError("query")
	e.ObserveUpstreamError("")

	out := scrape(t, e)
	assert.Contains(t, out, `lineage_upstream_errors_total{op="query"} 2`)
	assert.Contains(t, out, `lineage_upstream_errors_total{op="unknown"} 1`)
}

func TestExporter_OwnRegistryPerInstance(t *testing.T) {
	// Two exporters must not collide on registration.
	a := NewExporter(DefaultConfig())
	b := NewExporter(DefaultConfig())

	assert.NotSame(t, a.Registry(), b.Registry())
}
