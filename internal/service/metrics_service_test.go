package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-content-api/internal/hierarchy"
)

func TestMetricsServiceHierarchyBuilds(t *testing.T) {
	m := NewMetricsService()
	diags := hierarchy.Diagnostics{
		{Kind: hierarchy.DiagCycle, EntityID: "a"},
		{Kind: hierarchy.DiagCycle, EntityID: "b"},
		{Kind: hierarchy.DiagOrphan, EntityID: "lost"},
	}

	m.ObserveHierarchyBuild("level", 3*time.Millisecond, 12, diags)
	m.ObserveHierarchyBuild("collection", time.Millisecond, 4, nil)
	m.RecordInvalidation(nil)
	m.RecordInvalidation(errors.New("redis down"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.diagnostics.WithLabelValues("cycle")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.diagnostics.WithLabelValues("orphan")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.invalidations.WithLabelValues("error")))

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(2), snapshot.HierarchyBuilds)
	assert.Equal(t, uint64(2), snapshot.Invalidations)
	assert.Equal(t, map[string]uint64{"cycle": 2, "orphan": 1}, snapshot.Diagnostics)
}

func TestMetricsServiceHandler(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/hierarchy", http.StatusOK, 5*time.Millisecond)
	m.ObserveHierarchyBuild("level", time.Millisecond, 3, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), "hierarchy_build_duration_seconds")

	var nilMetrics *MetricsService
	rec = httptest.NewRecorder()
	nilMetrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, uint64(0), nilMetrics.Snapshot().RequestsTotal)
}
