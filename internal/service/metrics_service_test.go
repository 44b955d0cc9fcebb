package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/courses", http.StatusOK, 10*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/courses", http.StatusOK, 30*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.PaymentRecorded("upi")
	m.ReportGenerated("enrollment", "csv")

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 20.0, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 0.0001)
	assert.Equal(t, uint64(1), snap.PaymentsRecorded)
	assert.Equal(t, uint64(1), snap.ReportsGenerated)
	assert.Positive(t, snap.Goroutines)
}

func TestMetricsServiceExposition(t *testing.T) {
	m := NewMetricsService()
	depth := 3
	m.TrackQueueDepth("report-exports", func() int { return depth })
	m.LoginAttempt("admin", false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `institute_queue_depth{queue="report-exports"} 3`)
	assert.Contains(t, body, `institute_session_logins_total{result="failure",scope="admin"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsServiceNilReceiver(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.TrackQueueDepth("q", func() int { return 0 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, m.Snapshot().GeneratedAt.IsZero())
}
