package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/timetables/:id", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/timetables/drafts", http.StatusCreated, 40*time.Millisecond)
	m.ObserveGeneration("partial", 100*time.Millisecond, 12, 2)
	m.SetActiveDrafts(3)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(2), snapshot.RequestsTotal)
	assert.InDelta(t, 30, snapshot.AverageRequestDurationMs, 0.01)
	assert.Equal(t, uint64(1), snapshot.GenerationsTotal)
	assert.InDelta(t, 100, snapshot.AverageGenerationMs, 0.01)
	assert.Equal(t, int64(3), snapshot.ActiveDrafts)
	assert.InDelta(t, 1.0/3.0, snapshot.CacheHitRatio, 0.001)

	assert.Equal(t, float64(12), testutil.ToFloat64(m.lessonsPlaced))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.shortfalls))
}

func TestMetricsServiceCountersByLabel(t *testing.T) {
	m := NewMetricsService()
	m.RecordRejection("add", "TEACHER_BUSY")
	m.RecordRejection("add", "TEACHER_BUSY")
	m.RecordRejection("move", "ROOM_OCCUPIED")
	m.RecordEdit("extend")
	m.RecordJob(models.GenerationJobFailed)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.rejections.WithLabelValues("add", "TEACHER_BUSY")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rejections.WithLabelValues("move", "ROOM_OCCUPIED")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.edits.WithLabelValues("extend")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.jobs.WithLabelValues(string(models.GenerationJobFailed))))
}

func TestMetricsServiceHandlerAndNilReceiver(t *testing.T) {
	m := NewMetricsService()
	m.RecordEdit("move")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "timetable_edits_total")

	var nilMetrics *MetricsService
	assert.NotPanics(t, func() {
		nilMetrics.RecordRejection("add", "CLASS_BUSY")
		nilMetrics.SetActiveDrafts(1)
	})
	assert.Equal(t, models.SystemMetrics{}, nilMetrics.Snapshot())

	w = httptest.NewRecorder()
	nilMetrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
