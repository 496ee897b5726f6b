package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/analytics"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/models"
)

type stubStats struct {
	realtime *models.RealtimeMetrics
	patient  *models.PatientAnalytics
	provider *models.ProviderAnalytics
}

func (s *stubStats) RealtimeMetrics(ctx context.Context) (*models.RealtimeMetrics, error) {
	return s.realtime, nil
}

func (s *stubStats) PatientStats(ctx context.Context, patientIDHash string, since time.Time) (*models.PatientAnalytics, error) {
	return s.patient, nil
}

func (s *stubStats) ProviderStats(ctx context.Context, providerID string, since time.Time) (*models.ProviderAnalytics, error) {
	return s.provider, nil
}

func newAnalyticsHandler(stats *stubStats) *AnalyticsHandler {
	svc := analytics.NewService(stats, nil, testLogger())
	return NewAnalyticsHandler(svc, testLogger())
}

func TestRealtimeMetricsHandler(t *testing.T) {
	h := newAnalyticsHandler(&stubStats{realtime: &models.RealtimeMetrics{EventsPerMinute: 42}})

	req := httptest.NewRequest(http.MethodGet, "/analytics/metrics/realtime", nil)
	rec := httptest.NewRecorder()
	h.RealtimeMetrics(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"events_per_minute":42`)
}

func TestPatientAnalyticsHandler(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		h := newAnalyticsHandler(&stubStats{patient: &models.PatientAnalytics{TotalEvents: 3}})

		req := httptest.NewRequest(http.MethodGet, "/analytics/patients/PAT-1?time_range=7d", nil)
		req.SetPathValue("id", "PAT-1")
		rec := httptest.NewRecorder()
		h.PatientAnalytics(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total_events":3`)
	})

	t.Run("no events", func(t *testing.T) {
		h := newAnalyticsHandler(&stubStats{patient: &models.PatientAnalytics{}})

		req := httptest.NewRequest(http.MethodGet, "/analytics/patients/PAT-1", nil)
		req.SetPathValue("id", "PAT-1")
		rec := httptest.NewRecorder()
		h.PatientAnalytics(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid time range", func(t *testing.T) {
		h := newAnalyticsHandler(&stubStats{patient: &models.PatientAnalytics{TotalEvents: 3}})

		req := httptest.NewRequest(http.MethodGet, "/analytics/patients/PAT-1?time_range=90d", nil)
		req.SetPathValue("id", "PAT-1")
		rec := httptest.NewRecorder()
		h.PatientAnalytics(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProviderAnalyticsHandler(t *testing.T) {
	h := newAnalyticsHandler(&stubStats{provider: &models.ProviderAnalytics{TotalEvents: 9}})

	req := httptest.NewRequest(http.MethodGet, "/analytics/providers/PROV-001", nil)
	req.SetPathValue("id", "PROV-001")
	rec := httptest.NewRecorder()
	h.ProviderAnalytics(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_events":9`)
}
