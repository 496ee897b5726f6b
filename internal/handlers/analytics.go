package handlers

import (
	"errors"
	"net/http"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/analytics"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/logging"
)

// AnalyticsHandler serves the analytics read API.
type AnalyticsHandler struct {
	service *analytics.Service
	logger  *logging.Logger
}

// NewAnalyticsHandler builds the analytics handler.
func NewAnalyticsHandler(s *analytics.Service, logger *logging.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: s, logger: logger}
}

// RealtimeMetrics returns current platform metrics.
func (h *AnalyticsHandler) RealtimeMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetRealtimeMetrics(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "realtime metrics failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "analytics query failed")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// PatientAnalytics returns a de-identified summary for one patient.
func (h *AnalyticsHandler) PatientAnalytics(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	timeRange := r.URL.Query().Get("time_range")

	a, err := h.service.GetPatientAnalytics(r.Context(), patientID, timeRange)
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidTimeRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "patient analytics failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "analytics query failed")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "no events found for patient")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ProviderAnalytics returns a summary for one provider.
func (h *AnalyticsHandler) ProviderAnalytics(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	timeRange := r.URL.Query().Get("time_range")

	a, err := h.service.GetProviderAnalytics(r.Context(), providerID, timeRange)
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidTimeRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "provider analytics failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "analytics query failed")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "no events found for provider")
		return
	}
	writeJSON(w, http.StatusOK, a)
}
