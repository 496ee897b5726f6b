package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/auth"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/handlers"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/middleware"
)

// NewRouter constructs a ServeMux with the platform's API routes
// registered. Ingestion requires the write scope, read paths the read
// scope. Analytics routes are registered only when the handler is
// configured.
func NewRouter(
	events *handlers.EventHandler,
	analytics *handlers.AnalyticsHandler,
	health *handlers.HealthHandler,
	verifier *auth.Verifier,
) http.Handler {
	mux := http.NewServeMux()

	write := verifier.Middleware("write")
	read := verifier.Middleware("read")

	// Event ingestion
	mux.Handle("POST /events/ingest", write(http.HandlerFunc(events.Ingest)))
	mux.Handle("POST /events/ingest/batch", write(http.HandlerFunc(events.IngestBatch)))
	mux.Handle("GET /events/status/{id}", read(http.HandlerFunc(events.Status)))

	// Analytics
	if analytics != nil {
		mux.Handle("GET /analytics/metrics/realtime", read(http.HandlerFunc(analytics.RealtimeMetrics)))
		mux.Handle("GET /analytics/patients/{id}", read(http.HandlerFunc(analytics.PatientAnalytics)))
		mux.Handle("GET /analytics/providers/{id}", read(http.HandlerFunc(analytics.ProviderAnalytics)))
	}

	// Health endpoints
	mux.HandleFunc("/healthz", health.Health)
	mux.HandleFunc("/readyz", health.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
