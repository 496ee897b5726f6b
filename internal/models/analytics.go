package models

import "time"

// RealtimeMetrics summarizes current platform throughput and health.
type RealtimeMetrics struct {
	EventsPerMinute   int64   `json:"events_per_minute"`
	EventsPerHour     int64   `json:"events_per_hour"`
	ActiveProviders   int64   `json:"active_providers"`
	ActivePatients    int64   `json:"active_patients"`
	CurrentThroughput float64 `json:"current_throughput"`
	ErrorRate         float64 `json:"error_rate"`
	AvgLatencyMS      float64 `json:"avg_latency_ms"`
	P99LatencyMS      float64 `json:"p99_latency_ms"`
}

// EventDistribution counts events per type.
type EventDistribution struct {
	PatientVisit int64 `json:"patient_visit"`
	LabResult    int64 `json:"lab_result"`
	Prescription int64 `json:"prescription"`
	Vitals       int64 `json:"vitals"`
	Diagnosis    int64 `json:"diagnosis"`
	Procedure    int64 `json:"procedure"`
	Discharge    int64 `json:"discharge"`
	Admission    int64 `json:"admission"`
}

// PatientAnalytics is a de-identified per-patient summary: patients are
// only ever referenced by the hash of their identifier.
type PatientAnalytics struct {
	PatientIDHash     string            `json:"patient_id_hash"`
	TotalEvents       int64             `json:"total_events"`
	EventDistribution EventDistribution `json:"event_distribution"`
	FirstEvent        time.Time         `json:"first_event"`
	LastEvent         time.Time         `json:"last_event"`
	ProvidersCount    int64             `json:"providers_count"`
	FacilitiesCount   int64             `json:"facilities_count"`
	TimeRange         string            `json:"time_range"`
}

// ProviderAnalytics summarizes a provider's activity.
type ProviderAnalytics struct {
	ProviderID        string            `json:"provider_id"`
	TotalEvents       int64             `json:"total_events"`
	UniquePatients    int64             `json:"unique_patients"`
	EventDistribution EventDistribution `json:"event_distribution"`
	FirstEvent        time.Time         `json:"first_event"`
	LastEvent         time.Time         `json:"last_event"`
	TimeRange         string            `json:"time_range"`
}
