package models

import (
	"fmt"
	"strings"
	"time"
)

// EventType classifies a healthcare event. The set is closed: events carrying
// an unknown type are rejected at validation.
type EventType string

const (
	EventPatientVisit EventType = "patient_visit"
	EventLabResult    EventType = "lab_result"
	EventPrescription EventType = "prescription"
	EventVitals       EventType = "vitals"
	EventDiagnosis    EventType = "diagnosis"
	EventProcedure    EventType = "procedure"
	EventDischarge    EventType = "discharge"
	EventAdmission    EventType = "admission"
)

// EventTypes lists every valid event type.
var EventTypes = []EventType{
	EventPatientVisit,
	EventLabResult,
	EventPrescription,
	EventVitals,
	EventDiagnosis,
	EventProcedure,
	EventDischarge,
	EventAdmission,
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// EventSource identifies the origin system of an event.
type EventSource string

const (
	SourceEHREpic     EventSource = "ehr_epic"
	SourceEHRCerner   EventSource = "ehr_cerner"
	SourceLabSystem   EventSource = "lab_system"
	SourceIOTDevice   EventSource = "iot_device"
	SourceManualEntry EventSource = "manual_entry"
)

// EventMetadata carries source attribution for an event.
type EventMetadata struct {
	Source        EventSource `json:"source"`
	Version       string      `json:"version"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	RetryCount    int         `json:"retry_count"`
}

// RawEvent is a healthcare event as submitted for ingestion. PatientID and
// the sensitive payload fields hold plaintext PHI at this stage; a RawEvent
// only lives for the duration of one ingestion call.
type RawEvent struct {
	EventID    string         `json:"event_id"`
	EventType  EventType      `json:"event_type"`
	Timestamp  time.Time      `json:"timestamp"`
	ProviderID string         `json:"provider_id"`
	PatientID  string         `json:"patient_id"`
	FacilityID string         `json:"facility_id,omitempty"`
	Department string         `json:"department,omitempty"`
	Payload    map[string]any `json:"payload"`
	Metadata   EventMetadata  `json:"metadata"`
}

// ValidationError reports malformed or missing required input. It is raised
// before any side effect so rejected events never reach the encryption layer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// Validate checks required identifier fields and the event type.
// Identifiers must be non-empty after trimming whitespace.
func (e *RawEvent) Validate() error {
	if strings.TrimSpace(e.ProviderID) == "" {
		return &ValidationError{Field: "provider_id", Reason: "cannot be empty"}
	}
	if strings.TrimSpace(e.PatientID) == "" {
		return &ValidationError{Field: "patient_id", Reason: "cannot be empty"}
	}
	if !e.EventType.Valid() {
		return &ValidationError{Field: "event_type", Reason: fmt.Sprintf("unknown event type %q", e.EventType)}
	}
	return nil
}

// StreamRecord is a RawEvent after processing: PatientID and the sensitive
// payload fields are encrypted, and the record carries its integrity checksum
// and partition key. Immutable once produced; ownership passes to the stream
// on publish.
type StreamRecord struct {
	RawEvent
	ProcessedAt     time.Time `json:"processed_at"`
	EncryptionKeyID string    `json:"encryption_key_id"`
	Checksum        string    `json:"checksum"`
	PartitionKey    string    `json:"partition_key"`
}

// EventResponse is returned to ingestion callers.
type EventResponse struct {
	EventID   string    `json:"event_id"`
	Status    string    `json:"status"` // accepted, rejected
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// BatchEventRequest wraps a batch ingestion request.
type BatchEventRequest struct {
	Events []RawEvent `json:"events"`
}

// MaxBatchEvents caps the number of events accepted per batch request.
const MaxBatchEvents = 500
