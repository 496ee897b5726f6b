package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() RawEvent {
	return RawEvent{
		EventID:    "evt-001",
		EventType:  EventPatientVisit,
		ProviderID: "PROV-001",
		PatientID:  "PAT-12345",
		Payload:    map[string]any{"reason": "checkup"},
	}
}

func TestRawEvent_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(e *RawEvent)
		wantField string
	}{
		{
			name:   "valid event",
			mutate: func(e *RawEvent) {},
		},
		{
			name:      "empty provider id",
			mutate:    func(e *RawEvent) { e.ProviderID = "" },
			wantField: "provider_id",
		},
		{
			name:      "whitespace provider id",
			mutate:    func(e *RawEvent) { e.ProviderID = "   " },
			wantField: "provider_id",
		},
		{
			name:      "empty patient id",
			mutate:    func(e *RawEvent) { e.PatientID = "" },
			wantField: "patient_id",
		},
		{
			name:      "whitespace patient id",
			mutate:    func(e *RawEvent) { e.PatientID = "\t\n" },
			wantField: "patient_id",
		},
		{
			name:      "unknown event type",
			mutate:    func(e *RawEvent) { e.EventType = "surgery_booking" },
			wantField: "event_type",
		},
		{
			name:      "empty event type",
			mutate:    func(e *RawEvent) { e.EventType = "" },
			wantField: "event_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := validEvent()
			tt.mutate(&event)

			err := event.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestEventType_Valid(t *testing.T) {
	for _, et := range EventTypes {
		assert.True(t, et.Valid(), "expected %s to be valid", et)
	}
	assert.False(t, EventType("unknown").Valid())
	assert.False(t, EventType("").Valid())
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "provider_id", Reason: "cannot be empty"}
	assert.Equal(t, "validation failed for provider_id: cannot be empty", err.Error())
}
