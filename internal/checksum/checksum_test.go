package checksum

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/models"
)

func testEvent() *models.RawEvent {
	return &models.RawEvent{
		EventID:    "evt-001",
		EventType:  models.EventLabResult,
		Timestamp:  time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
		ProviderID: "PROV-001",
		PatientID:  "PAT-12345",
		FacilityID: "FAC-01",
		Payload: map[string]any{
			"test_name": "CBC",
			"result":    "normal",
			"mrn":       "MRN-555",
		},
		Metadata: models.EventMetadata{
			Source:  models.SourceLabSystem,
			Version: "1.0",
		},
	}
}

func TestCompute_Deterministic(t *testing.T) {
	event := testEvent()

	first, err := Compute(event)
	require.NoError(t, err)
	second, err := Compute(event)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // hex SHA-256
}

func TestCompute_TimezoneNormalized(t *testing.T) {
	utc := testEvent()

	est, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	shifted := testEvent()
	shifted.Timestamp = utc.Timestamp.In(est)

	sumUTC, err := Compute(utc)
	require.NoError(t, err)
	sumShifted, err := Compute(shifted)
	require.NoError(t, err)

	assert.Equal(t, sumUTC, sumShifted, "same instant in different zones must hash identically")
}

func TestCompute_ChangesWithContent(t *testing.T) {
	base := testEvent()
	baseSum, err := Compute(base)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(e *models.RawEvent)
	}{
		{"payload value", func(e *models.RawEvent) { e.Payload["result"] = "abnormal" }},
		{"payload key added", func(e *models.RawEvent) { e.Payload["unit"] = "mg/dL" }},
		{"event id", func(e *models.RawEvent) { e.EventID = "evt-002" }},
		{"patient id", func(e *models.RawEvent) { e.PatientID = "PAT-99999" }},
		{"timestamp", func(e *models.RawEvent) { e.Timestamp = e.Timestamp.Add(time.Second) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := testEvent()
			tt.mutate(changed)

			sum, err := Compute(changed)
			require.NoError(t, err)
			assert.NotEqual(t, baseSum, sum)
		})
	}
}

func TestCompute_DoesNotMutateEvent(t *testing.T) {
	est, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	event := testEvent()
	event.Timestamp = event.Timestamp.In(est)
	before := event.Timestamp

	_, err = Compute(event)
	require.NoError(t, err)
	assert.True(t, before.Equal(event.Timestamp))
	assert.Equal(t, before.Location(), event.Timestamp.Location())
}

func TestPartitionKey(t *testing.T) {
	event := testEvent()
	assert.Equal(t, "PROV-001:lab_result", PartitionKey(event))
}

func TestPartitionKey_SharedAcrossEvents(t *testing.T) {
	first := testEvent()
	second := testEvent()
	second.EventID = "evt-002"
	second.PatientID = "PAT-67890"

	// Same provider and type always land on the same shard lineage even
	// though the records themselves differ.
	assert.Equal(t, PartitionKey(first), PartitionKey(second))

	sumFirst, err := Compute(first)
	require.NoError(t, err)
	sumSecond, err := Compute(second)
	require.NoError(t, err)
	assert.NotEqual(t, sumFirst, sumSecond)
}
