// Package pipeline transforms a raw healthcare event into a stream-ready
// record: PHI redaction, integrity checksum, partition assignment, and a
// best-effort ingestion status write.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/checksum"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/logging"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/metrics"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/models"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/phi"
)

// StatusTTL bounds how long per-event ingestion status is kept.
const StatusTTL = time.Hour

// StatusStore persists per-event processing status for the read path.
type StatusStore interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// EventStatus is the status entry recorded after processing.
type EventStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Pipeline orchestrates processing of one raw event.
type Pipeline struct {
	redactor *phi.Redactor
	status   StatusStore
	logger   *logging.Logger
}

// New builds a pipeline. status may be nil, in which case no status entries
// are recorded and the status read path always misses.
func New(redactor *phi.Redactor, status StatusStore, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		redactor: redactor,
		status:   status,
		logger:   logger,
	}
}

// Process validates, redacts, and enriches a raw event into a StreamRecord.
// Validation failures are rejected before any encryption work. Redaction
// failures abort processing of this one event. The status write is
// fire-and-forget: its failure is logged, never returned.
func (p *Pipeline) Process(ctx context.Context, event *models.RawEvent) (*models.StreamRecord, error) {
	start := time.Now()

	if err := event.Validate(); err != nil {
		return nil, err
	}

	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	// Checksum covers the original, pre-redaction event so it stays
	// comparable across key rotations.
	sum, err := checksum.Compute(event)
	if err != nil {
		return nil, err
	}

	encryptedPatientID, err := p.redactor.RedactPatientID(event.PatientID)
	if err != nil {
		metrics.EncryptionErrors.Inc()
		return nil, err
	}

	redactedPayload, err := p.redactor.RedactPayload(event.Payload)
	if err != nil {
		metrics.EncryptionErrors.Inc()
		return nil, err
	}

	record := &models.StreamRecord{
		RawEvent:        *event,
		ProcessedAt:     time.Now().UTC(),
		EncryptionKeyID: p.redactor.KeyID(),
		Checksum:        sum,
		PartitionKey:    checksum.PartitionKey(event),
	}
	record.PatientID = encryptedPatientID
	record.Payload = redactedPayload

	p.recordStatus(ctx, event.EventID)

	metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	p.logger.DebugContext(ctx, "event processed",
		logging.EventID(event.EventID),
		logging.PartitionKey(record.PartitionKey),
	)

	return record, nil
}

func (p *Pipeline) recordStatus(ctx context.Context, eventID string) {
	if p.status == nil {
		return
	}
	status := EventStatus{Status: "processed", Timestamp: time.Now().UTC()}
	if err := p.status.Set(ctx, statusKey(eventID), status, StatusTTL); err != nil {
		p.logger.WarnContext(ctx, "status write failed",
			logging.EventID(eventID),
			logging.Error(err),
		)
	}
}

// Status returns the recorded processing status of an event, if any.
func (p *Pipeline) Status(ctx context.Context, eventID string) (*EventStatus, bool, error) {
	if p.status == nil {
		return nil, false, nil
	}
	var status EventStatus
	found, err := p.status.Get(ctx, statusKey(eventID), &status)
	if err != nil || !found {
		return nil, false, err
	}
	return &status, true, nil
}

func statusKey(eventID string) string {
	return "event:" + eventID + ":status"
}
