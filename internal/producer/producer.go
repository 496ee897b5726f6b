// Package producer publishes stream records with bounded retry and
// dead-letter fallback. A record reaches the dead-letter stream if and only
// if it did not reach the primary stream; nothing is silently dropped.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/logging"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/metrics"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/models"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/stream"
)

// Outcome reports how a publish resolved.
type Outcome int

const (
	OutcomePublished Outcome = iota
	OutcomeDeadLettered
)

func (o Outcome) String() string {
	if o == OutcomePublished {
		return "published"
	}
	return "dead_lettered"
}

// PublishResult is the outcome of a single publish. ShardID and
// SequenceNumber are set only when the record reached the primary stream.
type PublishResult struct {
	Outcome        Outcome
	ShardID        string
	SequenceNumber string
}

// BatchSummary reports the outcome of a batch publish.
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Config holds producer tuning.
type Config struct {
	StreamName    string
	DLQStreamName string
	MaxAttempts   int           // attempts against the primary stream
	BaseDelay     time.Duration // backoff base; delay = BaseDelay * 2^attempt
}

// Producer publishes records to the primary stream.
type Producer struct {
	transport stream.Transport
	cfg       Config
	logger    *logging.Logger
}

// New builds a producer. Zero MaxAttempts defaults to 3 and zero BaseDelay
// to 100ms.
func New(t stream.Transport, cfg Config, logger *logging.Logger) *Producer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	return &Producer{transport: t, cfg: cfg, logger: logger}
}

// Publish writes one record to the primary stream, retrying throttled
// failures with exponential backoff up to MaxAttempts. After exhausting
// retries, or on the first non-retryable failure, the record is diverted to
// the dead-letter stream and the call resolves OutcomeDeadLettered rather
// than returning an error: callers must treat that as "not delivered to the
// primary stream" but recoverable from the dead-letter stream.
func (p *Producer) Publish(ctx context.Context, record *models.StreamRecord) (PublishResult, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return PublishResult{}, fmt.Errorf("marshal record: %w", err)
	}

	for attempt := 0; attempt < p.cfg.MaxAttempts; attempt++ {
		metrics.PublishAttempts.Inc()
		res, err := p.transport.PutRecord(ctx, p.cfg.StreamName, record.PartitionKey, data)
		if err == nil {
			metrics.EventsPublished.Inc()
			p.logger.InfoContext(ctx, "event published",
				logging.EventID(record.EventID),
				logging.ShardID(res.ShardID),
				logging.Sequence(res.SequenceNumber),
			)
			return PublishResult{
				Outcome:        OutcomePublished,
				ShardID:        res.ShardID,
				SequenceNumber: res.SequenceNumber,
			}, nil
		}

		if !stream.Retryable(err) {
			p.logger.WarnContext(ctx, "publish failed",
				logging.EventID(record.EventID),
				logging.Attempt(attempt+1),
				logging.Error(err),
			)
			break
		}

		metrics.PublishRetries.Inc()
		p.logger.WarnContext(ctx, "publish throttled",
			logging.EventID(record.EventID),
			logging.Attempt(attempt+1),
		)

		delay := p.cfg.BaseDelay * time.Duration(1<<attempt)
		if !sleep(ctx, delay) {
			break
		}
	}

	p.deadLetter(ctx, record.EventID, record.PartitionKey, data)
	return PublishResult{Outcome: OutcomeDeadLettered}, nil
}

// PublishBatch submits all records in one stream-level batch call. Records
// the stream individually rejects are routed to the dead-letter stream; if
// the whole call fails, every record is dead-lettered. There is no retry at
// the batch level: the single-record path already owns backoff.
func (p *Producer) PublishBatch(ctx context.Context, records []*models.StreamRecord) (BatchSummary, error) {
	summary := BatchSummary{Total: len(records)}
	if len(records) == 0 {
		return summary, nil
	}

	entries := make([]stream.PutEntry, len(records))
	payloads := make([][]byte, len(records))
	for i, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return summary, fmt.Errorf("marshal record %s: %w", record.EventID, err)
		}
		entries[i] = stream.PutEntry{PartitionKey: record.PartitionKey, Data: data}
		payloads[i] = data
	}

	result, err := p.transport.PutRecords(ctx, p.cfg.StreamName, entries)
	if err != nil {
		p.logger.ErrorContext(ctx, "batch publish failed", logging.Error(err))
		for i, record := range records {
			p.deadLetter(ctx, record.EventID, record.PartitionKey, payloads[i])
		}
		summary.Failed = len(records)
		return summary, nil
	}

	for i, entry := range result.Entries {
		if entry.ErrorCode != "" {
			summary.Failed++
			p.deadLetter(ctx, records[i].EventID, records[i].PartitionKey, payloads[i])
			continue
		}
		metrics.EventsPublished.Inc()
	}
	summary.Succeeded = summary.Total - summary.Failed

	p.logger.InfoContext(ctx, "batch published",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)
	return summary, nil
}

// deadLetter writes a record to the dead-letter stream with its original
// partition key. Best effort: a failure is logged, not retried.
func (p *Producer) deadLetter(ctx context.Context, eventID, partitionKey string, data []byte) {
	metrics.EventsDeadLettered.Inc()

	_, err := p.transport.PutRecord(ctx, p.cfg.DLQStreamName, partitionKey, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "dead-letter write failed",
			logging.EventID(eventID),
			logging.Stream(p.cfg.DLQStreamName),
			logging.Error(err),
		)
		return
	}

	p.logger.WarnContext(ctx, "event dead-lettered",
		logging.EventID(eventID),
		logging.Stream(p.cfg.DLQStreamName),
	)
}

// sleep waits for d or until ctx is cancelled. Returns false on
// cancellation. The wait is local to one publish call and never blocks
// unrelated publishes.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
