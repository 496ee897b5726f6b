// Package stream defines the transport contract for the partitioned,
// ordered append-only stream and its failure taxonomy. Implementations:
// Kinesis (production) and an in-process transport (development, tests).
package stream

import (
	"context"
	"errors"
)

// Sentinel transport errors. Implementations wrap their native failures so
// callers can classify with errors.Is.
var (
	// ErrThrottled signals a transient throughput/rate-limit failure.
	ErrThrottled = errors.New("stream: throughput exceeded")

	// ErrExpiredIterator signals that a position token is no longer valid
	// and must be reacquired.
	ErrExpiredIterator = errors.New("stream: iterator expired")

	// ErrUnavailable signals any other transport failure.
	ErrUnavailable = errors.New("stream: unavailable")
)

// Retryable classifies a transport failure for the producer's retry loop.
// Only throttling is worth retrying with backoff; everything else is
// terminal for a single publish.
func Retryable(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// Record is a stored stream record as returned by GetRecords.
type Record struct {
	PartitionKey   string
	SequenceNumber string
	Data           []byte
}

// PutResult reports where a record landed.
type PutResult struct {
	ShardID        string
	SequenceNumber string
}

// PutEntry is one record of a batch put.
type PutEntry struct {
	PartitionKey string
	Data         []byte
}

// BatchEntryResult is the per-record outcome of a batch put. ErrorCode is
// empty for records that were accepted.
type BatchEntryResult struct {
	ShardID        string
	SequenceNumber string
	ErrorCode      string
	ErrorMessage   string
}

// BatchResult is the outcome of a batch put.
type BatchResult struct {
	FailedCount int
	Entries     []BatchEntryResult
}

// GetOutput is the outcome of a GetRecords call. An empty NextIterator
// means the shard reached a terminal boundary.
type GetOutput struct {
	Records      []Record
	NextIterator string
}

// Position selects where a shard iterator starts.
type Position struct {
	afterSequence string
	latest        bool
}

// Latest positions at the newest record; history is not replayed.
func Latest() Position {
	return Position{latest: true}
}

// AfterSequence positions immediately after the given sequence marker.
func AfterSequence(seq string) Position {
	return Position{afterSequence: seq}
}

// AfterSequenceNumber returns the sequence marker the position resumes
// after, and whether one is set.
func (p Position) AfterSequenceNumber() (string, bool) {
	return p.afterSequence, !p.latest && p.afterSequence != ""
}

// Transport is the stream collaborator contract.
type Transport interface {
	// PutRecord writes one record, partitioned by partitionKey.
	PutRecord(ctx context.Context, streamName, partitionKey string, data []byte) (PutResult, error)

	// PutRecords writes a batch in one call. Individual records may fail
	// while the call succeeds; per-record outcomes are in the result.
	PutRecords(ctx context.Context, streamName string, entries []PutEntry) (BatchResult, error)

	// ListShards enumerates the shard IDs of a stream.
	ListShards(ctx context.Context, streamName string) ([]string, error)

	// GetShardIterator obtains a position token for a shard.
	GetShardIterator(ctx context.Context, streamName, shardID string, pos Position) (string, error)

	// GetRecords pulls up to limit records at the iterator's position.
	GetRecords(ctx context.Context, iterator string, limit int) (GetOutput, error)
}

// Health verifies that the stream is reachable and has at least one shard.
func Health(ctx context.Context, t Transport, streamName string) error {
	shards, err := t.ListShards(ctx, streamName)
	if err != nil {
		return err
	}
	if len(shards) == 0 {
		return errors.New("stream has no shards")
	}
	return nil
}
