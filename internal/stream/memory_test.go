package stream

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTransport_PutAndList(t *testing.T) {
	transport := NewMemoryTransport(4)
	ctx := context.Background()

	res, err := transport.PutRecord(ctx, "events", "PROV-001:vitals", []byte("a"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.ShardID)
	assert.Equal(t, "1", res.SequenceNumber)

	shards, err := transport.ListShards(ctx, "events")
	require.NoError(t, err)
	assert.Len(t, shards, 4)
	assert.Contains(t, shards, res.ShardID)
}

func TestMemoryTransport_SamePartitionKeySameShard(t *testing.T) {
	transport := NewMemoryTransport(8)
	ctx := context.Background()

	first, err := transport.PutRecord(ctx, "events", "PROV-001:vitals", []byte("a"))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		res, err := transport.PutRecord(ctx, "events", "PROV-001:vitals", []byte("b"))
		require.NoError(t, err)
		assert.Equal(t, first.ShardID, res.ShardID)
	}
}

func TestMemoryTransport_SequencesMonotonicPerShard(t *testing.T) {
	transport := NewMemoryTransport(1)
	ctx := context.Background()

	var prev string
	for i := 0; i < 12; i++ {
		res, err := transport.PutRecord(ctx, "events", "pk", []byte("x"))
		require.NoError(t, err)
		if prev != "" {
			assert.True(t, SequenceLess(prev, res.SequenceNumber),
				"sequence %s should precede %s", prev, res.SequenceNumber)
		}
		prev = res.SequenceNumber
	}
}

func TestMemoryTransport_ReadBack(t *testing.T) {
	transport := NewMemoryTransport(1)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := transport.PutRecord(ctx, "events", "pk", []byte(fmt.Sprintf("rec-%d", i)))
		require.NoError(t, err)
	}

	iter, err := transport.GetShardIterator(ctx, "events", "shardId-000000000000", AfterSequence("0"))
	require.NoError(t, err)

	out, err := transport.GetRecords(ctx, iter, 10)
	require.NoError(t, err)
	require.Len(t, out.Records, 3)
	assert.Equal(t, []byte("rec-0"), out.Records[0].Data)
	assert.Equal(t, []byte("rec-2"), out.Records[2].Data)
	assert.NotEmpty(t, out.NextIterator)
}

func TestMemoryTransport_BatchLimit(t *testing.T) {
	transport := NewMemoryTransport(1)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := transport.PutRecord(ctx, "events", "pk", []byte("x"))
		require.NoError(t, err)
	}

	iter, err := transport.GetShardIterator(ctx, "events", "shardId-000000000000", AfterSequence("0"))
	require.NoError(t, err)

	out, err := transport.GetRecords(ctx, iter, 2)
	require.NoError(t, err)
	assert.Len(t, out.Records, 2)

	out, err = transport.GetRecords(ctx, out.NextIterator, 2)
	require.NoError(t, err)
	assert.Len(t, out.Records, 2)

	out, err = transport.GetRecords(ctx, out.NextIterator, 2)
	require.NoError(t, err)
	assert.Len(t, out.Records, 1)
}

func TestMemoryTransport_LatestSkipsHistory(t *testing.T) {
	transport := NewMemoryTransport(1)
	ctx := context.Background()

	_, err := transport.PutRecord(ctx, "events", "pk", []byte("old"))
	require.NoError(t, err)

	iter, err := transport.GetShardIterator(ctx, "events", "shardId-000000000000", Latest())
	require.NoError(t, err)

	out, err := transport.GetRecords(ctx, iter, 10)
	require.NoError(t, err)
	assert.Empty(t, out.Records)

	_, err = transport.PutRecord(ctx, "events", "pk", []byte("new"))
	require.NoError(t, err)

	out, err = transport.GetRecords(ctx, out.NextIterator, 10)
	require.NoError(t, err)
	require.Len(t, out.Records, 1)
	assert.Equal(t, []byte("new"), out.Records[0].Data)
}

func TestMemoryTransport_AfterSequenceResumes(t *testing.T) {
	transport := NewMemoryTransport(1)
	ctx := context.Background()

	var seqs []string
	for i := 0; i < 4; i++ {
		res, err := transport.PutRecord(ctx, "events", "pk", []byte(fmt.Sprintf("rec-%d", i)))
		require.NoError(t, err)
		seqs = append(seqs, res.SequenceNumber)
	}

	iter, err := transport.GetShardIterator(ctx, "events", "shardId-000000000000", AfterSequence(seqs[1]))
	require.NoError(t, err)

	out, err := transport.GetRecords(ctx, iter, 10)
	require.NoError(t, err)
	require.Len(t, out.Records, 2)
	assert.Equal(t, []byte("rec-2"), out.Records[0].Data)
}

func TestMemoryTransport_ConsumedIteratorInvalid(t *testing.T) {
	transport := NewMemoryTransport(1)
	ctx := context.Background()

	iter, err := transport.GetShardIterator(ctx, "events", "shardId-000000000000", Latest())
	require.NoError(t, err)

	_, err = transport.GetRecords(ctx, iter, 10)
	require.NoError(t, err)

	// Position tokens are single use.
	_, err = transport.GetRecords(ctx, iter, 10)
	assert.ErrorIs(t, err, ErrExpiredIterator)
}

func TestMemoryTransport_ExpireIterators(t *testing.T) {
	transport := NewMemoryTransport(1)
	ctx := context.Background()

	iter, err := transport.GetShardIterator(ctx, "events", "shardId-000000000000", Latest())
	require.NoError(t, err)

	transport.ExpireIterators()

	_, err = transport.GetRecords(ctx, iter, 10)
	assert.ErrorIs(t, err, ErrExpiredIterator)
}

func TestMemoryTransport_UnknownShard(t *testing.T) {
	transport := NewMemoryTransport(1)

	_, err := transport.GetShardIterator(context.Background(), "events", "shardId-999", Latest())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMemoryTransport_PutRecords(t *testing.T) {
	transport := NewMemoryTransport(2)
	ctx := context.Background()

	entries := []PutEntry{
		{PartitionKey: "a", Data: []byte("1")},
		{PartitionKey: "b", Data: []byte("2")},
		{PartitionKey: "c", Data: []byte("3")},
	}

	result, err := transport.PutRecords(ctx, "events", entries)
	require.NoError(t, err)
	assert.Zero(t, result.FailedCount)
	require.Len(t, result.Entries, 3)
	for _, e := range result.Entries {
		assert.Empty(t, e.ErrorCode)
		assert.NotEmpty(t, e.SequenceNumber)
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(ErrThrottled))
	assert.True(t, Retryable(fmt.Errorf("wrapped: %w", ErrThrottled)))
	assert.False(t, Retryable(ErrUnavailable))
	assert.False(t, Retryable(ErrExpiredIterator))
	assert.False(t, Retryable(nil))
}

func TestSequenceLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1", "2", true},
		{"2", "1", false},
		{"9", "10", true},
		{"10", "9", false},
		{"100", "100", false},
		{"99", "100", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s<%s", tt.a, tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, SequenceLess(tt.a, tt.b))
		})
	}
}

func TestHealth(t *testing.T) {
	transport := NewMemoryTransport(2)
	assert.NoError(t, Health(context.Background(), transport, "events"))
}
