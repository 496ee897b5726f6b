package stream

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
)

// MemoryTransport is an in-process Transport used for development mode and
// tests. It partitions records across a fixed number of shards by hashing
// the partition key, assigns monotonic per-shard sequence numbers, and
// hands out expirable position tokens.
type MemoryTransport struct {
	mu         sync.Mutex
	shardCount int
	streams    map[string][]*memShard
	iterators  map[string]*memIterator
	nextIter   int64
}

type memShard struct {
	id      string
	records []Record
	nextSeq int64
}

type memIterator struct {
	streamName string
	shardIdx   int
	offset     int
	expired    bool
}

// NewMemoryTransport returns a transport with the given number of shards
// per stream. Streams are created on first use.
func NewMemoryTransport(shardCount int) *MemoryTransport {
	if shardCount <= 0 {
		shardCount = 1
	}
	return &MemoryTransport{
		shardCount: shardCount,
		streams:    make(map[string][]*memShard),
		iterators:  make(map[string]*memIterator),
	}
}

func (t *MemoryTransport) stream(name string) []*memShard {
	shards, ok := t.streams[name]
	if !ok {
		shards = make([]*memShard, t.shardCount)
		for i := range shards {
			shards[i] = &memShard{
				id:      fmt.Sprintf("shardId-%012d", i),
				nextSeq: 1,
			}
		}
		t.streams[name] = shards
	}
	return shards
}

func (t *MemoryTransport) shardFor(shards []*memShard, partitionKey string) int {
	h := fnv.New32a()
	h.Write([]byte(partitionKey))
	return int(h.Sum32()) % len(shards)
}

func (t *MemoryTransport) put(streamName, partitionKey string, data []byte) PutResult {
	shards := t.stream(streamName)
	shard := shards[t.shardFor(shards, partitionKey)]

	seq := strconv.FormatInt(shard.nextSeq, 10)
	shard.nextSeq++

	stored := make([]byte, len(data))
	copy(stored, data)
	shard.records = append(shard.records, Record{
		PartitionKey:   partitionKey,
		SequenceNumber: seq,
		Data:           stored,
	})

	return PutResult{ShardID: shard.id, SequenceNumber: seq}
}

func (t *MemoryTransport) PutRecord(ctx context.Context, streamName, partitionKey string, data []byte) (PutResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.put(streamName, partitionKey, data), nil
}

func (t *MemoryTransport) PutRecords(ctx context.Context, streamName string, entries []PutEntry) (BatchResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := BatchResult{Entries: make([]BatchEntryResult, len(entries))}
	for i, e := range entries {
		put := t.put(streamName, e.PartitionKey, e.Data)
		result.Entries[i] = BatchEntryResult{
			ShardID:        put.ShardID,
			SequenceNumber: put.SequenceNumber,
		}
	}
	return result, nil
}

func (t *MemoryTransport) ListShards(ctx context.Context, streamName string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	shards := t.stream(streamName)
	ids := make([]string, len(shards))
	for i, s := range shards {
		ids[i] = s.id
	}
	return ids, nil
}

func (t *MemoryTransport) GetShardIterator(ctx context.Context, streamName, shardID string, pos Position) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	shards := t.stream(streamName)
	idx := -1
	for i, s := range shards {
		if s.id == shardID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("%w: unknown shard %s", ErrUnavailable, shardID)
	}

	offset := len(shards[idx].records)
	if seq, ok := pos.AfterSequenceNumber(); ok {
		offset = 0
		for i, r := range shards[idx].records {
			if !sequenceLess(seq, r.SequenceNumber) {
				offset = i + 1
			}
		}
	}

	return t.issueIterator(streamName, idx, offset), nil
}

func (t *MemoryTransport) issueIterator(streamName string, shardIdx, offset int) string {
	t.nextIter++
	token := fmt.Sprintf("iter-%d", t.nextIter)
	t.iterators[token] = &memIterator{
		streamName: streamName,
		shardIdx:   shardIdx,
		offset:     offset,
	}
	return token
}

func (t *MemoryTransport) GetRecords(ctx context.Context, iterator string, limit int) (GetOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	it, ok := t.iterators[iterator]
	if !ok || it.expired {
		return GetOutput{}, fmt.Errorf("%w: %s", ErrExpiredIterator, iterator)
	}

	shard := t.streams[it.streamName][it.shardIdx]
	end := it.offset + limit
	if end > len(shard.records) {
		end = len(shard.records)
	}

	var records []Record
	if it.offset < end {
		records = append(records, shard.records[it.offset:end]...)
	}

	next := t.issueIterator(it.streamName, it.shardIdx, end)
	delete(t.iterators, iterator)

	return GetOutput{Records: records, NextIterator: next}, nil
}

// ExpireIterators invalidates every outstanding position token. The next
// GetRecords call with any of them fails with ErrExpiredIterator.
func (t *MemoryTransport) ExpireIterators() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, it := range t.iterators {
		it.expired = true
	}
}

// sequenceLess orders decimal sequence markers: shorter strings are smaller,
// equal lengths compare lexicographically.
func sequenceLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// SequenceLess reports whether sequence marker a precedes b within a shard.
func SequenceLess(a, b string) bool {
	return sequenceLess(a, b)
}
