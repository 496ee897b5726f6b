package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/stream"
)

// CheckpointStore persists, per shard, the last successfully consumed
// sequence marker. Set must be monotonic: an update that would move a
// shard's position backward is ignored, guarding against a stale retried
// write racing a newer one.
type CheckpointStore interface {
	Get(ctx context.Context, shardID string) (string, error)
	Set(ctx context.Context, shardID, sequence string) error
}

// setCheckpointScript applies a checkpoint only if it advances the shard's
// position. Sequence markers are decimal strings, so a longer string is a
// larger number; equal lengths compare lexicographically.
var setCheckpointScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
	if #cur > #ARGV[1] or (#cur == #ARGV[1] and cur >= ARGV[1]) then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

// RedisCheckpointStore keeps checkpoints in Redis, keyed by stream and
// shard, with no expiry: they live for the lifetime of the consumer group.
type RedisCheckpointStore struct {
	client     *redis.Client
	streamName string
}

// NewRedisCheckpointStore builds a store for the given stream.
func NewRedisCheckpointStore(client *redis.Client, streamName string) *RedisCheckpointStore {
	return &RedisCheckpointStore{client: client, streamName: streamName}
}

func (s *RedisCheckpointStore) key(shardID string) string {
	return fmt.Sprintf("checkpoint:%s:%s", s.streamName, shardID)
}

// Get returns the shard's checkpoint, or "" when none exists.
func (s *RedisCheckpointStore) Get(ctx context.Context, shardID string) (string, error) {
	seq, err := s.client.Get(ctx, s.key(shardID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get checkpoint %s: %w", shardID, err)
	}
	return seq, nil
}

// Set advances the shard's checkpoint. Stale sequences are ignored.
func (s *RedisCheckpointStore) Set(ctx context.Context, shardID, sequence string) error {
	err := setCheckpointScript.Run(ctx, s.client, []string{s.key(shardID)}, sequence).Err()
	if err != nil {
		return fmt.Errorf("set checkpoint %s: %w", shardID, err)
	}
	return nil
}

// MemoryCheckpointStore is an in-process CheckpointStore for development
// mode and tests, with the same monotonicity guard as the Redis store.
type MemoryCheckpointStore struct {
	mu          sync.Mutex
	checkpoints map[string]string
}

// NewMemoryCheckpointStore returns an empty in-memory store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{checkpoints: make(map[string]string)}
}

func (s *MemoryCheckpointStore) Get(ctx context.Context, shardID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpoints[shardID], nil
}

func (s *MemoryCheckpointStore) Set(ctx context.Context, shardID, sequence string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.checkpoints[shardID]; ok && !stream.SequenceLess(cur, sequence) {
		return nil
	}
	s.checkpoints[shardID] = sequence
	return nil
}
