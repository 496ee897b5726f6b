package logging

import "log/slog"

// Common field names for consistent logging across commands.
const (
	FieldService      = "service"
	FieldEventID      = "event_id"
	FieldEventType    = "event_type"
	FieldShardID      = "shard_id"
	FieldSequence     = "sequence_number"
	FieldPartitionKey = "partition_key"
	FieldStream       = "stream"
	FieldProviderID   = "provider_id"
	FieldAttempt      = "attempt"
	FieldError        = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// EventID returns a slog attribute for an event ID.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}

// EventType returns a slog attribute for an event type.
func EventType(t string) slog.Attr {
	return slog.String(FieldEventType, t)
}

// ShardID returns a slog attribute for a stream shard ID.
func ShardID(id string) slog.Attr {
	return slog.String(FieldShardID, id)
}

// Sequence returns a slog attribute for a sequence number.
func Sequence(seq string) slog.Attr {
	return slog.String(FieldSequence, seq)
}

// PartitionKey returns a slog attribute for a partition key.
func PartitionKey(key string) slog.Attr {
	return slog.String(FieldPartitionKey, key)
}

// Stream returns a slog attribute for a stream name.
func Stream(name string) slog.Attr {
	return slog.String(FieldStream, name)
}

// ProviderID returns a slog attribute for a provider ID.
func ProviderID(id string) slog.Attr {
	return slog.String(FieldProviderID, id)
}

// Attempt returns a slog attribute for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(FieldAttempt, n)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
