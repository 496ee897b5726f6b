// Package checksum provides the integrity digest and partition key
// derivations for healthcare events. Both are pure functions of the event:
// identical logical input always yields identical output.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/models"
)

// Compute returns the hex-encoded SHA-256 digest of the canonical
// serialization of an event. The digest is computed over the original,
// pre-redaction event so it stays comparable across encryption key
// rotations.
//
// Canonical form is the JSON encoding of the event with the timestamp
// normalized to UTC. Struct fields serialize in declaration order and
// encoding/json sorts map keys, so re-serializing the same logical event
// always produces byte-identical digest input.
func Compute(e *models.RawEvent) (string, error) {
	canonical := *e
	canonical.Timestamp = e.Timestamp.UTC()

	data, err := json.Marshal(&canonical)
	if err != nil {
		return "", fmt.Errorf("canonical serialization: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// PartitionKey derives the stream partition key for an event. Events from
// the same provider and type share a key, which keeps them on the same
// shard lineage and preserves their relative order.
func PartitionKey(e *models.RawEvent) string {
	return fmt.Sprintf("%s:%s", e.ProviderID, e.EventType)
}
