// Package phi redacts Protected Health Information from events before they
// reach the stream.
package phi

import (
	"fmt"
)

// Encryptor is the contract the redactor consumes. Implementations must be
// pass-through on empty input.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	KeyID() string
}

// SensitiveFields is the fixed allow-list of payload keys holding PHI.
// Only these keys are redacted; every other payload field passes through.
var SensitiveFields = []string{
	"ssn", "mrn", "dob", "address", "phone",
	"email", "insurance_id", "diagnosis_code",
}

// Redactor encrypts designated sensitive fields of an event.
type Redactor struct {
	enc Encryptor
}

// New returns a redactor backed by the given encryptor.
func New(enc Encryptor) *Redactor {
	return &Redactor{enc: enc}
}

// RedactPatientID encrypts a patient identifier.
func (r *Redactor) RedactPatientID(patientID string) (string, error) {
	return r.enc.Encrypt(patientID)
}

// RedactPayload returns a copy of payload with every present allow-listed
// field encrypted. Values are stringified before encryption. The input map
// is not modified.
func (r *Redactor) RedactPayload(payload map[string]any) (map[string]any, error) {
	redacted := make(map[string]any, len(payload))
	for k, v := range payload {
		redacted[k] = v
	}

	for _, field := range SensitiveFields {
		value, ok := redacted[field]
		if !ok {
			continue
		}
		encrypted, err := r.enc.Encrypt(fmt.Sprintf("%v", value))
		if err != nil {
			return nil, err
		}
		redacted[field] = encrypted
	}

	return redacted, nil
}

// KeyID returns the identifier of the key the redactor encrypts with.
func (r *Redactor) KeyID() string {
	return r.enc.KeyID()
}
