package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
)

type hmacSigner struct{}

// NewSigner creates an HMAC-based audit event signer using HKDF-SHA256
// for key derivation and HMAC-SHA256 for signature generation.
func NewSigner() Signer {
	return &hmacSigner{}
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the master key.
// Separates encryption key usage from signing key usage.
// Info parameter: "audit-event-signing-v1" (versioned for future algorithm changes).
func (s *hmacSigner) deriveSigningKey(key []byte) ([]byte, error) {
	info := []byte("audit-event-signing-v1")
	kdf := hkdf.New(sha256.New, key, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalize converts an audit event to its canonical byte representation.
// Format: id || request_id || event || actor_context || source_ip || details || created_at.
// Variable-length fields are length-prefixed to prevent ambiguity.
func (s *hmacSigner) canonicalize(event *auditDomain.Event) ([]byte, error) {
	buf := make([]byte, 0, 512)

	// UUIDs are fixed 16 bytes
	buf = append(buf, event.ID[:]...)
	buf = append(buf, event.RequestID[:]...)

	buf = appendLengthPrefixed(buf, []byte(event.Event))
	buf = appendLengthPrefixed(buf, []byte(event.ActorContext))
	buf = appendLengthPrefixed(buf, []byte(event.SourceIP))

	if event.Details != nil {
		detailsBytes, err := json.Marshal(event.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event details: %w", err)
		}
		buf = appendLengthPrefixed(buf, detailsBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(event.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates an HMAC-SHA256 signature for the audit event.
// Returns the 32-byte signature or an error if signing fails.
func (s *hmacSigner) Sign(key []byte, event *auditDomain.Event) ([]byte, error) {
	signingKey, err := s.deriveSigningKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer zero(signingKey)

	canonical, err := s.canonicalize(event)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize event: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks if the audit event signature is valid.
// Returns nil if valid, ErrSignatureInvalid if tampered or signed by another key.
func (s *hmacSigner) Verify(key []byte, event *auditDomain.Event) error {
	expected, err := s.Sign(key, event)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(expected, event.Signature) {
		return auditDomain.ErrSignatureInvalid
	}

	return nil
}

// zero overwrites a byte slice to clear derived key material from memory.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
