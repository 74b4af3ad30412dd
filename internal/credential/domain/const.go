package domain

// Algorithm identifies the AEAD cipher used to seal a storage envelope.
type Algorithm string

const (
	// AESGCM is AES-256-GCM.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the required master key size in bytes for both algorithms.
const KeySize = 32
