package domain

import (
	"context"
)

// KMSKeeper abstracts a KMS-backed decryption keeper (*secrets.Keeper from
// gocloud.dev implements this). Used to unwrap master key material that is
// stored encrypted in the environment.
type KMSKeeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
