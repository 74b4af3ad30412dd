package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"gocloud.dev/secrets"

	credentialDomain "github.com/allisson/credguard/internal/credential/domain"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KMSService opens keepers for KMS-wrapped master keys using gocloud.dev/secrets.
type KMSService interface {
	// OpenKeeper opens a secrets.Keeper for the configured KMS provider.
	// Returns an error if the KMS provider URI is invalid or connection fails.
	OpenKeeper(ctx context.Context, keyURI string) (credentialDomain.KMSKeeper, error)
}

// kmsService implements KMSService using gocloud.dev/secrets.
type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper opens a secrets.Keeper for the configured KMS provider using the keyURI.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (credentialDomain.KMSKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// LoadMasterKeyChainFromKMS builds a master keychain from KMS-wrapped key
// material in the environment.
//
// Reads two variables:
//   - ENCRYPTED_MASTER_KEYS: comma-separated entries in format "id:base64ciphertext"
//   - ACTIVE_MASTER_KEY_ID: ID of the key used to seal new envelopes
//
// Each entry is decrypted through the keeper and must yield exactly 32 bytes.
func LoadMasterKeyChainFromKMS(
	ctx context.Context,
	kms KMSService,
	keyURI string,
) (*credentialDomain.MasterKeyChain, error) {
	raw := os.Getenv("ENCRYPTED_MASTER_KEYS")
	if raw == "" {
		return nil, credentialDomain.ErrMasterKeysNotSet
	}

	active := os.Getenv("ACTIVE_MASTER_KEY_ID")
	if active == "" {
		return nil, credentialDomain.ErrActiveMasterKeyIDNotSet
	}

	keeper, err := kms.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = keeper.Close()
	}()

	keys := make([]*credentialDomain.MasterKey, 0)
	for part := range strings.SplitSeq(raw, ",") {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: %q", credentialDomain.ErrInvalidMasterKeysFormat, part)
		}

		ciphertext, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %v", credentialDomain.ErrInvalidMasterKeyBase64, p[0], err)
		}

		key, err := keeper.Decrypt(ctx, ciphertext)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt master key %s: %w", p[0], err)
		}

		keys = append(keys, &credentialDomain.MasterKey{ID: p[0], Key: key})
	}

	return credentialDomain.NewMasterKeyChain(active, keys...)
}
