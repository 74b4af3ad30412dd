package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/fxamacker/cbor/v2"

	credentialDomain "github.com/allisson/credguard/internal/credential/domain"
	credentialService "github.com/allisson/credguard/internal/credential/service"
	apperrors "github.com/allisson/credguard/internal/errors"
)

// storeUseCase seals credential records into storage envelopes.
//
// Sealing: CBOR-encode the record, encrypt with the active master key using
// the context key as AAD, split the trailing 16-byte authentication tag into
// the envelope's AuthTag field, persist. Opening reverses the steps and maps
// any authentication failure to ErrIntegrity.
type storeUseCase struct {
	repo        EnvelopeRepository
	aeadManager credentialService.AEADManager
	keychain    *credentialDomain.MasterKeyChain
	algorithm   credentialDomain.Algorithm
	logger      *slog.Logger
}

// NewStore returns a Store sealing records with the keychain's active key and
// the given algorithm.
func NewStore(
	repo EnvelopeRepository,
	aeadManager credentialService.AEADManager,
	keychain *credentialDomain.MasterKeyChain,
	algorithm credentialDomain.Algorithm,
	logger *slog.Logger,
) Store {
	return &storeUseCase{
		repo:        repo,
		aeadManager: aeadManager,
		keychain:    keychain,
		algorithm:   algorithm,
		logger:      logger,
	}
}

// Store seals a record and persists the envelope under the record's context key.
func (s *storeUseCase) Store(ctx context.Context, record *credentialDomain.CredentialRecord) error {
	if record.ContextKey == "" {
		return apperrors.Wrap(credentialDomain.ErrInvalidCredentialFormat, "record has no context key")
	}

	plaintext, err := cbor.Marshal(record)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode credential record")
	}
	defer credentialDomain.Zero(plaintext)

	masterKey, ok := s.keychain.Active()
	if !ok {
		return credentialDomain.ErrActiveMasterKeyNotFound
	}

	cipher, err := s.aeadManager.CreateCipher(masterKey.Key, s.algorithm)
	if err != nil {
		return err
	}

	// AAD binds the envelope to its context key so an envelope copied onto
	// another key's slot fails authentication.
	sealed, nonce, err := cipher.Encrypt(plaintext, []byte(record.ContextKey))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrEncryption, err.Error())
	}

	tagOffset := len(sealed) - credentialDomain.AuthTagSize
	envelope := &credentialDomain.StorageEnvelope{
		Version:     credentialDomain.EnvelopeVersion,
		Algorithm:   s.algorithm,
		MasterKeyID: masterKey.ID,
		Nonce:       nonce,
		Ciphertext:  sealed[:tagOffset],
		AuthTag:     sealed[tagOffset:],
	}

	if err := s.repo.Save(ctx, record.ContextKey, envelope); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "credential record sealed",
		slog.String("context_key", record.ContextKey),
		slog.String("master_key_id", masterKey.ID),
	)

	return nil
}

// Retrieve opens the envelope for a context key and returns the record.
func (s *storeUseCase) Retrieve(
	ctx context.Context,
	contextKey string,
) (*credentialDomain.CredentialRecord, error) {
	envelope, err := s.repo.Get(ctx, contextKey)
	if err != nil {
		return nil, err
	}

	// Every envelope we seal names a key the keychain holds, so an unknown
	// key ID means the envelope was altered.
	masterKey, ok := s.keychain.Get(envelope.MasterKeyID)
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrIntegrity,
			fmt.Sprintf("envelope names unknown master key %s", envelope.MasterKeyID))
	}

	cipher, err := s.aeadManager.CreateCipher(masterKey.Key, envelope.Algorithm)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(envelope.Ciphertext)+len(envelope.AuthTag))
	sealed = append(sealed, envelope.Ciphertext...)
	sealed = append(sealed, envelope.AuthTag...)

	plaintext, err := cipher.Decrypt(sealed, envelope.Nonce, []byte(contextKey))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrIntegrity, "envelope failed authentication")
	}
	defer credentialDomain.Zero(plaintext)

	var record credentialDomain.CredentialRecord
	if err := cbor.Unmarshal(plaintext, &record); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrIntegrity, "malformed credential record")
	}

	if record.ContextKey != contextKey {
		return nil, apperrors.Wrap(apperrors.ErrIntegrity, "record context key mismatch")
	}

	return &record, nil
}

// Delete removes the stored envelope for a context key.
func (s *storeUseCase) Delete(ctx context.Context, contextKey string) error {
	return s.repo.Delete(ctx, contextKey)
}

// Clear removes all stored envelopes.
func (s *storeUseCase) Clear(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}

// HealthCheck round-trips a synthetic record and reports whether the seal,
// persist, open, compare cycle works. The probe envelope is removed afterwards.
func (s *storeUseCase) HealthCheck(ctx context.Context) bool {
	var suffix [8]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return false
	}

	probeKey := "health_check:" + hex.EncodeToString(suffix[:])
	probe := &credentialDomain.CredentialRecord{
		ContextKey:     probeKey,
		SecretMaterial: map[string]string{"probe": hex.EncodeToString(suffix[:])},
		IssuedAt:       time.Now().UTC(),
	}

	defer func() {
		if err := s.repo.Delete(ctx, probeKey); err != nil {
			s.logger.WarnContext(ctx, "failed to remove health check probe", slog.Any("error", err))
		}
	}()

	if err := s.Store(ctx, probe); err != nil {
		s.logger.WarnContext(ctx, "health check store failed", slog.Any("error", err))
		return false
	}

	got, err := s.Retrieve(ctx, probeKey)
	if err != nil {
		s.logger.WarnContext(ctx, "health check retrieve failed", slog.Any("error", err))
		return false
	}

	return got.SecretMaterial["probe"] == probe.SecretMaterial["probe"]
}
