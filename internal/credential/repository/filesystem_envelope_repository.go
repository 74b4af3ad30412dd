// Package repository provides persistence for sealed credential envelopes.
// Two backends exist behind the same interface: one file per context on the
// filesystem, and a single keyed container file backed by bbolt.
package repository

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	credentialDomain "github.com/allisson/credguard/internal/credential/domain"
	apperrors "github.com/allisson/credguard/internal/errors"
)

// FilesystemEnvelopeRepository stores one encoded envelope per context key as
// a file on disk. Filenames are derived from the context key with SHA-256 so
// tenant identifiers never appear in directory listings.
type FilesystemEnvelopeRepository struct {
	baseDir string
}

// NewFilesystemEnvelopeRepository creates the base directory if needed and
// returns a repository rooted at it.
func NewFilesystemEnvelopeRepository(baseDir string) (*FilesystemEnvelopeRepository, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, apperrors.Wrap(err, "failed to create envelope directory")
	}
	return &FilesystemEnvelopeRepository{baseDir: baseDir}, nil
}

func (f *FilesystemEnvelopeRepository) path(contextKey string) string {
	sum := sha256.Sum256([]byte(contextKey))
	return filepath.Join(f.baseDir, hex.EncodeToString(sum[:])+".envelope")
}

// Save persists an envelope atomically: the encoded bytes are written to a
// temporary file in the same directory, fsynced, then renamed over the target.
// A crash mid-write leaves either the old envelope or the new one, never a
// truncated file.
func (f *FilesystemEnvelopeRepository) Save(
	ctx context.Context,
	contextKey string,
	envelope *credentialDomain.StorageEnvelope,
) error {
	data, err := envelope.Encode()
	if err != nil {
		return err
	}

	var suffix [8]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return apperrors.Wrap(err, "failed to generate temp file suffix")
	}

	target := f.path(contextKey)
	tmp := fmt.Sprintf("%s.tmp-%s", target, hex.EncodeToString(suffix[:]))

	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return apperrors.Wrap(err, "failed to create temp envelope file")
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return apperrors.Wrap(err, "failed to write envelope")
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return apperrors.Wrap(err, "failed to sync envelope")
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return apperrors.Wrap(err, "failed to close envelope file")
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return apperrors.Wrap(err, "failed to rename envelope file")
	}

	return nil
}

// Get loads and decodes the envelope for a context key. Returns ErrNotFound
// when no envelope has been stored for the key.
func (f *FilesystemEnvelopeRepository) Get(
	ctx context.Context,
	contextKey string,
) (*credentialDomain.StorageEnvelope, error) {
	data, err := os.ReadFile(f.path(contextKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "envelope not found")
		}
		return nil, apperrors.Wrap(err, "failed to read envelope")
	}

	return credentialDomain.DecodeEnvelope(data)
}

// Delete removes the envelope for a context key. Deleting a missing envelope
// is not an error.
func (f *FilesystemEnvelopeRepository) Delete(ctx context.Context, contextKey string) error {
	if err := os.Remove(f.path(contextKey)); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(err, "failed to delete envelope")
	}
	return nil
}

// DeleteAll removes every stored envelope. Used by Clear and by tests.
func (f *FilesystemEnvelopeRepository) DeleteAll(ctx context.Context) error {
	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		return apperrors.Wrap(err, "failed to list envelope directory")
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".envelope" {
			continue
		}
		if err := os.Remove(filepath.Join(f.baseDir, entry.Name())); err != nil {
			return apperrors.Wrap(err, "failed to delete envelope")
		}
	}

	return nil
}
