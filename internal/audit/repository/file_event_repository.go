// Package repository provides audit event persistence backends.
package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
	apperrors "github.com/allisson/credguard/internal/errors"
)

// FileEventRepository persists audit events as JSON lines in an append-only file.
// This is the default backend; the database backends serve multi-process setups
// where a shared queryable trail is needed.
type FileEventRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileEventRepository creates the file backend, creating the parent directory
// if needed. The file itself is created on first write.
func NewFileEventRepository(path string) (*FileEventRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, apperrors.Wrap(err, "failed to create audit log directory")
	}
	return &FileEventRepository{path: path}, nil
}

// Create appends the event as one JSON line. The file is opened in append mode
// and synced before close so a crash never loses acknowledged events.
func (f *FileEventRepository) Create(ctx context.Context, event *auditDomain.Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event")
	}
	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return apperrors.Wrap(err, "failed to open audit log file")
	}

	if _, err := file.Write(line); err != nil {
		_ = file.Close()
		return apperrors.Wrap(err, "failed to append audit event")
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		return apperrors.Wrap(err, "failed to sync audit log file")
	}

	return file.Close()
}

// List reads the full file and returns matching events newest first.
// The file backend favors write-path simplicity; review queries scan linearly.
func (f *FileEventRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*auditDomain.Event{}, nil
		}
		return nil, apperrors.Wrap(err, "failed to open audit log file")
	}
	defer func() {
		_ = file.Close()
	}()

	var matched []*auditDomain.Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event auditDomain.Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit event")
		}
		if createdAtFrom != nil && event.CreatedAt.Before(*createdAtFrom) {
			continue
		}
		if createdAtTo != nil && event.CreatedAt.After(*createdAtTo) {
			continue
		}
		matched = append(matched, &event)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to read audit log file")
	}

	// Newest first
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}

	events := make([]*auditDomain.Event, 0)
	for i := offset; i < len(matched) && len(events) < limit; i++ {
		events = append(events, matched[i])
	}

	return events, nil
}
