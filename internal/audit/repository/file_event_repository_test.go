package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
)

func newFileRepo(t *testing.T) *FileEventRepository {
	t.Helper()
	repo, err := NewFileEventRepository(filepath.Join(t.TempDir(), "audit", "audit.log"))
	require.NoError(t, err)
	return repo
}

func newEvent(name string, createdAt time.Time) *auditDomain.Event {
	return &auditDomain.Event{
		ID:           uuid.Must(uuid.NewV7()),
		RequestID:    uuid.Must(uuid.NewV7()),
		Event:        name,
		ActorContext: "super_admin",
		SourceIP:     "127.0.0.1",
		Details:      map[string]any{"outcome": "success"},
		CreatedAt:    createdAt,
	}
}

func TestFileEventRepositoryCreateAndList(t *testing.T) {
	repo := newFileRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := newEvent(auditDomain.EventContextRegistered, now.Add(-2*time.Minute))
	second := newEvent(auditDomain.EventContextSwitch, now.Add(-time.Minute))
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	events, err := repo.List(ctx, 0, 50, nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first
	assert.Equal(t, second.ID, events[0].ID)
	assert.Equal(t, first.ID, events[1].ID)
	assert.Equal(t, "success", events[0].Details["outcome"])
}

func TestFileEventRepositoryListEmptyFile(t *testing.T) {
	repo := newFileRepo(t)

	events, err := repo.List(context.Background(), 0, 50, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFileEventRepositoryTimeFilter(t *testing.T) {
	repo := newFileRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := newEvent(auditDomain.EventContextSwitch, now.Add(-time.Hour))
	recent := newEvent(auditDomain.EventContextSwitch, now)
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, recent))

	from := now.Add(-time.Minute)
	events, err := repo.List(ctx, 0, 50, &from, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, recent.ID, events[0].ID)
}

func TestFileEventRepositoryPagination(t *testing.T) {
	repo := newFileRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newEvent(auditDomain.EventContextSwitch, now.Add(time.Duration(i)*time.Second))))
	}

	events, err := repo.List(ctx, 2, 2, nil, nil)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
