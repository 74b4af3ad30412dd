package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conflictDomain "github.com/allisson/credguard/internal/conflict/domain"
	apperrors "github.com/allisson/credguard/internal/errors"
)

func TestHTTPRemoteClient_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("successful create", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/resources", r.URL.Path)

			var resource conflictDomain.Resource
			require.NoError(t, json.NewDecoder(r.Body).Decode(&resource))
			resource.ID = "res-1"

			w.WriteHeader(http.StatusCreated)
			require.NoError(t, json.NewEncoder(w).Encode(resource))
		}))
		defer server.Close()

		client := NewHTTPRemoteClient(server.URL, 5*time.Second)

		created, err := client.Create(ctx, &conflictDomain.Resource{Name: "acme"})
		require.NoError(t, err)
		assert.Equal(t, "res-1", created.ID)
		assert.Equal(t, "acme", created.Name)
	})

	t.Run("conflict with natural key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"natural_key": "acme",
				"message":     "duplicate name",
			})
		}))
		defer server.Close()

		client := NewHTTPRemoteClient(server.URL, 5*time.Second)

		_, err := client.Create(ctx, &conflictDomain.Resource{Name: "acme"})
		require.Error(t, err)

		var conflictErr *conflictDomain.ConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, "acme", conflictErr.NaturalKey)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("conflict with malformed payload has no natural key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		client := NewHTTPRemoteClient(server.URL, 5*time.Second)

		_, err := client.Create(ctx, &conflictDomain.Resource{Name: "acme"})

		var conflictErr *conflictDomain.ConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Empty(t, conflictErr.NaturalKey)
	})

	t.Run("server error propagates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewHTTPRemoteClient(server.URL, 5*time.Second)

		_, err := client.Create(ctx, &conflictDomain.Resource{Name: "acme"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestHTTPRemoteClient_Lookup(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/resources/acme", r.URL.Path)

			_ = json.NewEncoder(w).Encode(conflictDomain.Resource{ID: "res-42", Name: "acme"})
		}))
		defer server.Close()

		client := NewHTTPRemoteClient(server.URL, 5*time.Second)

		resource, err := client.Lookup(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, "res-42", resource.ID)
	})

	t.Run("not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewHTTPRemoteClient(server.URL, 5*time.Second)

		_, err := client.Lookup(ctx, "ghost")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("natural key is path escaped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/resources/name%20with%20spaces", r.URL.EscapedPath())
			_ = json.NewEncoder(w).Encode(conflictDomain.Resource{ID: "res-1"})
		}))
		defer server.Close()

		client := NewHTTPRemoteClient(server.URL, 5*time.Second)

		_, err := client.Lookup(ctx, "name with spaces")
		assert.NoError(t, err)
	})
}

func TestHTTPRemoteClient_WithResolver(t *testing.T) {
	// End to end: create collides, resolver recovers the existing entity.
	lookups := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"natural_key": "acme",
				"message":     "duplicate name",
			})
		case http.MethodGet:
			lookups++
			_ = json.NewEncoder(w).Encode(conflictDomain.Resource{ID: "res-42", Name: "acme"})
		}
	}))
	defer server.Close()

	client := NewHTTPRemoteClient(server.URL, 5*time.Second)

	_, err := client.Create(context.Background(), &conflictDomain.Resource{Name: "acme"})
	outcome := conflictDomain.ClassifyConflict(err)
	require.Equal(t, conflictDomain.OutcomeResolvable, outcome.Kind)

	existing, err := client.Lookup(context.Background(), outcome.NaturalKey)
	require.NoError(t, err)
	assert.Equal(t, "res-42", existing.ID)
	assert.Equal(t, 1, lookups)
}
