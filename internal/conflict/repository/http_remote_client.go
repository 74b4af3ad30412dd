// Package repository provides remote client implementations for the conflict
// resolver.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	conflictDomain "github.com/allisson/credguard/internal/conflict/domain"
	apperrors "github.com/allisson/credguard/internal/errors"
)

// conflictResponse is the remote's 409 payload.
type conflictResponse struct {
	NaturalKey string `json:"natural_key"`
	Message    string `json:"message"`
}

// HTTPRemoteClient provisions resources over a JSON HTTP API.
//
// The remote contract: POST /resources creates, answering 409 with a
// natural-key payload on collision; GET /resources/{name} fetches by natural
// key, answering 404 when absent.
type HTTPRemoteClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPRemoteClient returns a client for the provisioning API at baseURL.
func NewHTTPRemoteClient(baseURL string, timeout time.Duration) *HTTPRemoteClient {
	return &HTTPRemoteClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Create provisions a resource remotely.
func (c *HTTPRemoteClient) Create(
	ctx context.Context,
	resource *conflictDomain.Resource,
) (*conflictDomain.Resource, error) {
	body, err := json.Marshal(resource)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode resource")
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/resources", bytes.NewReader(body),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, "create request failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		var created conflictDomain.Resource
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode create response")
		}
		return &created, nil

	case http.StatusConflict:
		var conflict conflictResponse
		if err := json.NewDecoder(resp.Body).Decode(&conflict); err != nil {
			// Conflict confirmed but the payload is unusable: no natural key
			return nil, &conflictDomain.ConflictError{Message: "malformed conflict payload"}
		}
		return nil, &conflictDomain.ConflictError{
			NaturalKey: conflict.NaturalKey,
			Message:    conflict.Message,
		}

	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("create failed with status %d", resp.StatusCode)
	}
}

// Lookup fetches a resource by natural key.
func (c *HTTPRemoteClient) Lookup(
	ctx context.Context,
	naturalKey string,
) (*conflictDomain.Resource, error) {
	endpoint := c.baseURL + "/resources/" + url.PathEscape(naturalKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build lookup request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, "lookup request failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		var resource conflictDomain.Resource
		if err := json.NewDecoder(resp.Body).Decode(&resource); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode lookup response")
		}
		return &resource, nil

	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "resource not found")

	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("lookup failed with status %d", resp.StatusCode)
	}
}
