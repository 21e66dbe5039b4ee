// Package remote talks to the authoritative document store. The store
// is opaque: four operations over JSON, and any transport error or
// non-success status means "unavailable".
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spec-kit/oncall-roster/internal/config"
)

// Client is the four-operation remote store contract.
type Client interface {
	// Get reads the current document.
	Get(ctx context.Context) ([]byte, error)
	// Put overwrites the document and returns the stored copy.
	Put(ctx context.Context, body []byte) ([]byte, error)
	// Replace destructively replaces the document, succeeding even if
	// the store's current document is structurally incompatible.
	Replace(ctx context.Context, body []byte) ([]byte, error)
	// Reset re-initializes the store to a default document.
	Reset(ctx context.Context) ([]byte, error)
}

const (
	documentPath = "/api/document"
	replacePath  = "/api/document/replace"
	resetPath    = "/api/document/reset"
)

// HTTPClient implements Client over plain HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds a client for the configured store base URL.
func NewHTTPClient(cfg config.RemoteConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

func (c *HTTPClient) Get(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, documentPath, nil)
}

func (c *HTTPClient) Put(ctx context.Context, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPut, documentPath, body)
}

func (c *HTTPClient) Replace(ctx context.Context, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, replacePath, body)
}

func (c *HTTPClient) Reset(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodPost, resetPath, []byte("{}"))
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("remote store %s %s: status %d", method, path, resp.StatusCode)
	}
	return payload, nil
}
