// Package httpbackend implements split.SplitBackend over the split service's
// REST API.
package httpbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tabsplit/tabsplit-backend/internal/split"
	pkgerrors "github.com/tabsplit/tabsplit-backend/pkg/errors"
)

const errorBodyReadLimit int64 = 1024

// Client talks to the split API. Failure classification follows the engine's
// contract: transport trouble is CodeDependency, a rejected payload is
// CodeValidation or CodeConflict, an absent split on fetch is (nil, nil).
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the split API client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("split backend base url is required")
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return client, nil
}

var _ split.SplitBackend = (*Client)(nil)

// FetchExisting returns the saved split for the receipt, or (nil, nil) when
// none has been saved yet.
func (c *Client) FetchExisting(ctx context.Context, receiptID string) (*split.SplitRecord, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "split backend client not configured")
	}
	trimmed := strings.TrimSpace(receiptID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt ID is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.splitURL(trimmed), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build split fetch request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute split fetch request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp, "split fetch failed")
	}

	var envelope struct {
		Data *split.SplitRecord `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode split fetch response")
	}
	if envelope.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "split fetch response missing data")
	}
	return envelope.Data, nil
}

// Save replaces the receipt's split wholesale and returns the authoritative
// record the server now holds.
func (c *Client) Save(ctx context.Context, req split.SaveSplitRequest) (*split.SplitRecord, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "split backend client not configured")
	}
	trimmed := strings.TrimSpace(req.ReceiptID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt ID is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal split save request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.splitURL(trimmed), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build split save request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute split save request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, responseError(resp, "split save failed")
	}

	var envelope struct {
		Data *split.SplitRecord `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode split save response")
	}
	if envelope.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "split save response missing data")
	}
	return envelope.Data, nil
}

func (c *Client) splitURL(receiptID string) string {
	return fmt.Sprintf("%s/v1/receipts/%s/split", c.baseURL, url.PathEscape(receiptID))
}

// responseError classifies a non-2xx response. A 4xx means the server
// understood and rejected the payload; everything else is the dependency
// misbehaving.
func responseError(resp *http.Response, message string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))

	switch {
	case resp.StatusCode == http.StatusConflict:
		return pkgerrors.Wrap(pkgerrors.CodeConflict, cause, message)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, message)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, message)
	}
}
