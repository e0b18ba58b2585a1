// Package client is a typed HTTP client for the tierd API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tierd/pkg/types"
)

// Client talks to one tierd server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for baseURL with a 60s timeout; swaps into SWAP can be slow.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status    int
	Kind      string
	Message   string
	Retryable bool
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// IsKind reports whether err is an APIError of the given domain kind.
func IsKind(err error, kind string) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind == kind
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("connecting to tierd at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er types.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return &APIError{Status: resp.StatusCode, Kind: er.Kind, Message: er.Error, Retryable: er.Retryable}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) Generate(ctx context.Context, req types.GenerateRequest) (*types.GenerateResponse, error) {
	var out types.GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/v1/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListModels(ctx context.Context) (*types.ModelsResponse, error) {
	var out types.ModelsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/models", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ModelInfo(ctx context.Context, id string) (*types.ModelInfo, error) {
	var out types.ModelInfo
	if err := c.do(ctx, http.MethodGet, "/v1/models/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Select(ctx context.Context, req types.SelectRequest) (*types.Selection, error) {
	var out types.Selection
	if err := c.do(ctx, http.MethodPost, "/v1/select", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Manage(ctx context.Context, req types.ManageRequest) (*types.ManageResponse, error) {
	var out types.ManageResponse
	if err := c.do(ctx, http.MethodPost, "/v1/manage", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) HotSwap(ctx context.Context, req types.HotSwapRequest) (*types.HotSwapResponse, error) {
	var out types.HotSwapResponse
	if err := c.do(ctx, http.MethodPost, "/v1/hot-swap", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Batch(ctx context.Context, req types.BatchRequest) (*types.BatchResponse, error) {
	var out types.BatchResponse
	if err := c.do(ctx, http.MethodPost, "/v1/batch", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateSession(ctx context.Context, req types.SessionRequest) (*types.SessionResponse, error) {
	var out types.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Memory(ctx context.Context) (*types.MemoryStatus, error) {
	var out types.MemoryStatus
	if err := c.do(ctx, http.MethodGet, "/v1/memory", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) System(ctx context.Context) (*types.SystemStatus, error) {
	var out types.SystemStatus
	if err := c.do(ctx, http.MethodGet, "/v1/system", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Optimize(ctx context.Context, strategy string) (*types.OptimizeResponse, error) {
	var out types.OptimizeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/optimize", types.OptimizeRequest{Strategy: strategy}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
