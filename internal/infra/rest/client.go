package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"tradedesk_go/internal/domain"
	"tradedesk_go/internal/infra"

	"github.com/google/uuid"
)

// Client is the shared backend REST client (Boundary Layer).
// All requests go through the same instance so the session cookie set at
// login rides along on every call. It never retries and never redirects:
// reacting to an expired session is the caller's job.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// envelope is the backend's {data, message} response shape.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// NewClient creates the shared API client.
func NewClient(cfg *infra.Config) (*Client, error) {
	// Cookie jar carries the HttpOnly session cookie across requests
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.API.BaseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: time.Duration(cfg.API.TimeoutSec) * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger: slog.Default().With("module", "rest_client"),
	}, nil
}

// Get performs a GET request and decodes the response data into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// do handles serialization, the request id header and envelope decoding
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var bodyReader io.Reader

	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		// The backend de-duplicates on this id; the client never retries
		// mutations, so each attempt is deliberately unique.
		req.Header.Set("X-Request-Id", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewNetworkError("request", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewNetworkError("read", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("Unauthorized response",
			slog.String("method", method),
			slog.String("path", path),
		)
		return &domain.APIError{
			Status:  resp.StatusCode,
			Message: extractMessage(bodyBytes),
			Err:     domain.ErrSessionExpired,
		}
	}

	if resp.StatusCode == http.StatusNotFound {
		return &domain.APIError{
			Status:  resp.StatusCode,
			Message: extractMessage(bodyBytes),
			Err:     domain.ErrNotFound,
		}
	}

	if resp.StatusCode >= 400 {
		return &domain.APIError{
			Status:  resp.StatusCode,
			Message: extractMessage(bodyBytes),
		}
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return domain.NewFatalNetworkError("decode", err)
		}
		return nil
	}

	// Some endpoints answer with the bare record instead of an envelope
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return domain.NewFatalNetworkError("decode", err)
	}
	return nil
}

// extractMessage pulls the user-facing message out of an error body, if any.
func extractMessage(body []byte) string {
	var env envelope
	if json.Unmarshal(body, &env) != nil {
		return ""
	}
	return env.Message
}
