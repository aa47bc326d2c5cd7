package simcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bracketpool/internal/adapters/http/api"
	"github.com/okian/bracketpool/internal/adapters/repository"
	"github.com/okian/bracketpool/internal/domain/aggregate"
	"github.com/okian/bracketpool/internal/domain/standings"
	"github.com/okian/bracketpool/pkg/logger"
)

// HTTPClient talks to a bracketpool server.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do sends a request and decodes a JSON response into out when the status
// is one of want.
func (c *HTTPClient) do(ctx context.Context, method, path string, header http.Header, body any, out any, want ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if !slices.Contains(want, resp.StatusCode) {
		var e apiError
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, e.Message)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// checkServiceHealth verifies the service is running.
func (c *HTTPClient) checkServiceHealth(ctx context.Context) error {
	logger.Get().Info(ctx, "checking service health", logger.String("url", c.baseURL))
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil, StatusOK); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}
	return nil
}

// simulate submits req under a fresh idempotency key and returns the stored
// run. A timed out submission is sent once more with the same key so the
// server answers with the run it already started instead of a second one.
func (c *HTTPClient) simulate(ctx context.Context, req aggregate.Request) (repository.Run, error) {
	header := http.Header{}
	header.Set(api.IdempotencyHeader, uuid.NewString())

	var run repository.Run
	err := c.do(ctx, http.MethodPost, "/simulations", header, req, &run, StatusCreated, StatusOK)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() && ctx.Err() == nil {
		logger.Get().Warn(ctx, "simulation request timed out, retrying", logger.String("key", header.Get(api.IdempotencyHeader)))
		err = c.do(ctx, http.MethodPost, "/simulations", header, req, &run, StatusCreated, StatusOK)
	}
	return run, err
}

// standings fetches the ranked participants of a run.
func (c *HTTPClient) standings(ctx context.Context, id string, limit int) ([]standings.Entry, error) {
	var entries []standings.Entry
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/simulations/%s/standings?limit=%d", id, limit), nil, nil, &entries, StatusOK)
	return entries, err
}
