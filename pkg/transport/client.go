package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Layr-Labs/preconf-sender-go/pkg/preconfErrors"
	"go.uber.org/zap"
)

const (
	ContentTypeJSON = "application/json"

	// maxResponseBytes is the largest body accepted; larger bodies fail instead of being truncated
	maxResponseBytes = 1 << 20
)

// NewHTTPClient creates an HTTP client with an explicit request timeout.
// A nil base transport falls back to http.DefaultTransport.
func NewHTTPClient(base http.RoundTripper, timeout time.Duration) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: base,
		Timeout:   timeout,
	}
}

// Response is a raw 2xx response. Body is returned verbatim.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client performs single-attempt JSON calls. Failures are classified with preconfErrors.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new transport client
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// PostJSON marshals body and POSTs it to url with the given extra headers
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body interface{}) (*Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, preconfErrors.NewPreconditionError(err, "failed to marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, preconfErrors.NewPreconditionError(err, "failed to build request for %s", url)
	}
	req.Header.Set("Content-Type", ContentTypeJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.Sugar().Debugw("Sending request",
		"method", http.MethodPost,
		"url", url,
		"bytes", len(data),
	)
	return c.do(req)
}

// GetJSON issues a GET to url and returns the raw 2xx body
func (c *Client) GetJSON(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, preconfErrors.NewPreconditionError(err, "failed to build request for %s", url)
	}
	req.Header.Set("Accept", ContentTypeJSON)

	c.logger.Sugar().Debugw("Sending request",
		"method", http.MethodGet,
		"url", url,
	)
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, preconfErrors.NewNetworkError(err, "failed to send %s %s", req.Method, req.URL.Redacted())
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, preconfErrors.NewNetworkError(err, "failed to read response from %s", req.URL.Redacted())
	}
	if len(body) > maxResponseBytes {
		return nil, preconfErrors.NewNetworkError(nil, "response from %s exceeds %d bytes", req.URL.Redacted(), maxResponseBytes)
	}

	c.logger.Sugar().Debugw("Received response",
		"url", req.URL.Redacted(),
		"status_code", resp.StatusCode,
		"bytes", len(body),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, preconfErrors.NewNetworkError(
			fmt.Errorf("unexpected status %s", resp.Status),
			"%s %s failed", req.Method, req.URL.Redacted(),
		).WithBody(string(body))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
