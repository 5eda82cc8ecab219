// Package transport performs the HTTP calls of the query engine and decodes
// the catalog API's response envelope.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/conduit-lang/marvelous/internal/config"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 32 << 20

// ErrDecode is returned when a response body is not a valid envelope
var ErrDecode = errors.New("failed to decode response")

// Envelope is the wrapper the API puts around every successful response
type Envelope struct {
	Code            int           `json:"code"`
	Status          string        `json:"status"`
	Copyright       string        `json:"copyright"`
	AttributionText string        `json:"attributionText"`
	AttributionHTML string        `json:"attributionHTML"`
	ETag            string        `json:"etag"`
	Data            DataContainer `json:"data"`
}

// DataContainer holds one page of results and its pagination metadata
type DataContainer struct {
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
	Total   int              `json:"total"`
	Count   int              `json:"count"`
	Results []map[string]any `json:"results"`
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Doer performs a GET against a fully built URL
type Doer interface {
	Get(ctx context.Context, url string) (*Envelope, error)
}

// DoerFunc adapts an ordinary function to the Doer interface
type DoerFunc func(ctx context.Context, url string) (*Envelope, error)

// Get calls f(ctx, url)
func (f DoerFunc) Get(ctx context.Context, url string) (*Envelope, error) {
	return f(ctx, url)
}

// HTTPClient is the default Doer, backed by net/http and an optional
// token-bucket limiter. It is safe for concurrent use.
type HTTPClient struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPClient creates an HTTPClient from the api section of cfg. A nil
// client selects a new http.Client with cfg.API.Timeout.
func NewHTTPClient(cfg *config.Config, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: cfg.API.Timeout}
	}
	var limiter *rate.Limiter
	if cfg.API.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.API.RateLimit), cfg.API.Burst)
	}
	return &HTTPClient{client: client, limiter: limiter}
}

// Get implements Doer
func (c *HTTPClient) Get(ctx context.Context, url string) (*Envelope, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body after %v: %w", time.Since(start), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &env, nil
}

// decodeAPIError reads the error body. The API reports "code" as a string
// for auth failures and as a number otherwise, and uses either "message" or
// "status" for the text.
func decodeAPIError(status int, body []byte) error {
	var raw struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	}
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}
	if err := json.Unmarshal(body, &raw); err != nil {
		return apiErr
	}

	switch c := raw.Code.(type) {
	case string:
		apiErr.Code = c
	case float64:
		apiErr.Code = fmt.Sprintf("%d", int(c))
	}
	if raw.Message != "" {
		apiErr.Message = raw.Message
	} else if raw.Status != "" {
		apiErr.Message = raw.Status
	}
	return apiErr
}
