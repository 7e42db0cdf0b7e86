package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/crmarques/confsync/config"
	"github.com/crmarques/confsync/faults"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultMediaType = "application/json"

	// Transient transport failures get one bounded retry round; 4xx
	// application errors and NotImplemented never retry.
	retryAttempts = 2
	retryBackoff  = 500 * time.Millisecond
)

// Client is the authenticated HTTP gateway shared by the concrete
// adapters. It owns the only socket to the target product's API.
type Client struct {
	baseURL *url.URL
	client  *http.Client
	auth    authConfig
	log     logr.Logger
}

func NewClient(cfg config.Server, log logr.Logger) (*Client, error) {
	baseURL, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	auth, err := buildAuthConfig(cfg.Auth)
	if err != nil {
		return nil, err
	}

	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		auth:    auth,
		log:     log.WithName("httpapi"),
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return nil, validationError("server base-url is required", nil)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, validationError(fmt.Sprintf("server base-url %q is invalid", raw), err)
	}
	return parsed, nil
}

func (c *Client) Get(ctx context.Context, path string, query map[string]string) (any, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

// Do issues one API call and decodes the JSON response. A nil result
// with nil error means an empty response body (204-style endpoints).
func (c *Client) Do(ctx context.Context, method string, path string, query map[string]string, body any) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= retryAttempts; attempt++ {
		if attempt > 0 {
			c.log.V(1).Info("retrying transient failure", "method", method, "path", path, "attempt", attempt)
			select {
			case <-ctx.Done():
				return nil, transportError("request cancelled", ctx.Err())
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}

		result, err := c.doOnce(ctx, method, path, query, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !faults.Retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, method string, path string, query map[string]string, body any) (any, error) {
	request, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	c.log.V(1).Info("remote request", "method", method, "path", path)
	response, err := c.client.Do(request)
	if err != nil {
		return nil, transportError("remote request failed", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, 8<<20))
	if err != nil {
		return nil, transportError("failed to read remote response body", err)
	}

	if response.StatusCode >= http.StatusBadRequest {
		return nil, classifyStatusError(response.StatusCode, responseBody)
	}
	if len(bytes.TrimSpace(responseBody)) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(responseBody))
	decoder.UseNumber()
	var decoded any
	if err := decoder.Decode(&decoded); err != nil {
		return nil, validationError("remote response is not valid JSON", err)
	}
	return decoded, nil
}

func (c *Client) newRequest(ctx context.Context, method string, path string, query map[string]string, body any) (*http.Request, error) {
	target := *c.baseURL
	target.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")

	if len(query) > 0 {
		values := target.Query()
		keys := make([]string, 0, len(query))
		for key := range query {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			values.Set(key, query[key])
		}
		target.RawQuery = values.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, internalError("failed to encode request body", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, target.String(), bodyReader)
	if err != nil {
		return nil, internalError("failed to create remote request", err)
	}

	request.Header.Set("Accept", defaultMediaType)
	if body != nil {
		request.Header.Set("Content-Type", defaultMediaType)
	}
	c.auth.apply(request)

	return request, nil
}

func classifyStatusError(statusCode int, body []byte) error {
	message := fmt.Sprintf("remote request failed with status %d: %s", statusCode, summarizeBody(body))

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return authError(message)
	case http.StatusNotFound:
		return notFoundError(message)
	case http.StatusConflict, http.StatusPreconditionFailed:
		return conflictError(message)
	}

	if statusCode >= 400 && statusCode < 500 {
		return validationError(message, nil)
	}
	return transportError(message, nil)
}

func summarizeBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 200 {
		return trimmed[:200] + "..."
	}
	if trimmed == "" {
		return "<empty body>"
	}
	return trimmed
}
