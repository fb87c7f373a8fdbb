// Package apiclient talks to the payroll REST backend. Every response body
// passes through ToList or ToObject once at this boundary; callers never
// unwrap envelopes themselves.
package apiclient

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

	"github.com/tidwall/gjson"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 32 << 20

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout is the per-request limit. Zero means no client-side timeout.
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client is a REST client for the payroll backend. It is safe for
// concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	creds     CredentialProvider
	userAgent string
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// New creates a client. creds may be nil for anonymous use.
func New(cfg Config, creds CredentialProvider) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("apiclient: missing base url")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("apiclient: invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("apiclient: base url scheme must be http or https")
	}
	if u.Host == "" {
		return nil, errors.New("apiclient: base url has no host")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if creds == nil {
		creds = NewMemoryCredentials("")
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "payroll-dashboard"
	}

	return &Client{baseURL: base, http: hc, creds: creds, userAgent: ua}, nil
}

// Credentials returns the provider the client reads its token from.
func (c *Client) Credentials() CredentialProvider { return c.creds }

// do sends a request and returns the raw response body of a 2xx answer.
// A 401 clears the stored token before the error is returned.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode/100 != 2 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.creds.ClearToken()
		}
		return nil, newAPIError(resp.StatusCode, data)
	}
	return data, nil
}

// errorFields are checked in order for a displayable message.
var errorFields = []string{"message", "detail", "error", "error.message", "detail.0.msg"}

func newAPIError(status int, body []byte) *APIError {
	if gjson.ValidBytes(body) {
		for _, field := range errorFields {
			r := gjson.GetBytes(body, field)
			if r.Type == gjson.String && strings.TrimSpace(r.Str) != "" {
				return &APIError{Status: status, Message: strings.TrimSpace(r.Str)}
			}
		}
	}
	return &APIError{Status: status, Message: fmt.Sprintf("İstek başarısız oldu (HTTP %d)", status)}
}

func (c *Client) getList(ctx context.Context, path string) ([]map[string]any, error) {
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return ToList(data), nil
}

func (c *Client) object(ctx context.Context, method, path string, body any) (map[string]any, error) {
	data, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return ToObject(data), nil
}

// seg escapes one path segment.
func seg(id string) string {
	return url.PathEscape(id)
}
