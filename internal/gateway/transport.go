package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds a single round trip.
	DefaultTimeout = 15 * time.Second
	// maxErrorBody caps how much of an error response is kept.
	maxErrorBody = 64 << 10
)

// Transport is the request/response layer the Client is built on. Every call
// is one round trip; out may be nil when the response body is irrelevant.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

// StatusError is returned by HTTPTransport for non-2xx responses. Code 0
// means the server could not be reached at all.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   []byte
	cause  error
}

func (e *StatusError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("%s %s: unreachable: %v", e.Method, e.Path, e.cause)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
}

func (e *StatusError) Unwrap() error { return e.cause }

func (e *StatusError) problem() (problemBody, bool) {
	var p problemBody
	if len(bytes.TrimSpace(e.Body)) == 0 {
		return p, false
	}
	if err := json.Unmarshal(e.Body, &p); err != nil {
		return p, false
	}
	return p, true
}

// HTTPTransport speaks JSON to the order API and unwraps the {"data": ...}
// response envelope.
type HTTPTransport struct {
	baseURL   string
	token     string
	client    *http.Client
	requestID func() string
}

// TransportOption customizes HTTPTransport construction.
type TransportOption func(*HTTPTransport)

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) TransportOption {
	return func(t *HTTPTransport) {
		t.token = strings.TrimSpace(token)
	}
}

// WithHTTPClient overrides the default client.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithTimeout sets the timeout of the default client.
func WithTimeout(timeout time.Duration) TransportOption {
	return func(t *HTTPTransport) {
		if timeout > 0 {
			t.client.Timeout = timeout
		}
	}
}

// WithRequestIDs overrides the X-Request-ID generator.
func WithRequestIDs(gen func() string) TransportOption {
	return func(t *HTTPTransport) {
		if gen != nil {
			t.requestID = gen
		}
	}
}

// NewHTTPTransport prepares a transport rooted at baseURL.
func NewHTTPTransport(baseURL string, opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:    &http.Client{Timeout: DefaultTimeout},
		requestID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Get issues a GET request.
func (t *HTTPTransport) Get(ctx context.Context, path string, out any) error {
	return t.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body.
func (t *HTTPTransport) Post(ctx context.Context, path string, body, out any) error {
	return t.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT request with a JSON body.
func (t *HTTPTransport) Put(ctx context.Context, path string, body, out any) error {
	return t.do(ctx, http.MethodPut, path, body, out)
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("gateway: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	req.Header.Set("X-Request-ID", t.requestID())

	resp, err := t.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		return &StatusError{Method: method, Path: path, Code: 0, cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: data}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &StatusError{Method: method, Path: path, Code: 0, cause: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	// Tolerate endpoints that answer without the envelope.
	payload := json.RawMessage(raw)
	if trimmed := bytes.TrimSpace(raw); trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return fmt.Errorf("gateway: decode %s %s: %w", method, path, err)
		}
		if len(env.Data) > 0 {
			payload = env.Data
		}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("gateway: decode %s %s: %w", method, path, err)
	}
	return nil
}
