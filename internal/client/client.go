// Package client talks JSON over HTTP to the order, payment and cart APIs.
//
// Failures come back as *APIError wrapping one of ErrAuthenticationRequired,
// ErrRejected, ErrUnavailable, ErrTimeout or ErrCanceled. Callers decide what a 401 means;
// nothing here redirects or retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultTimeout = 10 * time.Second

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrRejected               = errors.New("request rejected")
	ErrUnavailable            = errors.New("service unavailable")
	ErrTimeout                = errors.New("request timed out")
	// ErrCanceled means the caller gave up; it says nothing about the upstream.
	ErrCanceled = errors.New("request canceled")
)

type APIError struct {
	Service    string
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v: %s", e.Service, e.kind, e.Message)
	}
	return fmt.Sprintf("%s: %v (status %d): %s", e.Service, e.kind, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

type tokenKey struct{}

// WithToken makes requests sent with ctx carry token as a bearer credential.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

type Client struct {
	name    string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

type Option func(*Client)

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = otelhttp.NewTransport(rt) }
}

func WithBreaker(s circuitbreaker.Settings) Option {
	return func(c *Client) {
		s.IsFailure = countsAgainstUpstream
		c.breaker = circuitbreaker.New[[]byte](s)
	}
}

func New(name, baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	settings := circuitbreaker.DefaultSettings(name)
	settings.IsFailure = countsAgainstUpstream

	c := &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[[]byte](settings),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Only outages trip the breaker; a rejected request says nothing about the
// health of the upstream.
func countsAgainstUpstream(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("%s: encode request: %w", c.name, err)
		}
	}

	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, body)
	})
	if circuitbreaker.IsOpen(err) {
		return &APIError{Service: c.name, Message: err.Error(), kind: ErrUnavailable}
	}
	if err != nil {
		return err
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Service: c.name, Message: "malformed response: " + err.Error(), kind: ErrUnavailable}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, c.transportError(ctx, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, &APIError{
		Service:    c.name,
		StatusCode: resp.StatusCode,
		Message:    errorMessage(data, resp.Status),
		kind:       kindForStatus(resp.StatusCode),
	}
}

func (c *Client) transportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &APIError{Service: c.name, Message: err.Error(), kind: ErrTimeout}
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return &APIError{Service: c.name, Message: err.Error(), kind: ErrCanceled}
	}
	return &APIError{Service: c.name, Message: err.Error(), kind: ErrUnavailable}
}

func kindForStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized:
		return ErrAuthenticationRequired
	case code == http.StatusRequestTimeout:
		return ErrTimeout
	case code >= 500:
		return ErrUnavailable
	default:
		return ErrRejected
	}
}

// errorMessage pulls a human message out of the usual error bodies.
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
		return fallback
	}
	if s := strings.TrimSpace(string(body)); s != "" && len(s) <= 200 {
		return s
	}
	return fallback
}
