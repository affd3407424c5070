// transport_http.go implements the canonical HTTP transport.

package ohcrash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultHTTPTimeout bounds one delivery attempt.
const DefaultHTTPTimeout = 10 * time.Second

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(t *HTTPTransport) {
		t.timeout = d
	}
}

// WithRateLimit drops sends above limit per second with the given burst.
func WithRateLimit(limit rate.Limit, burst int) HTTPOption {
	return func(t *HTTPTransport) {
		t.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(t *HTTPTransport) {
		t.userAgent = ua
	}
}

// HTTPTransport POSTs each report as JSON to <endpoint>/errors.
type HTTPTransport struct {
	url       string
	apiKey    string
	client    *http.Client
	timeout   time.Duration
	limiter   *rate.Limiter
	userAgent string

	mu     sync.RWMutex
	closed bool
}

// NewHTTPTransport creates a transport for endpoint. The authorization header
// is sent only when apiKey is non-empty.
func NewHTTPTransport(endpoint, apiKey string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		url:     strings.TrimRight(endpoint, "/") + "/errors",
		apiKey:  apiKey,
		client:  http.DefaultClient,
		timeout: DefaultHTTPTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// URL returns the collection URL.
func (t *HTTPTransport) URL() string {
	return t.url
}

// Send performs one POST of the report's wire payload.
func (t *HTTPTransport) Send(ctx context.Context, report Report) error {
	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTransportClosed
	}

	if t.limiter != nil && !t.limiter.Allow() {
		return ErrRateLimited
	}

	if report.Props == nil {
		report.Props = Props{}
	}
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post report: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{URL: t.url, StatusCode: resp.StatusCode}
	}
	return nil
}

// Flush is a no-op; sends are synchronous.
func (t *HTTPTransport) Flush(ctx context.Context) error {
	return nil
}

// Close marks the transport closed.
func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
