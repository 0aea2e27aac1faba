// driver/rest.go
//
// Thin shim over net/http that satisfies the restorm Executor interface
// and adds the plumbing every call needs (OpenTelemetry spans, request
// logging, auth header).
//
// Usage:
//
//	conn := driver.NewClient("https://api.example.com/v2",
//	    driver.WithToken(token),
//	)
//	invoices := resource.NewCollection[Invoice](conn)
package driver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/manojoshi/restorm/internal"
)

// Executor issues one GET against a resource endpoint and returns the
// raw response body. The query package never sees this interface; only
// the collection proxy does.
type Executor interface {
	Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error)
}

// Client implements Executor on top of a *http.Client.
type Client struct {
	base  string
	http  *http.Client
	token string
	log   zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithToken sets the bearer credential attached to every request.
func WithToken(token string) Option { return func(c *Client) { c.token = token } }

// WithLogger sets the request logger; the default discards everything.
func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// NewClient builds a Client rooted at the service base URL.
func NewClient(base string, opts ...Option) *Client {
	c := &Client{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get satisfies Executor.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	// span for tracing & slow-request logging
	ctx, span := otel.Tracer("restorm.driver").Start(ctx, "rest.get")
	defer span.End()

	u := c.base + "/" + endpoint
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("driver: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)

	span.SetAttributes(
		attribute.String("rest.endpoint", endpoint),
		attribute.Float64("rest.duration_ms", float64(elapsed.Milliseconds())),
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("driver: GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("rest.status", resp.StatusCode))
	c.log.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("rest get")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("driver: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("driver: GET %s: status %d: %s",
			endpoint, resp.StatusCode, snippet(body))
		span.RecordError(err)
		return nil, err
	}
	return body, nil
}

// snippet keeps error messages bounded regardless of response size.
func snippet(body []byte) string {
	const max = 200
	n := internal.Min(len(body), max)
	if n < len(body) {
		return string(body[:n]) + "…"
	}
	return string(body)
}
