package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"

	"github.com/matzehuels/npmmeta/pkg/httputil"
	"github.com/matzehuels/npmmeta/pkg/observability"
)

const (
	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond
	tripThreshold   = 5
)

// Client provides shared HTTP functionality for registry API clients.
// It applies default headers, retries transient failures and keeps one
// circuit breaker per registry host.
type Client struct {
	http     *http.Client
	headers  map[string]string
	attempts int
	delay    time.Duration

	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the default DNS-cached HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets the number of attempts and the initial retry delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// NewClient creates a Client with default headers.
// Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed.
func NewClient(headers map[string]string, opts ...Option) *Client {
	c := &Client{
		http:     NewHTTPClient(),
		headers:  headers,
		attempts: defaultAttempts,
		delay:    defaultDelay,
		breakers: make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers and handles retries automatically.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	return httputil.Retry(ctx, c.attempts, c.delay, func() error {
		return c.call(ctx, rawURL, func() error {
			body, err := c.doRequest(ctx, rawURL, headers)
			if err != nil {
				return err
			}
			defer body.Close()
			if err := json.NewDecoder(body).Decode(v); err != nil {
				return fmt.Errorf("[GET] %q: decode response: %w", rawURL, err)
			}
			return nil
		})
	})
}

// call runs fn through the breaker for the URL's host. Only retryable
// failures count toward tripping it; a 404 says nothing about the health of
// the registry.
func (c *Client) call(ctx context.Context, rawURL string, fn func() error) error {
	host := hostOf(rawURL)
	breaker := c.breaker(host)

	if !breaker.Ready() {
		err := fmt.Errorf("[GET] %q: circuit breaker open for %s: %w", rawURL, host, ErrUpstreamDown)
		observability.HTTP().OnError(ctx, http.MethodGet, host, pathOf(rawURL), err)
		return err
	}

	var permanent error
	err := breaker.Call(func() error {
		err := fn()
		if err != nil && !httputil.IsRetryable(err) {
			permanent = err
			return nil
		}
		return err
	}, 0)
	if permanent != nil {
		return permanent
	}
	return err
}

// breaker returns or creates the circuit breaker for host.
func (c *Client) breaker(host string) *circuit.Breaker {
	c.mu.RLock()
	b, ok := c.breakers[host]
	c.mu.RUnlock()
	if ok {
		return b
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.breakers[host]; ok {
		return b
	}

	// Trips after five consecutive failures, then probes again on an
	// exponential schedule.
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	b = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(tripThreshold),
	})
	c.breakers[host] = b
	return b
}

// BreakerStates reports "open" or "closed" for every host contacted so far.
func (c *Client) BreakerStates() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	states := make(map[string]string, len(c.breakers))
	for host, b := range c.breakers {
		if b.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

func (c *Client) doRequest(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &RequestError{Method: http.MethodGet, URL: rawURL, Err: err}
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, httputil.Retryable(&RequestError{Method: req.Method, URL: rawURL, Err: err})
	}
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(req.Method, rawURL, resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(method, rawURL string, code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	err := &StatusError{Method: method, URL: rawURL, Code: code}
	if code >= 500 || code == http.StatusTooManyRequests {
		return httputil.Retryable(err)
	}
	return err
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}
