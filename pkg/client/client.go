// Package client is a Go client for the npmmeta HTTP API.
//
// Batch calls join the package specifiers with "+" into one request. The
// server answers a single specifier with a bare object and a batch with an
// array; the client normalizes both into a slice.
//
//	c := client.New("")
//	latest, err := c.GetLatestVersion(ctx, "vite@^5", client.LatestOptions{})
package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/npmmeta/pkg/errors"
	"github.com/matzehuels/npmmeta/pkg/httputil"
	"github.com/matzehuels/npmmeta/pkg/resolve"
)

// DefaultEndpoint is the public npmmeta-compatible API.
const DefaultEndpoint = "https://npm.antfu.dev/"

// RetryOptions configures the exponential retry schedule.
type RetryOptions struct {
	// Retries is the number of retries after the first attempt.
	Retries int
	// Factor multiplies the delay after each retry.
	Factor float64
	// MinTimeout is the delay before the first retry.
	MinTimeout time.Duration
	// MaxTimeout caps the delay. Zero means no cap.
	MaxTimeout time.Duration
	// Disabled turns retries off.
	Disabled bool
}

// DefaultRetry retries five times, starting at one second and doubling.
var DefaultRetry = RetryOptions{
	Retries:    5,
	Factor:     2,
	MinTimeout: time.Second,
}

// Client talks to one API endpoint.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
	Retry      RetryOptions
}

// New creates a Client for endpoint, or [DefaultEndpoint] when it is empty.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Retry:      DefaultRetry,
	}
}

// LatestOptions are the query options of the latest-version endpoint.
type LatestOptions struct {
	Force    bool
	Metadata bool
	// NoThrow returns failed items in place instead of failing the call.
	NoThrow bool
}

// VersionsOptions are the query options of the versions endpoint.
type VersionsOptions struct {
	Force    bool
	Loose    bool
	Metadata bool
	// After is passed through verbatim; the server parses it permissively.
	After   string
	NoThrow bool
}

// LatestResult is one item of a latest-version response. Error is set, and
// Name holds the raw specifier, when the item failed.
type LatestResult struct {
	resolve.ResolvedVersion
	Error string `json:"error,omitempty"`
}

// VersionsResult is one item of a versions response.
type VersionsResult struct {
	resolve.VersionsInfo
	Error string `json:"error,omitempty"`
}

func (r LatestResult) itemError() string   { return r.Error }
func (r VersionsResult) itemError() string { return r.Error }

type item interface{ itemError() string }

// GetLatestVersionBatch resolves the latest version of every package.
func (c *Client) GetLatestVersionBatch(ctx context.Context, pkgs []string, opts LatestOptions) ([]LatestResult, error) {
	q := url.Values{}
	setFlag(q, "force", opts.Force)
	setFlag(q, "metadata", opts.Metadata)
	if opts.NoThrow {
		q.Set("throw", "false")
	}
	return fetchBatch[LatestResult](ctx, c, "", pkgs, q, !opts.NoThrow)
}

// GetLatestVersion resolves the latest version of one package.
func (c *Client) GetLatestVersion(ctx context.Context, pkg string, opts LatestOptions) (LatestResult, error) {
	list, err := c.GetLatestVersionBatch(ctx, []string{pkg}, opts)
	if err != nil {
		return LatestResult{}, err
	}
	return first(list)
}

// GetVersionsBatch lists the matching versions of every package.
func (c *Client) GetVersionsBatch(ctx context.Context, pkgs []string, opts VersionsOptions) ([]VersionsResult, error) {
	q := url.Values{}
	setFlag(q, "force", opts.Force)
	setFlag(q, "loose", opts.Loose)
	setFlag(q, "metadata", opts.Metadata)
	if opts.After != "" {
		q.Set("after", opts.After)
	}
	if opts.NoThrow {
		q.Set("throw", "false")
	}
	return fetchBatch[VersionsResult](ctx, c, "versions/", pkgs, q, !opts.NoThrow)
}

// GetVersions lists the matching versions of one package.
func (c *Client) GetVersions(ctx context.Context, pkg string, opts VersionsOptions) (VersionsResult, error) {
	list, err := c.GetVersionsBatch(ctx, []string{pkg}, opts)
	if err != nil {
		return VersionsResult{}, err
	}
	return first(list)
}

func setFlag(q url.Values, key string, on bool) {
	if on {
		q.Set(key, "true")
	}
}

func first[T any](list []T) (T, error) {
	var zero T
	if len(list) == 0 {
		return zero, errors.New(errors.ErrCodeInternal, "empty response")
	}
	return list[0], nil
}

func fetchBatch[T item](ctx context.Context, c *Client, prefix string, pkgs []string, q url.Values, throw bool) ([]T, error) {
	if len(pkgs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no packages given")
	}
	u, err := c.url(prefix, pkgs, q)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = c.retry(ctx, func() error {
		var err error
		body, err = c.get(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}

	list, err := decodeList[T](body)
	if err != nil {
		return nil, err
	}
	if throw {
		for _, it := range list {
			if msg := it.itemError(); msg != "" {
				return nil, errors.New(errors.ErrCodeBatchFailed, "%s", msg)
			}
		}
	}
	return list, nil
}

func (c *Client) url(prefix string, pkgs []string, q url.Values) (string, error) {
	base, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid endpoint %q", c.Endpoint)
	}
	// PathEscape keeps "@" and escapes "/", so a scoped name stays one segment.
	escaped := make([]string, len(pkgs))
	for i, p := range pkgs {
		escaped[i] = url.PathEscape(p)
	}
	ref := &url.URL{
		Path:     prefix + strings.Join(pkgs, "+"),
		RawPath:  prefix + strings.Join(escaped, "+"),
		RawQuery: q.Encode(),
	}

	// A relative reference resolves against the endpoint's directory.
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *Client) retry(ctx context.Context, fn func() error) error {
	r := c.Retry
	if r.Disabled {
		return fn()
	}
	b := httputil.NewBackOff(r.MinTimeout, max(r.Factor, 1), 0)
	if r.MaxTimeout > 0 {
		b.MaxInterval = r.MaxTimeout
	} else {
		b.MaxInterval = 24 * time.Hour
	}
	return httputil.RetryBackOff(ctx, r.Retries+1, b, fn)
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "request %s", u))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", u))
	}

	if resp.StatusCode >= 400 {
		apiErr := apiError(resp.StatusCode, body)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, httputil.Retryable(apiErr)
		}
		return nil, apiErr
	}
	return body, nil
}

// apiError turns an error response into an *errors.Error, keeping the
// server's code and message when the body is the usual JSON error.
func apiError(status int, body []byte) error {
	var payload struct {
		Error string      `json:"error"`
		Code  errors.Code `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		code := payload.Code
		if code == "" {
			code = errors.ErrCodeUpstream
		}
		return errors.New(code, "%s", payload.Error)
	}
	return errors.New(errors.ErrCodeUpstream, "%d %s", status, http.StatusText(status))
}

func decodeList[T any](body []byte) ([]T, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var list []T
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, decodeError(err)
		}
		return list, nil
	}
	var one T
	if err := json.Unmarshal(body, &one); err != nil {
		return nil, decodeError(err)
	}
	return []T{one}, nil
}

func decodeError(err error) error {
	return errors.Wrap(errors.ErrCodeInternal, err, "decode response")
}
