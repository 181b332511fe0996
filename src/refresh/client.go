package refresh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iafilius/JobAnalytics/src/types"
)

// ErrUpstreamStatus is returned for a non-2xx analytics response.
var ErrUpstreamStatus = errors.New("analytics endpoint returned an error status")

// DefaultDataPath is the filtered analytics route of the external service.
const DefaultDataPath = "/analytics/data"

// RequestIDHeader carries a per-request id to the analytics service.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes caps a response body; analytics payloads are a few KB.
const maxBodyBytes = 8 << 20

// Client queries the external analytics endpoint.
type Client struct {
	base *url.URL
	path string
	http *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithDataPath overrides DefaultDataPath.
func WithDataPath(p string) ClientOption {
	return func(c *Client) {
		if p != "" {
			c.path = p
		}
	}
}

// NewHTTPClient builds the transport used for analytics requests.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// NewClient returns a Client for the service rooted at endpoint.
func NewClient(endpoint string, timeout time.Duration, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q is not an absolute URL", endpoint)
	}
	c := &Client{base: u, path: DefaultDataPath, http: NewHTTPClient(timeout)}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// RequestURL returns the URL fetched for f. Both parameters are always present,
// empty when unset: {City: "Austin"} -> /analytics/data?city=Austin&type=
func (c *Client) RequestURL(f types.FilterState) string {
	u := *c.base
	u.Path = strings.TrimSuffix(c.base.Path, "/") + c.path
	u.RawPath = ""
	q := url.Values{}
	q.Set("city", f.City)
	q.Set("type", f.Type)
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch issues one GET for f and decodes the payload.
func (c *Client) Fetch(ctx context.Context, f types.FilterState) (types.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RequestURL(f), nil)
	if err != nil {
		return types.Payload{}, fmt.Errorf("build request: %w", err)
	}
	rid := uuid.NewString()
	req.Header.Set(RequestIDHeader, rid)
	req.Header.Set("Accept", "application/json")

	defer logger.TimeTrack(time.Now(), "fetch "+rid)
	resp, err := c.http.Do(req)
	if err != nil {
		return types.Payload{}, fmt.Errorf("fetch analytics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return types.Payload{}, fmt.Errorf("%w: %s (request %s)", ErrUpstreamStatus, resp.Status, rid)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return types.Payload{}, fmt.Errorf("read analytics body: %w", err)
	}
	p, err := types.DecodePayload(body)
	if err != nil {
		return types.Payload{}, fmt.Errorf("request %s: %w", rid, err)
	}
	logger.Debugf("request %s city=%q type=%q skills=%d cities=%d weeks=%d", rid, f.City, f.Type,
		len(p.TopSkills), len(p.JobsByCity), len(p.JobsByWeek))
	return p, nil
}
