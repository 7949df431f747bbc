package request

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tastebud/pkg/tracker"
	"tastebud/pkg/version"
)

// maxBodyBytes caps how much of an upstream body is read into memory.
const maxBodyBytes = 16 << 20

var defaultUserAgent = fmt.Sprintf("tastebud/%s", version.Version)

// Client performs single-attempt upstream HTTP requests and records
// per-provider outcomes. It never retries.
type Client struct {
	httpClient *http.Client
	tracker    *tracker.Tracker
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	StatusText string
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// New creates a new Client. A zero timeout means no client-side limit
// beyond the request context.
func New(t *tracker.Tracker, timeout time.Duration) *Client {
	if t == nil {
		t = tracker.New()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		tracker:    t,
	}
}

// Tracker returns the tracker the client reports to.
func (c *Client) Tracker() *tracker.Tracker {
	return c.tracker
}

// Get performs a GET request. provider names the tracker bucket; when empty
// it is derived from the URL host. Non-2xx responses are returned, not
// turned into errors, so callers can surface upstream status and body.
func (c *Client) Get(ctx context.Context, provider, u string, headers map[string]string) (*Response, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if provider == "" {
		provider = normalizeProvider(parsedURL.Host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	uaSet := false
	for k, v := range headers {
		req.Header.Set(k, v)
		if http.CanonicalHeaderKey(k) == "User-Agent" {
			uaSet = true
		}
	}
	if !uaSet {
		req.Header.Set("User-Agent", defaultUserAgent)
	}

	resp, err := c.execute(req)
	if err != nil {
		c.tracker.TrackAPIFailure(provider)
		return nil, err
	}
	if resp.OK() {
		c.tracker.TrackAPISuccess(provider)
	} else {
		c.tracker.TrackAPIFailure(provider)
		slog.Warn("Upstream returned error status", "provider", provider, "status", resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) execute(req *http.Request) (*Response, error) {
	start := time.Now()
	slog.Debug("Network Request", "host", req.URL.Host, "path", req.URL.Path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	slog.Debug("Network Response", "host", req.URL.Host, "status", resp.StatusCode, "bytes", len(body), "took", time.Since(start))
	return &Response{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// statusText returns the reason phrase the server sent, falling back to
// the standard text for the code.
func statusText(resp *http.Response) string {
	if s := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); s != resp.Status && s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}

func normalizeProvider(host string) string {
	host = strings.ToLower(host)
	if strings.HasSuffix(host, ".foursquare.com") || host == "foursquare.com" {
		return tracker.ProviderPlaces
	}
	if strings.HasSuffix(host, ".supabase.co") || strings.HasSuffix(host, ".supabase.in") {
		return tracker.ProviderAuth
	}
	return host
}
