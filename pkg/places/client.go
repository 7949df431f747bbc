// Package places is a client for the Foursquare v3 place search API.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"tastebud/pkg/model"
	"tastebud/pkg/request"
	"tastebud/pkg/tracker"
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("places: api key not configured")
	// ErrInvalidResponse is returned when a 2xx body is not valid JSON.
	ErrInvalidResponse = errors.New("places: invalid response body")
)

// Fields is the result schema requested from the search endpoint.
// Order matters for upstream compatibility.
var Fields = []string{
	"fsq_id",
	"name",
	"geocodes",
	"categories",
	"location",
	"timezone",
	"distance",
	"closed_bucket",
	"photos",
	"description",
	"tel",
	"email",
	"website",
	"social_media",
	"hours",
	"hours_popular",
	"rating",
	"stats",
	"popularity",
	"price",
	"menu",
	"features",
}

// UpstreamError carries a non-2xx response verbatim.
type UpstreamError struct {
	Status     int
	StatusText string
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("places: upstream status %d %s", e.Status, e.StatusText)
}

// Client issues search requests. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *request.Client
}

// NewClient creates a client for baseURL (e.g. https://api.foursquare.com/v3/places).
func NewClient(baseURL, apiKey string, rc *request.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    rc,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// SearchURL builds the search URL for q.
func (c *Client) SearchURL(q model.Query) string {
	v := url.Values{}
	v.Set("ll", formatCoord(q.Latitude)+","+formatCoord(q.Longitude))
	v.Set("radius", strconv.Itoa(q.Radius))
	v.Set("categories", q.Categories)
	v.Set("fields", strings.Join(Fields, ","))
	v.Set("sort", q.Sort)
	v.Set("limit", strconv.Itoa(q.Limit))
	return c.baseURL + "/search?" + v.Encode()
}

// Search performs one search request. There are no retries.
func (c *Client) Search(ctx context.Context, q model.Query) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	resp, err := c.http.Get(ctx, tracker.ProviderPlaces, c.SearchURL(q), map[string]string{
		"Accept":        "application/json",
		"Authorization": c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("places search: %w", err)
	}
	if !resp.OK() {
		return nil, &UpstreamError{Status: resp.StatusCode, StatusText: resp.StatusText, Body: string(resp.Body)}
	}
	if !json.Valid(resp.Body) {
		return nil, ErrInvalidResponse
	}
	return json.RawMessage(resp.Body), nil
}

// CountResults returns the length of the top-level "results" array, or -1
// when the payload has no such array.
func CountResults(payload json.RawMessage) int {
	var body struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.Results == nil {
		return -1
	}
	return len(body.Results)
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
