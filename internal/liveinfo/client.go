package liveinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/gdsfm/internal/fault"
)

// DefaultEndpoint is the public live-info document for the station.
const DefaultEndpoint = "https://gdsfm.airtime.pro/api/live-info-v2?timezone=utc"

const (
	defaultUserAgent = "gdsfm/0.1"
	requestTimeout   = 10 * time.Second
)

// Fetcher retrieves the current metadata. It is implemented by *Client.
type Fetcher interface {
	FetchLiveInfo(ctx context.Context) (TrackMetadata, error)
}

var _ Fetcher = (*Client)(nil)

// Client reads the live-info endpoint.
type Client struct {
	endpoint  *url.URL
	http      *http.Client
	userAgent string
}

// NewClient builds a Client for endpoint. A blank endpoint uses DefaultEndpoint.
func NewClient(endpoint string) (*Client, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = DefaultEndpoint
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse live info url %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("live info url %q must be absolute", endpoint)
	}
	return &Client{
		endpoint:  u,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
	}, nil
}

// FetchLiveInfo performs one GET and decodes the document.
func (c *Client) FetchLiveInfo(ctx context.Context) (TrackMetadata, error) {
	if c == nil {
		return TrackMetadata{}, fmt.Errorf("client is nil")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.String(), nil)
	if err != nil {
		return TrackMetadata{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return TrackMetadata{}, fmt.Errorf("%w: execute request: %w", fault.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return TrackMetadata{}, fmt.Errorf("%w: live info returned status %d", fault.ErrTransport, resp.StatusCode)
	}
	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return TrackMetadata{}, fmt.Errorf("%w: decode response: %w", fault.ErrDecode, err)
	}
	return payload.Metadata(), nil
}

// Decode parses a live-info document.
func Decode(data []byte) (TrackMetadata, error) {
	var payload Response
	if err := json.Unmarshal(data, &payload); err != nil {
		return TrackMetadata{}, fmt.Errorf("%w: decode response: %w", fault.ErrDecode, err)
	}
	return payload.Metadata(), nil
}
