// Package analytics sends anonymous usage events. It is disabled unless an
// endpoint is configured, and failures are only logged.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/five82/gdsfm/internal/prefs"
)

// Event names an analytics event.
type Event string

const (
	Installed         Event = "installed"
	AppOpened         Event = "app_opened"
	PlaybackStarted   Event = "playback_started"
	PlaybackStopped   Event = "playback_stopped"
	OutboundLinkClick Event = "outbound_link_click"
)

// Distribution is reported with every event.
const Distribution = "direct"

// Emitter records events without blocking.
type Emitter interface {
	Track(event Event, props map[string]string)
}

// Nop drops every event.
type Nop struct{}

// Track implements Emitter.
func (Nop) Track(Event, map[string]string) {}

const requestTimeout = 10 * time.Second

// Client posts events to {api_url}/api/events with a bearer token.
type Client struct {
	endpoint string
	token    string
	userID   string
	version  string
	http     *http.Client
	wg       sync.WaitGroup
}

var _ Emitter = (*Client)(nil)

type payload struct {
	UserUUID  string            `json:"user_uuid"`
	EventType string            `json:"event_type"`
	Version   string            `json:"version"`
	Props     map[string]string `json:"props"`
}

// NewClient builds a Client. userID identifies the install.
func NewClient(apiURL, token, userID, version string) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(apiURL))
	if err != nil {
		return nil, fmt.Errorf("parse analytics url %q: %w", apiURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("analytics url %q must be absolute", apiURL)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("analytics requires an api token")
	}
	base.Path = strings.TrimSuffix(base.Path, "/") + "/api/events"
	return &Client{
		endpoint: base.String(),
		token:    token,
		userID:   userID,
		version:  version,
		http:     &http.Client{Timeout: requestTimeout},
	}, nil
}

// Track sends event in the background.
func (c *Client) Track(event Event, props map[string]string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := c.Send(ctx, event, props); err != nil {
			log.Debug().Err(err).Str("event", string(event)).Msg("analytics send failed")
			return
		}
		log.Debug().Str("event", string(event)).Msg("analytics sent")
	}()
}

// Send posts one event and waits for the response.
func (c *Client) Send(ctx context.Context, event Event, props map[string]string) error {
	all := map[string]string{"distribution": Distribution}
	for k, v := range props {
		all[k] = v
	}
	body, err := json.Marshal(payload{UserUUID: c.userID, EventType: string(event), Version: c.version, Props: all})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("analytics returned status %d", resp.StatusCode)
	}
	return nil
}

// Wait blocks until events in flight are sent or ctx ends.
func (c *Client) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// EnsureUserID assigns a random install id when p has none. It reports
// whether p changed.
func EnsureUserID(p *prefs.Prefs) bool {
	if p.AnalyticsUserID != "" {
		return false
	}
	p.AnalyticsUserID = uuid.NewString()
	return true
}

// TrackLaunch emits installed on the first launch and app_opened on every
// launch. It reports whether p changed.
func TrackLaunch(e Emitter, p *prefs.Prefs) bool {
	changed := false
	if !p.AnalyticsInstallTracked {
		e.Track(Installed, nil)
		p.AnalyticsInstallTracked = true
		changed = true
	}
	e.Track(AppOpened, nil)
	return changed
}

// TrackLink records an outbound link.
func TrackLink(e Emitter, link string) {
	e.Track(OutboundLinkClick, map[string]string{"url": link})
}
