package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/gdsfm/internal/prefs"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	props  []map[string]string
}

func (r *recorder) Track(e Event, props map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	r.props = append(r.props, props)
}

func TestClient_SendPostsEvent(t *testing.T) {
	t.Parallel()

	var (
		gotPath, gotAuth string
		got              payload
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL+"/", "tok", "user-1", "1.5.0")
	require.NoError(t, err)
	require.NoError(t, c.Send(context.Background(), OutboundLinkClick, map[string]string{"url": "https://gds.fm"}))

	assert.Equal(t, "/api/events", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "user-1", got.UserUUID)
	assert.Equal(t, "outbound_link_click", got.EventType)
	assert.Equal(t, "1.5.0", got.Version)
	assert.Equal(t, map[string]string{"distribution": "direct", "url": "https://gds.fm"}, got.Props)
}

func TestClient_TrackIsAsync(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var events []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p payload
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		events = append(events, p.EventType)
		mu.Unlock()
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "tok", "user-1", "dev")
	require.NoError(t, err)
	c.Track(PlaybackStarted, nil)
	c.Track(PlaybackStopped, nil)
	c.Wait(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"playback_started", "playback_stopped"}, events)
}

func TestClient_RejectsBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "tok", "u", "dev")
	require.NoError(t, err)
	assert.Error(t, c.Send(context.Background(), AppOpened, nil))
}

func TestNewClient_Validates(t *testing.T) {
	_, err := NewClient("events.example", "tok", "u", "dev")
	assert.Error(t, err)
	_, err = NewClient("https://events.example", " ", "u", "dev")
	assert.Error(t, err)
}

func TestEnsureUserID(t *testing.T) {
	p := prefs.Default()
	assert.True(t, EnsureUserID(&p))
	_, err := uuid.Parse(p.AnalyticsUserID)
	require.NoError(t, err)

	id := p.AnalyticsUserID
	assert.False(t, EnsureUserID(&p))
	assert.Equal(t, id, p.AnalyticsUserID)
}

func TestTrackLaunch(t *testing.T) {
	rec := &recorder{}
	p := prefs.Default()

	assert.True(t, TrackLaunch(rec, &p))
	assert.False(t, TrackLaunch(rec, &p))
	assert.Equal(t, []Event{Installed, AppOpened, AppOpened}, rec.events)

	TrackLink(rec, "https://gds.fm")
	assert.Equal(t, "https://gds.fm", rec.props[len(rec.props)-1]["url"])
}
