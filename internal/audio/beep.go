// Package audio plays the live stream through the system speaker.
package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"

	"github.com/five82/gdsfm/internal/stream"
)

const (
	speakerRate       = beep.SampleRate(44100)
	speakerBuffer     = 250 * time.Millisecond
	sampleBufferSize  = 2 * 44100
	decodeChunk       = 4096
	networkBufferSize = 64 * 1024
	reconnectDelay    = 2 * time.Second
)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerRate, speakerRate.N(speakerBuffer))
	})
	return speakerErr
}

// BeepTransport plays MP3 streams over HTTP through the system speaker.
type BeepTransport struct {
	client    *http.Client
	userAgent string
}

var _ stream.Transport = (*BeepTransport)(nil)

// NewBeepTransport returns a transport with a client tuned for long-lived
// streams.
func NewBeepTransport(userAgent string) *BeepTransport {
	return &BeepTransport{
		client: &http.Client{
			Timeout: 0, // streams never finish
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				DisableCompression:    true,
			},
		},
		userAgent: userAgent,
	}
}

// Open prepares a player for url. Nothing is fetched until Play.
func (t *BeepTransport) Open(url string, notify func(stream.Status)) (stream.Player, error) {
	if err := initSpeaker(); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &beepPlayer{
		transport: t,
		url:       url,
		notify:    notify,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

type beepPlayer struct {
	transport *BeepTransport
	url       string
	notify    func(stream.Status)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	paused  bool
	ctrl    *beep.Ctrl
}

func (p *beepPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		if p.paused {
			p.setPaused(false)
			p.notify(stream.StatusPlaying)
		}
		return
	}
	p.running = true
	p.wg.Add(1)
	go p.run()
}

func (p *beepPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running || p.paused {
		return
	}
	p.setPaused(true)
	p.notify(stream.StatusPaused)
}

func (p *beepPlayer) Close() error {
	p.cancel()
	speaker.Clear()
	p.wg.Wait()
	return nil
}

// setPaused requires p.mu.
func (p *beepPlayer) setPaused(paused bool) {
	p.paused = paused
	if p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = paused
	speaker.Unlock()
}

func (p *beepPlayer) run() {
	defer p.wg.Done()
	for {
		p.notify(stream.StatusWaitingToPlay)
		err := p.playOnce()
		if p.ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Str("url", p.url).Msgf("stream dropped, reconnecting in %v", reconnectDelay)
		select {
		case <-p.ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (p *beepPlayer) playOnce() error {
	req, err := http.NewRequestWithContext(p.ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", p.transport.userAgent)

	resp, err := p.transport.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	body := struct {
		io.Reader
		io.Closer
	}{bufio.NewReaderSize(resp.Body, networkBufferSize), resp.Body}
	decoded, format, err := mp3.Decode(body)
	if err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode stream: %w", err)
	}
	defer func() { _ = decoded.Close() }()

	var source beep.Streamer = decoded
	if format.SampleRate != speakerRate {
		source = beep.Resample(4, format.SampleRate, speakerRate, decoded)
	}

	samples := make(chan [2]float64, sampleBufferSize)
	decodeDone := make(chan error, 1)
	go decodeInto(p.ctx, source, decoded, samples, decodeDone)

	out := &bufferedStreamer{samples: samples, notify: p.notify}
	p.mu.Lock()
	p.ctrl = &beep.Ctrl{Streamer: out, Paused: p.paused}
	ctrl := p.ctrl
	p.mu.Unlock()

	speaker.Play(ctrl)
	defer func() {
		speaker.Clear()
		p.mu.Lock()
		p.ctrl = nil
		p.mu.Unlock()
	}()

	select {
	case <-p.ctx.Done():
		<-decodeDone
		return p.ctx.Err()
	case err := <-decodeDone:
		if err == nil {
			err = errors.New("stream ended")
		}
		return err
	}
}

func decodeInto(ctx context.Context, source beep.Streamer, decoded beep.StreamSeekCloser, samples chan<- [2]float64, done chan<- error) {
	defer close(samples)
	buf := make([][2]float64, decodeChunk)
	for {
		n, ok := source.Stream(buf)
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				done <- ctx.Err()
				return
			case samples <- buf[i]:
			}
		}
		if !ok {
			done <- decoded.Err()
			return
		}
	}
}

// bufferedStreamer feeds the speaker from the decode buffer without blocking
// it. An empty buffer plays silence and reports WaitingToPlay until samples
// flow again.
type bufferedStreamer struct {
	samples <-chan [2]float64
	notify  func(stream.Status)
	playing bool
	done    bool
}

func (b *bufferedStreamer) Stream(out [][2]float64) (int, bool) {
	filled := 0
	for i := range out {
		if b.done {
			break
		}
		select {
		case s, ok := <-b.samples:
			if !ok {
				b.done = true
				break
			}
			out[i] = s
			filled = i + 1
		default:
		}
		if filled <= i {
			break
		}
	}
	for i := filled; i < len(out); i++ {
		out[i] = [2]float64{}
	}

	switch {
	case filled > 0 && !b.playing:
		b.playing = true
		b.notify(stream.StatusPlaying)
	case filled == 0 && b.playing && !b.done:
		b.playing = false
		b.notify(stream.StatusWaitingToPlay)
	}
	return len(out), true
}

func (b *bufferedStreamer) Err() error {
	return nil
}
