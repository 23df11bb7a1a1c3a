// Package release reads a GitHub-compatible release feed, picks the newest
// eligible release and retrieves its archive.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/gdsfm/internal/fault"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

const (
	defaultUserAgent = "gdsfm/0.1"
	requestTimeout   = 15 * time.Second
)

// Source is implemented by *Feed.
type Source interface {
	Releases(ctx context.Context) ([]Release, error)
	Download(ctx context.Context, asset Asset, dest io.Writer, progress func(fraction float64)) (int64, error)
}

var _ Source = (*Feed)(nil)

// Feed lists releases of one repository.
type Feed struct {
	baseURL   *url.URL
	owner     string
	repo      string
	api       *http.Client
	download  *http.Client
	userAgent string
}

// NewFeed builds a Feed for owner/repo on apiURL. A blank apiURL uses
// DefaultAPIURL.
func NewFeed(apiURL, owner, repo string) (*Feed, error) {
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("release feed requires owner and repo")
	}
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	return &Feed{
		baseURL: base,
		owner:   owner,
		repo:    repo,
		api:     &http.Client{Timeout: requestTimeout},
		// Archives can be large; the request context bounds the download.
		download:  &http.Client{},
		userAgent: defaultUserAgent,
	}, nil
}

// Releases returns the repository's releases, newest first as served.
func (f *Feed) Releases(ctx context.Context) ([]Release, error) {
	if f == nil {
		return nil, fmt.Errorf("feed is nil")
	}
	path := fmt.Sprintf("/repos/%s/%s/releases", url.PathEscape(f.owner), url.PathEscape(f.repo))
	reqURL := *f.baseURL
	reqURL.Path = f.baseURL.Path + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.api.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: execute request: %w", fault.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: api %s returned status %d", fault.ErrTransport, path, resp.StatusCode)
	}
	var payload []Release
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", fault.ErrDecode, err)
	}
	return payload, nil
}

// Download streams asset into dest and reports progress as a fraction in
// [0, 1]. When neither the asset nor the response carries a size, progress is
// only reported on completion.
func (f *Feed) Download(ctx context.Context, asset Asset, dest io.Writer, progress func(fraction float64)) (int64, error) {
	if strings.TrimSpace(asset.DownloadURL) == "" {
		return 0, fmt.Errorf("%w: asset %q has no download url", fault.ErrDownload, asset.Name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.DownloadURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: create request: %w", fault.ErrDownload, err)
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.download.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w: %w", fault.ErrDownload, fault.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("%w: %s returned status %d", fault.ErrDownload, asset.Name, resp.StatusCode)
	}

	total := asset.Size
	if total <= 0 {
		total = resp.ContentLength
	}
	counter := &progressWriter{total: total, report: progress}
	n, err := io.Copy(dest, io.TeeReader(resp.Body, counter))
	if err != nil {
		return n, fmt.Errorf("%w: read %s: %w", fault.ErrDownload, asset.Name, err)
	}
	if total > 0 && n != total {
		return n, fmt.Errorf("%w: %s truncated at %d of %d bytes", fault.ErrDownload, asset.Name, n, total)
	}
	if progress != nil && counter.last < 1 {
		progress(1)
	}
	return n, nil
}

type progressWriter struct {
	total   int64
	written int64
	last    float64
	report  func(float64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.report == nil || p.total <= 0 {
		return len(b), nil
	}
	fraction := float64(p.written) / float64(p.total)
	if fraction > 1 {
		fraction = 1
	}
	// Report in whole-percent steps.
	if fraction-p.last >= 0.01 || fraction == 1 {
		p.last = fraction
		p.report(fraction)
	}
	return len(b), nil
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = DefaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
