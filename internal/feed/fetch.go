package feed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	appLog "relboard/internal/log"
)

// Source represents a single release-schedule ICS feed.
type Source struct {
	// ID is an internal identifier (e.g., config feed ID).
	ID string
	// URL is the ICS endpoint.
	URL string
}

// FetchResult contains the outcome of fetching a single feed.
type FetchResult struct {
	Source    Source
	Body      []byte // ICS payload (either freshly fetched or from cache)
	FromCache bool   // true if we reused cached body due to 304 or a fetch failure
}

// cached is the disk cache state for one feed URL: validator metadata in
// meta.json next to the raw body in feed.ics.
type cached struct {
	meta cacheMeta
	body []byte
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher fetches release feeds with HTTP conditional requests
// (ETag / Last-Modified) and a disk-backed body cache, so a flaky upstream
// never empties the board.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a new feed Fetcher. cacheDir is the base directory for
// per-URL cache subdirectories, e.g. "/var/lib/relboard/feed-cache".
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		// Caller should set this explicitly; fall back to a relative dir so
		// development runs without root permissions.
		cacheDir = "./var/feed-cache"
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
}

// FetchAll fetches all given sources and returns individual results.
// Errors for individual sources are logged and collected; one broken feed
// never blocks the others.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(sources))
	errs := make([]error, 0)

	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			errs = append(errs, err)
			appLog.Error("feed fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		results = append(results, res)
	}

	return results, errs
}

// FetchOne fetches a single feed, honoring ETag and Last-Modified. On any
// failure it falls back to the cached body when one exists.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("feed URL is empty")
	}

	dir := f.cacheDirFor(src.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return FetchResult{}, err
	}
	prev := loadCache(dir)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if prev.meta.ETag != "" {
		req.Header.Set("If-None-Match", prev.meta.ETag)
	}
	if prev.meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", prev.meta.LastModified)
	}

	appLog.Debug("feed fetch start", "id", src.ID, "url", redactURL(src.URL))

	resp, err := f.client.Do(req)
	if err != nil {
		return f.fallback(src, prev, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return f.fallback(src, prev, readErr)
		}

		fresh := cached{
			meta: cacheMeta{
				URL:          src.URL,
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
				UpdatedAt:    time.Now().UTC(),
			},
			body: body,
		}
		if err := saveCache(dir, fresh); err != nil {
			// Log but still return the freshly fetched body.
			appLog.Error("feed cache save failed", err, "id", src.ID, "url", redactURL(src.URL))
		}

		appLog.Info("feed fetch success", "id", src.ID, "url", redactURL(src.URL), "bytes", len(body))
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if len(prev.body) == 0 {
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Debug("feed not modified; using cache", "id", src.ID, "url", redactURL(src.URL))
		return FetchResult{Source: src, Body: prev.body, FromCache: true}, nil

	default:
		return f.fallback(src, prev, errors.New(resp.Status))
	}
}

// fallback serves the cached body after a fetch failure, or surfaces the
// failure when no cache exists.
func (f *Fetcher) fallback(src Source, prev cached, cause error) (FetchResult, error) {
	if len(prev.body) == 0 {
		return FetchResult{}, cause
	}
	appLog.Warn("feed fetch failed, using cached body",
		"id", src.ID, "url", redactURL(src.URL), "cause", cause.Error())
	return FetchResult{Source: src, Body: prev.body, FromCache: true}, nil
}

// cacheDirFor keys the cache by a hash of the URL; URLs are not safe as
// path components.
func (f *Fetcher) cacheDirFor(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCache(dir string) cached {
	var c cached
	if data, err := os.ReadFile(filepath.Join(dir, "meta.json")); err == nil {
		_ = json.Unmarshal(data, &c.meta)
	}
	c.body, _ = os.ReadFile(filepath.Join(dir, "feed.ics"))
	return c
}

func saveCache(dir string, c cached) error {
	// Write body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(dir, "feed.ics"), c.body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&c.meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// redactURL hides sensitive parts of a feed URL for logging; feed URLs
// routinely embed access tokens in paths or query strings.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "feed://...(redacted)"
	}

	// Keep scheme and host only.
	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}
