package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	appLog "rbcal/internal/log"
	"rbcal/internal/model"
)

// Source is a single ICS source: a local file or an HTTP(S) URL.
type Source struct {
	ID string
	// Location is a file path or URL.
	Location string
	// Resource is the default resource of the source's events.
	Resource string
}

func (s Source) isRemote() bool {
	return strings.HasPrefix(s.Location, "http://") || strings.HasPrefix(s.Location, "https://")
}

// cacheEntry holds the last body of a remote source with its validators.
type cacheEntry struct {
	ETag         string
	LastModified string
	Body         []byte
}

// Loader reads ICS sources, revalidating remote ones with ETag and
// Last-Modified. Remote bodies are cached in memory; on network errors the
// cached body is served.
type Loader struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewLoader creates a Loader. A nil client uses a 15s timeout client.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Loader{client: client, cache: make(map[string]cacheEntry)}
}

// LoadAll loads and parses every source. Failing sources are logged and
// reported in the error slice; the others still contribute their events.
func (l *Loader) LoadAll(ctx context.Context, sources []Source, loc *time.Location) ([]*model.Occurrence, []error) {
	var (
		events []*model.Occurrence
		errs   []error
	)
	for _, src := range sources {
		body, err := l.Fetch(ctx, src)
		if err != nil {
			errs = append(errs, err)
			appLog.Error("ics load failed", err, "id", src.ID, "location", redactURL(src.Location))
			continue
		}
		parsed, err := Parse(src, body, loc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, parsed...)
	}
	return events, errs
}

// Fetch returns the raw body of a source.
func (l *Loader) Fetch(ctx context.Context, src Source) ([]byte, error) {
	if src.Location == "" {
		return nil, fmt.Errorf("source %s: location is empty", src.ID)
	}
	if !src.isRemote() {
		body, err := os.ReadFile(src.Location)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.ID, err)
		}
		return body, nil
	}
	return l.fetchRemote(ctx, src)
}

func (l *Loader) fetchRemote(ctx context.Context, src Source) ([]byte, error) {
	l.mu.Lock()
	cached, hasCache := l.cache[src.Location]
	l.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location, nil)
	if err != nil {
		return nil, err
	}
	if cached.ETag != "" {
		req.Header.Set("If-None-Match", cached.ETag)
	}
	if cached.LastModified != "" {
		req.Header.Set("If-Modified-Since", cached.LastModified)
	}

	appLog.Debug("ics fetch start", "id", src.ID, "url", redactURL(src.Location))

	resp, err := l.client.Do(req)
	if err != nil {
		if hasCache {
			appLog.Error("ics fetch network error, using cached body", err, "id", src.ID, "url", redactURL(src.Location))
			return cached.Body, nil
		}
		return nil, fmt.Errorf("source %s: %w", src.ID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("source %s: read body: %w", src.ID, err)
		}
		l.mu.Lock()
		l.cache[src.Location] = cacheEntry{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			Body:         body,
		}
		l.mu.Unlock()
		appLog.Info("ics fetch success", "id", src.ID, "url", redactURL(src.Location), "bytes", len(body))
		return body, nil

	case http.StatusNotModified:
		if !hasCache {
			return nil, fmt.Errorf("source %s: 304 Not Modified without cached body", src.ID)
		}
		appLog.Debug("ics fetch not modified; using cache", "id", src.ID, "url", redactURL(src.Location))
		return cached.Body, nil

	default:
		if hasCache {
			appLog.Error("ics fetch non-OK, using cached body", errors.New(resp.Status), "id", src.ID, "url", redactURL(src.Location))
			return cached.Body, nil
		}
		return nil, fmt.Errorf("source %s: %s", src.ID, resp.Status)
	}
}

// redactURL hides the path and query of a URL for logging, since calendar
// subscription URLs often embed secrets. File paths are returned as is.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i == -1 {
		return u
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j != -1 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + "/...(redacted)"
}
