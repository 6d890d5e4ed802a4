// Package fetchcache keeps raw wiki responses keyed by exact URL so that a
// page is downloaded at most once across runs.
//
// The cache is a single JSON object file loaded into memory on Open. Entries
// are never expired nor refetched (TrustForever). Writes go to disk according
// to the FlushPolicy: once per run by default, or after every miss.
package fetchcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/hazyhaar/automata/internal/safety"
)

var (
	// ErrCorrupt is returned by Open when the cache file is not a JSON object
	// of strings.
	ErrCorrupt = errors.New("fetchcache: corrupt cache file")
	// ErrOffline is returned on a miss when the cache has no Getter.
	ErrOffline = errors.New("fetchcache: miss with no fetcher")
)

// Getter retrieves the raw content of a URL.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// FlushPolicy selects when the cache file is rewritten.
type FlushPolicy string

const (
	// FlushAtEnd writes once, on Flush or Close.
	FlushAtEnd FlushPolicy = "end"
	// FlushOnMiss rewrites the whole file after every miss.
	FlushOnMiss FlushPolicy = "miss"
)

// TrustForever is the only expiry policy: an entry, once stored, is
// returned for as long as the cache file exists.
const TrustForever = "trust-forever"

// ParseFlushPolicy maps a config value to a FlushPolicy. Empty means FlushAtEnd.
func ParseFlushPolicy(s string) (FlushPolicy, error) {
	switch FlushPolicy(s) {
	case "", FlushAtEnd:
		return FlushAtEnd, nil
	case FlushOnMiss:
		return FlushOnMiss, nil
	}
	return "", fmt.Errorf("fetchcache: unknown flush policy %q", s)
}

// Options configures a Cache.
type Options struct {
	Flush  FlushPolicy
	Logger *slog.Logger
}

// Stats is a snapshot of cache activity since Open.
type Stats struct {
	Entries int    `json:"entries"`
	Hits    int    `json:"hits"`
	Misses  int    `json:"misses"`
	Policy  string `json:"policy"`
	Flush   string `json:"flush"`
}

// Cache maps URL to raw content.
type Cache struct {
	path   string
	getter Getter
	flush  FlushPolicy
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]string
	dirty   bool
	hits    int
	misses  int
}

// Open loads the cache file at path. A missing file is an empty cache.
// An empty path keeps the cache in memory only. getter may be nil for
// read-only use, in which case a miss fails with ErrOffline.
func Open(path string, getter Getter, opts Options) (*Cache, error) {
	if opts.Flush == "" {
		opts.Flush = FlushAtEnd
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Cache{
		path:    path,
		getter:  getter,
		flush:   opts.Flush,
		logger:  opts.Logger,
		entries: make(map[string]string),
	}
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetchcache: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if c.entries == nil {
		c.entries = make(map[string]string)
	}
	c.logger.Debug("fetchcache: loaded", "path", path, "entries", len(c.entries))
	return c, nil
}

// GetOrFetch returns the cached content of url, retrieving and storing it on
// a miss. A failed retrieval stores nothing.
func (c *Cache) GetOrFetch(ctx context.Context, url string) (string, error) {
	c.mu.Lock()
	if v, ok := c.entries[url]; ok {
		c.hits++
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	if c.getter == nil {
		return "", fmt.Errorf("%w: %s", ErrOffline, url)
	}
	c.logger.Debug("fetchcache: miss", "url", url)
	body, err := c.getter.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetchcache: %w", err)
	}

	c.mu.Lock()
	v, ok := c.entries[url]
	if !ok {
		v = string(body)
		c.entries[url] = v
		c.dirty = true
	}
	c.misses++
	c.mu.Unlock()

	if c.flush == FlushOnMiss {
		if err := c.Flush(); err != nil {
			return "", err
		}
	}
	return v, nil
}

// Lookup returns the cached content of url without touching the network.
func (c *Cache) Lookup(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[url]
	return v, ok
}

// Len returns the number of cached URLs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns counters since Open.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		Policy:  TrustForever,
		Flush:   string(c.flush),
	}
}

// Flush writes the cache file if anything was added since the last flush.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty || c.path == "" {
		return nil
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("fetchcache: encode: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("fetchcache: mkdir: %w", err)
		}
	}
	if err := safety.WriteFileAtomic(c.path, data); err != nil {
		return fmt.Errorf("fetchcache: flush: %w", err)
	}
	c.dirty = false
	c.logger.Debug("fetchcache: flushed", "path", c.path, "entries", len(c.entries))
	return nil
}

// Close flushes pending entries.
func (c *Cache) Close() error {
	return c.Flush()
}
