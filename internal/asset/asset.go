// Package asset stores portrait and item images in a flat directory.
//
// The handle of an asset is the last segment of its URL path, which is also
// its file name. A file already present under that name is reused as is; no
// integrity or freshness check is made.
package asset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"

	"github.com/hazyhaar/automata/internal/safety"
)

// ErrBadURL is returned when a URL has no usable final path segment.
var ErrBadURL = errors.New("asset: URL has no file name")

// Getter retrieves the raw bytes of a URL.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Materializer downloads assets into Dir.
type Materializer struct {
	dir    string
	getter Getter
	logger *slog.Logger
}

// New creates a Materializer writing under dir. getter may be nil when only
// Path and Read are needed.
func New(dir string, getter Getter, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{dir: dir, getter: getter, logger: logger}
}

// Dir returns the asset directory.
func (m *Materializer) Dir() string { return m.dir }

// Handle derives the asset handle of rawURL.
func Handle(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("asset: parse %q: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	switch name {
	case "", ".", "/", "..":
		return "", fmt.Errorf("%w: %q", ErrBadURL, rawURL)
	}
	return name, nil
}

// Materialize makes sure the asset at rawURL exists on disk and returns its
// handle. The download is skipped when the file is already there.
func (m *Materializer) Materialize(ctx context.Context, rawURL string) (string, error) {
	h, err := Handle(rawURL)
	if err != nil {
		return "", err
	}
	p, err := safety.JoinFile(m.dir, h)
	if err != nil {
		return "", fmt.Errorf("asset: %w", err)
	}
	if _, err := os.Stat(p); err == nil {
		return h, nil
	}

	if m.getter == nil {
		return "", fmt.Errorf("asset: %s missing and no fetcher configured", h)
	}
	data, err := m.getter.Get(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("asset: %w", err)
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("asset: mkdir: %w", err)
	}
	if err := safety.WriteFileAtomic(p, data); err != nil {
		return "", fmt.Errorf("asset: %w", err)
	}
	m.logger.Debug("asset: stored", "handle", h, "bytes", len(data))
	return h, nil
}

// Path returns the file path of a handle.
func (m *Materializer) Path(handle string) (string, error) {
	p, err := safety.JoinFile(m.dir, handle)
	if err != nil {
		return "", fmt.Errorf("asset: %w", err)
	}
	return p, nil
}

// Read returns the bytes of a stored asset.
func (m *Materializer) Read(handle string) ([]byte, error) {
	p, err := m.Path(handle)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("asset: read %s: %w", handle, err)
	}
	return data, nil
}
