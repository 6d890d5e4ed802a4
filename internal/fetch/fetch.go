// Package fetch retrieves wiki pages and image assets.
//
// Fetcher is a plain HTTP GET client with a bounded body and a URL check
// before every request and redirect. Browser renders pages through a
// headless Chrome driven by Rod for wiki mirrors that require JavaScript.
// Both expose the same Get method. Neither retries: a failed retrieval is
// returned to the caller, which aborts the ingestion run.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hazyhaar/automata/internal/safety"
)

// ErrStatus is wrapped by Get when the server answers outside 2xx.
var ErrStatus = errors.New("fetch: unexpected status")

// Config configures a Fetcher.
type Config struct {
	Timeout  time.Duration // per request. Default: 30s.
	MaxBytes int64         // body cap. Default: 10MB.
	// UserAgent sent with requests.
	UserAgent string
	// URLValidator runs before the request and on every redirect.
	// Default: safety.ValidatePublicURL.
	URLValidator func(string) error
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "nierwiki/1.0"
	}
	if c.URLValidator == nil {
		c.URLValidator = safety.ValidatePublicURL
	}
}

// Fetcher performs HTTP GET requests.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	validate := cfg.URLValidator
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if err := validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Get returns the body of url. A status outside 2xx is an error wrapping
// ErrStatus and no body is returned.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if err := f.config.URLValidator(url); err != nil {
		return nil, fmt.Errorf("fetch: %s: %w", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http %d for %s", ErrStatus, resp.StatusCode, url)
	}

	body, err := safety.LimitedReadAll(resp.Body, f.config.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch: read %s: %w", url, err)
	}
	return body, nil
}
