package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/automata/internal/safety"
)

// BrowserConfig configures a Browser.
type BrowserConfig struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome.
	// Empty launches a local headless Chrome on first use.
	RemoteURL string
	// NavTimeout bounds navigation plus load. Default: 30s.
	NavTimeout time.Duration
	// URLValidator runs before each navigation. Default: safety.ValidatePublicURL.
	URLValidator func(string) error
	Logger       *slog.Logger
}

func (c *BrowserConfig) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.URLValidator == nil {
		c.URLValidator = safety.ValidatePublicURL
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Browser fetches rendered page HTML through Chrome. The browser is started
// lazily so configurations that never miss the cache never launch Chrome.
type Browser struct {
	cfg BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewBrowser creates a Browser. Call Close when done.
func NewBrowser(cfg BrowserConfig) *Browser {
	cfg.defaults()
	return &Browser{cfg: cfg}
}

// Get navigates a fresh stealth tab to url and returns the document HTML
// once the load event fired.
func (b *Browser) Get(ctx context.Context, url string) ([]byte, error) {
	if err := b.cfg.URLValidator(url); err != nil {
		return nil, fmt.Errorf("fetch: %s: %w", url, err)
	}
	br, err := b.connect()
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(br)
	if err != nil {
		return nil, fmt.Errorf("fetch: browser: new page: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavTimeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("fetch: browser: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("fetch: browser: wait load %s: %w", url, err)
	}
	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("fetch: browser: html %s: %w", url, err)
	}
	b.cfg.Logger.Debug("fetch: browser page", "url", url, "bytes", len(html))
	return []byte(html), nil
}

// Close disconnects and, when it was launched here, kills Chrome.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Kill()
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return err
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("fetch: browser is closed")
	}
	if b.browser != nil {
		return b.browser, nil
	}

	wsURL := b.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("fetch: browser: launch: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.cfg.Logger.Info("fetch: launched local chrome", "url", wsURL)
	} else {
		b.cfg.Logger.Info("fetch: connecting to remote chrome", "url", wsURL)
	}

	br := rod.New().ControlURL(wsURL)
	if err := br.Connect(); err != nil {
		return nil, fmt.Errorf("fetch: browser: connect: %w", err)
	}
	b.browser = br
	return br, nil
}
