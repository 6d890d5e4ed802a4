// Package nierwiki harvests the NieR:Automata wiki into a local SQLite store
// and answers queries over it.
//
// The ingest pipeline:
//
//	fetch → fetchcache → extract → assemble → store
//
// Pages go through a trust-forever cache file, images are written to a flat
// asset directory, and every row is inserted once and never changed.
//
// Usage:
//
//	svc, err := nierwiki.New(cfg, logger)
//	defer svc.Close()
//	if need, _ := svc.NeedsIngest(ctx); need {
//	    svc.Ingest(ctx)
//	}
//	quests, err := svc.Quests(ctx, nierwiki.QuestFilter{Category: "side"})
package nierwiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/hazyhaar/automata/dbopen"
	"github.com/hazyhaar/automata/internal/assemble"
	"github.com/hazyhaar/automata/internal/asset"
	"github.com/hazyhaar/automata/internal/extract"
	"github.com/hazyhaar/automata/internal/fetch"
	"github.com/hazyhaar/automata/internal/fetchcache"
	"github.com/hazyhaar/automata/internal/markup"
	"github.com/hazyhaar/automata/internal/safety"
	"github.com/hazyhaar/automata/internal/store"
)

// Service is the nierwiki orchestrator.
type Service struct {
	store    *store.Store
	config   *Config
	logger   *slog.Logger
	readOnly bool
	// existed records whether the store file was present before Open or
	// has since been populated by Ingest.
	existed bool
}

// Option configures New.
type Option func(*Service)

// WithReadOnly opens the store with query_only; Ingest then fails.
func WithReadOnly() Option { return func(s *Service) { s.readOnly = true } }

// New validates cfg and opens the store.
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{config: cfg, logger: logger}
	for _, o := range opts {
		o(s)
	}

	s.existed = dbopen.Exists(cfg.DBPath)
	dbOpts := []dbopen.Option{
		dbopen.WithBusyTimeout(cfg.Store.BusyTimeoutMS),
		dbopen.WithSynchronous(cfg.Store.Synchronous),
	}
	if s.readOnly {
		dbOpts = append(dbOpts, dbopen.WithQueryOnly())
	}
	st, err := store.Open(cfg.DBPath, dbOpts...)
	if err != nil {
		return nil, err
	}
	s.store = st
	return s, nil
}

// Close closes the store.
func (s *Service) Close() error {
	return s.store.Close()
}

// Store returns the underlying store for direct access (testing, admin).
func (s *Service) Store() *store.Store {
	return s.store
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

// NeedsIngest reports whether the store must be populated: the database
// file did not exist before New, or it holds no completed ingest run.
func (s *Service) NeedsIngest(ctx context.Context) (bool, error) {
	if !s.existed {
		return true, nil
	}
	run, err := s.store.LastCompletedRun(ctx)
	if err != nil {
		return false, err
	}
	return run == nil, nil
}

// IngestReport summarises one ingest run.
type IngestReport struct {
	RunID      string            `json:"run_id"`
	Load       *store.LoadReport `json:"load"`
	Unresolved []string          `json:"unresolved,omitempty"`
	Cache      fetchcache.Stats  `json:"cache"`
}

// Ingest runs the whole pipeline once. Any fetch or parse failure aborts the
// run; pages fetched before the failure stay in the cache. The run and its
// outcome are recorded in the store.
func (s *Service) Ingest(ctx context.Context) (rep *IngestReport, err error) {
	if s.readOnly {
		return nil, ErrReadOnly
	}
	runID, err := s.store.BeginRun(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ingest: start", "run_id", runID, "base_url", s.config.Source.BaseURL)

	rep = &IngestReport{RunID: runID}
	defer func() {
		if ferr := s.store.FinishRun(context.WithoutCancel(ctx), runID, rep.Load, err); ferr != nil {
			s.logger.Error("ingest: record run", "run_id", runID, "error", ferr)
		}
		if err != nil {
			s.logger.Error("ingest: failed", "run_id", runID, "error", err)
			rep = nil
		}
	}()

	pages, closePages := s.pageGetter()
	defer closePages()

	flush, _ := fetchcache.ParseFlushPolicy(s.config.CacheFlush)
	cache, err := fetchcache.Open(s.config.CachePath, pages, fetchcache.Options{Flush: flush, Logger: s.logger})
	if err != nil {
		return rep, fmt.Errorf("ingest: %w", err)
	}
	defer func() {
		if cerr := cache.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("ingest: %w", cerr)
		}
		rep.Cache = cache.Stats()
	}()

	assets := asset.New(s.config.AssetDir, s.httpFetcher(), s.logger)
	ex, err := extract.New(cache, assets, s.config.Source, s.config.aliases(), s.logger)
	if err != nil {
		return rep, fmt.Errorf("ingest: %w", err)
	}
	h, err := ex.All(ctx)
	if err != nil {
		return rep, fmt.Errorf("ingest: %w", err)
	}
	s.logger.Info("ingest: extracted",
		"characters", len(h.Characters),
		"locations", len(h.Locations),
		"quests", len(h.Quests),
		"catchables", len(h.Catchables),
	)

	res, err := assemble.Resolve(h, assemble.Options{Strict: s.config.StrictRefs})
	if err != nil {
		return rep, fmt.Errorf("ingest: %w", err)
	}
	for _, q := range res.Unresolved {
		rep.Unresolved = append(rep.Unresolved, q.Name)
		s.logger.Warn("ingest: unresolved quest location", "quest", q.Name, "location", q.LocationText)
	}

	rep.Load, err = s.store.Load(ctx, res, assets)
	if err != nil {
		return rep, fmt.Errorf("ingest: %w", err)
	}
	s.logger.Info("ingest: done",
		"run_id", runID,
		"inserted", rep.Load.TotalInserted(),
		"skipped", rep.Load.TotalSkipped(),
	)
	s.existed = true
	return rep, nil
}

func (s *Service) validator() func(string) error {
	if s.config.Fetch.AllowPrivate {
		return safety.CheckScheme
	}
	return safety.ValidatePublicURL
}

func (s *Service) httpFetcher() *fetch.Fetcher {
	return fetch.New(fetch.Config{
		Timeout:      s.config.Fetch.Timeout,
		MaxBytes:     s.config.Fetch.MaxBytes,
		UserAgent:    s.config.Fetch.UserAgent,
		URLValidator: s.validator(),
	})
}

// pageGetter returns the page retrieval backend and its release function.
func (s *Service) pageGetter() (fetchcache.Getter, func()) {
	if s.config.Fetch.Mode != FetchBrowser {
		return s.httpFetcher(), func() {}
	}
	b := fetch.NewBrowser(fetch.BrowserConfig{
		RemoteURL:    s.config.Fetch.BrowserURL,
		NavTimeout:   s.config.Fetch.Timeout,
		URLValidator: s.validator(),
		Logger:       s.logger,
	})
	return b, func() {
		if err := b.Close(); err != nil {
			s.logger.Warn("ingest: close browser", "error", err)
		}
	}
}

// Inspect renders the first element matching selector on the page at
// rawURL as markdown. The page is read through the cache and fetched on a
// miss. An empty selector means #wiki-content-block.
func (s *Service) Inspect(ctx context.Context, rawURL, selector string, w io.Writer) error {
	if selector == "" {
		selector = "#wiki-content-block"
	}
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("%w: url %q must be absolute", ErrInvalidInput, rawURL)
	}

	pages, closePages := s.pageGetter()
	defer closePages()
	cache, err := fetchcache.Open(s.config.CachePath, pages, fetchcache.Options{Logger: s.logger})
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	src, err := cache.GetOrFetch(ctx, rawURL)
	if cerr := cache.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}

	doc, err := markup.Parse(src)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	n := markup.First(doc, selector)
	if n == nil {
		return fmt.Errorf("inspect: %w: %q", extract.ErrMissingElement, selector)
	}
	md, err := markup.Markdown(n, u.Scheme+"://"+u.Host)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	_, err = io.WriteString(w, md+"\n")
	return err
}

// ImagePath returns the file of a materialized asset.
func (s *Service) ImagePath(handle string) (string, error) {
	return asset.New(s.config.AssetDir, nil, s.logger).Path(handle)
}

// LastRun returns the most recent ingest run, or nil.
func (s *Service) LastRun(ctx context.Context) (*store.Run, error) {
	return s.store.LastRun(ctx)
}

// isInput reports whether err is a caller mistake rather than a failure.
func isInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, store.ErrUnknownKind)
}
