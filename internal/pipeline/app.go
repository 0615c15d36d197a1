package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nguyenhonglinh/clone-domain/internal/config"
	"github.com/nguyenhonglinh/clone-domain/internal/fetcher"
	"github.com/nguyenhonglinh/clone-domain/internal/sources"
	"github.com/nguyenhonglinh/clone-domain/internal/store"
)

// App wires the full scraping pipeline from configuration and owns the
// resources behind it.
type App struct {
	Runner   *Runner
	Registry *sources.Registry

	closers   []func() error
	closeOnce sync.Once
}

// NewApp builds the registry, store, and runner from configuration.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	catalog := sources.DefaultCatalog()
	if cfg.Scrape.SourcesFile != "" {
		loaded, err := sources.LoadCatalog(cfg.Scrape.SourcesFile)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}
	registry, err := sources.NewRegistry(catalog)
	if err != nil {
		return nil, fmt.Errorf("build source registry: %w", err)
	}

	fs, err := store.NewFirestore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	open := func(ctx context.Context, pt sources.PageType) (fetcher.Session, error) {
		if pt.Render {
			return fetcher.NewBrowserSession(ctx, fetcher.BrowserOptions{
				Headless:     cfg.Browser.Headless,
				NoSandbox:    cfg.Browser.NoSandbox,
				UserAgent:    cfg.Browser.UserAgent,
				NavTimeout:   cfg.Browser.NavTimeout.Duration,
				ReadyTimeout: cfg.Browser.ReadyTimeout.Duration,
				SettleDelay:  cfg.Browser.SettleDelay.Duration,
			}, logger)
		}
		return fetcher.NewHTTPSession(fetcher.Options{
			UserAgent:    cfg.Browser.UserAgent,
			Timeout:      cfg.Scrape.RequestTimeout.Duration,
			MaxBodyBytes: cfg.Scrape.MaxBodyBytes,
		}), nil
	}

	engine := NewEngine(fs, cfg.Store.DomainCollection, cfg.Store.BatchCollection, logger)
	runner := NewRunner(registry, fs, open, engine, cfg.Scrape.PageDelay.Duration, logger)

	return &App{
		Runner:   runner,
		Registry: registry,
		closers:  []func() error{fs.Close},
	}, nil
}

// Close releases resources owned by the app.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		for _, closer := range a.closers {
			if cerr := closer(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}
	})
	return err
}
