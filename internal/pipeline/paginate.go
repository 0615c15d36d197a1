package pipeline

import (
	"context"
	"log/slog"

	"github.com/nguyenhonglinh/clone-domain/internal/sources"
	"github.com/nguyenhonglinh/clone-domain/pkg/types"
)

// Loader turns one listing page URL into extracted candidates.
type Loader interface {
	Load(ctx context.Context, pageURL string, src sources.Source, pt sources.PageType) ([]types.Candidate, error)
}

// Driver walks the pages of one page type strictly in sequence, one page
// at a time, against a single fetch session.
type Driver struct {
	loader Loader
	pacer  *Pacer
	logger *slog.Logger
}

// NewDriver builds a pagination driver.
func NewDriver(loader Loader, pacer *Pacer, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{loader: loader, pacer: pacer, logger: logger}
}

// Run accumulates candidates across all pages of the type. A first-page
// failure aborts the whole job; a later-page failure truncates the run
// and keeps what was already gathered. Cancellation is honoured only at
// page boundaries so the fetch session is never left mid-navigation.
func (d *Driver) Run(ctx context.Context, src sources.Source, pt sources.PageType) ([]types.Candidate, error) {
	if !pt.Paginates {
		return d.loader.Load(ctx, pt.URL, src, pt)
	}

	maxPages := pt.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	var all []types.Candidate
	for page := 1; page <= maxPages; page++ {
		if err := d.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		pageURL := pt.PageURL(page)
		rows, err := d.loader.Load(ctx, pageURL, src, pt)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			d.logger.Warn("page failed, truncating run",
				"url", pageURL, "page", page, "kept_rows", len(all), "error", err)
			break
		}

		d.logger.Info("page scraped", "url", pageURL, "page", page, "rows", len(rows))
		all = append(all, rows...)
	}
	return all, nil
}
