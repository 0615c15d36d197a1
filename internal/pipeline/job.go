// Package pipeline composes fetching, extraction, deduplication, and
// persistence into one synchronous scrape job.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nguyenhonglinh/clone-domain/internal/extractor"
	"github.com/nguyenhonglinh/clone-domain/internal/fetcher"
	"github.com/nguyenhonglinh/clone-domain/internal/sources"
	"github.com/nguyenhonglinh/clone-domain/internal/store"
	"github.com/nguyenhonglinh/clone-domain/pkg/types"
)

// SessionOpener acquires a fetch session for the duration of one job. The
// page type decides whether a browser is needed.
type SessionOpener func(ctx context.Context, pt sources.PageType) (fetcher.Session, error)

// Runner executes scrape jobs end to end, one at a time.
type Runner struct {
	registry  *sources.Registry
	store     store.Store
	open      SessionOpener
	engine    *Engine
	pageDelay time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewRunner wires the orchestrator.
func NewRunner(registry *sources.Registry, st store.Store, open SessionOpener, engine *Engine, pageDelay time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry:  registry,
		store:     st,
		open:      open,
		engine:    engine,
		pageDelay: pageDelay,
		logger:    logger,
		now:       time.Now,
	}
}

// RunJob scrapes one (source, page type) pair to completion and returns
// the newly accepted records. Running it twice over unchanged source data
// accepts nothing the second time.
func (r *Runner) RunJob(ctx context.Context, sourceID, typeID string) ([]types.DomainRecord, error) {
	src, pt, err := r.registry.LookupType(sourceID, typeID)
	if err != nil {
		return nil, err
	}

	batchID := r.now().UTC().Format(time.RFC3339)
	logger := r.logger.With("source", src.ID, "page_type", pt.ID, "batch_id", batchID)

	existing, err := r.store.DomainKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load domain snapshot: %w", err)
	}
	logger.Info("starting scrape job", "known_domains", len(existing))

	session, err := r.open(ctx, pt)
	if err != nil {
		return nil, fmt.Errorf("open fetch session: %w", err)
	}
	defer session.Close()

	driver := NewDriver(&sessionLoader{session: session}, NewPacer(r.pageDelay), logger)
	candidates, err := driver.Run(ctx, src, pt)

	// The browser is released before any store round-trips, whatever the
	// pagination outcome was.
	session.Close()
	if err != nil {
		return nil, err
	}
	logger.Info("pagination finished", "candidates", len(candidates))

	accepted, err := r.engine.Ingest(ctx, candidates, src, pt, batchID, existing)
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// sessionLoader adapts one fetch session plus the extractor into the
// pagination driver's Loader.
type sessionLoader struct {
	session fetcher.Session
}

func (l *sessionLoader) Load(ctx context.Context, pageURL string, src sources.Source, pt sources.PageType) ([]types.Candidate, error) {
	page, err := l.session.Fetch(ctx, pageURL, pt)
	if err != nil {
		return nil, err
	}
	return extractor.Extract(page, src, pt)
}
