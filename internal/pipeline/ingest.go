package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nguyenhonglinh/clone-domain/internal/sources"
	"github.com/nguyenhonglinh/clone-domain/internal/store"
	"github.com/nguyenhonglinh/clone-domain/pkg/types"
)

// IngestError wraps a store failure during ingestion. The batch commit is
// all-or-nothing; nothing is partially applied when this fires.
type IngestError struct {
	Err error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest: %v", e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// Engine deduplicates a batch of candidates against itself and the
// persisted store, then commits the genuinely new records atomically.
type Engine struct {
	store   store.Store
	domains string
	batches string
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine builds the ingestion engine over a document store. domains
// and batches name the target collections.
func NewEngine(st store.Store, domains, batches string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:   st,
		domains: domains,
		batches: batches,
		logger:  logger,
		now:     time.Now,
	}
}

// Ingest applies the dedup algorithm to candidates in extraction order.
//
// existing is the job-start snapshot of stored domain keys, owned by the
// single in-flight job; keys accepted here are added to it so later
// candidates in the same batch are checked against newly accepted
// siblings. Each surviving candidate is additionally confirmed absent via
// an authoritative store query, which closes the race with concurrent
// external writers.
func (e *Engine) Ingest(ctx context.Context, candidates []types.Candidate, src sources.Source, pt sources.PageType, batchID string, existing map[string]struct{}) ([]types.DomainRecord, error) {
	if existing == nil {
		existing = make(map[string]struct{})
	}
	logger := e.logger.With("source", src.ID, "page_type", pt.ID, "batch_id", batchID)

	seen := make(map[string]struct{}, len(candidates))
	var accepted []types.DomainRecord
	var writes []store.Write
	for _, c := range candidates {
		key := c.Key()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if _, known := existing[key]; known {
			logger.Debug("domain already stored, skipping", "domain", key)
			continue
		}
		stored, err := e.store.HasDomain(ctx, key)
		if err != nil {
			return nil, &IngestError{Err: fmt.Errorf("existence check %q: %w", key, err)}
		}
		existing[key] = struct{}{}
		if stored {
			logger.Debug("domain already stored, skipping", "domain", key)
			continue
		}

		rec := types.DomainRecord{
			ID:            uuid.NewString(),
			Domain:        key,
			Age:           c.Age,
			Price:         c.Price,
			EndDate:       c.EndDate,
			TimeLeft:      c.TimeLeft,
			Viewed:        c.Viewed,
			Stars:         c.Stars,
			AuctionURL:    c.AuctionURL,
			SourceID:      src.ID,
			PageTypeID:    pt.ID,
			AuctionStatus: types.AuctionStatusFor(pt.ID),
			BatchID:       batchID,
			CreatedAt:     e.now().UTC(),
			Index:         len(accepted) + 1,
			Status:        types.StatusActive,
		}
		accepted = append(accepted, rec)
		writes = append(writes, store.Write{Collection: e.domains, ID: rec.ID, Data: rec})
	}

	if len(accepted) == 0 {
		logger.Info("no new domains in batch", "candidates", len(candidates))
		return nil, nil
	}

	if err := e.store.CommitBatch(ctx, writes); err != nil {
		return nil, &IngestError{Err: fmt.Errorf("commit batch: %w", err)}
	}

	manifest := types.BatchManifest{
		BatchID:         batchID,
		Timestamp:       e.now().UTC(),
		TotalNewDomains: len(accepted),
		SourceID:        src.ID,
		PageTypeID:      pt.ID,
		Status:          types.ManifestCompleted,
	}
	if err := e.store.CommitBatch(ctx, []store.Write{{Collection: e.batches, ID: batchID, Data: manifest}}); err != nil {
		return nil, &IngestError{Err: fmt.Errorf("write manifest: %w", err)}
	}

	logger.Info("batch committed", "new_domains", len(accepted), "candidates", len(candidates))
	return accepted, nil
}
