// Package store abstracts the document store the scraper persists into.
// The store enforces no uniqueness itself; the ingestion engine owns the
// domain-key invariant.
package store

import "context"

// Write is one document mutation inside an atomic batch commit. An empty
// ID asks the store to assign one.
type Write struct {
	Collection string
	ID         string
	Data       any
}

// Store is the document store consumed by the ingestion pipeline.
type Store interface {
	// DomainKeys returns a snapshot of every lowercased domain key
	// currently persisted.
	DomainKeys(ctx context.Context) (map[string]struct{}, error)
	// HasDomain is the authoritative existence check for one key,
	// issued against the store rather than any snapshot.
	HasDomain(ctx context.Context, key string) (bool, error)
	// CommitBatch applies all writes or none of them.
	CommitBatch(ctx context.Context, writes []Write) error
}
