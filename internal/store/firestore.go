package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/nguyenhonglinh/clone-domain/internal/config"
)

// FirestoreStore persists domains and batch manifests into Firestore, the
// same collections the dashboard reads.
type FirestoreStore struct {
	client  *firestore.Client
	domains string
}

// NewFirestore connects to the configured Firestore project.
func NewFirestore(ctx context.Context, cfg config.StoreConfig) (*FirestoreStore, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("store config missing project id")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect firestore: %w", err)
	}
	return &FirestoreStore{client: client, domains: cfg.DomainCollection}, nil
}

// DomainKeys loads the domain field of every stored record, projected to
// keep the snapshot read cheap.
func (s *FirestoreStore) DomainKeys(ctx context.Context) (map[string]struct{}, error) {
	iter := s.client.Collection(s.domains).Select("domain").Documents(ctx)
	defer iter.Stop()

	keys := make(map[string]struct{})
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list domain keys: %w", err)
		}
		v, err := doc.DataAt("domain")
		if err != nil {
			continue
		}
		if domain, ok := v.(string); ok && domain != "" {
			keys[strings.ToLower(domain)] = struct{}{}
		}
	}
	return keys, nil
}

// HasDomain queries the store for one key.
func (s *FirestoreStore) HasDomain(ctx context.Context, key string) (bool, error) {
	iter := s.client.Collection(s.domains).Where("domain", "==", key).Limit(1).Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("domain lookup %q: %w", key, err)
	}
	return true, nil
}

// CommitBatch writes all documents in one atomic Firestore batch.
func (s *FirestoreStore) CommitBatch(ctx context.Context, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}
	batch := s.client.Batch()
	for _, w := range writes {
		coll := s.client.Collection(w.Collection)
		ref := coll.NewDoc()
		if w.ID != "" {
			ref = coll.Doc(w.ID)
		}
		batch.Set(ref, w.Data)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("commit %d writes: %w", len(writes), err)
	}
	return nil
}

// Close releases the Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
