package entry

import (
	"context"
	"fmt"

	"github.com/namescreen/namescreen/internal/domain"
)

// store is the consumer interface for watchlist entries (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo implements usecase/ingest.Repository over a hash store.
type Repo struct {
	store     store
	keyPrefix string
	vectorDim int
}

// New creates an entry repository. vectorDim is the index's configured
// embedding dimension; upserts carrying any other length are rejected.
func New(s store, keyPrefix string, vectorDim int) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, vectorDim: vectorDim}
}

// Upsert inserts or replaces an entry by identifier. The whole entry is
// written in one atomic HSet, so readers never see derived fields without
// the canonical ones. A vector of the wrong length fails with
// domain.ErrVectorDimMismatch, never silently truncated or padded.
func (r *Repo) Upsert(ctx context.Context, e *domain.Entry) (bool, error) {
	if len(e.Vector()) != r.vectorDim {
		return false, fmt.Errorf(
			"entry %s: got %d dimensions, index configured for %d: %w",
			e.ID(), len(e.Vector()), r.vectorDim, domain.ErrVectorDimMismatch,
		)
	}

	key := r.key(e.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}

	if err := r.store.HSet(ctx, key, buildHashFields(e)); err != nil {
		return false, fmt.Errorf("hset %s: %w", key, err)
	}

	return !exists, nil
}

// Get returns an entry by identifier.
func (r *Repo) Get(ctx context.Context, id string) (domain.Entry, error) {
	key := r.key(id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return domain.Entry{}, domain.ErrEntryNotFound
	}
	return parseHashFields(id, fields)
}

// Remove deletes an entry. Removing an absent identifier is a no-op.
func (r *Repo) Remove(ctx context.Context, id string) error {
	key := r.key(id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.keyPrefix + "entry:" + id
}
