package ingest

import (
	"context"

	"github.com/namescreen/namescreen/internal/domain"
)

// Repository defines the storage contract for watchlist entries.
type Repository interface {
	Upsert(ctx context.Context, e *domain.Entry) (bool, error)
	Remove(ctx context.Context, id string) error
}

// Normalizer canonicalizes name text into tokens.
type Normalizer interface {
	Normalize(text string) ([]string, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
