package search

import (
	"context"

	"github.com/namescreen/namescreen/internal/domain"
	"github.com/namescreen/namescreen/internal/domain/search/result"
)

// Repository defines the storage contract for search operations. Both
// methods return hits ranked non-increasing with scores in [0,1].
type Repository interface {
	NearestNeighbors(ctx context.Context, vector []float32, k int) ([]result.Hit, error)
	TextSearch(ctx context.Context, tokens []string, limit int) ([]result.Hit, error)
}

// Normalizer canonicalizes raw query text into tokens.
type Normalizer interface {
	Normalize(text string) ([]string, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
