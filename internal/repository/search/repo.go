package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/namescreen/namescreen/internal/db"
	"github.com/namescreen/namescreen/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Repository over a db.Searcher.
type Repo struct {
	store     store
	indexName string
	keyPrefix string
}

// New creates a search repository.
func New(s store, indexName, keyPrefix string) *Repo {
	return &Repo{store: s, indexName: indexName, keyPrefix: keyPrefix}
}

// NearestNeighbors returns up to k entries ranked by vector similarity,
// non-increasing. Scores are cosine similarity clamped to [0,1].
func (r *Repo) NearestNeighbors(ctx context.Context, vector []float32, k int) ([]result.Hit, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{db.FieldName},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return r.toHits(res), nil
}

// TextSearch returns up to limit entries ranked by lexical match,
// non-increasing. Driver-native scores above 1 (BM25) are normalized by
// the list maximum so the query engine always merges [0,1] signals.
func (r *Repo) TextSearch(ctx context.Context, tokens []string, limit int) ([]result.Hit, error) {
	res, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    r.indexName,
		Tokens:       tokens,
		TopK:         limit,
		ReturnFields: []string{db.FieldName},
	})
	if err != nil {
		return nil, fmt.Errorf("search text: %w", err)
	}

	hits := r.toHits(res)
	normalizeScores(hits)
	return hits, nil
}

func (r *Repo) toHits(res *db.SearchResult) []result.Hit {
	hits := make([]result.Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		hits = append(hits, result.Hit{
			ID:    r.entryID(e.Key),
			Name:  e.Fields[db.FieldName],
			Score: e.Score,
		})
	}
	return hits
}

func (r *Repo) entryID(key string) string {
	return strings.TrimPrefix(key, r.keyPrefix+"entry:")
}

func normalizeScores(hits []result.Hit) {
	var maxScore float64
	for i := range hits {
		if hits[i].Score > maxScore {
			maxScore = hits[i].Score
		}
	}
	if maxScore <= 1 {
		return
	}
	for i := range hits {
		hits[i].Score /= maxScore
	}
}
