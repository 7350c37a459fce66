// Package stats reports the size of the watchlist index and the active
// vectorizer configuration.
package stats

import (
	"context"
	"fmt"

	"github.com/namescreen/namescreen/internal/domain"
)

// Report is a point-in-time snapshot of the index and vectorizer.
type Report struct {
	IndexName   string
	IndexExists bool
	Entries     int
	Provider    string
	Dimensions  int
}

// Service assembles index statistics.
type Service struct {
	store      Store
	indexName  string
	provider   string
	dimensions int
}

// New creates a stats service. Provider and dimensions describe the
// configured vectorizer; they are static per process.
func New(store Store, indexName, provider string, dimensions int) *Service {
	return &Service{store: store, indexName: indexName, provider: provider, dimensions: dimensions}
}

// Snapshot reports whether the index exists and how many entries it holds.
func (s *Service) Snapshot(ctx context.Context) (Report, error) {
	rep := Report{IndexName: s.indexName, Provider: s.provider, Dimensions: s.dimensions}

	exists, err := s.store.IndexExists(ctx, s.indexName)
	if err != nil {
		return Report{}, fmt.Errorf("index info: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	rep.IndexExists = exists
	if !exists {
		return rep, nil
	}

	n, err := s.store.Count(ctx, s.indexName)
	if err != nil {
		return Report{}, fmt.Errorf("count entries: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	rep.Entries = n
	return rep, nil
}
