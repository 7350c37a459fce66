// Package search is the query engine: it turns one raw query string into a
// ranked, merged list of watchlist matches.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/namescreen/namescreen/internal/domain"
	"github.com/namescreen/namescreen/internal/domain/search/query"
	"github.com/namescreen/namescreen/internal/domain/search/result"
	"github.com/namescreen/namescreen/internal/normalize"
)

// maxCandidates caps how many raw hits each signal fetches before merging.
const maxCandidates = 300

// candidateMultiplier over-fetches per signal so the merged ranking is not
// starved by entries that only one signal found.
const candidateMultiplier = 3

// Response is a completed search with its resolved query metadata.
type Response struct {
	Results    []result.Result
	Normalized string
	Language   string
	Degraded   bool
}

// Service coordinates normalization, vectorization, and the two retrieval
// signals. A vectorizer failure degrades the search to lexical-only instead
// of failing it; an index store failure fails it.
type Service struct {
	repo    Repository
	norm    Normalizer
	embed   Embedder
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a search service. timeout bounds one whole search; zero means
// the caller's context is the only bound.
func New(repo Repository, norm Normalizer, embed Embedder, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{repo: repo, norm: norm, embed: embed, timeout: timeout, logger: logger}
}

// Search executes the full pipeline: normalize, vectorize, run both signals
// concurrently, merge, threshold, truncate.
func (s *Service) Search(ctx context.Context, q *query.Query) (*Response, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tokens, err := s.norm.Normalize(q.Raw())
	if err != nil {
		return nil, fmt.Errorf("normalize query: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: query contains no searchable characters", domain.ErrValidation)
	}

	normalized := strings.Join(tokens, " ")
	language := normalize.DetectLanguage(q.Raw())

	k := q.Limit() * candidateMultiplier
	if k > maxCandidates {
		k = maxCandidates
	}

	var (
		vecHits  []result.Hit
		lexHits  []result.Hit
		degraded bool
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		embRes, embErr := s.embed.Embed(gctx, normalized)
		if embErr != nil {
			if isCtxErr(embErr) {
				return embErr
			}
			// Lexical retrieval still works without the vectorizer.
			s.logger.Warn("Vectorizer unavailable, degrading to lexical-only search",
				zap.Error(embErr))
			degraded = true
			return nil
		}

		hits, knnErr := s.repo.NearestNeighbors(gctx, embRes.Embedding, k)
		if knnErr != nil {
			return fmt.Errorf("vector search: %w: %w", domain.ErrUpstreamUnavailable, knnErr)
		}
		vecHits = hits
		return nil
	})

	g.Go(func() error {
		hits, lexErr := s.repo.TextSearch(gctx, tokens, k)
		if lexErr != nil {
			return fmt.Errorf("lexical search: %w: %w", domain.ErrUpstreamUnavailable, lexErr)
		}
		lexHits = hits
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: search did not complete in time", domain.ErrTimeout)
		}
		return nil, err
	}

	results := mergeHits(vecHits, lexHits)
	results = applyThreshold(results, q.Threshold())
	if len(results) > q.Limit() {
		results = results[:q.Limit()]
	}

	return &Response{
		Results:    results,
		Normalized: normalized,
		Language:   language,
		Degraded:   degraded,
	}, nil
}

func isCtxErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
