// Package ingest maintains the watchlist: it derives the searchable
// representation (normalized tokens, embedding vector) for each entry and
// writes it to the index store.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/namescreen/namescreen/internal/domain"
)

// Record is one watchlist entry as submitted for ingestion.
type Record struct {
	ID      string
	Name    string
	Aliases []string
	Source  string
}

// Result reports the outcome of one record in a batch. Records fail
// independently; one bad record never aborts its batch.
type Result struct {
	ID      string
	Created bool
	Err     error
}

// Service coordinates entry ingestion.
type Service struct {
	repo   Repository
	norm   Normalizer
	embed  Embedder
	logger *zap.Logger
}

// New creates an ingestion service.
func New(repo Repository, norm Normalizer, embed Embedder, logger *zap.Logger) *Service {
	return &Service{repo: repo, norm: norm, embed: embed, logger: logger}
}

// Upsert validates a record, derives its tokens and vector, and writes it.
// Returns true when the entry did not exist before.
//
// Ingestion requires the vectorizer: a write without a vector would be
// invisible to the primary signal, so a vectorizer failure fails the record.
func (s *Service) Upsert(ctx context.Context, rec Record) (bool, error) {
	entry, tokens, nameText, err := s.prepare(rec)
	if err != nil {
		return false, err
	}

	embRes, err := s.embed.Embed(ctx, nameText)
	if err != nil {
		return false, fmt.Errorf("vectorize entry %s: %w", rec.ID, err)
	}

	derived := entry.WithDerived(tokens, embRes.Embedding)

	created, err := s.repo.Upsert(ctx, &derived)
	if err != nil {
		return false, fmt.Errorf("store entry %s: %w", rec.ID, err)
	}

	s.logger.Debug("Entry upserted",
		zap.String("id", rec.ID),
		zap.Bool("created", created),
		zap.Int("tokens", len(tokens)),
	)
	return created, nil
}

// Remove deletes an entry. Removing an absent identifier is a no-op.
func (s *Service) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: entry ID is required", domain.ErrValidation)
	}
	if err := s.repo.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove entry %s: %w", id, err)
	}
	return nil
}

// BatchUpsert ingests records with one vectorizer round trip for all valid
// ones. Results line up with the input order.
func (s *Service) BatchUpsert(ctx context.Context, recs []Record) []Result {
	results := make([]Result, len(recs))

	entries := make([]domain.Entry, len(recs))
	tokenSets := make([][]string, len(recs))
	texts := make([]string, 0, len(recs))
	textIdx := make([]int, 0, len(recs))

	for i, rec := range recs {
		results[i].ID = rec.ID
		entry, tokens, nameText, err := s.prepare(rec)
		if err != nil {
			results[i].Err = err
			continue
		}
		entries[i] = entry
		tokenSets[i] = tokens
		texts = append(texts, nameText)
		textIdx = append(textIdx, i)
	}

	if len(texts) == 0 {
		return results
	}

	batch, err := s.embedBatch(ctx, texts)
	if err != nil {
		for _, i := range textIdx {
			results[i].Err = fmt.Errorf("vectorize entry %s: %w", recs[i].ID, err)
		}
		return results
	}

	for pos, i := range textIdx {
		derived := entries[i].WithDerived(tokenSets[i], batch.Embeddings[pos])
		created, err := s.repo.Upsert(ctx, &derived)
		if err != nil {
			results[i].Err = fmt.Errorf("store entry %s: %w", recs[i].ID, err)
			continue
		}
		results[i].Created = created
	}

	return results
}

// prepare validates the record and derives its normalized representation:
// the embedding text is the normalized canonical name (same form queries
// are embedded in), the token set covers the name and every alias.
func (s *Service) prepare(rec Record) (domain.Entry, []string, string, error) {
	entry, err := domain.NewEntry(rec.ID, rec.Name, rec.Aliases, rec.Source, time.Now().UnixMilli())
	if err != nil {
		return domain.Entry{}, nil, "", err
	}

	nameTokens, err := s.norm.Normalize(rec.Name)
	if err != nil {
		return domain.Entry{}, nil, "", fmt.Errorf("normalize name: %w", err)
	}
	if len(nameTokens) == 0 {
		return domain.Entry{}, nil, "", fmt.Errorf("%w: name contains no searchable characters", domain.ErrValidation)
	}

	tokens := nameTokens
	seen := make(map[string]struct{}, len(nameTokens))
	for _, t := range nameTokens {
		seen[t] = struct{}{}
	}
	for _, alias := range rec.Aliases {
		aliasTokens, err := s.norm.Normalize(alias)
		if err != nil {
			return domain.Entry{}, nil, "", fmt.Errorf("normalize alias %q: %w", alias, err)
		}
		for _, t := range aliasTokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tokens = append(tokens, t)
		}
	}

	return entry, tokens, strings.Join(nameTokens, " "), nil
}

// embedBatch uses native batch support when the provider has it.
func (s *Service) embedBatch(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := s.embed.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, s.embed, texts)
}
