package ingest

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/namescreen/namescreen/internal/domain"
	"github.com/namescreen/namescreen/internal/normalize"
)

// --- Mocks ---

type mockRepo struct {
	upserted  []*domain.Entry
	upsertErr map[string]error
	created   bool
	removed   []string
	removeErr error
}

func (m *mockRepo) Upsert(_ context.Context, e *domain.Entry) (bool, error) {
	if err, ok := m.upsertErr[e.ID()]; ok {
		return false, err
	}
	m.upserted = append(m.upserted, e)
	return m.created, nil
}

func (m *mockRepo) Remove(_ context.Context, id string) error {
	m.removed = append(m.removed, id)
	return m.removeErr
}

type mockEmbedder struct {
	vec       []float32
	err       error
	lastTexts []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.lastTexts = append(m.lastTexts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func newService(repo *mockRepo, embed *mockEmbedder) *Service {
	return New(repo, normalize.New(), embed, zap.NewNop())
}

// --- Tests ---

func TestUpsert_DerivesTokensAndVector(t *testing.T) {
	repo := &mockRepo{created: true}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2}}
	svc := newService(repo, embed)

	created, err := svc.Upsert(context.Background(), Record{
		ID:      "ofac-001",
		Name:    "Ivan Petrov",
		Aliases: []string{"Petrov, Ivan", "И. Петров"},
		Source:  "ofac",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(repo.upserted))
	}

	e := repo.upserted[0]
	if len(e.Vector()) != 2 {
		t.Errorf("vector not attached: %v", e.Vector())
	}
	// Name tokens first, then alias tokens, deduplicated.
	want := []string{"ivan", "petrov", "и", "петров"}
	if len(e.Tokens()) != len(want) {
		t.Fatalf("tokens = %v, expected %v", e.Tokens(), want)
	}
	for i, tok := range want {
		if e.Tokens()[i] != tok {
			t.Errorf("tokens[%d] = %q, expected %q", i, e.Tokens()[i], tok)
		}
	}

	// The embedding text is the normalized canonical name.
	if len(embed.lastTexts) != 1 || embed.lastTexts[0] != "ivan petrov" {
		t.Errorf("embedded texts = %v", embed.lastTexts)
	}
}

func TestUpsert_InvalidRecord(t *testing.T) {
	svc := newService(&mockRepo{}, &mockEmbedder{vec: []float32{0.1}})

	cases := []struct {
		name string
		rec  Record
	}{
		{"empty id", Record{Name: "Ivan"}},
		{"bad id chars", Record{ID: "id with spaces", Name: "Ivan"}},
		{"empty name", Record{ID: "a1"}},
		{"unsearchable name", Record{ID: "a1", Name: "..."}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upsert(context.Background(), tc.rec)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestUpsert_VectorizerFailureFailsRecord(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockEmbedder{err: errors.New("provider down")})

	_, err := svc.Upsert(context.Background(), Record{ID: "a1", Name: "Ivan"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(repo.upserted) != 0 {
		t.Error("nothing should be written without a vector")
	}
}

func TestRemove(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockEmbedder{})

	if err := svc.Remove(context.Background(), "a1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.removed) != 1 || repo.removed[0] != "a1" {
		t.Errorf("removed = %v", repo.removed)
	}

	if err := svc.Remove(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty id, got %v", err)
	}
}

func TestBatchUpsert_RecordsFailIndependently(t *testing.T) {
	repo := &mockRepo{
		created:   true,
		upsertErr: map[string]error{"bad-dim": domain.ErrVectorDimMismatch},
	}
	svc := newService(repo, &mockEmbedder{vec: []float32{0.1}})

	results := svc.BatchUpsert(context.Background(), []Record{
		{ID: "ok-1", Name: "Ivan Petrov"},
		{Name: "missing id"},
		{ID: "bad-dim", Name: "Anna"},
		{ID: "ok-2", Name: "Olena"},
	})

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if results[0].Err != nil || !results[0].Created {
		t.Errorf("ok-1: %+v", results[0])
	}
	if !errors.Is(results[1].Err, domain.ErrValidation) {
		t.Errorf("missing id: expected ErrValidation, got %v", results[1].Err)
	}
	if !errors.Is(results[2].Err, domain.ErrVectorDimMismatch) {
		t.Errorf("bad-dim: expected ErrVectorDimMismatch, got %v", results[2].Err)
	}
	if results[3].Err != nil || !results[3].Created {
		t.Errorf("ok-2: %+v", results[3])
	}
}

func TestBatchUpsert_VectorizerFailureFailsOnlyValidRecords(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockEmbedder{err: errors.New("provider down")})

	results := svc.BatchUpsert(context.Background(), []Record{
		{ID: "a1", Name: "Ivan"},
		{Name: "no id"},
	})

	if results[0].Err == nil || errors.Is(results[0].Err, domain.ErrValidation) {
		t.Errorf("a1: expected vectorizer error, got %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, domain.ErrValidation) {
		t.Errorf("no id: expected ErrValidation, got %v", results[1].Err)
	}
	if len(repo.upserted) != 0 {
		t.Error("nothing should be written when vectorization fails")
	}
}

func TestBatchUpsert_Empty(t *testing.T) {
	svc := newService(&mockRepo{}, &mockEmbedder{})

	results := svc.BatchUpsert(context.Background(), nil)
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
