// Package memory provides an in-process db.Store: exact cosine
// nearest-neighbor scan and bounded edit-distance lexical match. Suited to
// small deployments and tests; the redis driver carries production load.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agext/levenshtein"

	"github.com/namescreen/namescreen/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// minTokenSimilarity is the edit-distance bound: token pairs below this
// normalized similarity contribute nothing to the lexical score.
const minTokenSimilarity = 0.6

// Store is an in-memory db.Store. Reads take the shared lock; writes
// replace a record's field map wholesale under the exclusive lock, so a
// concurrent reader observes either the previous or the new record, never
// a partial one.
type Store struct {
	mu      sync.RWMutex
	records map[string]map[string]string
	kv      map[string]kvItem
	indexes map[string]*db.IndexDefinition
}

type kvItem struct {
	value     []byte
	expiresAt time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]map[string]string),
		kv:      make(map[string]kvItem),
		indexes: make(map[string]*db.IndexDefinition),
	}
}

// Ping always succeeds for an in-process store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// HSet replaces all fields of a record atomically.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	clone := make(map[string]string, len(fields))
	for k, v := range fields {
		clone[k] = v
	}

	s.mu.Lock()
	s.records[key] = clone
	s.mu.Unlock()
	return nil
}

// HGetAll returns all fields of a record. A missing key yields an empty map.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	rec := s.records[key]
	s.mu.RUnlock()

	out := make(map[string]string, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out, nil
}

// Del removes a record. Deleting an absent key is not an error.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	delete(s.kv, key)
	s.mu.Unlock()
	return nil
}

// Exists reports whether a record is present.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	_, ok := s.records[key]
	s.mu.RUnlock()
	return ok, nil
}

// Get retrieves a KV value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	item, ok := s.kv[key]
	s.mu.RUnlock()

	if !ok || (!item.expiresAt.IsZero() && time.Now().After(item.expiresAt)) {
		return nil, db.ErrKeyNotFound
	}
	return item.value, nil
}

// SetWithTTL stores a KV value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	item := kvItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.kv[key] = item
	s.mu.Unlock()
	return nil
}

// CreateIndex registers an index definition.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	s.indexes[def.Name] = def
	return nil
}

// DropIndex removes an index definition (records stay).
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	return nil
}

// IndexExists reports whether an index is registered.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	_, ok := s.indexes[name]
	s.mu.RUnlock()
	return ok, nil
}

// SearchKNN scans all indexed records and ranks by exact cosine similarity.
// Results are sorted by non-decreasing distance, key ascending on ties, and
// truncated to K.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.K < 0 {
		return nil, &db.Error{Op: db.OpSearch, Err: errNegativeK}
	}
	if q.K == 0 {
		return &db.SearchResult{}, nil
	}

	prefixes, err := s.indexPrefixes(q.IndexName)
	if err != nil {
		return nil, err
	}

	var entries []db.SearchEntry

	s.mu.RLock()
	for key, rec := range s.records {
		if !matchesPrefix(key, prefixes) {
			continue
		}
		vec, err := db.BytesToVector([]byte(rec[db.FieldVector]))
		if err != nil || len(vec) != len(q.Vector) {
			continue
		}
		sim := cosineSimilarity(q.Vector, vec)
		entries = append(entries, db.SearchEntry{
			Key:      key,
			Score:    math.Max(0, sim),
			Distance: 1 - sim,
			Fields:   selectFields(rec, q.ReturnFields),
		})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Distance != entries[j].Distance {
			return entries[i].Distance < entries[j].Distance
		}
		return entries[i].Key < entries[j].Key
	})

	total := len(entries)
	if len(entries) > q.K {
		entries = entries[:q.K]
	}
	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// SearchText scans indexed records and scores them by bounded
// edit-distance token match against the normalized tokens field. Scores
// are normalized similarities in [0,1].
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.TopK <= 0 {
		return nil, &db.Error{Op: db.OpSearch, Err: errNonPositiveK}
	}

	prefixes, err := s.indexPrefixes(q.IndexName)
	if err != nil {
		return nil, err
	}

	var entries []db.SearchEntry

	s.mu.RLock()
	for key, rec := range s.records {
		if !matchesPrefix(key, prefixes) {
			continue
		}
		score := lexicalScore(q.Tokens, strings.Fields(rec[db.FieldTokens]))
		if score <= 0 {
			continue
		}
		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: selectFields(rec, q.ReturnFields),
		})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Key < entries[j].Key
	})

	total := len(entries)
	if len(entries) > q.TopK {
		entries = entries[:q.TopK]
	}
	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// Count returns the number of records under the index prefixes.
func (s *Store) Count(_ context.Context, index string) (int, error) {
	prefixes, err := s.indexPrefixes(index)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for key := range s.records {
		if matchesPrefix(key, prefixes) {
			n++
		}
	}
	return n, nil
}

func (s *Store) indexPrefixes(name string) ([]string, error) {
	s.mu.RLock()
	def, ok := s.indexes[name]
	s.mu.RUnlock()
	if !ok {
		return nil, db.ErrIndexNotFound
	}
	return def.Prefixes, nil
}

func matchesPrefix(key string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func selectFields(rec map[string]string, want []string) map[string]string {
	out := make(map[string]string, len(want))
	if len(want) == 0 {
		for k, v := range rec {
			out[k] = v
		}
		return out
	}
	for _, k := range want {
		if v, ok := rec[k]; ok {
			out[k] = v
		}
	}
	return out
}

// lexicalScore averages the best per-token similarity of query tokens
// against record tokens. An exact full match scores 1.0.
func lexicalScore(queryTokens, recordTokens []string) float64 {
	if len(queryTokens) == 0 || len(recordTokens) == 0 {
		return 0
	}

	var sum float64
	for _, qt := range queryTokens {
		var best float64
		for _, rt := range recordTokens {
			sim := levenshtein.Match(qt, rt, nil)
			if sim > best {
				best = sim
			}
		}
		if best < minTokenSimilarity {
			best = 0
		}
		sum += best
	}
	return sum / float64(len(queryTokens))
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
