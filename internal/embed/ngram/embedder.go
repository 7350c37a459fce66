// Package ngram provides a local, deterministic vectorizer: hashed
// character n-gram features. No model artifact, no network — same
// normalized input always produces the same vector, bit for bit. Quality
// trails a learned embedding but the signal is adequate for name-shape
// similarity, and it keeps the service answerable when no remote
// vectorizer is configured.
package ngram

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/namescreen/namescreen/internal/domain"
)

const gramSize = 3

// Embedder implements domain.Embedder via the hashing trick over
// character trigrams with word-boundary markers.
type Embedder struct {
	dim int
}

// New creates an n-gram embedder of the given fixed dimension.
func New(dim int) (*Embedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	return &Embedder{dim: dim}, nil
}

// Dimensions returns the configured vector dimension.
func (e *Embedder) Dimensions() int { return e.dim }

// Embed maps text to an L2-normalized feature vector of the configured
// dimension. Empty input yields the zero vector, not an error, so
// degenerate queries still complete.
func (e *Embedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec := make([]float32, e.dim)

	for _, word := range strings.Fields(text) {
		runes := []rune("^" + word + "$")
		if len(runes) < gramSize {
			e.add(vec, string(runes))
			continue
		}
		for i := 0; i+gramSize <= len(runes); i++ {
			e.add(vec, string(runes[i:i+gramSize]))
		}
	}

	normalize(vec)
	return domain.EmbeddingResult{Embedding: vec}, nil
}

// add accumulates one feature. A second hash bit supplies the sign,
// halving the bias of bucket collisions.
func (e *Embedder) add(vec []float32, gram string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(gram))
	sum := h.Sum64()

	idx := int(sum % uint64(e.dim))
	if sum&(1<<63) != 0 {
		vec[idx]--
	} else {
		vec[idx]++
	}
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
