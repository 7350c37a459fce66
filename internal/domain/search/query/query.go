package query

import (
	"fmt"

	"github.com/namescreen/namescreen/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length in bytes.
	MaxQueryLength = 1024
	DefaultLimit   = 10
	MaxLimit       = 100
)

// Query is a validated search request. Created per request, never persisted.
type Query struct {
	raw       string
	limit     int
	threshold float64
}

// New validates and normalizes search parameters.
// limit 0 means unset and takes the default; a limit above MaxLimit is
// clamped, not rejected. An explicit non-positive limit is the transport
// layer's concern (it can tell "absent" from "zero").
func New(raw string, limit int, threshold float64) (Query, error) {
	if raw == "" {
		return Query{}, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if len(raw) > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d bytes)", domain.ErrValidation, MaxQueryLength)
	}
	if limit < 0 {
		return Query{}, fmt.Errorf("%w: limit must be positive", domain.ErrValidation)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if threshold < 0 || threshold > 1 {
		return Query{}, fmt.Errorf("%w: threshold must be between 0 and 1", domain.ErrValidation)
	}

	return Query{raw: raw, limit: limit, threshold: threshold}, nil
}

// Raw returns the raw input string.
func (q *Query) Raw() string { return q.raw }

// Limit returns the maximum results to return.
func (q *Query) Limit() int { return q.limit }

// Threshold returns the minimum composite score post-filter.
func (q *Query) Threshold() float64 { return q.threshold }
