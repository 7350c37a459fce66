package domain

import (
	"fmt"
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Entry size limits.
const (
	MaxIDLength   = 256
	MaxNameLength = 512
	MaxAliases    = 64
)

// Entry is a watchlist record (immutable value object). Derived fields
// (normalized tokens, embedding vector) are attached during ingestion and
// owned by the index store afterwards.
type Entry struct {
	id        string
	name      string
	aliases   []string
	tokens    []string
	vector    []float32
	source    string
	updatedAt int64 // unix millis
}

// NewEntry validates and creates an Entry without derived fields.
func NewEntry(id, name string, aliases []string, source string, updatedAt int64) (Entry, error) {
	if id == "" {
		return Entry{}, fmt.Errorf("%w: entry ID is required", ErrValidation)
	}
	if len(id) > MaxIDLength {
		return Entry{}, fmt.Errorf("%w: entry ID too long (max %d)", ErrValidation, MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return Entry{}, fmt.Errorf("%w: entry ID must be alphanumeric with ._- only", ErrValidation)
	}
	if name == "" {
		return Entry{}, fmt.Errorf("%w: canonical name is required", ErrValidation)
	}
	if len(name) > MaxNameLength {
		return Entry{}, fmt.Errorf("%w: canonical name too long (max %d bytes)", ErrValidation, MaxNameLength)
	}
	if len(aliases) > MaxAliases {
		return Entry{}, fmt.Errorf("%w: too many aliases (max %d)", ErrValidation, MaxAliases)
	}
	for i, a := range aliases {
		if a == "" {
			return Entry{}, fmt.Errorf("%w: alias %d is empty", ErrValidation, i)
		}
		if len(a) > MaxNameLength {
			return Entry{}, fmt.Errorf("%w: alias %d too long (max %d bytes)", ErrValidation, i, MaxNameLength)
		}
	}

	return Entry{
		id:        id,
		name:      name,
		aliases:   cloneStrings(aliases),
		source:    source,
		updatedAt: updatedAt,
	}, nil
}

// ReconstructEntry creates an Entry without validation (storage hydration).
func ReconstructEntry(
	id, name string, aliases, tokens []string,
	vector []float32, source string, updatedAt int64,
) Entry {
	return Entry{
		id:        id,
		name:      name,
		aliases:   aliases,
		tokens:    tokens,
		vector:    vector,
		source:    source,
		updatedAt: updatedAt,
	}
}

// WithDerived returns a copy carrying the normalized tokens and embedding
// computed during ingestion.
func (e Entry) WithDerived(tokens []string, vector []float32) Entry {
	e.tokens = cloneStrings(tokens)
	e.vector = append([]float32(nil), vector...)
	return e
}

// ID returns the unique entry identifier.
func (e *Entry) ID() string { return e.id }

// Name returns the canonical name.
func (e *Entry) Name() string { return e.name }

// Aliases returns the name variants.
func (e *Entry) Aliases() []string { return e.aliases }

// Tokens returns the cached normalized-token representation.
func (e *Entry) Tokens() []string { return e.tokens }

// Vector returns the embedding vector.
func (e *Entry) Vector() []float32 { return e.vector }

// Source returns the list provenance.
func (e *Entry) Source() string { return e.source }

// UpdatedAt returns the last-updated timestamp in unix millis.
func (e *Entry) UpdatedAt() int64 { return e.updatedAt }

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
