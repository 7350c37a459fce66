package domain

import "errors"

var (
	// ErrValidation signals bad client input (empty query, non-positive limit).
	ErrValidation = errors.New("validation failed")
	// ErrEncoding signals malformed text encoding in the input.
	ErrEncoding = errors.New("malformed text encoding")
	// ErrEntryNotFound signals a missing watchlist entry.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrVectorDimMismatch signals an embedding whose length disagrees with the index dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrUpstreamUnavailable signals an unreachable index store.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrVectorizerUnavailable signals a vectorizer failure. Lexical-only
	// search can still proceed, so this is kept separate from ErrUpstreamUnavailable.
	ErrVectorizerUnavailable = errors.New("vectorizer unavailable")
	// ErrTimeout signals that a request exceeded its deadline. Surfaced distinctly
	// from ErrUpstreamUnavailable so callers can tell "retry later" from "retry now".
	ErrTimeout = errors.New("request timed out")
)
