package memory

import "errors"

var (
	errNegativeK    = errors.New("k must be non-negative")
	errNonPositiveK = errors.New("topK must be positive")
)
