package stats

import "context"

// Store is the consumer interface for index statistics (ISP).
type Store interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	Count(ctx context.Context, index string) (int, error)
}
