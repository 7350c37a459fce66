package health

import "context"

// DBPinger checks index store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// VectorizerChecker checks vectorizer availability.
type VectorizerChecker interface {
	HealthCheck(ctx context.Context) error
}
