package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the vectorizer is down; lexical-only search still works.
	Degraded Status = "degraded"
	// Unhealthy indicates the index store is down; no search can complete.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db         DBPinger
	vectorizer VectorizerChecker
}

// New creates a Service. vectorizer can be nil.
func New(db DBPinger, vectorizer VectorizerChecker) *Service {
	return &Service{db: db, vectorizer: vectorizer}
}

// Check runs health checks against all components. The index store is
// load-bearing: without it the service is unhealthy. The vectorizer only
// degrades it, because lexical retrieval keeps working.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	status := Healthy

	if err := s.db.Ping(ctx); err != nil {
		checks["index_store"] = CheckError
		status = Unhealthy
	} else {
		checks["index_store"] = CheckOK
	}

	if s.vectorizer != nil {
		if err := s.vectorizer.HealthCheck(ctx); err != nil {
			checks["vectorizer"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["vectorizer"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
