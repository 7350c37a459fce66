// Package chi is the HTTP transport: request decoding, domain error
// mapping, and response shaping for the screening API.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/namescreen/namescreen/internal/domain"
	"github.com/namescreen/namescreen/internal/domain/search/query"
	"github.com/namescreen/namescreen/internal/metrics"
	"github.com/namescreen/namescreen/internal/normalize"
	healthuc "github.com/namescreen/namescreen/internal/usecase/health"
	ingestuc "github.com/namescreen/namescreen/internal/usecase/ingest"
	searchuc "github.com/namescreen/namescreen/internal/usecase/search"
	statsuc "github.com/namescreen/namescreen/internal/usecase/stats"
	"github.com/namescreen/namescreen/internal/version"
)

// normalizer is the consumer interface for the normalize endpoint.
type normalizer interface {
	Normalize(text string) ([]string, error)
}

// sentinelMapping maps one domain sentinel to an HTTP status and error code.
type sentinelMapping struct {
	sentinel error
	status   int
	code     string
}

// Server hosts the HTTP handlers.
type Server struct {
	search       *searchuc.Service
	ingest       *ingestuc.Service
	health       *healthuc.Service
	stats        *statsuc.Service
	norm         normalizer
	maxBatchSize int
	logger       *zap.Logger
	mappings     []sentinelMapping
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	stats *statsuc.Service,
	norm normalizer,
	maxBatchSize int,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:       search,
		ingest:       ingest,
		health:       health,
		stats:        stats,
		norm:         norm,
		maxBatchSize: maxBatchSize,
		logger:       logger,
		mappings: []sentinelMapping{
			{domain.ErrValidation, http.StatusBadRequest, codeValidationFailed},
			{domain.ErrEncoding, http.StatusBadRequest, codeEncodingError},
			{domain.ErrVectorDimMismatch, http.StatusBadRequest, codeDimensionMismatch},
			{domain.ErrEntryNotFound, http.StatusNotFound, codeNotFound},
			{domain.ErrUpstreamUnavailable, http.StatusServiceUnavailable, codeUpstreamUnavailable},
			{domain.ErrVectorizerUnavailable, http.StatusServiceUnavailable, codeUpstreamUnavailable},
			{domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout},
		},
	}
}

// Routes mounts all handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.Search)
	r.Post("/normalize", s.Normalize)
	r.Get("/health", s.HealthCheck)
	r.Get("/stats", s.Stats)
	r.Get("/metrics", s.Metrics)
	r.Put("/entries/{id}", s.UpsertEntry)
	r.Delete("/entries/{id}", s.DeleteEntry)
	r.Post("/entries/batch", s.BatchUpsert)
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// An explicit non-positive limit is a caller mistake; an absent one
	// takes the default inside query.New.
	if req.Limit != nil && *req.Limit <= 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be positive")
		return
	}

	q, err := query.New(req.Query, derefInt(req.Limit), derefFloat(req.Threshold))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	start := time.Now()

	resp, err := s.search.Search(r.Context(), &q)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		s.handleDomainError(w, err)
		return
	}

	status := "success"
	if resp.Degraded {
		status = "degraded"
	}
	metrics.SearchRequestsTotal.WithLabelValues(status).Inc()
	metrics.SearchResultsReturned.WithLabelValues(resp.Language).Observe(float64(len(resp.Results)))

	items := make([]resultItem, len(resp.Results))
	for i := range resp.Results {
		res := &resp.Results[i]
		items[i] = resultItem{
			ID:           res.ID(),
			Name:         res.Name(),
			Score:        res.Score(),
			VectorScore:  res.VectorScore(),
			LexicalScore: res.LexicalScore(),
			MatchedBy:    string(res.MatchedBy()),
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Success:         true,
		Query:           req.Query,
		NormalizedQuery: resp.Normalized,
		Language:        resp.Language,
		Results:         items,
		Total:           len(items),
		ProcessingTime:  time.Since(start).Seconds(),
		ServerInfo: serverInfo{
			VectorSignal:  !resp.Degraded,
			LexicalSignal: true,
			Degraded:      resp.Degraded,
		},
	})
}

// Normalize handles POST /normalize.
func (s *Server) Normalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	tokens, err := s.norm.Normalize(req.Text)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, normalizeResponse{
		Success:    true,
		Text:       req.Text,
		Normalized: normalize.Join(tokens),
		Tokens:     tokens,
		Language:   normalize.DetectLanguage(req.Text),
	})
}

// UpsertEntry handles PUT /entries/{id}.
func (s *Server) UpsertEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req upsertEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := s.ingest.Upsert(r.Context(), ingestuc.Record{
		ID:      id,
		Name:    req.Name,
		Aliases: req.Aliases,
		Source:  req.Source,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", "/entries/"+id)
	}
	writeJSON(w, status, entryResponse{Success: true, ID: id, Created: created})
}

// DeleteEntry handles DELETE /entries/{id}.
func (s *Server) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.ingest.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchUpsert handles POST /entries/batch.
func (s *Server) BatchUpsert(w http.ResponseWriter, r *http.Request) {
	var req batchUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Entries) == 0 || len(req.Entries) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("entries count must be between 1 and %d", s.maxBatchSize))
		return
	}

	recs := make([]ingestuc.Record, len(req.Entries))
	for i, e := range req.Entries {
		recs[i] = ingestuc.Record{ID: e.ID, Name: e.Name, Aliases: e.Aliases, Source: e.Source}
	}

	results := s.ingest.BatchUpsert(r.Context(), recs)

	succeeded, failed := 0, 0
	items := make([]batchResultItem, len(results))
	for i, res := range results {
		items[i] = batchResultItem{ID: res.ID, Status: "ok"}
		if res.Err != nil {
			items[i].Status = "error"
			items[i].Error = &errorResponse{
				Code:    s.errorCode(res.Err),
				Message: safeDomainMessage(res.Err),
			}
			failed++
			continue
		}
		succeeded++
	}

	writeJSON(w, http.StatusOK, batchUpsertResponse{
		Success:   true,
		Items:     items,
		Succeeded: succeeded,
		Failed:    failed,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	rep, err := s.stats.Snapshot(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Success: true,
		Index: statsIndex{
			Name:    rep.IndexName,
			Exists:  rep.IndexExists,
			Entries: rep.Entries,
		},
		Vectorizer: statsVectorizer{
			Provider:   rep.Provider,
			Dimensions: rep.Dimensions,
		},
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Success: false,
		Code:    code,
		Message: message,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, m := range s.mappings {
		if errors.Is(err, m.sentinel) {
			s.logger.Warn("domain error", zap.Error(err))
			writeError(w, m.status, m.code, clientMessage(err, m.sentinel))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func (s *Server) errorCode(err error) string {
	for _, m := range s.mappings {
		if errors.Is(err, m.sentinel) {
			return m.code
		}
	}
	return codeInternalError
}

// clientMessage exposes validation detail to the caller but hides internals
// behind the sentinel text for infrastructure failures.
func clientMessage(err error, sentinel error) string {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEncoding),
		errors.Is(err, domain.ErrVectorDimMismatch):
		return err.Error()
	default:
		return sentinel.Error()
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrEncoding,
		domain.ErrVectorDimMismatch,
		domain.ErrEntryNotFound,
		domain.ErrUpstreamUnavailable,
		domain.ErrVectorizerUnavailable,
		domain.ErrTimeout,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrVectorDimMismatch) {
				return err.Error()
			}
			return s.Error()
		}
	}
	return "internal error"
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
