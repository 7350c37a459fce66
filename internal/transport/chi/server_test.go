package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/namescreen/namescreen/internal/db"
	"github.com/namescreen/namescreen/internal/db/memory"
	"github.com/namescreen/namescreen/internal/embed/ngram"
	"github.com/namescreen/namescreen/internal/normalize"
	entryrepo "github.com/namescreen/namescreen/internal/repository/entry"
	searchrepo "github.com/namescreen/namescreen/internal/repository/search"
	healthuc "github.com/namescreen/namescreen/internal/usecase/health"
	ingestuc "github.com/namescreen/namescreen/internal/usecase/ingest"
	searchuc "github.com/namescreen/namescreen/internal/usecase/search"
	statsuc "github.com/namescreen/namescreen/internal/usecase/stats"
)

const (
	testDim       = 64
	testIndex     = "watchlist"
	testKeyPrefix = "test:"
)

// newTestRouter wires the full stack over the in-memory store.
func newTestRouter(t *testing.T) *gochi.Mux {
	t.Helper()

	store := memory.NewStore()
	err := store.CreateIndex(context.Background(), &db.IndexDefinition{
		Name:     testIndex,
		Prefixes: []string{testKeyPrefix + "entry:"},
		Fields: []db.IndexField{
			{Name: db.FieldTokens, Type: db.IndexFieldText},
			{
				Name: db.FieldVector, Type: db.IndexFieldVector,
				VectorAlgo: db.VectorHNSW, VectorDim: testDim,
				VectorDistance: db.DistanceCosine,
			},
		},
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}

	emb, err := ngram.New(testDim)
	if err != nil {
		t.Fatalf("new embedder: %v", err)
	}

	norm := normalize.New()
	logger := zap.NewNop()

	searchSvc := searchuc.New(searchrepo.New(store, testIndex, testKeyPrefix), norm, emb, 0, logger)
	ingestSvc := ingestuc.New(entryrepo.New(store, testKeyPrefix, testDim), norm, emb, logger)
	healthSvc := healthuc.New(store, nil)
	statsSvc := statsuc.New(store, testIndex, "ngram", testDim)

	server := NewServer(searchSvc, ingestSvc, healthSvc, statsSvc, norm, 100, logger)

	r := gochi.NewRouter()
	server.Routes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func upsertEntry(t *testing.T, router http.Handler, id, name string, aliases ...string) {
	t.Helper()
	rr := doJSON(t, router, "PUT", "/entries/"+id, upsertEntryRequest{Name: name, Aliases: aliases})
	if rr.Code != http.StatusCreated {
		t.Fatalf("upsert %s: got %d: %s", id, rr.Code, rr.Body.String())
	}
}

func TestUpsertEntry_CreatedThenUpdated(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, "PUT", "/entries/ofac-001", upsertEntryRequest{Name: "Ivan Petrov"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("first upsert: got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Location") != "/entries/ofac-001" {
		t.Errorf("Location = %q", rr.Header().Get("Location"))
	}

	rr = doJSON(t, router, "PUT", "/entries/ofac-001", upsertEntryRequest{Name: "Ivan Petrov Jr"})
	if rr.Code != http.StatusOK {
		t.Fatalf("second upsert: got %d: %s", rr.Code, rr.Body.String())
	}

	var resp entryResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Created {
		t.Error("second upsert must report created=false")
	}
}

func TestUpsertEntry_Validation(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, "PUT", "/entries/bad%20id", upsertEntryRequest{Name: "Ivan"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != codeValidationFailed {
		t.Errorf("code = %q, want %q", resp.Code, codeValidationFailed)
	}
}

func TestSearch_RoundTrip(t *testing.T) {
	router := newTestRouter(t)

	upsertEntry(t, router, "sanc-100", "Петро Порошенко")
	upsertEntry(t, router, "sanc-200", "Іван Франко")
	upsertEntry(t, router, "sanc-300", "John Smith")

	rr := doJSON(t, router, "POST", "/search", searchRequest{Query: "Петро Порошенко"})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.NormalizedQuery != "петро порошенко" {
		t.Errorf("normalized_query = %q", resp.NormalizedQuery)
	}
	if resp.Language != "uk" {
		t.Errorf("language = %q, want uk", resp.Language)
	}
	if resp.Total == 0 || len(resp.Results) == 0 {
		t.Fatalf("expected results, got %+v", resp)
	}
	if resp.Results[0].ID != "sanc-100" {
		t.Errorf("top hit = %s, want sanc-100", resp.Results[0].ID)
	}
	if resp.Results[0].MatchedBy != "vector+lexical" {
		t.Errorf("matched_by = %q", resp.Results[0].MatchedBy)
	}
	if resp.Results[0].Score < 0.99 {
		t.Errorf("exact match score = %f, want ~1.0", resp.Results[0].Score)
	}
	if resp.ServerInfo.Degraded {
		t.Error("search should not be degraded")
	}
}

func TestSearch_FuzzyMatchSurvivesTypo(t *testing.T) {
	router := newTestRouter(t)

	upsertEntry(t, router, "sanc-100", "Петро Порошенко")

	rr := doJSON(t, router, "POST", "/search", searchRequest{Query: "Петро Порошенка"})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) == 0 || resp.Results[0].ID != "sanc-100" {
		t.Fatalf("expected fuzzy hit for sanc-100, got %+v", resp.Results)
	}
}

func TestSearch_AliasIsSearchable(t *testing.T) {
	router := newTestRouter(t)

	upsertEntry(t, router, "sanc-100", "Petro Poroshenko", "Порошенко Петро Олексійович")

	rr := doJSON(t, router, "POST", "/search", searchRequest{Query: "Олексійович"})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) == 0 || resp.Results[0].ID != "sanc-100" {
		t.Fatalf("expected alias hit for sanc-100, got %+v", resp.Results)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, "POST", "/search", searchRequest{Query: ""})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != codeValidationFailed {
		t.Errorf("code = %q, want %q", resp.Code, codeValidationFailed)
	}
}

func TestSearch_ExplicitZeroLimit(t *testing.T) {
	router := newTestRouter(t)

	zero := 0
	rr := doJSON(t, router, "POST", "/search", searchRequest{Query: "ivan", Limit: &zero})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestSearch_ThresholdFilters(t *testing.T) {
	router := newTestRouter(t)

	upsertEntry(t, router, "sanc-100", "Петро Порошенко")
	upsertEntry(t, router, "sanc-300", "John Smith")

	threshold := 0.9
	rr := doJSON(t, router, "POST", "/search", searchRequest{Query: "Петро Порошенко", Threshold: &threshold})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, r := range resp.Results {
		if r.Score < 0.9 {
			t.Errorf("result %s below threshold: %f", r.ID, r.Score)
		}
	}
}

func TestNormalize(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, "POST", "/normalize", normalizeRequest{Text: "  Іван  ПЕТРЕНКО  "})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp normalizeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Normalized != "іван петренко" {
		t.Errorf("normalized = %q", resp.Normalized)
	}
	if len(resp.Tokens) != 2 {
		t.Errorf("tokens = %v", resp.Tokens)
	}
	if resp.Language != "uk" {
		t.Errorf("language = %q", resp.Language)
	}
}

func TestNormalize_EmptyTextIsNotAnError(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, "POST", "/normalize", normalizeRequest{Text: ""})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp normalizeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Normalized != "" || len(resp.Tokens) != 0 {
		t.Errorf("empty text must normalize to nothing, got %+v", resp)
	}
}

func TestDeleteEntry(t *testing.T) {
	router := newTestRouter(t)

	upsertEntry(t, router, "sanc-100", "Ivan Petrov")

	rr := doJSON(t, router, "DELETE", "/entries/sanc-100", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("got %d, want 204", rr.Code)
	}

	// Deleting an absent entry is still a 204.
	rr = doJSON(t, router, "DELETE", "/entries/sanc-100", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("repeat delete: got %d, want 204", rr.Code)
	}

	// The entry no longer matches.
	srr := doJSON(t, router, "POST", "/search", searchRequest{Query: "Ivan Petrov"})
	var resp searchResponse
	if err := json.NewDecoder(srr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("deleted entry still found: %+v", resp.Results)
	}
}

func TestBatchUpsert(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, "POST", "/entries/batch", batchUpsertRequest{Entries: []batchEntry{
		{ID: "b-1", Name: "Ivan Petrov"},
		{ID: "", Name: "No ID"},
		{ID: "b-2", Name: "Olena Kovalenko"},
	}})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp batchUpsertResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Succeeded != 2 || resp.Failed != 1 {
		t.Fatalf("succeeded/failed = %d/%d, want 2/1", resp.Succeeded, resp.Failed)
	}
	if resp.Items[1].Status != "error" || resp.Items[1].Error == nil {
		t.Fatalf("item 1 = %+v, expected error item", resp.Items[1])
	}
	if resp.Items[1].Error.Code != codeValidationFailed {
		t.Errorf("item 1 code = %q", resp.Items[1].Error.Code)
	}
}

func TestBatchUpsert_EmptyRejected(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, "POST", "/entries/batch", batchUpsertRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestStats(t *testing.T) {
	router := newTestRouter(t)

	upsertEntry(t, router, "sanc-100", "Петро Порошенко")
	upsertEntry(t, router, "sanc-200", "John Smith")

	rr := doJSON(t, router, "GET", "/stats", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp statsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Index.Name != testIndex || !resp.Index.Exists {
		t.Errorf("index = %+v", resp.Index)
	}
	if resp.Index.Entries != 2 {
		t.Errorf("entries = %d, want 2", resp.Index.Entries)
	}
	if resp.Vectorizer.Provider != "ngram" || resp.Vectorizer.Dimensions != testDim {
		t.Errorf("vectorizer = %+v", resp.Vectorizer)
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Checks["index_store"] != "ok" {
		t.Errorf("index_store check = %q", resp.Checks["index_store"])
	}
}
