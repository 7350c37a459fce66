package chi

// Error codes returned in the "code" field of error responses.
const (
	codeBadRequest          = "bad_request"
	codeValidationFailed    = "validation_failed"
	codeEncodingError       = "encoding_error"
	codeDimensionMismatch   = "dimension_mismatch"
	codeNotFound            = "not_found"
	codeUpstreamUnavailable = "upstream_unavailable"
	codeTimeout             = "timeout"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type searchRequest struct {
	Query     string   `json:"query"`
	Limit     *int     `json:"limit,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

type resultItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	VectorScore  float64 `json:"vector_score"`
	LexicalScore float64 `json:"lexical_score"`
	MatchedBy    string  `json:"matched_by"`
}

type serverInfo struct {
	VectorSignal  bool `json:"vector_signal"`
	LexicalSignal bool `json:"lexical_signal"`
	Degraded      bool `json:"degraded"`
}

type searchResponse struct {
	Success         bool         `json:"success"`
	Query           string       `json:"query"`
	NormalizedQuery string       `json:"normalized_query"`
	Language        string       `json:"language"`
	Results         []resultItem `json:"results"`
	Total           int          `json:"total"`
	ProcessingTime  float64      `json:"processing_time"`
	ServerInfo      serverInfo   `json:"server_info"`
}

type normalizeRequest struct {
	Text string `json:"text"`
}

type normalizeResponse struct {
	Success    bool     `json:"success"`
	Text       string   `json:"text"`
	Normalized string   `json:"normalized"`
	Tokens     []string `json:"tokens"`
	Language   string   `json:"language"`
}

type upsertEntryRequest struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	Source  string   `json:"source,omitempty"`
}

type entryResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

type batchEntry struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	Source  string   `json:"source,omitempty"`
}

type batchUpsertRequest struct {
	Entries []batchEntry `json:"entries"`
}

type batchResultItem struct {
	ID     string         `json:"id"`
	Status string         `json:"status"` // "ok" / "error"
	Error  *errorResponse `json:"error,omitempty"`
}

type batchUpsertResponse struct {
	Success   bool              `json:"success"`
	Items     []batchResultItem `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

type statsIndex struct {
	Name    string `json:"name"`
	Exists  bool   `json:"exists"`
	Entries int    `json:"entries"`
}

type statsVectorizer struct {
	Provider   string `json:"provider"`
	Dimensions int    `json:"dimensions"`
}

type statsResponse struct {
	Success    bool            `json:"success"`
	Index      statsIndex      `json:"index"`
	Vectorizer statsVectorizer `json:"vectorizer"`
}
