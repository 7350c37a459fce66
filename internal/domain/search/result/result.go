package result

// Signal names which matching signal produced a score.
type Signal string

const (
	// SignalVector marks a hit produced by vector-distance similarity.
	SignalVector Signal = "vector"
	// SignalLexical marks a hit produced by exact/fuzzy lexical match.
	SignalLexical Signal = "lexical"
	// SignalBoth marks a hit confirmed by both signals.
	SignalBoth Signal = "vector+lexical"
)

// Hit is a raw single-signal hit as one backend ranked it, before merging.
type Hit struct {
	ID    string
	Name  string
	Score float64
}

// Result is a single scored match. Scores are bounded to [0,1], higher is
// more similar.
type Result struct {
	id       string
	name     string
	score    float64
	vecScore float64
	lexScore float64
	signal   Signal
}

// New creates a scored result.
func New(id, name string, score, vecScore, lexScore float64, signal Signal) Result {
	return Result{
		id:       id,
		name:     name,
		score:    score,
		vecScore: vecScore,
		lexScore: lexScore,
		signal:   signal,
	}
}

// ID returns the watchlist entry identifier.
func (r *Result) ID() string { return r.id }

// Name returns the entry's canonical name.
func (r *Result) Name() string { return r.name }

// Score returns the composite similarity score.
func (r *Result) Score() float64 { return r.score }

// VectorScore returns the vector-similarity component.
func (r *Result) VectorScore() float64 { return r.vecScore }

// LexicalScore returns the lexical-match component.
func (r *Result) LexicalScore() float64 { return r.lexScore }

// MatchedBy returns the signal(s) that produced the score.
func (r *Result) MatchedBy() Signal { return r.signal }
