package search

import (
	"sort"

	"github.com/namescreen/namescreen/internal/domain/search/result"
)

// Merge weights. An entry both signals agree on outranks an equally scored
// single-signal entry only through the weighted sum itself; a hit seen by
// one signal keeps that signal's own score.
const (
	vectorWeight  = 0.6
	lexicalWeight = 0.4
)

// mergeHits fuses the two rankings into one composite ranking by entry ID.
// Ordering is by composite score descending; equal scores order by ID
// ascending so the full response is deterministic.
func mergeHits(vec, lex []result.Hit) []result.Result {
	type merged struct {
		name   string
		vec    float64
		lex    float64
		hasVec bool
		hasLex bool
	}

	byID := make(map[string]*merged, len(vec)+len(lex))

	for _, h := range vec {
		byID[h.ID] = &merged{name: h.Name, vec: h.Score, hasVec: true}
	}
	for _, h := range lex {
		if m, ok := byID[h.ID]; ok {
			m.lex = h.Score
			m.hasLex = true
			continue
		}
		byID[h.ID] = &merged{name: h.Name, lex: h.Score, hasLex: true}
	}

	results := make([]result.Result, 0, len(byID))
	for id, m := range byID {
		var score float64
		var signal result.Signal
		switch {
		case m.hasVec && m.hasLex:
			score = vectorWeight*m.vec + lexicalWeight*m.lex
			signal = result.SignalBoth
		case m.hasVec:
			score = m.vec
			signal = result.SignalVector
		default:
			score = m.lex
			signal = result.SignalLexical
		}
		results = append(results, result.New(id, m.name, score, m.vec, m.lex, signal))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score() != results[j].Score() {
			return results[i].Score() > results[j].Score()
		}
		return results[i].ID() < results[j].ID()
	})

	return results
}

// applyThreshold drops results below the minimum composite score.
func applyThreshold(results []result.Result, threshold float64) []result.Result {
	if threshold <= 0 {
		return results
	}
	filtered := results[:0]
	for _, r := range results {
		if r.Score() >= threshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
