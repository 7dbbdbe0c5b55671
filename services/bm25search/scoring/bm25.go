// Package scoring implements the BM25 kernel and score store: for each
// term, a pair of parallel arrays (docs, scores) sorted by score
// descending, doc_id ascending as tiebreak.
package scoring

import (
	"math"
	"sort"
	"sync"

	"github.com/AleutianAI/bm25search/services/bm25search/dictionary"
	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
)

// Default BM25 tuning constants.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// Params holds the BM25 tuning constants for an index.
type Params struct {
	K1 float64
	B  float64
}

// DefaultParams returns the standard Okapi BM25 defaults (k1=1.5, b=0.75).
func DefaultParams() Params {
	return Params{K1: DefaultK1, B: DefaultB}
}

// Entry is a term's score store row: two equal-length arrays sorted by
// Scores descending, Docs ascending as tiebreak.
type Entry struct {
	Docs   []docstore.DocID
	Scores []float64
}

// Store holds one Entry per term that currently has any live posting.
// Safe for concurrent use; Rebuild/Remove require the writer lock the
// indexer and deleter already hold for the whole logical operation, but
// the store's own mutex additionally protects readers racing a rebuild.
type Store struct {
	mu      sync.RWMutex
	entries map[dictionary.TermID]*Entry
	params  Params
}

// New returns an empty Store configured with params.
func New(params Params) *Store {
	return &Store{entries: make(map[dictionary.TermID]*Entry), params: params}
}

// Params returns the configured BM25 constants.
func (s *Store) Params() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// IDF computes idf(t) = log(((N - df + 0.5) / (df + 0.5)) + 1).
func IDF(n int, df uint32) float64 {
	return math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)
}

// Norm computes norm(d) = k1 * (1 - b + b * len(d) / avgdl).
func Norm(params Params, length uint32, avgdl float64) float64 {
	if avgdl == 0 {
		// A corpus of entirely zero-length documents: the length term
		// is dropped (as if len(d)/avgdl were 0), leaving k1*(1-b), to
		// avoid a division by zero.
		return params.K1 * (1 - params.B)
	}
	return params.K1 * (1 - params.B + params.B*float64(length)/avgdl)
}

// Score computes score = tf * idf / (tf + norm) for a single posting.
func Score(tf uint32, idf, norm float64) float64 {
	return float64(tf) * idf / (float64(tf) + norm)
}

// PostingInput is the per-document input Rebuild needs: the raw term
// frequency and the document's length.
type PostingInput struct {
	Doc    docstore.DocID
	TF     uint32
	Length uint32
}

// Rebuild recomputes a term's full Docs/Scores arrays from scratch, given
// every live posting for that term, the live document count N, and
// avgdl. This is the §4.5 "recompute its full docs[]/scores[] from the
// current posting store" step, run for every affected term after an
// ingest or delete. If postings is empty the entry is removed.
func (s *Store) Rebuild(term dictionary.TermID, df uint32, n int, avgdl float64, postings []PostingInput) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(postings) == 0 {
		delete(s.entries, term)
		return
	}

	idf := IDF(n, df)
	docs := make([]docstore.DocID, len(postings))
	scores := make([]float64, len(postings))
	for i, p := range postings {
		norm := Norm(s.params, p.Length, avgdl)
		docs[i] = p.Doc
		scores[i] = Score(p.TF, idf, norm)
	}

	order := make([]int, len(postings))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		return docs[ia] < docs[ib]
	})

	sortedDocs := make([]docstore.DocID, len(postings))
	sortedScores := make([]float64, len(postings))
	for i, idx := range order {
		sortedDocs[i] = docs[idx]
		sortedScores[i] = scores[idx]
	}

	s.entries[term] = &Entry{Docs: sortedDocs, Scores: sortedScores}
}

// Remove drops a term's score entry entirely (used when a term's last
// posting is deleted and Rebuild was not otherwise going to be called for
// it, e.g. when term is being garbage collected).
func (s *Store) Remove(term dictionary.TermID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, term)
}

// Slice returns the top-k_token truncated view of a term's posting list.
// Ok is false if the term has no score entry (an out-of-dictionary term,
// or one whose postings were all deleted).
func (s *Store) Slice(term dictionary.TermID, topKToken int) (docs []docstore.DocID, scores []float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, found := s.entries[term]
	if !found {
		return nil, nil, false
	}
	limit := len(e.Docs)
	if topKToken >= 0 && topKToken < limit {
		limit = topKToken
	}
	return e.Docs[:limit], e.Scores[:limit], true
}

// Len returns the number of terms currently score-indexed.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a deep copy of every term's entry, for persistence.
func (s *Store) Snapshot() map[dictionary.TermID]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[dictionary.TermID]Entry, len(s.entries))
	for term, e := range s.entries {
		docs := make([]docstore.DocID, len(e.Docs))
		copy(docs, e.Docs)
		scores := make([]float64, len(e.Scores))
		copy(scores, e.Scores)
		out[term] = Entry{Docs: docs, Scores: scores}
	}
	return out
}

// Restore replaces the store's contents with a persisted snapshot.
func (s *Store) Restore(snapshot map[dictionary.TermID]Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[dictionary.TermID]*Entry, len(snapshot))
	for term, e := range snapshot {
		docs := make([]docstore.DocID, len(e.Docs))
		copy(docs, e.Docs)
		scores := make([]float64, len(e.Scores))
		copy(scores, e.Scores)
		s.entries[term] = &Entry{Docs: docs, Scores: scores}
	}
}
