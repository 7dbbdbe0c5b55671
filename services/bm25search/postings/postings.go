// Package postings implements the posting store: the set of (doc_id,
// term_id, tf) tuples, with both iteration directions the indexer,
// deleter, and score kernel need — by term (for rebuilding a term's score
// entry) and by document (for deleting a document's contribution).
package postings

import (
	"sync"

	"github.com/AleutianAI/bm25search/services/bm25search/dictionary"
	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
)

// Posting is a single (doc, tf) pair, used when iterating by term.
type Posting struct {
	Doc docstore.DocID
	TF  uint32
}

// TermPosting is a single (term, tf) pair, used when iterating by doc.
type TermPosting struct {
	Term dictionary.TermID
	TF   uint32
}

// Store holds postings indexed both by term and by document so both
// iteration directions are O(matches) rather than a full scan. Safe for
// concurrent use.
type Store struct {
	mu     sync.RWMutex
	byTerm map[dictionary.TermID]map[docstore.DocID]uint32
	byDoc  map[docstore.DocID]map[dictionary.TermID]uint32
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byTerm: make(map[dictionary.TermID]map[docstore.DocID]uint32),
		byDoc:  make(map[docstore.DocID]map[dictionary.TermID]uint32),
	}
}

// Tuple is a single (doc, term, tf) record for bulk writes.
type Tuple struct {
	Doc  docstore.DocID
	Term dictionary.TermID
	TF   uint32
}

// InsertMany writes tuples, each of which must have tf > 0; a tuple with
// tf == 0 is skipped rather than stored as a zero-frequency posting.
func (s *Store) InsertMany(tuples []Tuple) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tuples {
		if t.TF == 0 {
			continue
		}
		byDoc, ok := s.byTerm[t.Term]
		if !ok {
			byDoc = make(map[docstore.DocID]uint32)
			s.byTerm[t.Term] = byDoc
		}
		byDoc[t.Doc] = t.TF

		byTerm, ok := s.byDoc[t.Doc]
		if !ok {
			byTerm = make(map[dictionary.TermID]uint32)
			s.byDoc[t.Doc] = byTerm
		}
		byTerm[t.Term] = t.TF
	}
}

// DeleteByDoc removes every posting for doc and returns the set of terms
// that lost a posting, so the caller (the deleter) knows which score
// entries need rebuilding.
func (s *Store) DeleteByDoc(doc docstore.DocID) []dictionary.TermID {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTerm, ok := s.byDoc[doc]
	if !ok {
		return nil
	}
	affected := make([]dictionary.TermID, 0, len(byTerm))
	for term := range byTerm {
		affected = append(affected, term)
		delete(s.byTerm[term], doc)
		if len(s.byTerm[term]) == 0 {
			delete(s.byTerm, term)
		}
	}
	delete(s.byDoc, doc)
	return affected
}

// ByTerm returns every (doc, tf) posting for term. The returned slice is a
// fresh copy and safe to retain.
func (s *Store) ByTerm(term dictionary.TermID) []Posting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byDoc, ok := s.byTerm[term]
	if !ok {
		return nil
	}
	out := make([]Posting, 0, len(byDoc))
	for doc, tf := range byDoc {
		out = append(out, Posting{Doc: doc, TF: tf})
	}
	return out
}

// ByDoc returns every (term, tf) posting for doc.
func (s *Store) ByDoc(doc docstore.DocID) []TermPosting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byTerm, ok := s.byDoc[doc]
	if !ok {
		return nil
	}
	out := make([]TermPosting, 0, len(byTerm))
	for term, tf := range byTerm {
		out = append(out, TermPosting{Term: term, TF: tf})
	}
	return out
}

// DF returns the number of distinct live documents containing term —
// used to verify dictionary df against the posting store's own ground
// truth.
func (s *Store) DF(term dictionary.TermID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byTerm[term])
}

// Snapshot returns every posting, for persistence.
func (s *Store) Snapshot() []Tuple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Tuple, 0)
	for term, byDoc := range s.byTerm {
		for doc, tf := range byDoc {
			out = append(out, Tuple{Doc: doc, Term: term, TF: tf})
		}
	}
	return out
}

// Restore replaces the store's contents with tuples, used when
// rehydrating from persisted state.
func (s *Store) Restore(tuples []Tuple) {
	s.mu.Lock()
	s.byTerm = make(map[dictionary.TermID]map[docstore.DocID]uint32)
	s.byDoc = make(map[docstore.DocID]map[dictionary.TermID]uint32)
	s.mu.Unlock()
	s.InsertMany(tuples)
}
