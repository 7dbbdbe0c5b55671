// Package docstore implements the document store: a dense integer doc_id
// space over caller-supplied external keys, each carrying a term-count
// length and an opaque user row.
package docstore

import (
	"sync"
)

// DocID is a dense, monotonically assigned identifier. Doc_ids are never
// reused once assigned, even after the document they named is deleted —
// this keeps graph edges pointing at a doc_id meaningful without
// cascading repair.
type DocID uint32

// Row is the opaque, caller-defined record associated with a document:
// the typed columns used by filter predicates and result hydration.
type Row = map[string]any

// document is the store's internal record. Live is false once Delete has
// removed it; the slot is never reused (see DocID's doc comment), so a
// deleted document's doc_id stays permanently a hole in the live set.
type document struct {
	externalKey string
	length      uint32
	row         Row
	live        bool
}

// Store assigns dense DocIDs, tracks per-document length, and enforces
// external_key uniqueness among live documents. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	byKey    map[string]DocID
	docs     []document
	liveCnt  int
	lengthSum uint64 // sum of length over live documents with length > 0, for avgdl
	nonZeroLenCnt int // count of live documents with length > 0
}

// New returns an empty Store.
func New() *Store {
	return &Store{byKey: make(map[string]DocID)}
}

// Create assigns a new DocID to externalKey, row, and length, unless
// externalKey already names a live document — in which case Create
// rejects the duplicate, returning the existing doc_id and created=false.
func (s *Store) Create(externalKey string, length uint32, row Row) (id DocID, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byKey[externalKey]; ok && s.docs[existing].live {
		return existing, false
	}

	id = DocID(len(s.docs))
	s.docs = append(s.docs, document{externalKey: externalKey, length: length, row: row, live: true})
	s.byKey[externalKey] = id
	s.liveCnt++
	if length > 0 {
		s.lengthSum += uint64(length)
		s.nonZeroLenCnt++
	}
	return id, true
}

// Delete marks id as no longer live, freeing its external_key for reuse
// by a future Create (the doc_id itself is never reused). Deleting an
// already-deleted or unknown id is a no-op.
func (s *Store) Delete(id DocID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(id) >= len(s.docs) || !s.docs[id].live {
		return
	}
	doc := &s.docs[id]
	doc.live = false
	delete(s.byKey, doc.externalKey)
	s.liveCnt--
	if doc.length > 0 {
		s.lengthSum -= uint64(doc.length)
		s.nonZeroLenCnt--
	}
}

// GetLength returns the indexed length of a live document.
func (s *Store) GetLength(id DocID) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) >= len(s.docs) || !s.docs[id].live {
		return 0, false
	}
	return s.docs[id].length, true
}

// GetRow returns the row for a live document.
func (s *Store) GetRow(id DocID) (Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) >= len(s.docs) || !s.docs[id].live {
		return nil, false
	}
	return s.docs[id].row, true
}

// ExternalKey returns the external key of a live document.
func (s *Store) ExternalKey(id DocID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) >= len(s.docs) || !s.docs[id].live {
		return "", false
	}
	return s.docs[id].externalKey, true
}

// IsLive reports whether id names a currently-live document.
func (s *Store) IsLive(id DocID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(id) < len(s.docs) && s.docs[id].live
}

// ListByKeys resolves external keys to doc_ids, skipping keys that do not
// name a live document.
func (s *Store) ListByKeys(keys []string) []DocID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DocID, 0, len(keys))
	for _, k := range keys {
		if id, ok := s.byKey[k]; ok && s.docs[id].live {
			out = append(out, id)
		}
	}
	return out
}

// N returns the live document count.
func (s *Store) N() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveCnt
}

// AvgDL returns the mean document length over live documents.
//
// Zero-length documents are excluded from the average — they contribute
// to N but not to the length sum — because including them as 0 would
// bias avgdl downward in proportion to how many near-empty documents
// happen to be ingested, which has no principled BM25 interpretation. A
// corpus of entirely zero-length documents reports avgdl == 0.
func (s *Store) AvgDL() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.nonZeroLenCnt == 0 {
		return 0
	}
	return float64(s.lengthSum) / float64(s.nonZeroLenCnt)
}

// Snapshot describes a single document for persistence/diagnostics.
type Snapshot struct {
	ID          DocID
	ExternalKey string
	Length      uint32
	Row         Row
}

// SnapshotLive returns every currently-live document.
func (s *Store) SnapshotLive() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Snapshot, 0, s.liveCnt)
	for id, d := range s.docs {
		if !d.live {
			continue
		}
		out = append(out, Snapshot{ID: DocID(id), ExternalKey: d.externalKey, Length: d.length, Row: d.row})
	}
	return out
}

// Restore replaces the store's contents with snapshots, used when
// rehydrating from persisted state. nextID is one past the highest doc_id
// ever assigned (live or deleted), so future Creates continue the dense,
// non-reused id sequence correctly even though deleted documents are not
// part of snapshots.
func (s *Store) Restore(snapshots []Snapshot, nextID DocID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make([]document, nextID)
	for i := range s.docs {
		s.docs[i].live = false
	}
	s.byKey = make(map[string]DocID, len(snapshots))
	s.liveCnt = 0
	s.lengthSum = 0
	s.nonZeroLenCnt = 0
	for _, snap := range snapshots {
		s.docs[snap.ID] = document{externalKey: snap.ExternalKey, length: snap.Length, row: snap.Row, live: true}
		s.byKey[snap.ExternalKey] = snap.ID
		s.liveCnt++
		if snap.Length > 0 {
			s.lengthSum += uint64(snap.Length)
			s.nonZeroLenCnt++
		}
	}
}

// NextID returns one past the highest doc_id ever assigned (live or not).
func (s *Store) NextID() DocID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DocID(len(s.docs))
}
