// Package graph implements the bipartite document<->query graph and the
// hybrid re-ranking it enables. Queries are first-class documents in a
// parallel index over query text; edges carry an interaction weight and
// are used to propagate relevance between a result's direct BM25 score
// and the scores of historically related queries.
package graph

import (
	"sort"
	"sync"

	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
)

// DocumentID and QueryID both alias the dense id space of their owning
// docstore.Store (one for documents, one for stored queries); they are
// named distinctly here purely for readability at call sites.
type (
	DocumentID = docstore.DocID
	QueryID    = docstore.DocID
)

// DefaultWeight is used for an edge created without an explicit weight.
const DefaultWeight = 1.0

// Edge is a single weighted association between a document and a stored
// query, unique per (document, query) pair.
type Edge struct {
	Document DocumentID
	Query    QueryID
	Weight   float32
}

// Graph stores edges indexed both by document and by query, so expanding
// the induced edge set in either direction is proportional to the number
// of edges touched, not the whole graph. Safe for concurrent use; a
// single writer is assumed, same as the rest of the index.
type Graph struct {
	mu      sync.RWMutex
	byDoc   map[DocumentID]map[QueryID]float32
	byQuery map[QueryID]map[DocumentID]float32
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		byDoc:   make(map[DocumentID]map[QueryID]float32),
		byQuery: make(map[QueryID]map[DocumentID]float32),
	}
}

// AddEdge inserts or overwrites the edge (doc, query) with weight. A
// weight of exactly 0 is accepted (callers wanting the default should
// pass DefaultWeight explicitly).
func (g *Graph) AddEdge(doc DocumentID, query QueryID, weight float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.byDoc[doc]; !ok {
		g.byDoc[doc] = make(map[QueryID]float32)
	}
	g.byDoc[doc][query] = weight
	if _, ok := g.byQuery[query]; !ok {
		g.byQuery[query] = make(map[DocumentID]float32)
	}
	g.byQuery[query][doc] = weight
}

// RemoveDocument drops every edge touching doc — called when a document
// is deleted, so derived structures stay consistent with the document
// store.
func (g *Graph) RemoveDocument(doc DocumentID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	queries, ok := g.byDoc[doc]
	if !ok {
		return
	}
	for q := range queries {
		delete(g.byQuery[q], doc)
		if len(g.byQuery[q]) == 0 {
			delete(g.byQuery, q)
		}
	}
	delete(g.byDoc, doc)
}

// RemoveQuery drops every edge touching query — called when a stored
// query is deleted from the query index.
func (g *Graph) RemoveQuery(query QueryID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	docs, ok := g.byQuery[query]
	if !ok {
		return
	}
	for d := range docs {
		delete(g.byDoc[d], query)
		if len(g.byDoc[d]) == 0 {
			delete(g.byDoc, d)
		}
	}
	delete(g.byQuery, query)
}

// Weight returns the edge weight between doc and query, if one exists.
func (g *Graph) Weight(doc DocumentID, query QueryID) (float32, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	w, ok := g.byDoc[doc][query]
	return w, ok
}

// ScoredDoc and ScoredQuery are the inputs to Rerank: the BM25 executor's
// scored result sets for the document and query corpora.
type ScoredDoc struct {
	Doc   DocumentID
	Score float64
}

type ScoredQuery struct {
	Query QueryID
	Score float64
}

// FinalScore is a single re-ranked result.
type FinalScore struct {
	Doc   DocumentID
	Score float64
}

// Rerank induces edges between bd and bq, and for every document in bd
// (plus any document reached only via an edge from a query in bq)
// computes
//
//	final(d) = score_d + sum_{(d,q,w) in E} (score_q + w)
//
// randomTiebreak, if non-nil, supplies an optional random tiebreaker for
// result diversity; when nil, ordering falls back to the deterministic
// doc_id-ascending rule.
func Rerank(g *Graph, bd []ScoredDoc, bq []ScoredQuery, topK int, randomTiebreak func(a, b DocumentID) bool) []FinalScore {
	g.mu.RLock()
	defer g.mu.RUnlock()

	docScore := make(map[DocumentID]float64, len(bd))
	for _, d := range bd {
		docScore[d.Doc] = d.Score
	}
	queryScore := make(map[QueryID]float64, len(bq))
	for _, q := range bq {
		queryScore[q.Query] = q.Score
	}

	final := make(map[DocumentID]float64, len(docScore))
	for doc, score := range docScore {
		final[doc] = score
	}

	// Expand through every query in bq: for each edge (d, q, w) where q
	// is in bq, contribute (score_q + w) to final(d), whether or not d
	// was already present in bd (one-hop expansion).
	for _, q := range bq {
		for doc, w := range g.byQuery[q.Query] {
			final[doc] += q.Score + float64(w)
		}
	}

	results := make([]FinalScore, 0, len(final))
	for doc, score := range final {
		results = append(results, FinalScore{Doc: doc, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if randomTiebreak != nil {
			return randomTiebreak(results[i].Doc, results[j].Doc)
		}
		return results[i].Doc < results[j].Doc
	})

	if topK >= 0 && topK < len(results) {
		results = results[:topK]
	}
	return results
}

// Snapshot describes every edge, for persistence.
func (g *Graph) Snapshot() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, 0)
	for doc, queries := range g.byDoc {
		for q, w := range queries {
			out = append(out, Edge{Document: doc, Query: q, Weight: w})
		}
	}
	return out
}

// Restore replaces the graph's contents with edges, used when
// rehydrating from persisted state.
func (g *Graph) Restore(edges []Edge) {
	g.mu.Lock()
	g.byDoc = make(map[DocumentID]map[QueryID]float32)
	g.byQuery = make(map[QueryID]map[DocumentID]float32)
	g.mu.Unlock()
	for _, e := range edges {
		g.AddEdge(e.Document, e.Query, e.Weight)
	}
}
