package graph

import "testing"

func TestAddEdge_DefaultWeight(t *testing.T) {
	g := New()
	g.AddEdge(1, 2, DefaultWeight)
	w, ok := g.Weight(1, 2)
	if !ok || w != 1.0 {
		t.Errorf("Weight = %v, %v, want 1.0, true", w, ok)
	}
}

func TestRemoveDocument_DropsBothDirections(t *testing.T) {
	g := New()
	g.AddEdge(1, 2, 1)
	g.RemoveDocument(1)
	if _, ok := g.Weight(1, 2); ok {
		t.Error("expected edge gone after RemoveDocument")
	}
}

func TestRemoveQuery_DropsBothDirections(t *testing.T) {
	g := New()
	g.AddEdge(1, 2, 1)
	g.RemoveQuery(2)
	if _, ok := g.Weight(1, 2); ok {
		t.Error("expected edge gone after RemoveQuery")
	}
}

func TestRerank_GraphScoreExceedsBM25Only(t *testing.T) {
	// A doc with no direct BM25 match still surfaces, and outranks its
	// own BM25-only score, once an edge carries score from a related
	// stored query.
	g := New()
	const docX DocumentID = 100
	const queryDaftPunk QueryID = 7
	g.AddEdge(docX, queryDaftPunk, 1.0)

	bmOnlyScore := 0.0 // X has no BM25-only match for the input query text
	bd := []ScoredDoc{{Doc: docX, Score: bmOnlyScore}}
	bq := []ScoredQuery{{Query: queryDaftPunk, Score: 2.5}}

	results := Rerank(g, bd, bq, 10, nil)
	if len(results) != 1 || results[0].Doc != docX {
		t.Fatalf("results = %v, want [docX]", results)
	}
	if !(results[0].Score > bmOnlyScore) {
		t.Errorf("final score %v not strictly greater than BM25-only score %v", results[0].Score, bmOnlyScore)
	}
}

func TestRerank_DeterministicTiebreakByDocIDAscending(t *testing.T) {
	g := New()
	bd := []ScoredDoc{{Doc: 5, Score: 1.0}, {Doc: 2, Score: 1.0}}
	results := Rerank(g, bd, nil, 10, nil)
	if results[0].Doc != 2 || results[1].Doc != 5 {
		t.Errorf("results = %v, want doc_id ascending tiebreak", results)
	}
}

func TestRerank_TopKTruncates(t *testing.T) {
	g := New()
	bd := []ScoredDoc{{Doc: 1, Score: 3}, {Doc: 2, Score: 2}, {Doc: 3, Score: 1}}
	results := Rerank(g, bd, nil, 2, nil)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	g := New()
	g.AddEdge(1, 2, 0.5)
	g.AddEdge(3, 2, 1.5)

	snap := g.Snapshot()
	g2 := New()
	g2.Restore(snap)

	if w, ok := g2.Weight(1, 2); !ok || w != 0.5 {
		t.Errorf("Weight(1,2) after restore = %v, %v", w, ok)
	}
	if w, ok := g2.Weight(3, 2); !ok || w != 1.5 {
		t.Errorf("Weight(3,2) after restore = %v, %v", w, ok)
	}
}
