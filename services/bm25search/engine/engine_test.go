package engine

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/bm25search/services/bm25search/config"
	"github.com/AleutianAI/bm25search/services/bm25search/indexer"
	"github.com/AleutianAI/bm25search/services/bm25search/query"
	badgerstore "github.com/AleutianAI/bm25search/services/bm25search/store/badger"
)

func newTestBadgerStore(t *testing.T) *badgerstore.Store {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("badger.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := badgerstore.New(db, nil)
	if err != nil {
		t.Fatalf("badgerstore.New: %v", err)
	}
	return store
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(config.Default(), nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func seedDocs(t *testing.T, e *Engine) {
	t.Helper()
	records := []indexer.Record{
		{ExternalKey: "a", Row: map[string]any{"text": "the cat sat on the mat", "year": int64(1999)}},
		{ExternalKey: "b", Row: map[string]any{"text": "dogs are loyal companions", "year": int64(2001)}},
		{ExternalKey: "c", Row: map[string]any{"text": "a cat and a dog can be friends", "year": int64(1985)}},
	}
	summary, err := e.UploadDocuments(context.Background(), records, []string{"text"})
	if err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}
	if summary.Inserted != 3 {
		t.Fatalf("inserted = %d, want 3", summary.Inserted)
	}
}

func TestUploadDocuments_DuplicateExternalKeySkipped(t *testing.T) {
	e := newTestEngine(t)
	seedDocs(t, e)

	summary, err := e.UploadDocuments(context.Background(), []indexer.Record{
		{ExternalKey: "a", Row: map[string]any{"text": "same key again"}},
	}, []string{"text"})
	if err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}
	if summary.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", summary.Skipped)
	}
}

func TestSearchDocuments_FindsExpectedHits(t *testing.T) {
	e := newTestEngine(t)
	seedDocs(t, e)

	results, err := e.SearchDocuments(context.Background(), []query.Request{{Text: "cat"}}, query.Options{})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if len(results[0].Hits) != 2 {
		t.Fatalf("hits = %d, want 2 (docs a and c mention cat)", len(results[0].Hits))
	}
}

func TestDeleteDocuments_RemovesFromFutureSearches(t *testing.T) {
	e := newTestEngine(t)
	seedDocs(t, e)

	summary, err := e.DeleteDocuments(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("DeleteDocuments: %v", err)
	}
	if len(summary.Deleted) != 1 {
		t.Fatalf("deleted = %d, want 1", len(summary.Deleted))
	}

	results, err := e.SearchDocuments(context.Background(), []query.Request{{Text: "cat"}}, query.Options{})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	if len(results[0].Hits) != 1 {
		t.Fatalf("hits after delete = %d, want 1 (only doc c left)", len(results[0].Hits))
	}
}

func TestAddStopwords_SuppressesTermAtNextSearch(t *testing.T) {
	e := newTestEngine(t)
	seedDocs(t, e)

	if err := e.AddStopwords(context.Background(), []string{"cat"}); err != nil {
		t.Fatalf("AddStopwords: %v", err)
	}

	results, err := e.SearchDocuments(context.Background(), []query.Request{{Text: "cat"}}, query.Options{})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	if len(results[0].Hits) != 0 {
		t.Errorf("hits = %d, want 0 once 'cat' is a stopword", len(results[0].Hits))
	}
}

func TestRemoveStopwords_RestoresTerm(t *testing.T) {
	e := newTestEngine(t)
	seedDocs(t, e)

	if err := e.AddStopwords(context.Background(), []string{"cat"}); err != nil {
		t.Fatalf("AddStopwords: %v", err)
	}
	if err := e.RemoveStopwords(context.Background(), []string{"cat"}); err != nil {
		t.Fatalf("RemoveStopwords: %v", err)
	}

	results, err := e.SearchDocuments(context.Background(), []query.Request{{Text: "cat"}}, query.Options{})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	if len(results[0].Hits) != 2 {
		t.Errorf("hits = %d, want 2 once 'cat' is no longer a stopword", len(results[0].Hits))
	}
}

func TestSnapshotLoad_RoundTripsThroughStore(t *testing.T) {
	store := newTestBadgerStore(t)

	e, err := New(config.Default(), store, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seedDocs(t, e)

	if err := e.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	e2, err := New(config.Default(), store, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e2.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	results, err := e2.SearchDocuments(context.Background(), []query.Request{{Text: "cat"}}, query.Options{})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	if len(results[0].Hits) != 2 {
		t.Errorf("hits after reload = %d, want 2", len(results[0].Hits))
	}
}
