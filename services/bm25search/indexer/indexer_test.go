package indexer

import (
	"context"
	"testing"

	"github.com/AleutianAI/bm25search/services/bm25search/corpus"
	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
	"github.com/AleutianAI/bm25search/services/bm25search/scoring"
	"github.com/AleutianAI/bm25search/services/bm25search/tokenize"
)

func newTestTokenizer(t *testing.T) *tokenize.Tokenizer {
	t.Helper()
	tok, err := tokenize.New(tokenize.DefaultConfig())
	if err != nil {
		t.Fatalf("tokenize.New: %v", err)
	}
	return tok
}

func TestIngest_TinyCorpusStemsSharedTermAcrossDocs(t *testing.T) {
	c := corpus.New(scoring.DefaultParams())
	tok := newTestTokenizer(t)

	records := []Record{
		{ExternalKey: "A", Row: docstore.Row{"text": "the cat sat"}},
		{ExternalKey: "B", Row: docstore.Row{"text": "the dog sat"}},
		{ExternalKey: "C", Row: docstore.Row{"text": "cats and dogs"}},
	}

	summary, err := Ingest(context.Background(), nil, c, tok, records, Options{Fields: []string{"text"}})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Inserted != 3 {
		t.Fatalf("Inserted = %d, want 3", summary.Inserted)
	}

	n, _ := c.Stats()
	if n != 3 {
		t.Errorf("N = %d, want 3", n)
	}

	catID, ok := c.Dict.Lookup("cat")
	if !ok {
		t.Fatal("expected 'cat' interned")
	}
	if df, _ := c.Dict.DF(catID); df != 2 {
		t.Errorf("df(cat) = %d, want 2 (docs A and C both stem to 'cat')", df)
	}
}

func TestIngest_Idempotent(t *testing.T) {
	c := corpus.New(scoring.DefaultParams())
	tok := newTestTokenizer(t)
	records := []Record{{ExternalKey: "A", Row: docstore.Row{"text": "hello world"}}}

	if _, err := Ingest(context.Background(), nil, c, tok, records, Options{Fields: []string{"text"}}); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	summary2, err := Ingest(context.Background(), nil, c, tok, records, Options{Fields: []string{"text"}})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if summary2.Inserted != 0 || summary2.Skipped != 1 {
		t.Errorf("second ingest summary = %+v, want 0 inserted, 1 skipped", summary2)
	}

	n, _ := c.Stats()
	if n != 1 {
		t.Errorf("N after re-ingest = %d, want 1", n)
	}
}

func TestIngest_MissingExternalKeyFailsOnlyThatRecord(t *testing.T) {
	c := corpus.New(scoring.DefaultParams())
	tok := newTestTokenizer(t)
	records := []Record{
		{ExternalKey: "", Row: docstore.Row{"text": "broken"}},
		{ExternalKey: "ok", Row: docstore.Row{"text": "fine"}},
	}
	summary, err := Ingest(context.Background(), nil, c, tok, records, Options{Fields: []string{"text"}})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Failed != 1 || summary.Inserted != 1 {
		t.Errorf("summary = %+v, want 1 failed, 1 inserted", summary)
	}
}

func TestIngest_EmptyTokenisationAccepted(t *testing.T) {
	c := corpus.New(scoring.DefaultParams())
	tok := newTestTokenizer(t)
	records := []Record{{ExternalKey: "A", Row: docstore.Row{"text": "the"}}} // pure stopword
	summary, err := Ingest(context.Background(), nil, c, tok, records, Options{Fields: []string{"text"}})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Inserted != 1 {
		t.Fatalf("Inserted = %d, want 1", summary.Inserted)
	}
	ids := c.Docs.ListByKeys([]string{"A"})
	length, _ := c.Docs.GetLength(ids[0])
	if length != 0 {
		t.Errorf("length = %d, want 0", length)
	}
}
