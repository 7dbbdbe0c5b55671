package query

import (
	"context"
	"testing"
	"time"

	"github.com/AleutianAI/bm25search/services/bm25search/corpus"
	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
	"github.com/AleutianAI/bm25search/services/bm25search/indexer"
	"github.com/AleutianAI/bm25search/services/bm25search/scoring"
	"github.com/AleutianAI/bm25search/services/bm25search/tokenize"
)

func tinyCorpus(t *testing.T) (*corpus.Corpus, *tokenize.Tokenizer) {
	t.Helper()
	c := corpus.New(scoring.DefaultParams())
	tok, err := tokenize.New(tokenize.DefaultConfig())
	if err != nil {
		t.Fatalf("tokenize.New: %v", err)
	}
	records := []indexer.Record{
		{ExternalKey: "A", Row: docstore.Row{"text": "the cat sat", "year": int64(1970)}},
		{ExternalKey: "B", Row: docstore.Row{"text": "the dog sat", "year": int64(1999)}},
		{ExternalKey: "C", Row: docstore.Row{"text": "cats and dogs", "year": int64(2020)}},
	}
	if _, err := indexer.Ingest(context.Background(), nil, c, tok, records, indexer.Options{Fields: []string{"text"}}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return c, tok
}

func TestExecuteBatch_QueryMatchesDocsSharingStemmedTerm(t *testing.T) {
	c, tok := tinyCorpus(t)

	results, err := ExecuteBatch(context.Background(), nil, c, tok, []Request{{Text: "cat"}}, Options{TopK: 10, TopKToken: -1})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	res := results[0]
	if res.Err != nil {
		t.Fatalf("query error: %v", res.Err)
	}
	if len(res.Hits) != 2 {
		t.Fatalf("hits = %+v, want 2 (docs A and C both stem to 'cat')", res.Hits)
	}
	rows := []docstore.Row{res.Hits[0].Row, res.Hits[1].Row}
	gotTexts := map[string]bool{}
	for _, r := range rows {
		gotTexts[r["text"].(string)] = true
	}
	if !gotTexts["the cat sat"] || !gotTexts["cats and dogs"] {
		t.Errorf("unexpected result rows: %+v", rows)
	}
}

func TestExecuteBatch_FilterPrunesResults(t *testing.T) {
	c, tok := tinyCorpus(t)

	results, err := ExecuteBatch(context.Background(), nil, c, tok, []Request{{Text: "sat"}}, Options{
		TopK:      10,
		TopKToken: -1,
		Filter:    `row.year >= 1980`,
	})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	res := results[0]
	if res.Err != nil {
		t.Fatalf("query error: %v", res.Err)
	}
	if len(res.Hits) != 1 {
		t.Fatalf("hits = %+v, want exactly doc B (year 1999)", res.Hits)
	}
	if res.Hits[0].Row["year"] != int64(1999) {
		t.Errorf("unexpected hit: %+v", res.Hits[0])
	}
}

func TestExecuteBatch_InvalidFilterReturnsErrNotPanic(t *testing.T) {
	c, tok := tinyCorpus(t)
	_, err := ExecuteBatch(context.Background(), nil, c, tok, []Request{{Text: "cat"}}, Options{Filter: "row.year >= )"})
	if err == nil {
		t.Fatal("expected compile error for malformed filter expression")
	}
}

func TestExecuteBatch_TopKTokenOneApproximates(t *testing.T) {
	c, tok := tinyCorpus(t)

	// With top_k_token = 1, each term's posting slice is truncated to
	// its single best-scoring document, so a query spanning multiple
	// terms may surface fewer (or different) candidates than the full
	// scan would.
	results, err := ExecuteBatch(context.Background(), nil, c, tok, []Request{{Text: "cat dog"}}, Options{TopK: 10, TopKToken: 1})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	res := results[0]
	if res.Err != nil {
		t.Fatalf("query error: %v", res.Err)
	}
	if len(res.Hits) > 2 {
		t.Errorf("hits = %+v, want at most 2 with top_k_token=1 truncation", res.Hits)
	}
}

func TestExecuteBatch_EmptyBatchReturnsEmptySlice(t *testing.T) {
	c, tok := tinyCorpus(t)
	results, err := ExecuteBatch(context.Background(), nil, c, tok, nil, Options{})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v, want empty", results)
	}
}

func TestExecuteBatch_DeadlineYieldsPartialNotError(t *testing.T) {
	c, tok := tinyCorpus(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond) // ensure the deadline has already elapsed

	results, err := ExecuteBatch(ctx, nil, c, tok, []Request{{Text: "cat dog sat"}}, Options{TopK: 10, TopKToken: -1})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if !results[0].Partial {
		t.Error("expected Partial=true once the context deadline has elapsed")
	}
}

func TestExecuteBatch_OutOfDictionaryTermYieldsNoHits(t *testing.T) {
	c, tok := tinyCorpus(t)
	results, err := ExecuteBatch(context.Background(), nil, c, tok, []Request{{Text: "zzyzx"}}, Options{TopK: 10, TopKToken: -1})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if len(results[0].Hits) != 0 {
		t.Errorf("hits = %+v, want none for an out-of-dictionary term", results[0].Hits)
	}
}
