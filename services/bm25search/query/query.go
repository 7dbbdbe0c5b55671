// Package query implements the search executor: tokenise each query,
// pull the truncated top_k_token postings for each resulting term from
// the score store, accumulate scores per document, apply an optional
// filter predicate and order-by expression, and return the top_k results.
package query

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/bm25search/services/bm25search/corpus"
	"github.com/AleutianAI/bm25search/services/bm25search/dictionary"
	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
)

// Request is a single query's text input.
type Request struct {
	Text string
}

// Options configures one batch of queries.
type Options struct {
	TopK      int
	TopKToken int

	// Filter and OrderBy are optional CEL expressions over "row". An
	// empty string disables the corresponding feature.
	Filter  string
	OrderBy string

	// NJobs bounds how many queries in the batch run concurrently;
	// <= 0 means "all cores."
	NJobs int
}

// Hit is one ranked result.
type Hit struct {
	Doc   docstore.DocID
	Score float64
	Row   docstore.Row
}

// Result is the outcome of executing one Request.
type Result struct {
	Hits []Hit

	// Partial is true if the query's context deadline elapsed before
	// every matching term's postings could be scanned; Hits then
	// reflects only the terms processed so far, a best-effort partial
	// ranking rather than an outright failure.
	Partial bool

	// Err is set if the query itself failed (e.g. the filter or order-by
	// expression failed to evaluate against a candidate row); it never
	// causes sibling queries in the same batch to fail. An expression that
	// does not compile fails the whole batch in ExecuteBatch instead.
	Err error
}

// Tokenizer is the subset of tokenize.Tokenizer the executor needs, kept
// narrow so tests can substitute a stub.
type Tokenizer interface {
	Tokenize(text string) []string
}

// ExecuteBatch runs every request in queries against c, independently —
// queries in a batch do not order or depend on one another. Filter and
// OrderBy, if set, are compiled once and shared across the whole batch.
func ExecuteBatch(ctx context.Context, logger *slog.Logger, c *corpus.Corpus, tok Tokenizer, queries []Request, opts Options) ([]Result, error) {
	filter, err := CompileFilter(opts.Filter)
	if err != nil {
		return nil, err
	}
	orderBy, err := CompileOrderBy(opts.OrderBy)
	if err != nil {
		return nil, err
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}
	topKToken := opts.TopKToken
	if topKToken == 0 {
		topKToken = 30000
	}

	results := make([]Result, len(queries))

	g, gctx := errgroup.WithContext(context.Background()) // a failing query must not cancel its siblings
	if opts.NJobs > 0 {
		g.SetLimit(opts.NJobs)
	}
	_ = gctx

	for i, req := range queries {
		i, req := i, req
		g.Go(func() error {
			results[i] = executeOne(ctx, c, tok, req, topK, topKToken, filter, orderBy)
			return nil
		})
	}
	_ = g.Wait() // executeOne never returns an error from g.Go; failures live in Result.Err

	if logger != nil {
		logger.Info("query batch complete", "count", len(queries), "top_k", topK, "top_k_token", topKToken)
	}

	return results, nil
}

// executeOne runs a single query to completion or until ctx's deadline
// elapses, accumulating BM25 scores across its terms, then applies
// filter/order-by and truncates to topK.
func executeOne(ctx context.Context, c *corpus.Corpus, tok Tokenizer, req Request, topK, topKToken int, filter *Filter, orderBy *OrderBy) Result {
	terms := tok.Tokenize(req.Text)

	accum := make(map[docstore.DocID]float64)
	partial := false

	for _, surface := range terms {
		select {
		case <-ctx.Done():
			partial = true
		default:
		}
		if partial {
			break
		}

		id, ok := c.Dict.Lookup(surface)
		if !ok {
			continue // out-of-dictionary term contributes nothing
		}
		docs, scores, ok := c.Scores.Slice(id, topKToken)
		if !ok {
			continue
		}
		for j, doc := range docs {
			accum[doc] += scores[j]
		}
	}

	candidates := make([]Hit, 0, len(accum))
	var firstErr error
	for doc, score := range accum {
		row, ok := c.Docs.GetRow(doc)
		if !ok {
			continue // deleted concurrently with scoring
		}
		matched, err := filter.Matches(row)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !matched {
			continue
		}
		candidates = append(candidates, Hit{Doc: doc, Score: score, Row: row})
	}
	if firstErr != nil {
		return Result{Err: firstErr}
	}

	if orderBy != nil {
		keys := make(map[docstore.DocID]float64, len(candidates))
		for _, h := range candidates {
			v, err := orderBy.Value(h.Row)
			if err != nil {
				return Result{Err: err}
			}
			keys[h.Doc] = v
		}
		sort.Slice(candidates, func(a, b int) bool {
			ka, kb := keys[candidates[a].Doc], keys[candidates[b].Doc]
			if ka != kb {
				return ka > kb
			}
			return candidates[a].Doc < candidates[b].Doc
		})
	} else {
		sort.Slice(candidates, func(a, b int) bool {
			if candidates[a].Score != candidates[b].Score {
				return candidates[a].Score > candidates[b].Score
			}
			return candidates[a].Doc < candidates[b].Doc
		})
	}

	if topK >= 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}

	return Result{Hits: candidates, Partial: partial}
}

// LookupTerms resolves query text to interned term ids without running a
// full search, using the same tokenisation a query search uses. Terms not
// in the dictionary are dropped; nothing is interned.
func LookupTerms(c *corpus.Corpus, tok Tokenizer, text string) []dictionary.TermID {
	terms := tok.Tokenize(text)
	ids := make([]dictionary.TermID, 0, len(terms))
	for _, surface := range terms {
		if id, ok := c.Dict.Lookup(surface); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
