// Package indexer implements document ingestion: tokenise, intern terms,
// write postings and document rows, then rebuild the score entries for
// every term the batch touched.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/bm25search/services/bm25search/corpus"
	"github.com/AleutianAI/bm25search/services/bm25search/dictionary"
	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
	"github.com/AleutianAI/bm25search/services/bm25search/postings"
	"github.com/AleutianAI/bm25search/services/bm25search/tokenize"
)

// Record is a single ingestion input: a caller-supplied primary key plus
// the row of typed columns to store and index.
type Record struct {
	ExternalKey string
	Row         docstore.Row
}

// Options configures one Ingest call.
type Options struct {
	// Fields lists which Row columns contribute to the indexed text, in
	// concatenation order. A missing or non-string field contributes
	// nothing (it is not an error).
	Fields []string

	// BatchSize bounds how many records are tokenised and written per
	// parallel unit of work.
	BatchSize int

	// NJobs bounds worker concurrency; <= 0 means "all cores."
	NJobs int
}

// Summary reports the outcome of one Ingest call: duplicate keys are
// skipped silently, not errors; malformed records fail individually.
type Summary struct {
	Inserted    int
	Skipped     int // duplicate external_key
	Failed      int
	FailedKeys  []string
}

// Ingest runs the five-phase ingestion pipeline against c, using tok to
// tokenise the concatenation of opts.Fields from each record's row.
// Ingesting the same records twice is a no-op: the dedupe phase skips
// any external_key the document store already knows about.
func Ingest(ctx context.Context, logger *slog.Logger, c *corpus.Corpus, tok *tokenize.Tokenizer, records []Record, opts Options) (Summary, error) {
	c.Lock()
	defer c.Unlock()

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 30000
	}

	// Phase 1: deduplicate by external_key against the document store.
	var summary Summary
	var fresh []Record
	for _, r := range records {
		if r.ExternalKey == "" {
			summary.Failed++
			summary.FailedKeys = append(summary.FailedKeys, r.ExternalKey)
			continue
		}
		if len(c.Docs.ListByKeys([]string{r.ExternalKey})) > 0 {
			summary.Skipped++
			continue
		}
		fresh = append(fresh, r)
	}

	if len(fresh) == 0 {
		return summary, nil
	}

	// Phase 2: batch the remaining records.
	batches := batchRecords(fresh, batchSize)

	// Phase 3: tokenise, intern, write — in parallel over batches.
	var mu sync.Mutex
	affectedSet := make(map[dictionary.TermID]struct{})

	g, gctx := errgroup.WithContext(ctx)
	if opts.NJobs > 0 {
		g.SetLimit(opts.NJobs)
	}

	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			localAffected, tuples, inserted, skipped := processBatch(c, tok, batch, opts.Fields)

			c.Postings.InsertMany(tuples)

			mu.Lock()
			for t := range localAffected {
				affectedSet[t] = struct{}{}
			}
			summary.Inserted += inserted
			summary.Skipped += skipped
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, fmt.Errorf("indexer: ingest: %w", err)
	}

	// Phase 4: stats (N, avgdl) are maintained incrementally by the
	// document store as each Create call lands; nothing further to do
	// here beyond reading them for phase 5.

	// Phase 5: rebuild score entries for the union of affected terms.
	affected := make([]dictionary.TermID, 0, len(affectedSet))
	for t := range affectedSet {
		affected = append(affected, t)
	}
	if err := c.RebuildAffectedTerms(ctx, affected, opts.NJobs); err != nil {
		return summary, fmt.Errorf("indexer: score rebuild: %w", err)
	}

	if logger != nil {
		logger.Info("ingest complete",
			"inserted", summary.Inserted,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
			"terms_rebuilt", len(affected),
		)
	}

	return summary, nil
}

// processBatch tokenises and writes one batch, returning the set of
// terms it touched, the postings to insert, and per-record outcome
// counts. It does not take the writer lock itself — the caller already
// holds it for the whole Ingest call — but it is safe to run
// concurrently with other processBatch calls because Dict, Docs, and
// Postings are each independently concurrency-safe.
func processBatch(c *corpus.Corpus, tok *tokenize.Tokenizer, batch []Record, fields []string) (affected map[dictionary.TermID]struct{}, tuples []postings.Tuple, inserted, skipped int) {
	affected = make(map[dictionary.TermID]struct{})

	for _, r := range batch {
		text := extractText(r.Row, fields)
		terms := tok.Tokenize(text)

		tf := make(map[dictionary.TermID]uint32, len(terms))
		for _, surface := range terms {
			id := c.Dict.Intern(surface)
			tf[id]++
		}

		docID, created := c.Docs.Create(r.ExternalKey, uint32(len(terms)), r.Row)
		if !created {
			// Raced with a concurrent duplicate within this same call;
			// duplicate keys are skipped, not failed.
			skipped++
			continue
		}

		for term, count := range tf {
			tuples = append(tuples, postings.Tuple{Doc: docID, Term: term, TF: count})
			affected[term] = struct{}{}
			c.Dict.BumpDF(term, 1)
		}

		inserted++
	}

	return affected, tuples, inserted, skipped
}

// extractText concatenates the string-valued fields named by fields, in
// order, separated by a space. A missing or non-string field contributes
// nothing.
func extractText(row docstore.Row, fields []string) string {
	var b strings.Builder
	for i, f := range fields {
		v, ok := row[f]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if i > 0 && b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}
	return b.String()
}

func batchRecords(records []Record, size int) [][]Record {
	var batches [][]Record
	for i := 0; i < len(records); i += size {
		end := i + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[i:end])
	}
	return batches
}
