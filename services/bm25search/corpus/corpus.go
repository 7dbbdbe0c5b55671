// Package corpus composes the term dictionary, document store, posting
// store, and score store into the single unit the indexer, deleter, and
// query executor operate on. The same type is used for both the
// document index and the stored-query index: queries are first-class
// documents in a parallel index over the query text.
package corpus

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/bm25search/services/bm25search/dictionary"
	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
	"github.com/AleutianAI/bm25search/services/bm25search/postings"
	"github.com/AleutianAI/bm25search/services/bm25search/scoring"
)

// Corpus owns one instance each of the term dictionary, document store,
// posting store, and score store, plus the single-writer lock that
// serialises ingests and deletes.
type Corpus struct {
	Dict     *dictionary.Dictionary
	Docs     *docstore.Store
	Postings *postings.Store
	Scores   *scoring.Store

	// writerMu is the single-writer lock. Ingest and delete hold it for
	// their entire logical operation, so documents become visible
	// atomically only once every phase has completed. Reads do not
	// acquire it; they rely on each component's own RWMutex for a
	// consistent-enough snapshot, so readers never block on a writer.
	writerMu sync.Mutex
}

// New returns an empty Corpus configured with the given BM25 parameters.
func New(params scoring.Params) *Corpus {
	return &Corpus{
		Dict:     dictionary.New(),
		Docs:     docstore.New(),
		Postings: postings.New(),
		Scores:   scoring.New(params),
	}
}

// Lock acquires the writer lock for the duration of one logical ingest or
// delete operation; Unlock releases it. Callers should defer Unlock
// immediately after a successful Lock.
func (c *Corpus) Lock()   { c.writerMu.Lock() }
func (c *Corpus) Unlock() { c.writerMu.Unlock() }

// RebuildAffectedTerms recomputes the score entry for every term in
// affected, in parallel. It must be called with the writer lock held.
// nJobs bounds worker concurrency; <= 0 sets no bound (one goroutine per
// affected term).
func (c *Corpus) RebuildAffectedTerms(ctx context.Context, affected []dictionary.TermID, nJobs int) error {
	if len(affected) == 0 {
		return nil
	}

	n := c.Docs.N()
	avgdl := c.Docs.AvgDL()

	g, gctx := errgroup.WithContext(ctx)
	if nJobs > 0 {
		g.SetLimit(nJobs)
	}

	for _, term := range affected {
		term := term
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			df, err := c.Dict.DF(term)
			if err != nil {
				return err
			}

			raw := c.Postings.ByTerm(term)
			inputs := make([]scoring.PostingInput, 0, len(raw))
			for _, p := range raw {
				length, ok := c.Docs.GetLength(p.Doc)
				if !ok {
					// The document was deleted concurrently with this
					// rebuild; skip it rather than fail the whole
					// rebuild. In practice this can't happen since
					// callers hold the writer lock across this call.
					continue
				}
				inputs = append(inputs, scoring.PostingInput{Doc: p.Doc, TF: p.TF, Length: length})
			}

			c.Scores.Rebuild(term, df, n, avgdl, inputs)
			return nil
		})
	}

	return g.Wait()
}

// Stats returns the live document count and average document length.
func (c *Corpus) Stats() (n int, avgdl float64) {
	return c.Docs.N(), c.Docs.AvgDL()
}
