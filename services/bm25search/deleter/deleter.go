// Package deleter implements document removal, symmetric to the indexer:
// resolve external keys to doc_ids, drop their postings and lengths,
// repair df, and rebuild the score entries of every term that lost a
// posting.
package deleter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/bm25search/services/bm25search/corpus"
	"github.com/AleutianAI/bm25search/services/bm25search/dictionary"
	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
)

// Options configures one Delete call.
type Options struct {
	// NJobs bounds worker concurrency for the score-rebuild phase;
	// <= 0 means "all cores."
	NJobs int
}

// Summary reports which documents were actually removed. Deleting a
// non-existent key is a no-op, not an error, so requesting keys that do
// not resolve to a live document simply leaves them out of Deleted.
type Summary struct {
	Deleted []docstore.DocID
}

// Delete resolves externalKeys to doc_ids, removes their postings and
// document rows, repairs df for every affected term, and rebuilds the
// score entries that referenced a deleted doc_id. If none of the
// requested keys exist, it succeeds with an empty Summary and does not
// touch corpus state.
func Delete(ctx context.Context, logger *slog.Logger, c *corpus.Corpus, externalKeys []string, opts Options) (Summary, error) {
	c.Lock()
	defer c.Unlock()

	docIDs := c.Docs.ListByKeys(externalKeys)
	if len(docIDs) == 0 {
		return Summary{}, nil
	}

	affectedSet := make(map[dictionary.TermID]struct{})
	for _, doc := range docIDs {
		for _, term := range c.Postings.DeleteByDoc(doc) {
			affectedSet[term] = struct{}{}
			c.Dict.BumpDF(term, -1)
		}
		c.Docs.Delete(doc)
	}

	affected := make([]dictionary.TermID, 0, len(affectedSet))
	for t := range affectedSet {
		affected = append(affected, t)
	}
	if err := c.RebuildAffectedTerms(ctx, affected, opts.NJobs); err != nil {
		return Summary{}, fmt.Errorf("deleter: score rebuild: %w", err)
	}

	if logger != nil {
		logger.Info("delete complete", "deleted", len(docIDs), "terms_rebuilt", len(affected))
	}

	return Summary{Deleted: docIDs}, nil
}
