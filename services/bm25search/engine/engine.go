// Package engine is the CLI/library facade: upload_documents,
// upload_queries, search_documents, search_queries, search_graphs,
// delete_documents, evaluate, and runtime stopword mutation. It wires
// together the documents corpus, the parallel queries corpus, the
// bipartite graph, the backing store, and the ambient
// logging/metrics/tracing stack.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/bm25search/services/bm25search/config"
	"github.com/AleutianAI/bm25search/services/bm25search/corpus"
	"github.com/AleutianAI/bm25search/services/bm25search/deleter"
	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
	"github.com/AleutianAI/bm25search/services/bm25search/graph"
	"github.com/AleutianAI/bm25search/services/bm25search/indexer"
	"github.com/AleutianAI/bm25search/services/bm25search/metrics"
	"github.com/AleutianAI/bm25search/services/bm25search/query"
	"github.com/AleutianAI/bm25search/services/bm25search/scoring"
	badgerstore "github.com/AleutianAI/bm25search/services/bm25search/store/badger"
	"github.com/AleutianAI/bm25search/services/bm25search/tokenize"
)

var tracer = otel.Tracer("bm25search.engine")

// Engine owns the document corpus, the stored-query corpus, the
// bipartite graph between them, and the optional backing store used for
// persistence across process restarts.
type Engine struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   *badgerstore.Store // nil means in-memory only, no persistence

	tokMu sync.RWMutex
	tok   *tokenize.Tokenizer

	Documents *corpus.Corpus
	Queries   *corpus.Corpus
	Graph     *graph.Graph

	stopMu    sync.Mutex
	stopwords map[string]struct{}
}

// New constructs an Engine from cfg. store may be nil to run entirely
// in-memory (e.g. for tests); m may be nil to disable metrics recording.
func New(cfg config.Config, store *badgerstore.Store, logger *slog.Logger, m *metrics.Metrics) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewNoop()
	}

	tok, err := tokenize.New(cfg.TokenizeConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	params := scoring.Params{K1: float64(cfg.K1), B: float64(cfg.B)}
	resolved := cfg.ResolveStopwords()
	stopSet := make(map[string]struct{}, len(resolved))
	for _, w := range resolved {
		stopSet[w] = struct{}{}
	}

	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		store:     store,
		tok:       tok,
		Documents: corpus.New(params),
		Queries:   corpus.New(params),
		Graph:     graph.New(),
		stopwords: stopSet,
	}
	return e, nil
}

// Load restores all engine state from the backing store. It is a no-op
// (not an error) for any schema that was never persisted.
func (e *Engine) Load(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.LoadCorpus(ctx, "documents", e.Documents); err != nil && !badgerstore.IsNotFound(err) {
		return fmt.Errorf("%w: loading documents: %v", ErrBackend, err)
	}
	if err := e.store.LoadCorpus(ctx, "queries", e.Queries); err != nil && !badgerstore.IsNotFound(err) {
		return fmt.Errorf("%w: loading queries: %v", ErrBackend, err)
	}
	if err := e.store.LoadGraph(ctx, e.Graph); err != nil && !badgerstore.IsNotFound(err) {
		return fmt.Errorf("%w: loading graph: %v", ErrBackend, err)
	}
	if words, found, err := e.store.LoadStopwords(ctx); err != nil {
		return fmt.Errorf("%w: loading stopwords: %v", ErrBackend, err)
	} else if found {
		e.stopMu.Lock()
		e.stopwords = make(map[string]struct{}, len(words))
		for _, w := range words {
			e.stopwords[w] = struct{}{}
		}
		e.stopMu.Unlock()
		if err := e.rebuildTokenizer(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return nil
}

// Snapshot persists all engine state to the backing store.
func (e *Engine) Snapshot(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.SaveCorpus(ctx, "documents", e.Documents); err != nil {
		return fmt.Errorf("%w: saving documents: %v", ErrBackend, err)
	}
	if err := e.store.SaveCorpus(ctx, "queries", e.Queries); err != nil {
		return fmt.Errorf("%w: saving queries: %v", ErrBackend, err)
	}
	if err := e.store.SaveGraph(ctx, e.Graph); err != nil {
		return fmt.Errorf("%w: saving graph: %v", ErrBackend, err)
	}
	return nil
}

func (e *Engine) currentTokenizer() *tokenize.Tokenizer {
	e.tokMu.RLock()
	defer e.tokMu.RUnlock()
	return e.tok
}

// rebuildTokenizer recompiles the tokenizer using cfg's settings plus the
// current runtime stopword overrides, so a stopword change is picked up
// by the next tokenisation call.
func (e *Engine) rebuildTokenizer() error {
	e.stopMu.Lock()
	words := make([]string, 0, len(e.stopwords))
	for w := range e.stopwords {
		words = append(words, w)
	}
	e.stopMu.Unlock()

	tc := e.cfg.TokenizeConfig()
	tc.Stopwords = words
	tok, err := tokenize.New(tc)
	if err != nil {
		return err
	}
	e.tokMu.Lock()
	e.tok = tok
	e.tokMu.Unlock()
	return nil
}

// AddStopwords merges words into the runtime stopword override set and
// persists it, if a backing store is configured.
func (e *Engine) AddStopwords(ctx context.Context, words []string) error {
	e.stopMu.Lock()
	for _, w := range words {
		e.stopwords[w] = struct{}{}
	}
	e.stopMu.Unlock()
	return e.persistStopwordChange(ctx)
}

// RemoveStopwords drops words from the runtime stopword override set.
func (e *Engine) RemoveStopwords(ctx context.Context, words []string) error {
	e.stopMu.Lock()
	for _, w := range words {
		delete(e.stopwords, w)
	}
	e.stopMu.Unlock()
	return e.persistStopwordChange(ctx)
}

func (e *Engine) persistStopwordChange(ctx context.Context) error {
	if err := e.rebuildTokenizer(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if e.store == nil {
		return nil
	}
	e.stopMu.Lock()
	words := make([]string, 0, len(e.stopwords))
	for w := range e.stopwords {
		words = append(words, w)
	}
	e.stopMu.Unlock()
	if err := e.store.SaveStopwords(ctx, words); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// UploadDocuments ingests records into the document corpus.
func (e *Engine) UploadDocuments(ctx context.Context, records []indexer.Record, fields []string) (indexer.Summary, error) {
	return e.upload(ctx, "upload_documents", e.Documents, records, fields)
}

// UploadQueries ingests records into the stored-query corpus — queries
// are first-class documents in a parallel index over the query text.
func (e *Engine) UploadQueries(ctx context.Context, records []indexer.Record, fields []string) (indexer.Summary, error) {
	return e.upload(ctx, "upload_queries", e.Queries, records, fields)
}

func (e *Engine) upload(ctx context.Context, op string, c *corpus.Corpus, records []indexer.Record, fields []string) (indexer.Summary, error) {
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.Int("records", len(records)))

	summary, err := indexer.Ingest(ctx, e.logger, c, e.currentTokenizer(), records, indexer.Options{
		Fields:    fields,
		BatchSize: int(e.cfg.IngestBatchSize),
		NJobs:     int(e.cfg.NJobs),
	})
	e.metrics.ObserveIngest(op, summary.Inserted, summary.Skipped, summary.Failed, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingest failed")
		return summary, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return summary, nil
}

// DeleteDocuments removes documents by external key, including their
// graph edges.
func (e *Engine) DeleteDocuments(ctx context.Context, externalKeys []string) (deleter.Summary, error) {
	return e.delete(ctx, "delete_documents", e.Documents, externalKeys, e.Graph.RemoveDocument)
}

// DeleteQueries removes stored queries by external key, including their
// graph edges.
func (e *Engine) DeleteQueries(ctx context.Context, externalKeys []string) (deleter.Summary, error) {
	return e.delete(ctx, "delete_queries", e.Queries, externalKeys, e.Graph.RemoveQuery)
}

func (e *Engine) delete(ctx context.Context, op string, c *corpus.Corpus, externalKeys []string, removeEdges func(docstore.DocID)) (deleter.Summary, error) {
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	summary, err := deleter.Delete(ctx, e.logger, c, externalKeys, deleter.Options{NJobs: int(e.cfg.NJobs)})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return summary, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	for _, doc := range summary.Deleted {
		removeEdges(doc)
	}
	return summary, nil
}

// SearchDocuments runs a batch of queries against the document corpus.
func (e *Engine) SearchDocuments(ctx context.Context, requests []query.Request, opts query.Options) ([]query.Result, error) {
	return e.search(ctx, "search_documents", e.Documents, requests, opts)
}

// SearchQueries runs a batch of queries against the stored-query corpus
// (the query executor is identical regardless of which index it targets).
func (e *Engine) SearchQueries(ctx context.Context, requests []query.Request, opts query.Options) ([]query.Result, error) {
	return e.search(ctx, "search_queries", e.Queries, requests, opts)
}

func (e *Engine) search(ctx context.Context, op string, c *corpus.Corpus, requests []query.Request, opts query.Options) ([]query.Result, error) {
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.Int("queries", len(requests)))

	opts = e.fillDefaults(opts)
	results, err := query.ExecuteBatch(ctx, e.logger, c, e.currentTokenizer(), requests, opts)
	e.metrics.ObserveQuery(op, len(requests), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return results, nil
}

func (e *Engine) fillDefaults(opts query.Options) query.Options {
	if opts.TopK <= 0 {
		opts.TopK = int(e.cfg.TopK)
	}
	if opts.TopKToken == 0 {
		opts.TopKToken = int(e.cfg.TopKToken)
	}
	if opts.NJobs == 0 {
		opts.NJobs = int(e.cfg.NJobs)
	}
	return opts
}

// SearchGraphs runs the document executor and the query executor over a
// single input text, joins via the bipartite graph, and returns the
// hybrid top-k.
func (e *Engine) SearchGraphs(ctx context.Context, text string, topK int) ([]graph.FinalScore, error) {
	ctx, span := tracer.Start(ctx, "search_graphs")
	defer span.End()

	if topK <= 0 {
		topK = int(e.cfg.TopK)
	}

	opts := query.Options{TopK: topK, TopKToken: int(e.cfg.TopKTokenGraph), NJobs: int(e.cfg.NJobs)}

	docResults, err := query.ExecuteBatch(ctx, e.logger, e.Documents, e.currentTokenizer(), []query.Request{{Text: text}}, opts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	queryResults, err := query.ExecuteBatch(ctx, e.logger, e.Queries, e.currentTokenizer(), []query.Request{{Text: text}}, opts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	bd := make([]graph.ScoredDoc, 0, len(docResults[0].Hits))
	for _, h := range docResults[0].Hits {
		bd = append(bd, graph.ScoredDoc{Doc: h.Doc, Score: h.Score})
	}
	bq := make([]graph.ScoredQuery, 0, len(queryResults[0].Hits))
	for _, h := range queryResults[0].Hits {
		bq = append(bq, graph.ScoredQuery{Query: h.Doc, Score: h.Score})
	}

	results := graph.Rerank(e.Graph, bd, bq, topK, nil)
	e.metrics.ObserveQuery("search_graphs", 1, nil)
	return results, nil
}
