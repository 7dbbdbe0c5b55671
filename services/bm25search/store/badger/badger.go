// Package badger persists a corpus, the document<->query graph, and runtime
// stopword overrides to BadgerDB: JSON-marshal, gzip-compress, write
// under a small fixed key schema in one transaction, and verify a content
// hash on read.
package badger

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/bm25search/services/bm25search/corpus"
	"github.com/AleutianAI/bm25search/services/bm25search/dictionary"
	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
	"github.com/AleutianAI/bm25search/services/bm25search/graph"
	"github.com/AleutianAI/bm25search/services/bm25search/postings"
	"github.com/AleutianAI/bm25search/services/bm25search/scoring"
)

// SchemaVersion is stamped into every persisted corpus payload so a future
// incompatible change can detect and refuse to load old data.
const SchemaVersion = "bm25search.v1"

// Key schema: the dictionary, document store, postings, and scores for
// one corpus live together in one payload per named schema (N and avgdl
// are not stored; the document store recomputes them on load);
// stopwords and graph edges get their own top-level keys.
const (
	keyCorpusPrefix   = "corpus:"
	keyCorpusSuffix   = ":data"
	keyCorpusHashSuf  = ":hash"
	keyGraphEdges     = "graph:edges"
	keyGraphEdgesHash = "graph:edges:hash"
	keyStopwords      = "config:stopwords"
)

// Store wraps a BadgerDB handle with the read/write operations the engine
// needs for the documents corpus, the queries corpus, the bipartite
// graph, and the mutable stopword list.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// New wraps an already-opened BadgerDB instance. The caller owns the
// instance's lifecycle (open/close).
func New(db *badger.DB, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("badger: db must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}, nil
}

// corpusPayload is the full persisted shape of one corpus (either the
// documents index or the queries index): the term dictionary, every live
// document, every posting, and every term's score entry.
type corpusPayload struct {
	SchemaVersion string
	NextDocID     docstore.DocID
	Docs          []docstore.Snapshot
	Terms         []dictionary.Entry
	Postings      []postings.Tuple
	Scores        map[dictionary.TermID]scoring.Entry
}

// SaveCorpus persists c under schemaName ("documents" or "queries").
func (s *Store) SaveCorpus(ctx context.Context, schemaName string, c *corpus.Corpus) error {
	payload := corpusPayload{
		SchemaVersion: SchemaVersion,
		NextDocID:     c.Docs.NextID(),
		Docs:          c.Docs.SnapshotLive(),
		Terms:         c.Dict.Snapshot(),
		Postings:      c.Postings.Snapshot(),
		Scores:        c.Scores.Snapshot(),
	}
	compressed, err := marshalGzip(payload)
	if err != nil {
		return fmt.Errorf("badger: marshaling corpus %q: %w", schemaName, err)
	}

	key := []byte(keyCorpusPrefix + schemaName + keyCorpusSuffix)
	hashKey := []byte(keyCorpusPrefix + schemaName + keyCorpusHashSuf)
	hash := contentHash(compressed)
	err = withRetry(ctx, func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			if err := txn.Set(key, compressed); err != nil {
				return err
			}
			return txn.Set(hashKey, []byte(hash))
		})
	})
	if err != nil {
		return fmt.Errorf("badger: saving corpus %q: %w", schemaName, err)
	}

	s.logger.Info("corpus snapshot saved",
		slog.String("schema", schemaName),
		slog.Int("docs", len(payload.Docs)),
		slog.Int("terms", len(payload.Terms)),
		slog.Int("postings", len(payload.Postings)),
	)
	return nil
}

// LoadCorpus restores c's contents from the persisted payload under
// schemaName. A wrapped badger.ErrKeyNotFound (see IsNotFound) is
// returned if nothing has been saved yet for that schema; callers should
// treat that as "start empty," not a fatal error.
func (s *Store) LoadCorpus(ctx context.Context, schemaName string, c *corpus.Corpus) error {
	key := []byte(keyCorpusPrefix + schemaName + keyCorpusSuffix)
	hashKey := []byte(keyCorpusPrefix + schemaName + keyCorpusHashSuf)
	var compressed, wantHash []byte

	err := withRetry(ctx, func() error {
		return s.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get(key)
			if err != nil {
				return err
			}
			if compressed, err = item.ValueCopy(nil); err != nil {
				return err
			}
			hashItem, err := txn.Get(hashKey)
			if err != nil {
				return err
			}
			wantHash, err = hashItem.ValueCopy(nil)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("badger: loading corpus %q: %w", schemaName, err)
	}
	if got := contentHash(compressed); got != string(wantHash) {
		return fmt.Errorf("badger: corpus %q failed integrity check: expected %s, got %s", schemaName, wantHash, got)
	}

	var payload corpusPayload
	if err := unmarshalGzip(compressed, &payload); err != nil {
		return fmt.Errorf("badger: decoding corpus %q: %w", schemaName, err)
	}

	c.Dict.Restore(payload.Terms)
	c.Docs.Restore(payload.Docs, payload.NextDocID)
	c.Postings.Restore(payload.Postings)
	c.Scores.Restore(payload.Scores)

	s.logger.Info("corpus snapshot loaded",
		slog.String("schema", schemaName),
		slog.Int("docs", len(payload.Docs)),
		slog.Int("terms", len(payload.Terms)),
	)
	return nil
}

// SaveGraph persists every edge of the document<->query graph.
func (s *Store) SaveGraph(ctx context.Context, g *graph.Graph) error {
	edges := g.Snapshot()
	compressed, err := marshalGzip(edges)
	if err != nil {
		return fmt.Errorf("badger: marshaling graph: %w", err)
	}
	hash := contentHash(compressed)
	err = withRetry(ctx, func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			if err := txn.Set([]byte(keyGraphEdges), compressed); err != nil {
				return err
			}
			return txn.Set([]byte(keyGraphEdgesHash), []byte(hash))
		})
	})
	if err != nil {
		return fmt.Errorf("badger: saving graph: %w", err)
	}
	s.logger.Info("graph snapshot saved", slog.Int("edges", len(edges)))
	return nil
}

// LoadGraph restores g's edges from the persisted snapshot.
func (s *Store) LoadGraph(ctx context.Context, g *graph.Graph) error {
	var compressed, wantHash []byte
	err := withRetry(ctx, func() error {
		return s.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(keyGraphEdges))
			if err != nil {
				return err
			}
			if compressed, err = item.ValueCopy(nil); err != nil {
				return err
			}
			hashItem, err := txn.Get([]byte(keyGraphEdgesHash))
			if err != nil {
				return err
			}
			wantHash, err = hashItem.ValueCopy(nil)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("badger: loading graph: %w", err)
	}
	if got := contentHash(compressed); got != string(wantHash) {
		return fmt.Errorf("badger: graph failed integrity check: expected %s, got %s", wantHash, got)
	}
	var edges []graph.Edge
	if err := unmarshalGzip(compressed, &edges); err != nil {
		return fmt.Errorf("badger: decoding graph: %w", err)
	}
	g.Restore(edges)
	s.logger.Info("graph snapshot loaded", slog.Int("edges", len(edges)))
	return nil
}

// SaveStopwords persists the current runtime stopword overrides, which
// are mutable via AddStopwords/RemoveStopwords independent of the config
// file's initial list.
func (s *Store) SaveStopwords(ctx context.Context, words []string) error {
	data, err := json.Marshal(words)
	if err != nil {
		return fmt.Errorf("badger: marshaling stopwords: %w", err)
	}
	return withRetry(ctx, func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(keyStopwords), data)
		})
	})
}

// LoadStopwords returns the persisted stopword overrides, or (nil, false)
// if none have ever been saved.
func (s *Store) LoadStopwords(ctx context.Context) ([]string, bool, error) {
	var data []byte
	err := withRetry(ctx, func() error {
		return s.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(keyStopwords))
			if err != nil {
				return err
			}
			data, err = item.ValueCopy(nil)
			return err
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger: loading stopwords: %w", err)
	}
	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, false, fmt.Errorf("badger: decoding stopwords: %w", err)
	}
	return words, true, nil
}

// IsNotFound reports whether err is (or wraps) BadgerDB's key-not-found
// sentinel, so callers of LoadCorpus/LoadGraph can distinguish "nothing
// persisted yet" from a genuine storage failure.
func IsNotFound(err error) bool {
	return errors.Is(err, badger.ErrKeyNotFound)
}

func marshalGzip(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := gw.Write(data); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalGzip(compressed []byte, v any) error {
	gr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return err
	}
	defer gr.Close()
	data, err := io.ReadAll(gr)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func contentHash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
