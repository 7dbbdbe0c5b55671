// Command bm25search runs the BM25 document search engine as a library
// over a BadgerDB-backed corpus: upload, delete, and search documents and
// stored queries, re-rank via the bipartite graph, and evaluate retrieval
// quality.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/bm25search/services/bm25search/config"
	"github.com/AleutianAI/bm25search/services/bm25search/engine"
	"github.com/AleutianAI/bm25search/services/bm25search/metrics"
	badgerstore "github.com/AleutianAI/bm25search/services/bm25search/store/badger"
)

var (
	dataDir    string
	configPath string
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bm25search",
		Short: "BM25 document search engine",
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "./bm25search-data", "BadgerDB directory for persisted corpus state")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults to the built-in defaults)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newUploadDocumentsCommand())
	root.AddCommand(newUploadQueriesCommand())
	root.AddCommand(newSearchDocumentsCommand())
	root.AddCommand(newSearchQueriesCommand())
	root.AddCommand(newSearchGraphsCommand())
	root.AddCommand(newDeleteDocumentsCommand())
	root.AddCommand(newDeleteQueriesCommand())
	root.AddCommand(newEvaluateCommand())
	root.AddCommand(newStopwordsCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configPath if set, else returns the built-in defaults.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return config.Parse(data)
}

// openEngine builds and loads an Engine backed by a BadgerDB at dataDir,
// returning a close function the caller must defer.
func openEngine(ctx context.Context) (*engine.Engine, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	opts := badger.DefaultOptions(dataDir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("opening badger db at %q: %w", dataDir, err)
	}

	store, err := badgerstore.New(db, slog.Default())
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	e, err := engine.New(cfg, store, slog.Default(), metrics.NewNoop())
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := e.Load(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := e.Snapshot(context.Background()); err != nil {
			slog.Error("failed to snapshot engine state on exit", slog.String("error", err.Error()))
		}
		db.Close()
	}
	return e, closeFn, nil
}
