package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/bm25search/services/bm25search/query"
)

var (
	searchTopK      int
	searchTopKToken int
	searchFilter    string
	searchOrderBy   string
)

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&searchTopK, "top-k", 0, "number of results to return per query (0 uses the configured default)")
	cmd.Flags().IntVar(&searchTopKToken, "top-k-token", 0, "per-term posting truncation (0 uses the configured default)")
	cmd.Flags().StringVar(&searchFilter, "filter", "", "CEL boolean expression over row to prune results")
	cmd.Flags().StringVar(&searchOrderBy, "order-by", "", "CEL numeric expression over row to sort by, descending")
}

func newSearchDocumentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search-documents [query text]",
		Short: "Search the document index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], false)
		},
	}
	addSearchFlags(cmd)
	return cmd
}

func newSearchQueriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search-queries [query text]",
		Short: "Search the stored-query index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], true)
		},
	}
	addSearchFlags(cmd)
	return cmd
}

func runSearch(cmd *cobra.Command, text string, queries bool) error {
	ctx := cmd.Context()
	e, closeFn, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	opts := query.Options{
		TopK:      searchTopK,
		TopKToken: searchTopKToken,
		Filter:    searchFilter,
		OrderBy:   searchOrderBy,
	}
	requests := []query.Request{{Text: text}}

	var results []query.Result
	if queries {
		results, err = e.SearchQueries(ctx, requests, opts)
	} else {
		results, err = e.SearchDocuments(ctx, requests, opts)
	}
	if err != nil {
		return err
	}
	return printJSON(results)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
