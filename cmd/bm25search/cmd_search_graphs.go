package main

import (
	"github.com/spf13/cobra"
)

func newSearchGraphsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search-graphs [query text]",
		Short: "Search via the bipartite document/query graph re-ranker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, closeFn, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			hits, err := e.SearchGraphs(ctx, args[0], searchTopK)
			if err != nil {
				return err
			}
			return printJSON(hits)
		},
	}
	cmd.Flags().IntVar(&searchTopK, "top-k", 0, "number of results to return (0 uses the configured default)")
	return cmd
}
