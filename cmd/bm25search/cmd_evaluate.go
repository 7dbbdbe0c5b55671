package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/bm25search/services/bm25search/engine"
)

var evaluateFile string

// evaluateFileQuery is one element of the evaluation file's JSON array: a
// query string plus the external keys of its known-relevant documents.
type evaluateFileQuery struct {
	Text         string   `json:"text"`
	RelevantKeys []string `json:"relevant_keys"`
}

func newEvaluateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compute precision/recall/MRR/NDCG over a labelled query batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, closeFn, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			data, err := os.ReadFile(evaluateFile)
			if err != nil {
				return fmt.Errorf("reading evaluation file: %w", err)
			}
			var raw []evaluateFileQuery
			if err := json.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("parsing evaluation file as a JSON array: %w", err)
			}
			queries := make([]engine.EvalQuery, len(raw))
			for i, q := range raw {
				queries[i] = engine.EvalQuery{Text: q.Text, RelevantKeys: q.RelevantKeys}
			}

			metrics, err := e.Evaluate(ctx, queries, searchTopK)
			if err != nil {
				return err
			}
			return printJSON(metrics)
		},
	}
	cmd.Flags().StringVar(&evaluateFile, "file", "", "path to a JSON array of {text, relevant_keys} labelled queries")
	cmd.Flags().IntVar(&searchTopK, "top-k", 0, "cutoff for precision/recall/NDCG (0 uses the configured default)")
	cmd.MarkFlagRequired("file")
	return cmd
}
