package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStopwordsCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "stopwords",
		Short: "Manage the runtime stopword overrides",
	}
	root.AddCommand(&cobra.Command{
		Use:   "add [word...]",
		Short: "Add words to the stopword set, recompiling the tokenizer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStopwordChange(cmd, args, true)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "remove [word...]",
		Short: "Remove words from the stopword set, recompiling the tokenizer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStopwordChange(cmd, args, false)
		},
	})
	return root
}

func runStopwordChange(cmd *cobra.Command, words []string, add bool) error {
	ctx := cmd.Context()
	e, closeFn, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if add {
		err = e.AddStopwords(ctx, words)
	} else {
		err = e.RemoveStopwords(ctx, words)
	}
	if err != nil {
		return err
	}
	fmt.Printf("ok: %d word(s)\n", len(words))
	return nil
}
