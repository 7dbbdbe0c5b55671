package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteDocumentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-documents [external_key...]",
		Short: "Delete documents by external key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args, false)
		},
	}
}

func newDeleteQueriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-queries [external_key...]",
		Short: "Delete stored queries by external key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args, true)
		},
	}
}

func runDelete(cmd *cobra.Command, keys []string, queries bool) error {
	ctx := cmd.Context()
	e, closeFn, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	var deletedCount int
	if queries {
		summary, err := e.DeleteQueries(ctx, keys)
		if err != nil {
			return err
		}
		deletedCount = len(summary.Deleted)
	} else {
		summary, err := e.DeleteDocuments(ctx, keys)
		if err != nil {
			return err
		}
		deletedCount = len(summary.Deleted)
	}
	fmt.Printf("deleted=%d\n", deletedCount)
	return nil
}
