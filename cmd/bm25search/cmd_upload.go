package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
	"github.com/AleutianAI/bm25search/services/bm25search/indexer"
)

// uploadFileRecord is one element of the JSON array the upload commands
// read records from.
type uploadFileRecord struct {
	ExternalKey string       `json:"external_key"`
	Row         docstore.Row `json:"row"`
}

func readRecordsFile(path string) ([]indexer.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records file: %w", err)
	}
	var raw []uploadFileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing records file as a JSON array: %w", err)
	}
	records := make([]indexer.Record, len(raw))
	for i, r := range raw {
		records[i] = indexer.Record{ExternalKey: r.ExternalKey, Row: r.Row}
	}
	return records, nil
}

var (
	uploadFile   string
	uploadFields []string
)

func newUploadDocumentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload-documents",
		Short: "Upload documents from a JSON records file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, false)
		},
	}
	cmd.Flags().StringVar(&uploadFile, "file", "", "path to a JSON array of {external_key, row} records")
	cmd.Flags().StringSliceVar(&uploadFields, "fields", nil, "row columns to concatenate and index")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("fields")
	return cmd
}

func newUploadQueriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload-queries",
		Short: "Upload stored queries from a JSON records file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, true)
		},
	}
	cmd.Flags().StringVar(&uploadFile, "file", "", "path to a JSON array of {external_key, row} records")
	cmd.Flags().StringSliceVar(&uploadFields, "fields", nil, "row columns to concatenate and index")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("fields")
	return cmd
}

func runUpload(cmd *cobra.Command, queries bool) error {
	ctx := cmd.Context()
	e, closeFn, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	records, err := readRecordsFile(uploadFile)
	if err != nil {
		return err
	}

	var inserted, skipped, failed int
	if queries {
		s, err := e.UploadQueries(ctx, records, uploadFields)
		if err != nil {
			return err
		}
		inserted, skipped, failed = s.Inserted, s.Skipped, s.Failed
	} else {
		s, err := e.UploadDocuments(ctx, records, uploadFields)
		if err != nil {
			return err
		}
		inserted, skipped, failed = s.Inserted, s.Skipped, s.Failed
	}
	fmt.Printf("inserted=%d skipped=%d failed=%d\n", inserted, skipped, failed)
	return nil
}
