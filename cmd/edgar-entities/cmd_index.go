package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/edgar-entities/internal/indexer"
)

func indexCmd() *cobra.Command {
	var (
		path     string
		describe bool
		snapshot string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Classify filers from local company index (.idx) files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return fmt.Errorf("index: --path is required")
			}
			logger := newLogger()
			ctx := cmd.Context()
			m, _ := newMetrics()
			runID := uuid.NewString()
			logger = logger.With("run_id", runID)

			st := newStore(m, logger)
			idx := indexer.NewIndexer(st, cfg.Edgar.FetchWorkers, m, logger)

			var (
				rep indexer.Report
				err error
			)
			info, statErr := os.Stat(path)
			switch {
			case statErr != nil:
				return fmt.Errorf("index: %w", statErr)
			case info.IsDir():
				rep, err = idx.IndexDirectory(ctx, path)
			default:
				rep, err = idx.IndexFile(ctx, path)
			}
			if err != nil {
				return fmt.Errorf("index: indexing %s: %w", path, err)
			}
			writeIndexReport(os.Stderr, rep)

			return classifyAndSave(cmd, st, runID, []string{path}, snapshot, describe, m, logger)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "index file or directory of *.idx files")
	cmd.Flags().BoolVar(&describe, "describe", false, "print every record with its outcome")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "snapshot output path (default: configured store.snapshot_path)")
	return cmd
}
