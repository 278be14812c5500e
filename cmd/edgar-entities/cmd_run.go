package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/edgar-entities/internal/indexer"
	"github.com/ajitpratap0/edgar-entities/internal/metrics"
	"github.com/ajitpratap0/edgar-entities/internal/store"
)

func runCmd() *cobra.Command {
	var (
		from     int
		to       int
		maxFiles int
		describe bool
		snapshot string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch EDGAR daily company indexes, classify every filer and save a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			m, _ := newMetrics()
			runID := uuid.NewString()
			logger = logger.With("run_id", runID)

			if to == 0 {
				to = from
			}
			if to < from {
				return fmt.Errorf("run: --to (%d) is before --from (%d)", to, from)
			}

			client := newEdgarClient(m, logger)

			urls, err := client.ListRange(ctx, from, to)
			if err != nil {
				return fmt.Errorf("run: listing index files: %w", err)
			}
			if len(urls) == 0 {
				return fmt.Errorf("run: no company index files published for %d-%d", from, to)
			}
			if maxFiles > 0 && len(urls) > maxFiles {
				urls = urls[:maxFiles]
			}
			logger.Info("listed index files", "count", len(urls), "from", from, "to", to)

			st := newStore(m, logger)
			idx := indexer.NewIndexer(st, cfg.Edgar.FetchWorkers, m, logger)
			rep, err := idx.IndexRemote(ctx, client, urls)
			if err != nil {
				return fmt.Errorf("run: indexing: %w", err)
			}
			writeIndexReport(os.Stderr, rep)

			return classifyAndSave(cmd, st, runID, urls, snapshot, describe, m, logger)
		},
	}

	cmd.Flags().IntVar(&from, "from", time.Now().Year(), "first year to fetch")
	cmd.Flags().IntVar(&to, "to", 0, "last year to fetch (default: --from)")
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "cap on the number of index files fetched (0 = all)")
	cmd.Flags().BoolVar(&describe, "describe", false, "print every record with its outcome")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "snapshot output path (default: configured store.snapshot_path)")
	return cmd
}

// classifyAndSave classifies the ingested batch, writes the snapshot and
// prints the summary. An empty batch is an error.
func classifyAndSave(cmd *cobra.Command, st *store.MemoryStore, runID string, sources []string, snapshot string, describe bool, m *metrics.Metrics, logger *slog.Logger) error {
	ctx := cmd.Context()

	d, cleanup, err := newDispatcher(ctx, m, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := st.ClassifyAll(ctx, d); err != nil {
		if errors.Is(err, store.ErrEmptyPopulation) {
			return fmt.Errorf("no sightings were ingested; nothing to classify: %w", err)
		}
		return fmt.Errorf("classifying: %w", err)
	}

	snap, err := store.NewSnapshot(ctx, st, runID, sources)
	if err != nil {
		return err
	}
	if snapshot == "" {
		snapshot = cfg.Store.SnapshotPath
	}
	if err := store.SaveSnapshot(snapshot, snap); err != nil {
		return err
	}
	logger.Info("snapshot saved", "path", snapshot, "records", len(snap.Records))

	out := cmd.OutOrStdout()
	if describe {
		writeDescribe(out, snap.Records)
		fmt.Fprintln(out)
	}
	writeSummary(out, &snap.Stats)
	return nil
}
