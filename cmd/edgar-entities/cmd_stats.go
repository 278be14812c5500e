package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	var (
		snapshot string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show outcome counts from the last snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			m, _ := newMetrics()

			_, snap, err := openSnapshot(cmd, snapshot, m, logger)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return encodeJSON(out, map[string]any{
					"run_id":     snap.RunID,
					"created_at": snap.CreatedAt,
					"sources":    len(snap.Sources),
					"stats":      snap.Stats,
				})
			}
			fmt.Fprintf(out, "Run:          %s (%s)\n", snap.RunID, snap.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Sources:      %d\n", len(snap.Sources))
			writeSummary(out, &snap.Stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "snapshot to read (default: configured store.snapshot_path)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
