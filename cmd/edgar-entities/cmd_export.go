package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/edgar-entities/internal/store"
)

func exportCmd() *cobra.Command {
	var (
		snapshot string
		format   string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the last snapshot to JSON or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "csv" {
				return fmt.Errorf("export: unsupported format %q (use json or csv)", format)
			}
			logger := newLogger()
			m, _ := newMetrics()

			_, snap, err := openSnapshot(cmd, snapshot, m, logger)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, createErr := os.Create(output)
				if createErr != nil {
					return fmt.Errorf("export: creating output file: %w", createErr)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			switch format {
			case "json":
				err = store.WriteSnapshot(w, snap)
			case "csv":
				err = writeCSV(w, snap.Records)
			}
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if output != "" && output != "-" {
				logger.Info("exported records", "count", len(snap.Records), "format", format, "path", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "snapshot to read (default: configured store.snapshot_path)")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}
