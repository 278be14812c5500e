package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/edgar-entities/internal/models"
	"github.com/ajitpratap0/edgar-entities/internal/store"
)

func recordsCmd() *cobra.Command {
	var (
		snapshot string
		kind     string
		flag     string
		name     string
		form     string
		limit    int
		cursor   string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "records [CIK]",
		Short: "List classified records from the last snapshot, or show one by CIK",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			m, _ := newMetrics()

			st, _, err := openSnapshot(cmd, snapshot, m, logger)
			if err != nil {
				return fmt.Errorf("records: %w", err)
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				rec, err := st.Get(ctx, args[0])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("records: no record for CIK %s", args[0])
				}
				if err != nil {
					return fmt.Errorf("records: %w", err)
				}
				if asJSON {
					return encodeJSON(out, rec)
				}
				writeRecord(out, rec)
				return nil
			}

			filters, err := store.NewFilters(kind, flag, name, form)
			if err != nil {
				return fmt.Errorf("records: %w", err)
			}
			recs, next, err := st.List(ctx, filters, limit, cursor)
			if err != nil {
				return fmt.Errorf("records: listing: %w", err)
			}
			if asJSON {
				if recs == nil {
					recs = []models.Record{}
				}
				return encodeJSON(out, map[string]any{"records": recs, "next_cursor": next})
			}
			for i := range recs {
				fmt.Fprintf(out, "%-10s %-14s %s\n", recs[i].Identifier, outcomeLabel(recs[i].Classification), truncate(recs[i].OriginalName, 80))
			}
			if next != "" {
				fmt.Fprintf(out, "\nnext page: --cursor %s\n", next)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "snapshot to read (default: configured store.snapshot_path)")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind (company, person, unclassified, regime)")
	cmd.Flags().StringVar(&flag, "flag", "", "filter by regime flag")
	cmd.Flags().StringVar(&name, "name", "", "filter by case-insensitive substring of any recorded name")
	cmd.Flags().StringVar(&form, "form", "", "filter by form type")
	cmd.Flags().IntVar(&limit, "limit", 50, "page size (0 = all)")
	cmd.Flags().StringVar(&cursor, "cursor", "", "cursor from a previous page")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
