package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	var (
		forms   string
		explain bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "classify NAME...",
		Short: "Classify one or more filer names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			m, _ := newMetrics()

			d, cleanup, err := newDispatcher(cmd.Context(), m, logger)
			if err != nil {
				return fmt.Errorf("classify: %w", err)
			}
			defer cleanup()

			var formTypes []string
			for _, f := range strings.Split(forms, ",") {
				if f = strings.TrimSpace(f); f != "" {
					formTypes = append(formTypes, f)
				}
			}

			out := cmd.OutOrStdout()
			for _, name := range args {
				ex := d.Explain(name, formTypes)
				switch {
				case asJSON:
					b, err := json.Marshal(map[string]any{"name": name, "result": ex})
					if err != nil {
						return fmt.Errorf("classify: encoding: %w", err)
					}
					fmt.Fprintln(out, string(b))
				case explain:
					fmt.Fprintf(out, "%-14s %s  [%s %s %s]\n", ex.Classification.Key(), name, ex.Source, ex.Phase, ex.Rule)
				default:
					fmt.Fprintf(out, "%-14s %s\n", ex.Classification.Key(), name)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&forms, "forms", "", "comma-separated form types observed for the filer")
	cmd.Flags().BoolVar(&explain, "explain", false, "show the rule that decided each outcome")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per name")
	return cmd
}
