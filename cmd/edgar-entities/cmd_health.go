package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/edgar-entities/internal/config"
	"github.com/ajitpratap0/edgar-entities/internal/oracle"
)

func healthCmd() *cobra.Command {
	var (
		snapshot string
		offline  bool
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the snapshot, SEC EDGAR and the configured name oracle",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			m, _ := newMetrics()
			out := cmd.OutOrStdout()
			allOK := true

			report := func(name string, err error) {
				if err != nil {
					fmt.Fprintf(out, "%s: FAIL (%v)\n", name, err)
					allOK = false
					return
				}
				fmt.Fprintf(out, "%s: OK\n", name)
			}

			if st, _, err := openSnapshot(cmd, snapshot, m, logger); err != nil {
				report("Snapshot", err)
			} else {
				fmt.Fprintf(out, "Snapshot: OK (%d records)\n", st.Len())
			}

			if offline {
				fmt.Fprintln(out, "SEC EDGAR: SKIPPED (--offline)")
			} else {
				_, err := newEdgarClient(m, logger).Fetch(ctx, cfg.Edgar.BaseURL)
				report("SEC EDGAR", err)
			}

			checkOracle(ctx, out, report)

			if !allOK {
				return fmt.Errorf("one or more health checks failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "snapshot to check (default: configured store.snapshot_path)")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the SEC EDGAR reachability check")
	return cmd
}

func checkOracle(ctx context.Context, out io.Writer, report func(string, error)) {
	switch cfg.Oracle.Provider {
	case config.OracleNone:
		fmt.Fprintln(out, "Oracle: DISABLED (structural name check only)")
		return
	case config.OracleList:
		if cfg.Oracle.NamesFile == "" {
			fmt.Fprintf(out, "Oracle: OK (built-in list, %d names)\n", oracle.DefaultNameList().Len())
			return
		}
		l, err := oracle.LoadNameList(cfg.Oracle.NamesFile)
		if err != nil {
			report("Oracle", err)
			return
		}
		fmt.Fprintf(out, "Oracle: OK (%s, %d names)\n", cfg.Oracle.NamesFile, l.Len())
		return
	case config.OracleClaude:
		if cfg.Claude.APIKey == "" {
			report("Claude API", fmt.Errorf("no API key configured"))
		} else {
			report("Claude API", nil)
		}
	}

	if cfg.Oracle.Cache == config.CacheRedis {
		client, err := oracle.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err == nil {
			_ = client.Close()
		}
		report("Redis", err)
	}
}
