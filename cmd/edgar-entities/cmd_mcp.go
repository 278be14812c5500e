package main

import (
	"log"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	entitiesmcp "github.com/ajitpratap0/edgar-entities/internal/mcp"
	"github.com/ajitpratap0/edgar-entities/internal/store"
)

func mcpCmd() *cobra.Command {
	var snapshot string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  classify_name  classify a filer name, optionally with its form types
  get_record     fetch a record from the last snapshot by CIK
  find_records   list records by kind, flag, name or form type
  stats          outcome counts of the last snapshot

If no snapshot can be loaded the server still starts; the record tools
return MCP error responses.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			m, _ := newMetrics()

			var st store.Store
			loaded, _, err := openSnapshot(cmd, snapshot, m, logger)
			if err != nil {
				logger.Error("mcp: snapshot unavailable; record tools will fail", "error", err)
			} else {
				st = loaded
			}

			d, cleanup, err := newDispatcher(ctx, m, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := entitiesmcp.NewServer(st, d, version, logger)
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: edgar-entities MCP server starting", "transport", "stdio")
			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "snapshot to serve (default: configured store.snapshot_path)")
	return cmd
}
