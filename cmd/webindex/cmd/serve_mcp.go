package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webindex/webindex/internal/mcp"
)

func newServeMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve search/ingest/stats as MCP tools over stdio",
		Long: `serve-mcp starts an MCP server exposing the index's search, ingest,
and stats operations as tools, so an MCP-capable agent can query the
archive directly. The server speaks stdio JSON-RPC: nothing besides
protocol messages may be written to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(appLogger)
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := mcp.NewServer(a.orch, a.cfg, appLogger)
			if err != nil {
				return fmt.Errorf("build MCP server: %w", err)
			}
			return srv.Serve(cmd.Context())
		},
	}
}
