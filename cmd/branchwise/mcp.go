package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/branchwise/internal/cli"
	"github.com/aretw0/branchwise/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [tree]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the tree and its sessions as MCP tools and resources so agents
can walk a flow.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		if transport != "stdio" && transport != "sse" {
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		eng, be, err := openEngine(sigCtx, args)
		if err != nil {
			return err
		}
		defer be.close()

		srv := mcp.NewServer(eng.Sessions(), mcp.WithLogger(logger))

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		if transport == "stdio" {
			logger.Info("starting branchwise MCP server", "transport", transport, "tree", eng.Name)
			return srv.ServeStdio()
		}

		logger.Info("starting branchwise MCP server", "transport", transport, "port", cfg.Server.Port)
		if err := srv.ServeSSE(sigCtx, cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 0, "port to listen on, sse only (default 8080)")
}
