package main

import (
	"github.com/spf13/cobra"
	"github.com/statlab/bayeslab/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP server over stdio",
		Long: `Run an MCP (Model Context Protocol) server over stdio, exposing the
workflow as tools: bayeslab_simulate, bayeslab_fit, bayeslab_summary,
and bayeslab_compare. Intended to be launched by an MCP client.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "bayeslab",
				Version: version,
				Root:    root,
			})
			if err != nil {
				return err
			}
			return server.Run(cmd.Context())
		},
	}
}
