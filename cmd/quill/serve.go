package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/quillforge/quill/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose refine_text and ask as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close(ctx)

		logger.Info("mcp server listening on stdio")
		return server.ServeStdio(mcpserver.New(eng))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
