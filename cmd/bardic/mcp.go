package main

import (
	"github.com/aretw0/bardic"
	"github.com/aretw0/bardic/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp <stories-dir>",
	Short: "Serve stories as MCP tools on stdio",
	Long: `Exposes story sessions to Model Context Protocol clients. Tools cover listing
stories, starting or resuming a session, choosing, answering inputs and saving.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		return cli.ServeMCP(cmd.Context(), cli.ServeOptions{
			StoriesDir: dir,
			Config:     appConfig,
			Logger:     logger,
		}, bardic.Version)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
