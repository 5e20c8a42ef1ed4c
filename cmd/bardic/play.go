package main

import (
	"os"

	"github.com/aretw0/bardic/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var playCmd = &cobra.Command{
	Use:   "play <story.bard|story.json>",
	Short: "Play a story in the terminal",
	Long: `Plays a story interactively. Type a choice number to continue, or a command:
:save [id], :load [id], :saves, :reset, :help, :quit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		saveID, _ := cmd.Flags().GetString("save")
		resume, _ := cmd.Flags().GetBool("resume")
		jsonMode, _ := cmd.Flags().GetBool("json")
		noColor, _ := cmd.Flags().GetBool("no-color")

		pretty := !jsonMode && !noColor && term.IsTerminal(int(os.Stdout.Fd()))

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.RunPlay(sigCtx, cli.PlayOptions{
			StoryPath: args[0],
			SaveID:    saveID,
			Resume:    resume,
			JSON:      jsonMode,
			Pretty:    pretty,
			Config:    appConfig,
			Logger:    logger,
			In:        cmd.InOrStdin(),
			Out:       cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().String("save", "quicksave", "Default save slot for :save and :load")
	playCmd.Flags().Bool("resume", false, "Load the save slot before playing")
	playCmd.Flags().Bool("json", false, "Line-delimited JSON input and output")
	playCmd.Flags().Bool("no-color", false, "Disable markdown rendering and colours")
}
