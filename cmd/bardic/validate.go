package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/bardic/internal/cli"
	"github.com/aretw0/bardic/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <story.bard|story.json>",
	Short: "Check a story for consistency",
	Long:  `Compiles the story, then crawls it from the initial passage and reports dead links and unreachable passages.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		doc, err := cli.LoadStory(args[0], logger)
		if err != nil {
			return err
		}
		report, err := validator.ValidateGraph(doc)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			for _, issue := range report.Issues {
				fmt.Fprintln(out, issue.String())
			}
		}
		if err := report.Err(); err != nil {
			return err
		}
		if !asJSON {
			fmt.Fprintf(out, "Story is valid: %d passages reachable, %d endings.\n", len(report.Reachable), len(report.Endings))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("json", false, "Print the report as JSON")
}
