package main

import (
	"fmt"
	"os"

	"github.com/aretw0/bardic/internal/cli"
	"github.com/aretw0/bardic/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <story.bard|story.json>",
	Short: "Export the story graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of passages, choices and jumps. With --save the passage of that save is highlighted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, _ := cmd.Flags().GetString("output")
		saveID, _ := cmd.Flags().GetString("save")

		doc, err := cli.LoadStory(args[0], logger)
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if saveID != "" {
			stores, err := cli.OpenStores(cmd.Context(), appConfig.Store)
			if err != nil {
				return err
			}
			defer stores.Close()
			save, err := stores.Saves.Load(cmd.Context(), saveID)
			if err != nil {
				return err
			}
			overlay = &graph.GraphOverlay{CurrentPassage: save.CurrentPassageID}
			for _, c := range save.UsedChoices {
				overlay.VisitedPassages = append(overlay.VisitedPassages, c.Passage, c.Target)
			}
		}

		output := graph.GenerateMermaid(doc, overlay)
		if outPath == "" {
			fmt.Fprint(cmd.OutOrStdout(), output)
			return nil
		}
		return os.WriteFile(outPath, []byte(output), 0o644)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	graphCmd.Flags().String("save", "", "Highlight the position of this save")
}
