package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/bardic/internal/cli"
	"github.com/spf13/cobra"
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Manage saved games",
	Long:  `List, inspect, and remove saves in the configured save store.`,
}

var savesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all saves, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := cli.OpenStores(cmd.Context(), appConfig.Store)
		if err != nil {
			return err
		}
		defer stores.Close()

		saves, err := stores.Saves.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing saves: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(saves) == 0 {
			fmt.Fprintln(out, "No saves found.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTORY\tNAME\tPASSAGE\tSAVED")
		for _, s := range saves {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.StoryID, s.SaveName, s.CurrentPassageID, s.Timestamp.Local().Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	},
}

var savesInspectCmd = &cobra.Command{
	Use:   "inspect <save-id>",
	Short: "Print a save as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := cli.OpenStores(cmd.Context(), appConfig.Store)
		if err != nil {
			return err
		}
		defer stores.Close()

		save, err := stores.Saves.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading save '%s': %w", args[0], err)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(save)
	},
}

var savesRmCmd = &cobra.Command{
	Use:   "rm <save-id>...",
	Short: "Remove one or more saves",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := cli.OpenStores(cmd.Context(), appConfig.Store)
		if err != nil {
			return err
		}
		defer stores.Close()

		var failed int
		for _, id := range args {
			if err := stores.Saves.Delete(cmd.Context(), id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed save '%s'\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("failed to remove %d saves", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(savesCmd)
	savesCmd.AddCommand(savesLsCmd)
	savesCmd.AddCommand(savesInspectCmd)
	savesCmd.AddCommand(savesRmCmd)
}
