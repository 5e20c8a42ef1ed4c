package main

import (
	"fmt"

	"github.com/aretw0/bardic"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bardic",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bardic version %s (story format %s, save format %s)\n",
			bardic.Version, domain.FormatVersion, domain.SaveFormatVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
