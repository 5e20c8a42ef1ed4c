package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/bardic/internal/compiler"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var compileCmd = &cobra.Command{
	Use:   "compile <story.bard>",
	Short: "Compile a .bard story to JSON",
	Long:  `Compiles a .bard source file, resolving includes, and writes the story document as JSON or YAML.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")

		doc, err := compiler.CompileFile(args[0], compiler.WithLogger(logger))
		if err != nil {
			return err
		}
		data, err := compiler.Marshal(doc)
		if err != nil {
			return err
		}

		switch format {
		case "json":
		case "yaml":
			if data, err = toYAML(data); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q (want json or yaml)", format)
		}

		if outPath == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return err
		}
		logger.Info("story compiled", "source", args[0], "output", outPath, "passages", len(doc.Passages))
		fmt.Fprintf(cmd.ErrOrStderr(), "Compiled %d passages to %s\n", len(doc.Passages), outPath)
		return nil
	},
}

// toYAML re-encodes JSON as YAML so both formats share field names.
func toYAML(data []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return yaml.Marshal(v)
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	compileCmd.Flags().String("format", "json", "Output format: json or yaml")
}
