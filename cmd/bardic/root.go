package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/bardic/internal/cli"
	"github.com/aretw0/bardic/internal/config"
	"github.com/spf13/cobra"
)

var (
	appConfig config.Config
	logger    *slog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "bardic",
	Short:         "Bardic compiles and plays interactive fiction",
	Long:          `Bardic compiles .bard stories to JSON, plays them in the terminal and serves them over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		appConfig = cfg

		debug, _ := cmd.Flags().GetBool("debug")
		logger, logCloser, err = cli.NewLogger(cfg.Logging, debug)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

// applyFlags lets explicit flags win over file and environment settings.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("store") {
		cfg.Store.Kind, _ = flags.GetString("store")
	}
	if flags.Changed("save-dir") {
		cfg.Store.SavesDir, _ = flags.GetString("save-dir")
	}
	if flags.Changed("redis-addr") {
		cfg.Store.RedisAddr, _ = flags.GetString("redis-addr")
	}
	if flags.Changed("sqlite-path") {
		cfg.Store.SQLitePath, _ = flags.GetString("sqlite-path")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to bardic.yaml (default: ./bardic.yaml if present)")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.Bool("debug", false, "Enable debug logging")
	pf.String("store", config.StoreFile, "Save store: memory, file, redis or sqlite")
	pf.String("save-dir", ".bardic/saves", "Directory for the file save store")
	pf.String("redis-addr", "localhost:6379", "Redis address for the redis save store")
	pf.String("sqlite-path", ".bardic/saves.db", "Database path for the sqlite save store")
}
