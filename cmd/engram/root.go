package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/soundprediction/engram/pkg/config"
	"github.com/soundprediction/engram/pkg/logging"
)

var (
	cfgFile  string
	logLevel string
	logFile  string

	// rootConfig and logCleanup are set by the persistent pre-run and
	// shared by every subcommand.
	rootConfig *config.Config
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "engram",
	Short: "Temporally-aware knowledge graphs for agents",
	Long: `Engram builds knowledge graphs that track how facts change over time.
Episodes of text, JSON, or conversation are distilled into an entity and
relationship graph stored in Neo4j; hybrid search recipes query it back out.

Complete documentation is available at https://github.com/soundprediction/engram`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-file") {
			cfg.Log.File = logFile
		}

		logger, cleanup := logging.Setup(logging.Config{
			Level:        cfg.Log.Level,
			File:         cfg.Log.File,
			TelemetryDir: cfg.Telemetry.Dir,
		})
		slog.SetDefault(logger)

		rootConfig = cfg
		logCleanup = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			logCleanup()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .engram.yaml in cwd or $HOME)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append JSON log records to this file")
}
