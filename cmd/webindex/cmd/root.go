// Package cmd provides the CLI commands for webindex.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/webindex/webindex/internal/logging"
)

var (
	debugMode      bool
	loggingCleanup func()
	appLogger      *slog.Logger
)

// NewRootCmd creates the root command for the webindex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webindex",
		Short: "Local, privacy-preserving semantic search over captured web pages",
		Long: `webindex builds a hybrid BM25 + dense-embedding search index over
web pages captured to disk as MHTML archives.

Everything runs locally: no captured content or query ever leaves the
machine. Ingestion decodes the archive, extracts readable text, tokenizes
and chunks it into overlapping passages, embeds each passage with a local
ONNX model, and persists the result to a flat-file store that hybrid
search queries by Reciprocal Rank Fusion over BM25 and cosine similarity.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.webindex/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newRebuildIndexCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeMCPCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if debugMode {
		logCfg = logging.DebugConfig()
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// CLI usability wins over strict logging setup: fall back to a
		// stderr-only logger rather than failing every subcommand.
		appLogger = slog.Default()
		return nil
	}
	loggingCleanup = cleanup
	appLogger = logger
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
