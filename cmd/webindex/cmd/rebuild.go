package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRebuildIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-index",
		Short: "Rebuild the BM25 inverted index from persisted passages",
		Long: `Rebuild reconstructs the lexical inverted index from the chunks
already persisted on disk, without touching embeddings. Use this to
recover from a corrupted or stale index file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(appLogger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.orch.RebuildLexicalIndex(); err != nil {
				return fmt.Errorf("rebuild failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "lexical index rebuilt")
			return nil
		},
	}
}
