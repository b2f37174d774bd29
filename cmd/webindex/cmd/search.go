package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/webindex/webindex/internal/config"
	"github.com/webindex/webindex/internal/search"
	"github.com/webindex/webindex/internal/ui"
)

type searchOptions struct {
	limit       int
	mode        string
	format      string
	interactive bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed archive",
		Long: `Search combines BM25 keyword matching and dense semantic similarity,
fused by Reciprocal Rank Fusion, to rank passages across every ingested
page. Pass --mode to use a single ranking signal instead of the hybrid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
			for _, a := range args[1:] {
				query += " " + a
			}
			return runSearch(cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Ranking mode: hybrid, bm25, or dense (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Launch the interactive results browser")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	a, err := buildApp(appLogger)
	if err != nil {
		return err
	}
	defer a.Close()

	mode := config.SearchMode(opts.mode)
	if mode == "" {
		mode = a.cfg.SearchMode
	}

	hits, err := a.orch.Search(cmd.Context(), query, opts.limit, mode)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if opts.interactive {
		if !ui.IsTTY(cmd.OutOrStdout()) {
			return fmt.Errorf("--interactive requires a terminal")
		}
		return ui.Run(query, hits, ui.DetectNoColor())
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}
	return formatSearchText(cmd, query, hits)
}

func formatSearchText(cmd *cobra.Command, query string, hits []search.ScoredHit) error {
	w := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintf(w, "no results for %q\n", query)
		return nil
	}

	fmt.Fprintf(w, "%d results for %q:\n\n", len(hits), query)
	for i, h := range hits {
		captured := time.UnixMilli(h.Timestamp).Format("2006-01-02")
		fmt.Fprintf(w, "%d. %s (score: %.4f)\n", i+1, h.PageTitle, h.Score)
		fmt.Fprintf(w, "   %s  (%s, %s)\n", h.PageURL, h.ChunkID, captured)
		fmt.Fprintf(w, "   %s\n\n", snippet(h.ChunkText, 200))
	}
	return nil
}

func snippet(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "..."
}
