package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

type ingestOptions struct {
	url   string
	title string
}

func newIngestCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest <archive-file>",
		Short: "Decode, extract, embed, and index a captured web archive",
		Long: `Ingest reads a saved MHTML archive, decodes it, extracts readable
text, tokenizes and chunks it into overlapping passages, embeds each
passage, and persists the result.

Re-ingesting a URL that is already indexed is a no-op: the existing
page record is returned unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "Source URL (defaults to file://<path>)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Page title (defaults to the file name)")

	return cmd
}

func runIngest(cmd *cobra.Command, path string, opts ingestOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read archive file: %w", err)
	}

	url := opts.url
	if url == "" {
		url = "file://" + path
	}
	title := opts.title
	if title == "" {
		title = filepath.Base(path)
	}

	a, err := buildApp(appLogger)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.orch.Ingest(cmd.Context(), data, url, title)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "indexed %s\n", rec.URL)
	fmt.Fprintf(cmd.OutOrStdout(), "  page_id: %s\n", rec.PageID)
	fmt.Fprintf(cmd.OutOrStdout(), "  passages: %d\n", rec.ChunkCount)
	return nil
}
